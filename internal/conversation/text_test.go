package conversation

import "testing"

func TestIsValidName(t *testing.T) {
	valid := []string{
		"Maria Quispe",
		"josé ñahui",
		"Ana María Torres",
	}
	for _, s := range valid {
		if !IsValidName(s) {
			t.Errorf("IsValidName(%q) = false", s)
		}
	}

	invalid := []string{
		"Maria",
		"Maria 123",
		"12345678",
		"  ",
		"Juan P3rez",
	}
	for _, s := range invalid {
		if IsValidName(s) {
			t.Errorf("IsValidName(%q) = true", s)
		}
	}
}

func TestDNIValidation(t *testing.T) {
	if got := DNIDigits("DNI: 12.345.678"); got != "12345678" {
		t.Fatalf("DNIDigits = %q", got)
	}
	valid := []string{"12345678", "12 345 678", "mi dni es 12345678"}
	for _, s := range valid {
		if !IsValidDNI(s) {
			t.Errorf("IsValidDNI(%q) = false", s)
		}
	}
	invalid := []string{"1234567", "123456789", "sin numero"}
	for _, s := range invalid {
		if IsValidDNI(s) {
			t.Errorf("IsValidDNI(%q) = true", s)
		}
	}
}

func TestParseAge(t *testing.T) {
	cases := []struct {
		in   string
		want int
		ok   bool
	}{
		{"34", 34, true},
		{"  7 años", 7, true},
		{"119", 119, true},
		{"120", 0, false},
		{"0", 0, false},
		{"tengo 25", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, ok := ParseAge(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Errorf("ParseAge(%q) = (%d, %v), want (%d, %v)", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestMatchersFoldAccentsAndCase(t *testing.T) {
	if !IsAffirm("SÍ") {
		t.Error("SÍ should affirm")
	}
	if !IsAffirm("claro que si") {
		t.Error("claro que si should affirm")
	}
	if IsAffirm("siempre ocupado") {
		t.Error("bare substring should not affirm")
	}
	if !IsDeny("No, gracias") {
		t.Error("No, gracias should deny")
	}
	if !IsGreeting("Buenos días") {
		t.Error("Buenos días should greet")
	}
	if !IsDirectRequest("quiero sacar una CITA") {
		t.Error("quiero sacar una CITA should be a direct request")
	}
	if !IsChangeRequest("quisiera cambiar mi turno") {
		t.Error("cambiar should be a change request")
	}
	if IsChangeRequest("todo bien") {
		t.Error("todo bien is not a change request")
	}
}
