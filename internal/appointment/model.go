package appointment

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusConfirmed Status = "confirmada"
	StatusCancelled Status = "cancelada"
)

// Record is one confirmed or cancelled booking. DNI is the unique key for
// active bookings; records are never deleted, only flipped to cancelled.
type Record struct {
	ID          uuid.UUID
	Nombre      string
	DNI         string
	Edad        int
	Consultorio string
	Profesional string
	Fecha       string // dd/mm/yyyy as shown to the patient
	Hora        string // HH:MM
	ChatID      string
	Status      Status
	StartUTC    *time.Time // canonical slot start, used to re-release on change
	ConfirmedAt time.Time
	CancelledAt *time.Time
}
