package conversation

import (
	"fmt"
	"strings"

	"github.com/taczaangel/MiProyecto/internal/slot"
	"github.com/taczaangel/MiProyecto/internal/slotapi"
)

// All user-facing copy lives here so the engine reads as flow control.

const divider = "━━━━━━━━━━━━━━━━"

const (
	msgNoSlots = "Lo sentimos 😔, actualmente *no hay turnos disponibles*.\n\nLas citas se liberan todos los *viernes a las 7:30 AM* 🕢. Por favor, escríbenos en ese horario para reservar tu cita. 📅"

	msgGreetingNoSlots = "👋 Hola. Lo sentimos 😔, actualmente *no hay turnos disponibles*.\n\nLas citas se liberan todos los *viernes a las 7:30 AM* 🕢. Por favor, escríbenos en ese horario para reservar tu cita. 📅"

	msgGreetingAsk = "👋 Hola, ¿desea reservar una cita? 🤔\n\nResponda *SÍ* o *NO*."

	msgConfirmIntentRetry = "Por favor responde:\n\n✅ *SÍ* si deseas una cita.\n❌ *NO* si no deseas una cita."

	msgDeclined = "De acuerdo. 👍 Si cambias de opinión escribe *Cita*."

	msgStartIntro = "📌 *IMPORTANTE:* Las citas se asignan *una por una*. Solo puede sacar *una cita por paciente*. Una vez termine con un paciente, podrá agendar otra para el siguiente.\n\n" + divider + "\n\nPara comenzar, por favor envíe el *Nombre y Apellido* del Paciente. 📝\n\n_(Mínimo 2 palabras y solo letras)_"

	msgStartIntroAffirmed = "📌 *IMPORTANTE:* Las citas se asignan *una por una*. Solo puede sacar *una cita por paciente*. Una vez termine con un paciente, podrá agendar otra para el siguiente.\n\n" + divider + "\n\nGenial. 😄\n\nEnvíe el *Nombre y Apellido* del Paciente por favor. 📝\n\n_(Mínimo 2 palabras y solo letras)_"

	msgInvalidName = "❌ *Nombre incompleto o inválido.*\n\nPor favor envíe el *Nombre y Apellido* completo. 📝\n\n_(Mínimo 2 palabras y solo letras)_\n\n*Ejemplo:* Juan Pérez"

	msgAskDNI = "Perfecto. 😄\n\nAhora envíe el Número de *DNI* del Paciente. 🆔\n\n_(Debe tener exactamente 8 dígitos)_"

	msgInvalidDNI = "❌ *DNI inválido*.\n\nEl DNI debe tener *exactamente 8 dígitos*. ✅\n\nPor favor, verifique e intente nuevamente.\n\n*Ejemplo:* 12345678"

	msgAskAge = "Gracias. 😄\n\nIndíqueme la *edad* del Paciente. 🎂\n\n_(Solo el número por favor)_\n\n*Ejemplo:*25"

	msgInvalidAge = "❌ *Edad inválida*.\n\nPor favor envíe un número entre *1 y 119*. 🔢\n\n*Ejemplo:* 25"

	msgNoPediatricButGeneral = "😔 Lo sentimos, *no hay turnos disponibles* para *Odontopediatría* en este momento.\n\n✅ Sin embargo, tenemos turnos disponibles en *Odontología General* que solo se brinda a mayores de *11 años*.\n\nSi deseas agendar para un mayor de 11 años, escribe *Cita* nuevamente. 📝\n\nLas citas para odontopediatría se liberan todos los *viernes a las 7:30 AM* 🕢."

	msgNoGeneralButPediatric = "😔 Lo sentimos, *no hay turnos disponibles* para *Odontología General* en este momento.\n\n✅ Aún tenemos turnos para *Odontopediatría* que solo se brinda a menores de *11 años*.\n\nSi deseas agendar para un menor, escribe *Cita* nuevamente. 📝 ¡Apresúrate que son muy limitados!\n\nLas citas para odontología general se liberan todos los *viernes a las 7:30 AM* 🕢."

	msgNoSlotsEither = "😔 Lo sentimos, *no hay turnos disponibles* en este momento ni en *Odontopediatría* ni en *Odontología General*.\n\nLas citas se liberan todos los *viernes a las 7:30 AM* 🕢. Por favor, escríbenos en ese horario. 📅"

	msgDeniedOfferPediatric = "Entendido. 👍\n\n✅ Aún tenemos turnos para *Odontopediatría* que solo se brinda a menores de *11 años*.\n\nSi deseas agendar para un menor, escribe *Cita*. 📝 ¡Apresúrate que son muy limitados!"

	msgDeniedOfferGeneral = "Entendido. 👍\n\n✅ Aún tenemos turnos para *Odontología General* que solo se brinda a mayores de *11 años*.\n\nSi deseas agendar para un mayor, escribe *Cita*. 📝 ¡Apresúrate que son muy limitados!"

	msgUnderstoodReset = "Entendido. 👍 Si deseas reiniciar escribe la palabra *Cita*."

	msgUnderstoodResetShort = "Entendido. 👍 Si deseas reiniciar escribe *Cita*."

	msgConfirmProviderRetry = "Por favor responde:\n\n✅ *SÍ* para continuar\n❌ *NO* para cancelar"

	msgRaceLost = "Lo siento 😔, ese turno ya fue reservado por otra persona.\n\nIntenta de nuevo escribiendo *Cita*. 🔄"

	msgUnknownConsultorio = "❌ Consultorio no reconocido.\n\nPor favor reinicia con la palabra *Cita*."

	msgNoPendingSlot = "❌ No hay turno pendiente.\n\nPor favor inicia de nuevo con *Cita*."

	msgSaveFailed = "❌ Error al guardar su cita.\n\nPor favor intente de nuevo escribiendo *Cita*."

	msgHoldingRetry = "❓ No entendí tu respuesta.\n\nPor favor responde:\n\n✅ *SÍ* para confirmar la cita\n❌ *NO* para cancelar la cita\n\n💡 *Opcional:* Indica una preferencia de horario:\n• *tarde* o *mañana*\n• Un día específico (ej: *lunes*, *martes*, *miércoles*)\n• O combina ambos (ej: *miércoles por la tarde*)"

	msgTimeout = "⏰ *Tiempo agotado* ⌛\n\nEl turno propuesto ha sido *liberado automáticamente* por falta de confirmación.\n\nSi deseas reservar una cita, escribe *Cita* nuevamente. 📝"

	msgChangeNotFound = "❌ No encontré una cita con ese número de DNI.\n\n¿Quieres reservar una nueva? Escribe *Cita*. 📝"

	msgChangeRaceLost = "😔 El turno encontrado ya fue reservado.\n\nIntenta de nuevo escribiendo *Cita*. 🔄"

	msgChangeNoSlots = "😔 No hay turnos disponibles en este momento.\n\nIntenta más tarde o escribe *Cita* el próximo *viernes a las 7:30 AM* 🕢. 📅"

	msgChangeCancelFailed = "❌ Error al cancelar la cita anterior.\n\nPor favor contacta al administrador. 📞"

	msgInternalError = "❌ Ocurrió un error interno.\n\nIntenta de nuevo escribiendo *Cita*. 🔄"
)

func msgDuplicateCita(c *slotapi.Cita) string {
	return fmt.Sprintf("⚠️ *Ya existe una cita registrada con este DNI:*\n\n👤 Nombre: *%s*\n🆔 DNI: *%s*\n📅 Fecha: *%s*\n🕐 Hora: *%s*\n👨‍⚕️ Doctor: *%s*\n\n%s\n\nSi deseas *cambiar* esta cita, escribe *\"cambiar cita\"*.\nSi deseas agendar para *otro paciente*, escribe *\"cita\"*.",
		c.Nombre, c.DNI, c.Fecha, c.Hora, c.Profesional, divider)
}

func msgChangeAcknowledged(dni string) string {
	return fmt.Sprintf("Entendido 🔄, quieres cambiar tu cita con DNI *%s*. Buscando... ⏳", dni)
}

func summaryBlock(data PatientData, doctorLabel, doctorName string) string {
	return fmt.Sprintf("%s\n*RESUMEN DE DATOS*\n%s\n\n👤 Nombre: *%s*\n🆔 DNI: *%s*\n🎂 Edad: *%d*\n🦷 Consultorio: *%s*\n👨‍⚕️ %s: *%s*\n\n%s",
		divider, divider, data.Nombre, data.DNI, data.Edad, data.Consultorio, doctorLabel, doctorName, divider)
}

func msgProviderChosen(data PatientData, key string) string {
	name := slot.DisplayName(key)
	if slot.SpecialtyFor(key) == slot.SpecialtyPediatric {
		return fmt.Sprintf("Has elegido al odontopediatra *%s* ✅.\n\n%s\n\nResponde *SÍ* para que te asigne el turno disponible, o *NO* para cancelar.",
			name, summaryBlock(data, "Odontopediatra", name))
	}
	return fmt.Sprintf("Has elegido al odontólogo *%s* ✅.\n\n%s\n\nResponde *SÍ* para que te asigne el turno disponible con *%s*, o *NO* para cancelar.",
		name, summaryBlock(data, "Odontólogo", name), name)
}

func msgManuelForChild(data PatientData) string {
	name := slot.DisplayName(slot.ProviderManuel)
	return fmt.Sprintf("El paciente tiene tratamiento previo con *%s* ✅.\n\n%s\n\nResponde *SÍ* para que te asigne el turno disponible con *%s*, o *NO* para cancelar.",
		name, summaryBlock(data, "Odontólogo", name), name)
}

func msgNoPreference(data PatientData, pediatric bool) string {
	if pediatric {
		return fmt.Sprintf("Sin preferencia de odontopediatra ✅.\n\n%s\n\nResponde *SÍ* para que te asigne el *turno más próximo disponible* con cualquiera de los odontopediatras, o *NO* para cancelar.",
			summaryBlock(data, "Odontopediatra", "Cualquiera disponible"))
	}
	return fmt.Sprintf("No tienes odontólogo preferido ✅.\n\n%s\n\nResponde *SÍ* para que te asigne el *turno más próximo disponible* con cualquiera de los odontólogos, o *NO* para cancelar.",
		summaryBlock(data, "Odontólogo", "Cualquiera disponible"))
}

func msgFallbackProvider(preferredKey, newTitle string) string {
	return fmt.Sprintf("⚠️ No hay turnos disponibles con *%s*.\n\nTe propongo un turno con *%s*. 😊",
		slot.DisplayName(preferredKey), newTitle)
}

func msgNoneForSpecialty(pediatric bool) string {
	if pediatric {
		return "Lo siento 😔, no hay turnos disponibles en este momento para *Odontopediatría*.\n\nEscríbanos el próximo *viernes a las 7:30 AM* 🕢 para reservar tu cita. 📅"
	}
	return "Lo siento 😔, no hay turnos disponibles en este momento para *Odontología General*.\n\nEscríbanos el próximo *viernes a las 7:30 AM* 🕢 para reservar tu cita. 📅"
}

func msgNoneWithAnyProvider(pediatric bool) string {
	if pediatric {
		return "Lo siento 😔, no hay turnos disponibles con ninguno de los odontopediatras.\n\nEscríbanos el próximo *viernes a las 7:30 AM* 🕢 para reservar tu cita. 📅"
	}
	return "Lo siento 😔, no hay turnos disponibles con ninguno de los odontólogos.\n\nEscríbanos el próximo *viernes a las 7:30 AM* 🕢 para reservar tu cita. 📅"
}

func msgSlotHeld(data PatientData, s slot.Slot) string {
	return fmt.Sprintf("⚡ *¡Turno reservado temporalmente!* ⏱️\n\n⚠️ *IMPORTANTE:* Tienes *5 minutos* para confirmar, de lo contrario el turno será *liberado automáticamente*.\n\n%s\n*DETALLES DE LA CITA*\n%s\n\n👤 Nombre: *%s*\n🆔 DNI: *%s*\n🎂 Edad: *%d*\n🦷 Consultorio: *%s*\n📅 Fecha: *%s*\n🕐 Hora: *%s*\n👨‍⚕️ Doctor: *%s*\n\n%s\n\n¿Confirmas esta cita? ✅ *SÍ* | ❌ *NO*\n\n💡 *Opcional:* Si deseas otro horario, indica tu preferencia:\n• Escribe: *tarde* o *mañana*\n• Escribe un día específico (ej: *lunes*, *martes*, *miércoles*)\n• O combina ambos (ej: *miércoles por la tarde*)",
		divider, divider, data.Nombre, data.DNI, data.Edad, data.Consultorio, s.Fecha(), s.Hora(), s.Title, divider)
}

func msgConfirmed(data PatientData, s slot.Slot) string {
	return fmt.Sprintf("✅ *¡Cita confirmada exitosamente!* 🎉\n\n%s\n*RESUMEN DE TU CITA*\n%s\n\n👤 Nombre: *%s*\n🆔 DNI: *%s*\n🎂 Edad: *%d*\n🦷 Consultorio: *%s*\n📅 Fecha: *%s*\n🕐 Hora: *%s*\n👨‍⚕️ Doctor: *%s*\n\n%s\n\n⏰ *Por favor llegar 10 minutos antes.*\n\n¡Gracias por confiar en nosotros! 😄✨",
		divider, divider, data.Nombre, data.DNI, data.Edad, data.Consultorio, s.Fecha(), s.Hora(), s.Title, divider)
}

func msgAdminNotice(cita slotapi.Cita) string {
	return fmt.Sprintf("✅ *Nueva cita confirmada*\n\n👤 Nombre: *%s*\n🆔 DNI: *%s*\n🎂 Edad: *%d*\n🦷 Consultorio: *%s*\n📅 Fecha: *%s*\n🕐 Hora: *%s*\n👨‍⚕️ Doctor: *%s*",
		cita.Nombre, cita.DNI, cita.Edad, cita.Consultorio, cita.Fecha, cita.Hora, cita.Profesional)
}

func msgPrefNoMatch(raw, doctorName string, current slot.Slot) string {
	return fmt.Sprintf("😔 Lo siento, no hay turnos disponibles para *\"%s\"* con el *%s*.\n\n✅ Mantengo el turno actual:\n\n📅 Fecha: *%s*\n🕐 Hora: *%s*\n👨‍⚕️ Doctor: *%s*\n\n¿Confirmas este turno? (✅ *SÍ* / ❌ *NO*)\n\n💡 Puedes intentar con otra preferencia.",
		raw, doctorName, current.Fecha(), current.Hora(), current.Title)
}

func msgPrefRaceLost(raw string, current slot.Slot) string {
	return fmt.Sprintf("😔 Lo siento, el turno para *\"%s\"* ya fue reservado por otra persona.\n\n✅ Mantengo el turno actual:\n\n📅 Fecha: *%s*\n🕐 Hora: *%s*\n👨‍⚕️ Doctor: *%s*\n\n¿Confirmas este turno? (✅ *SÍ* / ❌ *NO*)",
		raw, current.Fecha(), current.Hora(), current.Title)
}

func msgPrefSwapped(raw string, s slot.Slot) string {
	return fmt.Sprintf("🔄 *Nuevo turno encontrado* para *\"%s\"*:\n\n📅 Fecha: *%s*\n🕐 Hora: *%s*\n👨‍⚕️ Doctor: *%s*\n\n⏰ Tienes *5 minutos* para confirmar.\n\n¿Confirmas? (✅ *SÍ* / ❌ *NO*)",
		raw, s.Fecha(), s.Hora(), s.Title)
}

func msgChangeCancelled(consultorio string) string {
	return fmt.Sprintf("✅ Cita anterior *cancelada exitosamente*.\n\n🔍 Buscando nuevo turno para *%s*... ⏳\n\n💡 Si deseas, indica una preferencia:\n• *tarde* o *mañana*\n• Un día específico (ej: *lunes*, *martes*, *miércoles*)\n• O combina ambos (ej: *jueves por la mañana*)",
		consultorio)
}

func msgChangeProposed(s slot.Slot) string {
	return fmt.Sprintf("✨ *Nuevo turno propuesto:*\n\n📅 Fecha: *%s*\n🕐 Hora: *%s*\n👨‍⚕️ Doctor: *%s*\n\n⏰ Tienes *5 minutos* para confirmar.\n\n¿Confirmas? (✅ *SÍ* / ❌ *NO*)\n\n💡 *Opcional:* Si deseas otro horario, indica tu preferencia.",
		s.Fecha(), s.Hora(), s.Title)
}

// buildProviderMenu renders the numbered provider selection. available and
// unavailable hold provider keys for the specialty, in display order.
func buildProviderMenu(pediatric bool, available, unavailable []string, includeManuel bool) string {
	var b strings.Builder
	option := 1

	if pediatric {
		b.WriteString("El paciente será atendido en *Odontopediatría* 👶🦷.\n\n")

		if len(available) == 1 && len(unavailable) > 0 {
			fmt.Fprintf(&b, "En este momento, solo tenemos turnos disponibles con:\n\n*%d* - %s\n\n", option, slot.DisplayName(available[0]))
			option++
			for _, key := range unavailable {
				fmt.Fprintf(&b, "⚠️ El *%s* no tiene turnos disponibles por ahora. 😔\n", slot.DisplayName(key))
			}
			if includeManuel {
				fmt.Fprintf(&b, "\n*%d* - %s (solo si el menor *ya lleva tratamiento previo* con él)\n", option, slot.DisplayName(slot.ProviderManuel))
				option++
			}
			fmt.Fprintf(&b, "\n*%d* - Sin preferencia (asignar el turno más próximo disponible)\n\n", option)
			fmt.Fprintf(&b, "¿Deseas reservar con *%s*?", slot.DisplayName(available[0]))
			return b.String()
		}

		b.WriteString("Por favor, selecciona el odontopediatra de tu preferencia escribiendo el *número*:\n\n")
		for _, key := range available {
			fmt.Fprintf(&b, "*%d* - %s\n", option, slot.DisplayName(key))
			option++
		}
		if includeManuel {
			fmt.Fprintf(&b, "*%d* - %s (solo si el menor *ya lleva tratamiento previo* con él)\n", option, slot.DisplayName(slot.ProviderManuel))
			option++
		}
		if len(available) > 0 {
			fmt.Fprintf(&b, "*%d* - Sin preferencia (asignar el turno más próximo disponible)", option)
		}
		if len(unavailable) > 0 {
			b.WriteString("\n\n⚠️ *Odontopediatras sin turnos disponibles:*\n")
			for _, key := range unavailable {
				fmt.Fprintf(&b, "• %s\n", slot.DisplayName(key))
			}
		}
		return b.String()
	}

	if len(available) == 1 && len(unavailable) > 0 {
		fmt.Fprintf(&b, "En este momento, solo tenemos turnos disponibles con:\n\n*%d* - %s\n\n", option, slot.DisplayName(available[0]))
		option++
		for _, key := range unavailable {
			fmt.Fprintf(&b, "⚠️ El *%s* no tiene turnos disponibles por ahora. 😔\n", slot.DisplayName(key))
		}
		fmt.Fprintf(&b, "\n*%d* - Sin preferencia (asignar el turno más próximo disponible)\n\n", option)
		fmt.Fprintf(&b, "¿Deseas reservar con *%s*?", slot.DisplayName(available[0]))
		return b.String()
	}

	b.WriteString("¿Llevas tratamiento con algún odontólogo? 🤔\n\nSi es así, escribe el número correspondiente:\n\n")
	for _, key := range available {
		fmt.Fprintf(&b, "*%d* - %s\n", option, slot.DisplayName(key))
		option++
	}
	if len(available) > 0 {
		fmt.Fprintf(&b, "*%d* - No tengo odontólogo preferido (asignar el más próximo disponible)", option)
	}
	if len(unavailable) > 0 {
		b.WriteString("\n\n⚠️ *Odontólogos sin turnos disponibles:*\n")
		for _, key := range unavailable {
			fmt.Fprintf(&b, "• %s\n", slot.DisplayName(key))
		}
	}
	return b.String()
}
