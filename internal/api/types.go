package api

import (
	"time"

	"github.com/taczaangel/MiProyecto/internal/slot"
)

// TurnoRange is one HH:MM time range inside a grouped availability entry.
type TurnoRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// TurnoGroup is the availability shape both the bot and the dashboard
// consume: one entry per provider per day.
type TurnoGroup struct {
	Title        string         `json:"title"`
	Date         string         `json:"date"`
	Slots        []TurnoRange   `json:"slots"`
	Color        string         `json:"color"`
	Especialidad slot.Specialty `json:"especialidad"`
}

// SaveTurnoRequest is one dashboard-authored slot. Payloads may be a single
// object or an array of them.
type SaveTurnoRequest struct {
	Profesional  string         `json:"profesional,omitempty"`
	Title        string         `json:"title,omitempty"`
	TurnoInicio  time.Time      `json:"turnoInicio"`
	TurnoFin     *time.Time     `json:"turnoFin,omitempty"`
	Especialidad slot.Specialty `json:"especialidad,omitempty"`
}

type ReserveTurnoRequest struct {
	Profesional string    `json:"profesional"`
	TurnoInicio time.Time `json:"turnoInicio"`
}

type ReleaseTurnoRequest struct {
	Profesional  string         `json:"profesional"`
	TurnoInicio  time.Time      `json:"turnoInicio"`
	TurnoFin     *time.Time     `json:"turnoFin,omitempty"`
	Title        string         `json:"title,omitempty"`
	Especialidad slot.Specialty `json:"especialidad,omitempty"`
}

type HoldTurnoRequest struct {
	Profesional string    `json:"profesional"`
	TurnoInicio time.Time `json:"turnoInicio"`
	UserJid     string    `json:"userJid"`
}

type SaveCitaRequest struct {
	Nombre      string     `json:"nombre"`
	DNI         string     `json:"dni"`
	Edad        int        `json:"edad"`
	Consultorio string     `json:"consultorio"`
	Profesional string     `json:"profesional"`
	Fecha       string     `json:"fecha"`
	Hora        string     `json:"hora"`
	ChatID      string     `json:"chatId"`
	Status      string     `json:"status,omitempty"`
	StartUTC    *time.Time `json:"startUTC,omitempty"`
}

type CancelCitaRequest struct {
	DNI string `json:"dni"`
}

type CitaResponse struct {
	Nombre      string     `json:"nombre"`
	DNI         string     `json:"dni"`
	Edad        int        `json:"edad"`
	Consultorio string     `json:"consultorio"`
	Profesional string     `json:"profesional"`
	Fecha       string     `json:"fecha"`
	Hora        string     `json:"hora"`
	ChatID      string     `json:"chatId"`
	Status      string     `json:"status"`
	StartUTC    *time.Time `json:"startUTC,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
