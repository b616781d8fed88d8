// Package slotapi is the bot's HTTP client for the slot server. Every remote
// failure is logged and converted to a bool or nil result at the call site;
// the conversation engine only ever branches on those sentinels.
package slotapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/taczaangel/MiProyecto/internal/slot"
)

type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Cita mirrors the slot server's appointment record shape.
type Cita struct {
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

// FetchTurnos retrieves raw availability entries, optionally filtered by
// specialty. A remote failure yields an empty list, never an error.
func (c *Client) FetchTurnos(ctx context.Context, specialty slot.Specialty) []slot.RawEntry {
	u := c.baseURL + "/obtener-turnos-bot"
	if specialty != "" {
		u += "?especialidad=" + url.QueryEscape(string(specialty))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		log.Printf("slotapi: build fetch request: %v", err)
		return nil
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		log.Printf("slotapi: fetch turnos: %v", err)
		return nil
	}
	defer drain(resp)

	if resp.StatusCode != http.StatusOK {
		log.Printf("slotapi: fetch turnos status=%d", resp.StatusCode)
		return nil
	}

	var entries []slot.RawEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		log.Printf("slotapi: decode turnos: %v", err)
		return nil
	}
	return entries
}

// Reserve attempts to take a slot. False means the race was lost or the call
// failed; the engine treats both the same way.
func (c *Client) Reserve(ctx context.Context, s slot.Slot) bool {
	payload := map[string]any{
		"profesional": s.Title,
		"turnoInicio": s.Start.UTC().Format(time.RFC3339),
	}
	return c.postOK(ctx, "/reservar-turno", payload)
}

// Release re-adds a slot to the pool. A 409 (already available) is treated
// as success so double releases stay idempotent from the bot's view.
func (c *Client) Release(ctx context.Context, s slot.Slot) bool {
	payload := map[string]any{
		"profesional":  s.Title,
		"turnoInicio":  s.Start.UTC().Format(time.RFC3339),
		"turnoFin":     s.End.UTC().Format(time.RFC3339),
		"title":        s.Title,
		"especialidad": s.Specialty,
	}
	status := c.post(ctx, "/liberar-turno", payload)
	return status == http.StatusOK || status == http.StatusConflict
}

// SaveCita persists a confirmed appointment record.
func (c *Client) SaveCita(ctx context.Context, cita Cita) bool {
	if cita.Status == "" {
		cita.Status = "confirmada"
	}
	return c.postOK(ctx, "/guardar-cita", cita)
}

// FindCita returns the active record for a DNI, or nil when there is none
// (or the call failed).
func (c *Client) FindCita(ctx context.Context, dni string) *Cita {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/buscar-cita/"+url.PathEscape(dni), nil)
	if err != nil {
		log.Printf("slotapi: build find request: %v", err)
		return nil
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		log.Printf("slotapi: find cita: %v", err)
		return nil
	}
	defer drain(resp)

	if resp.StatusCode == http.StatusNotFound {
		return nil
	}
	if resp.StatusCode != http.StatusOK {
		log.Printf("slotapi: find cita status=%d", resp.StatusCode)
		return nil
	}

	var cita Cita
	if err := json.NewDecoder(resp.Body).Decode(&cita); err != nil {
		log.Printf("slotapi: decode cita: %v", err)
		return nil
	}
	if cita.DNI == "" {
		return nil
	}
	return &cita
}

// CancelCita flips the active record for a DNI to cancelled.
func (c *Client) CancelCita(ctx context.Context, dni string) bool {
	return c.postOK(ctx, "/cancelar-cita", map[string]string{"dni": dni})
}

func (c *Client) postOK(ctx context.Context, path string, payload any) bool {
	status := c.post(ctx, path, payload)
	return status >= 200 && status < 300
}

// post returns the HTTP status, or 0 on transport failure.
func (c *Client) post(ctx context.Context, path string, payload any) int {
	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("slotapi: marshal %s: %v", path, err)
		return 0
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		log.Printf("slotapi: build %s request: %v", path, err)
		return 0
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		log.Printf("slotapi: %s: %v", path, err)
		return 0
	}
	defer drain(resp)

	if resp.StatusCode >= 300 {
		log.Printf("slotapi: %s status=%d", path, resp.StatusCode)
	}
	return resp.StatusCode
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
