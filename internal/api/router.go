package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/taczaangel/MiProyecto/internal/appointment"
)

type RouterConfig struct {
	Slots   SlotService
	Records appointment.Repository
	PgPool  *pgxpool.Pool
	Redis   *redis.Client
	Env     string
	Version string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware)

	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	// Slot store: same paths the dashboard and the bot have always used.
	r.Get("/obtener-turnos", listTurnosHandler(cfg.Slots))
	r.Get("/obtener-turnos-bot", listTurnosHandler(cfg.Slots))
	r.Post("/guardar-turno", saveTurnosHandler(cfg.Slots))
	r.Post("/reservar-turno", reserveTurnoHandler(cfg.Slots))
	r.Post("/liberar-turno", releaseTurnoHandler(cfg.Slots))
	r.Post("/hold-turno", holdTurnoHandler(cfg.Slots))
	r.Post("/liberar-hold", unholdTurnoHandler(cfg.Slots))

	// Appointment record store.
	r.Post("/guardar-cita", saveCitaHandler(cfg.Records))
	r.Get("/buscar-cita/{dni}", findCitaHandler(cfg.Records))
	r.Post("/cancelar-cita", cancelCitaHandler(cfg.Records))

	return r
}
