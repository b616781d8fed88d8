// The autoresponder runs around the clock and answers every chat that
// writes outside the booking window. During the window it stays silent so
// the main bot owns the conversation.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/taczaangel/MiProyecto/internal/config"
	"github.com/taczaangel/MiProyecto/internal/schedule"
	"github.com/taczaangel/MiProyecto/internal/wa"
)

type responder struct {
	messenger   wa.Messenger
	adminChatID string
	startedAt   time.Time
	now         func() time.Time
}

func (r *responder) HandleMessage(msg wa.Message) {
	if msg.FromSelf {
		return
	}
	if strings.TrimSpace(msg.Text) == "" {
		return
	}
	if !msg.Timestamp.IsZero() && msg.Timestamp.Before(r.startedAt) {
		return
	}
	if msg.ChatID == r.adminChatID {
		log.Printf("autoresponder: admin chat, staying silent")
		return
	}

	reply := schedule.ShortAutoResponse(r.now())
	if reply == "" {
		log.Printf("autoresponder: booking window open, staying silent")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := r.messenger.Send(ctx, msg.ChatID, reply); err != nil {
		log.Printf("autoresponder: send to %s failed: %v", msg.ChatID, err)
		return
	}
	log.Printf("autoresponder: replied to %s", msg.ChatID)
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("autoresponder starting up")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}
	if cfg.GatewayURL == "" {
		log.Fatal("WA_GATEWAY_URL is required")
	}

	port := cfg.BotPort
	log.Printf("running in env=%s port=%s", cfg.Env, port)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	h := &responder{
		messenger:   wa.NewGatewayClient(cfg.GatewayURL, cfg.GatewayToken),
		adminChatID: cfg.AdminChatID,
		startedAt:   time.Now(),
		now:         time.Now,
	}

	r := chi.NewRouter()
	r.Post("/webhook", wa.WebhookHandler(h))
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("webhook listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server error: %v", err)
		}
	}()

	<-rootCtx.Done()
	log.Println("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
	log.Println("autoresponder stopped")
}
