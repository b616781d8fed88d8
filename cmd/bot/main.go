package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/taczaangel/MiProyecto/internal/config"
	"github.com/taczaangel/MiProyecto/internal/conversation"
	"github.com/taczaangel/MiProyecto/internal/slotapi"
	"github.com/taczaangel/MiProyecto/internal/slotcache"
	"github.com/taczaangel/MiProyecto/internal/wa"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("bot starting up")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}
	if cfg.GatewayURL == "" {
		log.Fatal("WA_GATEWAY_URL is required")
	}

	log.Printf("running in env=%s bot_port=%s server=%s", cfg.Env, cfg.BotPort, cfg.ServerURL)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := slotapi.NewClient(cfg.ServerURL)
	messenger := wa.NewGatewayClient(cfg.GatewayURL, cfg.GatewayToken)

	cache := slotcache.New(client, cfg.CacheInterval)
	go cache.Poll(rootCtx)

	engine := conversation.NewEngine(client, cache, messenger, cfg.AdminChatID, cfg.ReservationTTL)

	r := chi.NewRouter()
	r.Post("/webhook", wa.WebhookHandler(engine))
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	srv := &http.Server{
		Addr:              ":" + cfg.BotPort,
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
	log.Println("bot stopped")
}
