package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ravisabhani/live-poll-battle/internal/config"
	"github.com/ravisabhani/live-poll-battle/internal/metrics"
	"github.com/ravisabhani/live-poll-battle/internal/rooms"
	"github.com/ravisabhani/live-poll-battle/internal/session"
	"github.com/ravisabhani/live-poll-battle/internal/wshub"
)

const shutdownTimeout = 10 * time.Second

func Run() error {
	cfg := config.Load()

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log.Logger = zerolog.New(os.Stdout).Level(level).With().Timestamp().Logger()

	clock := clockwork.NewRealClock()
	store := rooms.New(rooms.Config{
		VoteDuration: cfg.VoteDuration,
		IdleTTL:      cfg.RoomTTL,
	}, clock)
	hub := wshub.NewHub()

	reg := prometheus.NewRegistry()
	m := metrics.New(reg, store.Len)

	srv := &Server{
		Rooms:          store,
		Hub:            hub,
		Sessions:       session.New(store, hub, m),
		Metrics:        m,
		AllowedOrigins: cfg.AllowedOrigins,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/create-room", srv.handleCreateRoom)
	mux.HandleFunc("/ws", srv.handleWS)
	mux.HandleFunc("/healthz", srv.handleHealth)
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	handler := cors.New(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
	}).Handler(mux)

	httpServer := &http.Server{
		Addr:    "0.0.0.0:" + cfg.Port,
		Handler: handler,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
