package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vsinha/fgplan/pkg/application/services/orchestration"
	"github.com/vsinha/fgplan/pkg/application/services/session"
	"github.com/vsinha/fgplan/pkg/config"
	"github.com/vsinha/fgplan/pkg/infrastructure/events"
	"github.com/vsinha/fgplan/pkg/interfaces/api"
	"github.com/vsinha/fgplan/pkg/logger"
)

func main() {
	// Load configuration with validation (fails fast on bad values)
	cfg, err := config.LoadWithValidation("fgplan")
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	log := logger.New("fgplan-server", cfg.Server.Environment)
	log.Info().Msg("starting FG planning server")

	store := events.NewInMemoryEventStore(log)
	sessions := session.NewManager(log, store, cfg.Sessions.TTL, cfg.Planning.DecimalPlaces)
	planner := orchestration.NewPlanningOrchestrator(log, store, cfg.Reports.CompanyName)

	handler := api.NewHandler(sessions, planner, store, cfg.Server.MaxUploadMB, log)
	router := api.NewRouter(handler, log, cfg.Server.CORSOrigins)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sessions.RunSweeper(ctx, cfg.Sessions.SweepInterval)

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Int("sessions", sessions.Count()).Msg("server stopped")
}
