package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Rrens/onboarding-agent/internal/app"
	"github.com/Rrens/onboarding-agent/internal/config"
	"github.com/Rrens/onboarding-agent/internal/logging"
	"github.com/Rrens/onboarding-agent/internal/seating"
	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog/log"
)

const version = "1.0.0"

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	closer, err := logging.Setup(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up logging: %v\n", err)
		os.Exit(1)
	}
	defer closer.Close()

	application := &app.App{Config: cfg}
	defer application.Close()

	svc, _, err := application.LocalSeating(context.Background())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialise seating backend")
	}

	httpServer := server.NewStreamableHTTPServer(seating.NewMCPServer(svc, version))

	go func() {
		log.Info().
			Str("addr", cfg.Seating.ListenAddr).
			Str("backend", cfg.Seating.Backend).
			Str("claim_mode", cfg.Seating.ClaimMode).
			Msg("Seating MCP server listening")
		if err := httpServer.Start(cfg.Seating.ListenAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Seating server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Seating server forced to shutdown")
	}
	log.Info().Msg("Seating server stopped")
}
