package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Rrens/onboarding-agent/internal/app"
	"github.com/Rrens/onboarding-agent/internal/config"
	"github.com/Rrens/onboarding-agent/internal/driver"
	"github.com/Rrens/onboarding-agent/internal/logging"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Keep the terminal for the conversation
	if cfg.Logging.File == "" {
		cfg.Logging.File = "./logs/chat.log"
	}
	closer, err := logging.Setup(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up logging: %v\n", err)
		os.Exit(1)
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.Build(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	if err := driver.NewREPL(os.Stdin, os.Stdout, application.Chat).Run(ctx); err != nil {
		log.Error().Err(err).Msg("chat loop ended")
		os.Exit(1)
	}
}
