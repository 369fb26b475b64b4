package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/Rrens/onboarding-agent/internal/config"
	"github.com/Rrens/onboarding-agent/internal/logging"
	"github.com/Rrens/onboarding-agent/internal/repository/postgres"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func main() {
	source := flag.String("source", "file://migrations", "golang-migrate source URL")
	schema := flag.String("schema", "", "apply a single SQL file in one transaction instead of running migrations")
	flag.Parse()

	// Load .env file if it exists
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	closer, err := logging.Setup(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up logging: %v\n", err)
		os.Exit(1)
	}
	defer closer.Close()

	log.Info().Msgf("Connecting to database at %s:%d...", cfg.Database.Host, cfg.Database.Port)

	if *schema == "" {
		if err := postgres.RunMigrations(cfg.Database.DSN(), *source); err != nil {
			log.Fatal().Err(err).Msg("Migration failed")
		}
		return
	}

	ctx := context.Background()
	db, err := postgres.NewDB(ctx, cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	n, err := db.ApplySchemaFile(ctx, *schema)
	if err != nil {
		log.Fatal().Err(err).Str("file", *schema).Msg("Schema bootstrap rolled back")
	}
	log.Info().Int("statements", n).Str("file", *schema).Msg("Schema applied")
}
