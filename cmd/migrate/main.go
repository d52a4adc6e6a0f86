package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/rs/zerolog/log"

	"boardly/internal/pkg/logger"
	"boardly/internal/platform/config"
	"boardly/internal/platform/database"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	logger.Init(cfg.Logging)

	db, err := database.Open(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()

	if err := database.Migrate(context.Background(), db); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}

	fmt.Println("Migration completed successfully")
}
