package main

import (
	"context"

	"coopshares-backend/internal/cli"
	"coopshares-backend/internal/config"

	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load")
	}
	if err := cli.Serve(context.Background(), cfg); err != nil {
		log.Fatal().Err(err).Msg("serve")
	}
}
