package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"room_booking/internal/adapters/client"
	"room_booking/internal/adapters/observability"
	"room_booking/internal/seed"
	"room_booking/internal/shared"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	cfg := shared.Load()

	// 1) initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	path := cfg.SeedFile
	if len(os.Args) > 1 {
		path = os.Args[1]
	}
	log.Info().
		Str("base", cfg.APIBaseURL).
		Str("file", path).
		Int("workers", cfg.SeedWorkers).
		Msg("seeder starting")

	f, err := seed.Load(path)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load seed file")
	}

	api, err := client.New(cfg.APIBaseURL, cfg.ClientRPS)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize API client")
	}

	rep, err := seed.Run(ctx, api, f, cfg.SeedWorkers)
	if err != nil {
		log.Fatal().Err(err).Msg("seeding aborted")
	}
	log.Info().
		Int("rooms", rep.RoomsCreated).
		Int("bookings", rep.BookingsCreated).
		Int("overlaps", rep.Overlaps).
		Int("failures", len(rep.Failures)).
		Msg("seeding completed")
	if len(rep.Failures) > 0 {
		os.Exit(1)
	}
}
