package main

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"saudemental.app/nusam/internal/clinic"
	"saudemental.app/nusam/internal/config"
	"saudemental.app/nusam/internal/storage"
	"saudemental.app/nusam/pkg/zerolog_config"
)

// Seeds the default collections into an empty bucket. Safe to run
// repeatedly: existing collections are left untouched.
func main() {
	cfg := config.Load()

	zerolog_config.SetAppPrefix("nusam-seed")
	if err := zerolog_config.StartupWithEnv(cfg.ElasticsearchURL, "logs", cfg.LogLevel); err != nil {
		log.Warn().Err(err).Msg("Falling back to console-only logging")
	}

	log.Info().Msg("Starting nusam seed run")

	store, err := storage.NewCouchbaseStore(cfg.CouchbaseURL, cfg.CouchbaseUsername, cfg.CouchbasePassword, cfg.CouchbaseBucket)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Couchbase")
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	hostname, _ := os.Hostname()
	locker := store.GetLocker()

	// Lock the bucket so a concurrently running server cannot write
	// while the defaults go in.
	log.Info().Msg("Locking storage for seeding")
	if err := locker.Lock(ctx, "nusam-seed@"+hostname); err != nil {
		log.Fatal().Err(err).Msg("Failed to lock storage")
	}

	defer func() {
		log.Info().Msg("Unlocking storage after seeding")
		if err := locker.Unlock(ctx); err != nil {
			log.Error().Err(err).Msg("Failed to unlock storage")
		}
	}()

	persistence := clinic.NewPersistence(store)
	persistence.InitializeDefaults(ctx, []clinic.Patient{}, []clinic.Document{}, clinic.DefaultUnitSettings())

	stats := persistence.Stats()
	log.Info().
		Int("patients", stats.TotalPacientes).
		Int("documents", stats.TotalDocumentos).
		Msg("Seed run completed")
}
