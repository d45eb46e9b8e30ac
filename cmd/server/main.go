package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"saudemental.app/nusam/internal/api"
	"saudemental.app/nusam/internal/clinic"
	"saudemental.app/nusam/internal/config"
	"saudemental.app/nusam/internal/metrics"
	"saudemental.app/nusam/internal/storage"
	"saudemental.app/nusam/pkg/zerolog_config"
)

func main() {
	cfg := config.Load()

	// Set app prefix
	zerolog_config.SetAppPrefix("nusam-server")

	// Initialize zerolog with Elasticsearch
	if err := zerolog_config.StartupWithEnv(cfg.ElasticsearchURL, "logs", cfg.LogLevel); err != nil {
		log.Warn().Err(err).Msg("Falling back to console-only logging")
	}

	log.Info().Msg("Starting nusam record-keeping service")

	// Start system metrics collection
	metrics.StartSystemMetricsCollection(30 * time.Second)

	// Open the durable store. When Couchbase is unreachable the service
	// still comes up on an in-memory store so the clinic can keep
	// working, with every record lost on restart.
	var store storage.Store
	var closeStore func() error

	cbStore, err := storage.NewCouchbaseStore(cfg.CouchbaseURL, cfg.CouchbaseUsername, cfg.CouchbasePassword, cfg.CouchbaseBucket)
	if err != nil {
		log.Warn().
			Err(err).
			Str("url", cfg.CouchbaseURL).
			Msg("Couchbase unreachable, running in degraded in-memory mode")
		store = storage.NewMemoryStore()
		closeStore = func() error { return nil }
	} else {
		store = cbStore
		closeStore = cbStore.Close
	}

	// Load collections and seed defaults on first run
	persistence := clinic.NewPersistence(store)
	persistence.InitializeDefaults(context.Background(), []clinic.Patient{}, []clinic.Document{}, clinic.DefaultUnitSettings())

	patients := clinic.NewPatientRepository(persistence)
	documents := clinic.NewDocumentRepository(persistence, patients)

	// Setup routes
	router := api.SetupRoutes(api.NewAPI(patients, documents, persistence))

	// Create HTTP server
	server := &http.Server{
		Addr:    ":" + cfg.APIPort,
		Handler: router,
	}

	// Listen for shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start server in goroutine
	go func() {
		log.Info().
			Str("port", cfg.APIPort).
			Msg("Server starting")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().
				Err(err).
				Msg("Failed to start server")
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	log.Info().Msg("Received shutdown signal, shutting down gracefully...")

	// Shutdown server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}

	// Close database connection
	log.Info().Msg("Closing storage connection...")
	if err := closeStore(); err != nil {
		log.Warn().Err(err).Msg("Failed to close storage connection")
	}

	log.Info().Msg("Service shutdown complete")
}
