// Campwatch - Camp Security Event Buffering and Tamper-Evident Archival
// Copyright 2026 The Campwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campwatch/campwatch

// Package main is the entry point for the Campwatch server.
//
// Campwatch ingests security-relevant network events observed at camp
// sites, buffers them per location, and periodically consolidates the
// buffers into a tamper-evident archive: each consolidated snapshot is
// stored in a content-addressed blob store and its identifier anchored in
// a hash-chained ledger. A block registry tracks destinations operators
// have blocked.
//
// # Startup Order
//
//  1. Configuration: Koanf v2 layered sources (defaults, config.yaml,
//     environment variables)
//  2. Logging: zerolog, configured from logging.*
//  3. Durable store: BadgerDB for events, users, archive records, blocks
//  4. Buffer arena, content-addressed store, ledger
//  5. Seed users from users.seed ("ref=name" pairs)
//  6. HTTP server: Chi router on server.host:server.port
//
// # Signal Handling
//
// SIGINT and SIGTERM trigger a graceful shutdown: the listener stops
// accepting connections, in-flight requests get ten seconds to finish,
// then the store is closed.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/campwatch/campwatch/internal/api"
	"github.com/campwatch/campwatch/internal/archive"
	"github.com/campwatch/campwatch/internal/blocklist"
	"github.com/campwatch/campwatch/internal/buffer"
	"github.com/campwatch/campwatch/internal/cas"
	"github.com/campwatch/campwatch/internal/config"
	"github.com/campwatch/campwatch/internal/ingest"
	"github.com/campwatch/campwatch/internal/ledger"
	"github.com/campwatch/campwatch/internal/logging"
	"github.com/campwatch/campwatch/internal/scoring"
	"github.com/campwatch/campwatch/internal/store"
)

func main() {
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("buffer_root", cfg.Buffer.Root).
		Str("archive_root", cfg.Archive.Root).
		Strs("locations", cfg.Archive.Locations).
		Msg("Starting Campwatch")

	st, err := store.Open(store.Config{
		Path:       cfg.Store.Path,
		SyncWrites: cfg.Store.SyncWrites,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open record store")
	}
	defer func() {
		if err := st.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing record store")
		}
	}()

	arena, err := buffer.NewArena(cfg.Buffer.Root)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open buffer arena")
	}

	blobs, err := cas.NewFSStore(cfg.CAS.Root)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open content store")
	}

	led, err := ledger.Open(cfg.Ledger.Path)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open ledger")
	}
	logging.Info().Int("entries", len(led.Entries())).Msg("Ledger verified")

	consolidator, err := archive.New(
		arena,
		cas.NewBreakerStore(blobs),
		ledger.NewBreakerAnchorer(led),
		st,
		cfg.Archive,
	)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to build consolidator")
	}

	seedUsers(st, cfg.Users.Seed)

	handler := api.NewHandler(
		ingest.NewService(arena, st, scoring.NewHeuristic()),
		consolidator,
		blocklist.New(st.DB()),
		st,
		led,
	)
	router := api.NewRouter(handler, cfg.Security)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		errCh <- server.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("HTTP server error")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("HTTP server shutdown error")
	}

	logging.Info().Msg("Application stopped gracefully")
}

// seedUsers registers the configured "ref=name" pairs. Re-registering an
// existing ref keeps its durable ID, so seeding is idempotent across
// restarts.
func seedUsers(st *store.Store, pairs []string) {
	for _, pair := range pairs {
		ref, name, ok := strings.Cut(pair, "=")
		if !ok || ref == "" {
			logging.Warn().Str("entry", pair).Msg("Skipping malformed user seed entry")
			continue
		}
		if name == "" {
			name = ref
		}
		if _, err := st.PutUser(context.Background(), ref, name); err != nil {
			logging.Error().Err(err).Str("user_ref", ref).Msg("Failed to seed user")
			continue
		}
		logging.Info().Str("user_ref", ref).Msg("Seeded user")
	}
}
