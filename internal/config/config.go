// Campwatch - Camp Security Event Buffering and Tamper-Evident Archival
// Copyright 2026 The Campwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campwatch/campwatch

// Package config loads and validates application configuration using Koanf
// v2 with layered sources: struct defaults, an optional YAML file, and
// environment variables (highest priority).
package config

import (
	"fmt"
	"time"
)

// Config is the root application configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Buffer   BufferConfig   `koanf:"buffer"`
	Archive  ArchiveConfig  `koanf:"archive"`
	CAS      CASConfig      `koanf:"cas"`
	Ledger   LedgerConfig   `koanf:"ledger"`
	Store    StoreConfig    `koanf:"store"`
	Security SecurityConfig `koanf:"security"`
	Logging  LoggingConfig  `koanf:"logging"`
	Users    UsersConfig    `koanf:"users"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port"`
	Timeout time.Duration `koanf:"timeout"`
}

// BufferConfig holds the local buffer store settings.
type BufferConfig struct {
	// Root is the directory holding per-location buffer files.
	Root string `koanf:"root"`
}

// ArchiveConfig holds consolidation settings.
type ArchiveConfig struct {
	// Root is the central archive directory, mirroring the buffer layout.
	Root string `koanf:"root"`

	// Locations is the configured location set consolidated by a trigger.
	// The aggregate buffer is always included in addition to this set.
	Locations []string `koanf:"locations"`

	// StageTimeout bounds each external call (upload, anchor).
	StageTimeout time.Duration `koanf:"stage_timeout"`

	// RetryAttempts is the number of tries per external-call stage.
	RetryAttempts int `koanf:"retry_attempts"`

	// RetryDelay is the initial backoff between attempts; doubled per retry.
	RetryDelay time.Duration `koanf:"retry_delay"`
}

// CASConfig holds content-addressed store settings.
type CASConfig struct {
	// Root is the blob directory of the filesystem-backed store.
	Root string `koanf:"root"`
}

// LedgerConfig holds ledger anchor settings.
type LedgerConfig struct {
	// Path is the hash-chained ledger file.
	Path string `koanf:"path"`
}

// StoreConfig holds durable record store (BadgerDB) settings.
type StoreConfig struct {
	Path       string `koanf:"path"`
	SyncWrites bool   `koanf:"sync_writes"`
}

// SecurityConfig holds HTTP surface protections.
type SecurityConfig struct {
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// UsersConfig seeds the attribution directory at startup.
type UsersConfig struct {
	// Seed is a list of "ref=name" pairs registered on boot.
	Seed []string `koanf:"seed"`
}

// Validate checks the configuration for inconsistencies that would only
// surface later at runtime.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Buffer.Root == "" {
		return fmt.Errorf("buffer.root is required")
	}
	if c.Archive.Root == "" {
		return fmt.Errorf("archive.root is required")
	}
	if c.Buffer.Root == c.Archive.Root {
		return fmt.Errorf("buffer.root and archive.root must differ")
	}
	if c.CAS.Root == "" {
		return fmt.Errorf("cas.root is required")
	}
	if c.Ledger.Path == "" {
		return fmt.Errorf("ledger.path is required")
	}
	if c.Store.Path == "" {
		return fmt.Errorf("store.path is required")
	}
	if c.Archive.RetryAttempts < 1 {
		return fmt.Errorf("archive.retry_attempts must be at least 1")
	}
	if c.Archive.StageTimeout <= 0 {
		return fmt.Errorf("archive.stage_timeout must be positive")
	}
	for _, loc := range c.Archive.Locations {
		if loc == "" {
			return fmt.Errorf("archive.locations contains an empty location")
		}
	}
	return nil
}
