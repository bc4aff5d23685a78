// Campwatch - Camp Security Event Buffering and Tamper-Evident Archival
// Copyright 2026 The Campwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campwatch/campwatch

// Package models defines the shared data types: the LogEvent record and its
// buffer line serialization, archive and blocklist records, and the common
// API response envelope used by every HTTP endpoint.
package models
