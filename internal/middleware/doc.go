// Campwatch - Camp Security Event Buffering and Tamper-Evident Archival
// Copyright 2026 The Campwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campwatch/campwatch

/*
Package middleware provides HTTP middleware shared by all API routes.

The middleware here is Chi-compatible (func(http.Handler) http.Handler) and
covers request identity, structured request logging, and Prometheus
instrumentation. Cross-cutting HTTP concerns with hardened ecosystem
implementations (CORS, rate limiting, panic recovery, compression) are wired
directly from go-chi in the router instead of being reimplemented here.
*/
package middleware
