// Copyright (c) 2025-2026 Voyantic Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package trips is a thin client for the trip-management REST endpoints:
// listing tracked itineraries, creating and deleting them, and requesting
// an on-demand price refresh. Requests are throttled client-side and 429
// responses surface the server's Retry-After as a typed error.
package trips
