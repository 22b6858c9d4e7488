// Copyright (c) 2025-2026 Voyantic Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package assistant drives the request/response chat protocol with the
// travel-assistant backend.
//
// A Chat owns at most one in-flight request at a time. Each send cancels any
// prior request, posts the outgoing message, reads the chunked response
// through the sse decoder, and folds the decoded frames into the session
// store in arrival order. Transport failures, HTTP errors, and protocol
// error frames all surface as session error state plus the OnError callback;
// nothing propagates as a panic or an unhandled error to the UI loop.
package assistant
