// Copyright (c) 2025-2026 Voyantic Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package push

import "sync"

var (
	sharedOnce sync.Once
	sharedCh   *Channel
)

// Shared returns the process-wide channel, creating it on first call with
// the given configuration. Later calls return the same instance and ignore
// their arguments, so every consumer rides one underlying connection.
func Shared(baseURL string, opts ...Option) *Channel {
	sharedOnce.Do(func() {
		sharedCh = NewChannel(baseURL, opts...)
	})
	return sharedCh
}
