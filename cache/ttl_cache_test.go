// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cache

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTTLCacheSingleKey(t *testing.T) {
	tests := []struct {
		name          string
		advance       time.Duration
		invalidate    bool
		expectedCount int
	}{
		{
			name:          "fresh cache, fetch",
			expectedCount: 1,
		},
		{
			name:          "use cache, no fetch",
			advance:       500 * time.Millisecond,
			expectedCount: 1,
		},
		{
			name:          "invalidated, fetch",
			invalidate:    true,
			expectedCount: 2,
		},
		{
			name:          "ttl expired, fetch",
			advance:       2 * time.Second,
			expectedCount: 3,
		},
	}

	now := time.Unix(1_700_000_000, 0)
	cache := NewTTLCache[string, int](time.Second)
	cache.now = func() time.Time { return now }

	fetchCount := 0
	fetch := func(string) (int, error) {
		fetchCount++
		return 42, nil
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)

			now = now.Add(tt.advance)
			if tt.invalidate {
				cache.Invalidate("ethereum")
			}

			val, err := cache.Get("ethereum", fetch)
			require.NoError(err)
			require.Equal(42, val)
			require.Equal(tt.expectedCount, fetchCount)
		})
	}
}

func TestTTLCacheDoesNotCacheErrors(t *testing.T) {
	require := require.New(t)

	cache := NewTTLCache[string, int](time.Minute)
	errFetch := errors.New("rpc down")

	_, err := cache.Get("bsc", func(string) (int, error) { return 0, errFetch })
	require.ErrorIs(err, errFetch)

	val, err := cache.Get("bsc", func(string) (int, error) { return 7, nil })
	require.NoError(err)
	require.Equal(7, val)
}
