// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package feeds

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/luxfi/oracle"
)

var (
	_ OnChainReader = (*MemoryReader)(nil)
	_ UpdateTrigger = (*Trigger)(nil)
)

// OnChainReader returns the price data currently stored on a chain. Keys
// with no record are left out.
type OnChainReader interface {
	PriceData(ctx context.Context, chainID string, keys []string) (map[string]oracle.PriceData, error)
}

// UpdateTrigger decides which keys need an update on a chain.
type UpdateTrigger interface {
	Due(ctx context.Context, chainID string, candidate map[string]oracle.PriceData) ([]string, error)
}

// Trigger makes an update due when the on-chain heartbeat has expired at the
// candidate's timestamp or when the price moved by at least the feed's
// trigger percentage. Only the candidate timestamp is used, never the wall
// clock, so every validator evaluates the same proposal identically.
type Trigger struct {
	feeds  Feeds
	reader OnChainReader
}

func NewTrigger(feeds Feeds, reader OnChainReader) *Trigger {
	return &Trigger{
		feeds:  feeds,
		reader: reader,
	}
}

// Due returns the sorted keys of candidate that should be written to chainID.
func (t *Trigger) Due(
	ctx context.Context,
	chainID string,
	candidate map[string]oracle.PriceData,
) ([]string, error) {
	keys := oracle.SortedKeys(candidate)
	current, err := t.reader.PriceData(ctx, chainID, keys)
	if err != nil {
		return nil, fmt.Errorf("failed to read on-chain price data for %s: %w", chainID, err)
	}

	due := make([]string, 0, len(keys))
	for _, key := range keys {
		feed, ok := t.feeds[key]
		if !ok {
			continue
		}
		if isDue(feed, candidate[key], current[key]) {
			due = append(due, key)
		}
	}
	return due, nil
}

func isDue(feed Feed, candidate, onChain oracle.PriceData) bool {
	if onChain.Timestamp == 0 || onChain.Price == nil {
		return true
	}
	if candidate.Timestamp <= onChain.Timestamp {
		return false
	}
	if uint64(candidate.Timestamp) >= uint64(onChain.Timestamp)+uint64(onChain.Heartbeat) {
		return true
	}
	if candidate.Price == nil {
		return false
	}
	a := FromFixed(candidate.Price, feed.Precision)
	b := FromFixed(onChain.Price, feed.Precision)
	if b == 0 {
		return a != 0
	}
	return PercentDifference(a, b) >= feed.Trigger
}

// MemoryReader keeps on-chain state in memory. It backs the logging
// dispatcher so a standalone node observes its own updates.
type MemoryReader struct {
	lock   sync.RWMutex
	chains map[string]map[string]oracle.PriceData
}

func NewMemoryReader() *MemoryReader {
	return &MemoryReader{chains: make(map[string]map[string]oracle.PriceData)}
}

// Record stores data for keys on chainID.
func (m *MemoryReader) Record(chainID string, data map[string]oracle.PriceData) {
	m.lock.Lock()
	defer m.lock.Unlock()

	stored, ok := m.chains[chainID]
	if !ok {
		stored = make(map[string]oracle.PriceData, len(data))
		m.chains[chainID] = stored
	}
	for key, d := range data {
		stored[key] = d
	}
}

func (m *MemoryReader) PriceData(_ context.Context, chainID string, keys []string) (map[string]oracle.PriceData, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()

	out := make(map[string]oracle.PriceData, len(keys))
	stored := m.chains[chainID]
	for _, key := range keys {
		if d, ok := stored[key]; ok {
			out[key] = d
		}
	}
	return out, nil
}

// Keys returns the keys recorded for chainID.
func (m *MemoryReader) Keys(chainID string) []string {
	m.lock.RLock()
	defer m.lock.RUnlock()

	keys := make([]string, 0, len(m.chains[chainID]))
	for key := range m.chains[chainID] {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
