// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package feeds

import (
	"context"
	"fmt"
	"sync"

	"github.com/luxfi/geth/common/hexutil"
)

var _ DataService = (*FixedSource)(nil)

// DataService produces the value of each key as seen at timestamp.
type DataService interface {
	Values(ctx context.Context, keys []string, timestamp uint32) (map[string]float64, error)
}

// Leaves fetches values for keys and encodes them with each feed's
// precision. Keys the service returns no value for are left out.
func Leaves(
	ctx context.Context,
	service DataService,
	feeds Feeds,
	keys []string,
	timestamp uint32,
) (map[string]hexutil.Bytes, error) {
	values, err := service.Values(ctx, keys, timestamp)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed values: %w", err)
	}

	leaves := make(map[string]hexutil.Bytes, len(values))
	for _, key := range keys {
		value, ok := values[key]
		if !ok {
			continue
		}
		feed, ok := feeds[key]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownFeed, key)
		}
		leaf, err := EncodeLeaf(value, feed.Precision)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s: %w", key, err)
		}
		leaves[key] = leaf
	}
	return leaves, nil
}

// FixedSource serves values set by the operator, ignoring the timestamp.
type FixedSource struct {
	lock   sync.RWMutex
	values map[string]float64
}

func NewFixedSource(values map[string]float64) *FixedSource {
	s := &FixedSource{values: make(map[string]float64, len(values))}
	for k, v := range values {
		s.values[k] = v
	}
	return s
}

// Set replaces the value served for key.
func (s *FixedSource) Set(key string, value float64) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.values[key] = value
}

func (s *FixedSource) Values(_ context.Context, keys []string, _ uint32) (map[string]float64, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	values := make(map[string]float64, len(keys))
	for _, key := range keys {
		if v, ok := s.values[key]; ok {
			values[key] = v
		}
	}
	return values, nil
}
