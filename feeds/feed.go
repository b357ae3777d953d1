// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package feeds defines the price feeds validators agree on, how their
// values are encoded into leaves, and when an update is due on chain.
package feeds

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/luxfi/oracle"
)

const maxPrecision = 36

var (
	ErrUnknownFeed      = errors.New("unknown feed")
	ErrDuplicateFeed    = errors.New("duplicate feed")
	ErrInvalidPrecision = errors.New("invalid precision")
)

// Feed is the configuration of one price series.
type Feed struct {
	Key string `json:"key" mapstructure:"key"`
	// Discrepancy is the percentage two validators may differ by before the
	// key is reported as discrepant.
	Discrepancy float64 `json:"discrepancy" mapstructure:"discrepancy"`
	// Precision is the number of decimals kept in the fixed point leaf.
	Precision uint8 `json:"precision" mapstructure:"precision"`
	// Heartbeat is the maximum age in seconds of the on-chain value.
	Heartbeat uint32 `json:"heartbeat" mapstructure:"heartbeat"`
	// Trigger is the percentage move that makes an update due early.
	Trigger float64 `json:"trigger" mapstructure:"trigger"`
	// Chains lists the chain ids the feed is written to.
	Chains []string `json:"chains" mapstructure:"chains"`
}

// Feeds indexes feed configuration by key.
type Feeds map[string]Feed

// New validates list and indexes it by key.
func New(list []Feed) (Feeds, error) {
	feeds := make(Feeds, len(list))
	for _, feed := range list {
		if feed.Key == "" {
			return nil, errors.New("feed has empty key")
		}
		if _, ok := feeds[feed.Key]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateFeed, feed.Key)
		}
		if feed.Precision > maxPrecision {
			return nil, fmt.Errorf("%w: %s has %d decimals", ErrInvalidPrecision, feed.Key, feed.Precision)
		}
		if feed.Discrepancy < 0 || feed.Trigger < 0 {
			return nil, fmt.Errorf("feed %s has a negative threshold", feed.Key)
		}
		feeds[feed.Key] = feed
	}
	return feeds, nil
}

// Keys returns the sorted feed keys.
func (f Feeds) Keys() []string {
	return oracle.SortedKeys(f)
}

// KeysForChain returns the sorted keys written to chainID.
func (f Feeds) KeysForChain(chainID string) []string {
	keys := make([]string, 0, len(f))
	for _, key := range f.Keys() {
		for _, c := range f[key].Chains {
			if c == chainID {
				keys = append(keys, key)
				break
			}
		}
	}
	return keys
}

// PriceData derives the on-chain record for key from its leaf.
func (f Feeds) PriceData(key string, leaf []byte, timestamp uint32) (oracle.PriceData, error) {
	feed, ok := f[key]
	if !ok {
		return oracle.PriceData{}, fmt.Errorf("%w: %s", ErrUnknownFeed, key)
	}
	if len(leaf) > 32 {
		return oracle.PriceData{}, fmt.Errorf("%w: leaf for %s is %d bytes", ErrInvalidLeaf, key, len(leaf))
	}
	return oracle.PriceData{
		Data:      0,
		Heartbeat: feed.Heartbeat,
		Timestamp: timestamp,
		Price:     new(uint256.Int).SetBytes(leaf),
	}, nil
}
