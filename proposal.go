// Copyright (C) 2019-2025, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

package oracle

import (
	"encoding/json"
	"fmt"

	"github.com/holiman/uint256"
	"github.com/luxfi/crypto/hashing"
	"github.com/luxfi/geth/common/hexutil"
	"github.com/luxfi/ids"
	"github.com/luxfi/math/set"
)

// PriceData is the per-key record written on chain.
type PriceData struct {
	Data      uint8
	Heartbeat uint32
	Timestamp uint32
	Price     *uint256.Int
}

type priceDataJSON struct {
	Data      uint8  `json:"data"`
	Heartbeat uint32 `json:"heartbeat"`
	Timestamp uint32 `json:"timestamp"`
	Price     string `json:"price"`
}

// MarshalJSON encodes the price as a decimal string.
func (p PriceData) MarshalJSON() ([]byte, error) {
	price := "0"
	if p.Price != nil {
		price = p.Price.Dec()
	}
	return json.Marshal(priceDataJSON{
		Data:      p.Data,
		Heartbeat: p.Heartbeat,
		Timestamp: p.Timestamp,
		Price:     price,
	})
}

func (p *PriceData) UnmarshalJSON(b []byte) error {
	var raw priceDataJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	price, err := uint256.FromDecimal(raw.Price)
	if err != nil {
		return fmt.Errorf("invalid price %q: %w", raw.Price, err)
	}
	*p = PriceData{
		Data:      raw.Data,
		Heartbeat: raw.Heartbeat,
		Timestamp: raw.Timestamp,
		Price:     price,
	}
	return nil
}

// Equal compares every field, treating a nil price as zero.
func (p PriceData) Equal(other PriceData) bool {
	if p.Data != other.Data || p.Heartbeat != other.Heartbeat || p.Timestamp != other.Timestamp {
		return false
	}
	return priceOrZero(p.Price).Eq(priceOrZero(other.Price))
}

func priceOrZero(p *uint256.Int) *uint256.Int {
	if p == nil {
		return new(uint256.Int)
	}
	return p
}

// RoundProposal is built once by the leader and sent unchanged to every peer.
type RoundProposal struct {
	DataTimestamp     uint32                   `json:"dataTimestamp"`
	Leaves            map[string]hexutil.Bytes `json:"leaves"`
	FeedsForChain     map[string][]string      `json:"feedsForChain"`
	ProposedPriceData map[string]PriceData     `json:"proposedPriceData"`
}

// Bytes returns the canonical JSON encoding. Map keys are sorted by
// encoding/json, so equal proposals encode identically.
func (p *RoundProposal) Bytes() ([]byte, error) {
	return json.Marshal(p)
}

// ID returns the hash of the canonical encoding.
func (p *RoundProposal) ID() ids.ID {
	b, err := p.Bytes()
	if err != nil {
		return ids.Empty
	}
	return ids.ID(hashing.ComputeHash256Array(b))
}

// Keys returns the sorted leaf keys.
func (p *RoundProposal) Keys() []string {
	return SortedKeys(p.Leaves)
}

// Chains returns the sorted target chain ids.
func (p *RoundProposal) Chains() []string {
	return SortedKeys(p.FeedsForChain)
}

// Verify checks that every key a chain targets has a leaf and price data.
func (p *RoundProposal) Verify() error {
	if len(p.Leaves) == 0 {
		return fmt.Errorf("%w: no leaves", ErrInvalidProposal)
	}
	for chainID, keys := range p.FeedsForChain {
		for _, key := range keys {
			if _, ok := p.Leaves[key]; !ok {
				return fmt.Errorf("%w: chain %s targets %s without a leaf", ErrInvalidProposal, chainID, key)
			}
			if _, ok := p.ProposedPriceData[key]; !ok {
				return fmt.Errorf("%w: chain %s targets %s without price data", ErrInvalidProposal, chainID, key)
			}
		}
	}
	return nil
}

// Without returns a copy of the proposal with the given keys removed. Chains
// left with no keys are dropped.
func (p *RoundProposal) Without(drop set.Set[string]) *RoundProposal {
	out := &RoundProposal{
		DataTimestamp:     p.DataTimestamp,
		Leaves:            make(map[string]hexutil.Bytes, len(p.Leaves)),
		FeedsForChain:     make(map[string][]string, len(p.FeedsForChain)),
		ProposedPriceData: make(map[string]PriceData, len(p.ProposedPriceData)),
	}
	for key, leaf := range p.Leaves {
		if !drop.Contains(key) {
			out.Leaves[key] = leaf
		}
	}
	for key, data := range p.ProposedPriceData {
		if !drop.Contains(key) {
			out.ProposedPriceData[key] = data
		}
	}
	for chainID, keys := range p.FeedsForChain {
		kept := make([]string, 0, len(keys))
		for _, key := range keys {
			if !drop.Contains(key) {
				kept = append(kept, key)
			}
		}
		if len(kept) > 0 {
			out.FeedsForChain[chainID] = kept
		}
	}
	return out
}

// Empty reports whether no chain has anything to update.
func (p *RoundProposal) Empty() bool {
	return len(p.FeedsForChain) == 0
}
