// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package oracle

import (
	"github.com/luxfi/math/set"
)

// Discrepancy is a per-key percentage difference above the feed threshold.
type Discrepancy struct {
	Key         string  `json:"key"`
	Discrepancy float64 `json:"discrepancy"`
}

// SignerResponse is what one validator returns for one proposal.
type SignerResponse struct {
	// Signatures maps chain id to a 0x-hex signature over that chain's digest.
	Signatures    map[string]string `json:"signatures,omitempty"`
	Discrepancies []Discrepancy     `json:"discrepancies"`
	Error         string            `json:"error,omitempty"`
	Version       string            `json:"version"`
}

// DiscrepantKeys returns the keys the responder disagreed on.
func (r *SignerResponse) DiscrepantKeys() set.Set[string] {
	keys := set.NewSet[string](len(r.Discrepancies))
	for _, d := range r.Discrepancies {
		keys.Add(d.Key)
	}
	return keys
}

// ValidatorResponse pairs a response with the validator that produced it.
type ValidatorResponse struct {
	Validator *Validator
	Response  *SignerResponse
}

// ConsensusResult is the outcome of one chain's signature collection. It is
// only valid for the proposal it was produced from.
type ConsensusResult struct {
	Signatures     []string
	DiscrepantKeys set.Set[string]
	Power          uint64
}
