// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package round

import (
	"context"
	"fmt"

	"github.com/luxfi/geth/common/hexutil"
	"github.com/luxfi/math/set"

	"github.com/luxfi/oracle"
	"github.com/luxfi/oracle/feeds"
)

// BuildProposal fetches every feed at timestamp and proposes, per chain, the
// keys whose update is due. The proposal is empty when nothing is due.
func (r *Runner) BuildProposal(ctx context.Context, timestamp uint32) (*oracle.RoundProposal, error) {
	leaves, err := feeds.Leaves(ctx, r.service, r.feeds, r.feeds.Keys(), timestamp)
	if err != nil {
		return nil, err
	}

	proposal := &oracle.RoundProposal{
		DataTimestamp:     timestamp,
		Leaves:            make(map[string]hexutil.Bytes),
		FeedsForChain:     make(map[string][]string),
		ProposedPriceData: make(map[string]oracle.PriceData),
	}
	for _, chain := range r.registry.All() {
		candidate := make(map[string]oracle.PriceData)
		for _, key := range r.feeds.KeysForChain(chain.ID) {
			leaf, ok := leaves[key]
			if !ok {
				continue
			}
			data, err := r.feeds.PriceData(key, leaf, timestamp)
			if err != nil {
				return nil, fmt.Errorf("failed to derive price data for %s: %w", key, err)
			}
			candidate[key] = data
		}

		due, err := r.trigger.Due(ctx, chain.ID, candidate)
		if err != nil {
			return nil, err
		}
		if len(due) == 0 {
			continue
		}
		proposal.FeedsForChain[chain.ID] = due
		for _, key := range due {
			proposal.Leaves[key] = leaves[key]
			proposal.ProposedPriceData[key] = candidate[key]
		}
	}
	return proposal, nil
}

// restrict keeps only the given chains of p and the keys they target.
func restrict(p *oracle.RoundProposal, chainIDs set.Set[string]) *oracle.RoundProposal {
	out := &oracle.RoundProposal{
		DataTimestamp:     p.DataTimestamp,
		Leaves:            make(map[string]hexutil.Bytes),
		FeedsForChain:     make(map[string][]string),
		ProposedPriceData: make(map[string]oracle.PriceData),
	}
	for chainID, keys := range p.FeedsForChain {
		if !chainIDs.Contains(chainID) {
			continue
		}
		out.FeedsForChain[chainID] = keys
		for _, key := range keys {
			out.Leaves[key] = p.Leaves[key]
			out.ProposedPriceData[key] = p.ProposedPriceData[key]
		}
	}
	return out
}
