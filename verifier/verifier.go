// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package verifier answers round proposals on behalf of a peer validator.
package verifier

import (
	"context"
	"fmt"

	"github.com/luxfi/geth/common/hexutil"
	"github.com/luxfi/log"

	"github.com/luxfi/oracle"
	"github.com/luxfi/oracle/chains"
	"github.com/luxfi/oracle/feeds"
	"github.com/luxfi/oracle/metrics"
)

// Verification results.
const (
	ResultSigned     = "signed"
	ResultDiscrepant = "discrepant"
	ResultRefused    = "refused"
	ResultError      = "error"
)

var _ ProposalVerifier = (*Verifier)(nil)

// ProposalVerifier answers a proposal. It never fails: every outcome is
// reported in the response.
type ProposalVerifier interface {
	Verify(ctx context.Context, proposal *oracle.RoundProposal) *oracle.SignerResponse
}

// Verifier recomputes a proposal locally and signs it only if the local
// values agree with it.
type Verifier struct {
	log      log.Logger
	signer   oracle.Signer
	registry *chains.Registry
	feeds    feeds.Feeds
	service  feeds.DataService
	trigger  feeds.UpdateTrigger
	finder   *feeds.DiscrepancyFinder
	metrics  *metrics.OracleMetrics
}

func NewVerifier(
	log log.Logger,
	signer oracle.Signer,
	registry *chains.Registry,
	feedConfig feeds.Feeds,
	service feeds.DataService,
	trigger feeds.UpdateTrigger,
	metrics *metrics.OracleMetrics,
) *Verifier {
	return &Verifier{
		log:      log,
		signer:   signer,
		registry: registry,
		feeds:    feedConfig,
		service:  service,
		trigger:  trigger,
		finder:   feeds.NewDiscrepancyFinder(feedConfig),
		metrics:  metrics,
	}
}

// Verify runs the checks in order and stops at the first one that fails:
//  1. local values are fetched at the proposal's data timestamp
//  2. at least one key must be due on one of the proposal's chains
//  3. no key may differ from the local value by more than its threshold
//  4. the proposed price data must be the one derived from the leaves
//
// Only then is every targeted chain signed. Discrepancies are a normal
// answer, so nothing is signed while any key conflicts.
func (v *Verifier) Verify(ctx context.Context, proposal *oracle.RoundProposal) *oracle.SignerResponse {
	proposalID := proposal.ID()
	if err := proposal.Verify(); err != nil {
		return v.fail(proposalID, err)
	}

	local, err := feeds.Leaves(ctx, v.service, v.feeds, proposal.Keys(), proposal.DataTimestamp)
	if err != nil {
		return v.fail(proposalID, err)
	}

	triggered, err := v.triggered(ctx, proposal, local)
	if err != nil {
		return v.fail(proposalID, err)
	}
	if !triggered {
		v.metrics.Verified(ResultRefused)
		v.log.Debug("nothing triggered", log.Stringer("proposalID", proposalID))
		return v.response(oracle.ErrNothingTriggered.Error())
	}

	if discrepancies := v.finder.Find(proposal.Leaves, local); len(discrepancies) > 0 {
		v.metrics.Verified(ResultDiscrepant)
		v.log.Info(
			"proposal is discrepant",
			log.Stringer("proposalID", proposalID),
			log.Int("numDiscrepancies", len(discrepancies)),
		)
		response := v.response("")
		response.Discrepancies = discrepancies
		return response
	}

	if err := v.checkPriceData(proposal); err != nil {
		return v.fail(proposalID, err)
	}

	signatures, err := oracle.SignProposal(v.signer, proposal, v.registry.ForProposal(proposal))
	if err != nil {
		return v.fail(proposalID, fmt.Errorf("%w: %w", oracle.ErrSigningFailed, err))
	}

	v.metrics.Verified(ResultSigned)
	v.log.Debug(
		"signed proposal",
		log.Stringer("proposalID", proposalID),
		log.Int("numChains", len(signatures)),
	)
	response := v.response("")
	response.Signatures = signatures
	return response
}

// triggered reports whether an update is due on any targeted chain, judged
// on the locally computed values.
func (v *Verifier) triggered(
	ctx context.Context,
	proposal *oracle.RoundProposal,
	local map[string]hexutil.Bytes,
) (bool, error) {
	for _, chain := range v.registry.ForProposal(proposal) {
		candidate := make(map[string]oracle.PriceData)
		for _, key := range proposal.FeedsForChain[chain.ID] {
			leaf, ok := local[key]
			if !ok {
				continue
			}
			data, err := v.feeds.PriceData(key, leaf, proposal.DataTimestamp)
			if err != nil {
				continue
			}
			candidate[key] = data
		}
		due, err := v.trigger.Due(ctx, chain.ID, candidate)
		if err != nil {
			return false, err
		}
		if len(due) > 0 {
			return true, nil
		}
	}
	return false, nil
}

// checkPriceData rejects a proposal whose price data does not follow from
// its own leaves and the local feed configuration.
func (v *Verifier) checkPriceData(proposal *oracle.RoundProposal) error {
	for _, key := range proposal.Keys() {
		expected, err := v.feeds.PriceData(key, proposal.Leaves[key], proposal.DataTimestamp)
		if err != nil {
			return fmt.Errorf("%w: %w", oracle.ErrPriceDataMismatch, err)
		}
		proposed, ok := proposal.ProposedPriceData[key]
		if !ok || !proposed.Equal(expected) {
			return fmt.Errorf("%w: %s", oracle.ErrPriceDataMismatch, key)
		}
	}
	return nil
}

func (v *Verifier) fail(proposalID fmt.Stringer, err error) *oracle.SignerResponse {
	v.metrics.Verified(ResultError)
	v.log.Warn(
		"failed to verify proposal",
		log.Stringer("proposalID", proposalID),
		log.Err(err),
	)
	return v.response(err.Error())
}

func (*Verifier) response(errMsg string) *oracle.SignerResponse {
	return &oracle.SignerResponse{
		Discrepancies: []oracle.Discrepancy{},
		Error:         errMsg,
		Version:       oracle.Version.String(),
	}
}
