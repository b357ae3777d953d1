// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package round drives the leader side of the protocol: one round per tick.
package round

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/luxfi/log"
	"github.com/luxfi/math/set"

	"github.com/luxfi/oracle"
	"github.com/luxfi/oracle/chains"
	"github.com/luxfi/oracle/consensus"
	"github.com/luxfi/oracle/feeds"
	"github.com/luxfi/oracle/metrics"
	"github.com/luxfi/oracle/utils"
)

var (
	_ ValidatorSource = StaticValidators(nil)

	errInvalidRoundLength = errors.New("round length must be at least one second")
)

// ValidatorSource returns the validator snapshot of a round.
type ValidatorSource interface {
	Validators(ctx context.Context) ([]*oracle.Validator, error)
}

// StaticValidators is a fixed validator list.
type StaticValidators []*oracle.Validator

func (s StaticValidators) Validators(context.Context) ([]*oracle.Validator, error) {
	return s, nil
}

// SignatureCollector gathers the responses of a round's validators.
type SignatureCollector interface {
	Collect(
		ctx context.Context,
		proposal *oracle.RoundProposal,
		validators *oracle.CanonicalValidatorSet,
		membership chains.Membership,
	) ([]oracle.ValidatorResponse, error)
}

type Config struct {
	RoundLength time.Duration
	// MaxAttempts bounds how many times a proposal is collected within one
	// round, counting the first collection.
	MaxAttempts int
	// FetchTimeout bounds the retries of the validator and membership reads
	// at the start of a round. Defaults to a quarter of the round.
	FetchTimeout time.Duration
}

type Runner struct {
	log        log.Logger
	config     Config
	self       oracle.Signer
	validators ValidatorSource
	feeds      feeds.Feeds
	service    feeds.DataService
	trigger    feeds.UpdateTrigger
	registry   *chains.Registry
	membership chains.MembershipProvider
	collector  SignatureCollector
	generator  *consensus.Generator
	dispatcher chains.Dispatcher
	metrics    *metrics.OracleMetrics
}

func NewRunner(
	log log.Logger,
	config Config,
	self oracle.Signer,
	validators ValidatorSource,
	feedConfig feeds.Feeds,
	service feeds.DataService,
	trigger feeds.UpdateTrigger,
	registry *chains.Registry,
	membership chains.MembershipProvider,
	collector SignatureCollector,
	generator *consensus.Generator,
	dispatcher chains.Dispatcher,
	metrics *metrics.OracleMetrics,
) (*Runner, error) {
	if config.RoundLength < time.Second {
		return nil, errInvalidRoundLength
	}
	if config.MaxAttempts < 1 {
		config.MaxAttempts = 1
	}
	if config.FetchTimeout <= 0 {
		config.FetchTimeout = config.RoundLength / 4
	}
	return &Runner{
		log:        log,
		config:     config,
		self:       self,
		validators: validators,
		feeds:      feedConfig,
		service:    service,
		trigger:    trigger,
		registry:   registry,
		membership: membership,
		collector:  collector,
		generator:  generator,
		dispatcher: dispatcher,
		metrics:    metrics,
	}, nil
}

// Run starts a round on every tick until ctx is cancelled. A failed round is
// logged and the next one starts on the next tick.
func (r *Runner) Run(ctx context.Context) {
	ticker := time.NewTicker(r.config.RoundLength)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if err := r.RunRound(ctx, now); err != nil {
				r.metrics.RoundCompleted(metrics.OutcomeFailed)
				r.log.Error("round failed", log.Err(err))
			}
		}
	}
}

// RunRound runs the round containing now if this node leads it.
func (r *Runner) RunRound(ctx context.Context, now time.Time) error {
	snapshot, err := utils.WithRetriesTimeout(ctx, r.log, func() ([]*oracle.Validator, error) {
		return r.validators.Validators(ctx)
	}, r.config.FetchTimeout)
	if err != nil {
		return fmt.Errorf("failed to fetch validators: %w", err)
	}
	validators, err := oracle.NewCanonicalValidatorSet(snapshot)
	if err != nil {
		return err
	}

	timestamp := uint64(now.Unix())
	leader := oracle.SelectLeader(timestamp, validators.Validators(), uint64(r.config.RoundLength/time.Second))
	if leader != r.self.Address() {
		r.metrics.RoundCompleted(metrics.OutcomeNotLeader)
		r.log.Debug("not leading round",
			log.Uint64("timestamp", timestamp),
			log.Stringer("leader", leader),
		)
		return nil
	}

	proposal, err := r.BuildProposal(ctx, uint32(timestamp))
	if err != nil {
		return fmt.Errorf("failed to build proposal: %w", err)
	}
	if proposal.Empty() {
		r.metrics.RoundCompleted(metrics.OutcomeSkipped)
		r.log.Debug("nothing due", log.Uint64("timestamp", timestamp))
		return nil
	}

	membership, err := utils.WithRetriesTimeout(ctx, r.log, func() (chains.Membership, error) {
		return chains.FetchMembership(ctx, r.membership, r.registry.IDs())
	}, r.config.FetchTimeout)
	if err != nil {
		return err
	}

	dispatched := 0
	for attempt := 1; attempt <= r.config.MaxAttempts && !proposal.Empty(); attempt++ {
		n, next, err := r.attempt(ctx, proposal, validators, membership)
		if err != nil {
			return err
		}
		dispatched += n
		r.log.Info("round attempt finished",
			log.Uint64("timestamp", timestamp),
			log.Int("attempt", attempt),
			log.Int("dispatched", n),
		)
		proposal = next
	}

	if dispatched == 0 {
		r.metrics.RoundCompleted(metrics.OutcomeNoQuorum)
		return nil
	}
	r.metrics.RoundCompleted(metrics.OutcomeDispatched)
	return nil
}

// attempt collects signatures for proposal and dispatches every chain that
// reached quorum. It returns the proposal to retry with: the chains that were
// only missing quorum because of discrepant keys, without those keys.
func (r *Runner) attempt(
	ctx context.Context,
	proposal *oracle.RoundProposal,
	validators *oracle.CanonicalValidatorSet,
	membership chains.Membership,
) (int, *oracle.RoundProposal, error) {
	responses, err := r.collector.Collect(ctx, proposal, validators, membership)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to collect signatures: %w", err)
	}

	var (
		dispatched int
		retry      = set.NewSet[string](len(proposal.FeedsForChain))
		drop       = set.NewSet[string](len(proposal.Leaves))
	)
	for _, chain := range r.registry.ForProposal(proposal) {
		result := r.generator.Generate(chain.ID, responses, chain.RequiredSignatures)
		if r.generator.MeetsQuorum(result, chain.RequiredSignatures) {
			if err := r.dispatcher.Dispatch(ctx, chain, proposal, result); err != nil {
				r.log.Error("failed to dispatch",
					log.String("chainID", chain.ID),
					log.Err(err),
				)
				continue
			}
			r.metrics.SignaturesCollected(chain.ID, len(result.Signatures))
			dispatched++
			continue
		}

		if result.DiscrepantKeys.Len() == 0 {
			r.log.Info("no quorum",
				log.String("chainID", chain.ID),
				log.Int("signatures", len(result.Signatures)),
				log.Int("requiredSignatures", chain.RequiredSignatures),
				log.Uint64("power", result.Power),
			)
			continue
		}

		r.metrics.KeysDropped(chain.ID, result.DiscrepantKeys.Len())
		r.log.Info("dropping discrepant keys",
			log.String("chainID", chain.ID),
			log.Reflect("keys", result.DiscrepantKeys.List()),
		)
		retry.Add(chain.ID)
		drop = drop.Union(result.DiscrepantKeys)
	}

	return dispatched, restrict(proposal, retry).Without(drop), nil
}
