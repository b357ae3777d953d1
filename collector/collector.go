// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package collector gathers signatures for a round proposal from every
// validator of the round.
package collector

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/luxfi/geth/common"
	"github.com/luxfi/log"
	"golang.org/x/sync/errgroup"

	"github.com/luxfi/oracle"
	"github.com/luxfi/oracle/chains"
	"github.com/luxfi/oracle/metrics"
)

var errNoValidators = errors.New("no validators")

// Collector fans a proposal out to the validators of a round. The node's own
// signatures are produced locally, every other validator is asked over HTTP.
type Collector struct {
	log              log.Logger
	client           *http.Client
	signer           oracle.Signer
	registry         *chains.Registry
	metrics          *metrics.OracleMetrics
	signatureTimeout time.Duration
	statusTimeout    time.Duration
}

// NewCollector returns an instance of Collector
func NewCollector(
	log log.Logger,
	client *http.Client,
	signer oracle.Signer,
	registry *chains.Registry,
	metrics *metrics.OracleMetrics,
	signatureTimeout time.Duration,
	statusTimeout time.Duration,
) *Collector {
	return &Collector{
		log:              log,
		client:           client,
		signer:           signer,
		registry:         registry,
		metrics:          metrics,
		signatureTimeout: signatureTimeout,
		statusTimeout:    statusTimeout,
	}
}

// Collect blocks until every validator has answered or failed and returns
// the usable responses. Validators that could not be reached are left out.
// The node's own response, when present, is always first; the others follow
// the canonical validator order.
//
// membership must be the snapshot taken at the start of the round. A
// signature for a chain its signer is not registered on is dropped, as is a
// signature that does not recover to the validator it came from.
func (c *Collector) Collect(
	ctx context.Context,
	proposal *oracle.RoundProposal,
	validators *oracle.CanonicalValidatorSet,
	membership chains.Membership,
) ([]oracle.ValidatorResponse, error) {
	if validators == nil || validators.Len() == 0 {
		return nil, errNoValidators
	}

	body, err := proposal.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to marshal proposal: %w", err)
	}

	targets := c.registry.ForProposal(proposal)
	digests := make(map[string]common.Hash, len(targets))
	for _, chain := range targets {
		digest, err := oracle.ProposalDigest(proposal, chain)
		if err != nil {
			return nil, err
		}
		digests[chain.ID] = digest
	}

	start := time.Now()
	results := make([]*oracle.SignerResponse, validators.Len())
	var eg errgroup.Group
	for i, validator := range validators.Validators() {
		eg.Go(func() error {
			if validator.ID == c.signer.Address() {
				results[i] = c.signLocally(proposal, targets, membership)
				return nil
			}
			results[i] = c.collectFromPeer(ctx, validator, body, digests, membership)
			return nil
		})
	}
	_ = eg.Wait()
	c.metrics.ObserveCollect(time.Since(start))

	responses := make([]oracle.ValidatorResponse, 0, len(results))
	for i, validator := range validators.Validators() {
		if results[i] == nil {
			continue
		}
		response := oracle.ValidatorResponse{
			Validator: validator,
			Response:  results[i],
		}
		if validator.ID == c.signer.Address() {
			responses = append([]oracle.ValidatorResponse{response}, responses...)
			continue
		}
		responses = append(responses, response)
	}
	return responses, nil
}

// signLocally signs for every targeted chain the node is registered on.
func (c *Collector) signLocally(
	proposal *oracle.RoundProposal,
	targets []oracle.ChainConfig,
	membership chains.Membership,
) *oracle.SignerResponse {
	self := c.signer.Address()
	registered := make([]oracle.ChainConfig, 0, len(targets))
	for _, chain := range targets {
		if !membership.Contains(chain.ID, self) {
			c.log.Debug(
				"not signing for chain without membership",
				log.String("chainID", chain.ID),
				log.Stringer("validator", self),
			)
			continue
		}
		registered = append(registered, chain)
	}

	signatures, err := oracle.SignProposal(c.signer, proposal, registered)
	if err != nil {
		c.log.Error("failed to sign proposal locally",
			log.Stringer("proposalID", proposal.ID()),
			log.Err(err),
		)
		return &oracle.SignerResponse{
			Error:   oracle.ErrSigningFailed.Error(),
			Version: oracle.Version.String(),
		}
	}
	return &oracle.SignerResponse{
		Signatures:    signatures,
		Discrepancies: []oracle.Discrepancy{},
		Version:       oracle.Version.String(),
	}
}

func (c *Collector) collectFromPeer(
	ctx context.Context,
	validator *oracle.Validator,
	body []byte,
	digests map[string]common.Hash,
	membership chains.Membership,
) *oracle.SignerResponse {
	response, err := c.requestPeer(ctx, validator.Location, body)
	if err != nil {
		reason := metrics.ReasonSignature
		if errors.Is(err, errStatus) {
			reason = metrics.ReasonStatus
		}
		c.metrics.PeerFailed(reason)
		c.log.Warn(
			"dropping peer for this round",
			log.Stringer("validator", validator.ID),
			log.String("location", validator.Location),
			log.Err(err),
		)
		return nil
	}

	for chainID, signature := range response.Signatures {
		digest, ok := digests[chainID]
		if !ok {
			c.log.Debug(
				"dropping signature for chain not in proposal",
				log.Stringer("validator", validator.ID),
				log.String("chainID", chainID),
			)
			delete(response.Signatures, chainID)
			continue
		}
		if !membership.Contains(chainID, validator.ID) {
			c.metrics.PeerFailed(metrics.ReasonNotMember)
			c.log.Warn(
				"dropping signature from validator not registered on chain",
				log.Stringer("validator", validator.ID),
				log.String("chainID", chainID),
			)
			delete(response.Signatures, chainID)
			continue
		}
		recovered, err := oracle.RecoverSigner(digest, signature)
		if err != nil || recovered != validator.ID {
			c.metrics.PeerFailed(metrics.ReasonSignerMismatch)
			c.log.Warn(
				"dropping signature not made by validator",
				log.Stringer("validator", validator.ID),
				log.Stringer("recovered", recovered),
				log.String("chainID", chainID),
				log.Err(err),
			)
			delete(response.Signatures, chainID)
		}
	}
	return response
}
