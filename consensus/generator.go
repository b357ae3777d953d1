// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package consensus reduces the responses collected for a proposal into the
// signatures and dropped keys of a round.
package consensus

import (
	"github.com/luxfi/geth/common"
	"github.com/luxfi/log"
	"github.com/luxfi/math/set"
	"github.com/luxfi/version"

	"github.com/luxfi/oracle"
	"github.com/luxfi/oracle/optimizer"
)

// DefaultMinimumRequiredPower keeps the power constraint nearly vacuous. It
// is configurable so operators can raise it.
const DefaultMinimumRequiredPower = 1

// Generator turns responses into a ConsensusResult. It holds only
// configuration, so the same responses always yield the same result.
type Generator struct {
	log                  log.Logger
	version              *version.Semantic
	minimumRequiredPower uint64
}

func NewGenerator(log log.Logger, current *version.Semantic, minimumRequiredPower uint64) *Generator {
	return &Generator{
		log:                  log,
		version:              current,
		minimumRequiredPower: minimumRequiredPower,
	}
}

// Generate reduces responses for chainID. Responses are consumed in order,
// so the leader's signature stays first when the leader's response is first.
// requiredSignatures counts the leader, who is not asked for a vote, hence
// the optimizer is run with one signature less.
func (g *Generator) Generate(
	chainID string,
	responses []oracle.ValidatorResponse,
	requiredSignatures int,
) *oracle.ConsensusResult {
	var (
		signatures   []string
		power        uint64
		participants []optimizer.Participant
		seen         = set.NewSet[common.Address](len(responses))
	)

	for _, r := range responses {
		if r.Validator == nil || r.Response == nil {
			continue
		}
		CheckVersion(g.log, g.version, r.Response.Version)

		if r.Response.Error != "" {
			continue
		}
		if seen.Contains(r.Validator.ID) {
			g.log.Warn("dropping duplicate response",
				log.Stringer("validator", r.Validator.ID),
			)
			continue
		}

		if sig := r.Response.Signatures[chainID]; sig != "" {
			// A response that would overflow the round power is ignored as a
			// whole.
			newPower, err := oracle.AddUint64(power, r.Validator.Power)
			if err != nil {
				g.log.Warn("power overflow", log.Stringer("validator", r.Validator.ID), log.Err(err))
				continue
			}
			seen.Add(r.Validator.ID)
			signatures = append(signatures, sig)
			power = newPower
			participants = append(participants, optimizer.Participant{
				Address:       r.Validator.ID,
				Power:         r.Validator.Power,
				Discrepancies: set.NewSet[string](0),
			})
		} else if len(r.Response.Discrepancies) > 0 {
			seen.Add(r.Validator.ID)
			participants = append(participants, optimizer.Participant{
				Address:       r.Validator.ID,
				Power:         r.Validator.Power,
				Discrepancies: r.Response.DiscrepantKeys(),
			})
		}
	}

	dropped := optimizer.Optimize(participants, optimizer.Constraints{
		MinimumRequiredPower:      g.minimumRequiredPower,
		MinimumRequiredSignatures: max(requiredSignatures-1, 0),
	})

	return &oracle.ConsensusResult{
		Signatures:     signatures,
		DiscrepantKeys: dropped,
		Power:          power,
	}
}

// MeetsQuorum reports whether result can be dispatched: nothing was dropped,
// enough validators signed and their power reaches the minimum.
func (g *Generator) MeetsQuorum(result *oracle.ConsensusResult, requiredSignatures int) bool {
	return result.DiscrepantKeys.Len() == 0 &&
		len(result.Signatures) >= requiredSignatures &&
		result.Power >= g.minimumRequiredPower
}
