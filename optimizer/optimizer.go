// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package optimizer finds the smallest set of feed keys to drop so that a
// quorum of validators agrees on the remaining keys.
package optimizer

import (
	"math"
	"sort"

	"github.com/luxfi/geth/common"
	"github.com/luxfi/math/set"

	"github.com/luxfi/oracle"
)

const (
	// ParticipantCutoff is the number of discrepancies above which a
	// participant is left out of the quorum accounting for the round.
	ParticipantCutoff = 10

	// CircuitBreaker caps the size of the discrepant key universe that is
	// searched. At or above it nothing is signed.
	CircuitBreaker = 10
)

// Participant is one validator's view of the round.
type Participant struct {
	Address       common.Address
	Power         uint64
	Discrepancies set.Set[string]
}

// Constraints must all hold for a drop set to be accepted.
type Constraints struct {
	MinimumRequiredPower      uint64
	MinimumRequiredSignatures int
}

// Optimize returns the keys to drop. The search is exhaustive over subsets
// of the discrepant keys in increasing size, and the first subset that
// satisfies constraints wins. When no subset does, or the search space is
// too large, every discrepant key is returned.
func Optimize(participants []Participant, constraints Constraints) set.Set[string] {
	all := set.NewSet[string](0)
	for _, p := range participants {
		all = all.Union(p.Discrepancies)
	}
	if all.Len() == 0 {
		return set.NewSet[string](0)
	}
	if everyoneDisagreesOnAll(participants, all) {
		return all
	}

	eligible := make([]Participant, 0, len(participants))
	universe := set.NewSet[string](0)
	for _, p := range participants {
		if p.Discrepancies.Len() > ParticipantCutoff {
			continue
		}
		eligible = append(eligible, p)
		universe = universe.Union(p.Discrepancies)
	}

	if universe.Len() >= CircuitBreaker {
		return all
	}

	keys := universe.List()
	sort.Strings(keys)
	for k := 1; k < len(keys); k++ {
		for combo := range Combinations(keys, k) {
			drop := set.Of(combo...)
			if satisfies(eligible, drop, constraints) {
				return drop
			}
		}
	}
	return all
}

func everyoneDisagreesOnAll(participants []Participant, all set.Set[string]) bool {
	for _, p := range participants {
		if !p.Discrepancies.Equals(all) {
			return false
		}
	}
	return true
}

// satisfies reports whether the participants whose discrepancies are all
// covered by drop meet the constraints.
func satisfies(participants []Participant, drop set.Set[string], constraints Constraints) bool {
	var (
		count int
		power uint64
	)
	for _, p := range participants {
		if !covered(p.Discrepancies, drop) {
			continue
		}
		count++
		newPower, err := oracle.AddUint64(power, p.Power)
		if err != nil {
			newPower = math.MaxUint64
		}
		power = newPower
	}
	return count >= constraints.MinimumRequiredSignatures && power >= constraints.MinimumRequiredPower
}

func covered(discrepancies, drop set.Set[string]) bool {
	for key := range discrepancies {
		if !drop.Contains(key) {
			return false
		}
	}
	return true
}
