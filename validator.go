// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package oracle

import (
	"bytes"
	"errors"
	"fmt"
	"sort"

	"github.com/luxfi/geth/common"
)

var (
	ErrEmptyValidatorSet = errors.New("empty validator set")
	ErrNilValidator      = errors.New("nil validator")
	ErrDuplicateID       = errors.New("duplicate validator id")
	ErrEmptyLocation     = errors.New("validator has empty location")
)

// Validator is a member of the oracle network for one round.
type Validator struct {
	// ID is the address the validator signs with.
	ID common.Address `json:"id" mapstructure:"id"`
	// Power is the voting weight of the validator.
	Power uint64 `json:"power" mapstructure:"power"`
	// Location is the base URL peers use to reach the validator.
	Location string `json:"location" mapstructure:"location"`
}

// NewValidator creates a new validator
func NewValidator(id common.Address, power uint64, location string) *Validator {
	return &Validator{
		ID:       id,
		Power:    power,
		Location: location,
	}
}

// Less returns true if this validator is ordered before the other
func (v *Validator) Less(other *Validator) bool {
	return bytes.Compare(v.ID.Bytes(), other.ID.Bytes()) < 0
}

// CanonicalValidatorSet is a validator snapshot sorted by id.
type CanonicalValidatorSet struct {
	validators []*Validator
	totalPower uint64
}

// NewCanonicalValidatorSet validates the snapshot and sorts it by id. The
// input slice is not modified.
func NewCanonicalValidatorSet(validators []*Validator) (*CanonicalValidatorSet, error) {
	if err := ValidateValidatorSet(validators); err != nil {
		return nil, err
	}

	var totalPower uint64
	for _, v := range validators {
		newPower, err := AddUint64(totalPower, v.Power)
		if err != nil {
			return nil, fmt.Errorf("total power overflow: %w", err)
		}
		totalPower = newPower
	}

	sorted := make([]*Validator, len(validators))
	copy(sorted, validators)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Less(sorted[j])
	})

	return &CanonicalValidatorSet{
		validators: sorted,
		totalPower: totalPower,
	}, nil
}

// Validators returns the validators in canonical order
func (c *CanonicalValidatorSet) Validators() []*Validator {
	return c.validators
}

// TotalPower returns the summed power of all validators
func (c *CanonicalValidatorSet) TotalPower() uint64 {
	return c.totalPower
}

// Len returns the number of validators
func (c *CanonicalValidatorSet) Len() int {
	return len(c.validators)
}

// Get returns the validator with the given id
func (c *CanonicalValidatorSet) Get(id common.Address) (*Validator, bool) {
	for _, v := range c.validators {
		if v.ID == id {
			return v, true
		}
	}
	return nil, false
}

// ValidatorSetToMap converts a validator slice to a map keyed by id
func ValidatorSetToMap(validators []*Validator) map[common.Address]*Validator {
	vMap := make(map[common.Address]*Validator, len(validators))
	for _, v := range validators {
		vMap[v.ID] = v
	}
	return vMap
}

// ValidateValidatorSet performs validation on a validator snapshot. Zero power
// is allowed: such a validator can sign but adds nothing to the round power.
func ValidateValidatorSet(validators []*Validator) error {
	if len(validators) == 0 {
		return ErrEmptyValidatorSet
	}

	seen := make(map[common.Address]bool, len(validators))
	for i, v := range validators {
		if v == nil {
			return fmt.Errorf("%w at index %d", ErrNilValidator, i)
		}
		if v.Location == "" {
			return fmt.Errorf("%w: %s", ErrEmptyLocation, v.ID)
		}
		if seen[v.ID] {
			return fmt.Errorf("%w: %s", ErrDuplicateID, v.ID)
		}
		seen[v.ID] = true
	}

	return nil
}
