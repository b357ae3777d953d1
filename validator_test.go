// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package oracle

import (
	"math"
	"testing"

	"github.com/luxfi/geth/common"
	"github.com/stretchr/testify/require"
)

func TestNewCanonicalValidatorSet(t *testing.T) {
	require := require.New(t)

	c := NewValidator(common.HexToAddress("0x0c"), 3, "http://c")
	a := NewValidator(common.HexToAddress("0x0a"), 1, "http://a")
	b := NewValidator(common.HexToAddress("0x0b"), 2, "http://b")
	input := []*Validator{c, a, b}

	set, err := NewCanonicalValidatorSet(input)
	require.NoError(err)
	require.Equal([]*Validator{a, b, c}, set.Validators())
	require.Equal(uint64(6), set.TotalPower())
	require.Equal(3, set.Len())
	require.Equal([]*Validator{c, a, b}, input)

	got, ok := set.Get(b.ID)
	require.True(ok)
	require.Equal(b, got)

	_, ok = set.Get(common.HexToAddress("0x0d"))
	require.False(ok)
}

func TestValidateValidatorSet(t *testing.T) {
	a := NewValidator(common.HexToAddress("0x0a"), 1, "http://a")

	tests := []struct {
		name        string
		validators  []*Validator
		expectedErr error
	}{
		{name: "empty", validators: nil, expectedErr: ErrEmptyValidatorSet},
		{name: "nil entry", validators: []*Validator{a, nil}, expectedErr: ErrNilValidator},
		{name: "duplicate", validators: []*Validator{a, a}, expectedErr: ErrDuplicateID},
		{
			name:        "no location",
			validators:  []*Validator{NewValidator(common.HexToAddress("0x0b"), 1, "")},
			expectedErr: ErrEmptyLocation,
		},
		{
			name:       "zero power allowed",
			validators: []*Validator{a, NewValidator(common.HexToAddress("0x0b"), 0, "http://b")},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			require.ErrorIs(t, ValidateValidatorSet(test.validators), test.expectedErr)
		})
	}
}

func TestCanonicalValidatorSetPowerOverflow(t *testing.T) {
	_, err := NewCanonicalValidatorSet([]*Validator{
		NewValidator(common.HexToAddress("0x0a"), math.MaxUint64, "http://a"),
		NewValidator(common.HexToAddress("0x0b"), 1, "http://b"),
	})
	require.ErrorIs(t, err, errAdditionOverflow)
}
