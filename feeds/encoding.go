// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package feeds

import (
	"errors"
	"fmt"
	"math"
	"math/big"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common/hexutil"
)

const leafLen = 32

var (
	ErrInvalidValue = errors.New("invalid feed value")
	ErrInvalidLeaf  = errors.New("invalid leaf")
)

// ToFixed converts value to an integer with precision decimals.
func ToFixed(value float64, precision uint8) (*uint256.Int, error) {
	if value < 0 || math.IsNaN(value) || math.IsInf(value, 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidValue, value)
	}
	scaled := new(big.Float).SetPrec(256).SetFloat64(value)
	scaled.Mul(scaled, new(big.Float).SetInt(pow10(precision)))

	// Round half up before truncating.
	scaled.Add(scaled, big.NewFloat(0.5))
	integer, _ := scaled.Int(nil)

	fixed, overflow := uint256.FromBig(integer)
	if overflow {
		return nil, fmt.Errorf("%w: %v overflows", ErrInvalidValue, value)
	}
	return fixed, nil
}

// FromFixed is the inverse of ToFixed, up to float64 precision.
func FromFixed(fixed *uint256.Int, precision uint8) float64 {
	f := new(big.Float).SetPrec(256).SetInt(fixed.ToBig())
	f.Quo(f, new(big.Float).SetInt(pow10(precision)))
	value, _ := f.Float64()
	return value
}

// EncodeLeaf encodes value as a 32 byte big-endian fixed point number.
func EncodeLeaf(value float64, precision uint8) (hexutil.Bytes, error) {
	fixed, err := ToFixed(value, precision)
	if err != nil {
		return nil, err
	}
	word := fixed.Bytes32()
	return hexutil.Bytes(word[:]), nil
}

// DecodeLeaf is the inverse of EncodeLeaf.
func DecodeLeaf(leaf []byte, precision uint8) (float64, error) {
	if len(leaf) != leafLen {
		return 0, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidLeaf, leafLen, len(leaf))
	}
	return FromFixed(new(uint256.Int).SetBytes(leaf), precision), nil
}

func pow10(n uint8) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}
