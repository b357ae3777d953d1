// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package oracle

import (
	"fmt"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
)

// ChainConfig describes one target chain the network writes feeds to.
type ChainConfig struct {
	ID                 string         `json:"id" mapstructure:"id"`
	NetworkID          uint64         `json:"network-id" mapstructure:"network-id"`
	TargetContract     common.Address `json:"target-contract" mapstructure:"target-contract"`
	RequiredSignatures int            `json:"required-signatures" mapstructure:"required-signatures"`
	// Validators is the membership registered on this chain.
	Validators []common.Address `json:"validators" mapstructure:"validators"`
}

// ChainDigest hashes everything a chain contract checks before accepting an
// update:
//
//	keccak256(keccak256(chainID) | networkID | targetContract | keccak256(key)... | priceData...)
//
// Every element is a 32 byte word. Each price data contributes four words:
// data, heartbeat, timestamp and price.
func ChainDigest(
	chainID string,
	networkID uint64,
	targetContract common.Address,
	keys []string,
	priceData []PriceData,
) common.Hash {
	buf := make([]byte, 0, 32*(3+len(keys)+4*len(priceData)))
	buf = append(buf, common.Keccak256([]byte(chainID))...)
	buf = appendWord(buf, uint256.NewInt(networkID))
	buf = append(buf, common.LeftPadBytes(targetContract.Bytes(), 32)...)
	for _, key := range keys {
		buf = append(buf, common.Keccak256([]byte(key))...)
	}
	for _, d := range priceData {
		buf = appendWord(buf, uint256.NewInt(uint64(d.Data)))
		buf = appendWord(buf, uint256.NewInt(uint64(d.Heartbeat)))
		buf = appendWord(buf, uint256.NewInt(uint64(d.Timestamp)))
		buf = appendWord(buf, priceOrZero(d.Price))
	}
	return common.Keccak256Hash(buf)
}

func appendWord(buf []byte, v *uint256.Int) []byte {
	word := v.Bytes32()
	return append(buf, word[:]...)
}

// ProposalDigest is the digest of the part of the proposal targeting chain.
func ProposalDigest(p *RoundProposal, chain ChainConfig) (common.Hash, error) {
	keys, ok := p.FeedsForChain[chain.ID]
	if !ok {
		return common.Hash{}, fmt.Errorf("%w: chain %s not targeted", ErrInvalidProposal, chain.ID)
	}
	priceData := make([]PriceData, 0, len(keys))
	for _, key := range keys {
		d, ok := p.ProposedPriceData[key]
		if !ok {
			return common.Hash{}, fmt.Errorf("%w: no price data for %s", ErrInvalidProposal, key)
		}
		priceData = append(priceData, d)
	}
	return ChainDigest(chain.ID, chain.NetworkID, chain.TargetContract, keys, priceData), nil
}
