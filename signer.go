// Copyright (C) 2019-2025, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

package oracle

import (
	"crypto/ecdsa"
	"errors"
	"fmt"

	"github.com/luxfi/crypto"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/common/hexutil"
)

const signatureLen = 65

var (
	_ Signer = (*ecdsaSigner)(nil)

	ErrInvalidSignatureLength = errors.New("invalid signature length")
)

// Signer signs chain digests on behalf of a validator.
type Signer interface {
	// Address is the id the signatures recover to.
	Address() common.Address
	// Sign returns a 0x-hex encoded signature over digest.
	Sign(digest common.Hash) (string, error)
}

// NewSigner creates a signer from an ECDSA key
func NewSigner(sk *ecdsa.PrivateKey) Signer {
	return &ecdsaSigner{
		sk:      sk,
		address: common.PubkeyToAddress(sk.PublicKey),
	}
}

// ParseSigner creates a signer from a hex encoded private key.
func ParseSigner(hexKey string) (Signer, error) {
	sk, err := crypto.HexToECDSA(SanitizeHexString(hexKey))
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}
	return NewSigner(sk), nil
}

type ecdsaSigner struct {
	sk      *ecdsa.PrivateKey
	address common.Address
}

func (s *ecdsaSigner) Address() common.Address {
	return s.address
}

func (s *ecdsaSigner) Sign(digest common.Hash) (string, error) {
	sig, err := crypto.Sign(messageHash(digest), s.sk)
	if err != nil {
		return "", err
	}
	sig[crypto.RecoveryIDOffset] += 27
	return hexutil.Encode(sig), nil
}

// RecoverSigner returns the address that produced signature over digest.
func RecoverSigner(digest common.Hash, signature string) (common.Address, error) {
	sig, err := hexutil.Decode(signature)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to decode signature: %w", err)
	}
	if len(sig) != signatureLen {
		return common.Address{}, fmt.Errorf("%w: %d", ErrInvalidSignatureLength, len(sig))
	}
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}
	pk, err := crypto.SigToPub(messageHash(digest), sig)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to recover public key: %w", err)
	}
	return common.PubkeyToAddress(*pk), nil
}

// messageHash applies the Ethereum personal message prefix so contracts can
// check signatures with ecrecover on the prefixed digest.
func messageHash(digest common.Hash) []byte {
	return common.Keccak256([]byte("\x19Ethereum Signed Message:\n32"), digest.Bytes())
}

// SignProposal signs the digest of every chain in chains that the proposal
// targets.
func SignProposal(s Signer, p *RoundProposal, chains []ChainConfig) (map[string]string, error) {
	signatures := make(map[string]string, len(chains))
	for _, chain := range chains {
		if _, ok := p.FeedsForChain[chain.ID]; !ok {
			continue
		}
		digest, err := ProposalDigest(p, chain)
		if err != nil {
			return nil, err
		}
		sig, err := s.Sign(digest)
		if err != nil {
			return nil, fmt.Errorf("failed to sign for chain %s: %w", chain.ID, err)
		}
		signatures[chain.ID] = sig
	}
	return signatures, nil
}
