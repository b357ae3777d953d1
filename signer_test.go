// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package oracle

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/luxfi/crypto"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/common/hexutil"
	"github.com/stretchr/testify/require"
)

func newTestSigner(t *testing.T) Signer {
	sk, err := crypto.GenerateKey()
	require.NoError(t, err)
	return NewSigner(sk)
}

func testProposal() *RoundProposal {
	return &RoundProposal{
		DataTimestamp: 1700000000,
		Leaves: map[string]hexutil.Bytes{
			"BTC-USD": common.LeftPadBytes([]byte{0x01}, 32),
			"ETH-USD": common.LeftPadBytes([]byte{0x02}, 32),
		},
		FeedsForChain: map[string][]string{
			"ethereum": {"BTC-USD", "ETH-USD"},
			"bsc":      {"ETH-USD"},
		},
		ProposedPriceData: map[string]PriceData{
			"BTC-USD": {Heartbeat: 3600, Timestamp: 1700000000, Price: uint256.NewInt(1)},
			"ETH-USD": {Heartbeat: 3600, Timestamp: 1700000000, Price: uint256.NewInt(2)},
		},
	}
}

func TestSignAndRecover(t *testing.T) {
	require := require.New(t)

	signer := newTestSigner(t)
	digest := common.Keccak256Hash([]byte("digest"))

	sig, err := signer.Sign(digest)
	require.NoError(err)

	raw, err := hexutil.Decode(sig)
	require.NoError(err)
	require.Len(raw, signatureLen)
	require.GreaterOrEqual(raw[crypto.RecoveryIDOffset], byte(27))

	recovered, err := RecoverSigner(digest, sig)
	require.NoError(err)
	require.Equal(signer.Address(), recovered)

	other, err := RecoverSigner(common.Keccak256Hash([]byte("other")), sig)
	require.NoError(err)
	require.NotEqual(signer.Address(), other)
}

func TestRecoverSignerInvalidLength(t *testing.T) {
	_, err := RecoverSigner(common.Hash{}, "0x0102")
	require.ErrorIs(t, err, ErrInvalidSignatureLength)
}

func TestParseSigner(t *testing.T) {
	require := require.New(t)

	sk, err := crypto.GenerateKey()
	require.NoError(err)
	hexKey := hexutil.Encode(crypto.FromECDSA(sk))

	signer, err := ParseSigner(hexKey)
	require.NoError(err)
	require.Equal(common.PubkeyToAddress(sk.PublicKey), signer.Address())

	_, err = ParseSigner("0xnothex")
	require.Error(err)
}

func TestChainDigest(t *testing.T) {
	require := require.New(t)

	p := testProposal()
	ethereum := ChainConfig{ID: "ethereum", NetworkID: 1, TargetContract: common.HexToAddress("0x01")}

	digest, err := ProposalDigest(p, ethereum)
	require.NoError(err)

	again, err := ProposalDigest(testProposal(), ethereum)
	require.NoError(err)
	require.Equal(digest, again)

	otherNetwork := ethereum
	otherNetwork.NetworkID = 2
	d, err := ProposalDigest(p, otherNetwork)
	require.NoError(err)
	require.NotEqual(digest, d)

	otherContract := ethereum
	otherContract.TargetContract = common.HexToAddress("0x02")
	d, err = ProposalDigest(p, otherContract)
	require.NoError(err)
	require.NotEqual(digest, d)

	bsc := ChainConfig{ID: "bsc", NetworkID: 1, TargetContract: common.HexToAddress("0x01")}
	d, err = ProposalDigest(p, bsc)
	require.NoError(err)
	require.NotEqual(digest, d)

	_, err = ProposalDigest(p, ChainConfig{ID: "polygon"})
	require.ErrorIs(err, ErrInvalidProposal)
}

func TestSignProposal(t *testing.T) {
	require := require.New(t)

	signer := newTestSigner(t)
	p := testProposal()
	chains := []ChainConfig{
		{ID: "ethereum", NetworkID: 1, TargetContract: common.HexToAddress("0x01")},
		{ID: "bsc", NetworkID: 56, TargetContract: common.HexToAddress("0x02")},
		{ID: "polygon", NetworkID: 137, TargetContract: common.HexToAddress("0x03")},
	}

	signatures, err := SignProposal(signer, p, chains)
	require.NoError(err)
	require.Len(signatures, 2)
	require.NotContains(signatures, "polygon")

	for _, chain := range chains[:2] {
		digest, err := ProposalDigest(p, chain)
		require.NoError(err)
		recovered, err := RecoverSigner(digest, signatures[chain.ID])
		require.NoError(err)
		require.Equal(signer.Address(), recovered)
	}
}
