// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package oracle

import (
	"encoding/json"
	"testing"

	"github.com/holiman/uint256"
	"github.com/luxfi/math/set"
	"github.com/stretchr/testify/require"
)

func TestProposalID(t *testing.T) {
	require := require.New(t)

	a := testProposal()
	b := testProposal()
	require.Equal(a.ID(), b.ID())

	b.DataTimestamp++
	require.NotEqual(a.ID(), b.ID())
}

func TestProposalVerify(t *testing.T) {
	require := require.New(t)

	p := testProposal()
	require.NoError(p.Verify())

	delete(p.ProposedPriceData, "BTC-USD")
	require.ErrorIs(p.Verify(), ErrInvalidProposal)

	p = testProposal()
	delete(p.Leaves, "ETH-USD")
	require.ErrorIs(p.Verify(), ErrInvalidProposal)

	require.ErrorIs((&RoundProposal{}).Verify(), ErrInvalidProposal)
}

func TestProposalWithout(t *testing.T) {
	require := require.New(t)

	p := testProposal()
	out := p.Without(set.Of("ETH-USD"))

	require.Equal([]string{"BTC-USD"}, out.Keys())
	require.Equal([]string{"ethereum"}, out.Chains())
	require.Equal([]string{"BTC-USD"}, out.FeedsForChain["ethereum"])
	require.NotContains(out.ProposedPriceData, "ETH-USD")
	require.Equal(p.DataTimestamp, out.DataTimestamp)
	require.NoError(out.Verify())

	// The input proposal is untouched.
	require.Equal([]string{"BTC-USD", "ETH-USD"}, p.Keys())

	require.True(p.Without(set.Of("BTC-USD", "ETH-USD")).Empty())
	require.Equal(p.ID(), p.Without(set.Of[string]()).ID())
}

func TestPriceDataJSON(t *testing.T) {
	require := require.New(t)

	price, err := uint256.FromDecimal("123456789012345678901234567890")
	require.NoError(err)
	in := PriceData{Heartbeat: 60, Timestamp: 1700000000, Price: price}

	b, err := json.Marshal(in)
	require.NoError(err)
	require.JSONEq(`{"data":0,"heartbeat":60,"timestamp":1700000000,"price":"123456789012345678901234567890"}`, string(b))

	var out PriceData
	require.NoError(json.Unmarshal(b, &out))
	require.True(in.Equal(out))

	require.True(PriceData{}.Equal(PriceData{Price: new(uint256.Int)}))
}
