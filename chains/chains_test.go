// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chains

import (
	"context"
	"testing"
	"time"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/common/hexutil"
	"github.com/luxfi/log"
	"github.com/luxfi/math/set"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/oracle"
	"github.com/luxfi/oracle/feeds"
)

var (
	alice = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	bob   = common.HexToAddress("0x00000000000000000000000000000000000000b0")
)

func testRegistry(t *testing.T) *Registry {
	registry, err := NewRegistry([]oracle.ChainConfig{
		{ID: "ethereum", NetworkID: 1, RequiredSignatures: 2, Validators: []common.Address{alice, bob}},
		{ID: "bsc", NetworkID: 56, RequiredSignatures: 1, Validators: []common.Address{alice}},
	})
	require.NoError(t, err)
	return registry
}

func TestRegistry(t *testing.T) {
	require := require.New(t)
	registry := testRegistry(t)

	require.Equal([]string{"bsc", "ethereum"}, registry.IDs())

	chain, err := registry.Get("bsc")
	require.NoError(err)
	require.Equal(uint64(56), chain.NetworkID)

	_, err = registry.Get("polygon")
	require.ErrorIs(err, ErrUnknownChain)

	_, err = NewRegistry([]oracle.ChainConfig{
		{ID: "bsc", RequiredSignatures: 1},
		{ID: "bsc", RequiredSignatures: 1},
	})
	require.ErrorIs(err, ErrDuplicateChain)

	proposal := &oracle.RoundProposal{
		FeedsForChain: map[string][]string{"ethereum": {"ETH-USD"}, "polygon": {"ETH-USD"}},
	}
	targeted := registry.ForProposal(proposal)
	require.Len(targeted, 1)
	require.Equal("ethereum", targeted[0].ID)
}

type countingProvider struct {
	calls int
	inner MembershipProvider
}

func (c *countingProvider) Members(ctx context.Context, chainID string) (set.Set[common.Address], error) {
	c.calls++
	return c.inner.Members(ctx, chainID)
}

func TestMembership(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	provider := &countingProvider{inner: NewStaticMembership(testRegistry(t))}
	cached := NewCachedMembership(provider, time.Minute)

	membership, err := FetchMembership(ctx, cached, []string{"bsc", "ethereum"})
	require.NoError(err)
	require.True(membership.Contains("ethereum", bob))
	require.False(membership.Contains("bsc", bob))
	require.False(membership.Contains("polygon", alice))

	_, err = FetchMembership(ctx, cached, []string{"bsc", "ethereum"})
	require.NoError(err)
	require.Equal(2, provider.calls)

	_, err = FetchMembership(ctx, cached, []string{"polygon"})
	require.ErrorIs(err, ErrUnknownChain)
}

func TestLoggingDispatcherRecords(t *testing.T) {
	require := require.New(t)

	reader := feeds.NewMemoryReader()
	dispatcher := NewLoggingDispatcher(log.NewNoOpLogger(), reader)

	proposal := &oracle.RoundProposal{
		DataTimestamp: 100,
		Leaves:        map[string]hexutil.Bytes{"ETH-USD": {1}},
		FeedsForChain: map[string][]string{"bsc": {"ETH-USD"}},
		ProposedPriceData: map[string]oracle.PriceData{
			"ETH-USD": {Heartbeat: 60, Timestamp: 100, Price: uint256.NewInt(1)},
		},
	}
	chain, err := testRegistry(t).Get("bsc")
	require.NoError(err)

	require.NoError(dispatcher.Dispatch(context.Background(), chain, proposal, &oracle.ConsensusResult{}))
	require.Equal([]string{"ETH-USD"}, reader.Keys("bsc"))
	require.Empty(reader.Keys("ethereum"))
}
