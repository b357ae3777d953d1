// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package verifier

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/luxfi/crypto"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/common/hexutil"
	"github.com/luxfi/ids"
	"github.com/luxfi/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/oracle"
	"github.com/luxfi/oracle/chains"
	"github.com/luxfi/oracle/feeds"
	"github.com/luxfi/oracle/metrics"
)

const timestamp uint32 = 1700000000

var ethereum = oracle.ChainConfig{
	ID:                 "ethereum",
	NetworkID:          1,
	TargetContract:     common.HexToAddress("0x01"),
	RequiredSignatures: 1,
}

type testEnv struct {
	verifier *Verifier
	signer   oracle.Signer
	feeds    feeds.Feeds
	source   *feeds.FixedSource
	reader   *feeds.MemoryReader
}

func newTestEnv(t *testing.T) *testEnv {
	require := require.New(t)

	feedConfig, err := feeds.New([]feeds.Feed{
		{Key: "BTC-USD", Discrepancy: 1, Precision: 8, Heartbeat: 3600, Trigger: 0.5, Chains: []string{"ethereum"}},
		{Key: "ETH-USD", Discrepancy: 1, Precision: 8, Heartbeat: 3600, Trigger: 0.5, Chains: []string{"ethereum"}},
	})
	require.NoError(err)
	registry, err := chains.NewRegistry([]oracle.ChainConfig{ethereum})
	require.NoError(err)
	sk, err := crypto.GenerateKey()
	require.NoError(err)

	env := &testEnv{
		signer: oracle.NewSigner(sk),
		feeds:  feedConfig,
		source: feeds.NewFixedSource(map[string]float64{"BTC-USD": 100, "ETH-USD": 10}),
		reader: feeds.NewMemoryReader(),
	}
	env.verifier = NewVerifier(
		log.NewNoOpLogger(),
		env.signer,
		registry,
		feedConfig,
		env.source,
		feeds.NewTrigger(feedConfig, env.reader),
		metrics.NewOracleMetrics(prometheus.NewRegistry()),
	)
	return env
}

// propose builds the proposal a leader observing values would send.
func (e *testEnv) propose(t *testing.T, values map[string]float64) *oracle.RoundProposal {
	p := &oracle.RoundProposal{
		DataTimestamp:     timestamp,
		Leaves:            make(map[string]hexutil.Bytes, len(values)),
		FeedsForChain:     make(map[string][]string),
		ProposedPriceData: make(map[string]oracle.PriceData, len(values)),
	}
	for key, value := range values {
		leaf, err := feeds.EncodeLeaf(value, e.feeds[key].Precision)
		require.NoError(t, err)
		data, err := e.feeds.PriceData(key, leaf, timestamp)
		require.NoError(t, err)
		p.Leaves[key] = leaf
		p.ProposedPriceData[key] = data
	}
	p.FeedsForChain["ethereum"] = p.Keys()
	return p
}

func TestVerifySigns(t *testing.T) {
	require := require.New(t)

	env := newTestEnv(t)
	proposal := env.propose(t, map[string]float64{"BTC-USD": 100.2, "ETH-USD": 10})

	response := env.verifier.Verify(context.Background(), proposal)
	require.Empty(response.Error)
	require.Empty(response.Discrepancies)
	require.Equal(oracle.Version.String(), response.Version)
	require.Contains(response.Signatures, "ethereum")

	digest, err := oracle.ProposalDigest(proposal, ethereum)
	require.NoError(err)
	recovered, err := oracle.RecoverSigner(digest, response.Signatures["ethereum"])
	require.NoError(err)
	require.Equal(env.signer.Address(), recovered)
}

func TestVerifyDiscrepant(t *testing.T) {
	require := require.New(t)

	env := newTestEnv(t)
	proposal := env.propose(t, map[string]float64{"BTC-USD": 110, "ETH-USD": 10})

	response := env.verifier.Verify(context.Background(), proposal)
	require.Empty(response.Error)
	require.Empty(response.Signatures)
	require.Len(response.Discrepancies, 1)
	require.Equal("BTC-USD", response.Discrepancies[0].Key)
}

func TestVerifyNothingTriggered(t *testing.T) {
	require := require.New(t)

	env := newTestEnv(t)
	proposal := env.propose(t, map[string]float64{"BTC-USD": 100, "ETH-USD": 10})
	env.reader.Record("ethereum", proposal.ProposedPriceData)

	response := env.verifier.Verify(context.Background(), proposal)
	require.Equal(oracle.ErrNothingTriggered.Error(), response.Error)
	require.NotNil(response.Discrepancies)
	require.Empty(response.Discrepancies)
	require.Empty(response.Signatures)
}

func TestVerifyPriceDataMismatch(t *testing.T) {
	require := require.New(t)

	env := newTestEnv(t)
	proposal := env.propose(t, map[string]float64{"BTC-USD": 100, "ETH-USD": 10})
	data := proposal.ProposedPriceData["ETH-USD"]
	data.Heartbeat = 60
	proposal.ProposedPriceData["ETH-USD"] = data

	response := env.verifier.Verify(context.Background(), proposal)
	require.Contains(response.Error, oracle.ErrPriceDataMismatch.Error())
	require.Empty(response.Signatures)
}

func TestVerifyInvalidProposal(t *testing.T) {
	env := newTestEnv(t)
	response := env.verifier.Verify(context.Background(), &oracle.RoundProposal{})
	require.Contains(t, response.Error, oracle.ErrInvalidProposal.Error())
}

type countingVerifier struct {
	calls    int
	response *oracle.SignerResponse
}

func (c *countingVerifier) Verify(context.Context, *oracle.RoundProposal) *oracle.SignerResponse {
	c.calls++
	return c.response
}

func TestCachedHandler(t *testing.T) {
	require := require.New(t)

	env := newTestEnv(t)
	proposal := env.propose(t, map[string]float64{"BTC-USD": 100, "ETH-USD": 10})

	inner := &countingVerifier{response: &oracle.SignerResponse{Signatures: map[string]string{"ethereum": "0x01"}}}
	handler, err := NewCachedHandler(inner, 8)
	require.NoError(err)

	first := handler.Verify(context.Background(), proposal)
	second := handler.Verify(context.Background(), env.propose(t, map[string]float64{"BTC-USD": 100, "ETH-USD": 10}))
	require.Equal(first, second)
	require.Equal(1, inner.calls)

	inner.response = &oracle.SignerResponse{Error: "unavailable"}
	other := env.propose(t, map[string]float64{"BTC-USD": 101})
	handler.Verify(context.Background(), other)
	handler.Verify(context.Background(), other)
	require.Equal(3, inner.calls)

	_, err = NewCachedHandler(inner, 0)
	require.Error(err)
}

func TestHandlerAdapter(t *testing.T) {
	require := require.New(t)

	env := newTestEnv(t)
	adapter := NewHandlerAdapter(env.verifier)
	proposal := env.propose(t, map[string]float64{"BTC-USD": 100, "ETH-USD": 10})

	requestBytes, err := proposal.Bytes()
	require.NoError(err)

	responseBytes, appErr := adapter.Request(context.Background(), ids.EmptyNodeID, time.Now().Add(time.Minute), requestBytes)
	require.Nil(appErr)

	var response oracle.SignerResponse
	require.NoError(json.Unmarshal(responseBytes, &response))
	require.Contains(response.Signatures, "ethereum")

	_, appErr = adapter.Request(context.Background(), ids.EmptyNodeID, time.Now().Add(time.Minute), []byte("{"))
	require.NotNil(appErr)
	require.EqualValues(oracle.CodeInvalidProposal, appErr.Code)
}
