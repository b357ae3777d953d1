// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chains

import (
	"context"

	"github.com/luxfi/log"

	"github.com/luxfi/oracle"
	"github.com/luxfi/oracle/feeds"
)

var _ Dispatcher = (*LoggingDispatcher)(nil)

// Dispatcher submits a finished round to a chain.
type Dispatcher interface {
	Dispatch(
		ctx context.Context,
		chain oracle.ChainConfig,
		proposal *oracle.RoundProposal,
		result *oracle.ConsensusResult,
	) error
}

// LoggingDispatcher logs results instead of submitting transactions. When a
// MemoryReader is given, dispatched price data is recorded in it so the
// update trigger sees the new values.
type LoggingDispatcher struct {
	log    log.Logger
	reader *feeds.MemoryReader
}

func NewLoggingDispatcher(log log.Logger, reader *feeds.MemoryReader) *LoggingDispatcher {
	return &LoggingDispatcher{
		log:    log,
		reader: reader,
	}
}

func (d *LoggingDispatcher) Dispatch(
	_ context.Context,
	chain oracle.ChainConfig,
	proposal *oracle.RoundProposal,
	result *oracle.ConsensusResult,
) error {
	keys := proposal.FeedsForChain[chain.ID]
	d.log.Info(
		"dispatching consensus",
		log.String("chainID", chain.ID),
		log.Uint32("dataTimestamp", proposal.DataTimestamp),
		log.Reflect("keys", keys),
		log.Int("signatures", len(result.Signatures)),
		log.Uint64("power", result.Power),
	)
	if d.reader == nil {
		return nil
	}

	data := make(map[string]oracle.PriceData, len(keys))
	for _, key := range keys {
		data[key] = proposal.ProposedPriceData[key]
	}
	d.reader.Record(chain.ID, data)
	return nil
}
