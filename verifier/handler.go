// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package verifier

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/luxfi/ids"
	"github.com/luxfi/p2p"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/luxfi/oracle"
)

// ProposalHandlerID is the p2p protocol ID proposals are served on.
const ProposalHandlerID = 0x6f72636c

var (
	_ ProposalVerifier = (*CachedHandler)(nil)
	_ p2p.Handler      = (*HandlerAdapter)(nil)
)

// CachedHandler remembers the answer to each proposal so a leader that asks
// again for the same proposal gets the same response without recomputation.
// Failed verifications are not cached.
type CachedHandler struct {
	verifier  ProposalVerifier
	responses *lru.Cache[ids.ID, *oracle.SignerResponse]
}

func NewCachedHandler(verifier ProposalVerifier, size uint64) (*CachedHandler, error) {
	if size == 0 || size > math.MaxInt {
		return nil, fmt.Errorf("invalid cache size %d", size)
	}
	responses, err := lru.New[ids.ID, *oracle.SignerResponse](int(size))
	if err != nil {
		return nil, err
	}
	return &CachedHandler{
		verifier:  verifier,
		responses: responses,
	}, nil
}

func (h *CachedHandler) Verify(ctx context.Context, proposal *oracle.RoundProposal) *oracle.SignerResponse {
	proposalID := proposal.ID()
	if response, ok := h.responses.Get(proposalID); ok {
		return response
	}

	response := h.verifier.Verify(ctx, proposal)
	if response.Error == "" {
		h.responses.Add(proposalID, response)
	}
	return response
}

// HandlerAdapter serves a ProposalVerifier on the Lux p2p router. Requests
// and responses are the JSON encodings used over HTTP.
type HandlerAdapter struct {
	verifier ProposalVerifier
}

func NewHandlerAdapter(verifier ProposalVerifier) *HandlerAdapter {
	return &HandlerAdapter{verifier: verifier}
}

// Gossip implements p2p.Handler. Proposals are never gossiped.
func (*HandlerAdapter) Gossip(context.Context, ids.NodeID, []byte) {}

// Request implements p2p.Handler
func (a *HandlerAdapter) Request(
	ctx context.Context,
	_ ids.NodeID,
	deadline time.Time,
	requestBytes []byte,
) ([]byte, *p2p.Error) {
	var proposal oracle.RoundProposal
	if err := json.Unmarshal(requestBytes, &proposal); err != nil {
		return nil, &p2p.Error{
			Code:    oracle.CodeInvalidProposal,
			Message: fmt.Sprintf("failed to decode proposal: %s", err),
		}
	}

	ctx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	responseBytes, err := json.Marshal(a.verifier.Verify(ctx, &proposal))
	if err != nil {
		return nil, &p2p.Error{
			Code:    oracle.CodeSigningFailed,
			Message: err.Error(),
		}
	}
	return responseBytes, nil
}
