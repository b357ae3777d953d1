// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/luxfi/ids"
	"github.com/luxfi/log"
	"github.com/luxfi/math/set"
	"github.com/luxfi/p2p"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/luxfi/oracle"
	"github.com/luxfi/oracle/verifier"
)

const p2pNamespace = "oracle_p2p"

var (
	_ p2p.Sender   = (*responseSender)(nil)
	_ http.Handler = (*P2PHandler)(nil)

	errOutboundUnsupported = errors.New("outbound p2p messages are not supported")
	errUnknownRequest      = errors.New("unknown request id")
)

type p2pResult struct {
	response []byte
	err      *p2p.Error
}

// responseSender hands the answers of the p2p router back to the HTTP
// request that carried the message.
type responseSender struct {
	lock    sync.Mutex
	pending map[uint32]chan p2pResult
}

func (s *responseSender) register(requestID uint32) <-chan p2pResult {
	ch := make(chan p2pResult, 1)

	s.lock.Lock()
	defer s.lock.Unlock()

	s.pending[requestID] = ch
	return ch
}

func (s *responseSender) remove(requestID uint32) {
	s.lock.Lock()
	defer s.lock.Unlock()

	delete(s.pending, requestID)
}

func (s *responseSender) deliver(requestID uint32, result p2pResult) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	ch, ok := s.pending[requestID]
	if !ok {
		return fmt.Errorf("%w: %d", errUnknownRequest, requestID)
	}
	delete(s.pending, requestID)
	ch <- result
	return nil
}

func (*responseSender) SendRequest(context.Context, set.Set[ids.NodeID], uint32, []byte) error {
	return errOutboundUnsupported
}

func (s *responseSender) SendResponse(_ context.Context, _ ids.NodeID, requestID uint32, response []byte) error {
	return s.deliver(requestID, p2pResult{response: response})
}

func (s *responseSender) SendError(_ context.Context, _ ids.NodeID, requestID uint32, errorCode int32, errorMessage string) error {
	return s.deliver(requestID, p2pResult{err: &p2p.Error{Code: errorCode, Message: errorMessage}})
}

func (*responseSender) SendGossip(context.Context, p2p.SendConfig, []byte) error {
	return errOutboundUnsupported
}

// P2PHandler serves the proposal protocol of the Lux p2p router over HTTP,
// so nodes speaking the p2p framing can query the verifier without a
// separate transport.
type P2PHandler struct {
	log       log.Logger
	network   *p2p.Network
	sender    *responseSender
	timeout   time.Duration
	requestID atomic.Uint32
}

// NewP2PHandler registers v on a p2p network under
// verifier.ProposalHandlerID. Each request must be answered within timeout.
func NewP2PHandler(
	logger log.Logger,
	registerer prometheus.Registerer,
	v verifier.ProposalVerifier,
	timeout time.Duration,
) (*P2PHandler, error) {
	sender := &responseSender{
		pending: make(map[uint32]chan p2pResult),
	}
	network, err := p2p.NewNetwork(logger, sender, registerer, p2pNamespace)
	if err != nil {
		return nil, fmt.Errorf("failed to create p2p network: %w", err)
	}
	if err := network.AddHandler(verifier.ProposalHandlerID, verifier.NewHandlerAdapter(v)); err != nil {
		return nil, err
	}
	return &P2PHandler{
		log:     logger,
		network: network,
		sender:  sender,
		timeout: timeout,
	}, nil
}

func (h *P2PHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	nodeID := ids.EmptyNodeID
	if header := r.Header.Get(oracle.NodeIDHeader); header != "" {
		parsed, err := ids.NodeIDFromString(header)
		if err != nil {
			writeJSONError(h.log, w, http.StatusBadRequest, "Invalid node id")
			return
		}
		nodeID = parsed
	}

	msg, err := io.ReadAll(io.LimitReader(r.Body, maxRequestSize))
	if err != nil {
		errMsg := "Could not read request body"
		h.log.Warn(errMsg, log.Err(err))
		writeJSONError(h.log, w, http.StatusBadRequest, errMsg)
		return
	}

	requestID := h.requestID.Add(1)
	results := h.sender.register(requestID)
	defer h.sender.remove(requestID)

	deadline := time.Now().Add(h.timeout)
	if _, appErr := h.network.Request(r.Context(), nodeID, requestID, deadline, msg); appErr != nil {
		h.log.Error("p2p request failed",
			log.Stringer("nodeID", nodeID),
			log.Uint32("requestID", requestID),
			log.Err(appErr),
		)
		writeJSONError(h.log, w, http.StatusInternalServerError, appErr.Message)
		return
	}

	// The router answers through the sender before Request returns.
	var result p2pResult
	select {
	case result = <-results:
	default:
		writeJSONError(h.log, w, http.StatusInternalServerError, "No response from handler")
		return
	}

	if result.err != nil {
		status := http.StatusBadRequest
		if result.err.Code == p2p.ErrUnregisteredHandler.Code {
			status = http.StatusNotFound
		}
		writeJSONError(h.log, w, status, result.err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(result.response); err != nil {
		h.log.Error("Error writing p2p response", log.Err(err))
	}
}
