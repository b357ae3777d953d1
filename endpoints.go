// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package oracle

import (
	"github.com/luxfi/geth/common"
)

// HTTP endpoints every validator serves.
const (
	SignaturePath = "/signature/deviation"
	InfoPath      = "/info"
	// P2PPath accepts messages framed for the Lux p2p router: a uvarint
	// handler id followed by the handler's request bytes.
	P2PPath = "/p2p"
	// NodeIDHeader optionally names the requesting node on P2PPath.
	NodeIDHeader = "X-Node-ID"
	// PingResponse is the body of a successful liveness probe.
	PingResponse = "OK"
)

// InfoResponse describes a validator node.
type InfoResponse struct {
	Validator common.Address `json:"validator"`
	Version   string         `json:"version"`
	Chains    []string       `json:"chains"`
}
