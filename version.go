// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package oracle

import (
	"github.com/luxfi/version"
)

// Version is the protocol version this node reports to its peers.
var Version = &version.Semantic{
	Major: 1,
	Minor: 4,
	Patch: 0,
}
