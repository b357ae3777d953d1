// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package oracle

import (
	"github.com/luxfi/geth/common"
)

// NoLeader is returned when nobody can lead the round.
var NoLeader = common.Address{}

// SelectLeader maps a round timestamp to the validator leading that round.
// Every timestamp inside the same round window maps to the same leader, so a
// leader that starts late is still recognised by its peers. validators must
// be in the same order on every node.
func SelectLeader(timestamp uint64, validators []*Validator, roundLength uint64) common.Address {
	if len(validators) == 0 || roundLength == 0 {
		return NoLeader
	}
	index := (timestamp / roundLength) % uint64(len(validators))
	return validators[index].ID
}
