// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package feeds

import (
	"math"

	"github.com/luxfi/geth/common/hexutil"

	"github.com/luxfi/oracle"
)

// missingDiscrepancy is reported when a key cannot be compared at all.
const missingDiscrepancy = 100.0

// DiscrepancyFinder compares leaves against per-feed thresholds.
type DiscrepancyFinder struct {
	feeds Feeds
}

func NewDiscrepancyFinder(feeds Feeds) *DiscrepancyFinder {
	return &DiscrepancyFinder{feeds: feeds}
}

// Find returns, in key order, every key of proposed whose value differs from
// local by more than the feed's discrepancy threshold. Keys that are unknown,
// missing locally or undecodable are reported with a 100% discrepancy.
func (d *DiscrepancyFinder) Find(proposed, local map[string]hexutil.Bytes) []oracle.Discrepancy {
	var discrepancies []oracle.Discrepancy
	for _, key := range oracle.SortedKeys(proposed) {
		feed, ok := d.feeds[key]
		if !ok {
			discrepancies = append(discrepancies, oracle.Discrepancy{Key: key, Discrepancy: missingDiscrepancy})
			continue
		}
		localLeaf, ok := local[key]
		if !ok {
			discrepancies = append(discrepancies, oracle.Discrepancy{Key: key, Discrepancy: missingDiscrepancy})
			continue
		}
		a, errA := DecodeLeaf(proposed[key], feed.Precision)
		b, errB := DecodeLeaf(localLeaf, feed.Precision)
		if errA != nil || errB != nil {
			discrepancies = append(discrepancies, oracle.Discrepancy{Key: key, Discrepancy: missingDiscrepancy})
			continue
		}
		if diff := PercentDifference(a, b); diff > feed.Discrepancy {
			discrepancies = append(discrepancies, oracle.Discrepancy{Key: key, Discrepancy: diff})
		}
	}
	return discrepancies
}

// PercentDifference is the absolute difference of a and b relative to their
// mean, in percent.
func PercentDifference(a, b float64) float64 {
	if a == b {
		return 0
	}
	mean := (a + b) / 2
	if mean == 0 {
		return missingDiscrepancy
	}
	return math.Abs(a-b) / math.Abs(mean) * 100
}
