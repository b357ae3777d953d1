// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package optimizer

import "iter"

// Combinations yields every k-element subset of items in lexicographic order
// of indices. The yielded slice is reused between iterations.
func Combinations[T any](items []T, k int) iter.Seq[[]T] {
	return func(yield func([]T) bool) {
		n := len(items)
		if k <= 0 || k > n {
			return
		}

		indices := make([]int, k)
		for i := range indices {
			indices[i] = i
		}
		combo := make([]T, k)

		for {
			for i, idx := range indices {
				combo[i] = items[idx]
			}
			if !yield(combo) {
				return
			}

			// Find the rightmost index that can still move right.
			i := k - 1
			for i >= 0 && indices[i] == n-k+i {
				i--
			}
			if i < 0 {
				return
			}
			indices[i]++
			for j := i + 1; j < k; j++ {
				indices[j] = indices[j-1] + 1
			}
		}
	}
}
