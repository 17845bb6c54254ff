// Copyright 2020-2021 Dolthub, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package reconcile

import (
	"time"

	"github.com/reconsql/reconsql/rerrors"
)

// DeriveIntervals builds the strictly-decreasing interval ladder from
// (initialPartitionInterval, maxBlockSize, reductionFactor): start with
// i = initialPartitionInterval; while i > maxBlockSize, append i and set
// i = i / reductionFactor (integer division); finally append i. intervals[0]
// corresponds to level 1.
func DeriveIntervals(initialPartitionInterval, maxBlockSize, reductionFactor int64) ([]int64, error) {
	if initialPartitionInterval < maxBlockSize {
		return nil, rerrors.ErrRange.New("initial_partition_interval < max_block_size: interval list would be empty")
	}
	var intervals []int64
	i := initialPartitionInterval
	for i > maxBlockSize {
		intervals = append(intervals, i)
		i = i / reductionFactor
		if i <= 0 {
			i = 1
			break
		}
	}
	intervals = append(intervals, i)
	return intervals, nil
}

// SuggestReductionFactor picks the smallest reductionFactor-th root depth
// whose repeated subdivision still reaches desiredLeafCount, ported from
// utils/utils_fn.py's find_interval_factor: at recursion depth mid, the
// ladder has mid*(mid+1)/2 total subdivision steps (level 1 divides once,
// level 2 divides twice, ...), so reductionFactor^power is the narrowest
// leaf interval reachable in mid levels. Binary search finds the least
// mid whose leaf interval is at least desiredLeafCount. It returns that
// depth (a level count), not a reduction factor, and nothing in this module
// calls it: config.Reconciliation.Validate rejects an unset or <= 1
// interval_reduction_factor.
func SuggestReductionFactor(desiredLeafCount, reductionFactor int64) int64 {
	if desiredLeafCount <= 1 {
		return 1
	}

	low, high := int64(1), int64(1000)
	for low < high {
		mid := (low + high) / 2
		power := (mid * (mid + 1)) / 2
		val := pow(reductionFactor, power)

		if val >= desiredLeafCount {
			high = mid
		} else {
			low = mid + 1
		}
	}
	return low
}

// pow computes base^exp for non-negative exp, saturating at
// math.MaxInt64 instead of overflowing — desiredLeafCount in practice is
// a partition-interval ratio, never large enough to need more, but the
// binary search's upper bound (1000) makes very large exponents
// reachable during the search itself.
func pow(base, exp int64) int64 {
	const maxInt64 = int64(1)<<63 - 1
	result := int64(1)
	for ; exp > 0; exp-- {
		if result > maxInt64/base {
			return maxInt64
		}
		result *= base
	}
	return result
}

// partitionRange is one top-level, interval[0]-aligned slice of [start, end).
type partitionRange struct {
	start, end any
}

// partitionGenerator slices [start, end) into partitions of width
// topInterval, each ending on the next multiple of topInterval after its
// start, clamped to end. It builds and returns every partition at once as
// a slice; it is not lazy.
func partitionGenerator(start, end any, topInterval int64) []partitionRange {
	var out []partitionRange
	cur := toOrdinal(start)
	endOrd := toOrdinal(end)
	for cur < endOrd {
		next := ((cur + topInterval) / topInterval) * topInterval
		if next > endOrd {
			next = endOrd
		}
		out = append(out, partitionRange{
			start: ordinalAsValueLike(cur, start),
			end:   ordinalAsValueLike(next, end),
		})
		cur = next
	}
	return out
}

// ordinalAsValueLike is ordinalAsValue but infers the native
// representation from the partition's own start/end arguments rather
// than a separately-supplied template value.
func ordinalAsValueLike(ord int64, like any) any {
	if _, ok := like.(time.Time); ok {
		return ordinalAsValue(ord, like)
	}
	return ord
}
