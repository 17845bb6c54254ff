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

import "sort"

// mergeAdjacent collapses runs of contiguous Modified or Added blocks into
// a single wider block, per §3 Invariant 5 / §4.I / merge_adjacent in the
// original: only M and A blocks ever merge, and only while the combined
// row count stays within maxBlockSize. N and D blocks are never merged,
// regardless of adjacency or size — an unbounded run of either is left as
// the forest of minimum-granularity leaves the driver produced.
func mergeAdjacent(blocks []AlignedBlock, maxBlockSize int64) []AlignedBlock {
	if len(blocks) == 0 {
		return blocks
	}

	sorted := make([]AlignedBlock, len(blocks))
	copy(sorted, blocks)
	sort.Slice(sorted, func(i, j int) bool {
		si, _ := sorted[i].Bounds()
		sj, _ := sorted[j].Bounds()
		return toOrdinal(si) < toOrdinal(sj)
	})

	out := make([]AlignedBlock, 0, len(sorted))
	cur := sorted[0]
	curStart, curEnd := cur.Bounds()

	for _, next := range sorted[1:] {
		nextStart, nextEnd := next.Bounds()

		mergeable := cur.Status == next.Status &&
			(cur.Status == StatusModified || cur.Status == StatusAdded) &&
			toOrdinal(nextStart) == toOrdinal(curEnd) &&
			cur.Chosen().NumRows+next.Chosen().NumRows <= maxBlockSize

		if !mergeable {
			out = append(out, collapse(cur, curStart, curEnd))
			cur = next
			curStart, curEnd = nextStart, nextEnd
			continue
		}

		cur = mergeInto(cur, next)
		curEnd = nextEnd
	}
	out = append(out, collapse(cur, curStart, curEnd))
	return out
}

// mergeInto folds next's row counts into cur, widening cur's span. The
// per-block Hash is dropped on merge since it no longer describes a
// single contiguous aggregate query result.
func mergeInto(cur, next AlignedBlock) AlignedBlock {
	merged := cur
	if cur.Source != nil && next.Source != nil {
		s := *cur.Source
		s.NumRows += next.Source.NumRows
		s.Hash = ""
		merged.Source = &s
	}
	if cur.Sink != nil && next.Sink != nil {
		s := *cur.Sink
		s.NumRows += next.Sink.NumRows
		s.Hash = ""
		merged.Sink = &s
	}
	return merged
}

func collapse(ab AlignedBlock, start, end any) AlignedBlock {
	if ab.Source != nil {
		ab.Source.Start, ab.Source.End = start, end
	}
	if ab.Sink != nil {
		ab.Sink.Start, ab.Sink.End = start, end
	}
	return ab
}
