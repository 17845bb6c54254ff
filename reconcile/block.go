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

// Package reconcile implements the hierarchical, partition-aware
// block-hash reconciliation engine of spec.md §2–4: the range inferrer,
// partition generator, block-hash planner, aligner/classifier, recursive
// driver, and adjacent-block merger.
package reconcile

// Status is a per-block verdict. N: identical. M: present on both sides
// but differing. A: only in source. D: only in sink.
type Status byte

const (
	StatusIdentical Status = 'N'
	StatusModified  Status = 'M'
	StatusAdded     Status = 'A'
	StatusDeleted   Status = 'D'
)

func (s Status) String() string { return string(s) }

// Block is the reconciliation unit: a contiguous [Start, End) slice of the
// ordering key at a given tree depth, summarized by (NumRows, Hash).
// Start/End hold either int64 or time.Time depending on the
// reconciliation's PartitionColumnType.
type Block struct {
	Start   any
	End     any
	Level   int
	NumRows int64
	Hash    string
}

// blockKey identifies a block for alignment purposes: (start, end, level).
// Start/End are normalized by toOrdinal to int64 (the value itself for
// int, Unix seconds for time.Time).
type blockKey struct {
	start int64
	end   int64
	level int
}
