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

// align pairs source and sink blocks by their (start, end, level) key and
// classifies each pair, per §4.G / calculate_block_status in the
// original. A block present on only one side is Added (source-only) or
// Deleted (sink-only); present on both with equal hash and equal row
// count is Identical; present on both otherwise is Modified.
func align(source, sink []Block) []AlignedBlock {
	byKey := make(map[blockKey]Block, len(sink))
	for _, b := range sink {
		byKey[keyOf(b)] = b
	}

	seen := make(map[blockKey]bool, len(source))
	out := make([]AlignedBlock, 0, len(source)+len(sink))

	for _, s := range source {
		k := keyOf(s)
		seen[k] = true
		if snk, ok := byKey[k]; ok {
			status := StatusModified
			if s.Hash == snk.Hash && s.NumRows == snk.NumRows {
				status = StatusIdentical
			}
			out = append(out, AlignedBlock{Source: &s, Sink: &snk, Status: status})
			continue
		}
		b := s
		out = append(out, AlignedBlock{Source: &b, Status: StatusAdded})
	}

	for _, snk := range sink {
		k := keyOf(snk)
		if seen[k] {
			continue
		}
		b := snk
		out = append(out, AlignedBlock{Sink: &b, Status: StatusDeleted})
	}

	return out
}

// AlignedBlock is one classified pairing produced by align. Exactly one
// of Source/Sink is nil for Added/Deleted; both are set otherwise.
type AlignedBlock struct {
	Source *Block
	Sink   *Block
	Status Status
}

func keyOf(b Block) blockKey {
	return blockKey{start: toOrdinal(b.Start), end: toOrdinal(b.End), level: b.Level}
}

// Bounds returns the block's [start, end) from whichever side is present.
func (ab AlignedBlock) Bounds() (start, end any) {
	if ab.Source != nil {
		return ab.Source.Start, ab.Source.End
	}
	return ab.Sink.Start, ab.Sink.End
}

// Chosen returns the representative Block per §4.G: source for N and A,
// sink for D, and for M the side with the larger row count (ties favor
// source). The recursive driver's oversize check reads NumRows from here.
func (ab AlignedBlock) Chosen() *Block {
	switch ab.Status {
	case StatusAdded, StatusIdentical:
		return ab.Source
	case StatusDeleted:
		return ab.Sink
	case StatusModified:
		if ab.Source.NumRows >= ab.Sink.NumRows {
			return ab.Source
		}
		return ab.Sink
	default:
		return ab.Source
	}
}
