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
	"testing"

	"github.com/stretchr/testify/require"
)

func block(start, end int64, rows int64, hash string) Block {
	return Block{Start: start, End: end, Level: 1, NumRows: rows, Hash: hash}
}

func TestAlignIdentical(t *testing.T) {
	src := []Block{block(0, 10, 5, "h1")}
	snk := []Block{block(0, 10, 5, "h1")}
	out := align(src, snk)
	require.Len(t, out, 1)
	require.Equal(t, StatusIdentical, out[0].Status)
}

func TestAlignModifiedOnHashMismatch(t *testing.T) {
	src := []Block{block(0, 10, 5, "h1")}
	snk := []Block{block(0, 10, 5, "h2")}
	out := align(src, snk)
	require.Len(t, out, 1)
	require.Equal(t, StatusModified, out[0].Status)
}

func TestAlignModifiedOnRowCountMismatch(t *testing.T) {
	src := []Block{block(0, 10, 5, "h1")}
	snk := []Block{block(0, 10, 6, "h1")}
	out := align(src, snk)
	require.Len(t, out, 1)
	require.Equal(t, StatusModified, out[0].Status)
}

func TestAlignAddedAndDeleted(t *testing.T) {
	src := []Block{block(0, 10, 5, "h1"), block(10, 20, 3, "h2")}
	snk := []Block{block(20, 30, 4, "h3")}
	out := align(src, snk)
	require.Len(t, out, 3)

	byStatus := map[Status]int{}
	for _, ab := range out {
		byStatus[ab.Status]++
	}
	require.Equal(t, 2, byStatus[StatusAdded])
	require.Equal(t, 1, byStatus[StatusDeleted])
}

func TestChosenPicksLargerRowCountOnModified(t *testing.T) {
	ab := AlignedBlock{
		Source: &Block{Start: int64(0), End: int64(10), NumRows: 8, Hash: "a"},
		Sink:   &Block{Start: int64(0), End: int64(10), NumRows: 3, Hash: "b"},
		Status: StatusModified,
	}
	require.Equal(t, int64(8), ab.Chosen().NumRows)
}

func TestChosenTiesFavorSource(t *testing.T) {
	ab := AlignedBlock{
		Source: &Block{NumRows: 5, Hash: "a"},
		Sink:   &Block{NumRows: 5, Hash: "b"},
		Status: StatusModified,
	}
	require.Equal(t, "a", ab.Chosen().Hash)
}
