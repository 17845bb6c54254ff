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
	"context"
	"fmt"
	"time"

	"github.com/reconsql/reconsql/adapter"
	"github.com/reconsql/reconsql/config"
	"github.com/reconsql/reconsql/qmodel"
)

// ResolveRange implements the data-range inference of §4.D: if the user
// pins both bounds, they are returned unchanged; otherwise min/max probes
// against both state adapters are issued and unioned, with the probed end
// extended by one partition unit so [start, end) includes the largest
// observed value. Returns (nil, nil) if both sides are empty.
func ResolveRange(ctx context.Context, sourceState, sinkState adapter.Adapter, rc config.Reconciliation, now time.Time) (any, any, error) {
	userStart, err := rc.Start.Resolve(now)
	if err != nil {
		return nil, nil, err
	}
	userEnd, err := rc.End.Resolve(now)
	if err != nil {
		return nil, nil, err
	}

	if userStart != nil && userEnd != nil {
		return userStart, userEnd, nil
	}

	srcRange, err := probeRange(ctx, sourceState, rc.SourceStatePField.PartitionColumn)
	if err != nil {
		return nil, nil, err
	}
	snkRange, err := probeRange(ctx, sinkState, rc.SinkStatePField.PartitionColumn)
	if err != nil {
		return nil, nil, err
	}

	start := unionMin(srcRange.start, snkRange.start)
	end := unionMax(srcRange.end, snkRange.end)

	if end != nil {
		end = addUnit(end)
	}

	if userStart != nil {
		start = userStart
	}
	if userEnd != nil {
		end = userEnd
	}

	if start == nil || end == nil {
		return nil, nil, nil
	}
	return start, end, nil
}

type probedRange struct{ start, end any }

func probeRange(ctx context.Context, a adapter.Adapter, partitionColumn string) (probedRange, error) {
	cfg := a.Config()
	q := qmodel.Query{
		Select: []qmodel.Field{
			qmodel.ColumnField(fmt.Sprintf("min(%s)", partitionColumn), "start"),
			qmodel.ColumnField(fmt.Sprintf("max(%s)", partitionColumn), "end"),
		},
		Table:   adapterTable(cfg.Table),
		Joins:   adapterJoins(cfg.Joins),
		Filters: adapterFilters(cfg.Filters),
	}
	// A min/max aggregate always returns exactly one row — NULL/nil
	// start and end for an empty table — so any error here is a real
	// adapter failure and, per §7, fatal for the whole pass.
	row, err := a.FetchOne(ctx, q, "range_search")
	if err != nil {
		return probedRange{}, err
	}
	return probedRange{start: row["start"], end: row["end"]}, nil
}

func unionMin(a, b any) any {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return minOrdinalValue(a, b)
}

func unionMax(a, b any) any {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return maxOrdinalValue(a, b)
}
