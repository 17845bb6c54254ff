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
	"fmt"
	"time"

	"github.com/reconsql/reconsql/adapter"
	"github.com/reconsql/reconsql/config"
	"github.com/reconsql/reconsql/qmodel"
)

func adapterTable(t adapter.TableRef) qmodel.Table {
	return qmodel.Table{Schema: t.Schema, Name: t.Name, Alias: t.Alias}
}

func adapterJoins(joins []adapter.JoinRef) []qmodel.Join {
	out := make([]qmodel.Join, 0, len(joins))
	for _, j := range joins {
		out = append(out, qmodel.Join{Schema: j.Schema, Name: j.Name, Alias: j.Alias, Type: j.Type, On: j.On})
	}
	return out
}

func adapterFilters(filters []adapter.FilterRef) []qmodel.Filter {
	out := make([]qmodel.Filter, 0, len(filters))
	for _, f := range filters {
		out = append(out, qmodel.Filter{Column: f.Column, Op: f.Op, Value: f.Value})
	}
	return out
}

// planBlockHashQuery builds the single aggregate query of §4.F: for a
// given range and level, it returns one row per block containing block
// name, block hash, and row count — never raw rows. It reads meta-columns
// from the target adapter's own configuration; SourceStatePField /
// SinkStatePField are a *state*-adapter override consumed only by the
// range inferrer (§4.D), not here.
func planBlockHashQuery(start, end any, level int, intervals []int64, a adapter.Adapter, rc config.Reconciliation) (qmodel.Query, error) {
	cfg := a.Config()
	mc := cfg.MetaColumns

	blockHashField := qmodel.Field{
		Expr:  mc.PartitionColumn,
		Alias: "blockhash",
		Kind:  qmodel.KindBlockHash,
		BlockHash: &qmodel.BlockHashMeta{
			Strategy:            rc.Strategy,
			HashColumn:          mc.HashColumn,
			OrderColumn:         mc.OrderColumn,
			PartitionColumn:     mc.PartitionColumn,
			PartitionColumnType: rc.PartitionColumnType,
			Fields:              mc.Fields,
		},
	}

	blockNameField := qmodel.Field{
		Expr:  "blockname",
		Alias: "blockname",
		Kind:  qmodel.KindBlockName,
		BlockName: &qmodel.BlockNameMeta{
			Level:               level,
			Intervals:           intervals,
			PartitionColumn:     mc.PartitionColumn,
			PartitionColumnType: rc.PartitionColumnType,
		},
	}

	groupField := qmodel.Field{Expr: "blockname", Kind: qmodel.KindBlockName, BlockName: blockNameField.BlockName}

	filters := []qmodel.Filter{
		{Column: mc.PartitionColumn, Op: qmodel.OpGte, Value: formatBound(start, rc.PartitionColumnType)},
		{Column: mc.PartitionColumn, Op: qmodel.OpLt, Value: formatBound(end, rc.PartitionColumnType)},
	}
	filters = append(filters, adapterFilters(cfg.Filters)...)

	return qmodel.Query{
		Select: []qmodel.Field{
			qmodel.ColumnField("COUNT(1)", "row_count"),
			blockHashField,
			blockNameField,
		},
		Table:   adapterTable(cfg.Table),
		Joins:   adapterJoins(cfg.Joins),
		Filters: filters,
		GroupBy: []qmodel.Field{groupField},
	}, nil
}

// formatBound renders a bound the way the original formats filter
// values: datetimes as "YYYY-MM-DD HH:MM:SS", ints passed through.
func formatBound(v any, ptype qmodel.PartitionType) any {
	if ptype == qmodel.PartitionDatetime {
		if t, ok := v.(time.Time); ok {
			return t.Format("2006-01-02 15:04:05")
		}
	}
	return v
}

// toBlocks materializes raw block rows into Block values, clamping each
// block's [start, end) to the enclosing [s, e) range, per §4.H step 2.
func toBlocks(rows []adapter.Row, s, e any, level int, intervals []int64) ([]Block, error) {
	blocks := make([]Block, 0, len(rows))
	for _, row := range rows {
		name, _ := row["blockname"].(string)
		hash := fmt.Sprintf("%v", row["blockhash"])
		rowCount, err := toInt64(row["row_count"])
		if err != nil {
			return nil, err
		}

		digits, err := parseBlockName(name)
		if err != nil {
			return nil, err
		}
		var blockStartOrd int64
		for i, d := range digits {
			if i >= len(intervals) {
				break
			}
			blockStartOrd += d * intervals[i]
		}
		blockEndOrd := blockStartOrd + intervals[level-1]

		blockStart := ordinalAsValueLike(blockStartOrd, s)
		blockEnd := ordinalAsValueLike(blockEndOrd, e)

		blockStart = maxOrdinalValue(blockStart, s)
		blockEnd = minOrdinalValue(blockEnd, e)

		blocks = append(blocks, Block{Start: blockStart, End: blockEnd, Level: level, NumRows: rowCount, Hash: hash})
	}
	return blocks, nil
}

func parseBlockName(name string) ([]int64, error) {
	if name == "" {
		return nil, fmt.Errorf("reconcile: empty blockname")
	}
	var digits []int64
	cur := int64(0)
	started := false
	flush := func() error {
		if !started {
			return fmt.Errorf("reconcile: malformed blockname %q", name)
		}
		digits = append(digits, cur)
		cur = 0
		started = false
		return nil
	}
	for _, r := range name {
		if r == '-' {
			if err := flush(); err != nil {
				return nil, err
			}
			continue
		}
		if r < '0' || r > '9' {
			return nil, fmt.Errorf("reconcile: malformed blockname %q", name)
		}
		cur = cur*10 + int64(r-'0')
		started = true
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return digits, nil
}

func toInt64(v any) (int64, error) {
	switch t := v.(type) {
	case int64:
		return t, nil
	case int:
		return int64(t), nil
	case float64:
		return int64(t), nil
	case string:
		var n int64
		if _, err := fmt.Sscanf(t, "%d", &n); err != nil {
			return 0, fmt.Errorf("reconcile: cannot parse row_count %q: %w", t, err)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("reconcile: unsupported row_count type %T", v)
	}
}
