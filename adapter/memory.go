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

package adapter

import (
	"context"
	"crypto/md5"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/reconsql/reconsql/qmodel"
	"github.com/reconsql/reconsql/rerrors"
)

// MemoryRow is one record held by a Memory adapter. Values must include
// the configured partition column, any hash-input columns, and the order
// column when the reconciliation strategy is HASH_MD5.
type MemoryRow map[string]any

// Memory is an in-process Adapter double used by this module's own tests
// (and usable as a reference implementation for small/embedded stores).
// It interprets the same abstract Query shapes a dialect.Renderer would
// lower to SQL, but evaluates them directly over an in-memory slice
// instead of issuing SQL — the role the teacher's memory/mem packages
// play for enginetest.
type Memory struct {
	cfg  Config
	role Role
	Rows []MemoryRow
}

// NewMemory constructs an in-memory adapter seeded with rows.
func NewMemory(cfg Config, role Role, rows []MemoryRow) *Memory {
	return &Memory{cfg: cfg, role: role, Rows: rows}
}

func (m *Memory) Connect(ctx context.Context) error { return nil }
func (m *Memory) Close() error                      { return nil }
func (m *Memory) Config() Config                    { return m.cfg }
func (m *Memory) Role() Role                        { return m.role }

func (m *Memory) Execute(ctx context.Context, sqlText string, params []any) error { return nil }

func (m *Memory) Upsert(ctx context.Context, tableFQN string, row Row) error {
	m.Rows = append(m.Rows, MemoryRow(row))
	return nil
}

func (m *Memory) FetchOne(ctx context.Context, query qmodel.Query, opName string) (Row, error) {
	rows, err := m.Fetch(ctx, query, opName)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, rerrors.ErrAdapter.New(opName, "no rows returned")
	}
	return rows[0], nil
}

func (m *Memory) Fetch(ctx context.Context, query qmodel.Query, opName string) ([]Row, error) {
	if ctx.Err() != nil {
		return nil, rerrors.ErrCancelled.New(opName)
	}

	filtered := make([]MemoryRow, 0, len(m.Rows))
	for _, r := range m.Rows {
		if matchesFilters(r, query.Filters) {
			filtered = append(filtered, r)
		}
	}

	if isRangeQuery(query) {
		return []Row{m.rangeRow(filtered)}, nil
	}
	if bn := blockNameField(query); bn != nil {
		return m.blockHashGroups(filtered, query, bn)
	}
	return nil, rerrors.ErrAdapter.New(opName, "unsupported query shape for memory adapter")
}

func matchesFilters(r MemoryRow, filters []qmodel.Filter) bool {
	for _, f := range filters {
		v, ok := r[f.Column]
		if !ok {
			return false
		}
		if !compare(v, f.Op, f.Value) {
			return false
		}
	}
	return true
}

func compare(v any, op qmodel.FilterOp, target any) bool {
	vf, vOk := asFloat(v)
	tf, tOk := asFloat(target)
	if vOk && tOk {
		switch op {
		case qmodel.OpEq:
			return vf == tf
		case qmodel.OpNeq:
			return vf != tf
		case qmodel.OpLt:
			return vf < tf
		case qmodel.OpLte:
			return vf <= tf
		case qmodel.OpGt:
			return vf > tf
		case qmodel.OpGte:
			return vf >= tf
		}
	}
	switch op {
	case qmodel.OpEq:
		return v == target
	case qmodel.OpNeq:
		return v != target
	}
	return false
}

func asFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case float64:
		return t, true
	case time.Time:
		return float64(t.Unix()), true
	default:
		return 0, false
	}
}

func isRangeQuery(q qmodel.Query) bool {
	hasStart, hasEnd := false, false
	for _, f := range q.Select {
		if f.Alias == "start" {
			hasStart = true
		}
		if f.Alias == "end" {
			hasEnd = true
		}
	}
	return hasStart && hasEnd
}

func (m *Memory) rangeRow(rows []MemoryRow) Row {
	if len(rows) == 0 {
		return Row{"start": nil, "end": nil}
	}
	col := m.cfg.MetaColumns.PartitionColumn
	var min, max float64
	var minV, maxV any
	for i, r := range rows {
		f, _ := asFloat(r[col])
		if i == 0 || f < min {
			min = f
			minV = r[col]
		}
		if i == 0 || f > max {
			max = f
			maxV = r[col]
		}
	}
	return Row{"start": minV, "end": maxV}
}

func blockNameField(q qmodel.Query) *qmodel.BlockNameMeta {
	for _, f := range q.Select {
		if f.Kind == qmodel.KindBlockName {
			return f.BlockName
		}
	}
	return nil
}

func blockHashField(q qmodel.Query) *qmodel.BlockHashMeta {
	for _, f := range q.Select {
		if f.Kind == qmodel.KindBlockHash {
			return f.BlockHash
		}
	}
	return nil
}

// blockDigits computes the §4.B positional digit sequence for partition
// value p, the same value a dialect renderer's SQL expression computes.
func blockDigits(p int64, level int, intervals []int64) []int64 {
	digits := make([]int64, level)
	for i := 0; i < level; i++ {
		if i == 0 {
			digits[i] = p / intervals[0]
		} else {
			digits[i] = (p % intervals[i-1]) / intervals[i]
		}
	}
	return digits
}

func partitionValue(v any, ptype qmodel.PartitionType) int64 {
	switch ptype {
	case qmodel.PartitionDatetime:
		t, _ := v.(time.Time)
		return t.Unix()
	default:
		f, _ := asFloat(v)
		return int64(f)
	}
}

func rowHashInt32(r MemoryRow, fields []qmodel.Field) int32 {
	var sb strings.Builder
	for _, f := range fields {
		fmt.Fprintf(&sb, "%v", r[f.Expr])
	}
	sum := md5.Sum([]byte(sb.String()))
	return int32(binary.BigEndian.Uint32(sum[:4]))
}

func rowHashHex(r MemoryRow, fields []qmodel.Field) string {
	var sb strings.Builder
	for _, f := range fields {
		fmt.Fprintf(&sb, "%v", r[f.Expr])
	}
	sum := md5.Sum([]byte(sb.String()))
	return hex.EncodeToString(sum[:])
}

func sortedByOrderColumn(rows []MemoryRow, col string) []MemoryRow {
	out := make([]MemoryRow, len(rows))
	copy(out, rows)
	sort.SliceStable(out, func(i, j int) bool {
		a, _ := asFloat(out[i][col])
		b, _ := asFloat(out[j][col])
		return a < b
	})
	return out
}

type blockAcc struct {
	name     string
	rowCount int
	sum      int64
	hexParts []string
}

func (m *Memory) blockHashGroups(rows []MemoryRow, q qmodel.Query, bn *qmodel.BlockNameMeta) ([]Row, error) {
	bh := blockHashField(q)
	if bh == nil {
		return nil, rerrors.ErrAdapter.New("block_hash", "block-hash query missing blockhash field")
	}

	if bh.Strategy == qmodel.StrategyHashMD5 {
		rows = sortedByOrderColumn(rows, bh.OrderColumn)
	}

	groups := map[string]*blockAcc{}
	var order []string
	for _, r := range rows {
		p := partitionValue(r[bn.PartitionColumn], bn.PartitionColumnType)
		digits := blockDigits(p, bn.Level, bn.Intervals)
		parts := make([]string, len(digits))
		for i, d := range digits {
			parts[i] = fmt.Sprintf("%d", d)
		}
		name := strings.Join(parts, "-")

		acc, ok := groups[name]
		if !ok {
			acc = &blockAcc{name: name}
			groups[name] = acc
			order = append(order, name)
		}
		acc.rowCount++

		switch bh.Strategy {
		case qmodel.StrategyMD5Sum:
			if bh.HashColumn != "" {
				f, _ := asFloat(r[bh.HashColumn])
				acc.sum += int64(f)
			} else {
				acc.sum += int64(rowHashInt32(r, bh.Fields))
			}
		case qmodel.StrategyHashMD5:
			var rh string
			if bh.HashColumn != "" {
				rh = fmt.Sprintf("%v", r[bh.HashColumn])
			} else {
				rh = rowHashHex(r, bh.Fields)
			}
			acc.hexParts = append(acc.hexParts, rh)
		}
	}

	sort.Strings(order)
	out := make([]Row, 0, len(order))
	for _, name := range order {
		acc := groups[name]
		var hash string
		switch bh.Strategy {
		case qmodel.StrategyMD5Sum:
			hash = fmt.Sprintf("%d", acc.sum)
		case qmodel.StrategyHashMD5:
			sum := md5.Sum([]byte(strings.Join(acc.hexParts, ",")))
			hash = hex.EncodeToString(sum[:])
		}
		out = append(out, Row{"blockname": acc.name, "blockhash": hash, "row_count": acc.rowCount})
	}
	return out, nil
}
