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

package adapter_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/reconsql/reconsql/adapter"
	"github.com/reconsql/reconsql/qmodel"
)

func memCfg() adapter.Config {
	return adapter.Config{
		Table:       adapter.TableRef{Name: "events"},
		MetaColumns: adapter.MetaColumns{PartitionColumn: "id", Fields: []qmodel.Field{qmodel.ColumnField("payload", "")}},
	}
}

func blockNameField(level int, intervals []int64) qmodel.Field {
	return qmodel.Field{
		Expr: "blockname", Alias: "blockname", Kind: qmodel.KindBlockName,
		BlockName: &qmodel.BlockNameMeta{Level: level, Intervals: intervals, PartitionColumn: "id", PartitionColumnType: qmodel.PartitionInt},
	}
}

func blockHashField(strategy qmodel.HashStrategy) qmodel.Field {
	return qmodel.Field{
		Expr: "id", Alias: "blockhash", Kind: qmodel.KindBlockHash,
		BlockHash: &qmodel.BlockHashMeta{
			Strategy: strategy, PartitionColumn: "id", PartitionColumnType: qmodel.PartitionInt,
			Fields: []qmodel.Field{qmodel.ColumnField("payload", "")},
		},
	}
}

func TestMemoryRangeQuery(t *testing.T) {
	rows := []adapter.MemoryRow{
		{"id": int64(5), "payload": "a"},
		{"id": int64(1), "payload": "b"},
		{"id": int64(9), "payload": "c"},
	}
	m := adapter.NewMemory(memCfg(), adapter.RoleSource, rows)

	q := qmodel.Query{Select: []qmodel.Field{qmodel.ColumnField("min(id)", "start"), qmodel.ColumnField("max(id)", "end")}}
	out, err := m.Fetch(context.Background(), q, "range_search")
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, int64(1), out[0]["start"])
	require.Equal(t, int64(9), out[0]["end"])
}

func TestMemoryBlockHashGroupsByBlockName(t *testing.T) {
	var rows []adapter.MemoryRow
	for i := int64(0); i < 20; i++ {
		rows = append(rows, adapter.MemoryRow{"id": i, "payload": "v"})
	}
	m := adapter.NewMemory(memCfg(), adapter.RoleSource, rows)

	q := qmodel.Query{
		Select:  []qmodel.Field{qmodel.ColumnField("COUNT(1)", "row_count"), blockHashField(qmodel.StrategyMD5Sum), blockNameField(1, []int64{10})},
		GroupBy: []qmodel.Field{blockNameField(1, []int64{10})},
	}
	out, err := m.Fetch(context.Background(), q, "block_hash_level_1")
	require.NoError(t, err)
	require.Len(t, out, 2)
	for _, row := range out {
		require.Equal(t, 10, row["row_count"])
	}
}

func TestMemoryFetchOneErrorsOnEmpty(t *testing.T) {
	m := adapter.NewMemory(memCfg(), adapter.RoleSource, nil)
	q := qmodel.Query{
		Select:  []qmodel.Field{qmodel.ColumnField("COUNT(1)", "row_count"), blockHashField(qmodel.StrategyMD5Sum), blockNameField(1, []int64{10})},
		GroupBy: []qmodel.Field{blockNameField(1, []int64{10})},
	}
	_, err := m.FetchOne(context.Background(), q, "op")
	require.Error(t, err)
}

func TestMemoryRespectsFilters(t *testing.T) {
	rows := []adapter.MemoryRow{
		{"id": int64(1), "region": "us"},
		{"id": int64(2), "region": "eu"},
	}
	m := adapter.NewMemory(memCfg(), adapter.RoleSource, rows)
	q := qmodel.Query{
		Select:  []qmodel.Field{qmodel.ColumnField("min(id)", "start"), qmodel.ColumnField("max(id)", "end")},
		Filters: []qmodel.Filter{{Column: "region", Op: qmodel.OpEq, Value: "eu"}},
	}
	out, err := m.Fetch(context.Background(), q, "range_search")
	require.NoError(t, err)
	require.Equal(t, int64(2), out[0]["start"])
	require.Equal(t, int64(2), out[0]["end"])
}

func TestMemoryUpsertAppendsRow(t *testing.T) {
	m := adapter.NewMemory(memCfg(), adapter.RoleSink, nil)
	require.NoError(t, m.Upsert(context.Background(), "events", adapter.Row{"id": int64(1)}))
	require.Len(t, m.Rows, 1)
}
