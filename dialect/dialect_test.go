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

package dialect_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/reconsql/reconsql/dialect"
	"github.com/reconsql/reconsql/qmodel"
)

func blockNameField(level int, intervals []int64, ptype qmodel.PartitionType) qmodel.Field {
	return qmodel.Field{
		Expr:  "blockname",
		Alias: "blockname",
		Kind:  qmodel.KindBlockName,
		BlockName: &qmodel.BlockNameMeta{
			Level:               level,
			Intervals:           intervals,
			PartitionColumn:     "id",
			PartitionColumnType: ptype,
		},
	}
}

// TestBlockNameAgreement verifies testable property 2: for the same
// partition type, level, and intervals, every dialect's rendered SQL
// expression computes the same numeric digits — only the surface syntax
// differs. We assert on the structural shape each renderer is known to
// produce rather than executing SQL.
func TestBlockNameAgreement(t *testing.T) {
	intervals := []int64{10000, 1000, 100}
	f := blockNameField(3, intervals, qmodel.PartitionInt)

	q := qmodel.Query{
		Select:  []qmodel.Field{f},
		Table:   qmodel.Table{Name: "events"},
		GroupBy: []qmodel.Field{f},
	}

	for _, name := range []string{"postgres", "mysql", "clickhouse"} {
		r, ok := dialect.ByName(name)
		require.True(t, ok, name)
		sql, params, err := r.Render(q)
		require.NoError(t, err)
		require.Empty(t, params)
		require.Contains(t, sql, "10000")
		require.Contains(t, sql, "1000")
		require.Contains(t, sql, "100")
		require.Contains(t, sql, "MOD(id, 10000)")
		require.Contains(t, sql, "MOD(id, 1000)")
	}
}

func TestBlockNameRejectsLevelOutOfRange(t *testing.T) {
	f := blockNameField(4, []int64{10000, 1000}, qmodel.PartitionInt)
	q := qmodel.Query{Select: []qmodel.Field{f}, Table: qmodel.Table{Name: "events"}}

	r, _ := dialect.ByName("postgres")
	_, _, err := r.Render(q)
	require.Error(t, err)
}

func TestFiltersAreParameterized(t *testing.T) {
	q := qmodel.Query{
		Select: []qmodel.Field{qmodel.ColumnField("id", "")},
		Table:  qmodel.Table{Name: "events"},
		Filters: []qmodel.Filter{
			{Column: "id", Op: qmodel.OpGte, Value: 10},
			{Column: "id", Op: qmodel.OpLt, Value: 20},
		},
	}

	pg, _ := dialect.ByName("postgres")
	sql, params, err := pg.Render(q)
	require.NoError(t, err)
	require.Equal(t, []any{10, 20}, params)
	require.Contains(t, sql, "id >= $1")
	require.Contains(t, sql, "id < $2")
	require.NotContains(t, sql, "10")

	my, _ := dialect.ByName("mysql")
	sql, params, err = my.Render(q)
	require.NoError(t, err)
	require.Equal(t, []any{10, 20}, params)
	require.Contains(t, sql, "id >= ?")
}

func TestHashMD5RequiresOrderColumn(t *testing.T) {
	f := qmodel.Field{
		Expr: "partition_col", Alias: "blockhash", Kind: qmodel.KindBlockHash,
		BlockHash: &qmodel.BlockHashMeta{
			Strategy:        qmodel.StrategyHashMD5,
			PartitionColumn: "id",
			Fields:          []qmodel.Field{qmodel.ColumnField("payload", "")},
		},
	}
	q := qmodel.Query{Select: []qmodel.Field{f}, Table: qmodel.Table{Name: "events"}}

	for _, name := range []string{"postgres", "mysql", "clickhouse"} {
		r, _ := dialect.ByName(name)
		_, _, err := r.Render(q)
		require.Error(t, err, name)
	}
}

func TestMD5SumUsesHashColumnVerbatim(t *testing.T) {
	f := qmodel.Field{
		Expr: "h", Alias: "blockhash", Kind: qmodel.KindBlockHash,
		BlockHash: &qmodel.BlockHashMeta{
			Strategy:        qmodel.StrategyMD5Sum,
			HashColumn:      "row_hash",
			PartitionColumn: "id",
		},
	}
	q := qmodel.Query{Select: []qmodel.Field{f}, Table: qmodel.Table{Name: "events"}}

	pg, _ := dialect.ByName("postgres")
	sql, _, err := pg.Render(q)
	require.NoError(t, err)
	require.Contains(t, sql, "sum(row_hash::bigint)")
}

// TestMD5SumBlockHashIsSignedAcrossDialects guards testable property 2 for
// MD5_SUM without a hash_column: every dialect must reinterpret the first
// 4 bytes of the digest as a *signed* 32-bit integer before summing, or
// block hashes can never agree between, say, a Postgres source and a
// MySQL or ClickHouse sink.
func TestMD5SumBlockHashIsSignedAcrossDialects(t *testing.T) {
	f := qmodel.Field{
		Expr: "h", Alias: "blockhash", Kind: qmodel.KindBlockHash,
		BlockHash: &qmodel.BlockHashMeta{
			Strategy:        qmodel.StrategyMD5Sum,
			PartitionColumn: "id",
			Fields:          []qmodel.Field{qmodel.ColumnField("payload", "")},
		},
	}
	q := qmodel.Query{Select: []qmodel.Field{f}, Table: qmodel.Table{Name: "events"}}

	pg, _ := dialect.ByName("postgres")
	sql, _, err := pg.Render(q)
	require.NoError(t, err)
	require.Contains(t, sql, "::bit(32)::int")

	my, _ := dialect.ByName("mysql")
	sql, _, err = my.Render(q)
	require.NoError(t, err)
	require.Contains(t, sql, "CASE WHEN")
	require.Contains(t, sql, ">= 2147483648")
	require.Contains(t, sql, "- 4294967296")
	require.NotContains(t, sql, "SUM(CONV(SUBSTR(MD5(CONCAT(payload)),1,8),16,10))")

	ch, _ := dialect.ByName("clickhouse")
	sql, _, err = ch.Render(q)
	require.NoError(t, err)
	require.Contains(t, sql, "reinterpretAsInt32")
	require.Contains(t, sql, "MD5(concat(payload))")
	require.NotContains(t, sql, "CityHash64")
	require.NotContains(t, sql, "reinterpretAsUInt32")
}
