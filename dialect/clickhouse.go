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

package dialect

import (
	"fmt"

	"github.com/reconsql/reconsql/qmodel"
)

// ClickHouse renders qmodel.Query for a ClickHouse-family store, grounded
// on adapters/clickhouse.py's MD5-based row hash and its intDiv(x, y)
// block-name digits.
type ClickHouse struct{}

func (ClickHouse) Name() string { return "clickhouse" }

func (c ClickHouse) Render(q qmodel.Query) (string, []any, error) {
	return renderCommon(q, paramQuestion, c.expandField)
}

func (ClickHouse) expandField(f qmodel.Field) (string, error) {
	switch f.Kind {
	case qmodel.KindColumn:
		return f.Expr, nil
	case qmodel.KindRowHash:
		return clickhouseRowHashExpr(f.RowHash)
	case qmodel.KindBlockHash:
		return clickhouseBlockHashExpr(f.BlockHash)
	case qmodel.KindBlockName:
		return clickhouseBlockNameExpr(f.BlockName)
	default:
		return "", fmt.Errorf("dialect/clickhouse: unknown field kind %v", f.Kind)
	}
}

func clickhouseRowHashExpr(m *qmodel.RowHashMeta) (string, error) {
	if m == nil {
		return "", fmt.Errorf("dialect/clickhouse: rowhash field missing metadata")
	}
	if m.HashColumn != "" {
		return m.HashColumn, nil
	}
	concat := concatFields(m.Fields)
	switch m.Strategy {
	case qmodel.StrategyMD5Sum:
		return clickhouseSigned32(concat), nil
	case qmodel.StrategyHashMD5:
		return fmt.Sprintf("hex(MD5(concat(%s)))", concat), nil
	default:
		return "", fmt.Errorf("dialect/clickhouse: unknown hash strategy %v", m.Strategy)
	}
}

// clickhouseSigned32 takes the first 4 raw bytes of MD5(concat(fieldsExpr))
// and reinterprets them as a signed 32-bit integer. MD5() returns the raw
// FixedString(16) digest (not hex), so substr gives the same 4 leading
// bytes Postgres reads via its hex substr and MySQL via CONV. reverse()
// flips them before reinterpretAsInt32 because that builtin reads its
// argument as a little-endian in-memory integer, while the other two
// dialects treat the leading byte as most significant; without the
// reverse, ClickHouse would agree with nobody.
func clickhouseSigned32(fieldsExpr string) string {
	return fmt.Sprintf("reinterpretAsInt32(reverse(substr(MD5(concat(%s)),1,4)))", fieldsExpr)
}

func clickhouseBlockHashExpr(m *qmodel.BlockHashMeta) (string, error) {
	if m == nil {
		return "", fmt.Errorf("dialect/clickhouse: blockhash field missing metadata")
	}
	switch m.Strategy {
	case qmodel.StrategyMD5Sum:
		if m.HashColumn != "" {
			return fmt.Sprintf("sum(toInt64(%s))", m.HashColumn), nil
		}
		concat := concatFields(m.Fields)
		return fmt.Sprintf("sum(toInt64(%s))", clickhouseSigned32(concat)), nil
	case qmodel.StrategyHashMD5:
		if m.OrderColumn == "" {
			return "", fmt.Errorf("dialect/clickhouse: HASH_MD5 requires an order_column")
		}
		if m.HashColumn != "" {
			return fmt.Sprintf("hex(MD5(arrayStringConcat(groupArray(%s) ORDER BY %s, ',')))", m.HashColumn, m.OrderColumn), nil
		}
		concat := concatFields(m.Fields)
		return fmt.Sprintf("hex(MD5(arrayStringConcat(groupArray(hex(MD5(concat(%s)))) ORDER BY %s, ',')))", concat, m.OrderColumn), nil
	default:
		return "", fmt.Errorf("dialect/clickhouse: unknown hash strategy %v", m.Strategy)
	}
}

func clickhouseBlockNameExpr(m *qmodel.BlockNameMeta) (string, error) {
	if m == nil {
		return "", fmt.Errorf("dialect/clickhouse: blockname field missing metadata")
	}
	segments, err := blockNameSegments(m,
		func(numer, denom string) string { return fmt.Sprintf("intDiv(%s, %s)", numer, denom) },
		func(col string) string { return fmt.Sprintf("toUnixTimestamp(%s)", col) },
	)
	if err != nil {
		return "", err
	}
	return joinBlockNameSegments(segments, func(e string) string { return fmt.Sprintf("toString(%s)", e) }), nil
}
