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

// MySQL renders qmodel.Query for a MySQL-family store, grounded on
// adapters/mysql.py's CONV(SUBSTR(MD5(...),1,8),16,10) row hash (signed
// via mysqlSigned32) and its FLOOR(x / y) / MOD block-name digits.
type MySQL struct{}

func (MySQL) Name() string { return "mysql" }

func (m MySQL) Render(q qmodel.Query) (string, []any, error) {
	return renderCommon(q, paramQuestion, m.expandField)
}

func (MySQL) expandField(f qmodel.Field) (string, error) {
	switch f.Kind {
	case qmodel.KindColumn:
		return f.Expr, nil
	case qmodel.KindRowHash:
		return mysqlRowHashExpr(f.RowHash)
	case qmodel.KindBlockHash:
		return mysqlBlockHashExpr(f.BlockHash)
	case qmodel.KindBlockName:
		return mysqlBlockNameExpr(f.BlockName)
	default:
		return "", fmt.Errorf("dialect/mysql: unknown field kind %v", f.Kind)
	}
}

func mysqlRowHashExpr(m *qmodel.RowHashMeta) (string, error) {
	if m == nil {
		return "", fmt.Errorf("dialect/mysql: rowhash field missing metadata")
	}
	if m.HashColumn != "" {
		return m.HashColumn, nil
	}
	concat := concatFields(m.Fields)
	switch m.Strategy {
	case qmodel.StrategyMD5Sum:
		return mysqlSigned32(concat), nil
	case qmodel.StrategyHashMD5:
		return fmt.Sprintf("MD5(CONCAT(%s))", concat), nil
	default:
		return "", fmt.Errorf("dialect/mysql: unknown hash strategy %v", m.Strategy)
	}
}

// mysqlSigned32 reinterprets the first 4 bytes of MD5(CONCAT(fieldsExpr))
// as a signed 32-bit integer: CONV(...,16,10) yields the unsigned 0..2^32-1
// magnitude of those bytes, and the CASE folds the top half back across
// zero the way a two's-complement bit cast would. This must produce the
// same value as Postgres's ('x'||...)::bit(32)::int and ClickHouse's
// reinterpretAsInt32, or MD5_SUM block hashes can never agree across a
// heterogeneous source/sink pair.
func mysqlSigned32(fieldsExpr string) string {
	unsigned := fmt.Sprintf("CONV(SUBSTR(MD5(CONCAT(%s)),1,8),16,10)", fieldsExpr)
	return fmt.Sprintf("(CASE WHEN %s >= 2147483648 THEN %s - 4294967296 ELSE %s END)", unsigned, unsigned, unsigned)
}

func mysqlBlockHashExpr(m *qmodel.BlockHashMeta) (string, error) {
	if m == nil {
		return "", fmt.Errorf("dialect/mysql: blockhash field missing metadata")
	}
	switch m.Strategy {
	case qmodel.StrategyMD5Sum:
		if m.HashColumn != "" {
			return fmt.Sprintf("SUM(CAST(%s AS SIGNED))", m.HashColumn), nil
		}
		concat := concatFields(m.Fields)
		return fmt.Sprintf("SUM(%s)", mysqlSigned32(concat)), nil
	case qmodel.StrategyHashMD5:
		if m.OrderColumn == "" {
			return "", fmt.Errorf("dialect/mysql: HASH_MD5 requires an order_column")
		}
		if m.HashColumn != "" {
			return fmt.Sprintf("MD5(GROUP_CONCAT(%s ORDER BY %s SEPARATOR ','))", m.HashColumn, m.OrderColumn), nil
		}
		concat := concatFields(m.Fields)
		return fmt.Sprintf("MD5(GROUP_CONCAT(MD5(CONCAT(%s)) ORDER BY %s SEPARATOR ','))", concat, m.OrderColumn), nil
	default:
		return "", fmt.Errorf("dialect/mysql: unknown hash strategy %v", m.Strategy)
	}
}

func mysqlBlockNameExpr(m *qmodel.BlockNameMeta) (string, error) {
	if m == nil {
		return "", fmt.Errorf("dialect/mysql: blockname field missing metadata")
	}
	segments, err := blockNameSegments(m,
		func(numer, denom string) string { return fmt.Sprintf("FLOOR(%s / %s)", numer, denom) },
		func(col string) string { return fmt.Sprintf("UNIX_TIMESTAMP(%s)", col) },
	)
	if err != nil {
		return "", err
	}
	return joinBlockNameSegments(segments, func(e string) string { return fmt.Sprintf("CAST(%s AS CHAR)", e) }), nil
}
