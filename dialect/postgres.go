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

// Postgres renders qmodel.Query for a Postgres-family store, grounded on
// adapters/postgres.py's _build_group_name_expr / _build_blockhash_expr.
type Postgres struct{}

func (Postgres) Name() string { return "postgres" }

func (p Postgres) Render(q qmodel.Query) (string, []any, error) {
	return renderCommon(q, paramDollar, p.expandField)
}

func (Postgres) expandField(f qmodel.Field) (string, error) {
	switch f.Kind {
	case qmodel.KindColumn:
		return f.Expr, nil
	case qmodel.KindRowHash:
		return postgresRowHashExpr(f.RowHash)
	case qmodel.KindBlockHash:
		return postgresBlockHashExpr(f.BlockHash)
	case qmodel.KindBlockName:
		return postgresBlockNameExpr(f.BlockName)
	default:
		return "", fmt.Errorf("dialect/postgres: unknown field kind %v", f.Kind)
	}
}

func postgresRowHashExpr(m *qmodel.RowHashMeta) (string, error) {
	if m == nil {
		return "", fmt.Errorf("dialect/postgres: rowhash field missing metadata")
	}
	if m.HashColumn != "" {
		return m.HashColumn, nil
	}
	concat := concatFields(m.Fields)
	switch m.Strategy {
	case qmodel.StrategyMD5Sum:
		return fmt.Sprintf("(('x'||substr(md5(CONCAT(%s)),1,8))::bit(32)::int)", concat), nil
	case qmodel.StrategyHashMD5:
		return fmt.Sprintf("md5(CONCAT(%s))", concat), nil
	default:
		return "", fmt.Errorf("dialect/postgres: unknown hash strategy %v", m.Strategy)
	}
}

func postgresBlockHashExpr(m *qmodel.BlockHashMeta) (string, error) {
	if m == nil {
		return "", fmt.Errorf("dialect/postgres: blockhash field missing metadata")
	}
	switch m.Strategy {
	case qmodel.StrategyMD5Sum:
		if m.HashColumn != "" {
			return fmt.Sprintf("sum(%s::bigint)", m.HashColumn), nil
		}
		concat := concatFields(m.Fields)
		return fmt.Sprintf("sum((('x'||substr(md5(CONCAT(%s)),1,8))::bit(32)::int)::numeric)", concat), nil
	case qmodel.StrategyHashMD5:
		if m.OrderColumn == "" {
			return "", fmt.Errorf("dialect/postgres: HASH_MD5 requires an order_column")
		}
		if m.HashColumn != "" {
			return fmt.Sprintf("md5(string_agg(%s, ',' ORDER BY %s))", m.HashColumn, m.OrderColumn), nil
		}
		concat := concatFields(m.Fields)
		return fmt.Sprintf("md5(string_agg(md5(CONCAT(%s)), ',' ORDER BY %s))", concat, m.OrderColumn), nil
	default:
		return "", fmt.Errorf("dialect/postgres: unknown hash strategy %v", m.Strategy)
	}
}

func postgresBlockNameExpr(m *qmodel.BlockNameMeta) (string, error) {
	if m == nil {
		return "", fmt.Errorf("dialect/postgres: blockname field missing metadata")
	}
	segments, err := blockNameSegments(m,
		func(numer, denom string) string { return fmt.Sprintf("FLOOR(%s / %s)", numer, denom) },
		func(col string) string { return fmt.Sprintf("EXTRACT(EPOCH FROM %s)", col) },
	)
	if err != nil {
		return "", err
	}
	return joinBlockNameSegments(segments, func(e string) string { return e + "::text" }), nil
}
