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
	"strings"

	"github.com/reconsql/reconsql/qmodel"
)

// blockNameSegments renders the level-sized positional digit expression of
// §4.B, dialect-parameterized only by how a single "floor division" and a
// single "epoch seconds" expression are spelled. The numeric value of each
// digit is identical across every dialect for the same partition value.
func blockNameSegments(m *qmodel.BlockNameMeta, floorDiv func(numer, denom string) string, epoch func(col string) string) ([]string, error) {
	if m.Level <= 0 || m.Level > len(m.Intervals) {
		return nil, fmt.Errorf("blockname: level %d out of range for %d intervals", m.Level, len(m.Intervals))
	}

	var p string
	switch m.PartitionColumnType {
	case qmodel.PartitionDatetime:
		p = epoch(m.PartitionColumn)
	case qmodel.PartitionInt:
		p = m.PartitionColumn
	default:
		return nil, fmt.Errorf("blockname: unsupported partition column type %v", m.PartitionColumnType)
	}

	segments := make([]string, 0, m.Level)
	for idx := 0; idx < m.Level; idx++ {
		interval := m.Intervals[idx]
		if idx == 0 {
			segments = append(segments, floorDiv(p, fmt.Sprintf("%d", interval)))
			continue
		}
		prev := m.Intervals[idx-1]
		modExpr := fmt.Sprintf("MOD(%s, %d)", p, prev)
		segments = append(segments, floorDiv(modExpr, fmt.Sprintf("%d", interval)))
	}
	return segments, nil
}

// joinBlockNameSegments concatenates digit segments with '-', casting each
// to text via the dialect-supplied caster.
func joinBlockNameSegments(segments []string, castToText func(string) string) string {
	cast := make([]string, len(segments))
	for i, s := range segments {
		cast[i] = castToText(s)
	}
	return strings.Join(cast, " || '-' || ")
}

// concatFields joins a list of column/expression fields for use inside a
// per-row hash, comma-separated exactly as the original CONCAT(...) call.
func concatFields(fields []qmodel.Field) string {
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = f.Expr
	}
	return strings.Join(parts, ",")
}
