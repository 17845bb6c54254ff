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

// Package qmodel is the in-memory, dialect-neutral description of the
// queries the reconciliation planner needs: SELECT projections over one
// table, optional joins and filters, optional GROUP BY/ORDER BY/LIMIT.
// It has no knowledge of any SQL dialect; it is produced by the block-hash
// planner and range inferrer and consumed only by the dialect renderer.
package qmodel

// FieldKind discriminates a projected expression. Only Column is a plain
// passthrough; the others carry metadata that the dialect renderer
// expands into a dialect-specific expression before rendering.
type FieldKind int

const (
	KindColumn FieldKind = iota
	KindRowHash
	KindBlockHash
	KindBlockName
)

func (k FieldKind) String() string {
	switch k {
	case KindColumn:
		return "column"
	case KindRowHash:
		return "rowhash"
	case KindBlockHash:
		return "blockhash"
	case KindBlockName:
		return "blockname"
	default:
		return "unknown"
	}
}

// HashStrategy selects how per-row hashes are aggregated into a block hash.
type HashStrategy int

const (
	// StrategyMD5Sum aggregates as a commutative numeric sum.
	StrategyMD5Sum HashStrategy = iota
	// StrategyHashMD5 aggregates as an order-sensitive md5 over a
	// comma-joined, ORDER-BY-stabilized concatenation.
	StrategyHashMD5
)

// PartitionType names the Go/SQL type of the ordering key a block tree is
// built over. Only Int and Datetime are implemented; see rerrors.ErrConfig
// for the unimplemented String/UUID case (open question in spec §9).
type PartitionType int

const (
	PartitionInt PartitionType = iota
	PartitionDatetime
)

// RowHashMeta describes how to produce a per-row hash, used by the
// block-hash aggregation when no bare hash_column is available.
type RowHashMeta struct {
	Strategy   HashStrategy
	HashColumn string  // if non-empty, used verbatim instead of synthesizing
	Fields     []Field // columns folded into the synthesized hash when HashColumn is empty
}

// BlockHashMeta describes how per-row hashes are aggregated into a single
// block hash for one (start, end, level) group.
type BlockHashMeta struct {
	Strategy            HashStrategy
	HashColumn          string // verbatim per-row hash column, if present
	OrderColumn         string // mandatory for StrategyHashMD5, ignored for StrategyMD5Sum
	PartitionColumn     string
	PartitionColumnType PartitionType
	Fields              []Field // columns to fold into the synthesized per-row hash
}

// BlockNameMeta describes the deterministic, dialect-agnostic naming of a
// block: a '-'-joined sequence of positional digits computed from the
// partition value and the interval list, identical in value (not
// necessarily in SQL text) across dialects. See blockNameSegments in
// package dialect.
type BlockNameMeta struct {
	Level               int
	Intervals           []int64
	PartitionColumn     string
	PartitionColumnType PartitionType
}

// Field is one projected expression: a plain column/SQL expression, or one
// of the abstract kinds the dialect renderer expands.
type Field struct {
	Expr  string
	Alias string
	Kind  FieldKind

	RowHash   *RowHashMeta
	BlockHash *BlockHashMeta
	BlockName *BlockNameMeta
}

// ColumnField is a plain projected column or SQL expression.
func ColumnField(expr, alias string) Field {
	return Field{Expr: expr, Alias: alias, Kind: KindColumn}
}

// Table identifies a primary FROM target.
type Table struct {
	Schema string
	Name   string
	Alias  string
}

// JoinType enumerates the supported JOIN kinds.
type JoinType string

const (
	InnerJoin JoinType = "INNER"
	LeftJoin  JoinType = "LEFT"
	RightJoin JoinType = "RIGHT"
	FullJoin  JoinType = "FULL"
)

// Join is one JOIN clause. On is kept verbatim as a trusted expression —
// it never carries user-supplied values, only column references.
type Join struct {
	Schema string
	Name   string
	Alias  string
	Type   JoinType
	On     string
}

// FilterOp enumerates the comparison operators filters may use.
type FilterOp string

const (
	OpEq  FilterOp = "="
	OpNeq FilterOp = "!="
	OpLt  FilterOp = "<"
	OpLte FilterOp = "<="
	OpGt  FilterOp = ">"
	OpGte FilterOp = ">="
)

// Filter is a single WHERE condition. Value is always rendered as a
// positional parameter — never interpolated into SQL text.
type Filter struct {
	Column string
	Op     FilterOp
	Value  any
}

// SortDirection is the ORDER BY direction.
type SortDirection string

const (
	Asc  SortDirection = "ASC"
	Desc SortDirection = "DESC"
)

// OrderBy is a single ORDER BY term.
type OrderBy struct {
	Column    string
	Direction SortDirection
}

// Query is an ordered sequence of projections over one primary table, with
// optional joins, filters, grouping, ordering, and a limit. Dialect-neutral;
// consumed only by a dialect.Renderer.
type Query struct {
	Select  []Field
	Table   Table
	Joins   []Join
	Filters []Filter
	GroupBy []Field
	OrderBy []OrderBy
	Limit   int // 0 means unset
}
