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

// Package adapter implements the store-adapter capability consumed by the
// reconciliation core: connect/fetch/fetch_one/execute/upsert/close over
// the qmodel query model, per §4.C and §6 of the design.
package adapter

import (
	"context"

	"github.com/reconsql/reconsql/qmodel"
)

// Role names which side of a reconciliation pass an adapter instance
// plays. It influences which meta-columns the planner reads from the
// adapter's config.
type Role string

const (
	RoleSource      Role = "source"
	RoleSink        Role = "sink"
	RoleSourceState Role = "sourcestate"
	RoleSinkState   Role = "sinkstate"
)

// Row is one fetched record, keyed by column alias.
type Row map[string]any

// TableRef names a primary table: schema/name/alias.
type TableRef struct {
	Schema string
	Name   string
	Alias  string
}

// JoinRef is one adapter-level join applied to every planner-built query
// for this role, ported from the original's build_joins_from_config.
type JoinRef struct {
	Schema string
	Name   string
	Alias  string
	Type   qmodel.JoinType
	On     string
}

// FilterRef is one adapter-level filter applied to every planner-built
// query for this role (build_filters_from_config in the original).
type FilterRef struct {
	Column string
	Op     qmodel.FilterOp
	Value  any
}

// MetaColumns names the partition/hash/order/unique-key columns a planner
// reads for this role. HashColumn may be empty, in which case the renderer
// synthesizes a row hash from Fields. OrderColumn may be empty only under
// MD5_SUM; rendering a HASH_MD5 block hash without it fails.
type MetaColumns struct {
	PartitionColumn string
	HashColumn      string
	OrderColumn     string
	UniqueKeys      []string
	Fields          []qmodel.Field
}

// Config is the role-specific adapter configuration: primary table,
// optional joins/filters, projected fields, batch size, and meta-columns.
type Config struct {
	Table       TableRef
	Joins       []JoinRef
	Filters     []FilterRef
	BatchSize   int
	MetaColumns MetaColumns
}

// Adapter is the capability interface the reconciliation core consumes.
// The driver neither serializes calls nor holds one adapter per worker: it
// calls Fetch on the same Source and Sink adapters from several goroutines
// at once (source and sink fetches of a level, top-level partitions, and
// sibling recursions), so an adapter passed to it must tolerate concurrent
// Fetch calls.
type Adapter interface {
	// Connect acquires resources. Idempotent.
	Connect(ctx context.Context) error

	// Fetch renders, executes, and returns every row of query. opName is
	// a human-readable tag (e.g. "range_search", "block_hash_level_2")
	// carried through purely for observability.
	Fetch(ctx context.Context, query qmodel.Query, opName string) ([]Row, error)

	// FetchOne returns the first row of Fetch, or an error if empty.
	FetchOne(ctx context.Context, query qmodel.Query, opName string) (Row, error)

	// Execute runs a side-effecting statement.
	Execute(ctx context.Context, sql string, params []any) error

	// Upsert inserts or updates row in tableFQN by the adapter's
	// declared unique key. Conflict resolution is adapter-local.
	Upsert(ctx context.Context, tableFQN string, row Row) error

	// Close releases resources. Idempotent.
	Close() error

	// Config returns this adapter's role-specific configuration, read
	// by the block-hash planner and range inferrer.
	Config() Config

	// Role returns the role this adapter instance plays.
	Role() Role
}
