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

// Package config decodes the typed configuration consumed by the
// reconciliation driver: store connection parameters, role-specific
// adapter configuration, and reconciliation strategy/intervals, per §6.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/reconsql/reconsql/adapter"
	"github.com/reconsql/reconsql/qmodel"
	"github.com/reconsql/reconsql/rerrors"
)

// Bound is the literal-or-producer sum type of §9's design notes: a
// start/end bound is either a literal value, or one of a closed set of
// structured dynamic forms ("now", "now-<duration>"), resolved once at
// the start of a pass. No embedded scripting language is accepted.
type Bound struct {
	// Literal holds a resolved value (int64 for int partitions, or a
	// time.Time for datetime partitions) when Dynamic is empty.
	Literal any
	// Dynamic is "now" or "now-<duration>" (Go duration syntax, e.g.
	// "now-720h"), resolved against the wall clock passed to Resolve.
	Dynamic string
}

// IsZero reports whether the bound carries neither a literal nor a
// dynamic form — i.e. the user did not pin this side of the range.
func (b Bound) IsZero() bool {
	return b.Literal == nil && b.Dynamic == ""
}

// Resolve evaluates a Bound to a concrete value, invoking the dynamic
// producer (relative to now) at most once per pass.
func (b Bound) Resolve(now time.Time) (any, error) {
	if b.Dynamic == "" {
		return b.Literal, nil
	}
	if b.Dynamic == "now" {
		return now, nil
	}
	if rest, ok := strings.CutPrefix(b.Dynamic, "now-"); ok {
		d, err := time.ParseDuration(rest)
		if err != nil {
			return nil, rerrors.ErrConfig.New(fmt.Sprintf("invalid relative bound %q: %s", b.Dynamic, err))
		}
		return now.Add(-d), nil
	}
	return nil, rerrors.ErrConfig.New(fmt.Sprintf("unrecognized dynamic bound %q", b.Dynamic))
}

// ParseBound accepts an RFC3339 timestamp, a bare integer, "now", or
// "now-<duration>" and returns the corresponding Bound.
func ParseBound(raw string) (Bound, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Bound{}, nil
	}
	if raw == "now" || strings.HasPrefix(raw, "now-") {
		return Bound{Dynamic: raw}, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return Bound{Literal: t}, nil
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return Bound{Literal: n}, nil
	}
	return Bound{}, rerrors.ErrConfig.New(fmt.Sprintf("unparseable bound %q: want RFC3339 timestamp, integer, \"now\", or \"now-<duration>\"", raw))
}

// RolePField is the per-role state meta-column override
// (source_state_pfield / sink_state_pfield in the original). The range
// inferrer reads its PartitionColumn for the min/max probe, and Validate
// requires its OrderColumn under HASH_MD5. The block-hash planner does not
// read it; it takes its columns from the target adapter's MetaColumns.
type RolePField struct {
	PartitionColumn string
	HashColumn      string
	OrderColumn     string
}

// Reconciliation is the reconciliation-wide configuration of §6:
// strategy, partition type, interval ladder inputs, optional user-pinned
// bounds, and per-role meta-column overrides.
type Reconciliation struct {
	Strategy                qmodel.HashStrategy
	PartitionColumnType      qmodel.PartitionType
	InitialPartitionInterval int64
	MaxBlockSize             int64
	IntervalReductionFactor  int64
	Start                    Bound
	End                      Bound
	SourceStatePField        RolePField
	SinkStatePField          RolePField
}

// Validate checks the ConfigError-raising invariants of §7: unknown
// partition_column_type is rejected earlier, by parsePartitionType while
// the YAML is parsed, so this validates interval monotonicity
// preconditions and required meta-columns.
func (r Reconciliation) Validate() error {
	if r.InitialPartitionInterval <= 0 {
		return rerrors.ErrConfig.New("initial_partition_interval must be positive")
	}
	if r.MaxBlockSize <= 0 {
		return rerrors.ErrConfig.New("max_block_size must be positive")
	}
	if r.IntervalReductionFactor <= 1 {
		return rerrors.ErrConfig.New("interval_reduction_factor must be > 1")
	}
	if r.InitialPartitionInterval < r.MaxBlockSize {
		return rerrors.ErrRange.New("initial_partition_interval must be >= max_block_size (the interval list would be empty)")
	}
	if r.SourceStatePField.PartitionColumn == "" || r.SinkStatePField.PartitionColumn == "" {
		return rerrors.ErrConfig.New("source/sink state partition_column is required")
	}
	if r.Strategy == qmodel.StrategyHashMD5 {
		if r.SourceStatePField.OrderColumn == "" || r.SinkStatePField.OrderColumn == "" {
			return rerrors.ErrConfig.New("HASH_MD5 strategy requires an order_column on both state meta-columns")
		}
	}
	return nil
}

// Adapters bundles the four adapter roles a reconciliation pass needs.
// Any pair may alias the same underlying adapter, e.g. when no separate
// state store exists.
type Adapters struct {
	Source      adapter.Adapter
	Sink        adapter.Adapter
	SourceState adapter.Adapter
	SinkState   adapter.Adapter
}
