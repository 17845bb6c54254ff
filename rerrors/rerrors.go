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

// Package rerrors defines the error kinds raised by the reconciliation
// core, per the error handling design: config errors at construction,
// adapter errors surfaced unchanged, range errors, and cancellation.
package rerrors

import "gopkg.in/src-d/go-errors.v1"

var (
	// ErrConfig is raised at construction time for missing or
	// inconsistent meta-columns, an unknown partition_column_type, or
	// non-monotone intervals. Never raised during reconciliation.
	ErrConfig = errors.NewKind("config error: %s")

	// ErrAdapter wraps connection, query, or row-materialization
	// failures from a store adapter. Surfaced unchanged to the caller.
	ErrAdapter = errors.NewKind("adapter error during %s: %s")

	// ErrRange is raised when start is not before end, or when intervals[0] would
	// be smaller than max_block_size (the interval list would be empty).
	ErrRange = errors.NewKind("range error: %s")

	// ErrCancelled is returned when a shutdown signal is observed
	// between fetches. No partial result accompanies it.
	ErrCancelled = errors.NewKind("reconciliation cancelled: %s")
)
