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

package reconcile

import (
	"fmt"
	"time"

	"github.com/reconsql/reconsql/rerrors"
)

// toOrdinal normalizes a partition bound (int64 or time.Time) to a
// single comparable int64, used for block keys, sorting, and clamping.
// For datetime values this is Unix seconds; for int values it is the
// value itself.
func toOrdinal(v any) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int:
		return int64(t)
	case time.Time:
		return t.Unix()
	default:
		panic(fmt.Sprintf("reconcile: unsupported ordinal type %T", v))
	}
}

// ordinalAsValue converts an int64 ordinal back to the bound's native
// representation, mirroring the original's to_blocks datetime.fromtimestamp.
func ordinalAsValue(ord int64, like any) any {
	switch like.(type) {
	case time.Time:
		loc := like.(time.Time).Location()
		return time.Unix(ord, 0).In(loc)
	default:
		return ord
	}
}

func maxOrdinalValue(a, b any) any {
	if toOrdinal(a) >= toOrdinal(b) {
		return a
	}
	return b
}

func minOrdinalValue(a, b any) any {
	if toOrdinal(a) <= toOrdinal(b) {
		return a
	}
	return b
}

// addUnit extends end by one partition unit: +1 second for datetime,
// +1 for int. Used by the range inferrer to make a probed max inclusive
// under the half-open [start, end) convention.
func addUnit(v any) any {
	switch t := v.(type) {
	case time.Time:
		return t.Add(time.Second)
	case int64:
		return t + 1
	case int:
		return int64(t) + 1
	default:
		panic(fmt.Sprintf("reconcile: unsupported ordinal type %T", v))
	}
}

// normalizeUTC attaches UTC to a datetime bound, per add_tz in the
// original (which leaves a tz-aware value untouched and assumes UTC for a
// naive one). Go's time.Time always carries a location, so bounds are
// normalized to UTC unconditionally; int bounds pass through unchanged.
func normalizeUTC(v any) any {
	if t, ok := v.(time.Time); ok {
		return t.UTC()
	}
	return v
}

func requireOrder(start, end any) error {
	if toOrdinal(start) >= toOrdinal(end) {
		return rerrors.ErrRange.New(fmt.Sprintf("start (%v) must be before end (%v)", start, end))
	}
	return nil
}
