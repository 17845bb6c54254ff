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
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestOrdinalRoundTripsInt(t *testing.T) {
	require.Equal(t, int64(42), toOrdinal(int64(42)))
	require.Equal(t, int64(42), toOrdinal(42))
}

func TestOrdinalRoundTripsDatetime(t *testing.T) {
	ts := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	require.Equal(t, ts.Unix(), toOrdinal(ts))
	back := ordinalAsValue(ts.Unix(), ts)
	require.True(t, back.(time.Time).Equal(ts))
}

func TestMaxMinOrdinalValue(t *testing.T) {
	require.Equal(t, int64(10), maxOrdinalValue(int64(3), int64(10)))
	require.Equal(t, int64(3), minOrdinalValue(int64(3), int64(10)))
}

func TestAddUnit(t *testing.T) {
	require.Equal(t, int64(11), addUnit(int64(10)))
	ts := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	require.Equal(t, ts.Add(time.Second), addUnit(ts))
}

func TestNormalizeUTC(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	naive := time.Date(2026, 1, 1, 0, 0, 0, 0, loc)
	got := normalizeUTC(naive).(time.Time)
	require.Equal(t, time.UTC, got.Location())
	require.True(t, got.Equal(naive))

	require.Equal(t, int64(5), normalizeUTC(int64(5)))
}

func TestRequireOrder(t *testing.T) {
	require.NoError(t, requireOrder(int64(1), int64(2)))
	require.Error(t, requireOrder(int64(2), int64(2)))
	require.Error(t, requireOrder(int64(3), int64(2)))
}
