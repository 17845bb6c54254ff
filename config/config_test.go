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

package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/reconsql/reconsql/config"
	"github.com/reconsql/reconsql/qmodel"
)

func TestParseBoundLiteralInt(t *testing.T) {
	b, err := config.ParseBound("42")
	require.NoError(t, err)
	v, err := b.Resolve(time.Now())
	require.NoError(t, err)
	require.Equal(t, int64(42), v)
}

func TestParseBoundLiteralTimestamp(t *testing.T) {
	b, err := config.ParseBound("2026-01-01T00:00:00Z")
	require.NoError(t, err)
	v, err := b.Resolve(time.Now())
	require.NoError(t, err)
	require.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), v)
}

func TestParseBoundNow(t *testing.T) {
	b, err := config.ParseBound("now")
	require.NoError(t, err)
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	v, err := b.Resolve(now)
	require.NoError(t, err)
	require.Equal(t, now, v)
}

func TestParseBoundNowMinusDuration(t *testing.T) {
	b, err := config.ParseBound("now-24h")
	require.NoError(t, err)
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	v, err := b.Resolve(now)
	require.NoError(t, err)
	require.Equal(t, now.Add(-24*time.Hour), v)
}

func TestParseBoundEmptyIsZero(t *testing.T) {
	b, err := config.ParseBound("")
	require.NoError(t, err)
	require.True(t, b.IsZero())
}

func TestParseBoundRejectsGarbage(t *testing.T) {
	_, err := config.ParseBound("not-a-bound")
	require.Error(t, err)
}

func baseReconciliation() config.Reconciliation {
	return config.Reconciliation{
		Strategy:                 qmodel.StrategyMD5Sum,
		PartitionColumnType:      qmodel.PartitionInt,
		InitialPartitionInterval: 1000,
		MaxBlockSize:             100,
		IntervalReductionFactor:  10,
		SourceStatePField:        config.RolePField{PartitionColumn: "id"},
		SinkStatePField:          config.RolePField{PartitionColumn: "id"},
	}
}

func TestValidateRejectsNonPositiveInterval(t *testing.T) {
	rc := baseReconciliation()
	rc.InitialPartitionInterval = 0
	require.Error(t, rc.Validate())
}

func TestValidateRejectsReductionFactorOfOne(t *testing.T) {
	rc := baseReconciliation()
	rc.IntervalReductionFactor = 1
	require.Error(t, rc.Validate())
}

func TestValidateRejectsInitialIntervalBelowMaxBlockSize(t *testing.T) {
	rc := baseReconciliation()
	rc.InitialPartitionInterval = 10
	rc.MaxBlockSize = 100
	require.Error(t, rc.Validate())
}

func TestValidateRequiresStatePartitionColumns(t *testing.T) {
	rc := baseReconciliation()
	rc.SinkStatePField.PartitionColumn = ""
	require.Error(t, rc.Validate())
}

func TestValidateHashMD5RequiresOrderColumn(t *testing.T) {
	rc := baseReconciliation()
	rc.Strategy = qmodel.StrategyHashMD5
	require.Error(t, rc.Validate())

	rc.SourceStatePField.OrderColumn = "id"
	rc.SinkStatePField.OrderColumn = "id"
	require.NoError(t, rc.Validate())
}

func TestValidateAccepts(t *testing.T) {
	require.NoError(t, baseReconciliation().Validate())
}
