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

	"github.com/stretchr/testify/require"

	"github.com/reconsql/reconsql/config"
	"github.com/reconsql/reconsql/qmodel"
)

const validYAML = `
stores:
  pg_main:
    driver: postgres
    host: localhost
    port: 5432
    user: recon
    password: secret
    database: appdb
  my_main:
    driver: mysql
    host: localhost
    port: 3306
    user: recon
    password: secret
    database: appdb

source:
  store: pg_main
  table:
    schema: public
    name: events
  meta:
    partition_column: id
    fields: [payload]

sink:
  store: my_main
  table:
    name: events
  filters:
    - column: region
      op: "="
      value: us-east
  meta:
    partition_column: id
    fields: [payload]

source_state:
  store: pg_main
  table:
    name: events

sink_state:
  store: my_main
  table:
    name: events

reconciliation:
  strategy: MD5_SUM
  partition_column_type: int
  initial_partition_interval: 100000
  max_block_size: 1000
  interval_reduction_factor: 10
  source_state_pfield:
    partition_column: id
  sink_state_pfield:
    partition_column: id
`

func TestParseValidConfig(t *testing.T) {
	f, err := config.Parse([]byte(validYAML))
	require.NoError(t, err)

	require.Len(t, f.Stores, 2)
	require.Equal(t, "postgres", f.Stores["pg_main"].Driver)
	require.Equal(t, 5432, f.Stores["pg_main"].Port)

	require.Equal(t, "pg_main", f.Source.Store)
	require.Equal(t, "events", f.Source.Config.Table.Name)
	require.Equal(t, "public", f.Source.Config.Table.Schema)
	require.Equal(t, "id", f.Source.Config.MetaColumns.PartitionColumn)
	require.Equal(t, []qmodel.Field{qmodel.ColumnField("payload", "")}, f.Source.Config.MetaColumns.Fields)

	require.Len(t, f.Sink.Config.Filters, 1)
	require.Equal(t, qmodel.OpEq, f.Sink.Config.Filters[0].Op)

	require.Equal(t, qmodel.StrategyMD5Sum, f.Reconciliation.Strategy)
	require.Equal(t, int64(100000), f.Reconciliation.InitialPartitionInterval)
}

func TestParseRejectsUnknownStrategy(t *testing.T) {
	bad := validYAML + "\n"
	_, err := config.Parse([]byte(`
stores:
  s:
    driver: postgres
source:
  store: s
sink:
  store: s
source_state:
  store: s
sink_state:
  store: s
reconciliation:
  strategy: NOT_A_STRATEGY
  partition_column_type: int
  initial_partition_interval: 100
  max_block_size: 10
  interval_reduction_factor: 10
  source_state_pfield:
    partition_column: id
  sink_state_pfield:
    partition_column: id
`))
	require.Error(t, err)
	_ = bad
}

func TestLoadFileMissingPath(t *testing.T) {
	_, err := config.LoadFile("/nonexistent/path/to/config.yaml")
	require.Error(t, err)
}

func TestAdaptersBuildsSQLAdaptersForKnownStores(t *testing.T) {
	f, err := config.Parse([]byte(validYAML))
	require.NoError(t, err)

	ra, err := f.Adapters()
	require.NoError(t, err)
	require.NotNil(t, ra.Source)
	require.NotNil(t, ra.Sink)
	require.NotNil(t, ra.SourceState)
	require.NotNil(t, ra.SinkState)

	adapters := ra.AsAdapters()
	require.Equal(t, "events", adapters.Source.Config().Table.Name)
}

func TestAdaptersRejectsUnknownStore(t *testing.T) {
	bad := `
stores:
  only_one:
    driver: postgres
source:
  store: does_not_exist
  table:
    name: events
sink:
  store: only_one
  table:
    name: events
source_state:
  store: only_one
sink_state:
  store: only_one
reconciliation:
  strategy: MD5_SUM
  partition_column_type: int
  initial_partition_interval: 100
  max_block_size: 10
  interval_reduction_factor: 10
  source_state_pfield:
    partition_column: id
  sink_state_pfield:
    partition_column: id
`
	f, err := config.Parse([]byte(bad))
	require.NoError(t, err)
	_, err = f.Adapters()
	require.Error(t, err)
}
