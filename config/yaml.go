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

package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/reconsql/reconsql/adapter"
	"github.com/reconsql/reconsql/qmodel"
	"github.com/reconsql/reconsql/rerrors"
)

// rawFile mirrors the on-disk YAML shape. Field names match the
// original's core/config.py DatabaseConfig / JoinConfig / FilterConfig
// nesting, flattened into plain Go structs (no dynamic TMPL()/lambda
// fields — see SPEC_FULL.md §3 for why those are not ported).
type rawFile struct {
	Stores map[string]rawStore `yaml:"stores"`

	Source      rawAdapter `yaml:"source"`
	Sink        rawAdapter `yaml:"sink"`
	SourceState rawAdapter `yaml:"source_state"`
	SinkState   rawAdapter `yaml:"sink_state"`

	Reconciliation rawReconciliation `yaml:"reconciliation"`
}

type rawStore struct {
	Driver   string `yaml:"driver"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

type rawAdapter struct {
	Store string `yaml:"store"`
	Table struct {
		Schema string `yaml:"schema"`
		Name   string `yaml:"name"`
		Alias  string `yaml:"alias"`
	} `yaml:"table"`
	Joins []struct {
		Schema string `yaml:"schema"`
		Name   string `yaml:"name"`
		Alias  string `yaml:"alias"`
		Type   string `yaml:"type"`
		On     string `yaml:"on"`
	} `yaml:"joins"`
	Filters []struct {
		Column string `yaml:"column"`
		Op     string `yaml:"op"`
		Value  any    `yaml:"value"`
	} `yaml:"filters"`
	BatchSize int `yaml:"batch_size"`
	Meta      struct {
		PartitionColumn string   `yaml:"partition_column"`
		HashColumn      string   `yaml:"hash_column"`
		OrderColumn     string   `yaml:"order_column"`
		UniqueKeys      []string `yaml:"unique_keys"`
		Fields          []string `yaml:"fields"`
	} `yaml:"meta"`
}

type rawReconciliation struct {
	Strategy                 string `yaml:"strategy"`
	PartitionColumnType      string `yaml:"partition_column_type"`
	InitialPartitionInterval int64  `yaml:"initial_partition_interval"`
	MaxBlockSize             int64  `yaml:"max_block_size"`
	IntervalReductionFactor  int64  `yaml:"interval_reduction_factor"`
	Start                    string `yaml:"start"`
	End                      string `yaml:"end"`
	SourceStatePField        struct {
		PartitionColumn string `yaml:"partition_column"`
		HashColumn      string `yaml:"hash_column"`
		OrderColumn     string `yaml:"order_column"`
	} `yaml:"source_state_pfield"`
	SinkStatePField struct {
		PartitionColumn string `yaml:"partition_column"`
		HashColumn      string `yaml:"hash_column"`
		OrderColumn     string `yaml:"order_column"`
	} `yaml:"sink_state_pfield"`
}

// File is the fully parsed, typed configuration for one reconciliation
// pass: store connection parameters per role and the reconciliation
// strategy config. File.Adapters (wire.go) builds one SQLAdapter per role
// from it; a caller that wants Memory adapters builds them itself.
type File struct {
	Stores         map[string]adapter.StoreConfig
	Source         RoleAdapter
	Sink           RoleAdapter
	SourceState    RoleAdapter
	SinkState      RoleAdapter
	Reconciliation Reconciliation
}

// RoleAdapter pairs a named store with its adapter.Config.
type RoleAdapter struct {
	Store  string
	Config adapter.Config
}

// LoadFile reads and validates a reconciliation config from a YAML file.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, rerrors.ErrConfig.New(err.Error())
	}
	return Parse(data)
}

// Parse decodes and validates a reconciliation config from YAML bytes.
func Parse(data []byte) (*File, error) {
	var raw rawFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, rerrors.ErrConfig.New(err.Error())
	}

	stores := make(map[string]adapter.StoreConfig, len(raw.Stores))
	for name, s := range raw.Stores {
		stores[name] = adapter.StoreConfig{
			Driver: s.Driver, Host: s.Host, Port: s.Port,
			User: s.User, Password: s.Password, Database: s.Database,
		}
	}

	source, err := toRoleAdapter(raw.Source)
	if err != nil {
		return nil, err
	}
	sink, err := toRoleAdapter(raw.Sink)
	if err != nil {
		return nil, err
	}
	srcState, err := toRoleAdapter(raw.SourceState)
	if err != nil {
		return nil, err
	}
	snkState, err := toRoleAdapter(raw.SinkState)
	if err != nil {
		return nil, err
	}

	strategy, err := parseStrategy(raw.Reconciliation.Strategy)
	if err != nil {
		return nil, err
	}
	ptype, err := parsePartitionType(raw.Reconciliation.PartitionColumnType)
	if err != nil {
		return nil, err
	}
	start, err := ParseBound(raw.Reconciliation.Start)
	if err != nil {
		return nil, err
	}
	end, err := ParseBound(raw.Reconciliation.End)
	if err != nil {
		return nil, err
	}

	recon := Reconciliation{
		Strategy:                 strategy,
		PartitionColumnType:      ptype,
		InitialPartitionInterval: raw.Reconciliation.InitialPartitionInterval,
		MaxBlockSize:             raw.Reconciliation.MaxBlockSize,
		IntervalReductionFactor:  raw.Reconciliation.IntervalReductionFactor,
		Start:                    start,
		End:                      end,
		SourceStatePField: RolePField{
			PartitionColumn: raw.Reconciliation.SourceStatePField.PartitionColumn,
			HashColumn:      raw.Reconciliation.SourceStatePField.HashColumn,
			OrderColumn:     raw.Reconciliation.SourceStatePField.OrderColumn,
		},
		SinkStatePField: RolePField{
			PartitionColumn: raw.Reconciliation.SinkStatePField.PartitionColumn,
			HashColumn:      raw.Reconciliation.SinkStatePField.HashColumn,
			OrderColumn:     raw.Reconciliation.SinkStatePField.OrderColumn,
		},
	}
	if err := recon.Validate(); err != nil {
		return nil, err
	}

	return &File{
		Stores: stores, Source: source, Sink: sink,
		SourceState: srcState, SinkState: snkState,
		Reconciliation: recon,
	}, nil
}

func toRoleAdapter(r rawAdapter) (RoleAdapter, error) {
	joins := make([]adapter.JoinRef, 0, len(r.Joins))
	for _, j := range r.Joins {
		jt, err := parseJoinType(j.Type)
		if err != nil {
			return RoleAdapter{}, err
		}
		joins = append(joins, adapter.JoinRef{Schema: j.Schema, Name: j.Name, Alias: j.Alias, Type: jt, On: j.On})
	}

	filters := make([]adapter.FilterRef, 0, len(r.Filters))
	for _, f := range r.Filters {
		op, err := parseFilterOp(f.Op)
		if err != nil {
			return RoleAdapter{}, err
		}
		filters = append(filters, adapter.FilterRef{Column: f.Column, Op: op, Value: f.Value})
	}

	fields := make([]qmodel.Field, 0, len(r.Meta.Fields))
	for _, c := range r.Meta.Fields {
		fields = append(fields, qmodel.ColumnField(c, ""))
	}

	return RoleAdapter{
		Store: r.Store,
		Config: adapter.Config{
			Table:     adapter.TableRef{Schema: r.Table.Schema, Name: r.Table.Name, Alias: r.Table.Alias},
			Joins:     joins,
			Filters:   filters,
			BatchSize: r.BatchSize,
			MetaColumns: adapter.MetaColumns{
				PartitionColumn: r.Meta.PartitionColumn,
				HashColumn:      r.Meta.HashColumn,
				OrderColumn:     r.Meta.OrderColumn,
				UniqueKeys:      r.Meta.UniqueKeys,
				Fields:          fields,
			},
		},
	}, nil
}

func parseStrategy(s string) (qmodel.HashStrategy, error) {
	switch s {
	case "MD5_SUM":
		return qmodel.StrategyMD5Sum, nil
	case "HASH_MD5":
		return qmodel.StrategyHashMD5, nil
	default:
		return 0, rerrors.ErrConfig.New(fmt.Sprintf("unknown strategy %q", s))
	}
}

func parsePartitionType(s string) (qmodel.PartitionType, error) {
	switch s {
	case "int":
		return qmodel.PartitionInt, nil
	case "datetime":
		return qmodel.PartitionDatetime, nil
	case "string", "uuid":
		return 0, rerrors.ErrConfig.New(fmt.Sprintf("partition_column_type %q is not implemented (open question, see DESIGN.md)", s))
	default:
		return 0, rerrors.ErrConfig.New(fmt.Sprintf("unknown partition_column_type %q", s))
	}
}

func parseJoinType(s string) (qmodel.JoinType, error) {
	switch s {
	case "inner":
		return qmodel.InnerJoin, nil
	case "left":
		return qmodel.LeftJoin, nil
	case "right":
		return qmodel.RightJoin, nil
	case "full":
		return qmodel.FullJoin, nil
	default:
		return "", rerrors.ErrConfig.New(fmt.Sprintf("unknown join type %q", s))
	}
}

func parseFilterOp(s string) (qmodel.FilterOp, error) {
	switch s {
	case "=":
		return qmodel.OpEq, nil
	case "!=":
		return qmodel.OpNeq, nil
	case "<":
		return qmodel.OpLt, nil
	case "<=":
		return qmodel.OpLte, nil
	case ">":
		return qmodel.OpGt, nil
	case ">=":
		return qmodel.OpGte, nil
	default:
		return "", rerrors.ErrConfig.New(fmt.Sprintf("unknown filter operator %q", s))
	}
}
