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

	"github.com/reconsql/reconsql/adapter"
	"github.com/reconsql/reconsql/rerrors"
)

// Adapters builds the four role adapters this File describes, resolving
// each RoleAdapter's named store against f.Stores and constructing one
// adapter.SQLAdapter per role. Callers needing the Memory adapter double
// (tests, embedded use) bypass this and build adapter.Adapters directly.
func (f *File) Adapters() (RoleAdapters, error) {
	source, err := f.buildOne(f.Source, adapter.RoleSource)
	if err != nil {
		return RoleAdapters{}, err
	}
	sink, err := f.buildOne(f.Sink, adapter.RoleSink)
	if err != nil {
		return RoleAdapters{}, err
	}
	srcState, err := f.buildOne(f.SourceState, adapter.RoleSourceState)
	if err != nil {
		return RoleAdapters{}, err
	}
	snkState, err := f.buildOne(f.SinkState, adapter.RoleSinkState)
	if err != nil {
		return RoleAdapters{}, err
	}
	return RoleAdapters{Source: source, Sink: sink, SourceState: srcState, SinkState: snkState}, nil
}

// RoleAdapters mirrors config.Adapters (config.go) but as the
// concrete *adapter.SQLAdapter type, so callers can Connect/Close them
// before narrowing to the adapter.Adapter interface Reconciler wants.
type RoleAdapters struct {
	Source      *adapter.SQLAdapter
	Sink        *adapter.SQLAdapter
	SourceState *adapter.SQLAdapter
	SinkState   *adapter.SQLAdapter
}

// AsAdapters narrows RoleAdapters to the config.Adapters the reconcile
// package consumes.
func (ra RoleAdapters) AsAdapters() Adapters {
	return Adapters{Source: ra.Source, Sink: ra.Sink, SourceState: ra.SourceState, SinkState: ra.SinkState}
}

func (f *File) buildOne(ra RoleAdapter, role adapter.Role) (*adapter.SQLAdapter, error) {
	store, ok := f.Stores[ra.Store]
	if !ok {
		return nil, rerrors.ErrConfig.New(fmt.Sprintf("role %s references unknown store %q", role, ra.Store))
	}
	return adapter.NewSQLAdapter(store, ra.Config, role)
}
