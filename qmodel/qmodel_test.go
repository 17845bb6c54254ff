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

package qmodel_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/reconsql/reconsql/qmodel"
)

func TestFieldKindString(t *testing.T) {
	require.Equal(t, "column", qmodel.KindColumn.String())
	require.Equal(t, "rowhash", qmodel.KindRowHash.String())
	require.Equal(t, "blockhash", qmodel.KindBlockHash.String())
	require.Equal(t, "blockname", qmodel.KindBlockName.String())
	require.Equal(t, "unknown", qmodel.FieldKind(99).String())
}

func TestColumnFieldIsPlainColumnKind(t *testing.T) {
	f := qmodel.ColumnField("id", "pk")
	require.Equal(t, qmodel.KindColumn, f.Kind)
	require.Equal(t, "id", f.Expr)
	require.Equal(t, "pk", f.Alias)
	require.Nil(t, f.BlockHash)
	require.Nil(t, f.BlockName)
	require.Nil(t, f.RowHash)
}
