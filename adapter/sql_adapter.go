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

package adapter

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	_ "github.com/ClickHouse/clickhouse-go/v2"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/reconsql/reconsql/dialect"
	"github.com/reconsql/reconsql/qmodel"
	"github.com/reconsql/reconsql/rerrors"
)

// StoreConfig is the connection configuration for one backend, typed per
// the driver name ("postgres", "mysql", "clickhouse").
type StoreConfig struct {
	Driver   string
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

// dsn renders the database/sql DSN for this store, per driver.
func (c StoreConfig) dsn() (driverName, dsn string, err error) {
	switch c.Driver {
	case "postgres":
		return "pgx", fmt.Sprintf("postgres://%s:%s@%s:%d/%s", c.User, c.Password, c.Host, c.Port, c.Database), nil
	case "mysql":
		return "mysql", fmt.Sprintf("%s:%s@tcp(%s:%d)/%s", c.User, c.Password, c.Host, c.Port, c.Database), nil
	case "clickhouse":
		return "clickhouse", fmt.Sprintf("clickhouse://%s:%s@%s:%d/%s", c.User, c.Password, c.Host, c.Port, c.Database), nil
	default:
		return "", "", rerrors.ErrConfig.New(fmt.Sprintf("unknown driver %q", c.Driver))
	}
}

// SQLAdapter implements Adapter over database/sql, rendering every query
// through a dialect.Renderer before executing it. One instance per
// (store, role); not safe for concurrent use.
type SQLAdapter struct {
	store    StoreConfig
	cfg      Config
	role     Role
	renderer dialect.Renderer

	mu sync.Mutex
	db *sql.DB
}

// NewSQLAdapter constructs an adapter for store/cfg/role. Construction
// never connects; call Connect before issuing fetches.
func NewSQLAdapter(store StoreConfig, cfg Config, role Role) (*SQLAdapter, error) {
	r, ok := dialect.ByName(store.Driver)
	if !ok {
		return nil, rerrors.ErrConfig.New(fmt.Sprintf("no dialect renderer for driver %q", store.Driver))
	}
	return &SQLAdapter{store: store, cfg: cfg, role: role, renderer: r}, nil
}

func (a *SQLAdapter) Connect(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.db != nil {
		return nil
	}
	driverName, dsn, err := a.store.dsn()
	if err != nil {
		return err
	}
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return rerrors.ErrAdapter.New("connect", err.Error())
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return rerrors.ErrAdapter.New("connect", err.Error())
	}
	a.db = db
	return nil
}

func (a *SQLAdapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.db == nil {
		return nil
	}
	err := a.db.Close()
	a.db = nil
	return err
}

func (a *SQLAdapter) Config() Config { return a.cfg }
func (a *SQLAdapter) Role() Role     { return a.role }

func (a *SQLAdapter) Fetch(ctx context.Context, query qmodel.Query, opName string) ([]Row, error) {
	if ctx.Err() != nil {
		return nil, rerrors.ErrCancelled.New(opName)
	}
	sqlText, params, err := a.renderer.Render(query)
	if err != nil {
		return nil, errors.Wrapf(err, "render %s", opName)
	}

	rows, err := a.db.QueryContext(ctx, sqlText, params...)
	if err != nil {
		return nil, rerrors.ErrAdapter.New(opName, err.Error())
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, rerrors.ErrAdapter.New(opName, err.Error())
	}

	var out []Row
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, rerrors.ErrAdapter.New(opName, err.Error())
		}
		row := make(Row, len(cols))
		for i, c := range cols {
			row[c] = normalizeBlockHash(c, vals[i])
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, rerrors.ErrAdapter.New(opName, err.Error())
	}
	return out, nil
}

// normalizeBlockHash renders the "blockhash" column through decimal.Decimal
// so MD5_SUM's signed-sum aggregate compares equal across dialects even
// when their drivers surface it as different Go types: Postgres NUMERIC
// scans as []byte, MySQL's SIGNED SUM as int64, ClickHouse's as float64.
// Any column other than blockhash, and any value decimal can't parse
// (HASH_MD5's hex digest), passes through unchanged.
func normalizeBlockHash(col string, v any) any {
	if col != "blockhash" || v == nil {
		return v
	}
	var d decimal.Decimal
	var err error
	switch t := v.(type) {
	case []byte:
		d, err = decimal.NewFromString(string(t))
	case string:
		d, err = decimal.NewFromString(t)
	case int64:
		d = decimal.NewFromInt(t)
	case float64:
		d = decimal.NewFromFloat(t)
	default:
		return v
	}
	if err != nil {
		return v
	}
	return d.String()
}

func (a *SQLAdapter) FetchOne(ctx context.Context, query qmodel.Query, opName string) (Row, error) {
	rows, err := a.Fetch(ctx, query, opName)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, rerrors.ErrAdapter.New(opName, "no rows returned")
	}
	return rows[0], nil
}

func (a *SQLAdapter) Execute(ctx context.Context, sqlText string, params []any) error {
	if ctx.Err() != nil {
		return rerrors.ErrCancelled.New("execute")
	}
	if _, err := a.db.ExecContext(ctx, sqlText, params...); err != nil {
		return rerrors.ErrAdapter.New("execute", err.Error())
	}
	return nil
}

// Upsert inserts or updates row in tableFQN by this adapter's declared
// unique key (MetaColumns.UniqueKeys). Conflict resolution syntax is
// driver-local: Postgres uses ON CONFLICT, MySQL uses ON DUPLICATE KEY
// UPDATE, and ClickHouse (no native upsert) falls back to a plain INSERT
// into the table, relying on the engine's own deduplication (e.g.
// ReplacingMergeTree) if configured.
func (a *SQLAdapter) Upsert(ctx context.Context, tableFQN string, row Row) error {
	cols := make([]string, 0, len(row))
	for c := range row {
		cols = append(cols, c)
	}
	vals := make([]any, len(cols))
	placeholders := make([]string, len(cols))
	for i, c := range cols {
		vals[i] = row[c]
		placeholders[i] = a.placeholder(i + 1)
	}

	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", tableFQN, strings.Join(cols, ","), strings.Join(placeholders, ","))

	switch a.store.Driver {
	case "postgres":
		if len(a.cfg.MetaColumns.UniqueKeys) > 0 {
			sets := make([]string, 0, len(cols))
			for _, c := range cols {
				sets = append(sets, fmt.Sprintf("%s=EXCLUDED.%s", c, c))
			}
			stmt += fmt.Sprintf(" ON CONFLICT (%s) DO UPDATE SET %s", strings.Join(a.cfg.MetaColumns.UniqueKeys, ","), strings.Join(sets, ","))
		}
	case "mysql":
		if len(a.cfg.MetaColumns.UniqueKeys) > 0 {
			sets := make([]string, 0, len(cols))
			for _, c := range cols {
				sets = append(sets, fmt.Sprintf("%s=VALUES(%s)", c, c))
			}
			stmt += " ON DUPLICATE KEY UPDATE " + strings.Join(sets, ",")
		}
	case "clickhouse":
		// no native upsert clause; plain insert.
	}

	return a.Execute(ctx, stmt, vals)
}

func (a *SQLAdapter) placeholder(i int) string {
	if a.store.Driver == "postgres" {
		return fmt.Sprintf("$%d", i)
	}
	return "?"
}
