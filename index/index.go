// Package index persists endpoint snapshots into PostgreSQL, one table per
// endpoint, and serves most-recent-first reads over the stored history.
package index

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"git.gammaspectra.live/P2Pool/p2pool-stats/stats"
	"github.com/lib/pq"
	"strings"
	"time"
)

//go:embed schema.sql
var dbSchema string

// ErrStoreUninitialized is returned when the store is used before OpenIndex,
// or after Close.
var ErrStoreUninitialized = errors.New("snapshot store not initialized")

// Index is an explicit handle over the storage engine. All persistence
// operations go through a handle; there is no process-wide registry.
type Index struct {
	handle     *sql.DB
	statements [stats.NumEndpoints]*sql.Stmt
}

// flattened scalar/nested columns per endpoint table, in insert order after
// captured_at and raw
var endpointColumns = [stats.NumEndpoints][]string{
	stats.LocalConsole: {"mode", "tcp_port"},
	stats.LocalP2P:     {"connections", "incoming_connections", "peer_list_size", "peers", "uptime"},
	stats.LocalStratum: {"hashrate_15m", "hashrate_1h", "hashrate_24h", "total_hashes", "shares_found",
		"shares_failed", "average_effort", "current_effort", "connections", "incoming_connections",
		"block_reward_share_percent", "workers"},
	stats.NetworkStats: {"difficulty", "hash_value", "height", "reward", "timestamp"},
	stats.PoolBlocks:   {},
	stats.PoolStats: {"pool_list", "pool_statistics", "hashrate", "miners", "total_hashes",
		"last_block_found_time", "last_block_found", "total_blocks_found", "pplns_weight",
		"pplns_window_size", "sidechain_difficulty", "sidechain_height"},
	stats.StatsMod: {"config", "ports", "fee", "min_payment_threshold", "network", "height",
		"pool", "stats", "last_block_found", "blocks", "miners", "hashrate", "round_hashes"},
}

// OpenIndex connects to the storage location, applies the table schema and
// prepares insert statements. Safe to call again with the same location; the
// schema is idempotent.
func OpenIndex(connStr string) (index *Index, err error) {
	index = &Index{}
	if index.handle, err = sql.Open("postgres", connStr); err != nil {
		return nil, err
	}

	index.handle.SetMaxIdleConns(8)

	tx, err := index.handle.Begin()
	if err != nil {
		_ = index.handle.Close()
		return nil, err
	}
	defer tx.Rollback()
	for _, statement := range strings.Split(dbSchema, ";") {
		if strings.TrimSpace(statement) == "" {
			continue
		}
		if _, err = tx.Exec(statement); err != nil {
			_ = index.handle.Close()
			return nil, fmt.Errorf("could not apply schema: %w", err)
		}
	}
	if err = tx.Commit(); err != nil {
		_ = index.handle.Close()
		return nil, err
	}

	for _, e := range stats.Endpoints() {
		if index.statements[e], err = index.handle.Prepare(insertStatement(e)); err != nil {
			_ = index.handle.Close()
			return nil, err
		}
	}

	return index, nil
}

func insertStatement(e stats.Endpoint) string {
	columns := []string{"captured_at", "raw"}
	columns = append(columns, endpointColumns[e]...)
	quoted := make([]string, 0, len(columns))
	placeholders := make([]string, 0, len(columns))
	for i, c := range columns {
		quoted = append(quoted, pq.QuoteIdentifier(c))
		placeholders = append(placeholders, fmt.Sprintf("$%d", i+1))
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s);",
		pq.QuoteIdentifier(e.Table()), strings.Join(quoted, ", "), strings.Join(placeholders, ", "))
}

func (i *Index) ready() error {
	if i == nil || i.handle == nil {
		return ErrStoreUninitialized
	}
	return nil
}

// InsertSnapshot writes one row into the snapshot's endpoint table: the full
// raw payload plus the flattened fields. One transaction per snapshot; a
// missing nested field stores NULL for its column rather than failing the
// insert.
func (i *Index) InsertSnapshot(s *stats.Snapshot) error {
	if err := i.ready(); err != nil {
		return err
	}
	if !s.Endpoint.Valid() {
		return fmt.Errorf("unknown endpoint %d", s.Endpoint)
	}

	args := make([]any, 0, 2+len(endpointColumns[s.Endpoint]))
	args = append(args, s.CapturedAt, string(s.Raw))
	args = append(args, flattenSnapshot(s)...)

	tx, err := i.handle.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err = tx.Stmt(i.statements[s.Endpoint]).Exec(args...); err != nil {
		return fmt.Errorf("insert into %s: %w", s.Endpoint.Table(), err)
	}
	return tx.Commit()
}

// TimeRange bounds a Retrieve to snapshots captured within [Start, End].
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// Row is one persisted snapshot row projected to the requested columns.
// Values come back as the driver reports them; jsonb and text columns are
// strings.
type Row map[string]any

// Retrieve returns the most recent limit rows of a table, newest first,
// optionally projected to a subset of columns and bounded by a time range.
// Zero matching rows yields an empty slice, not an error.
func (i *Index) Retrieve(table string, columns []string, within *TimeRange, limit int) ([]Row, error) {
	if err := i.ready(); err != nil {
		return nil, err
	}
	if !knownTable(table) {
		return nil, fmt.Errorf("unknown table %q", table)
	}

	projection := "*"
	if len(columns) > 0 {
		quoted := make([]string, 0, len(columns))
		for _, c := range columns {
			quoted = append(quoted, pq.QuoteIdentifier(c))
		}
		projection = strings.Join(quoted, ", ")
	}

	query := fmt.Sprintf("SELECT %s FROM %s", projection, pq.QuoteIdentifier(table))
	var args []any
	if within != nil {
		query += " WHERE captured_at >= $1 AND captured_at <= $2"
		args = append(args, within.Start, within.End)
	}
	query += " ORDER BY captured_at DESC, id DESC"
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := i.handle.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	out := make([]Row, 0, limit)
	for rows.Next() {
		values := make([]any, len(names))
		scan := make([]any, len(names))
		for n := range values {
			scan[n] = &values[n]
		}
		if err = rows.Scan(scan...); err != nil {
			return nil, err
		}
		row := make(Row, len(names))
		for n, name := range names {
			v := values[n]
			if buf, ok := v.([]byte); ok {
				v = string(buf)
			}
			row[name] = v
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// LatestColumn returns the value of a single column from the most recent
// persisted row of a table. The boolean is false when no row exists or the
// stored value is NULL.
func (i *Index) LatestColumn(table, column string) (any, bool, error) {
	rows, err := i.Retrieve(table, []string{column}, nil, 1)
	if err != nil {
		return nil, false, err
	}
	if len(rows) == 0 {
		return nil, false, nil
	}
	v, ok := rows[0][column]
	if !ok || v == nil {
		return nil, false, nil
	}
	return v, true, nil
}

func knownTable(table string) bool {
	for _, e := range stats.Endpoints() {
		if e.Table() == table {
			return true
		}
	}
	return false
}

func (i *Index) Close() {
	if i == nil || i.handle == nil {
		return
	}
	for _, stmt := range i.statements {
		if stmt != nil {
			_ = stmt.Close()
		}
	}
	_ = i.handle.Close()
	i.handle = nil
}
