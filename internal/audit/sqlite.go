package audit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS log (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	timestamp  TEXT NOT NULL,
	process_id TEXT NOT NULL,
	run_id     TEXT NOT NULL DEFAULT '',
	message    TEXT NOT NULL,
	is_error   INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS log_process_id_idx ON log (process_id, id);
CREATE TABLE IF NOT EXISTS heartbeat_notification (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	timestamp  TEXT NOT NULL,
	process_id TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS heartbeat_notification_process_id_idx ON heartbeat_notification (process_id, id);
`

type SQLite struct {
	db *sql.DB
}

var _ Log = (*SQLite)(nil)

// OpenSQLite opens (creating if needed) a SQLite file. ":memory:" works for tests.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	d, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("audit: open sqlite: %w", err)
	}
	// one connection keeps :memory: databases shared and serializes writers
	d.SetMaxOpenConns(1)
	if _, err := d.ExecContext(ctx, sqliteSchema); err != nil {
		_ = d.Close()
		return nil, fmt.Errorf("audit: sqlite schema: %w", err)
	}
	return &SQLite{db: d}, nil
}

func (s *SQLite) Append(ctx context.Context, e Entry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO log (timestamp, process_id, run_id, message, is_error) VALUES (?, ?, ?, ?, ?)`,
		stamp(e.Timestamp).Format(time.RFC3339Nano), e.ProcessID, e.RunID, e.Message, e.IsError,
	)
	if err != nil {
		return fmt.Errorf("audit: append: %w", err)
	}
	return nil
}

func (s *SQLite) Recent(ctx context.Context, processID string, limit int) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, timestamp, process_id, run_id, message, is_error
		FROM log
		WHERE process_id = ?
		ORDER BY id DESC
		LIMIT ?
	`, processID, limit)
	if err != nil {
		return nil, fmt.Errorf("audit: recent: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Entry
	for rows.Next() {
		var (
			e  Entry
			ts string
		)
		if err := rows.Scan(&e.ID, &ts, &e.ProcessID, &e.RunID, &e.Message, &e.IsError); err != nil {
			return nil, fmt.Errorf("audit: recent: %w", err)
		}
		if e.Timestamp, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			return nil, fmt.Errorf("audit: recent: bad timestamp %q: %w", ts, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQLite) LatestHeartbeat(ctx context.Context, processID string) (Heartbeat, bool, error) {
	var ts string
	err := s.db.QueryRowContext(ctx, `
		SELECT timestamp FROM heartbeat_notification
		WHERE process_id = ?
		ORDER BY id DESC
		LIMIT 1
	`, processID).Scan(&ts)
	if errors.Is(err, sql.ErrNoRows) {
		return Heartbeat{}, false, nil
	}
	if err != nil {
		return Heartbeat{}, false, fmt.Errorf("audit: latest heartbeat: %w", err)
	}
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return Heartbeat{}, false, fmt.Errorf("audit: latest heartbeat: bad timestamp %q: %w", ts, err)
	}
	return Heartbeat{ProcessID: processID, Timestamp: t}, true, nil
}

func (s *SQLite) AppendHeartbeat(ctx context.Context, processID string, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO heartbeat_notification (timestamp, process_id) VALUES (?, ?)`,
		stamp(at).Format(time.RFC3339Nano), processID,
	)
	if err != nil {
		return fmt.Errorf("audit: append heartbeat: %w", err)
	}
	return nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
