// Package audit keeps the append-only lifecycle log and heartbeat records.
package audit

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/visa-scheduler/internal/db"
	"github.com/example/visa-scheduler/internal/migrate"
)

type Entry struct {
	ID        int64
	ProcessID string
	RunID     string
	Timestamp time.Time
	Message   string
	IsError   bool
}

type Heartbeat struct {
	ProcessID string
	Timestamp time.Time
}

// Log is an append-only store partitioned by process id. Rows are never
// updated or deleted.
type Log interface {
	Append(ctx context.Context, e Entry) error
	// Recent returns up to limit entries, newest first.
	Recent(ctx context.Context, processID string, limit int) ([]Entry, error)
	// LatestHeartbeat reports false when no heartbeat was ever recorded.
	LatestHeartbeat(ctx context.Context, processID string) (Heartbeat, bool, error)
	AppendHeartbeat(ctx context.Context, processID string, at time.Time) error
	Close() error
}

// Open picks a backend from url: postgres:// and postgresql:// use
// Postgres with migrations applied; anything else is a SQLite path with
// an optional "sqlite:" prefix.
func Open(ctx context.Context, url string, log *slog.Logger) (Log, error) {
	if strings.HasPrefix(url, "postgres://") || strings.HasPrefix(url, "postgresql://") {
		d, err := db.Open(ctx, url)
		if err != nil {
			return nil, fmt.Errorf("audit: open postgres: %w", err)
		}
		return openPostgres(ctx, d, log)
	}

	path := strings.TrimPrefix(strings.TrimPrefix(url, "sqlite://"), "sqlite:")
	if path == "" {
		path = "db.sqlite"
	}
	return OpenSQLite(ctx, path)
}

// openPostgres checks the connection and applies migrations. d is closed
// on failure.
func openPostgres(ctx context.Context, d *db.DB, log *slog.Logger) (*Postgres, error) {
	// the pool connects lazily; fail here rather than on the first append
	if err := d.Ping(ctx); err != nil {
		d.Close()
		return nil, fmt.Errorf("audit: postgres ping: %w", err)
	}
	applied, err := migrate.Up(ctx, d)
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("audit: %w", err)
	}
	if len(applied) > 0 && log != nil {
		log.Info("applied migrations", "versions", applied)
	}
	return NewPostgres(d), nil
}

func stamp(t time.Time) time.Time {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC()
}
