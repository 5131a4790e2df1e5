package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/example/visa-scheduler/internal/db"
)

type Postgres struct {
	db *db.DB
}

var _ Log = (*Postgres)(nil)

func NewPostgres(d *db.DB) *Postgres {
	return &Postgres{db: d}
}

func (p *Postgres) Append(ctx context.Context, e Entry) error {
	err := p.db.Exec(ctx, `
		INSERT INTO log (timestamp, process_id, run_id, message, is_error)
		VALUES ($1, $2, $3, $4, $5)
	`, stamp(e.Timestamp), e.ProcessID, e.RunID, e.Message, e.IsError)
	if err != nil {
		return fmt.Errorf("audit: append: %w", err)
	}
	return nil
}

func (p *Postgres) Recent(ctx context.Context, processID string, limit int) ([]Entry, error) {
	rows, err := p.db.Query(ctx, `
		SELECT id, timestamp, process_id, run_id, message, is_error
		FROM log
		WHERE process_id=$1
		ORDER BY id DESC
		LIMIT $2
	`, processID, limit)
	if err != nil {
		return nil, fmt.Errorf("audit: recent: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.ProcessID, &e.RunID, &e.Message, &e.IsError); err != nil {
			return nil, fmt.Errorf("audit: recent: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (p *Postgres) LatestHeartbeat(ctx context.Context, processID string) (Heartbeat, bool, error) {
	var ts time.Time
	err := p.db.QueryRow(ctx, `
		SELECT timestamp FROM heartbeat_notification
		WHERE process_id=$1
		ORDER BY id DESC
		LIMIT 1
	`, processID).Scan(&ts)
	if err != nil {
		if db.IsNotFound(err) {
			return Heartbeat{}, false, nil
		}
		return Heartbeat{}, false, fmt.Errorf("audit: latest heartbeat: %w", err)
	}
	return Heartbeat{ProcessID: processID, Timestamp: ts}, true, nil
}

func (p *Postgres) AppendHeartbeat(ctx context.Context, processID string, at time.Time) error {
	err := p.db.Exec(ctx, `
		INSERT INTO heartbeat_notification (timestamp, process_id) VALUES ($1, $2)
	`, stamp(at), processID)
	if err != nil {
		return fmt.Errorf("audit: append heartbeat: %w", err)
	}
	return nil
}

func (p *Postgres) Close() error {
	p.db.Close()
	return nil
}
