package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/example/visa-scheduler/internal/logging"
)

// Recorder writes lifecycle entries for one invocation and mirrors them to
// the logger. A failed append is logged and otherwise ignored.
type Recorder struct {
	log       Log
	processID string
	runID     string
	now       func() time.Time
	logger    *slog.Logger
}

func NewRecorder(l Log, processID string, logger *slog.Logger) *Recorder {
	runID := uuid.NewString()
	return &Recorder{
		log:       l,
		processID: processID,
		runID:     runID,
		now:       time.Now,
		logger:    logging.OrDefault(logger).With("process_id", processID, "run_id", runID),
	}
}

// WithClock replaces the timestamp source.
func (r *Recorder) WithClock(now func() time.Time) *Recorder {
	r.now = now
	return r
}

func (r *Recorder) RunID() string { return r.runID }

func (r *Recorder) Info(ctx context.Context, msg string, attrs ...any) {
	r.logger.InfoContext(ctx, msg, attrs...)
	r.append(ctx, msg, false)
}

func (r *Recorder) Error(ctx context.Context, err error) {
	r.logger.ErrorContext(ctx, "invocation failed", "err", err)
	r.append(ctx, err.Error(), true)
}

func (r *Recorder) append(ctx context.Context, msg string, isErr bool) {
	err := r.log.Append(ctx, Entry{
		ProcessID: r.processID,
		RunID:     r.runID,
		Timestamp: r.now(),
		Message:   msg,
		IsError:   isErr,
	})
	if err != nil {
		r.logger.WarnContext(ctx, "audit append failed", "err", err, "message", msg)
	}
}
