package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/visa-scheduler/internal/logging"
)

type failingLog struct{ Log }

func (failingLog) Append(context.Context, Entry) error { return errors.New("disk full") }

func TestRecorderWritesEntries(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	rec := NewRecorder(s, "p1", logging.Discard()).WithClock(func() time.Time { return now })
	rec.Info(ctx, "Process started")
	rec.Error(ctx, errors.New("login failed"))

	got, err := s.Recent(ctx, "p1", 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "login failed", got[0].Message)
	assert.True(t, got[0].IsError)
	assert.Equal(t, rec.RunID(), got[0].RunID)
	assert.NotEmpty(t, rec.RunID())
	assert.True(t, got[1].Timestamp.Equal(now))
}

func TestRecorderSurvivesAppendFailure(t *testing.T) {
	rec := NewRecorder(failingLog{}, "p1", logging.Discard())
	assert.NotPanics(t, func() { rec.Info(context.Background(), "x") })
}
