package audit

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openMemory(t *testing.T) *SQLite {
	t.Helper()
	s, err := OpenSQLite(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteAppendAndRecent(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.Append(ctx, Entry{ProcessID: "p1", RunID: "r1", Timestamp: base, Message: "Process started"}))
	require.NoError(t, s.Append(ctx, Entry{ProcessID: "p1", RunID: "r1", Timestamp: base.Add(time.Second), Message: "boom", IsError: true}))
	require.NoError(t, s.Append(ctx, Entry{ProcessID: "p2", RunID: "r2", Timestamp: base, Message: "other"}))

	got, err := s.Recent(ctx, "p1", 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "boom", got[0].Message)
	assert.True(t, got[0].IsError)
	assert.Equal(t, "Process started", got[1].Message)
	assert.False(t, got[1].IsError)
	assert.True(t, got[1].Timestamp.Equal(base))
	assert.Equal(t, "r1", got[1].RunID)

	got, err = s.Recent(ctx, "p1", 1)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestSQLiteHeartbeat(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)

	_, ok, err := s.LatestHeartbeat(ctx, "p1")
	require.NoError(t, err)
	assert.False(t, ok)

	t1 := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)
	require.NoError(t, s.AppendHeartbeat(ctx, "p1", t1))
	require.NoError(t, s.AppendHeartbeat(ctx, "p1", t2))
	require.NoError(t, s.AppendHeartbeat(ctx, "p2", t2.Add(time.Hour)))

	hb, ok, err := s.LatestHeartbeat(ctx, "p1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, hb.Timestamp.Equal(t2))
	assert.Equal(t, "p1", hb.ProcessID)
}

func TestOpenDefaultsToSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.sqlite")
	l, err := Open(context.Background(), "sqlite:"+path, nil)
	require.NoError(t, err)
	defer l.Close()
	_, ok := l.(*SQLite)
	assert.True(t, ok)
	require.NoError(t, l.Append(context.Background(), Entry{ProcessID: "p", Message: "x"}))
}
