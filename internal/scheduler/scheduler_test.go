package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/visa-scheduler/internal/domain/appointment"
	"github.com/example/visa-scheduler/internal/logging"
)

func TestRunKicksImmediatelyAndStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var runs atomic.Int32

	s := &Scheduler{
		Interval: time.Hour,
		Logger:   logging.Discard(),
		Check: func(context.Context) appointment.Outcome {
			runs.Add(1)
			cancel()
			return appointment.Succeeded("No appointment available")
		},
	}

	err := s.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(1), runs.Load())
}

func TestRunNeverOverlaps(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		mu       sync.Mutex
		active   int
		peak     int
		outcomes []appointment.Outcome
	)
	s := &Scheduler{
		Interval: 5 * time.Millisecond,
		Logger:   logging.Discard(),
		Check: func(context.Context) appointment.Outcome {
			mu.Lock()
			active++
			peak = max(peak, active)
			mu.Unlock()

			time.Sleep(20 * time.Millisecond)

			mu.Lock()
			active--
			mu.Unlock()
			return appointment.Failed(errors.New("portal down"))
		},
		OnOutcome: func(o appointment.Outcome) {
			mu.Lock()
			outcomes = append(outcomes, o)
			if len(outcomes) == 3 {
				cancel()
			}
			mu.Unlock()
		},
	}

	require.ErrorIs(t, s.Run(ctx), context.Canceled)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, peak)
	assert.Len(t, outcomes, 3)
	assert.False(t, outcomes[0].Succeeded())
}
