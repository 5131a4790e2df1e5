package visa

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/example/visa-scheduler/internal/config"
	"github.com/example/visa-scheduler/internal/logging"
	"github.com/example/visa-scheduler/internal/retry"
	"github.com/example/visa-scheduler/internal/session/sessiontest"
)

const testProcessID = "123"

var testOptions = Options{
	Wait:         100 * time.Millisecond,
	SlotTimeout:  100 * time.Millisecond,
	MaxFormSteps: 3,
	Retry:        retry.Policy{Attempts: 3, Initial: time.Millisecond, MaxInterval: time.Millisecond},
	Logger:       logging.Discard(),
}

func testSite(t *testing.T) Site {
	t.Helper()
	s, err := NewSite(config.DefaultProfile(), testProcessID)
	require.NoError(t, err)
	return s
}

func newTestPortal(t *testing.T, f *sessiontest.Fake) *Portal {
	t.Helper()
	return NewPortal(f, testSite(t), testOptions)
}
