package session

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/visa-scheduler/internal/internaltypes"
)

func TestText(t *testing.T) {
	assert.Equal(t, `xpath=//*[normalize-space(text())="Confirm"]`, Text("Confirm"))
	assert.Equal(t, `xpath=//*[normalize-space(text())='say "hi"']`, Text(`say "hi"`))
}

func TestSplitSelector(t *testing.T) {
	expr, isXPath := splitSelector("xpath=//a")
	assert.True(t, isXPath)
	assert.Equal(t, "//a", expr)

	expr, isXPath = splitSelector("#user_email")
	assert.False(t, isXPath)
	assert.Equal(t, "#user_email", expr)
}

func TestClassify(t *testing.T) {
	assert.NoError(t, Classify(nil))

	err := Classify(fmt.Errorf("wait: %w", context.DeadlineExceeded))
	assert.ErrorIs(t, err, internaltypes.ErrRemoteTimeout)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	other := errors.New("boom")
	assert.Equal(t, other, Classify(other))
	assert.Equal(t, err, Classify(err))
}

func TestChromeWaiterCancelReleasesListener(t *testing.T) {
	lctx, lcancel := context.WithCancel(context.Background())
	w := &chromeWaiter{done: make(chan struct{}), cancel: lcancel}

	w.Cancel()
	w.Cancel()
	assert.ErrorIs(t, lctx.Err(), context.Canceled)

	w.finish([]byte(`[]`), nil)
	w.finish([]byte(`ignored`), nil)
	body, err := w.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte(`[]`), body)
}
