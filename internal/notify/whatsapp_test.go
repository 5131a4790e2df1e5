package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/visa-scheduler/internal/logging"
)

func twilioServer(t *testing.T, statuses ...string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var fetches atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		user, pass, ok := r.BasicAuth()
		if !ok || user != "AC123" || pass != "token" {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]any{"code": 20003, "message": "Authenticate"})
			return
		}
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/2010-04-01/Accounts/AC123/Messages.json":
			assert.NoError(t, r.ParseForm())
			assert.Equal(t, "whatsapp:+15550001111", r.PostForm.Get("From"))
			assert.Equal(t, "whatsapp:+15552223333", r.PostForm.Get("To"))
			assert.NotEmpty(t, r.PostForm.Get("Body"))
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(map[string]any{"sid": "SM1", "status": "queued"})
		case r.Method == http.MethodGet && r.URL.Path == "/2010-04-01/Accounts/AC123/Messages/SM1.json":
			i := int(fetches.Add(1)) - 1
			status := statuses[len(statuses)-1]
			if i < len(statuses) {
				status = statuses[i]
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"sid": "SM1", "status": status})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &fetches
}

func newTestWhatsApp(url, token string) *WhatsAppSender {
	return NewWhatsAppSender(
		WhatsAppConfig{AccountSID: "AC123", AuthToken: token, From: "+15550001111", To: "whatsapp:+15552223333"},
		WithBaseURL(url),
		WithDeliveryPoll(5*time.Millisecond, 200*time.Millisecond),
		WithWhatsAppLogger(logging.Discard()),
	)
}

func TestWhatsAppSendAndAwaitDelivered(t *testing.T) {
	srv, fetches := twilioServer(t, "sent", "delivered")
	msg, err := newTestWhatsApp(srv.URL, "token").SendAndAwait(context.Background(), "hello")
	require.NoError(t, err)
	assert.True(t, msg.Delivered())
	assert.Equal(t, int32(2), fetches.Load())
}

func TestWhatsAppPollIsBounded(t *testing.T) {
	srv, _ := twilioServer(t, "sent")
	start := time.Now()
	msg, err := newTestWhatsApp(srv.URL, "token").SendAndAwait(context.Background(), "hello")
	require.NoError(t, err)
	assert.False(t, msg.Delivered())
	assert.Equal(t, "sent", msg.Status)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestWhatsAppStopsOnFailedStatus(t *testing.T) {
	srv, fetches := twilioServer(t, "failed", "delivered")
	msg, err := newTestWhatsApp(srv.URL, "token").SendAndAwait(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "failed", msg.Status)
	assert.Equal(t, int32(1), fetches.Load())
}

func TestWhatsAppSendError(t *testing.T) {
	srv, _ := twilioServer(t, "sent")
	_, err := newTestWhatsApp(srv.URL, "wrong").Send(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.Contains(t, err.Error(), "Authenticate")
}
