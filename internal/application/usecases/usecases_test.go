package usecases

import (
	"context"
	"sync"
	"time"

	"github.com/example/visa-scheduler/internal/audit"
	"github.com/example/visa-scheduler/internal/domain/appointment"
	"github.com/example/visa-scheduler/internal/notify"
)

var (
	may10  = appointment.NewDate(2024, time.May, 10)
	may20  = appointment.NewDate(2024, time.May, 20)
	june15 = appointment.NewDate(2024, time.June, 15)
)

type sentNotice struct {
	Chosen appointment.Date
	Extra  []appointment.Date
}

type fakeNotifier struct {
	mu      sync.Mutex
	sent    []sentNotice
	receipt notify.Receipt
	err     error

	heartbeats int
	hbSent     bool
	hbErr      error
}

func (n *fakeNotifier) SendAppointmentNotification(_ context.Context, chosen appointment.Date, extra []appointment.Date) (notify.Receipt, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentNotice{Chosen: chosen, Extra: extra})
	return n.receipt, n.err
}

func (n *fakeNotifier) MaybeSendHeartbeat(context.Context, notify.HeartbeatStore, string, time.Duration) (bool, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.heartbeats++
	return n.hbSent, n.hbErr
}

type fakeRescheduler struct {
	calls []appointment.Date
	err   error
}

func (r *fakeRescheduler) Reschedule(_ context.Context, d appointment.Date) error {
	r.calls = append(r.calls, d)
	return r.err
}

type memJournal struct {
	msgs []string
}

func (j *memJournal) Info(_ context.Context, msg string, _ ...any) { j.msgs = append(j.msgs, msg) }

// sharedStore keeps the in-memory database alive after the use case closes it.
type sharedStore struct {
	audit.Log
	closed int
}

func (s *sharedStore) Close() error {
	s.closed++
	return nil
}
