package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/visa-scheduler/internal/audit"
	"github.com/example/visa-scheduler/internal/domain/appointment"
	"github.com/example/visa-scheduler/internal/logging"
	"github.com/example/visa-scheduler/internal/metrics"
	"github.com/example/visa-scheduler/internal/notify"
	"github.com/example/visa-scheduler/internal/session"
)

// Portal is the signed-in scheduling site.
type Portal interface {
	Login(ctx context.Context, c appointment.Credentials) error
	CurrentAppointmentDate(ctx context.Context) (appointment.Date, error)
	FindAvailableAppointments(ctx context.Context) ([]appointment.Date, error)
	Rescheduler
}

type HeartbeatSender interface {
	MaybeSendHeartbeat(ctx context.Context, store notify.HeartbeatStore, processID string, interval time.Duration) (bool, error)
}

type CheckRequest struct {
	Credentials appointment.Credentials
	// Bounds.Max, when nil, becomes the currently booked date.
	Bounds            appointment.Bounds
	Actions           appointment.Actions
	Heartbeat         bool
	HeartbeatInterval time.Duration
}

// CheckAppointments runs one full invocation: sign in, find an earlier day,
// act on it. The audit store and browser it opens are closed on every path.
type CheckAppointments struct {
	ProcessID   string
	OpenAudit   func(ctx context.Context) (audit.Log, error)
	OpenSession func(ctx context.Context) (session.Session, error)
	NewPortal   func(t session.Transport) Portal

	Notifier  Notifier        // optional
	Heartbeat HeartbeatSender // optional

	Metrics        *metrics.RunMetrics // optional
	PushgatewayURL string
	Logger         *slog.Logger
	Now            func() time.Time
}

func (u CheckAppointments) now() time.Time {
	if u.Now != nil {
		return u.Now()
	}
	return time.Now()
}

func (u CheckAppointments) Execute(ctx context.Context, req CheckRequest) appointment.Outcome {
	log := logging.OrDefault(u.Logger)
	start := u.now()

	store, err := u.OpenAudit(ctx)
	if err != nil {
		err = fmt.Errorf("open audit log: %w", err)
		log.Error("invocation failed", "process_id", u.ProcessID, "err", err)
		u.observe(ctx, log, err, 0, start)
		return appointment.Failed(err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Warn("closing audit log", "err", err)
		}
	}()

	rec := audit.NewRecorder(store, u.ProcessID, log)
	outcome, matches := u.run(ctx, log, rec, req)

	if !outcome.Succeeded() {
		rec.Error(ctx, outcome.Err())
	} else if req.Heartbeat {
		u.heartbeat(ctx, log, rec, store, req.HeartbeatInterval)
	}

	u.observe(ctx, log, outcome.Err(), matches, start)
	return outcome
}

func (u CheckAppointments) run(ctx context.Context, log *slog.Logger, rec *audit.Recorder, req CheckRequest) (appointment.Outcome, int) {
	if err := req.Credentials.Validate(); err != nil {
		return appointment.Failed(err), 0
	}

	sess, err := u.OpenSession(ctx)
	if err != nil {
		return appointment.Failed(fmt.Errorf("open browser: %w", err)), 0
	}
	defer func() {
		if err := sess.Close(); err != nil {
			log.Warn("closing browser", "err", err)
		}
	}()

	rec.Info(ctx, "Process started")
	portal := u.NewPortal(sess)

	if err := portal.Login(ctx, req.Credentials); err != nil {
		return appointment.Failed(err), 0
	}

	bounds := req.Bounds
	if bounds.Max == nil {
		current, err := portal.CurrentAppointmentDate(ctx)
		if err != nil {
			return appointment.Failed(err), 0
		}
		log.Info("current appointment", "date", current.ISO())
		bounds.Max = &current
	}

	candidates, err := portal.FindAvailableAppointments(ctx)
	if err != nil {
		return appointment.Failed(err), 0
	}

	matches := appointment.Filter(candidates, bounds)
	if len(matches) == 0 {
		const msg = "No appointment available"
		rec.Info(ctx, msg, "candidates", len(candidates))
		return appointment.Succeeded(msg), 0
	}

	chosen, extra := matches[0], matches[1:]
	found := fmt.Sprintf("Appointment available on %s", chosen)
	rec.Info(ctx, found, "date", chosen.ISO())
	if len(extra) > 0 {
		rec.Info(ctx, "Other available appointments: "+notify.JoinDates(extra))
	}

	if len(req.Actions) == 0 {
		rec.Info(ctx, "No action taken")
		return appointment.Succeeded(found), len(matches)
	}

	d := Dispatcher{Rescheduler: portal, Notifier: u.Notifier, Journal: rec}
	if err := d.Dispatch(ctx, chosen, extra, req.Actions); err != nil {
		return appointment.Failed(err), len(matches)
	}
	return appointment.Succeeded(found), len(matches)
}

func (u CheckAppointments) heartbeat(ctx context.Context, log *slog.Logger, rec *audit.Recorder, store audit.Log, interval time.Duration) {
	if u.Heartbeat == nil {
		log.Warn("heartbeat requested but no sender configured")
		return
	}
	sent, err := u.Heartbeat.MaybeSendHeartbeat(ctx, store, u.ProcessID, interval)
	if err != nil {
		log.Warn("heartbeat failed", "err", err)
		return
	}
	if sent {
		rec.Info(ctx, "Heartbeat notification sent")
	}
}

func (u CheckAppointments) observe(ctx context.Context, log *slog.Logger, err error, matches int, start time.Time) {
	if u.Metrics == nil {
		return
	}
	end := u.now()
	u.Metrics.ObserveRun(err, matches, end.Sub(start), end)
	if err := u.Metrics.Push(ctx, u.PushgatewayURL, u.ProcessID); err != nil {
		log.Warn("metrics push failed", "err", err)
	}
}
