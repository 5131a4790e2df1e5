package visa

import (
	"context"
	"log/slog"
	"time"

	"github.com/example/visa-scheduler/internal/domain/appointment"
	"github.com/example/visa-scheduler/internal/logging"
	"github.com/example/visa-scheduler/internal/retry"
	"github.com/example/visa-scheduler/internal/session"
)

type Options struct {
	// Wait bounds each element wait and navigation.
	Wait time.Duration
	// SlotTimeout bounds the wait for the slot-list response.
	SlotTimeout  time.Duration
	MaxFormSteps int
	Retry        retry.Policy
	Logger       *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.Wait <= 0 {
		o.Wait = 30 * time.Second
	}
	if o.SlotTimeout <= 0 {
		o.SlotTimeout = 30 * time.Second
	}
	if o.MaxFormSteps <= 0 {
		o.MaxFormSteps = 5
	}
	if o.Retry.Attempts == 0 {
		o.Retry = retry.DefaultPolicy()
	}
	o.Logger = logging.OrDefault(o.Logger)
	return o
}

// Portal is the signed-in view of one applicant's schedule.
type Portal struct {
	auth  Authenticator
	disc  Discovery
	resch Rescheduler
}

func NewPortal(t session.Transport, site Site, opts Options) *Portal {
	opts = opts.withDefaults()
	return &Portal{
		auth:  Authenticator{t: t, site: site, wait: opts.Wait, log: opts.Logger},
		disc:  Discovery{t: t, site: site, opts: opts, log: opts.Logger},
		resch: Rescheduler{t: t, site: site, wait: opts.Wait, log: opts.Logger},
	}
}

func (p *Portal) Login(ctx context.Context, c appointment.Credentials) error {
	return p.auth.Login(ctx, c)
}

func (p *Portal) CurrentAppointmentDate(ctx context.Context) (appointment.Date, error) {
	return p.disc.CurrentAppointmentDate(ctx)
}

func (p *Portal) FindAvailableAppointments(ctx context.Context) ([]appointment.Date, error) {
	return p.disc.FindAvailableAppointments(ctx)
}

func (p *Portal) Reschedule(ctx context.Context, d appointment.Date) error {
	return p.resch.Reschedule(ctx, d)
}

func bounded(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, d)
}
