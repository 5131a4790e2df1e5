package usecases

import (
	"context"
	"errors"
	"fmt"

	"github.com/example/visa-scheduler/internal/domain/appointment"
	"github.com/example/visa-scheduler/internal/internaltypes"
	"github.com/example/visa-scheduler/internal/notify"
)

type Rescheduler interface {
	Reschedule(ctx context.Context, d appointment.Date) error
}

type Notifier interface {
	SendAppointmentNotification(ctx context.Context, chosen appointment.Date, extra []appointment.Date) (notify.Receipt, error)
}

// Journal receives lifecycle messages; *audit.Recorder implements it.
type Journal interface {
	Info(ctx context.Context, msg string, attrs ...any)
}

// Dispatcher runs the requested actions for a chosen date. Both actions are
// always attempted; failures are joined.
type Dispatcher struct {
	Rescheduler Rescheduler
	Notifier    Notifier
	Journal     Journal
}

func (u Dispatcher) Dispatch(ctx context.Context, chosen appointment.Date, extra []appointment.Date, actions appointment.Actions) error {
	var errs []error

	if actions.Has(appointment.ActionNotify) {
		if err := u.notify(ctx, chosen, extra); err != nil {
			errs = append(errs, err)
		}
	}

	if actions.Has(appointment.ActionReschedule) {
		if u.Rescheduler == nil {
			errs = append(errs, fmt.Errorf("rescheduler is nil"))
		} else if err := u.Rescheduler.Reschedule(ctx, chosen); err != nil {
			errs = append(errs, err)
		} else {
			u.Journal.Info(ctx, fmt.Sprintf("Rescheduling completed, the new appointment date is %s", chosen), "date", chosen.ISO())
		}
	}

	return errors.Join(errs...)
}

func (u Dispatcher) notify(ctx context.Context, chosen appointment.Date, extra []appointment.Date) error {
	if u.Notifier == nil {
		return fmt.Errorf("%w: no notifier configured", internaltypes.ErrNotificationConfigMissing)
	}
	r, err := u.Notifier.SendAppointmentNotification(ctx, chosen, extra)
	if r.Email {
		u.Journal.Info(ctx, "Email notification sent")
	}
	if r.WhatsApp {
		u.Journal.Info(ctx, "WhatsApp notification sent", "delivered", r.WhatsAppDelivered)
	}
	return err
}
