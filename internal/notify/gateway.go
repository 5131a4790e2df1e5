package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/visa-scheduler/internal/audit"
	"github.com/example/visa-scheduler/internal/domain/appointment"
	"github.com/example/visa-scheduler/internal/internaltypes"
	"github.com/example/visa-scheduler/internal/logging"
)

const (
	appointmentSubject = "Visa appointment available"
	heartbeatSubject   = "Visa appointment scheduler is running"
)

type WhatsAppMessenger interface {
	SendAndAwait(ctx context.Context, body string) (Message, error)
}

// HeartbeatStore is the part of the audit log the heartbeat throttle needs.
type HeartbeatStore interface {
	LatestHeartbeat(ctx context.Context, processID string) (audit.Heartbeat, bool, error)
	AppendHeartbeat(ctx context.Context, processID string, at time.Time) error
}

// Receipt lists the channels a notification went out on.
type Receipt struct {
	Email             bool
	WhatsApp          bool
	WhatsAppDelivered bool
}

type Gateway struct {
	Email    EmailSender       // nil disables email
	WhatsApp WhatsAppMessenger // nil disables WhatsApp

	EmailTo     string
	HeartbeatTo string
	// LinkURL is where the operator can act on the notice.
	LinkURL string

	Now    func() time.Time
	Logger *slog.Logger
}

func (g *Gateway) now() time.Time {
	if g.Now != nil {
		return g.Now()
	}
	return time.Now()
}

func (g *Gateway) logger() *slog.Logger { return logging.OrDefault(g.Logger) }

func (g *Gateway) emailEnabled() bool { return g.Email != nil && g.EmailTo != "" }

// SendAppointmentNotification tells the operator about chosen and the other
// candidates. Every configured channel is tried; failures are joined.
func (g *Gateway) SendAppointmentNotification(ctx context.Context, chosen appointment.Date, extra []appointment.Date) (Receipt, error) {
	var r Receipt
	if !g.emailEnabled() && g.WhatsApp == nil {
		return r, fmt.Errorf("%w: set EMAIL_DESTINATION or the Twilio WhatsApp settings", internaltypes.ErrNotificationConfigMissing)
	}

	var errs []error
	if g.emailEnabled() {
		err := g.Email.Send(ctx, EmailMessage{
			To:      g.EmailTo,
			Subject: appointmentSubject,
			Body:    appointmentBody(chosen, extra, g.LinkURL),
		})
		if err != nil {
			errs = append(errs, err)
		} else {
			r.Email = true
		}
	}

	if g.WhatsApp != nil {
		msg, err := g.WhatsApp.SendAndAwait(ctx, whatsappBody(chosen, g.LinkURL))
		switch {
		case err != nil:
			errs = append(errs, err)
		case !msg.Delivered():
			r.WhatsApp = true
			g.logger().Warn("whatsapp message not confirmed delivered", "sid", msg.SID, "status", msg.Status)
		default:
			r.WhatsApp, r.WhatsAppDelivered = true, true
		}
	}

	return r, errors.Join(errs...)
}

// MaybeSendHeartbeat sends a liveness email when none was sent for
// processID yet, or the last one is older than interval.
func (g *Gateway) MaybeSendHeartbeat(ctx context.Context, store HeartbeatStore, processID string, interval time.Duration) (bool, error) {
	if g.Email == nil || g.HeartbeatTo == "" || interval <= 0 {
		return false, fmt.Errorf("%w: heartbeat needs an email sender, HEARTBEAT_DESTINATION and HEARTBEAT_TIME", internaltypes.ErrNotificationConfigMissing)
	}

	last, ok, err := store.LatestHeartbeat(ctx, processID)
	if err != nil {
		return false, err
	}
	now := g.now()
	if ok && now.Sub(last.Timestamp) <= interval {
		g.logger().Debug("heartbeat not due", "last", last.Timestamp, "interval", interval)
		return false, nil
	}

	err = g.Email.Send(ctx, EmailMessage{
		To:      g.HeartbeatTo,
		Subject: heartbeatSubject,
		Body:    fmt.Sprintf("The visa appointment scheduler for process %s is still running.\n\nChecked at %s.", processID, now.UTC().Format(time.RFC1123)),
	})
	if err != nil {
		return false, err
	}
	if err := store.AppendHeartbeat(ctx, processID, now); err != nil {
		return true, err
	}
	return true, nil
}

func appointmentBody(chosen appointment.Date, extra []appointment.Date, link string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "An earlier visa appointment is available on %s.\n", chosen)
	if len(extra) > 0 {
		fmt.Fprintf(&b, "\nOther available appointments: %s\n", JoinDates(extra))
	}
	if link != "" {
		fmt.Fprintf(&b, "\nSchedule it here: %s\n", link)
	}
	return b.String()
}

func whatsappBody(chosen appointment.Date, link string) string {
	s := fmt.Sprintf("Visa appointment available on %s.", chosen)
	if link != "" {
		s += " " + link
	}
	return s
}

// JoinDates renders dates as "a / b / c".
func JoinDates(ds []appointment.Date) string {
	parts := make([]string, len(ds))
	for i, d := range ds {
		parts[i] = d.String()
	}
	return strings.Join(parts, " / ")
}
