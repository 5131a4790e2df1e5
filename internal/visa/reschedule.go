package visa

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/visa-scheduler/internal/domain/appointment"
	"github.com/example/visa-scheduler/internal/internaltypes"
	"github.com/example/visa-scheduler/internal/session"
)

type Rescheduler struct {
	t    session.Transport
	site Site
	wait time.Duration
	log  *slog.Logger
}

type rescheduleStep struct {
	name string
	run  func(ctx context.Context) error
}

// Reschedule moves the booked appointment to d, taking the first time offered.
// It is never retried: a failure past the first step may have already
// changed the remote booking.
func (r Rescheduler) Reschedule(ctx context.Context, d appointment.Date) error {
	sel := r.site.Selectors()
	steps := []rescheduleStep{
		{"set date", func(ctx context.Context) error {
			return r.evalTrue(ctx, setDateScript(sel.DateInput, d), sel.DateInput)
		}},
		{"open date picker", func(ctx context.Context) error { return r.t.Click(ctx, sel.DateInput) }},
		{"pick day", func(ctx context.Context) error { return r.t.Click(ctx, sel.ActiveDay) }},
		{"wait for times", func(ctx context.Context) error {
			return r.t.WaitAttached(ctx, sel.TimeSelect+" option:nth-child(2)")
		}},
		{"pick time", func(ctx context.Context) error {
			return r.evalTrue(ctx, selectFirstTimeScript(sel.TimeSelect), sel.TimeSelect)
		}},
		{"submit", func(ctx context.Context) error { return r.t.Click(ctx, sel.RescheduleSubmit) }},
		{"confirm", func(ctx context.Context) error { return r.t.Click(ctx, session.Text(sel.ConfirmText)) }},
	}

	for i, s := range steps {
		sctx, cancel := bounded(ctx, r.wait)
		err := s.run(sctx)
		cancel()
		if err != nil {
			r.log.Error("reschedule aborted; the booking may be partially changed, check the portal",
				"step", s.name, "step_index", i+1, "date", d.ISO(), "err", err)
			return fmt.Errorf("%w: %s: %w", internaltypes.ErrTransactionFailed, s.name, err)
		}
		r.log.Debug("reschedule step done", "step", s.name)
	}
	return nil
}

func (r Rescheduler) evalTrue(ctx context.Context, script, sel string) error {
	var ok bool
	if err := r.t.Evaluate(ctx, script, &ok); err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%s not found", sel)
	}
	return nil
}

// setDateScript writes d into the picker's backing input as YYYY-MM-DD.
func setDateScript(sel string, d appointment.Date) string {
	return fmt.Sprintf(`(() => { const el = document.querySelector(%s); if (!el) return false; el.value = %s; return true; })()`,
		jsString(sel), jsString(d.ISO()))
}

// selectFirstTimeScript picks the first entry after the placeholder.
func selectFirstTimeScript(sel string) string {
	return fmt.Sprintf(`(() => {
	const el = document.querySelector(%s);
	if (!el || el.options.length < 2) return false;
	el.selectedIndex = 1;
	el.dispatchEvent(new Event('change', { bubbles: true }));
	return true;
})()`, jsString(sel))
}

func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
