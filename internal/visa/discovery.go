package visa

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/example/visa-scheduler/internal/domain/appointment"
	"github.com/example/visa-scheduler/internal/internaltypes"
	"github.com/example/visa-scheduler/internal/retry"
	"github.com/example/visa-scheduler/internal/session"
)

const stepMarker = "data-visasched-step"

const formMethodScript = `(() => { const f = document.querySelector('form'); return f ? String(f.method || '').toLowerCase() : ''; })()`

// custom checkboxes only react to clicks on their wrapper
const checkAllScript = `(() => {
	let n = 0;
	document.querySelectorAll('input[type=checkbox]').forEach(cb => {
		if (!cb.checked) { (cb.parentElement || cb).click(); n++; }
	});
	return n;
})()`

const markFormScript = `(() => { document.querySelectorAll('form').forEach(f => f.setAttribute('` + stepMarker + `', '1')); return true; })()`

type Discovery struct {
	t    session.Transport
	site Site
	opts Options
	log  *slog.Logger
}

// CurrentAppointmentDate reads the booked date from the dashboard.
func (d Discovery) CurrentAppointmentDate(ctx context.Context) (appointment.Date, error) {
	sel := d.site.Selectors().CurrentAppointment

	wctx, cancel := bounded(ctx, d.opts.Wait)
	defer cancel()
	if err := d.t.WaitAttached(wctx, sel); err != nil {
		return appointment.Date{}, fmt.Errorf("%w: %w", internaltypes.ErrCurrentAppointmentNotFound, err)
	}
	html, err := d.t.HTML(wctx)
	if err != nil {
		return appointment.Date{}, fmt.Errorf("visa: read dashboard: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return appointment.Date{}, fmt.Errorf("visa: parse dashboard: %w", err)
	}
	block := doc.Find(sel).Has(`a[href=` + cssString(d.site.ConsulateHref()) + `]`).First()
	text := strings.TrimSpace(block.Text())
	if text == "" {
		return appointment.Date{}, internaltypes.ErrCurrentAppointmentNotFound
	}
	return ExtractAppointmentDate(text)
}

// FindAvailableAppointments opens the scheduling page and returns the open
// days from its background slot-list response, earliest first.
func (d Discovery) FindAvailableAppointments(ctx context.Context) ([]appointment.Date, error) {
	// arm before navigating so a fast response is not missed
	waiter, err := d.t.ExpectResponse(ctx, d.site.SlotPattern())
	if err != nil {
		return nil, fmt.Errorf("visa: listen for slot list: %w", err)
	}
	defer waiter.Cancel()

	err = retry.Do(ctx, d.opts.Retry, d.log, "open appointment page", func(ctx context.Context) error {
		nctx, cancel := bounded(ctx, d.opts.Wait)
		defer cancel()
		return d.t.Navigate(nctx, d.site.AppointmentURL())
	})
	if err != nil {
		return nil, fmt.Errorf("visa: open appointment page: %w", err)
	}

	if err := d.handleMultiStepForm(ctx); err != nil {
		return nil, err
	}

	wctx, cancel := bounded(ctx, d.opts.SlotTimeout)
	defer cancel()
	body, err := waiter.Wait(wctx)
	if err != nil {
		return nil, fmt.Errorf("visa: waiting for slot list: %w", session.Classify(err))
	}

	dates, err := ParseSlots(body)
	if err != nil {
		return nil, err
	}
	if len(dates) == 0 {
		return nil, internaltypes.ErrNoAppointmentsAvailable
	}
	if !appointment.IsAscending(dates) {
		d.log.Warn("slot list was not in ascending order; sorting", "count", len(dates))
		dates = appointment.SortAscending(dates)
	}
	return dates, nil
}

// handleMultiStepForm acknowledges confirmation pages until the form stops
// being a GET form. Each pass checks every box and submits.
func (d Discovery) handleMultiStepForm(ctx context.Context) error {
	sel := d.site.Selectors()
	for step := 0; ; step++ {
		var method string
		if err := d.eval(ctx, formMethodScript, &method); err != nil {
			return fmt.Errorf("visa: inspect form: %w", err)
		}
		if method != "get" {
			return nil
		}
		if step >= d.opts.MaxFormSteps {
			return fmt.Errorf("%w: confirmation form still pending after %d steps", internaltypes.ErrRemoteTimeout, step)
		}

		var checked int
		if err := d.eval(ctx, checkAllScript, &checked); err != nil {
			return fmt.Errorf("visa: confirmation step %d: %w", step+1, err)
		}
		var marked bool
		if err := d.eval(ctx, markFormScript, &marked); err != nil {
			return fmt.Errorf("visa: confirmation step %d: %w", step+1, err)
		}
		d.log.Info("submitting confirmation step", "step", step+1, "checked", checked)

		wctx, cancel := bounded(ctx, d.opts.Wait)
		err := d.t.Click(wctx, sel.StepSubmit)
		if err == nil {
			err = d.t.WaitAttached(wctx, "form:not(["+stepMarker+"])")
		}
		cancel()
		if err != nil {
			return fmt.Errorf("visa: confirmation step %d: %w", step+1, err)
		}
	}
}

func (d Discovery) eval(ctx context.Context, script string, res any) error {
	ctx, cancel := bounded(ctx, d.opts.Wait)
	defer cancel()
	return d.t.Evaluate(ctx, script, res)
}
