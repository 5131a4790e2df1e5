package visa

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/example/visa-scheduler/internal/domain/appointment"
	"github.com/example/visa-scheduler/internal/internaltypes"
	"github.com/example/visa-scheduler/internal/session"
)

const (
	outcomeSuccess   = "success"
	outcomeFormError = "form-error"
	outcomeBlocked   = "blocked"
)

type Authenticator struct {
	t    session.Transport
	site Site
	wait time.Duration
	log  *slog.Logger
}

// Login signs in once. Every failure after the credential check wraps
// ErrLoginFailed; there are no retries.
func (a Authenticator) Login(ctx context.Context, c appointment.Credentials) error {
	if err := c.Validate(); err != nil {
		return err
	}
	sel := a.site.Selectors()

	fail := func(step string, err error) error {
		return fmt.Errorf("%w: %s: %w", internaltypes.ErrLoginFailed, step, err)
	}

	if err := a.do(ctx, func(ctx context.Context) error { return a.t.Navigate(ctx, a.site.SignInURL()) }); err != nil {
		return fail("open sign-in page", err)
	}
	if err := a.do(ctx, func(ctx context.Context) error { return a.t.Fill(ctx, sel.Email, c.Identity) }); err != nil {
		return fail("fill identity", err)
	}
	if err := a.do(ctx, func(ctx context.Context) error { return a.t.Fill(ctx, sel.Password, c.Secret) }); err != nil {
		return fail("fill secret", err)
	}

	// the consent box is visually hidden, so click it from the page
	var clicked bool
	err := a.do(ctx, func(ctx context.Context) error {
		return a.t.Evaluate(ctx, clickScript(sel.PolicyCheckbox), &clicked)
	})
	if err != nil {
		return fail("accept policy", err)
	}
	if !clicked {
		return fail("accept policy", fmt.Errorf("%s not found", sel.PolicyCheckbox))
	}

	if err := a.do(ctx, func(ctx context.Context) error { return a.t.Click(ctx, sel.SignInSubmit) }); err != nil {
		return fail("submit", err)
	}

	outcome, err := session.FirstAttached(ctx, a.t, a.wait,
		session.Signal{Label: outcomeSuccess, Selector: a.site.SignOutSelector()},
		session.Signal{Label: outcomeFormError, Selector: sel.FormError},
		session.Signal{Label: outcomeBlocked, Selector: sel.BlockedPopup},
	)
	if err != nil {
		return fail("waiting for sign-in outcome", err)
	}
	a.log.Debug("sign-in outcome", "outcome", outcome)

	switch outcome {
	case outcomeSuccess:
	case outcomeFormError:
		return fmt.Errorf("%w: credentials rejected%s", internaltypes.ErrLoginFailed, a.detail(ctx, sel.FormError))
	default:
		return fmt.Errorf("%w: blocked by portal popup%s", internaltypes.ErrLoginFailed, a.detail(ctx, sel.BlockedPopup))
	}

	if err := a.do(ctx, func(ctx context.Context) error { return a.t.WaitURL(ctx, a.site.GroupsPattern()) }); err != nil {
		return fail("waiting for dashboard", err)
	}
	return nil
}

func (a Authenticator) do(ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := bounded(ctx, a.wait)
	defer cancel()
	return fn(ctx)
}

// detail best-effort reads the text of the element that ended the race.
func (a Authenticator) detail(ctx context.Context, sel string) string {
	ctx, cancel := bounded(ctx, a.wait)
	defer cancel()
	text, err := a.t.InnerText(ctx, sel)
	if err != nil || text == "" {
		return ""
	}
	return ": " + strconv.Quote(text)
}

func clickScript(sel string) string {
	return fmt.Sprintf(`(() => { const el = document.querySelector(%s); if (!el) return false; el.click(); return true; })()`, jsString(sel))
}
