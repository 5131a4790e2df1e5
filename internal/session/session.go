// Package session drives a real browser tab for the portal flow.
package session

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/example/visa-scheduler/internal/internaltypes"
)

// Transport is the set of browser primitives the portal flow needs.
// Selectors are CSS unless prefixed with "xpath=".
type Transport interface {
	Navigate(ctx context.Context, url string) error
	Fill(ctx context.Context, sel, value string) error
	Click(ctx context.Context, sel string) error
	// WaitAttached blocks until sel is present in the DOM or ctx ends.
	WaitAttached(ctx context.Context, sel string) error
	WaitURL(ctx context.Context, pattern *regexp.Regexp) error
	// ExpectResponse must be called before the action that triggers the request.
	ExpectResponse(ctx context.Context, pattern *regexp.Regexp) (ResponseWaiter, error)
	// Evaluate runs script in the page and decodes its JSON result into res.
	Evaluate(ctx context.Context, script string, res any) error
	InnerText(ctx context.Context, sel string) (string, error)
	HTML(ctx context.Context) (string, error)
}

// ResponseWaiter delivers one armed response. Cancel releases the listener
// and is safe to call more than once, including after Wait.
type ResponseWaiter interface {
	Wait(ctx context.Context) ([]byte, error)
	Cancel()
}

// Session is a Transport that owns a browser and must be closed.
type Session interface {
	Transport
	Close() error
}

const xpathPrefix = "xpath="

// XPath marks expr as an XPath selector.
func XPath(expr string) string { return xpathPrefix + expr }

// Text selects the innermost element whose trimmed text is exactly s.
func Text(s string) string {
	return XPath(fmt.Sprintf(`//*[normalize-space(text())=%s]`, xpathLiteral(s)))
}

func splitSelector(sel string) (expr string, isXPath bool) {
	if strings.HasPrefix(sel, xpathPrefix) {
		return strings.TrimPrefix(sel, xpathPrefix), true
	}
	return sel, false
}

func xpathLiteral(s string) string {
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	parts := strings.Split(s, `"`)
	return `concat("` + strings.Join(parts, `", '"', "`) + `")`
}

// Classify turns context deadlines into ErrRemoteTimeout.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, internaltypes.ErrRemoteTimeout) {
		return fmt.Errorf("%w: %w", internaltypes.ErrRemoteTimeout, err)
	}
	return err
}
