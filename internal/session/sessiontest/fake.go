// Package sessiontest provides a scripted session.Session for tests.
package sessiontest

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/example/visa-scheduler/internal/session"
)

type FillCall struct {
	Selector string
	Value    string
}

// Fake is a scripted browser. Unknown selectors never attach, so waits on
// them end with the caller's deadline.
type Fake struct {
	// Attached maps selector to the delay before it appears.
	Attached map[string]time.Duration
	// Errors forces Click, Fill and WaitAttached on a selector to fail.
	Errors map[string]error
	// EvalFunc answers Evaluate; its result is JSON round-tripped into res.
	EvalFunc    func(script string) (any, error)
	Page        string
	Texts       map[string]string
	Location    string
	NavigateErr error

	// Body is returned by the response waiter. With neither Body nor
	// BodyErr set, the waiter blocks until its context ends.
	Body    []byte
	BodyErr error

	mu           sync.Mutex
	navigations  []string
	fills        []FillCall
	clicks       []string
	evals        []string
	expectations []string
	cancels      int
	closed       int
}

var _ session.Session = (*Fake)(nil)

func (f *Fake) record(fn func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn()
}

func (f *Fake) selectorErr(sel string) error {
	if err, ok := f.Errors[sel]; ok {
		return err
	}
	return nil
}

func (f *Fake) Navigate(ctx context.Context, url string) error {
	f.record(func() { f.navigations = append(f.navigations, url) })
	if err := ctx.Err(); err != nil {
		return err
	}
	return f.NavigateErr
}

func (f *Fake) Fill(_ context.Context, sel, value string) error {
	f.record(func() { f.fills = append(f.fills, FillCall{Selector: sel, Value: value}) })
	return f.selectorErr(sel)
}

func (f *Fake) Click(_ context.Context, sel string) error {
	f.record(func() { f.clicks = append(f.clicks, sel) })
	return f.selectorErr(sel)
}

func (f *Fake) WaitAttached(ctx context.Context, sel string) error {
	if err := f.selectorErr(sel); err != nil {
		return err
	}
	delay, ok := f.Attached[sel]
	if !ok {
		<-ctx.Done()
		return session.Classify(ctx.Err())
	}
	t := time.NewTimer(delay)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return session.Classify(ctx.Err())
	}
}

func (f *Fake) WaitURL(ctx context.Context, pattern *regexp.Regexp) error {
	if pattern.MatchString(f.Location) {
		return nil
	}
	<-ctx.Done()
	return session.Classify(fmt.Errorf("url %q: %w", f.Location, ctx.Err()))
}

func (f *Fake) ExpectResponse(_ context.Context, pattern *regexp.Regexp) (session.ResponseWaiter, error) {
	f.record(func() { f.expectations = append(f.expectations, pattern.String()) })
	return waiter{f: f}, nil
}

type waiter struct{ f *Fake }

func (w waiter) Cancel() { w.f.record(func() { w.f.cancels++ }) }

func (w waiter) Wait(ctx context.Context) ([]byte, error) {
	if w.f.Body != nil || w.f.BodyErr != nil {
		return w.f.Body, w.f.BodyErr
	}
	<-ctx.Done()
	return nil, session.Classify(ctx.Err())
}

func (f *Fake) Evaluate(_ context.Context, script string, res any) error {
	f.record(func() { f.evals = append(f.evals, script) })
	if f.EvalFunc == nil {
		return nil
	}
	v, err := f.EvalFunc(script)
	if err != nil || res == nil {
		return err
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, res)
}

func (f *Fake) InnerText(_ context.Context, sel string) (string, error) {
	if err := f.selectorErr(sel); err != nil {
		return "", err
	}
	t, ok := f.Texts[sel]
	if !ok {
		return "", fmt.Errorf("sessiontest: no text for %q", sel)
	}
	return t, nil
}

func (f *Fake) HTML(context.Context) (string, error) { return f.Page, nil }

func (f *Fake) Close() error {
	f.record(func() { f.closed++ })
	return nil
}

func (f *Fake) Navigations() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.navigations...)
}

func (f *Fake) Fills() []FillCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]FillCall(nil), f.fills...)
}

func (f *Fake) Clicks() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.clicks...)
}

func (f *Fake) Evals() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.evals...)
}

// Expectations lists the response patterns that were armed.
func (f *Fake) Expectations() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.expectations...)
}

// WaiterCancels counts Cancel calls on armed response waiters.
func (f *Fake) WaiterCancels() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cancels
}

func (f *Fake) CloseCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// Calls counts every recorded interaction.
func (f *Fake) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.navigations) + len(f.fills) + len(f.clicks) + len(f.evals) + len(f.expectations)
}
