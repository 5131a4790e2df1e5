package session

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/example/visa-scheduler/internal/logging"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36"

// hides the most obvious automation marker from page scripts
const stealthScript = `Object.defineProperty(navigator, 'webdriver', {get: () => undefined});`

const urlPollInterval = 250 * time.Millisecond

type ChromeOptions struct {
	Headless  bool
	ExecPath  string
	UserAgent string
	Logger    *slog.Logger
}

// Chrome is a Session backed by a local Chrome driven over CDP.
type Chrome struct {
	tab         context.Context
	tabCancel   context.CancelFunc
	allocCancel context.CancelFunc
	log         *slog.Logger
}

var _ Session = (*Chrome)(nil)

// NewChrome launches a browser. ctx bounds startup only; the browser
// lives until Close.
func NewChrome(ctx context.Context, opts ChromeOptions) (*Chrome, error) {
	ua := opts.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent(ua),
		chromedp.WindowSize(1366, 900),
	)
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}

	log := logging.OrDefault(opts.Logger)
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.WithoutCancel(ctx), allocOpts...)
	tab, tabCancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(format string, args ...any) {
		log.Debug(fmt.Sprintf(format, args...), "component", "chromedp")
	}))

	c := &Chrome{tab: tab, tabCancel: tabCancel, allocCancel: allocCancel, log: log}
	err := c.run(ctx,
		network.Enable(),
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(stealthScript).Do(ctx)
			return err
		}),
	)
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("session: start browser: %w", err)
	}
	return c, nil
}

// run executes actions on the tab, bounded by ctx's deadline and cancellation.
func (c *Chrome) run(ctx context.Context, actions ...chromedp.Action) error {
	var (
		runCtx context.Context
		cancel context.CancelFunc
	)
	if deadline, ok := ctx.Deadline(); ok {
		runCtx, cancel = context.WithDeadline(c.tab, deadline)
	} else {
		runCtx, cancel = context.WithCancel(c.tab)
	}
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err != nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	return Classify(err)
}

func queryOpts(sel string) (string, []chromedp.QueryOption) {
	expr, isXPath := splitSelector(sel)
	if isXPath {
		return expr, []chromedp.QueryOption{chromedp.BySearch}
	}
	return expr, []chromedp.QueryOption{chromedp.ByQuery}
}

func (c *Chrome) Navigate(ctx context.Context, url string) error {
	c.log.Debug("navigate", "url", url)
	return c.run(ctx, chromedp.Navigate(url))
}

func (c *Chrome) Fill(ctx context.Context, sel, value string) error {
	expr, opts := queryOpts(sel)
	return c.run(ctx,
		chromedp.WaitVisible(expr, opts...),
		chromedp.Clear(expr, opts...),
		chromedp.SendKeys(expr, value, opts...),
	)
}

func (c *Chrome) Click(ctx context.Context, sel string) error {
	expr, opts := queryOpts(sel)
	return c.run(ctx, chromedp.Click(expr, opts...))
}

func (c *Chrome) WaitAttached(ctx context.Context, sel string) error {
	expr, opts := queryOpts(sel)
	return c.run(ctx, chromedp.WaitReady(expr, opts...))
}

func (c *Chrome) WaitURL(ctx context.Context, pattern *regexp.Regexp) error {
	t := time.NewTicker(urlPollInterval)
	defer t.Stop()
	for {
		var loc string
		if err := c.run(ctx, chromedp.Location(&loc)); err != nil {
			return err
		}
		if pattern.MatchString(loc) {
			return nil
		}
		select {
		case <-ctx.Done():
			return Classify(fmt.Errorf("waiting for url %s (at %s): %w", pattern, loc, ctx.Err()))
		case <-t.C:
		}
	}
}

func (c *Chrome) Evaluate(ctx context.Context, script string, res any) error {
	return c.run(ctx, chromedp.Evaluate(script, res))
}

func (c *Chrome) InnerText(ctx context.Context, sel string) (string, error) {
	expr, opts := queryOpts(sel)
	var s string
	err := c.run(ctx, chromedp.Text(expr, &s, opts...))
	return s, err
}

func (c *Chrome) HTML(ctx context.Context) (string, error) {
	var s string
	err := c.run(ctx, chromedp.OuterHTML("html", &s, chromedp.ByQuery))
	return s, err
}

func (c *Chrome) ExpectResponse(_ context.Context, pattern *regexp.Regexp) (ResponseWaiter, error) {
	lctx, lcancel := context.WithCancel(c.tab)
	w := &chromeWaiter{done: make(chan struct{}), cancel: lcancel}

	var (
		mu    sync.Mutex
		reqID network.RequestID
	)
	chromedp.ListenTarget(lctx, func(ev any) {
		switch e := ev.(type) {
		case *network.EventResponseReceived:
			if !pattern.MatchString(e.Response.URL) {
				return
			}
			mu.Lock()
			if reqID == "" {
				reqID = e.RequestID
				c.log.Debug("matched response", "url", e.Response.URL, "status", e.Response.Status)
			}
			mu.Unlock()
		case *network.EventLoadingFinished:
			mu.Lock()
			match := reqID != "" && e.RequestID == reqID
			mu.Unlock()
			if !match {
				return
			}
			// listeners must not block; fetch the body off the event loop
			go func(id network.RequestID) {
				var body []byte
				err := chromedp.Run(lctx, chromedp.ActionFunc(func(ctx context.Context) error {
					var err error
					body, err = network.GetResponseBody(id).Do(ctx)
					return err
				}))
				w.finish(body, err)
			}(e.RequestID)
		case *network.EventLoadingFailed:
			mu.Lock()
			match := reqID != "" && e.RequestID == reqID
			mu.Unlock()
			if match {
				w.finish(nil, fmt.Errorf("session: response failed: %s", e.ErrorText))
			}
		}
	})
	return w, nil
}

type chromeWaiter struct {
	once   sync.Once
	done   chan struct{}
	cancel context.CancelFunc
	body   []byte
	err    error
}

func (w *chromeWaiter) finish(body []byte, err error) {
	w.once.Do(func() {
		w.body, w.err = body, err
		close(w.done)
	})
}

func (w *chromeWaiter) Cancel() { w.cancel() }

func (w *chromeWaiter) Wait(ctx context.Context) ([]byte, error) {
	defer w.cancel()
	select {
	case <-w.done:
		return w.body, w.err
	case <-ctx.Done():
		return nil, Classify(fmt.Errorf("waiting for response: %w", ctx.Err()))
	}
}

func (c *Chrome) Close() error {
	err := chromedp.Cancel(c.tab)
	c.tabCancel()
	c.allocCancel()
	return err
}
