package session

import (
	"context"
	"errors"
	"time"
)

// Signal is one labeled element to wait for.
type Signal struct {
	Label    string
	Selector string
}

// FirstAttached waits for whichever signal attaches first and returns its
// label. The remaining waits are cancelled. If none attaches within
// timeout the error wraps ErrRemoteTimeout.
func FirstAttached(ctx context.Context, t Transport, timeout time.Duration, signals ...Signal) (string, error) {
	if len(signals) == 0 {
		return "", errors.New("session: no signals to wait for")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		label string
		err   error
	}
	results := make(chan result, len(signals))
	for _, s := range signals {
		go func(s Signal) {
			results <- result{label: s.Label, err: t.WaitAttached(ctx, s.Selector)}
		}(s)
	}

	var errs []error
	for range signals {
		r := <-results
		if r.err == nil {
			return r.label, nil
		}
		errs = append(errs, r.err)
	}
	if ctx.Err() != nil {
		return "", Classify(ctx.Err())
	}
	return "", errors.Join(errs...)
}
