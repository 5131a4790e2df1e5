package retry

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Policy bounds retries of one discrete remote operation.
type Policy struct {
	Attempts    int
	Initial     time.Duration
	MaxInterval time.Duration
}

func DefaultPolicy() Policy {
	return Policy{Attempts: 3, Initial: 500 * time.Millisecond, MaxInterval: 5 * time.Second}
}

// Do runs op until it succeeds, exhausts the policy, or ctx ends. The last
// error is returned.
func Do(ctx context.Context, p Policy, log *slog.Logger, name string, op func(context.Context) error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.Initial
	b.MaxInterval = p.MaxInterval
	b.MaxElapsedTime = 0

	var policy backoff.BackOff = b
	if p.Attempts > 1 {
		policy = backoff.WithMaxRetries(policy, uint64(p.Attempts-1))
	} else {
		policy = &backoff.StopBackOff{}
	}

	return backoff.RetryNotify(
		func() error { return op(ctx) },
		backoff.WithContext(policy, ctx),
		func(err error, wait time.Duration) {
			if log != nil {
				log.Warn("retrying", "op", name, "err", err, "wait", wait)
			}
		},
	)
}
