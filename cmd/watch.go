package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/visa-scheduler/internal/domain/appointment"
	"github.com/example/visa-scheduler/internal/scheduler"
)

func newWatchCmd() *cobra.Command {
	var (
		f     checkFlags
		every time.Duration
	)

	c := &cobra.Command{
		Use:   "watch",
		Short: "Repeat the check on a fixed interval until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			if every < time.Minute {
				return fmt.Errorf("--every must be at least 1m")
			}
			a, req, err := newApp(&f)
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			s := &scheduler.Scheduler{
				Interval: every,
				Logger:   a.log,
				Check: func(ctx context.Context) appointment.Outcome {
					return a.check.Execute(ctx, req)
				},
			}
			if err := s.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
	f.bind(c)
	c.Flags().DurationVar(&every, "every", 15*time.Minute, "time between checks")
	return c
}
