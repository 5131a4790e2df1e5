package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/visa-scheduler/internal/application/usecases"
	"github.com/example/visa-scheduler/internal/domain/appointment"
)

// checkFlags are shared by check and watch.
type checkFlags struct {
	headless  bool
	actions   []string
	minDate   string
	maxDate   string
	heartbeat bool
}

func (f *checkFlags) bind(c *cobra.Command) {
	c.Flags().BoolVar(&f.headless, "headless", false, "run the browser without a window")
	c.Flags().StringArrayVarP(&f.actions, "action", "a", nil, "action on an earlier date: notify or reschedule (repeatable)")
	c.Flags().StringVar(&f.minDate, "min-date", "", "earliest acceptable date, MM/DD/YYYY (inclusive)")
	c.Flags().StringVar(&f.maxDate, "max-date", "", "latest acceptable date, MM/DD/YYYY (exclusive); defaults to the booked date")
	c.Flags().BoolVar(&f.heartbeat, "heartbeat", false, "send a throttled still-running email after a successful check")
}

// request validates the flags. It runs before any store or browser is opened.
func (f *checkFlags) request() (usecases.CheckRequest, error) {
	var req usecases.CheckRequest

	actions, err := appointment.ParseActions(f.actions)
	if err != nil {
		return req, fmt.Errorf("--action: %w", err)
	}
	req.Actions = actions

	if f.minDate != "" {
		d, err := appointment.ParseUS(f.minDate)
		if err != nil {
			return req, fmt.Errorf("--min-date: %w", err)
		}
		req.Bounds.Min = &d
	}
	if f.maxDate != "" {
		d, err := appointment.ParseUS(f.maxDate)
		if err != nil {
			return req, fmt.Errorf("--max-date: %w", err)
		}
		req.Bounds.Max = &d
	}
	req.Heartbeat = f.heartbeat
	return req, nil
}
