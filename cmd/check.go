package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func newCheckCmd() *cobra.Command {
	var f checkFlags

	c := &cobra.Command{
		Use:   "check",
		Short: "Sign in once, look for an earlier appointment and act on it",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, req, err := newApp(&f)
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			out := a.check.Execute(ctx, req)
			if !out.Succeeded() {
				return out.Err()
			}
			fmt.Fprintln(cmd.OutOrStdout(), out.Message())
			return nil
		},
	}
	f.bind(c)
	return c
}
