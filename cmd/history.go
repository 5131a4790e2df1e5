package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/example/visa-scheduler/internal/audit"
	"github.com/example/visa-scheduler/internal/config"
	"github.com/example/visa-scheduler/internal/logging"
)

func newHistoryCmd() *cobra.Command {
	var limit int

	c := &cobra.Command{
		Use:   "history",
		Short: "Show recent audit log entries for VISA_PROCESS_ID",
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 1 {
				return fmt.Errorf("--limit must be positive")
			}
			pid := os.Getenv("VISA_PROCESS_ID")
			if pid == "" {
				return fmt.Errorf("VISA_PROCESS_ID is required")
			}
			url := os.Getenv("DATABASE_URL")
			if url == "" {
				url = config.DefaultDatabaseURL
			}

			ctx := context.Background()
			store, err := audit.Open(ctx, url, logging.Discard())
			if err != nil {
				return err
			}
			defer store.Close()

			es, err := store.Recent(ctx, pid, limit)
			if err != nil {
				return err
			}
			renderHistory(cmd, es)
			return nil
		},
	}
	c.Flags().IntVar(&limit, "limit", 20, "number of entries to show")
	return c
}

func renderHistory(cmd *cobra.Command, es []audit.Entry) {
	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.AppendHeader(table.Row{"Time", "Run", "Level", "Message"})
	for _, e := range es {
		level := "info"
		if e.IsError {
			level = "error"
		}
		run := e.RunID
		if len(run) > 8 {
			run = run[:8]
		}
		t.AppendRow(table.Row{e.Timestamp.Local().Format(time.DateTime), run, level, e.Message})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
}
