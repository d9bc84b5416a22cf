package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"freight-tracker/internal/app"
	"freight-tracker/internal/features/reports"
	shipments "freight-tracker/internal/features/shipments/adapters"
	"freight-tracker/internal/features/tracking/domain"

	"github.com/spf13/cobra"
)

const defaultGreeting = "Hi team,"

type runOptions struct {
	csvPath  string
	asOf     string
	workers  int
	timeout  time.Duration
	out      string
	email    bool
	greeting string
}

func (o runOptions) overrides() (app.Overrides, error) {
	ov := app.Overrides{Workers: o.workers, Timeout: o.timeout}
	if o.asOf != "" {
		d, err := time.Parse(domain.DateLayout, o.asOf)
		if err != nil {
			return ov, fmt.Errorf("--as-of must be YYYY-MM-DD: %w", err)
		}
		ov.AsOf = &d
	}
	return ov, nil
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Track every eligible shipment in a CSV export and write a report",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			ov, err := opts.overrides()
			if err != nil {
				return err
			}

			sigCtx, cancel := signalContext(cmd.Context())
			defer cancel()

			list, err := loadShipments(opts.csvPath)
			if err != nil {
				return err
			}

			tracker, err := ctx.newTracker(sigCtx, cfg, ov)
			if err != nil {
				return err
			}
			defer tracker.Close()

			started := time.Now()
			outcomes, err := tracker.Orchestrator.Run(sigCtx, list)
			if err != nil {
				return err
			}

			path := opts.out
			if path == "" {
				path = reports.ResultsFileName(started)
			}
			if err := os.WriteFile(path, []byte(reports.RenderText(list, outcomes, started)), 0o644); err != nil {
				return fmt.Errorf("write report: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, reports.Summary(outcomes))
			fmt.Fprintf(out, "Report written to %s\n", path)
			if opts.email {
				printEmail(out, reports.UpdateEmailBody(opts.greeting, outcomes))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.csvPath, "csv", "", "Shipments CSV export")
	cmd.Flags().StringVar(&opts.asOf, "as-of", "", "Treat this date (YYYY-MM-DD) as today")
	cmd.Flags().IntVar(&opts.workers, "workers", 0, "Concurrent carrier lookups (default from TRACKER_WORKERS)")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "Per-lookup timeout (default from ADAPTER_TIMEOUT)")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "Report path (default tracking_results_<timestamp>.txt)")
	cmd.Flags().BoolVar(&opts.email, "email", false, "Also print the daily update email body")
	cmd.Flags().StringVar(&opts.greeting, "greeting", defaultGreeting, "First line of the update email")
	_ = cmd.MarkFlagRequired("csv")

	return cmd
}

func loadShipments(path string) ([]domain.Shipment, error) {
	records, err := shipments.NewCSVSource().ReadFile(path)
	if err != nil {
		return nil, err
	}
	return shipments.LoadShipments(records), nil
}

func printEmail(out io.Writer, body string) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, "----- email -----")
	fmt.Fprintln(out, body)
}
