package main

import (
	"fmt"
	"strings"
	"time"

	"freight-tracker/internal/app"
	"freight-tracker/internal/core/httpclient"
	"freight-tracker/internal/features/reports"
	adapter "freight-tracker/internal/features/tracking/adapters"
	"freight-tracker/internal/features/tracking/domain"

	"github.com/spf13/cobra"
)

func newCarriersCommand(ctx *commandContext) *cobra.Command {
	var check bool
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "carriers",
		Short: "List supported carriers and the names that resolve to them",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			patterns := make(map[domain.Carrier][]string)
			for _, rule := range domain.CarrierRules() {
				patterns[rule.Carrier] = append(patterns[rule.Carrier], rule.Pattern)
			}

			health := make(map[domain.Carrier]string)
			if check {
				tracker, err := ctx.newTracker(cmd.Context(), cfg, app.Overrides{})
				if err != nil {
					return err
				}
				defer tracker.Close()

				client := httpclient.NewClient(timeout, httpclient.WithProxy(cfg.Proxy.Settings()))
				for _, h := range tracker.CheckCarriers(cmd.Context(), client) {
					health[h.Carrier] = "ok"
					if h.Err != nil {
						health[h.Carrier] = "unreachable: " + h.Err.Error()
					}
				}
			}

			headers := []string{"Code", "Carrier", "Matches", "Tracking page"}
			if check {
				headers = append(headers, "Status")
			}
			rows := make([][]string, 0, len(domain.KnownCarriers))
			for _, c := range domain.KnownCarriers {
				row := []string{
					c.String(),
					c.DisplayName(),
					strings.Join(patterns[c], ", "),
					adapter.TrackingPage(cfg.Carriers, c),
				}
				if check {
					row = append(row, health[c])
				}
				rows = append(rows, row)
			}

			fmt.Fprintln(cmd.OutOrStdout(), reports.RenderTable(headers, rows))
			return nil
		},
	}

	cmd.Flags().BoolVar(&check, "check", false, "Probe each tracking page")
	cmd.Flags().DurationVar(&timeout, "check-timeout", 15*time.Second, "Timeout for each probe")

	return cmd
}
