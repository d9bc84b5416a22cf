package main

import (
	"freight-tracker/internal/features/reports"
	"freight-tracker/internal/features/tracking/domain"

	"github.com/spf13/cobra"
)

func newPickupCommand(ctx *commandContext) *cobra.Command {
	var csvPath string
	var asOf string

	cmd := &cobra.Command{
		Use:   "pickup",
		Short: "Print the pickup confirmation email for shipments without a PRO number",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			ov, err := runOptions{asOf: asOf}.overrides()
			if err != nil {
				return err
			}

			list, err := loadShipments(csvPath)
			if err != nil {
				return err
			}

			// Shipments without a PRO never reach a carrier site.
			var pending []domain.Shipment
			for _, s := range list {
				if !s.HasTrackingID() {
					pending = append(pending, s)
				}
			}

			var outcomes []domain.TrackingOutcome
			if len(pending) > 0 {
				tracker, err := ctx.newTracker(cmd.Context(), cfg, ov)
				if err != nil {
					return err
				}
				defer tracker.Close()

				outcomes, err = tracker.Orchestrator.Run(cmd.Context(), pending)
				if err != nil {
					return err
				}
			}

			printEmail(cmd.OutOrStdout(), reports.PickupEmailBody(outcomes))
			return nil
		},
	}

	cmd.Flags().StringVar(&csvPath, "csv", "", "Shipments CSV export")
	cmd.Flags().StringVar(&asOf, "as-of", "", "Treat this date (YYYY-MM-DD) as today")
	_ = cmd.MarkFlagRequired("csv")

	return cmd
}
