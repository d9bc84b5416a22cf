package reports

import (
	"fmt"
	"strings"
	"time"

	"freight-tracker/internal/features/tracking/domain"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

const (
	// Title heads every text report.
	Title = "Tracking Results"

	shortDate = "01/02"
)

// ResultsFileName names the report written for a run started at t.
func ResultsFileName(t time.Time) string {
	return "tracking_results_" + t.Format("2006-01-02_15-04-05") + ".txt"
}

// StatusPhrase renders an outcome the way the daily update email words it.
func StatusPhrase(o domain.TrackingOutcome) string {
	switch o.StatusKind {
	case domain.StatusPendingPickup:
		return "not picked up"
	case domain.StatusDelivered:
		if o.ResolvedDate != nil {
			return "delivered on " + o.ResolvedDate.Format(shortDate)
		}
		return "delivered"
	case domain.StatusInTransit:
		if o.ResolvedDate != nil {
			return "eta is " + o.ResolvedDate.Format(shortDate)
		}
		return "in transit"
	case domain.StatusError:
		return "error: " + o.ErrorDetail
	default:
		return "unknown"
	}
}

// RenderText renders outcomes as a titled table. shipments supplies the raw
// carrier names, joined by BOL; outcomes without a matching shipment fall back
// to the carrier's display name.
func RenderText(shipments []domain.Shipment, outcomes []domain.TrackingOutcome, generatedAt time.Time) string {
	carrierNames := make(map[string]string, len(shipments))
	for _, s := range shipments {
		if s.CarrierRaw != "" {
			carrierNames[s.BOL] = s.CarrierRaw
		}
	}

	headers := []string{"BOL", "Carrier", "PRO", "Status"}
	rows := make([][]string, 0, len(outcomes))
	for _, o := range outcomes {
		carrier, ok := carrierNames[o.BOL]
		if !ok {
			carrier = o.Carrier.DisplayName()
		}
		pro := o.TrackingID
		if pro == "" {
			pro = "-"
		}
		rows = append(rows, []string{o.BOL, carrier, pro, StatusPhrase(o)})
	}

	var b strings.Builder
	b.WriteString(Title + "\n")
	b.WriteString("Generated: " + generatedAt.Format("2006-01-02 15:04:05") + "\n\n")
	if len(rows) == 0 {
		b.WriteString("No shipments needed tracking.\n")
		return b.String()
	}
	b.WriteString(RenderTable(headers, rows))
	b.WriteString("\n\n")
	b.WriteString(Summary(outcomes) + "\n")
	return b.String()
}

// Summary counts outcomes per status, e.g. "3 shipments: 1 delivered, 2 in transit".
func Summary(outcomes []domain.TrackingOutcome) string {
	counts := make(map[domain.StatusKind]int)
	for _, o := range outcomes {
		counts[o.StatusKind]++
	}

	order := []struct {
		kind  domain.StatusKind
		label string
	}{
		{domain.StatusDelivered, "delivered"},
		{domain.StatusInTransit, "in transit"},
		{domain.StatusPendingPickup, "pending pickup"},
		{domain.StatusUnknown, "unknown"},
		{domain.StatusError, "failed"},
	}

	parts := make([]string, 0, len(order))
	for _, o := range order {
		if n := counts[o.kind]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, o.label))
		}
	}

	noun := "shipments"
	if len(outcomes) == 1 {
		noun = "shipment"
	}
	if len(parts) == 0 {
		return fmt.Sprintf("%d %s", len(outcomes), noun)
	}
	return fmt.Sprintf("%d %s: %s", len(outcomes), noun, strings.Join(parts, ", "))
}

// RenderTable renders rows under headers as a rounded, left-aligned table.
func RenderTable(headers []string, rows [][]string) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, len(headers))
		for i := range headers {
			if i < len(row) {
				r[i] = row[i]
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, len(headers))
	for i := range headers {
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       text.AlignLeft,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}
