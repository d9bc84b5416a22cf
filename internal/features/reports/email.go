package reports

import (
	"strings"

	"freight-tracker/internal/features/tracking/domain"
)

// UpdateEmailBody is the plain-text daily update: each BOL followed by its status phrase.
func UpdateEmailBody(greeting string, outcomes []domain.TrackingOutcome) string {
	lines := []string{greeting, ""}
	for _, o := range outcomes {
		lines = append(lines, o.BOL, StatusPhrase(o), "")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// PendingPickupBOLs returns the BOLs still waiting for pickup, in outcome order.
func PendingPickupBOLs(outcomes []domain.TrackingOutcome) []string {
	var bols []string
	for _, o := range outcomes {
		if o.StatusKind == domain.StatusPendingPickup {
			bols = append(bols, o.BOL)
		}
	}
	return bols
}

// PickupEmailBody asks the broker to confirm pickups for every pending BOL.
func PickupEmailBody(outcomes []domain.TrackingOutcome) string {
	bols := PendingPickupBOLs(outcomes)
	if len(bols) == 0 {
		return "Hi team,\n\nNo shipments are pending pickup today.\n\nRegards,"
	}

	lines := []string{
		"Hi team,",
		"",
		"Can you please confirm the following are on board for pickup today.",
		"",
	}
	lines = append(lines, bols...)
	lines = append(lines, "", "Regards,")
	return strings.Join(lines, "\n")
}
