package synthesis

import (
	"fmt"
	"strings"

	"github.com/wanderplan/wanderplan/internal/api/budget"
	"github.com/wanderplan/wanderplan/internal/types"
)

// maxResearchChars bounds the research excerpt embedded in the prompt so
// the model's input budget is never blown by a verbose search answer.
const maxResearchChars = 6000

func buildItineraryPrompt(details types.TripDetails, profile budget.Profile, researchText string, bundle types.LocationBundle) string {
	duration := details.Duration()

	return fmt.Sprintf(`Create a detailed %d-day travel plan for %s.

TRIP DETAILS:
- Origin: %s
- Destination: %s
- Duration: %d days
- Budget: ₹%d total for the whole trip
- Travelers: %d
- Dates: %s to %s

BUDGET GUIDANCE (%s tier):
- Accommodation: around ₹%d per night
- Meals: around ₹%d per person per meal
- Style: %s

DESTINATION RESEARCH:
%s

VERIFIED PLACES (from live map data, prefer these when naming places):
%s

Create a comprehensive plan with:
1. Executive Summary
2. Day-by-day detailed itinerary with timings (label each day "Day 1", "Day 2", ...)
3. Accommodation recommendations (3-4 options)
4. Transportation guide
5. Food & dining suggestions
6. Complete budget breakdown
7. Practical tips
8. Backup plans

Ensure the plan stays within ₹%d and includes specific costs in Indian Rupees.`,
		duration, details.Destination,
		details.Origin, details.Destination, duration,
		profile.Ceiling, details.Passengers,
		details.DepartureDate.Format("2006-01-02"), details.ReturnDate.Format("2006-01-02"),
		profile.Tier, profile.NightlyStay, profile.MealSpend, profile.Guidance,
		truncate(researchText, maxResearchChars),
		formatLocations(bundle),
		profile.Ceiling)
}

// formatLocations renders the bundle as a compact listing for the prompt.
// Coordinates are deliberately left out; they matter to the map, not to
// the itinerary text.
func formatLocations(bundle types.LocationBundle) string {
	if bundle.IsEmpty() {
		return "(no live map data available for this destination)"
	}

	var sb strings.Builder
	sections := []struct {
		heading string
		records []types.LocationRecord
	}{
		{"Requested places", bundle.SpecificPlaces},
		{"Attractions", bundle.Attractions},
		{"Hotels", bundle.Hotels},
		{"Restaurants", bundle.Restaurants},
	}
	for _, sec := range sections {
		if len(sec.records) == 0 {
			continue
		}
		fmt.Fprintf(&sb, "%s:\n", sec.heading)
		for _, rec := range sec.records {
			fmt.Fprintf(&sb, "- %s, %s", rec.Name, rec.Address)
			if rec.Rating > 0 {
				fmt.Fprintf(&sb, " (rated %.1f, %d reviews)", rec.Rating, rec.Reviews)
			}
			sb.WriteString("\n")
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "\n[...research truncated...]"
}
