package types

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// TripRequest is the wire payload accepted by the planning endpoint.
// Passengers arrives as a string because the original form posts it that
// way; Validate parses it.
type TripRequest struct {
	From           string   `json:"from"`
	To             string   `json:"to"`
	DepartureDate  string   `json:"departureDate"`
	ReturnDate     string   `json:"returnDate"`
	Passengers     string   `json:"passengers"`
	Budget         string   `json:"budget"`
	SpecificPlaces []string `json:"specificPlaces,omitempty"`
}

// TripDetails is the validated, parsed form of a TripRequest. Duration is
// always recomputed from the dates, never stored independently.
type TripDetails struct {
	Origin         string
	Destination    string
	DepartureDate  time.Time
	ReturnDate     time.Time
	Passengers     int
	BudgetTier     string
	SpecificPlaces []string
}

// Duration returns the trip length in whole days. Validate guarantees it
// is at least 1.
func (d TripDetails) Duration() int {
	return int(d.ReturnDate.Sub(d.DepartureDate).Hours() / 24)
}

var airportCode = regexp.MustCompile(`\s*\([^)]*\)`)

// cleanPlace strips parenthesized airport codes: "Mumbai (BOM)" -> "Mumbai".
func cleanPlace(s string) string {
	return strings.TrimSpace(airportCode.ReplaceAllString(s, ""))
}

// Validate checks the request invariants and returns the parsed trip
// details. Budget tier membership is not checked here; the budget
// resolver owns that table.
func (r TripRequest) Validate() (*TripDetails, error) {
	origin := cleanPlace(r.From)
	destination := cleanPlace(r.To)
	if destination == "" {
		return nil, &ValidationError{Field: "to", Message: "destination is required"}
	}
	if origin == "" {
		return nil, &ValidationError{Field: "from", Message: "origin is required"}
	}

	departure, err := time.Parse("2006-01-02", r.DepartureDate)
	if err != nil {
		return nil, &ValidationError{Field: "departureDate", Message: "must be an ISO date (YYYY-MM-DD)"}
	}
	ret, err := time.Parse("2006-01-02", r.ReturnDate)
	if err != nil {
		return nil, &ValidationError{Field: "returnDate", Message: "must be an ISO date (YYYY-MM-DD)"}
	}
	if !ret.After(departure) {
		return nil, &ValidationError{Field: "returnDate", Message: "must be after departure date"}
	}

	passengers := 1
	if strings.TrimSpace(r.Passengers) != "" {
		passengers, err = strconv.Atoi(strings.TrimSpace(r.Passengers))
		if err != nil {
			return nil, &ValidationError{Field: "passengers", Message: "must be a whole number"}
		}
	}
	if passengers < 1 {
		return nil, &ValidationError{Field: "passengers", Message: "must be at least 1"}
	}

	places := make([]string, 0, len(r.SpecificPlaces))
	for _, p := range r.SpecificPlaces {
		if p = strings.TrimSpace(p); p != "" {
			places = append(places, p)
		}
	}

	return &TripDetails{
		Origin:         origin,
		Destination:    destination,
		DepartureDate:  departure,
		ReturnDate:     ret,
		Passengers:     passengers,
		BudgetTier:     strings.ToLower(strings.TrimSpace(r.Budget)),
		SpecificPlaces: places,
	}, nil
}

// TravelPlan is the response object assembled by the orchestrator.
// Constructed once per request and immutable afterwards. The JSON field
// set is the compatibility contract with the frontend.
type TravelPlan struct {
	Success           bool           `json:"success"`
	Destination       string         `json:"destination"`
	Origin            string         `json:"origin"`
	Duration          int            `json:"duration"`
	Budget            int            `json:"budget"`
	Travelers         int            `json:"travelers"`
	ComprehensivePlan string         `json:"comprehensive_plan"`
	SearchResults     string         `json:"search_results"`
	MapsResults       LocationBundle `json:"maps_results"`
	GeneratedAt       string         `json:"generated_at"` // ISO-8601

	// Phases that degraded to empty results; logged and exported as
	// metrics, not part of the response contract.
	DegradedPhases []string `json:"-"`
}

// TravelPlanSummary is a row of the persisted plan history.
type TravelPlanSummary struct {
	ID          string `json:"id"`
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
	Duration    int    `json:"duration"`
	Budget      int    `json:"budget"`
	Travelers   int    `json:"travelers"`
	GeneratedAt string `json:"generated_at"`
}
