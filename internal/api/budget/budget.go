package budget

import (
	"fmt"

	"github.com/wanderplan/wanderplan/internal/types"
)

// Profile is the resolved spending envelope for a budget tier. Ceiling is
// the total trip budget in rupees; the per-category figures are guidance
// fed into the synthesis prompt, not enforced limits.
type Profile struct {
	Tier        string `json:"tier"`
	Ceiling     int    `json:"ceiling"`
	NightlyStay int    `json:"nightly_stay"`
	MealSpend   int    `json:"meal_spend"`
	Guidance    string `json:"guidance"`
}

// The tier table is fixed. There is deliberately no fallback tier: a
// silently substituted budget would corrupt the synthesis guidance.
var profiles = map[string]Profile{
	"budget": {
		Tier:        "budget",
		Ceiling:     10000,
		NightlyStay: 800,
		MealSpend:   250,
		Guidance:    "backpacker-tier: hostels or budget guesthouses, street food and local canteens, public transport",
	},
	"mid": {
		Tier:        "mid",
		Ceiling:     25000,
		NightlyStay: 2500,
		MealSpend:   600,
		Guidance:    "standard: 3-star hotels, mix of local restaurants and casual dining, occasional cabs",
	},
	"premium": {
		Tier:        "premium",
		Ceiling:     55000,
		NightlyStay: 6000,
		MealSpend:   1400,
		Guidance:    "upgraded: 4-star hotels, well-reviewed restaurants, private transport where convenient",
	},
	"luxury": {
		Tier:        "luxury",
		Ceiling:     100000,
		NightlyStay: 12000,
		MealSpend:   3000,
		Guidance:    "high-end: 5-star hotels or resorts, fine dining, chauffeured transport",
	},
}

// Resolve maps a tier label to its Profile. Pure and total over the fixed
// label set; anything else fails with ErrUnknownBudgetTier.
func Resolve(tier string) (Profile, error) {
	p, ok := profiles[tier]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %q", types.ErrUnknownBudgetTier, tier)
	}
	return p, nil
}
