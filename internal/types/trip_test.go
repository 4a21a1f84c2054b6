package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRequest() TripRequest {
	return TripRequest{
		From:          "Delhi (DEL)",
		To:            "Mumbai (BOM)",
		DepartureDate: "2025-12-20",
		ReturnDate:    "2025-12-25",
		Passengers:    "2",
		Budget:        "mid",
	}
}

func TestTripRequest_Validate(t *testing.T) {
	t.Run("valid request", func(t *testing.T) {
		details, err := validRequest().Validate()
		require.NoError(t, err)
		assert.Equal(t, "Delhi", details.Origin)
		assert.Equal(t, "Mumbai", details.Destination)
		assert.Equal(t, 2, details.Passengers)
		assert.Equal(t, "mid", details.BudgetTier)
		assert.Equal(t, 5, details.Duration())
	})

	t.Run("duration is at least one day", func(t *testing.T) {
		req := validRequest()
		req.ReturnDate = "2025-12-21"
		details, err := req.Validate()
		require.NoError(t, err)
		assert.Equal(t, 1, details.Duration())
	})

	t.Run("return date equal to departure rejected", func(t *testing.T) {
		req := validRequest()
		req.ReturnDate = req.DepartureDate
		_, err := req.Validate()
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "returnDate", verr.Field)
	})

	t.Run("return before departure rejected", func(t *testing.T) {
		req := validRequest()
		req.ReturnDate = "2025-12-01"
		_, err := req.Validate()
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
	})

	t.Run("missing destination rejected", func(t *testing.T) {
		req := validRequest()
		req.To = ""
		_, err := req.Validate()
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "to", verr.Field)
	})

	t.Run("malformed date rejected", func(t *testing.T) {
		req := validRequest()
		req.DepartureDate = "20-12-2025"
		_, err := req.Validate()
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
	})

	t.Run("zero passengers rejected", func(t *testing.T) {
		req := validRequest()
		req.Passengers = "0"
		_, err := req.Validate()
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "passengers", verr.Field)
	})

	t.Run("empty passengers defaults to one", func(t *testing.T) {
		req := validRequest()
		req.Passengers = ""
		details, err := req.Validate()
		require.NoError(t, err)
		assert.Equal(t, 1, details.Passengers)
	})

	t.Run("budget tier is lowercased, not checked", func(t *testing.T) {
		req := validRequest()
		req.Budget = " Platinum "
		details, err := req.Validate()
		require.NoError(t, err)
		assert.Equal(t, "platinum", details.BudgetTier)
	})

	t.Run("specific places are trimmed and blanks dropped", func(t *testing.T) {
		req := validRequest()
		req.SpecificPlaces = []string{" Gateway of India ", "", "Marine Drive"}
		details, err := req.Validate()
		require.NoError(t, err)
		assert.Equal(t, []string{"Gateway of India", "Marine Drive"}, details.SpecificPlaces)
	})
}

func TestCleanPlace(t *testing.T) {
	assert.Equal(t, "Mumbai", cleanPlace("Mumbai (BOM)"))
	assert.Equal(t, "Delhi", cleanPlace(" Delhi "))
	assert.Equal(t, "New York", cleanPlace("New York (JFK)"))
	assert.Equal(t, "Goa", cleanPlace("Goa"))
}

func TestLocationBundle(t *testing.T) {
	var b LocationBundle
	assert.True(t, b.IsEmpty())

	b.Add(LocationRecord{PlaceID: "h1", Category: CategoryHotel})
	b.Add(LocationRecord{PlaceID: "r1", Category: CategoryRestaurant})
	b.Add(LocationRecord{PlaceID: "a1", Category: CategoryAttraction})
	b.Add(LocationRecord{PlaceID: "s1", Category: CategorySpecificPlace})

	assert.Equal(t, 4, b.Count())
	assert.False(t, b.IsEmpty())
	assert.Len(t, b.Hotels, 1)
	assert.Len(t, b.Restaurants, 1)

	// All lists specific places first, matching rendering precedence.
	all := b.All()
	require.Len(t, all, 4)
	assert.Equal(t, "s1", all[0].PlaceID)
}

func TestCategoryPriority(t *testing.T) {
	assert.Greater(t, CategorySpecificPlace.Priority(), CategoryAttraction.Priority())
	assert.Greater(t, CategoryAttraction.Priority(), CategoryHotel.Priority())
	assert.Greater(t, CategoryHotel.Priority(), CategoryRestaurant.Priority())
}
