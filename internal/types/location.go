package types

// LocationCategory classifies a discovered place. The values are part of
// the response contract consumed by the map rendering frontend.
type LocationCategory string

const (
	CategoryHotel         LocationCategory = "hotel"
	CategoryRestaurant    LocationCategory = "restaurant"
	CategoryAttraction    LocationCategory = "attraction"
	CategorySpecificPlace LocationCategory = "specific_place"
)

// Priority orders categories for dedup tie-breaks: when the same place
// shows up under two categories, the higher priority one wins.
// specific_place > attraction > hotel > restaurant.
func (c LocationCategory) Priority() int {
	switch c {
	case CategorySpecificPlace:
		return 4
	case CategoryAttraction:
		return 3
	case CategoryHotel:
		return 2
	case CategoryRestaurant:
		return 1
	default:
		return 0
	}
}

// LocationRecord is the canonical shape for a single point of interest,
// regardless of which discovery query produced it. PlaceID is the stable
// external identifier used as the dedup key.
type LocationRecord struct {
	PlaceID   string           `json:"place_id"`
	Name      string           `json:"name"`
	Address   string           `json:"address"`
	Latitude  float64          `json:"lat"`
	Longitude float64          `json:"lng"`
	Rating    float64          `json:"rating"`  // 0.0-5.0, 0 if unknown
	Reviews   int              `json:"reviews"` // 0 if unknown
	Category  LocationCategory `json:"category"`
	Types     []string         `json:"types,omitempty"` // raw category list from the source API
}

// LocationBundle groups discovered places by category. One bundle is built
// per planning run and is never mutated once synthesis starts.
type LocationBundle struct {
	Hotels         []LocationRecord `json:"hotels"`
	Restaurants    []LocationRecord `json:"restaurants"`
	Attractions    []LocationRecord `json:"attractions"`
	SpecificPlaces []LocationRecord `json:"specific_places"`
}

// Add places a record into the slice matching its category.
func (b *LocationBundle) Add(rec LocationRecord) {
	switch rec.Category {
	case CategoryHotel:
		b.Hotels = append(b.Hotels, rec)
	case CategoryRestaurant:
		b.Restaurants = append(b.Restaurants, rec)
	case CategoryAttraction:
		b.Attractions = append(b.Attractions, rec)
	case CategorySpecificPlace:
		b.SpecificPlaces = append(b.SpecificPlaces, rec)
	}
}

// All returns every record in the bundle in category order.
func (b LocationBundle) All() []LocationRecord {
	out := make([]LocationRecord, 0, b.Count())
	out = append(out, b.SpecificPlaces...)
	out = append(out, b.Attractions...)
	out = append(out, b.Hotels...)
	out = append(out, b.Restaurants...)
	return out
}

func (b LocationBundle) Count() int {
	return len(b.Hotels) + len(b.Restaurants) + len(b.Attractions) + len(b.SpecificPlaces)
}

func (b LocationBundle) IsEmpty() bool {
	return b.Count() == 0
}
