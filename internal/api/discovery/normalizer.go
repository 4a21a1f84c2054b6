package discovery

import (
	"fmt"

	"github.com/wanderplan/wanderplan/internal/types"
)

// Normalize maps raw Places results onto the canonical LocationRecord
// schema for one category. Pure and total: records missing a coordinate
// are dropped, never reported as errors, and missing rating/review fields
// default to their zero values. Duplicate identifiers within the input
// keep their first occurrence.
func Normalize(raw []RawPlace, category types.LocationCategory) []types.LocationRecord {
	out := make([]types.LocationRecord, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))

	for _, r := range raw {
		if r.Geometry.Location.Lat == nil || r.Geometry.Location.Lng == nil {
			continue // not placeable on a map
		}
		if r.Name == "" {
			continue
		}
		key := dedupKey(r)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		out = append(out, types.LocationRecord{
			PlaceID:   r.PlaceID,
			Name:      r.Name,
			Address:   r.FormattedAddress,
			Latitude:  *r.Geometry.Location.Lat,
			Longitude: *r.Geometry.Location.Lng,
			Rating:    r.Rating,
			Reviews:   r.UserRatingsTotal,
			Category:  category,
			Types:     r.Types,
		})
	}
	return out
}

// dedupKey prefers the stable external identifier; a source record without
// one falls back to name + coordinates so it can still be merged.
func dedupKey(r RawPlace) string {
	if r.PlaceID != "" {
		return r.PlaceID
	}
	return fmt.Sprintf("%s|%.5f|%.5f", r.Name, *r.Geometry.Location.Lat, *r.Geometry.Location.Lng)
}

// bundleBuilder accumulates normalized records across categories,
// deduplicating by external identifier. When the same place arrives under
// two categories the higher-priority category wins
// (specific_place > attraction > hotel > restaurant).
type bundleBuilder struct {
	byKey map[string]types.LocationRecord
	order []string
}

func newBundleBuilder() *bundleBuilder {
	return &bundleBuilder{byKey: make(map[string]types.LocationRecord)}
}

func (b *bundleBuilder) add(records []types.LocationRecord) {
	for _, rec := range records {
		key := rec.PlaceID
		if key == "" {
			key = fmt.Sprintf("%s|%.5f|%.5f", rec.Name, rec.Latitude, rec.Longitude)
		}
		existing, ok := b.byKey[key]
		if !ok {
			b.byKey[key] = rec
			b.order = append(b.order, key)
			continue
		}
		if rec.Category.Priority() > existing.Category.Priority() {
			existing.Category = rec.Category
			b.byKey[key] = existing
		}
	}
}

func (b *bundleBuilder) bundle() types.LocationBundle {
	var out types.LocationBundle
	for _, key := range b.order {
		out.Add(b.byKey[key])
	}
	return out
}
