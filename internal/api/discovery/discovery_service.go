package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wanderplan/wanderplan/internal/types"
)

var _ Service = (*ServiceImpl)(nil)

// Service finds hotels, restaurants, attractions and explicitly named
// places around a destination and returns them as one normalized bundle.
type Service interface {
	Discover(ctx context.Context, destination string, specificPlaces []string) (types.LocationBundle, error)
}

type ServiceImpl struct {
	logger         *slog.Logger
	client         PlacesClient
	maxPerCategory int
}

func NewServiceImpl(client PlacesClient, maxPerCategory int, logger *slog.Logger) *ServiceImpl {
	if maxPerCategory <= 0 {
		maxPerCategory = 5
	}
	return &ServiceImpl{
		logger:         logger,
		client:         client,
		maxPerCategory: maxPerCategory,
	}
}

type categoryQuery struct {
	category types.LocationCategory
	query    string
	limit    int
}

type categoryResult struct {
	category types.LocationCategory
	records  []types.LocationRecord
	err      error
}

// Discover fans one text search out per category (plus one per named
// place), joins, and merges the results into a deduplicated bundle. A
// failed category is logged and skipped; the call errs with
// ErrDiscoveryUnavailable only when every query failed.
func (s *ServiceImpl) Discover(ctx context.Context, destination string, specificPlaces []string) (types.LocationBundle, error) {
	ctx, span := otel.Tracer("DiscoveryService").Start(ctx, "Discover", trace.WithAttributes(
		attribute.String("destination", destination),
		attribute.Int("specific_places", len(specificPlaces)),
	))
	defer span.End()

	queries := []categoryQuery{
		{types.CategoryHotel, fmt.Sprintf("hotels in %s", destination), s.maxPerCategory},
		{types.CategoryRestaurant, fmt.Sprintf("restaurants in %s", destination), s.maxPerCategory},
		{types.CategoryAttraction, fmt.Sprintf("tourist attractions in %s", destination), s.maxPerCategory},
	}
	for _, place := range specificPlaces {
		// targeted lookup, keep only the best match per named place
		queries = append(queries, categoryQuery{types.CategorySpecificPlace, fmt.Sprintf("%s, %s", place, destination), 1})
	}

	resultCh := make(chan categoryResult, len(queries))
	var wg sync.WaitGroup
	for _, q := range queries {
		wg.Add(1)
		go func(q categoryQuery) {
			defer wg.Done()
			raw, err := s.client.TextSearch(ctx, q.query)
			if err != nil {
				resultCh <- categoryResult{category: q.category, err: fmt.Errorf("%w: %s query failed: %v", types.ErrDiscoveryUnavailable, q.category, err)}
				return
			}
			if len(raw) > q.limit {
				raw = raw[:q.limit] // hard cap, bounds the synthesis prompt size
			}
			resultCh <- categoryResult{category: q.category, records: Normalize(raw, q.category)}
		}(q)
	}

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	builder := newBundleBuilder()
	var failed int
	for res := range resultCh {
		if res.err != nil {
			failed++
			s.logger.WarnContext(ctx, "Discovery category query failed",
				slog.String("category", string(res.category)),
				slog.Any("error", res.err))
			continue
		}
		builder.add(res.records)
	}

	bundle := builder.bundle()
	span.SetAttributes(attribute.Int("locations.count", bundle.Count()), attribute.Int("queries.failed", failed))

	if failed == len(queries) {
		err := fmt.Errorf("%w: all %d category queries failed for %q", types.ErrDiscoveryUnavailable, len(queries), destination)
		span.RecordError(err)
		span.SetStatus(codes.Error, "All discovery queries failed")
		return types.LocationBundle{}, err
	}

	span.SetStatus(codes.Ok, "Discovery completed")
	return bundle, nil
}
