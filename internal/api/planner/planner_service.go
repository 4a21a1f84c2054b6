package planner

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wanderplan/wanderplan/internal/api/budget"
	"github.com/wanderplan/wanderplan/internal/api/discovery"
	"github.com/wanderplan/wanderplan/internal/api/research"
	"github.com/wanderplan/wanderplan/internal/api/synthesis"
	"github.com/wanderplan/wanderplan/internal/types"
)

var _ Service = (*ServiceImpl)(nil)

// Service orchestrates the full planning pipeline for a single request.
type Service interface {
	Plan(ctx context.Context, req types.TripRequest) (*types.TravelPlan, error)
	History(ctx context.Context, limit int) ([]types.TravelPlanSummary, error)
}

type ServiceImpl struct {
	logger    *slog.Logger
	research  research.Service
	discovery discovery.Service
	synthesis synthesis.Service
	repo      Repository // nil when persistence is not configured
}

func NewServiceImpl(researchSvc research.Service, discoverySvc discovery.Service, synthesisSvc synthesis.Service, repo Repository, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger:    logger,
		research:  researchSvc,
		discovery: discoverySvc,
		synthesis: synthesisSvc,
		repo:      repo,
	}
}

// phaseResult carries the output of one gathering phase back over the
// fan-out channel.
type phaseResult struct {
	phase  string
	text   string
	bundle types.LocationBundle
	err    error
}

// Plan validates the request, resolves the budget tier, gathers research
// and live map data concurrently, and synthesizes the itinerary.
//
// Validation and tier resolution fail the request before any network
// call. The two gathering phases degrade to empty inputs on failure so
// the plan can still be produced; only synthesis is load-bearing.
func (s *ServiceImpl) Plan(ctx context.Context, req types.TripRequest) (*types.TravelPlan, error) {
	ctx, span := otel.Tracer("PlannerService").Start(ctx, "Plan")
	defer span.End()

	l := s.logger.With(slog.String("method", "Plan"))

	details, err := req.Validate()
	if err != nil {
		l.WarnContext(ctx, "Trip request failed validation", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Invalid trip request")
		return nil, err
	}
	span.SetAttributes(
		attribute.String("origin", details.Origin),
		attribute.String("destination", details.Destination),
		attribute.Int("duration.days", details.Duration()),
	)

	profile, err := budget.Resolve(details.BudgetTier)
	if err != nil {
		l.WarnContext(ctx, "Unknown budget tier", slog.String("tier", details.BudgetTier))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Unknown budget tier")
		return nil, err
	}

	l.InfoContext(ctx, "Planning trip",
		slog.String("origin", details.Origin),
		slog.String("destination", details.Destination),
		slog.Int("duration_days", details.Duration()),
		slog.String("budget_tier", profile.Tier),
		slog.Int("travelers", details.Passengers))

	researchText, bundle, degraded := s.gather(ctx, *details)
	for _, phase := range degraded {
		l.WarnContext(ctx, "Phase degraded to empty input", slog.String("phase", phase))
		span.AddEvent("phase degraded", trace.WithAttributes(attribute.String("phase", phase)))
	}

	itinerary, err := s.synthesis.Synthesize(ctx, *details, profile, researchText, bundle)
	if err != nil {
		l.ErrorContext(ctx, "Itinerary synthesis failed", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Synthesis failed")
		return nil, err
	}

	plan := &types.TravelPlan{
		Success:           true,
		Destination:       details.Destination,
		Origin:            details.Origin,
		Duration:          details.Duration(),
		Budget:            profile.Ceiling,
		Travelers:         details.Passengers,
		ComprehensivePlan: itinerary,
		SearchResults:     researchText,
		MapsResults:       bundle,
		GeneratedAt:       time.Now().UTC().Format(time.RFC3339),
		DegradedPhases:    degraded,
	}

	s.persist(ctx, plan)

	span.SetStatus(codes.Ok, "Plan generated")
	return plan, nil
}

// gather runs the research and discovery phases concurrently. A failed
// phase contributes an empty input and its name in the degraded list.
func (s *ServiceImpl) gather(ctx context.Context, details types.TripDetails) (string, types.LocationBundle, []string) {
	results := make(chan phaseResult, 2)
	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		text, err := s.research.Research(ctx, details)
		results <- phaseResult{phase: "research", text: text, err: err}
	}()
	go func() {
		defer wg.Done()
		bundle, err := s.discovery.Discover(ctx, details.Destination, details.SpecificPlaces)
		results <- phaseResult{phase: "discovery", bundle: bundle, err: err}
	}()

	wg.Wait()
	close(results)

	var (
		researchText string
		bundle       types.LocationBundle
		degraded     []string
	)
	for res := range results {
		if res.err != nil {
			degraded = append(degraded, res.phase)
			continue
		}
		switch res.phase {
		case "research":
			researchText = res.text
		case "discovery":
			bundle = res.bundle
		}
	}
	return researchText, bundle, degraded
}

// persist saves the plan if a repository is configured. Failures are
// logged and swallowed; the response has already been earned.
func (s *ServiceImpl) persist(ctx context.Context, plan *types.TravelPlan) {
	if s.repo == nil {
		return
	}
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if _, err := s.repo.SavePlan(saveCtx, plan); err != nil {
		s.logger.WarnContext(ctx, "Failed to persist travel plan", slog.Any("error", err))
	}
}

// History lists recently generated plans. Without a configured
// repository it returns an empty list.
func (s *ServiceImpl) History(ctx context.Context, limit int) ([]types.TravelPlanSummary, error) {
	if s.repo == nil {
		return []types.TravelPlanSummary{}, nil
	}
	if limit <= 0 {
		limit = 20
	}
	return s.repo.ListRecent(ctx, limit)
}
