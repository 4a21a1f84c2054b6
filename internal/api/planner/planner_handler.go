package planner

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/wanderplan/wanderplan/app/observability/metrics"
	"github.com/wanderplan/wanderplan/internal/api"
	"github.com/wanderplan/wanderplan/internal/types"
)

type PlannerHandler struct {
	plannerService Service
	metrics        *metrics.AppMetrics // nil in tests
	logger         *slog.Logger
}

func NewPlannerHandler(plannerService Service, m *metrics.AppMetrics, logger *slog.Logger) *PlannerHandler {
	return &PlannerHandler{
		plannerService: plannerService,
		metrics:        m,
		logger:         logger,
	}
}

// GeneratePlan handles POST /api/v1/plan.
func (h *PlannerHandler) GeneratePlan(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("PlannerHandler").Start(r.Context(), "GeneratePlan", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/v1/plan"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "GeneratePlan"))
	l.DebugContext(ctx, "Generate plan handler invoked")
	start := time.Now()

	var req types.TripRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.WarnContext(ctx, "Failed to decode request body", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	plan, err := h.plannerService.Plan(ctx, req)
	if err != nil {
		h.recordPlan(ctx, start, "error")
		if h.metrics != nil && errors.Is(err, types.ErrSynthesisFailed) {
			h.metrics.SynthesisFailuresTotal.Add(ctx, 1)
		}
		status, message := planErrorStatus(err)
		l.ErrorContext(ctx, "Failed to generate plan",
			slog.Any("error", err),
			slog.Int("status", status))
		span.RecordError(err)
		api.ErrorResponse(w, r, status, message)
		return
	}

	for _, phase := range plan.DegradedPhases {
		if h.metrics != nil {
			h.metrics.PhaseDegradedTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("phase", phase)))
		}
	}
	h.recordPlan(ctx, start, "ok")

	l.InfoContext(ctx, "Plan generated",
		slog.String("destination", plan.Destination),
		slog.Int("duration_days", plan.Duration),
		slog.Int("degraded_phases", len(plan.DegradedPhases)))
	api.WriteJSONResponse(w, r, http.StatusOK, plan)
}

// GetPlanHistory handles GET /api/v1/plans.
func (h *PlannerHandler) GetPlanHistory(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("PlannerHandler").Start(r.Context(), "GetPlanHistory", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/v1/plans"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "GetPlanHistory"))

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			api.ErrorResponse(w, r, http.StatusBadRequest, "limit must be a positive whole number")
			return
		}
		limit = parsed
	}

	summaries, err := h.plannerService.History(ctx, limit)
	if err != nil {
		l.ErrorContext(ctx, "Failed to list plan history", slog.Any("error", err))
		span.RecordError(err)
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to list plan history")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, map[string]interface{}{
		"success": true,
		"plans":   summaries,
	})
}

func (h *PlannerHandler) recordPlan(ctx context.Context, start time.Time, outcome string) {
	if h.metrics == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	h.metrics.PlanRequestsTotal.Add(ctx, 1, attrs)
	h.metrics.PlanDurationSeconds.Record(ctx, time.Since(start).Seconds(), attrs)
}

// planErrorStatus maps pipeline errors to HTTP statuses. Caller mistakes
// are 400s, a synthesis outage is a 502, everything else a 500.
func planErrorStatus(err error) (int, string) {
	var vErr *types.ValidationError
	switch {
	case errors.As(err, &vErr):
		return http.StatusBadRequest, vErr.Error()
	case errors.Is(err, types.ErrUnknownBudgetTier):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, types.ErrSynthesisFailed):
		return http.StatusBadGateway, "Plan generation is temporarily unavailable"
	default:
		return http.StatusInternalServerError, "Failed to generate plan"
	}
}
