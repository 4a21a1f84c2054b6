package planner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wanderplan/wanderplan/internal/types"
)

var _ Repository = (*RepositoryImpl)(nil)

// Repository persists finished plans. Persistence is best effort; the
// orchestrator never fails a request over a repository error.
type Repository interface {
	SavePlan(ctx context.Context, plan *types.TravelPlan) (uuid.UUID, error)
	ListRecent(ctx context.Context, limit int) ([]types.TravelPlanSummary, error)
}

// PlanDB is the slice of pgxpool.Pool the repository uses. pgxmock
// implements it in tests.
type PlanDB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type RepositoryImpl struct {
	db     PlanDB
	logger *slog.Logger
}

func NewRepository(db PlanDB, logger *slog.Logger) *RepositoryImpl {
	return &RepositoryImpl{
		db:     db,
		logger: logger,
	}
}

// SavePlan stores the plan and returns its generated ID.
func (r *RepositoryImpl) SavePlan(ctx context.Context, plan *types.TravelPlan) (uuid.UUID, error) {
	ctx, span := otel.Tracer("PlannerRepository").Start(ctx, "SavePlan", trace.WithAttributes(
		attribute.String("destination", plan.Destination),
	))
	defer span.End()

	l := r.logger.With(slog.String("method", "SavePlan"))

	generatedAt, err := time.Parse(time.RFC3339, plan.GeneratedAt)
	if err != nil {
		generatedAt = time.Now().UTC()
	}

	id := uuid.New()
	query := `
		INSERT INTO travel_plans (id, origin, destination, duration_days, budget, travelers, comprehensive_plan, generated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err = r.db.Exec(ctx, query,
		id, plan.Origin, plan.Destination, plan.Duration,
		plan.Budget, plan.Travelers, plan.ComprehensivePlan, generatedAt)
	if err != nil {
		l.ErrorContext(ctx, "Failed to insert travel plan", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Database insert failed")
		return uuid.Nil, fmt.Errorf("failed to insert travel plan: %w", err)
	}

	span.SetStatus(codes.Ok, "Plan saved")
	return id, nil
}

// ListRecent returns the newest plan summaries, newest first.
func (r *RepositoryImpl) ListRecent(ctx context.Context, limit int) ([]types.TravelPlanSummary, error) {
	ctx, span := otel.Tracer("PlannerRepository").Start(ctx, "ListRecent", trace.WithAttributes(
		attribute.Int("limit", limit),
	))
	defer span.End()

	l := r.logger.With(slog.String("method", "ListRecent"))

	query := `
		SELECT id, origin, destination, duration_days, budget, travelers, generated_at
		FROM travel_plans
		ORDER BY generated_at DESC
		LIMIT $1
	`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		l.ErrorContext(ctx, "Failed to query travel plans", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Database query failed")
		return nil, fmt.Errorf("failed to query travel plans: %w", err)
	}
	defer rows.Close()

	var summaries []types.TravelPlanSummary
	for rows.Next() {
		var (
			id          uuid.UUID
			s           types.TravelPlanSummary
			generatedAt time.Time
		)
		if err := rows.Scan(&id, &s.Origin, &s.Destination, &s.Duration, &s.Budget, &s.Travelers, &generatedAt); err != nil {
			l.ErrorContext(ctx, "Failed to scan plan row", slog.Any("error", err))
			span.RecordError(err)
			return nil, fmt.Errorf("failed to scan plan row: %w", err)
		}
		s.ID = id.String()
		s.GeneratedAt = generatedAt.UTC().Format(time.RFC3339)
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("error iterating plan rows: %w", err)
	}

	span.SetAttributes(attribute.Int("plans.count", len(summaries)))
	span.SetStatus(codes.Ok, "Plans listed")
	return summaries, nil
}
