package synthesis

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/genai"

	"github.com/wanderplan/wanderplan/internal/api/budget"
	"github.com/wanderplan/wanderplan/internal/types"
)

var _ Service = (*ServiceImpl)(nil)

// ContentGenerator is the language-model dependency; satisfied by
// generativeAI.AIClient.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, prompt string, config *genai.GenerateContentConfig) (string, error)
}

// Service turns the aggregated trip inputs into the final itinerary text.
// This is the load-bearing phase: a failure here fails the whole plan.
type Service interface {
	Synthesize(ctx context.Context, details types.TripDetails, profile budget.Profile, researchText string, bundle types.LocationBundle) (string, error)
}

type ServiceImpl struct {
	logger *slog.Logger
	ai     ContentGenerator
}

func NewServiceImpl(ai ContentGenerator, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger: logger,
		ai:     ai,
	}
}

// Synthesize builds the itinerary prompt, invokes the model once, and
// validates that the output has the expected structure. A transport
// success with a structurally empty response still fails: such a response
// is not usable by the caller.
func (s *ServiceImpl) Synthesize(ctx context.Context, details types.TripDetails, profile budget.Profile, researchText string, bundle types.LocationBundle) (string, error) {
	ctx, span := otel.Tracer("SynthesisService").Start(ctx, "Synthesize", trace.WithAttributes(
		attribute.String("destination", details.Destination),
		attribute.Int("duration.days", details.Duration()),
		attribute.Int("locations.count", bundle.Count()),
	))
	defer span.End()

	prompt := buildItineraryPrompt(details, profile, researchText, bundle)
	config := &genai.GenerateContentConfig{Temperature: genai.Ptr[float32](0.6)}

	itinerary, err := s.ai.GenerateContent(ctx, prompt, config)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Model call failed")
		return "", fmt.Errorf("%w: %v", types.ErrSynthesisFailed, err)
	}

	if err := validateItinerary(itinerary, details.Duration()); err != nil {
		s.logger.ErrorContext(ctx, "Model returned a structurally invalid itinerary", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Structurally invalid itinerary")
		return "", fmt.Errorf("%w: %v", types.ErrSynthesisFailed, err)
	}

	span.SetAttributes(attribute.Int("itinerary.length", len(itinerary)))
	span.SetStatus(codes.Ok, "Itinerary synthesized")
	return itinerary, nil
}

// validateItinerary checks the minimum expected sections: a labeled entry
// for every trip day and a budget breakdown.
func validateItinerary(text string, days int) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("empty itinerary response")
	}
	for day := 1; day <= days; day++ {
		pattern := regexp.MustCompile(fmt.Sprintf(`(?i)\bday\s*%d\b`, day))
		if !pattern.MatchString(text) {
			return fmt.Errorf("itinerary is missing a section for day %d of %d", day, days)
		}
	}
	if !regexp.MustCompile(`(?i)\bbudget\b`).MatchString(text) {
		return fmt.Errorf("itinerary is missing a budget breakdown")
	}
	return nil
}
