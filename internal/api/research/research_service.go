package research

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/wanderplan/wanderplan/internal/types"
)

var _ Service = (*ServiceImpl)(nil)

// Service gathers general destination knowledge (attractions, costs,
// safety, customs) from the web-search API as one labeled text blob.
type Service interface {
	Research(ctx context.Context, details types.TripDetails) (string, error)
}

type ServiceImpl struct {
	logger *slog.Logger
	client SearchClient
	cache  *gocache.Cache
	ttl    time.Duration
}

func NewServiceImpl(client SearchClient, cacheTTL time.Duration, logger *slog.Logger) *ServiceImpl {
	if cacheTTL <= 0 {
		cacheTTL = 30 * time.Minute
	}
	return &ServiceImpl{
		logger: logger,
		client: client,
		cache:  gocache.New(cacheTTL, 2*cacheTTL),
		ttl:    cacheTTL,
	}
}

type researchTopic struct {
	label string
	query string
}

func researchTopics(details types.TripDetails) []researchTopic {
	dest := details.Destination
	return []researchTopic{
		{"GENERAL", fmt.Sprintf("travel guide for %s: weather, best time to visit, local transportation options and costs", dest)},
		{"ATTRACTIONS", fmt.Sprintf("top attractions and activities in %s with entry prices", dest)},
		{"BUDGET", fmt.Sprintf("daily travel budget estimates for %d travelers in %s in Indian Rupees: hotels, meals, transport", details.Passengers, dest)},
		{"SAFETY", fmt.Sprintf("safety tips and local customs for travelers visiting %s", dest)},
	}
}

// Research fans the topic queries out concurrently and concatenates the
// labeled sections. Individual topic failures are tolerated; the call
// fails with ErrResearchUnavailable only when nothing at all came back.
// Results are cached per destination so repeated planning runs do not
// burn search quota.
func (s *ServiceImpl) Research(ctx context.Context, details types.TripDetails) (string, error) {
	ctx, span := otel.Tracer("ResearchService").Start(ctx, "Research", trace.WithAttributes(
		attribute.String("destination", details.Destination),
	))
	defer span.End()

	cacheKey := fmt.Sprintf("%s|%d", strings.ToLower(details.Destination), details.Passengers)
	if cached, found := s.cache.Get(cacheKey); found {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		span.SetStatus(codes.Ok, "Research served from cache")
		return cached.(string), nil
	}

	topics := researchTopics(details)
	sections := make([]string, len(topics))
	errs := make([]error, len(topics))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(len(topics))
	for i, topic := range topics {
		g.Go(func() error {
			result, err := s.client.Search(gctx, topic.query)
			if err != nil {
				// recorded, not returned: one bad topic must not
				// cancel its siblings
				errs[i] = err
				return nil
			}
			if text := result.FormatText(); text != "" {
				sections[i] = fmt.Sprintf("=== %s ===\n%s", topic.label, text)
			}
			return nil
		})
	}
	_ = g.Wait()

	var sb strings.Builder
	var failed int
	for i := range topics {
		if errs[i] != nil {
			failed++
			s.logger.WarnContext(ctx, "Research topic query failed",
				slog.String("topic", topics[i].label),
				slog.Any("error", errs[i]))
			continue
		}
		if sections[i] == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(sections[i])
	}

	text := sb.String()
	span.SetAttributes(attribute.Int("topics.failed", failed), attribute.Int("blob.length", len(text)))

	if text == "" {
		err := fmt.Errorf("%w: no usable results for %q (%d/%d topic queries failed)",
			types.ErrResearchUnavailable, details.Destination, failed, len(topics))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Research produced nothing")
		return "", err
	}

	s.cache.Set(cacheKey, text, s.ttl)
	span.SetStatus(codes.Ok, "Research completed")
	return text, nil
}
