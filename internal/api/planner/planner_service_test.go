package planner

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/wanderplan/wanderplan/internal/api/budget"
	"github.com/wanderplan/wanderplan/internal/types"
)

type MockResearchService struct {
	mock.Mock
}

func (m *MockResearchService) Research(ctx context.Context, details types.TripDetails) (string, error) {
	args := m.Called(ctx, details)
	return args.String(0), args.Error(1)
}

type MockDiscoveryService struct {
	mock.Mock
}

func (m *MockDiscoveryService) Discover(ctx context.Context, destination string, specificPlaces []string) (types.LocationBundle, error) {
	args := m.Called(ctx, destination, specificPlaces)
	return args.Get(0).(types.LocationBundle), args.Error(1)
}

type MockSynthesisService struct {
	mock.Mock
}

func (m *MockSynthesisService) Synthesize(ctx context.Context, details types.TripDetails, profile budget.Profile, researchText string, bundle types.LocationBundle) (string, error) {
	args := m.Called(ctx, details, profile, researchText, bundle)
	return args.String(0), args.Error(1)
}

type MockPlanRepository struct {
	mock.Mock
}

func (m *MockPlanRepository) SavePlan(ctx context.Context, plan *types.TravelPlan) (uuid.UUID, error) {
	args := m.Called(ctx, plan)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockPlanRepository) ListRecent(ctx context.Context, limit int) ([]types.TravelPlanSummary, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.TravelPlanSummary), args.Error(1)
}

type plannerMocks struct {
	research  *MockResearchService
	discovery *MockDiscoveryService
	synthesis *MockSynthesisService
	repo      *MockPlanRepository
}

func setupPlannerServiceTest() (*ServiceImpl, plannerMocks) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := plannerMocks{
		research:  new(MockResearchService),
		discovery: new(MockDiscoveryService),
		synthesis: new(MockSynthesisService),
		repo:      new(MockPlanRepository),
	}
	service := NewServiceImpl(m.research, m.discovery, m.synthesis, m.repo, logger)
	return service, m
}

func delhiMumbaiRequest() types.TripRequest {
	return types.TripRequest{
		From:          "Delhi (DEL)",
		To:            "Mumbai (BOM)",
		DepartureDate: "2025-12-20",
		ReturnDate:    "2025-12-25",
		Passengers:    "2",
		Budget:        "mid",
	}
}

func mumbaiBundle() types.LocationBundle {
	b := types.LocationBundle{}
	b.Add(types.LocationRecord{
		PlaceID: "p1", Name: "The Taj Mahal Palace", Address: "Apollo Bunder",
		Latitude: 18.9217, Longitude: 72.8330, Rating: 4.7, Reviews: 50000,
		Category: types.CategoryHotel,
	})
	return b
}

func TestPlannerServiceImpl_Plan(t *testing.T) {
	ctx := context.Background()

	t.Run("happy path assembles the full plan", func(t *testing.T) {
		service, m := setupPlannerServiceTest()
		bundle := mumbaiBundle()

		m.research.On("Research", mock.Anything, mock.Anything).Return("winter research", nil).Once()
		m.discovery.On("Discover", mock.Anything, "Mumbai", mock.Anything).Return(bundle, nil).Once()
		m.synthesis.On("Synthesize", mock.Anything, mock.Anything, mock.Anything, "winter research", bundle).
			Return("Day 1 ... Budget ...", nil).Once()
		m.repo.On("SavePlan", mock.Anything, mock.Anything).Return(uuid.New(), nil).Once()

		plan, err := service.Plan(ctx, delhiMumbaiRequest())
		require.NoError(t, err)

		assert.True(t, plan.Success)
		assert.Equal(t, "Mumbai", plan.Destination)
		assert.Equal(t, "Delhi", plan.Origin)
		assert.Equal(t, 5, plan.Duration)
		assert.Equal(t, 25000, plan.Budget)
		assert.Equal(t, 2, plan.Travelers)
		assert.Equal(t, "Day 1 ... Budget ...", plan.ComprehensivePlan)
		assert.Equal(t, "winter research", plan.SearchResults)
		assert.Equal(t, 1, plan.MapsResults.Count())
		assert.Empty(t, plan.DegradedPhases)

		generatedAt, parseErr := time.Parse(time.RFC3339, plan.GeneratedAt)
		require.NoError(t, parseErr)
		assert.WithinDuration(t, time.Now().UTC(), generatedAt, time.Minute)

		m.research.AssertExpectations(t)
		m.discovery.AssertExpectations(t)
		m.synthesis.AssertExpectations(t)
		m.repo.AssertExpectations(t)
	})

	t.Run("research failure degrades instead of aborting", func(t *testing.T) {
		service, m := setupPlannerServiceTest()
		bundle := mumbaiBundle()

		m.research.On("Research", mock.Anything, mock.Anything).
			Return("", types.ErrResearchUnavailable).Once()
		m.discovery.On("Discover", mock.Anything, "Mumbai", mock.Anything).Return(bundle, nil).Once()
		m.synthesis.On("Synthesize", mock.Anything, mock.Anything, mock.Anything, "", bundle).
			Return("itinerary", nil).Once()
		m.repo.On("SavePlan", mock.Anything, mock.Anything).Return(uuid.New(), nil).Once()

		plan, err := service.Plan(ctx, delhiMumbaiRequest())
		require.NoError(t, err)
		assert.Equal(t, []string{"research"}, plan.DegradedPhases)
		assert.Empty(t, plan.SearchResults)
	})

	t.Run("both gathering phases can degrade", func(t *testing.T) {
		service, m := setupPlannerServiceTest()

		m.research.On("Research", mock.Anything, mock.Anything).
			Return("", types.ErrResearchUnavailable).Once()
		m.discovery.On("Discover", mock.Anything, "Mumbai", mock.Anything).
			Return(types.LocationBundle{}, types.ErrDiscoveryUnavailable).Once()
		m.synthesis.On("Synthesize", mock.Anything, mock.Anything, mock.Anything, "", types.LocationBundle{}).
			Return("itinerary from model knowledge", nil).Once()
		m.repo.On("SavePlan", mock.Anything, mock.Anything).Return(uuid.New(), nil).Once()

		plan, err := service.Plan(ctx, delhiMumbaiRequest())
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"research", "discovery"}, plan.DegradedPhases)
		assert.True(t, plan.MapsResults.IsEmpty())
	})

	t.Run("synthesis failure fails the request", func(t *testing.T) {
		service, m := setupPlannerServiceTest()

		m.research.On("Research", mock.Anything, mock.Anything).Return("r", nil).Once()
		m.discovery.On("Discover", mock.Anything, "Mumbai", mock.Anything).
			Return(types.LocationBundle{}, nil).Once()
		m.synthesis.On("Synthesize", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return("", types.ErrSynthesisFailed).Once()

		_, err := service.Plan(ctx, delhiMumbaiRequest())
		require.Error(t, err)
		assert.True(t, errors.Is(err, types.ErrSynthesisFailed))
		m.repo.AssertNotCalled(t, "SavePlan", mock.Anything, mock.Anything)
	})

	t.Run("unknown budget tier fails before any phase runs", func(t *testing.T) {
		service, m := setupPlannerServiceTest()

		req := delhiMumbaiRequest()
		req.Budget = "platinum"

		_, err := service.Plan(ctx, req)
		require.Error(t, err)
		assert.True(t, errors.Is(err, types.ErrUnknownBudgetTier))

		m.research.AssertNotCalled(t, "Research", mock.Anything, mock.Anything)
		m.discovery.AssertNotCalled(t, "Discover", mock.Anything, mock.Anything, mock.Anything)
		m.synthesis.AssertNotCalled(t, "Synthesize", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("validation failure returns a typed error", func(t *testing.T) {
		service, m := setupPlannerServiceTest()

		req := delhiMumbaiRequest()
		req.ReturnDate = "2025-12-20" // same day, zero duration

		_, err := service.Plan(ctx, req)
		require.Error(t, err)
		var vErr *types.ValidationError
		assert.True(t, errors.As(err, &vErr))
		assert.Equal(t, "returnDate", vErr.Field)
		m.research.AssertNotCalled(t, "Research", mock.Anything, mock.Anything)
	})

	t.Run("repository failure does not fail the plan", func(t *testing.T) {
		service, m := setupPlannerServiceTest()

		m.research.On("Research", mock.Anything, mock.Anything).Return("r", nil).Once()
		m.discovery.On("Discover", mock.Anything, "Mumbai", mock.Anything).
			Return(types.LocationBundle{}, nil).Once()
		m.synthesis.On("Synthesize", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return("itinerary", nil).Once()
		m.repo.On("SavePlan", mock.Anything, mock.Anything).
			Return(uuid.Nil, errors.New("connection refused")).Once()

		plan, err := service.Plan(ctx, delhiMumbaiRequest())
		require.NoError(t, err)
		assert.True(t, plan.Success)
	})

	t.Run("specific places reach discovery", func(t *testing.T) {
		service, m := setupPlannerServiceTest()

		req := delhiMumbaiRequest()
		req.SpecificPlaces = []string{"Gateway of India", "Marine Drive"}

		m.research.On("Research", mock.Anything, mock.Anything).Return("r", nil).Once()
		m.discovery.On("Discover", mock.Anything, "Mumbai", []string{"Gateway of India", "Marine Drive"}).
			Return(types.LocationBundle{}, nil).Once()
		m.synthesis.On("Synthesize", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return("itinerary", nil).Once()
		m.repo.On("SavePlan", mock.Anything, mock.Anything).Return(uuid.New(), nil).Once()

		_, err := service.Plan(ctx, req)
		require.NoError(t, err)
		m.discovery.AssertExpectations(t)
	})
}

func TestPlannerServiceImpl_PlanWithoutRepository(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	research := new(MockResearchService)
	discoverySvc := new(MockDiscoveryService)
	synthesisSvc := new(MockSynthesisService)
	service := NewServiceImpl(research, discoverySvc, synthesisSvc, nil, logger)

	research.On("Research", mock.Anything, mock.Anything).Return("r", nil).Once()
	discoverySvc.On("Discover", mock.Anything, "Mumbai", mock.Anything).
		Return(types.LocationBundle{}, nil).Once()
	synthesisSvc.On("Synthesize", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("itinerary", nil).Once()

	plan, err := service.Plan(context.Background(), delhiMumbaiRequest())
	require.NoError(t, err)
	assert.True(t, plan.Success)

	history, err := service.History(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestPlannerServiceImpl_History(t *testing.T) {
	service, m := setupPlannerServiceTest()

	rows := []types.TravelPlanSummary{{ID: "a", Destination: "Mumbai"}}
	m.repo.On("ListRecent", mock.Anything, 20).Return(rows, nil).Once()

	// non-positive limit falls back to the default
	got, err := service.History(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, rows, got)
	m.repo.AssertExpectations(t)
}
