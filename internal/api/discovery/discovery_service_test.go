package discovery

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/wanderplan/wanderplan/internal/types"
)

type MockPlacesClient struct {
	mock.Mock
}

func (m *MockPlacesClient) TextSearch(ctx context.Context, query string) ([]RawPlace, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]RawPlace), args.Error(1)
}

func setupDiscoveryServiceTest() (*ServiceImpl, *MockPlacesClient) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mockClient := new(MockPlacesClient)
	service := NewServiceImpl(mockClient, 5, logger)
	return service, mockClient
}

func queryFor(category string) interface{} {
	return mock.MatchedBy(func(q string) bool { return strings.HasPrefix(q, category) })
}

func TestDiscoveryServiceImpl_Discover(t *testing.T) {
	ctx := context.Background()

	t.Run("populates all categories", func(t *testing.T) {
		service, mockClient := setupDiscoveryServiceTest()
		mockClient.On("TextSearch", mock.Anything, "hotels in Mumbai").
			Return([]RawPlace{rawPlace("h1", "Hotel", coord(1), coord(2))}, nil).Once()
		mockClient.On("TextSearch", mock.Anything, "restaurants in Mumbai").
			Return([]RawPlace{rawPlace("r1", "Restaurant", coord(1), coord(2))}, nil).Once()
		mockClient.On("TextSearch", mock.Anything, "tourist attractions in Mumbai").
			Return([]RawPlace{rawPlace("a1", "Attraction", coord(1), coord(2))}, nil).Once()
		mockClient.On("TextSearch", mock.Anything, "Gateway of India, Mumbai").
			Return([]RawPlace{rawPlace("s1", "Gateway of India", coord(1), coord(2))}, nil).Once()

		bundle, err := service.Discover(ctx, "Mumbai", []string{"Gateway of India"})
		require.NoError(t, err)
		assert.Len(t, bundle.Hotels, 1)
		assert.Len(t, bundle.Restaurants, 1)
		assert.Len(t, bundle.Attractions, 1)
		assert.Len(t, bundle.SpecificPlaces, 1)
		mockClient.AssertExpectations(t)
	})

	t.Run("one failed category does not block the others", func(t *testing.T) {
		service, mockClient := setupDiscoveryServiceTest()
		mockClient.On("TextSearch", mock.Anything, queryFor("hotels")).
			Return(nil, errors.New("quota exceeded")).Once()
		mockClient.On("TextSearch", mock.Anything, queryFor("restaurants")).
			Return([]RawPlace{rawPlace("r1", "Restaurant", coord(1), coord(2))}, nil).Once()
		mockClient.On("TextSearch", mock.Anything, queryFor("tourist")).
			Return([]RawPlace{rawPlace("a1", "Attraction", coord(1), coord(2))}, nil).Once()

		bundle, err := service.Discover(ctx, "Mumbai", nil)
		require.NoError(t, err)
		assert.Empty(t, bundle.Hotels)
		assert.Len(t, bundle.Restaurants, 1)
		assert.Len(t, bundle.Attractions, 1)
		mockClient.AssertExpectations(t)
	})

	t.Run("all queries failing returns ErrDiscoveryUnavailable", func(t *testing.T) {
		service, mockClient := setupDiscoveryServiceTest()
		mockClient.On("TextSearch", mock.Anything, mock.Anything).
			Return(nil, errors.New("network down")).Times(3)

		bundle, err := service.Discover(ctx, "Mumbai", nil)
		require.Error(t, err)
		assert.True(t, errors.Is(err, types.ErrDiscoveryUnavailable))
		assert.True(t, bundle.IsEmpty())
		mockClient.AssertExpectations(t)
	})

	t.Run("caps records per category", func(t *testing.T) {
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		mockClient := new(MockPlacesClient)
		service := NewServiceImpl(mockClient, 2, logger)

		many := []RawPlace{
			rawPlace("h1", "One", coord(1), coord(2)),
			rawPlace("h2", "Two", coord(1), coord(2)),
			rawPlace("h3", "Three", coord(1), coord(2)),
			rawPlace("h4", "Four", coord(1), coord(2)),
		}
		mockClient.On("TextSearch", mock.Anything, queryFor("hotels")).Return(many, nil).Once()
		mockClient.On("TextSearch", mock.Anything, queryFor("restaurants")).Return([]RawPlace{}, nil).Once()
		mockClient.On("TextSearch", mock.Anything, queryFor("tourist")).Return([]RawPlace{}, nil).Once()

		bundle, err := service.Discover(ctx, "Mumbai", nil)
		require.NoError(t, err)
		assert.Len(t, bundle.Hotels, 2)
		mockClient.AssertExpectations(t)
	})

	t.Run("specific place lookups keep only the best match", func(t *testing.T) {
		service, mockClient := setupDiscoveryServiceTest()
		mockClient.On("TextSearch", mock.Anything, queryFor("hotels")).Return([]RawPlace{}, nil).Once()
		mockClient.On("TextSearch", mock.Anything, queryFor("restaurants")).Return([]RawPlace{}, nil).Once()
		mockClient.On("TextSearch", mock.Anything, queryFor("tourist")).Return([]RawPlace{}, nil).Once()
		mockClient.On("TextSearch", mock.Anything, "Marine Drive, Mumbai").
			Return([]RawPlace{
				rawPlace("s1", "Marine Drive", coord(1), coord(2)),
				rawPlace("s2", "Marine Drive Lookalike", coord(1), coord(2)),
			}, nil).Once()

		bundle, err := service.Discover(ctx, "Mumbai", []string{"Marine Drive"})
		require.NoError(t, err)
		require.Len(t, bundle.SpecificPlaces, 1)
		assert.Equal(t, "s1", bundle.SpecificPlaces[0].PlaceID)
		mockClient.AssertExpectations(t)
	})
}
