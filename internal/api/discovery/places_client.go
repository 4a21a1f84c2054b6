package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// RawPlace mirrors one result of the Google Places text search response.
// Coordinates are pointers so the normalizer can tell "missing" from 0,0.
type RawPlace struct {
	PlaceID          string `json:"place_id"`
	Name             string `json:"name"`
	FormattedAddress string `json:"formatted_address"`
	Geometry         struct {
		Location struct {
			Lat *float64 `json:"lat"`
			Lng *float64 `json:"lng"`
		} `json:"location"`
	} `json:"geometry"`
	Rating           float64  `json:"rating"`
	UserRatingsTotal int      `json:"user_ratings_total"`
	Types            []string `json:"types"`
}

// PlacesClient is the outbound dependency of the discovery service.
type PlacesClient interface {
	TextSearch(ctx context.Context, query string) ([]RawPlace, error)
}

const defaultPlacesBaseURL = "https://maps.googleapis.com/maps/api/place"

// placesHTTPClient talks to the Places text search endpoint with
// client-side rate limiting and a single bounded retry on transient
// failures.
type placesHTTPClient struct {
	base string
	key  string
	hc   *http.Client
	rl   *rate.Limiter
}

var _ PlacesClient = (*placesHTTPClient)(nil)

func NewPlacesClient(baseURL, apiKey string, timeout time.Duration, rps int) (*placesHTTPClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("places API key is required")
	}
	if baseURL == "" {
		baseURL = defaultPlacesBaseURL
	}
	if rps <= 0 {
		rps = 5
	}
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &placesHTTPClient{
		base: strings.TrimRight(baseURL, "/"),
		key:  apiKey,
		hc:   &http.Client{Timeout: timeout},
		rl:   rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

type textSearchResponse struct {
	Status       string     `json:"status"`
	ErrorMessage string     `json:"error_message"`
	Results      []RawPlace `json:"results"`
}

func (c *placesHTTPClient) TextSearch(ctx context.Context, query string) ([]RawPlace, error) {
	if err := c.rl.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("key", c.key)
	endpoint := fmt.Sprintf("%s/textsearch/json?%s", c.base, params.Encode())

	var lastErr error
	// one retry on transient failures, bounded by design
	for attempt := 0; attempt < 2; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.hc.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			if attempt == 0 && sleepCtx(ctx, 300*time.Millisecond) {
				continue
			}
			return nil, lastErr
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			var body textSearchResponse
			err := json.NewDecoder(resp.Body).Decode(&body)
			resp.Body.Close()
			if err != nil {
				return nil, fmt.Errorf("decoding places response: %w", err)
			}
			switch body.Status {
			case "OK":
				return body.Results, nil
			case "ZERO_RESULTS":
				return nil, nil
			default:
				return nil, fmt.Errorf("places API status %s: %s", body.Status, body.ErrorMessage)
			}

		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			lastErr = fmt.Errorf("places API remote %d", resp.StatusCode)
			if attempt == 0 && sleepCtx(ctx, 300*time.Millisecond) {
				continue
			}
			return nil, lastErr

		default:
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return nil, fmt.Errorf("places API bad status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
		}
	}
	return nil, lastErr
}

// sleepCtx waits for d or returns false early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
