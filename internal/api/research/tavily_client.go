package research

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// SearchHit is one web result from the search API.
type SearchHit struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	URL     string `json:"url"`
}

// SearchResult is the answer-plus-sources payload for one query.
type SearchResult struct {
	Answer  string      `json:"answer"`
	Results []SearchHit `json:"results"`
}

// FormatText renders the result as a labeled text block for the research
// blob. Only the top results are included to keep the blob bounded.
func (r SearchResult) FormatText() string {
	var sb strings.Builder
	if r.Answer != "" {
		fmt.Fprintf(&sb, "Search Answer: %s\n", r.Answer)
	}
	if len(r.Results) > 0 {
		sb.WriteString("\nTop Results:\n")
		limit := len(r.Results)
		if limit > 5 {
			limit = 5
		}
		for i, hit := range r.Results[:limit] {
			fmt.Fprintf(&sb, "\n%d. %s\n   %s\n   Source: %s\n", i+1, hit.Title, hit.Content, hit.URL)
		}
	}
	return sb.String()
}

// SearchClient is the outbound dependency of the research service.
type SearchClient interface {
	Search(ctx context.Context, query string) (SearchResult, error)
}

const defaultTavilyBaseURL = "https://api.tavily.com"

// tavilyHTTPClient queries the Tavily search API. One bounded retry on
// transient failures; the latency budget of the whole phase depends on
// this staying bounded.
type tavilyHTTPClient struct {
	base string
	key  string
	hc   *http.Client
	rl   *rate.Limiter
}

var _ SearchClient = (*tavilyHTTPClient)(nil)

func NewTavilyClient(baseURL, apiKey string, timeout time.Duration, rps int) (*tavilyHTTPClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("tavily API key is required")
	}
	if baseURL == "" {
		baseURL = defaultTavilyBaseURL
	}
	if rps <= 0 {
		rps = 5
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &tavilyHTTPClient{
		base: strings.TrimRight(baseURL, "/"),
		key:  apiKey,
		hc:   &http.Client{Timeout: timeout},
		rl:   rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

type tavilyRequest struct {
	APIKey        string `json:"api_key"`
	Query         string `json:"query"`
	SearchDepth   string `json:"search_depth"`
	IncludeAnswer bool   `json:"include_answer"`
	MaxResults    int    `json:"max_results"`
}

func (c *tavilyHTTPClient) Search(ctx context.Context, query string) (SearchResult, error) {
	if err := c.rl.Wait(ctx); err != nil {
		return SearchResult{}, err
	}

	payload, err := json.Marshal(tavilyRequest{
		APIKey:        c.key,
		Query:         query,
		SearchDepth:   "advanced",
		IncludeAnswer: true,
		MaxResults:    10,
	})
	if err != nil {
		return SearchResult{}, err
	}

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/search", bytes.NewReader(payload))
		if err != nil {
			return SearchResult{}, err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.hc.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return SearchResult{}, ctx.Err()
			}
			lastErr = err
			if attempt == 0 && sleepCtx(ctx, 300*time.Millisecond) {
				continue
			}
			return SearchResult{}, lastErr
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			var out SearchResult
			err := json.NewDecoder(resp.Body).Decode(&out)
			resp.Body.Close()
			if err != nil {
				return SearchResult{}, fmt.Errorf("decoding search response: %w", err)
			}
			return out, nil

		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			lastErr = fmt.Errorf("search API remote %d", resp.StatusCode)
			if attempt == 0 && sleepCtx(ctx, 300*time.Millisecond) {
				continue
			}
			return SearchResult{}, lastErr

		default:
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return SearchResult{}, fmt.Errorf("search API bad status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
		}
	}
	return SearchResult{}, lastErr
}

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
