package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/fikebr/notes-to-blog/internal/config"
)

// SearchResult is one scored web-search hit.
type SearchResult struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Snippet string  `json:"snippet"`
	Score   float64 `json:"score"`
}

// Searcher is the web-search capability. Results come back scored and
// sorted, best first.
type Searcher interface {
	Search(ctx context.Context, query string, max int) ([]SearchResult, error)
	Ping(ctx context.Context) error
}

// BraveClient implements Searcher against the Brave Search API.
type BraveClient struct {
	endpoint string
	apiKey   string
	minScore float64
	client   *http.Client
}

func NewBraveClient(cfg config.SearchConfig, apiKey string) (*BraveClient, error) {
	if apiKey == "" {
		return nil, errors.New("search: api key missing (set search.api_key or N2B_BRAVE_KEY)")
	}
	if cfg.Endpoint == "" {
		return nil, errors.New("search: endpoint is required")
	}
	return &BraveClient{
		endpoint: cfg.Endpoint,
		apiKey:   apiKey,
		minScore: cfg.MinScore,
		client:   &http.Client{Timeout: 30 * time.Second},
	}, nil
}

type braveResult struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
}

type braveResponse struct {
	Web struct {
		Results []braveResult `json:"results"`
	} `json:"web"`
}

func (b *BraveClient) Search(ctx context.Context, query string, max int) ([]SearchResult, error) {
	if max <= 0 {
		max = 5
	}

	var results []SearchResult
	err := withRetry(ctx, 2, time.Second, func() error {
		raw, err := b.call(ctx, query, max)
		if err != nil {
			return err
		}
		results = raw
		return nil
	})
	if err != nil {
		return nil, err
	}

	results = ScoreResults(query, results, b.minScore)
	if len(results) > max {
		results = results[:max]
	}
	return results, nil
}

func (b *BraveClient) call(ctx context.Context, query string, max int) ([]SearchResult, error) {
	u, err := url.Parse(b.endpoint)
	if err != nil {
		return nil, fmt.Errorf("search endpoint: %w", err)
	}
	q := u.Query()
	q.Set("q", query)
	q.Set("count", strconv.Itoa(max))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", b.apiKey)

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, wrapCallErr(CapabilitySearch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &CapabilityError{
			Capability: CapabilitySearch,
			Kind:       KindHTTP,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("brave API: %s", string(body)),
		}
	}

	var br braveResponse
	if err := json.NewDecoder(resp.Body).Decode(&br); err != nil {
		return nil, capErr(CapabilitySearch, KindMalformed, err)
	}

	results := make([]SearchResult, 0, len(br.Web.Results))
	for _, r := range br.Web.Results {
		if r.URL == "" {
			continue
		}
		results = append(results, SearchResult{
			Title:   r.Title,
			URL:     r.URL,
			Snippet: strings.TrimSpace(r.Description),
		})
	}
	return results, nil
}

// Ping issues a minimal query to verify reachability and auth.
func (b *BraveClient) Ping(ctx context.Context) error {
	_, err := b.call(ctx, "ping", 1)
	return err
}

// Relevance scoring weights. Term overlap with the query dominates; snippet
// depth and API rank break ties.
const (
	weightOverlap = 0.55
	weightDepth   = 0.25
	weightRank    = 0.20
)

// ScoreResults scores results against the query, drops everything under
// minScore, and returns the rest sorted best first (stable).
func ScoreResults(query string, results []SearchResult, minScore float64) []SearchResult {
	terms := queryTerms(query)

	scored := make([]SearchResult, 0, len(results))
	for i, r := range results {
		r.Score = overlapScore(terms, r.Title, r.Snippet)*weightOverlap +
			depthScore(r.Snippet)*weightDepth +
			rankScore(i)*weightRank
		r.Score = math.Round(r.Score*100) / 100
		if r.Score < minScore {
			continue
		}
		scored = append(scored, r)
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	return scored
}

// overlapScore measures how many query terms appear in the result, title
// matches weighted 2x over snippet matches.
func overlapScore(terms []string, title, snippet string) float64 {
	if len(terms) == 0 {
		return 0
	}
	titleLower := strings.ToLower(title)
	snippetLower := strings.ToLower(snippet)

	var hits float64
	for _, t := range terms {
		switch {
		case strings.Contains(titleLower, t):
			hits += 2
		case strings.Contains(snippetLower, t):
			hits++
		}
	}
	score := hits / float64(2*len(terms))
	if score > 1 {
		score = 1
	}
	return score
}

// depthScore scores based on snippet word count.
func depthScore(snippet string) float64 {
	words := len(strings.Fields(snippet))
	switch {
	case words >= 30:
		return 1.0
	case words >= 10:
		return 0.6
	default:
		return 0.2
	}
}

// rankScore decays with API result position: 1.0 first, halving every 3.
func rankScore(rank int) float64 {
	return math.Pow(0.5, float64(rank)/3)
}

func queryTerms(query string) []string {
	var terms []string
	for _, w := range strings.Fields(strings.ToLower(query)) {
		w = strings.TrimFunc(w, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if len(w) > 2 {
			terms = append(terms, w)
		}
	}
	return terms
}
