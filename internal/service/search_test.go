package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fikebr/notes-to-blog/internal/config"
)

func TestScoreResultsOrdering(t *testing.T) {
	results := []SearchResult{
		{Title: "Unrelated page", Snippet: "short"},
		{Title: "Home composting basics", Snippet: "A long guide to home composting covering browns, greens, moisture, turning schedules, and troubleshooting common problems with backyard compost piles."},
	}
	scored := ScoreResults("home composting", results, 0)
	if len(scored) != 2 {
		t.Fatalf("expected 2 results, got %d", len(scored))
	}
	if scored[0].Title != "Home composting basics" {
		t.Errorf("expected relevant result first, got %q", scored[0].Title)
	}
	if scored[0].Score <= scored[1].Score {
		t.Errorf("expected descending scores, got %f then %f", scored[0].Score, scored[1].Score)
	}
}

func TestScoreResultsMinScoreFilter(t *testing.T) {
	results := []SearchResult{
		{Title: "zzz", Snippet: "zz"},
		{Title: "Sourdough hydration explained", Snippet: "Everything about sourdough hydration ratios, starters, and baking schedules for home bakers who want an open crumb."},
	}
	scored := ScoreResults("sourdough hydration", results, 0.5)
	if len(scored) != 1 {
		t.Fatalf("expected low-score result filtered, got %d results", len(scored))
	}
	if scored[0].Title != "Sourdough hydration explained" {
		t.Errorf("wrong survivor: %q", scored[0].Title)
	}
}

func TestOverlapScoreTitleWeighted(t *testing.T) {
	terms := queryTerms("compost bin")
	inTitle := overlapScore(terms, "Best compost bin reviews", "")
	inSnippet := overlapScore(terms, "", "choosing a compost bin")
	if inTitle <= inSnippet {
		t.Errorf("title matches should outscore snippet matches: %f vs %f", inTitle, inSnippet)
	}
}

func TestQueryTermsDropsShortWords(t *testing.T) {
	terms := queryTerms("to be or not composting")
	if len(terms) != 2 {
		t.Fatalf("expected 2 terms, got %v", terms)
	}
	if terms[0] != "not" || terms[1] != "composting" {
		t.Errorf("unexpected terms: %v", terms)
	}
}

func TestRankScoreDecays(t *testing.T) {
	if rankScore(0) != 1.0 {
		t.Errorf("first rank should score 1.0, got %f", rankScore(0))
	}
	if rankScore(3) >= rankScore(0) {
		t.Error("rank score should decay with position")
	}
}

func newBraveTestClient(t *testing.T, handler http.HandlerFunc) *BraveClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewBraveClient(config.SearchConfig{Endpoint: srv.URL, MaxResults: 5}, "test-key")
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestBraveSearch(t *testing.T) {
	var gotToken, gotQuery string
	c := newBraveTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("X-Subscription-Token")
		gotQuery = r.URL.Query().Get("q")
		resp := braveResponse{}
		resp.Web.Results = []braveResult{
			{Title: "Composting guide", URL: "https://example.com/compost", Description: "A guide to composting at home with browns and greens balanced properly."},
			{Title: "", URL: "", Description: "dropped: no url"},
		}
		json.NewEncoder(w).Encode(resp)
	})

	results, err := c.Search(context.Background(), "composting guide", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if gotToken != "test-key" {
		t.Errorf("expected subscription token header, got %q", gotToken)
	}
	if gotQuery != "composting guide" {
		t.Errorf("expected query passthrough, got %q", gotQuery)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result (empty URL dropped), got %d", len(results))
	}
	if results[0].URL != "https://example.com/compost" {
		t.Errorf("unexpected result: %+v", results[0])
	}
	if results[0].Score <= 0 {
		t.Errorf("expected positive score, got %f", results[0].Score)
	}
}

func TestBraveSearchHTTPError(t *testing.T) {
	c := newBraveTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no token", http.StatusUnauthorized)
	})

	_, err := c.Search(context.Background(), "anything", 3)
	if err == nil {
		t.Fatal("expected error for 401 response")
	}
	ce, ok := err.(*CapabilityError)
	if !ok {
		t.Fatalf("expected *CapabilityError, got %T", err)
	}
	if ce.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", ce.StatusCode)
	}
	if ce.Capability != CapabilitySearch {
		t.Errorf("expected search capability, got %s", ce.Capability)
	}
}

func TestBraveSearchMalformedBody(t *testing.T) {
	c := newBraveTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{not json"))
	})

	_, err := c.Search(context.Background(), "anything", 3)
	ce, ok := err.(*CapabilityError)
	if !ok {
		t.Fatalf("expected *CapabilityError, got %T (%v)", err, err)
	}
	if ce.Kind != KindMalformed {
		t.Errorf("expected malformed kind, got %s", ce.Kind)
	}
}
