package plugins

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/zenwatch/ingestor/internal/httpclient"
	"github.com/zenwatch/ingestor/internal/scraper"
)

func newTestDevTo(t *testing.T, handler http.HandlerFunc) *devTo {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return &devTo{
		session: httpclient.NewSession(httpclient.SessionConfig{PluginName: "devto"}, nopLogger()),
		baseURL: server.URL,
	}
}

func TestDevToScrapeDedupsByURL(t *testing.T) {
	articles := []devtoArticle{
		{ID: 1, Title: "Go generics", URL: "https://dev.to/a/go-generics", PublishedAt: "2024-01-01T00:00:00Z"},
		{ID: 2, Title: "Go generics (reposted)", URL: "https://dev.to/a/go-generics", PublishedAt: "2024-01-02T00:00:00Z"},
	}
	d := newTestDevTo(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(articles)
	})

	items, err := d.Scrape(t.Context(), nil, nil)
	if err != nil {
		t.Fatalf("Scrape: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected dedup to collapse to 1 item, got %d", len(items))
	}
	if items[0].ExternalID != "1" {
		t.Errorf("expected first-seen article to survive dedup, got ExternalID %q", items[0].ExternalID)
	}
}

func TestDevToScrapeByTagLimitsToFiveKeywords(t *testing.T) {
	var tagsRequested []string
	d := newTestDevTo(t, func(w http.ResponseWriter, r *http.Request) {
		tagsRequested = append(tagsRequested, r.URL.Query().Get("tag"))
		json.NewEncoder(w).Encode([]devtoArticle{})
	})

	keywords := make([]scraper.Keyword, 8)
	for i := range keywords {
		keywords[i] = scraper.Keyword{Keyword: "kw"}
	}

	if _, err := d.Scrape(t.Context(), nil, keywords); err != nil {
		t.Fatalf("Scrape: %v", err)
	}
	if len(tagsRequested) != 5 {
		t.Errorf("expected at most 5 tag fetches, got %d", len(tagsRequested))
	}
}

func TestDevToToNormalizedFallsBackToCreatedAtAndUsername(t *testing.T) {
	a := devtoArticle{ID: 7, Title: "t", URL: "https://dev.to/x", CreatedAt: "2023-05-01T00:00:00Z"}
	a.User.Username = "janedoe"

	item := toNormalized(a)
	if item.Author != "janedoe" {
		t.Errorf("expected fallback to username, got %q", item.Author)
	}
	if item.PublishedAt.IsZero() {
		t.Error("expected PublishedAt to fall back to CreatedAt")
	}
}
