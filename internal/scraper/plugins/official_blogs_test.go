package plugins

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/zenwatch/ingestor/internal/httpclient"
)

const officialBlogFixture = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel>
  <title>Example Engineering Blog</title>
  <item>
    <title>Scaling our inference fleet</title>
    <link>https://blog.example.com/scaling-inference</link>
    <description>How we scaled GPUs</description>
    <pubDate>Mon, 01 Jan 2024 00:00:00 GMT</pubDate>
  </item>
</channel></rss>`

func TestOfficialBlogsScrapeUsesFeedTitleAsAuthorFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(officialBlogFixture))
	}))
	defer server.Close()

	o := &officialBlogs{client: server.Client(), limiter: httpclient.NewTokenBucket(100)}
	items, err := o.Scrape(t.Context(), map[string]string{"feed_urls": server.URL}, nil)
	if err != nil {
		t.Fatalf("Scrape: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	if items[0].Author != "Example Engineering Blog" {
		t.Errorf("expected feed title fallback author, got %q", items[0].Author)
	}
	if items[0].Tags[0] != "blog:Example Engineering Blog" {
		t.Errorf("unexpected tag: %v", items[0].Tags)
	}
}

func TestOfficialBlogsScrapeFallsBackToDefaultFeedsWhenUnconfigured(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(officialBlogFixture))
	}))
	defer server.Close()

	orig := defaultBlogFeeds
	defaultBlogFeeds = []string{server.URL}
	t.Cleanup(func() { defaultBlogFeeds = orig })

	o := &officialBlogs{client: server.Client(), limiter: httpclient.NewTokenBucket(100)}
	items, err := o.Scrape(t.Context(), map[string]string{"feed_urls": "   "}, nil)
	if err != nil {
		t.Fatalf("Scrape: %v", err)
	}
	if len(items) != 1 {
		t.Errorf("expected default feed fallback to be used, got %d items", len(items))
	}
}
