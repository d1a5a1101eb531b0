package plugins

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/zenwatch/ingestor/internal/httpclient"
	"github.com/zenwatch/ingestor/internal/scraper"
)

const youtubeRSSFixture = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom" xmlns:media="http://search.yahoo.com/mrss/">
  <entry>
    <id>yt:video:abc123</id>
    <title>Go 1.23 release notes</title>
    <link rel="alternate" href="https://www.youtube.com/watch?v=abc123"/>
    <published>2024-01-01T00:00:00+00:00</published>
    <media:group>
      <media:description>What's new in Go 1.23</media:description>
      <media:thumbnail url="https://i.ytimg.com/vi/abc123/hqdefault.jpg"/>
    </media:group>
  </entry>
</feed>`

func TestYouTubeRSSScrapeExtractsVideoIDAndMediaFields(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(youtubeRSSFixture))
	}))
	defer server.Close()

	y := &youtubeRSS{
		client:   server.Client(),
		limiter:  httpclient.NewTokenBucket(100),
		baseURL:  server.URL,
		channels: []scraper.Channel{{ChannelID: "UC123", ChannelName: "Go Team"}},
	}

	items, err := y.Scrape(t.Context(), nil, nil)
	if err != nil {
		t.Fatalf("Scrape: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 video item, got %d", len(items))
	}
	item := items[0]
	if item.VideoID != "abc123" {
		t.Errorf("expected video ID stripped of yt:video: prefix, got %q", item.VideoID)
	}
	if item.Content != "What's new in Go 1.23" {
		t.Errorf("expected media:description extracted, got %q", item.Content)
	}
	if item.ThumbnailURL != "https://i.ytimg.com/vi/abc123/hqdefault.jpg" {
		t.Errorf("expected media:thumbnail url extracted, got %q", item.ThumbnailURL)
	}
	if item.Author != "Go Team" {
		t.Errorf("expected channel name as author, got %q", item.Author)
	}
}

func TestYouTubeRSSScrapeSkipsChannelsWithoutID(t *testing.T) {
	y := &youtubeRSS{
		client:   &http.Client{},
		limiter:  httpclient.NewTokenBucket(100),
		channels: []scraper.Channel{{ChannelID: ""}},
	}
	items, err := y.Scrape(t.Context(), nil, nil)
	if err != nil {
		t.Fatalf("Scrape: %v", err)
	}
	if items != nil {
		t.Errorf("expected no items for channel without ID, got %v", items)
	}
}
