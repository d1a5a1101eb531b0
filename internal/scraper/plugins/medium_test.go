package plugins

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/zenwatch/ingestor/internal/httpclient"
)

const mediumFixture = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel>
  <item>
    <title>Understanding Go Channels</title>
    <link>https://medium.com/p/understanding-go-channels</link>
    <guid>https://medium.com/p/understanding-go-channels</guid>
    <description>&lt;p&gt;Channels are &lt;b&gt;great&lt;/b&gt;.&lt;/p&gt;</description>
    <category>golang</category>
    <pubDate>Mon, 01 Jan 2024 00:00:00 GMT</pubDate>
  </item>
</channel></rss>`

func newTestMedium(t *testing.T, body string) (*medium, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	return &medium{
		client:  server.Client(),
		limiter: httpclient.NewTokenBucket(100),
		baseURL: server.URL,
	}, server
}

func TestMediumScrapeStripsHTMLFromDescription(t *testing.T) {
	m, _ := newTestMedium(t, mediumFixture)

	items, err := m.Scrape(t.Context(), map[string]string{"tag": "golang"}, nil)
	if err != nil {
		t.Fatalf("Scrape: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	if items[0].Content != "Channels are great." {
		t.Errorf("expected stripped HTML content, got %q", items[0].Content)
	}
}

func TestMediumScrapeDefaultsToProgrammingTagWhenUnconfigured(t *testing.T) {
	var requestedPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestedPath = r.URL.Path
		w.Write([]byte(mediumFixture))
	}))
	defer server.Close()

	m := &medium{client: server.Client(), limiter: httpclient.NewTokenBucket(100), baseURL: server.URL}
	if _, err := m.Scrape(t.Context(), nil, nil); err != nil {
		t.Fatalf("Scrape: %v", err)
	}
	if requestedPath != "/feed/tag/programming" {
		t.Errorf("expected default programming tag feed, got %q", requestedPath)
	}
}

func TestNormalizeMediumTagLowercasesAndDashesSpaces(t *testing.T) {
	if got := normalizeMediumTag(" Machine Learning "); got != "machine-learning" {
		t.Errorf("normalizeMediumTag() = %q", got)
	}
}
