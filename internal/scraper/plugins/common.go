// Package plugins holds the concrete source adapters (component C5):
// one file per source, each self-registering into the shared
// scraper.Registry from its own init().
package plugins

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"github.com/zenwatch/ingestor/internal/httpclient"
)

// nopLogger is the logger a plugin builds its own Session with. Plugins
// log their own warnings through the orchestrator's logger (passed into
// Scrape via context in a richer deployment); the Session's internal
// retry/breaker logging is secondary and kept quiet by default.
func nopLogger() zerolog.Logger {
	return zerolog.Nop()
}

// maxArticles reads config["max_articles"], falling back to def.
func maxArticles(config map[string]string, def int) int {
	if v, ok := config["max_articles"]; ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

// boolConfig reads config[key] as a bool, falling back to def on
// absence or parse failure.
func boolConfig(config map[string]string, key string, def bool) bool {
	if v, ok := config[key]; ok {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

// intConfig reads config[key] as an int, falling back to def on
// absence or parse failure.
func intConfig(config map[string]string, key string, def int) int {
	if v, ok := config[key]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

// getBody issues a rate-limited, retrying GET through session and
// returns the raw response body. The caller decodes it.
func getBody(ctx context.Context, session *httpclient.Session, rawURL string, query url.Values, headers map[string]string) ([]byte, error) {
	resp, err := session.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		u := rawURL
		if len(query) > 0 {
			u += "?" + query.Encode()
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		return req, nil
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// stripHTML renders an HTML fragment down to its visible text, used by
// plugins (medium, twitter, official_blogs) that must keyword-match against rendered
// RSS content rather than markup.
func stripHTML(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html
	}
	return doc.Text()
}
