package plugins

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"golang.org/x/time/rate"

	"github.com/zenwatch/ingestor/internal/httpclient"
	"github.com/zenwatch/ingestor/internal/model"
	"github.com/zenwatch/ingestor/internal/scraper"
)

func init() {
	scraper.Register("medium", func() scraper.Plugin { return newMedium() })
}

// medium has no public search API; the feed endpoint is the only
// stable surface, keyed by tag ("/feed/tag/<tag>") or publication
// ("/feed/<publication>"). A config "tag" or "publication" selects a
// single feed; otherwise each keyword drives one tag feed, at most 5
// per run, with "programming" as the tag when there are no keywords.
type medium struct {
	client  *http.Client
	limiter *rate.Limiter
	baseURL string
}

func newMedium() *medium {
	return &medium{
		client:  &http.Client{Timeout: 30 * time.Second},
		limiter: httpclient.NewTokenBucket(30),
		baseURL: "https://medium.com",
	}
}

func (m *medium) Name() string                                 { return "medium" }
func (m *medium) DisplayName() string                          { return "Medium" }
func (m *medium) Version() string                              { return "1.0.0" }
func (m *medium) RequiredConfig() []string                     { return nil }
func (m *medium) ValidateConfig(config map[string]string) bool { return true }

func (m *medium) Scrape(ctx context.Context, config map[string]string, keywords []scraper.Keyword) ([]model.NormalizedItem, error) {
	limit := maxArticles(config, 50)

	var feedPaths []string
	if tag := config["tag"]; tag != "" {
		feedPaths = append(feedPaths, "/feed/tag/"+normalizeMediumTag(tag))
	} else if pub := config["publication"]; pub != "" {
		feedPaths = append(feedPaths, "/feed/"+strings.TrimPrefix(pub, "/"))
	} else {
		for _, kw := range keywords {
			feedPaths = append(feedPaths, "/feed/tag/"+normalizeMediumTag(kw.Keyword))
			if len(feedPaths) >= 5 {
				break
			}
		}
	}
	if len(feedPaths) == 0 {
		feedPaths = []string{"/feed/tag/programming"}
	}

	parser := gofeed.NewParser()
	parser.Client = m.client

	seen := make(map[string]bool)
	var items []model.NormalizedItem
	for _, path := range feedPaths {
		if err := httpclient.Acquire(ctx, m.limiter); err != nil {
			return items, nil
		}

		feed, err := parser.ParseURLWithContext(m.baseURL+path, ctx)
		if err != nil {
			continue
		}

		for _, entry := range feed.Items {
			if len(items) >= limit {
				return items, nil
			}
			item, ok := mediumItem(entry)
			if !ok || seen[item.URL] {
				continue
			}
			if !scraper.QuickMatch(item.Title, keywords) {
				continue
			}
			seen[item.URL] = true
			items = append(items, item)
		}
	}

	return items, nil
}

func normalizeMediumTag(tag string) string {
	tag = strings.ToLower(strings.TrimSpace(tag))
	return strings.ReplaceAll(tag, " ", "-")
}

func mediumItem(entry *gofeed.Item) (model.NormalizedItem, bool) {
	if entry.Title == "" || entry.Link == "" {
		return model.NormalizedItem{}, false
	}

	content := entry.Description
	if entry.Content != "" {
		content = entry.Content
	}
	content = stripHTML(content)

	published := time.Now().UTC()
	if entry.PublishedParsed != nil {
		published = *entry.PublishedParsed
	}

	author := "unknown"
	if entry.Author != nil && entry.Author.Name != "" {
		author = entry.Author.Name
	}

	var tags []string
	for _, c := range entry.Categories {
		tags = append(tags, c)
	}

	externalID := entry.GUID
	if externalID == "" {
		externalID = entry.Link
	}

	return model.NormalizedItem{
		SourceType:  "medium",
		ExternalID:  externalID,
		Title:       entry.Title,
		URL:         entry.Link,
		Content:     content,
		Author:      author,
		PublishedAt: published,
		Tags:        tags,
	}, true
}
