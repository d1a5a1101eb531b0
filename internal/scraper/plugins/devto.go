package plugins

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/zenwatch/ingestor/internal/httpclient"
	"github.com/zenwatch/ingestor/internal/model"
	"github.com/zenwatch/ingestor/internal/scraper"
)

func init() {
	scraper.Register("devto", func() scraper.Plugin { return newDevTo() })
}

type devtoArticle struct {
	ID                    int    `json:"id"`
	Title                 string `json:"title"`
	URL                   string `json:"url"`
	Description           string `json:"description"`
	PublishedAt           string `json:"published_at"`
	CreatedAt             string `json:"created_at"`
	PositiveReactionCount int    `json:"positive_reactions_count"`
	CommentsCount         int    `json:"comments_count"`
	TagList               []string `json:"tag_list"`
	User                  struct {
		Name     string `json:"name"`
		Username string `json:"username"`
	} `json:"user"`
}

// devTo fetches from the public Forem REST API: search by tag for each
// keyword (max 5 tags per run) or fetch latest, then dedup by URL.
type devTo struct {
	session *httpclient.Session
	baseURL string
}

func newDevTo() *devTo {
	return &devTo{
		session: httpclient.NewSession(httpclient.SessionConfig{
			PluginName:        "devto",
			RequestsPerMinute: 20,
		}, nopLogger()),
		baseURL: "https://dev.to/api",
	}
}

func (d *devTo) Name() string                                 { return "devto" }
func (d *devTo) DisplayName() string                          { return "Dev.to" }
func (d *devTo) Version() string                              { return "1.0.0" }
func (d *devTo) RequiredConfig() []string                     { return nil }
func (d *devTo) ValidateConfig(config map[string]string) bool { return true }

func (d *devTo) Scrape(ctx context.Context, config map[string]string, keywords []scraper.Keyword) ([]model.NormalizedItem, error) {
	limit := maxArticles(config, 50)
	perPage := limit
	if perPage > 100 {
		perPage = 100
	}

	var raw []devtoArticle
	if len(keywords) > 0 {
		tags := keywords
		if len(tags) > 5 {
			tags = tags[:5]
		}
		for _, kw := range tags {
			articles, err := d.fetchByTag(ctx, kw.Keyword, perPage)
			if err != nil {
				continue
			}
			raw = append(raw, articles...)
			if len(raw) >= limit {
				break
			}
		}
	} else {
		articles, err := d.fetchLatest(ctx, perPage)
		if err != nil {
			return nil, fmt.Errorf("devto: fetch latest: %w", err)
		}
		raw = articles
	}

	seen := make(map[string]bool)
	var items []model.NormalizedItem
	for _, a := range raw {
		if a.URL == "" || seen[a.URL] {
			continue
		}
		seen[a.URL] = true
		items = append(items, toNormalized(a))
		if len(items) >= limit {
			break
		}
	}
	return items, nil
}

func (d *devTo) fetchLatest(ctx context.Context, perPage int) ([]devtoArticle, error) {
	return d.fetch(ctx, url.Values{
		"per_page": {strconv.Itoa(perPage)},
		"state":    {"fresh"},
	})
}

func (d *devTo) fetchByTag(ctx context.Context, tag string, perPage int) ([]devtoArticle, error) {
	normalized := strings.ToLower(strings.ReplaceAll(tag, " ", ""))
	return d.fetch(ctx, url.Values{
		"tag":      {normalized},
		"per_page": {strconv.Itoa(perPage)},
		"state":    {"fresh"},
	})
}

func (d *devTo) fetch(ctx context.Context, query url.Values) ([]devtoArticle, error) {
	body, err := getBody(ctx, d.session, d.baseURL+"/articles", query, nil)
	if err != nil {
		return nil, err
	}
	var articles []devtoArticle
	if err := json.Unmarshal(body, &articles); err != nil {
		return nil, fmt.Errorf("decode articles: %w", err)
	}
	return articles, nil
}

func toNormalized(a devtoArticle) model.NormalizedItem {
	publishedStr := a.PublishedAt
	if publishedStr == "" {
		publishedStr = a.CreatedAt
	}
	published, err := time.Parse(time.RFC3339, publishedStr)
	if err != nil {
		published = time.Now().UTC()
	}

	author := a.User.Name
	if author == "" {
		author = a.User.Username
	}
	if author == "" {
		author = "unknown"
	}

	return model.NormalizedItem{
		SourceType:    "devto",
		ExternalID:    strconv.Itoa(a.ID),
		Title:         a.Title,
		URL:           a.URL,
		Content:       a.Description,
		Author:        author,
		PublishedAt:   published,
		Tags:          a.TagList,
		Upvotes:       a.PositiveReactionCount,
		CommentsCount: a.CommentsCount,
	}
}
