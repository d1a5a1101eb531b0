package plugins

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/zenwatch/ingestor/internal/httpclient"
	"github.com/zenwatch/ingestor/internal/model"
	"github.com/zenwatch/ingestor/internal/scraper"
)

func init() {
	scraper.Register("hackernews", func() scraper.Plugin { return newHackerNews() })
}

type hnStory struct {
	ID          int    `json:"id"`
	Type        string `json:"type"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	By          string `json:"by"`
	Time        int64  `json:"time"`
	Score       int    `json:"score"`
	Descendants int    `json:"descendants"`
	Deleted     bool   `json:"deleted"`
}

// hackerNews hits the Firebase HN API directly: top-story IDs, then
// per-story detail fetches, early-exiting once max_articles have
// matched.
type hackerNews struct {
	session *httpclient.Session
	baseURL string
}

func newHackerNews() *hackerNews {
	return &hackerNews{
		session: httpclient.NewSession(httpclient.SessionConfig{
			PluginName:        "hackernews",
			RequestsPerMinute: 120,
		}, nopLogger()),
		baseURL: "https://hacker-news.firebaseio.com/v0",
	}
}

func (h *hackerNews) Name() string                                 { return "hackernews" }
func (h *hackerNews) DisplayName() string                          { return "HackerNews" }
func (h *hackerNews) Version() string                              { return "1.0.0" }
func (h *hackerNews) RequiredConfig() []string                     { return nil }
func (h *hackerNews) ValidateConfig(config map[string]string) bool { return true }

func (h *hackerNews) Scrape(ctx context.Context, config map[string]string, keywords []scraper.Keyword) ([]model.NormalizedItem, error) {
	limit := maxArticles(config, 50)

	ids, err := h.topStoryIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("hackernews: fetch top stories: %w", err)
	}

	fetchBudget := limit * 2
	if fetchBudget > len(ids) {
		fetchBudget = len(ids)
	}

	var items []model.NormalizedItem
	for _, id := range ids[:fetchBudget] {
		if len(items) >= limit {
			break
		}

		story, err := h.fetchStory(ctx, id)
		if err != nil || story == nil || story.Title == "" {
			continue
		}
		if story.Deleted || story.Type != "story" {
			continue
		}
		if !scraper.QuickMatch(story.Title, keywords) {
			continue
		}

		url := story.URL
		if url == "" {
			url = fmt.Sprintf("https://news.ycombinator.com/item?id=%d", story.ID)
		}
		author := story.By
		if author == "" {
			author = "unknown"
		}

		items = append(items, model.NormalizedItem{
			SourceType:    "hackernews",
			ExternalID:    fmt.Sprintf("%d", story.ID),
			Title:         story.Title,
			URL:           url,
			Author:        author,
			PublishedAt:   time.Unix(story.Time, 0).UTC(),
			Tags:          []string{"hackernews"},
			Upvotes:       story.Score,
			CommentsCount: story.Descendants,
		})
	}

	return items, nil
}

func (h *hackerNews) topStoryIDs(ctx context.Context) ([]int, error) {
	body, err := getBody(ctx, h.session, h.baseURL+"/topstories.json", nil, nil)
	if err != nil {
		return nil, err
	}
	var ids []int
	if err := json.Unmarshal(body, &ids); err != nil {
		return nil, fmt.Errorf("decode top stories: %w", err)
	}
	return ids, nil
}

func (h *hackerNews) fetchStory(ctx context.Context, id int) (*hnStory, error) {
	body, err := getBody(ctx, h.session, fmt.Sprintf("%s/item/%d.json", h.baseURL, id), nil, nil)
	if err != nil {
		return nil, err
	}
	var story hnStory
	if err := json.Unmarshal(body, &story); err != nil {
		return nil, fmt.Errorf("decode story %d: %w", id, err)
	}
	return &story, nil
}
