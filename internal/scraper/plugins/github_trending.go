package plugins

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/zenwatch/ingestor/internal/httpclient"
	"github.com/zenwatch/ingestor/internal/model"
	"github.com/zenwatch/ingestor/internal/scraper"
)

func init() {
	scraper.Register("github_trending", func() scraper.Plugin { return newGitHubTrending() })
}

// githubTrending scrapes the trending page's rendered HTML — GitHub
// has never shipped a trending API — pulling one repo card per result
// and keyword-filtering on name plus description.
type githubTrending struct {
	session *httpclient.Session
	baseURL string
}

func newGitHubTrending() *githubTrending {
	return &githubTrending{
		session: httpclient.NewSession(httpclient.SessionConfig{
			PluginName:        "github_trending",
			RequestsPerMinute: 30,
		}, nopLogger()),
		baseURL: "https://github.com/trending",
	}
}

func (g *githubTrending) Name() string                                 { return "github_trending" }
func (g *githubTrending) DisplayName() string                          { return "GitHub Trending" }
func (g *githubTrending) Version() string                              { return "1.0.0" }
func (g *githubTrending) RequiredConfig() []string                     { return nil }
func (g *githubTrending) ValidateConfig(config map[string]string) bool { return true }

func (g *githubTrending) Scrape(ctx context.Context, config map[string]string, keywords []scraper.Keyword) ([]model.NormalizedItem, error) {
	limit := maxArticles(config, 50)

	language := config["language"]
	query := url.Values{}
	if language != "" {
		query.Set("l", language)
	}
	query.Set("since", "daily")

	body, err := getBody(ctx, g.session, g.baseURL, query, nil)
	if err != nil {
		return nil, fmt.Errorf("github_trending: fetch page: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return nil, fmt.Errorf("github_trending: parse html: %w", err)
	}

	var items []model.NormalizedItem
	doc.Find("article.Box-row").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if len(items) >= limit {
			return false
		}

		heading := strings.TrimSpace(s.Find("h2 a").Text())
		if heading == "" {
			return true
		}

		href, exists := s.Find("h2 a").Attr("href")
		if !exists || href == "" {
			return true
		}
		repoName := strings.Trim(href, "/")

		description := strings.TrimSpace(s.Find("p.col-9").Text())

		starsText := strings.TrimSpace(s.Find("a[href$='/stargazers']").First().Text())
		stars := parseCompactNumber(starsText)

		forksText := strings.TrimSpace(s.Find("a[href$='/forks']").First().Text())
		forks := parseCompactNumber(forksText)

		todayStarsText := strings.TrimSpace(s.Find("span.d-inline-block.float-sm-right").First().Text())
		todayStars := 0
		if fields := strings.Fields(todayStarsText); len(fields) > 0 {
			todayStars = parseCompactNumber(fields[0])
		}

		title := repoName
		if !scraper.QuickMatch(title+" "+description, keywords) {
			return true
		}

		tags := []string{"github-trending"}
		if todayStars > 100 {
			tags = append(tags, "hot")
		}

		items = append(items, model.NormalizedItem{
			SourceType:    "github_trending",
			ExternalID:    repoName,
			Title:         title,
			URL:           "https://github.com" + href,
			Content:       description,
			Author:        strings.SplitN(repoName, "/", 2)[0],
			PublishedAt:   time.Now().UTC(),
			Tags:          tags,
			Upvotes:       stars,
			CommentsCount: forks,
			RawData: map[string]any{
				"stars":       stars,
				"forks":       forks,
				"today_stars": todayStars,
			},
		})
		return true
	})

	return items, nil
}

// parseCompactNumber turns GitHub's comma-grouped star counts ("12,345")
// into an int, returning 0 on anything unparsable.
func parseCompactNumber(s string) int {
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
