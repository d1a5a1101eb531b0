package plugins

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/zenwatch/ingestor/internal/model"
	"github.com/zenwatch/ingestor/internal/scraper"
)

func init() {
	scraper.Register("reddit", func() scraper.Plugin { return newReddit() })
}

type redditListing struct {
	Data struct {
		Children []struct {
			Data redditPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type redditPost struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Selftext    string  `json:"selftext"`
	URL         string  `json:"url"`
	Permalink   string  `json:"permalink"`
	Author      string  `json:"author"`
	CreatedUTC  float64 `json:"created_utc"`
	Ups         int     `json:"ups"`
	NumComments int     `json:"num_comments"`
	Over18      bool    `json:"over_18"`
	Stickied    bool    `json:"stickied"`
	LinkFlair   string  `json:"link_flair_text"`
}

var defaultSubreddits = []string{"programming", "MachineLearning", "golang"}

// reddit authenticates as a script app via the client-credentials grant
// (Reddit's "application only" OAuth flow, no user context needed for
// public listings) and pulls r/<sub>/<sort> through the oauth.reddit.com
// host, which carries a far more generous rate limit than the anonymous
// www.reddit.com/.json endpoints.
type reddit struct {
	http     *resty.Client
	tokenSrc oauth2.TokenSource
	baseURL  string
}

func newReddit() *reddit {
	return &reddit{
		http:    resty.New().SetTimeout(30 * time.Second),
		baseURL: "https://oauth.reddit.com",
	}
}

func (r *reddit) Name() string              { return "reddit" }
func (r *reddit) DisplayName() string       { return "Reddit" }
func (r *reddit) Version() string           { return "1.0.0" }
func (r *reddit) RequiredConfig() []string  { return []string{"client_id", "client_secret"} }

func (r *reddit) ValidateConfig(config map[string]string) bool {
	return config["client_id"] != "" && config["client_secret"] != ""
}

func (r *reddit) Scrape(ctx context.Context, config map[string]string, keywords []scraper.Keyword) ([]model.NormalizedItem, error) {
	limit := maxArticles(config, 50)

	tokenURL := config["token_url"]
	if tokenURL == "" {
		tokenURL = "https://www.reddit.com/api/v1/access_token"
	}
	cfg := clientcredentials.Config{
		ClientID:     config["client_id"],
		ClientSecret: config["client_secret"],
		TokenURL:     tokenURL,
	}
	r.tokenSrc = cfg.TokenSource(ctx)

	subreddits := defaultSubreddits
	if raw, ok := config["subreddits"]; ok && strings.TrimSpace(raw) != "" {
		subreddits = strings.Split(raw, ",")
	}

	sortMode := config["sort"]
	if sortMode == "" {
		sortMode = "hot"
	}

	seen := make(map[string]bool)
	var items []model.NormalizedItem
	for _, sub := range subreddits {
		sub = strings.TrimSpace(sub)
		if sub == "" {
			continue
		}

		posts, err := r.fetchSubreddit(ctx, sub, sortMode)
		if err != nil {
			continue
		}

		for _, post := range posts {
			if len(items) >= limit {
				return items, nil
			}
			if post.Stickied || post.Over18 || post.Title == "" {
				continue
			}
			if !scraper.QuickMatch(post.Title, keywords) {
				continue
			}
			item := redditToNormalized(post, sub)
			if item.URL == "" || seen[item.URL] {
				continue
			}
			seen[item.URL] = true
			items = append(items, item)
		}
	}

	return items, nil
}

func (r *reddit) fetchSubreddit(ctx context.Context, subreddit, sortMode string) ([]redditPost, error) {
	token, err := r.tokenSrc.Token()
	if err != nil {
		return nil, fmt.Errorf("reddit: fetch access token: %w", err)
	}

	var listing redditListing
	resp, err := r.http.R().
		SetContext(ctx).
		SetAuthToken(token.AccessToken).
		SetHeader("User-Agent", "ingestor/1.0 (by /u/ingestor-bot)").
		SetQueryParam("limit", "50").
		SetResult(&listing).
		Get(fmt.Sprintf("%s/r/%s/%s", r.baseURL, subreddit, sortMode))
	if err != nil {
		return nil, fmt.Errorf("reddit: fetch r/%s: %w", subreddit, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("reddit: r/%s: status %d", subreddit, resp.StatusCode())
	}

	posts := make([]redditPost, 0, len(listing.Data.Children))
	for _, child := range listing.Data.Children {
		posts = append(posts, child.Data)
	}
	return posts, nil
}

func redditToNormalized(post redditPost, subreddit string) model.NormalizedItem {
	itemURL := post.URL
	if itemURL == "" || strings.HasPrefix(itemURL, "/r/") {
		itemURL = "https://www.reddit.com" + post.Permalink
	}

	author := post.Author
	if author == "" {
		author = "unknown"
	}

	tags := []string{"r/" + subreddit}
	if post.LinkFlair != "" {
		tags = append(tags, post.LinkFlair)
	}

	return model.NormalizedItem{
		SourceType:    "reddit",
		ExternalID:    post.ID,
		Title:         post.Title,
		URL:           itemURL,
		Content:       post.Selftext,
		Author:        author,
		PublishedAt:   time.Unix(int64(post.CreatedUTC), 0).UTC(),
		Tags:          tags,
		Upvotes:       post.Ups,
		CommentsCount: post.NumComments,
	}
}
