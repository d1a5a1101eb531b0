package plugins

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
)

func newTestReddit(t *testing.T, listing func(subreddit string) redditListing) (*reddit, string) {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/api/v1/access_token":
			json.NewEncoder(w).Encode(map[string]any{
				"access_token": "test-token",
				"token_type":   "bearer",
				"expires_in":   3600,
			})
		default:
			// path is "/r/<sub>/<sort>".
			parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
			sub := ""
			if len(parts) >= 2 {
				sub = parts[1]
			}
			json.NewEncoder(w).Encode(listing(sub))
		}
	}))
	t.Cleanup(server.Close)

	return &reddit{
		http:    resty.New().SetTimeout(5 * time.Second),
		baseURL: server.URL,
	}, server.URL + "/api/v1/access_token"
}

func post(id, title, permalink string) struct {
	Data redditPost `json:"data"`
} {
	return struct {
		Data redditPost `json:"data"`
	}{Data: redditPost{ID: id, Title: title, Permalink: permalink, CreatedUTC: float64(time.Now().Unix())}}
}

func TestRedditScrapeDedupsAcrossSubreddits(t *testing.T) {
	shared := post("1", "shared post", "/r/golang/comments/1/shared_post/")
	r, tokenURL := newTestReddit(t, func(subreddit string) redditListing {
		var listing redditListing
		listing.Data.Children = append(listing.Data.Children, shared)
		return listing
	})

	config := map[string]string{
		"client_id":     "id",
		"client_secret": "secret",
		"token_url":     tokenURL,
		"subreddits":    "golang,programming",
	}

	items, err := r.Scrape(t.Context(), config, nil)
	if err != nil {
		t.Fatalf("Scrape: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected cross-subreddit dedup by URL to leave 1 item, got %d", len(items))
	}
}

func TestRedditScrapeSkipsStickiedAndNSFW(t *testing.T) {
	listing := redditListing{}
	listing.Data.Children = []struct {
		Data redditPost `json:"data"`
	}{
		post("1", "normal post", "/r/golang/comments/1/normal/"),
		{Data: redditPost{ID: "2", Title: "pinned", Permalink: "/r/golang/comments/2/pinned/", Stickied: true}},
		{Data: redditPost{ID: "3", Title: "nsfw", Permalink: "/r/golang/comments/3/nsfw/", Over18: true}},
	}

	r, tokenURL := newTestReddit(t, func(subreddit string) redditListing { return listing })
	config := map[string]string{"client_id": "id", "client_secret": "secret", "token_url": tokenURL, "subreddits": "golang"}

	items, err := r.Scrape(t.Context(), config, nil)
	if err != nil {
		t.Fatalf("Scrape: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected stickied/nsfw posts filtered out, got %d items", len(items))
	}
}

func TestRedditToNormalizedFallsBackToPermalink(t *testing.T) {
	item := redditToNormalized(redditPost{ID: "1", Title: "t", Permalink: "/r/golang/comments/1/t/"}, "golang")
	if item.URL != "https://www.reddit.com/r/golang/comments/1/t/" {
		t.Errorf("unexpected URL fallback: %q", item.URL)
	}
}
