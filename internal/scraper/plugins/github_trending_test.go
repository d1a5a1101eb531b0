package plugins

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/zenwatch/ingestor/internal/httpclient"
)

const githubTrendingFixture = `
<html><body>
<article class="Box-row">
  <h2 class="h3 lh-condensed">
    <a href="/golang/go">golang / go</a>
  </h2>
  <p class="col-9 color-fg-muted my-1">The Go programming language</p>
  <a href="/golang/go/stargazers">114,832</a>
  <a href="/golang/go/forks">16,904</a>
  <span class="d-inline-block float-sm-right">312 stars today</span>
</article>
<article class="Box-row">
  <h2 class="h3 lh-condensed">
    <a href="/quiet/repo">quiet / repo</a>
  </h2>
  <p class="col-9 color-fg-muted my-1">Barely trending</p>
  <a href="/quiet/repo/stargazers">40</a>
  <a href="/quiet/repo/forks">2</a>
  <span class="d-inline-block float-sm-right">5 stars today</span>
</article>
</body></html>`

func newTestGitHubTrending(t *testing.T, body string) *githubTrending {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	return &githubTrending{
		session: httpclient.NewSession(httpclient.SessionConfig{PluginName: "github_trending"}, nopLogger()),
		baseURL: server.URL,
	}
}

func TestGitHubTrendingExtractsForksAndTodayStars(t *testing.T) {
	g := newTestGitHubTrending(t, githubTrendingFixture)

	items, err := g.Scrape(t.Context(), nil, nil)
	if err != nil {
		t.Fatalf("Scrape: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 repos, got %d", len(items))
	}

	repo := items[0]
	if repo.Upvotes != 114832 {
		t.Errorf("expected stars 114832, got %d", repo.Upvotes)
	}
	if repo.CommentsCount != 16904 {
		t.Errorf("expected forks stored in CommentsCount=16904, got %d", repo.CommentsCount)
	}
	if repo.RawData["today_stars"] != 312 {
		t.Errorf("expected today_stars 312 in RawData, got %v", repo.RawData["today_stars"])
	}
}

func TestGitHubTrendingTagsHotWhenTodayStarsExceedsThreshold(t *testing.T) {
	g := newTestGitHubTrending(t, githubTrendingFixture)

	items, err := g.Scrape(t.Context(), nil, nil)
	if err != nil {
		t.Fatalf("Scrape: %v", err)
	}

	hot := items[0]
	if !containsTag(hot.Tags, "hot") {
		t.Errorf("expected repo with 312 today-stars to be tagged hot, got %v", hot.Tags)
	}

	quiet := items[1]
	if containsTag(quiet.Tags, "hot") {
		t.Errorf("expected repo with 5 today-stars to not be tagged hot, got %v", quiet.Tags)
	}
}

func containsTag(tags []string, want string) bool {
	for _, tag := range tags {
		if tag == want {
			return true
		}
	}
	return false
}

func TestParseCompactNumberStripsCommas(t *testing.T) {
	cases := map[string]int{
		"12,345": 12345,
		"40":     40,
		"":       0,
		"n/a":    0,
	}
	for input, want := range cases {
		if got := parseCompactNumber(input); got != want {
			t.Errorf("parseCompactNumber(%q) = %d, want %d", input, got, want)
		}
	}
}
