package plugins

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"
	"golang.org/x/time/rate"

	"github.com/zenwatch/ingestor/internal/httpclient"
	"github.com/zenwatch/ingestor/internal/model"
	"github.com/zenwatch/ingestor/internal/scraper"
)

func init() {
	scraper.Register("twitter", func() scraper.Plugin { return newTwitter() })
}

// nitterInstances is the public-mirror failover list, tried in order
// until one responds 200 — Nitter instances go dark often enough that
// a single hardcoded host isn't workable.
var nitterInstances = []string{
	"nitter.cz",
	"nitter.privacydev.net",
	"nitter.poast.org",
	"nitter.1d4.us",
	"nitter.kavin.rocks",
}

// nitterStatusPathRe extracts "<user>/status/<id>" from any URL shape a
// Nitter instance might produce, used as a fallback when the URL's host
// isn't one of the known instances above.
var nitterStatusPathRe = regexp.MustCompile(`/([^/]+/status/\d+)`)

var (
	nitterMu       sync.Mutex
	nitterWorking  string
	nitterResolved bool
)

// findWorkingNitterInstance probes each candidate's /github/rss feed
// until one responds 200, then caches the result for the process
// lifetime (module-level state, mutex-protected so only one probe runs
// at a time) so later scrapes skip the failover walk entirely.
func findWorkingNitterInstance(ctx context.Context, client *http.Client) (string, bool) {
	nitterMu.Lock()
	defer nitterMu.Unlock()
	if nitterResolved {
		return nitterWorking, nitterWorking != ""
	}

	for _, instance := range nitterInstances {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("https://%s/github/rss", instance), nil)
		if err != nil {
			continue
		}
		resp, err := client.Do(req)
		if err != nil {
			continue
		}
		resp.Body.Close()
		if resp.StatusCode == http.StatusOK {
			nitterWorking = instance
			nitterResolved = true
			return instance, true
		}
	}

	nitterResolved = true
	return "", false
}

// nitterToTwitterURL rewrites a Nitter permalink back to its twitter.com
// equivalent by stripping off whichever known instance host prefixes it;
// falls back to a generic "<user>/status/<id>" path extraction.
func nitterToTwitterURL(nitterURL string) string {
	if nitterURL == "" {
		return ""
	}
	for _, instance := range nitterInstances {
		if idx := strings.Index(nitterURL, instance); idx != -1 {
			return "https://twitter.com" + nitterURL[idx+len(instance):]
		}
	}
	if m := nitterStatusPathRe.FindStringSubmatch(nitterURL); m != nil {
		return "https://twitter.com/" + m[1]
	}
	return nitterURL
}

// twitter reads the Atom/RSS feed a Nitter instance exposes per handle
// ("/<handle>/rss") rather than the paid-only v2 API — the same
// workaround the original source used for keyword-following without a
// developer account.
type twitter struct {
	client  *http.Client
	limiter *rate.Limiter
}

func newTwitter() *twitter {
	return &twitter{
		client:  &http.Client{Timeout: 30 * time.Second},
		limiter: httpclient.NewTokenBucket(30),
	}
}

func (t *twitter) Name() string                                 { return "twitter" }
func (t *twitter) DisplayName() string                          { return "Twitter/X" }
func (t *twitter) Version() string                              { return "1.0.0" }
func (t *twitter) RequiredConfig() []string                     { return []string{"handles"} }
func (t *twitter) ValidateConfig(config map[string]string) bool { return strings.TrimSpace(config["handles"]) != "" }

func (t *twitter) Scrape(ctx context.Context, config map[string]string, keywords []scraper.Keyword) ([]model.NormalizedItem, error) {
	limit := maxArticles(config, 50)

	instance := strings.TrimRight(strings.TrimPrefix(strings.TrimPrefix(config["nitter_instance"], "https://"), "http://"), "/")
	if instance == "" {
		found, ok := findWorkingNitterInstance(ctx, t.client)
		if !ok {
			return nil, fmt.Errorf("twitter: no working nitter instance found")
		}
		instance = found
	}

	handles := strings.Split(config["handles"], ",")

	parser := gofeed.NewParser()
	parser.Client = t.client

	var items []model.NormalizedItem
	for _, handle := range handles {
		handle = strings.TrimSpace(strings.TrimPrefix(handle, "@"))
		if handle == "" {
			continue
		}

		if err := httpclient.Acquire(ctx, t.limiter); err != nil {
			return items, nil
		}

		feed, err := parser.ParseURLWithContext(fmt.Sprintf("https://%s/%s/rss", instance, handle), ctx)
		if err != nil {
			continue
		}

		for _, entry := range feed.Items {
			if len(items) >= limit {
				return items, nil
			}
			item, ok := tweetItem(entry, handle)
			if !ok {
				continue
			}
			if !scraper.QuickMatch(item.Title, keywords) {
				continue
			}
			items = append(items, item)
		}
	}

	return items, nil
}

func tweetItem(entry *gofeed.Item, handle string) (model.NormalizedItem, bool) {
	if entry.Link == "" {
		return model.NormalizedItem{}, false
	}

	text := stripHTML(entry.Description)
	title := text
	if len(title) > 140 {
		title = title[:140] + "…"
	}
	if title == "" {
		return model.NormalizedItem{}, false
	}

	published := time.Now().UTC()
	if entry.PublishedParsed != nil {
		published = *entry.PublishedParsed
	}

	twitterURL := nitterToTwitterURL(entry.Link)

	externalID := entry.GUID
	if externalID == "" {
		externalID = twitterURL
	}

	return model.NormalizedItem{
		SourceType:  "twitter",
		ExternalID:  externalID,
		Title:       title,
		URL:         twitterURL,
		Content:     text,
		Author:      "@" + handle,
		PublishedAt: published,
		Tags:        []string{"twitter:" + handle},
	}, true
}
