package plugins

import (
	"context"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"
	"golang.org/x/time/rate"

	"github.com/zenwatch/ingestor/internal/httpclient"
	"github.com/zenwatch/ingestor/internal/model"
	"github.com/zenwatch/ingestor/internal/scraper"
)

func init() {
	scraper.Register("youtube_rss", func() scraper.Plugin { return newYouTubeRSS() })
}

// youtubeRSS polls each subscribed channel's public Atom feed
// ("/feeds/videos.xml?channel_id=...") — no quota consumed, unlike
// youtube_trending's Data API calls. The orchestrator injects the
// active channel list via SetChannels before Scrape runs, since the
// Plugin contract carries no per-run storage handle.
type youtubeRSS struct {
	client   *http.Client
	limiter  *rate.Limiter
	baseURL  string
	channels []scraper.Channel
}

func newYouTubeRSS() *youtubeRSS {
	return &youtubeRSS{
		client:  &http.Client{Timeout: 30 * time.Second},
		limiter: httpclient.NewTokenBucket(30),
		baseURL: "https://www.youtube.com/feeds/videos.xml",
	}
}

func (y *youtubeRSS) SetChannels(channels []scraper.Channel) {
	y.channels = channels
}

func (y *youtubeRSS) Name() string                                 { return "youtube_rss" }
func (y *youtubeRSS) DisplayName() string                          { return "YouTube (subscriptions)" }
func (y *youtubeRSS) Version() string                              { return "1.0.0" }
func (y *youtubeRSS) RequiredConfig() []string                     { return nil }
func (y *youtubeRSS) ValidateConfig(config map[string]string) bool { return true }

func (y *youtubeRSS) Scrape(ctx context.Context, config map[string]string, keywords []scraper.Keyword) ([]model.NormalizedItem, error) {
	limit := maxArticles(config, 50)

	parser := gofeed.NewParser()
	parser.Client = y.client

	var items []model.NormalizedItem
	for _, channel := range y.channels {
		if channel.ChannelID == "" {
			continue
		}

		if err := httpclient.Acquire(ctx, y.limiter); err != nil {
			return items, nil
		}

		feed, err := parser.ParseURLWithContext(y.baseURL+"?channel_id="+channel.ChannelID, ctx)
		if err != nil {
			continue
		}

		for _, entry := range feed.Items {
			if len(items) >= limit {
				return items, nil
			}
			item, ok := youtubeRSSItem(entry, channel)
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

func youtubeRSSItem(entry *gofeed.Item, channel scraper.Channel) (model.NormalizedItem, bool) {
	if entry.Title == "" || entry.Link == "" {
		return model.NormalizedItem{}, false
	}

	videoID := entry.GUID
	if idx := len("yt:video:"); len(videoID) > idx && videoID[:idx] == "yt:video:" {
		videoID = videoID[idx:]
	}

	description := ""
	if ext, ok := entry.Extensions["media"]; ok {
		if group, ok := ext["group"]; ok && len(group) > 0 {
			if descExt, ok := group[0].Children["description"]; ok && len(descExt) > 0 {
				description = descExt[0].Value
			}
		}
	}

	thumbnail := ""
	if ext, ok := entry.Extensions["media"]; ok {
		if group, ok := ext["group"]; ok && len(group) > 0 {
			if thumbExt, ok := group[0].Children["thumbnail"]; ok && len(thumbExt) > 0 {
				thumbnail = thumbExt[0].Attrs["url"]
			}
		}
	}

	published := time.Now().UTC()
	if entry.PublishedParsed != nil {
		published = *entry.PublishedParsed
	}

	return model.NormalizedItem{
		SourceType:   "youtube_rss",
		ExternalID:   videoID,
		Title:        entry.Title,
		URL:          entry.Link,
		Content:      description,
		Author:       channel.ChannelName,
		PublishedAt:  published,
		Tags:         []string{"youtube"},
		VideoID:      videoID,
		ChannelID:    channel.ChannelID,
		ChannelName:  channel.ChannelName,
		ThumbnailURL: thumbnail,
	}, true
}
