package plugins

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"github.com/zenwatch/ingestor/internal/metrics"
	"github.com/zenwatch/ingestor/internal/model"
	"github.com/zenwatch/ingestor/internal/quota"
	"github.com/zenwatch/ingestor/internal/scraper"
)

// shortsDurationCeiling is the upper bound (inclusive) a video's
// duration must fall under to count as a YouTube Short.
const shortsDurationCeiling = 60

func init() {
	scraper.Register("youtube_trending", func() scraper.Plugin { return newYouTubeTrending() })
}

// videosListUnits is the documented quota cost of a videos.list call,
// charged once per successful call regardless of part count or page size.
const videosListUnits = 100

// youtubeTrending hits the Data API's chart=mostPopular endpoint,
// which is flat-rate cheap compared to search.list. It implements
// QuotaAware so the orchestrator can wire in the shared daily counter
// before the first call, and refuses to run once the counter reports
// the day's budget exhausted.
type youtubeTrending struct {
	apiKey string
	quota  *quota.Manager
}

func newYouTubeTrending() *youtubeTrending {
	return &youtubeTrending{}
}

func (y *youtubeTrending) SetQuotaManager(m *quota.Manager) {
	y.quota = m
}

func (y *youtubeTrending) Name() string        { return "youtube_trending" }
func (y *youtubeTrending) DisplayName() string  { return "YouTube Trending" }
func (y *youtubeTrending) Version() string      { return "1.0.0" }
func (y *youtubeTrending) RequiredConfig() []string {
	return []string{"api_key"}
}

func (y *youtubeTrending) ValidateConfig(config map[string]string) bool {
	return config["api_key"] != ""
}

func (y *youtubeTrending) Scrape(ctx context.Context, config map[string]string, keywords []scraper.Keyword) ([]model.NormalizedItem, error) {
	limit := maxArticles(config, 50)

	apiKey := config["api_key"]
	if apiKey == "" {
		return nil, fmt.Errorf("youtube_trending: api_key not configured")
	}

	if y.quota != nil {
		ok, err := y.quota.CheckQuota(ctx)
		if err != nil {
			return nil, fmt.Errorf("youtube_trending: check quota: %w", err)
		}
		if !ok {
			return nil, nil
		}
	}

	regionCode := config["region_code"]
	if regionCode == "" {
		regionCode = "US"
	}
	categoryID := config["category_id"]
	if categoryID == "" {
		categoryID = "28" // Science & Technology
	}

	svc, err := youtube.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("youtube_trending: build client: %w", err)
	}

	maxResults := int64(limit)
	if maxResults > 50 {
		maxResults = 50
	}

	call := svc.Videos.List([]string{"snippet", "statistics", "contentDetails"}).
		Chart("mostPopular").
		RegionCode(regionCode).
		VideoCategoryId(categoryID).
		MaxResults(maxResults)

	resp, err := call.Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("youtube_trending: videos.list: %w", err)
	}
	if y.quota != nil {
		if err := y.quota.RecordUsage(ctx, videosListUnits); err == nil {
			if usage, err := y.quota.Usage(ctx); err == nil {
				metrics.SetYouTubeQuotaUsage(usage)
			}
		}
	}

	includeShorts := boolConfig(config, "include_shorts", true)
	minViewCount := intConfig(config, "min_view_count", 0)
	minKeywordMatches := intConfig(config, "min_keyword_matches", 0)

	type scoredVideo struct {
		item  model.NormalizedItem
		score float64
	}
	var candidates []scoredVideo

	for _, v := range resp.Items {
		if v.Snippet == nil {
			continue
		}

		relevance, matches := videoKeywordRelevance(v, keywords)
		if matches < minKeywordMatches {
			continue
		}

		var views int64
		var upvotes int
		if v.Statistics != nil {
			views = int64(v.Statistics.ViewCount)
			upvotes = int(v.Statistics.LikeCount)
		}
		if int(views) < minViewCount {
			continue
		}

		duration := 0
		if v.ContentDetails != nil {
			duration = parseISO8601Duration(v.ContentDetails.Duration)
		}
		if !includeShorts && duration > 0 && duration <= shortsDurationCeiling {
			continue
		}

		published := time.Now().UTC()
		if v.Snippet.PublishedAt != "" {
			if t, err := time.Parse(time.RFC3339, v.Snippet.PublishedAt); err == nil {
				published = t
			}
		}

		thumbnail := ""
		if v.Snippet.Thumbnails != nil && v.Snippet.Thumbnails.High != nil {
			thumbnail = v.Snippet.Thumbnails.High.Url
		}

		candidates = append(candidates, scoredVideo{
			score: relevance,
			item: model.NormalizedItem{
				SourceType:   "youtube_trending",
				ExternalID:   v.Id,
				Title:        v.Snippet.Title,
				URL:          "https://www.youtube.com/watch?v=" + v.Id,
				Content:      v.Snippet.Description,
				Author:       v.Snippet.ChannelTitle,
				PublishedAt:  published,
				Tags:         []string{"youtube-trending"},
				Upvotes:      upvotes,
				VideoID:      v.Id,
				ChannelID:    v.Snippet.ChannelId,
				ChannelName:  v.Snippet.ChannelTitle,
				ThumbnailURL: thumbnail,
				ViewCount:    &views,
				DurationSecs: &duration,
			},
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].score > candidates[j].score })

	var items []model.NormalizedItem
	for _, c := range candidates {
		items = append(items, c.item)
		if len(items) >= limit {
			break
		}
	}

	return items, nil
}

// videoKeywordRelevance returns Σweight over keywords matched
// case-insensitively against title+description+tags, and the number of
// distinct keywords matched — the per-video relevance score §4.5
// describes for this plugin, used both to filter out videos below
// min_keyword_matches and to sort the remainder.
func videoKeywordRelevance(v *youtube.Video, keywords []scraper.Keyword) (float64, int) {
	if v.Snippet == nil {
		return 0, 0
	}
	text := strings.ToLower(strings.Join([]string{
		v.Snippet.Title, v.Snippet.Description, strings.Join(v.Snippet.Tags, " "),
	}, " "))

	var weight float64
	matches := 0
	for _, kw := range keywords {
		needle := strings.ToLower(strings.TrimSpace(kw.Keyword))
		if needle == "" {
			continue
		}
		if strings.Contains(text, needle) {
			w := kw.Weight
			if w == 0 {
				w = 1.0
			}
			weight += w
			matches++
		}
	}
	return weight, matches
}

// parseISO8601Duration parses the subset of ISO-8601 durations the
// Data API returns (PT#H#M#S) into whole seconds.
func parseISO8601Duration(s string) int {
	if len(s) < 2 || s[0] != 'P' {
		return 0
	}
	s = s[1:]

	var hours, minutes, seconds int
	var num int
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			num = num*10 + int(r-'0')
		case r == 'T':
			num = 0
		case r == 'H':
			hours = num
			num = 0
		case r == 'M':
			minutes = num
			num = 0
		case r == 'S':
			seconds = num
			num = 0
		}
	}
	return hours*3600 + minutes*60 + seconds
}
