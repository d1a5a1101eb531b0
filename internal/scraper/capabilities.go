package scraper

import "github.com/zenwatch/ingestor/internal/quota"

// QuotaAware is an optional capability a plugin implements when it
// talks to a metered vendor API. The orchestrator type-asserts after
// Get() and injects the shared quota.Manager before calling Scrape —
// this keeps the Plugin contract itself free of concerns only one
// plugin (youtube_trending) needs.
type QuotaAware interface {
	SetQuotaManager(m *quota.Manager)
}

// Channel is a subscribed YouTube channel the orchestrator loads from
// the store and hands to the youtube_rss plugin ahead of Scrape.
type Channel struct {
	ChannelID   string
	ChannelName string
}

// ChannelAware is the optional capability youtube_rss implements so the
// orchestrator can inject the active channel list it loaded from the
// store, per spec §4.7 step 4.
type ChannelAware interface {
	SetChannels(channels []Channel)
}
