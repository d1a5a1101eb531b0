package model

import (
	"fmt"
	"strings"
)

const (
	maxTitleLen   = 500
	maxContentLen = 50000
)

// Validate checks a NormalizedItem against the invariants every plugin
// output must satisfy before Persistence will accept it. Plugins call
// this per item and drop (log + skip) anything that fails; it never
// panics or returns past the per-item boundary.
func (n *NormalizedItem) Validate() error {
	title := strings.TrimSpace(n.Title)
	if title == "" || len(title) > maxTitleLen {
		return fmt.Errorf("title length %d out of bounds [1,%d]", len(title), maxTitleLen)
	}
	if !strings.HasPrefix(n.URL, "http://") && !strings.HasPrefix(n.URL, "https://") {
		return fmt.Errorf("url %q is not http(s)", n.URL)
	}
	if strings.TrimSpace(n.SourceType) == "" {
		return fmt.Errorf("source_type is required")
	}
	if strings.TrimSpace(n.ExternalID) == "" {
		return fmt.Errorf("external_id is required")
	}
	if n.PublishedAt.IsZero() {
		return fmt.Errorf("published_at is required")
	}
	if len(n.Content) > maxContentLen {
		return fmt.Errorf("content length %d exceeds %d", len(n.Content), maxContentLen)
	}

	if len(n.Tags) > maxTags {
		n.Tags = n.Tags[:maxTags]
	}

	if IsVideoSourceType(n.SourceType) {
		if strings.TrimSpace(n.VideoID) == "" {
			return fmt.Errorf("video_id is required for video source type %q", n.SourceType)
		}
		if strings.TrimSpace(n.ChannelID) == "" {
			return fmt.Errorf("channel_id is required for video source type %q", n.SourceType)
		}
		if strings.TrimSpace(n.ChannelName) == "" {
			return fmt.Errorf("channel_name is required for video source type %q", n.SourceType)
		}
		if n.DurationSecs != nil && *n.DurationSecs < 0 {
			return fmt.Errorf("duration_seconds must be >= 0")
		}
		if n.ViewCount != nil && *n.ViewCount < 0 {
			return fmt.Errorf("view_count must be >= 0")
		}
	}

	return nil
}
