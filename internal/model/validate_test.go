package model

import (
	"testing"
	"time"
)

func validItem() NormalizedItem {
	return NormalizedItem{
		SourceType:  "hackernews",
		ExternalID:  "123",
		Title:       "Some title",
		URL:         "https://example.com/a",
		PublishedAt: time.Unix(1700000000, 0),
	}
}

func TestValidateOK(t *testing.T) {
	n := validItem()
	if err := n.Validate(); err != nil {
		t.Fatalf("expected valid item, got %v", err)
	}
}

func TestValidateRejectsBadURL(t *testing.T) {
	n := validItem()
	n.URL = "ftp://example.com/a"
	if err := n.Validate(); err == nil {
		t.Fatal("expected error for non-http(s) url")
	}
}

func TestValidateRejectsEmptyTitle(t *testing.T) {
	n := validItem()
	n.Title = "   "
	if err := n.Validate(); err == nil {
		t.Fatal("expected error for empty title")
	}
}

func TestValidateTrimsTagsToTen(t *testing.T) {
	n := validItem()
	for i := 0; i < 15; i++ {
		n.Tags = append(n.Tags, "tag")
	}
	if err := n.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(n.Tags) != 10 {
		t.Fatalf("expected tags trimmed to 10, got %d", len(n.Tags))
	}
}

func TestValidateVideoRequiresChannelFields(t *testing.T) {
	n := validItem()
	n.SourceType = "youtube_rss"
	n.VideoID = "abc"
	if err := n.Validate(); err == nil {
		t.Fatal("expected error for missing channel_id/channel_name")
	}
	n.ChannelID = "chan"
	n.ChannelName = "Channel"
	if err := n.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
