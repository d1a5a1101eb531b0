// Package model defines the canonical entities shared by every
// ingestion, scoring, and persistence component.
package model

import "time"

// Source describes one external content origin and its plugin wiring.
type Source struct {
	ID                   string
	Name                 string
	Type                 string
	BaseURL              string
	IsActive             bool
	ScrapeFrequencyHours int
	LastScrapedAt        *time.Time
	Config               map[string]string
}

// Item is the canonical, persisted shape for both articles and videos.
type Item struct {
	ID             string
	SourceID       string
	ExternalID     string
	Title          string
	URL            string
	Content        string
	Summary        string
	Author         string
	PublishedAt    time.Time
	ScrapedAt      time.Time
	Score          *float64
	Category       string
	Tags           []string
	Language       string
	Upvotes        int
	CommentsCount  int
	IsVideo        bool
	VideoID        string
	ThumbnailURL   string
	DurationSecs   int
	ViewCount      int64
	IsRead         bool
	IsFavorite     bool
	IsArchived     bool
	IsBookmarked   bool
	IsDismissed    bool
}

// IsVideoSourceType reports whether a source type produces video items.
func IsVideoSourceType(sourceType string) bool {
	return sourceType == "youtube_rss" || sourceType == "youtube_trending"
}

const maxTags = 10

// NormalizedItem is the in-flight, plugin-produced record that must pass
// validation before Persistence will accept it.
type NormalizedItem struct {
	SourceType    string
	ExternalID    string
	Title         string
	URL           string
	Content       string
	Summary       string
	Author        string
	PublishedAt   time.Time
	Tags          []string
	Upvotes       int
	CommentsCount int
	RawData       map[string]any

	// Video subtype fields.
	VideoID      string
	ChannelID    string
	ChannelName  string
	ThumbnailURL string
	DurationSecs *int
	ViewCount    *int64
}

// Keyword is a globally-scoped scoring term.
type Keyword struct {
	ID       string
	Keyword  string
	Category string
	Weight   float64
	IsActive bool
}

// UserKeyword is a per-user scoring term.
type UserKeyword struct {
	UserID   string
	Keyword  string
	Category string
	Weight   float64
	IsActive bool
}

// UserItemScore is a per-(user,item) personalized score.
type UserItemScore struct {
	UserID         string
	ItemID         string
	Score          float64
	KeywordMatches int
	ScoredAt       time.Time
}

// Trend is a per-(keyword,date) daily aggregate.
type Trend struct {
	Keyword      string
	Category     string
	Date         time.Time
	TrendScore   float64
	ArticleCount int
}

// RunStatus enumerates the lifecycle states of an IngestionRun.
type RunStatus string

const (
	RunStatusRunning        RunStatus = "running"
	RunStatusSuccess        RunStatus = "success"
	RunStatusPartialSuccess RunStatus = "partial_success"
	RunStatusFailed         RunStatus = "failed"
	RunStatusSkipped        RunStatus = "skipped"
)

// IngestionRun is the authoritative, append-then-seal telemetry record
// for one orchestrator execution.
type IngestionRun struct {
	TaskID          string
	SourceType      string
	StartedAt       time.Time
	CompletedAt     *time.Time
	Status          RunStatus
	ArticlesScraped int
	ArticlesSaved   int
	ErrorMessage    string
}

// User is the minimal account shape the core references by ID; full
// account CRUD lives outside the scope of this service.
type User struct {
	ID       int64
	Username string
	Email    string
}
