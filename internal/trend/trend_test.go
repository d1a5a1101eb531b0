package trend

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/zenwatch/ingestor/internal/model"
)

var errStoreFailure = errors.New("simulated store failure")

type fakeStore struct {
	keywords       []Keyword
	itemsByKeyword map[string][]*model.Item
	upserted       []model.Trend
	deletedCutoff  time.Time
	deleteCount    int
}

func (f *fakeStore) ActiveKeywords(ctx context.Context) ([]Keyword, error) {
	return f.keywords, nil
}

func (f *fakeStore) ItemsWithKeywordInTitleSince(ctx context.Context, keyword string, since time.Time) ([]*model.Item, error) {
	return f.itemsByKeyword[keyword], nil
}

func (f *fakeStore) UpsertTrend(ctx context.Context, t model.Trend) (bool, error) {
	f.upserted = append(f.upserted, t)
	return true, nil
}

func (f *fakeStore) DeleteTrendsOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	f.deletedCutoff = cutoff
	return f.deleteCount, nil
}

func scorePtr(f float64) *float64 { return &f }

func TestDetectTrendsScenarioSixFormula(t *testing.T) {
	items := make([]*model.Item, 5)
	for i := range items {
		items[i] = &model.Item{Title: "rust is great", Score: scorePtr(60)}
	}
	store := &fakeStore{
		keywords:       []Keyword{{Keyword: "rust", Category: "lang", Weight: 5}},
		itemsByKeyword: map[string][]*model.Item{"rust": items},
	}
	d := NewDetector(store, zerolog.Nop())

	result, err := d.DetectTrends(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.TrendsCreated != 1 || result.KeywordsAnalyzed != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if len(store.upserted) != 1 {
		t.Fatalf("expected 1 upsert, got %d", len(store.upserted))
	}
	got := store.upserted[0]
	assert.Equal(t, 5, got.ArticleCount)
	assert.InDelta(t, 150.0, got.TrendScore, 0.001, "5 * 5 * 60 / 10")
}

func TestDetectTrendsSkipsZeroArticleKeywords(t *testing.T) {
	store := &fakeStore{
		keywords: []Keyword{{Keyword: "ghost", Weight: 1}},
	}
	d := NewDetector(store, zerolog.Nop())

	result, err := d.DetectTrends(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.TrendsCreated != 0 {
		t.Errorf("expected no trends created, got %d", result.TrendsCreated)
	}
	if len(store.upserted) != 0 {
		t.Errorf("expected no upserts, got %d", len(store.upserted))
	}
}

func TestDetectTrendsNoKeywordsSkips(t *testing.T) {
	store := &fakeStore{}
	d := NewDetector(store, zerolog.Nop())

	result, err := d.DetectTrends(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != "skipped" || result.Reason != "no_keywords" {
		t.Errorf("unexpected result: %+v", result)
	}
}

type erroringItemsStore struct {
	fakeStore
	failKeyword string
}

func (e *erroringItemsStore) ItemsWithKeywordInTitleSince(ctx context.Context, keyword string, since time.Time) ([]*model.Item, error) {
	if keyword == e.failKeyword {
		return nil, errStoreFailure
	}
	return e.fakeStore.ItemsWithKeywordInTitleSince(ctx, keyword, since)
}

func TestDetectTrendsContinuesPastPerKeywordError(t *testing.T) {
	goodItems := []*model.Item{{Title: "go rocks", Score: scorePtr(40)}}
	store := &erroringItemsStore{
		fakeStore: fakeStore{
			keywords: []Keyword{
				{Keyword: "broken", Weight: 1},
				{Keyword: "go", Weight: 2},
			},
			itemsByKeyword: map[string][]*model.Item{"go": goodItems},
		},
		failKeyword: "broken",
	}
	d := NewDetector(store, zerolog.Nop())

	result, err := d.DetectTrends(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("unexpected top-level error: %v", err)
	}
	if result.KeywordsAnalyzed != 2 {
		t.Errorf("keywords analyzed = %d, want 2", result.KeywordsAnalyzed)
	}
	if result.TrendsCreated != 1 {
		t.Errorf("trends created = %d, want 1 (broken keyword should be skipped, not abort the run)", result.TrendsCreated)
	}
}

func TestCleanupOldTrendsUsesNinetyDayDefault(t *testing.T) {
	store := &fakeStore{deleteCount: 3}
	d := NewDetector(store, zerolog.Nop())

	now := time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC)
	deleted, cutoff, err := d.CleanupOldTrends(context.Background(), now, 90)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deleted != 3 {
		t.Errorf("deleted = %d, want 3", deleted)
	}
	wantCutoff := now.AddDate(0, 0, -90)
	if !cutoff.Equal(wantCutoff) {
		t.Errorf("cutoff = %v, want %v", cutoff, wantCutoff)
	}
}

