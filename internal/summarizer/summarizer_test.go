package summarizer

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/zenwatch/ingestor/internal/model"
)

var errFakeStore = errors.New("simulated store failure")

type fakeStore struct {
	items       []*model.Item
	written     map[string]string
	loadErr     error
	writeErr    error
	failWriteID string
}

func (f *fakeStore) ItemsMissingSummary(ctx context.Context, limit int) ([]*model.Item, error) {
	return f.items, f.loadErr
}

func (f *fakeStore) SetItemSummary(ctx context.Context, itemID, summary string) error {
	if itemID == f.failWriteID {
		return f.writeErr
	}
	if f.written == nil {
		f.written = make(map[string]string)
	}
	f.written[itemID] = summary
	return nil
}

type fakeBackend struct {
	summaries map[string]string
	failID    string
}

func (b *fakeBackend) Summarize(ctx context.Context, item *model.Item) (string, error) {
	if item.ID == b.failID {
		return "", errors.New("backend unavailable")
	}
	return b.summaries[item.ID], nil
}

func TestSummarizeMissingWritesNonEmptyResults(t *testing.T) {
	store := &fakeStore{items: []*model.Item{{ID: "a"}, {ID: "b"}}}
	backend := &fakeBackend{summaries: map[string]string{"a": "summary a", "b": ""}}
	svc := NewService(store, backend, zerolog.Nop())

	n, err := svc.SummarizeMissing(context.Background(), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 1 {
		t.Fatalf("written = %d, want 1", n)
	}
	if store.written["a"] != "summary a" {
		t.Errorf("item a summary = %q, want %q", store.written["a"], "summary a")
	}
	if _, ok := store.written["b"]; ok {
		t.Errorf("item b should not be written (empty summary)")
	}
}

func TestSummarizeMissingSkipsPastBackendFailure(t *testing.T) {
	store := &fakeStore{items: []*model.Item{{ID: "broken"}, {ID: "ok"}}}
	backend := &fakeBackend{summaries: map[string]string{"ok": "fine"}, failID: "broken"}
	svc := NewService(store, backend, zerolog.Nop())

	n, err := svc.SummarizeMissing(context.Background(), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 1 {
		t.Errorf("written = %d, want 1 (broken item should be skipped, not abort the batch)", n)
	}
}

func TestSummarizeMissingPropagatesLoadError(t *testing.T) {
	store := &fakeStore{loadErr: errFakeStore}
	svc := NewService(store, NoopBackend{}, zerolog.Nop())

	if _, err := svc.SummarizeMissing(context.Background(), 10); !errors.Is(err, errFakeStore) {
		t.Fatalf("expected wrapped errFakeStore, got %v", err)
	}
}

func TestNoopBackendReturnsEmptySummary(t *testing.T) {
	summary, err := NoopBackend{}.Summarize(context.Background(), &model.Item{ID: "x"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary != "" {
		t.Errorf("summary = %q, want empty", summary)
	}
}
