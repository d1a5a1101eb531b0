package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/zenwatch/ingestor/internal/model"
	"github.com/zenwatch/ingestor/internal/scoring"
	"github.com/zenwatch/ingestor/internal/scraper"
)

type fakeStore struct {
	sources       []*model.Source
	keywords      []scoring.Keyword
	channels      []scraper.Channel
	persisted     map[string]int
	persistErrFor string
	runs          map[string]model.RunStatus
	touched       map[string]bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{persisted: map[string]int{}, runs: map[string]model.RunStatus{}, touched: map[string]bool{}}
}

func (f *fakeStore) CreateRunningRun(ctx context.Context, taskID, sourceType string, startedAt time.Time) error {
	f.runs[taskID] = model.RunStatusRunning
	return nil
}

func (f *fakeStore) CompleteRun(ctx context.Context, taskID string, status model.RunStatus, articlesScraped, articlesSaved int, errMsg string, completedAt time.Time) error {
	f.runs[taskID] = status
	return nil
}

func (f *fakeStore) ActiveSources(ctx context.Context) ([]*model.Source, error) {
	return f.sources, nil
}

func (f *fakeStore) ActiveGlobalKeywords(ctx context.Context) ([]scoring.Keyword, error) {
	return f.keywords, nil
}

func (f *fakeStore) ActiveChannels(ctx context.Context) ([]scraper.Channel, error) {
	return f.channels, nil
}

func (f *fakeStore) PersistNormalized(ctx context.Context, items []model.NormalizedItem, sourceType string) (int, error) {
	if sourceType == f.persistErrFor {
		return 0, errors.New("simulated persist failure")
	}
	f.persisted[sourceType] += len(items)
	return len(items), nil
}

func (f *fakeStore) TouchLastScraped(ctx context.Context, sourceID string, when time.Time) error {
	f.touched[sourceID] = true
	return nil
}

type fakePlugin struct {
	name  string
	items []model.NormalizedItem
	err   error
	block chan struct{}
}

func (p *fakePlugin) Name() string                                    { return p.name }
func (p *fakePlugin) DisplayName() string                              { return p.name }
func (p *fakePlugin) Version() string                                  { return "test" }
func (p *fakePlugin) RequiredConfig() []string                        { return nil }
func (p *fakePlugin) ValidateConfig(config map[string]string) bool    { return true }
func (p *fakePlugin) Scrape(ctx context.Context, config map[string]string, keywords []scraper.Keyword) ([]model.NormalizedItem, error) {
	if p.block != nil {
		<-p.block
	}
	return p.items, p.err
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.SoftDeadline = time.Second
	cfg.HardDeadline = 2 * time.Second
	cfg.RunScoring = false
	return cfg
}

func TestIngestAllSucceedsAcrossSources(t *testing.T) {
	registry := scraper.NewRegistry()
	registry.Register("good-a", func() scraper.Plugin {
		return &fakePlugin{name: "good-a", items: []model.NormalizedItem{{
			SourceType: "good-a", Title: "t", URL: "https://a.example/1", PublishedAt: time.Now(),
		}}}
	})
	registry.Register("good-b", func() scraper.Plugin {
		return &fakePlugin{name: "good-b", items: []model.NormalizedItem{{
			SourceType: "good-b", Title: "t", URL: "https://b.example/1", PublishedAt: time.Now(),
		}}}
	})

	store := newFakeStore()
	store.sources = []*model.Source{
		{ID: "s1", Type: "good-a", IsActive: true},
		{ID: "s2", Type: "good-b", IsActive: true},
	}

	orch := New(registry, store, nil, nil, nil, nil, testConfig(), zerolog.Nop())
	report, err := orch.IngestAll(context.Background(), []scraper.Keyword{{Keyword: "x"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Status != model.RunStatusSuccess {
		t.Errorf("status = %v, want success", report.Status)
	}
	if report.Saved != 2 {
		t.Errorf("saved = %d, want 2", report.Saved)
	}
	if !store.touched["s1"] || !store.touched["s2"] {
		t.Error("expected both sources to have last_scraped_at touched")
	}
}

func TestIngestAllPartialSuccessWhenOneSourceFails(t *testing.T) {
	registry := scraper.NewRegistry()
	registry.Register("good", func() scraper.Plugin {
		return &fakePlugin{name: "good", items: []model.NormalizedItem{{
			SourceType: "good", Title: "t", URL: "https://a.example/1", PublishedAt: time.Now(),
		}}}
	})
	registry.Register("bad", func() scraper.Plugin {
		return &fakePlugin{name: "bad", err: errors.New("upstream down")}
	})

	store := newFakeStore()
	store.sources = []*model.Source{
		{ID: "s1", Type: "good", IsActive: true},
		{ID: "s2", Type: "bad", IsActive: true},
	}

	orch := New(registry, store, nil, nil, nil, nil, testConfig(), zerolog.Nop())
	report, err := orch.IngestAll(context.Background(), []scraper.Keyword{{Keyword: "x"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Status != model.RunStatusPartialSuccess {
		t.Errorf("status = %v, want partial_success", report.Status)
	}
	if report.Saved != 1 {
		t.Errorf("saved = %d, want 1", report.Saved)
	}
}

func TestIngestAllFailedWhenAllSourcesFail(t *testing.T) {
	registry := scraper.NewRegistry()
	registry.Register("bad", func() scraper.Plugin {
		return &fakePlugin{name: "bad", err: errors.New("upstream down")}
	})

	store := newFakeStore()
	store.sources = []*model.Source{{ID: "s1", Type: "bad", IsActive: true}}

	orch := New(registry, store, nil, nil, nil, nil, testConfig(), zerolog.Nop())
	report, err := orch.IngestAll(context.Background(), []scraper.Keyword{{Keyword: "x"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Status != model.RunStatusFailed {
		t.Errorf("status = %v, want failed", report.Status)
	}
}

func TestIngestAllUnknownPluginReportsError(t *testing.T) {
	registry := scraper.NewRegistry()
	store := newFakeStore()
	store.sources = []*model.Source{{ID: "s1", Type: "missing", IsActive: true}}

	orch := New(registry, store, nil, nil, nil, nil, testConfig(), zerolog.Nop())
	report, err := orch.IngestAll(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Status != model.RunStatusFailed {
		t.Errorf("status = %v, want failed", report.Status)
	}
	if len(report.Sources) != 1 || report.Sources[0].Error == "" {
		t.Fatalf("expected one source report with an error, got %+v", report.Sources)
	}
}

func TestIngestAllFallsBackToDefaultKeywordsWhenStoreEmpty(t *testing.T) {
	registry := scraper.NewRegistry()
	store := newFakeStore()

	orch := New(registry, store, nil, nil, nil, nil, testConfig(), zerolog.Nop())
	resolved := orch.resolveKeywords(context.Background(), nil)
	if len(resolved) != len(DefaultKeywords) {
		t.Fatalf("expected fallback to DefaultKeywords, got %d entries", len(resolved))
	}
}

func TestStartIngestAllReturnsTaskIDImmediately(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	registry := scraper.NewRegistry()
	registry.Register("slow", func() scraper.Plugin {
		return &fakePlugin{name: "slow", items: nil, block: release}
	})
	store := newFakeStore()
	store.sources = []*model.Source{{ID: "s1", Type: "slow", IsActive: true}}

	orch := New(registry, store, nil, nil, nil, nil, testConfig(), zerolog.Nop())
	taskID, err := orch.StartIngestAll(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if taskID == "" {
		t.Fatal("expected non-empty task_id")
	}
	if status, ok := store.runs[taskID]; !ok || status != model.RunStatusRunning {
		t.Errorf("expected run %s to be recorded as running immediately, got %v", taskID, status)
	}
}
