package scraper

import (
	"context"
	"testing"

	"github.com/zenwatch/ingestor/internal/model"
)

type fakePlugin struct{ name string }

func (f *fakePlugin) Name() string            { return f.name }
func (f *fakePlugin) DisplayName() string     { return f.name }
func (f *fakePlugin) Version() string         { return "test" }
func (f *fakePlugin) RequiredConfig() []string { return nil }
func (f *fakePlugin) ValidateConfig(map[string]string) bool { return true }
func (f *fakePlugin) Scrape(context.Context, map[string]string, []Keyword) ([]model.NormalizedItem, error) {
	return nil, nil
}

func TestRegistryRegisterGetList(t *testing.T) {
	r := NewRegistry()
	r.Register("fake", func() Plugin { return &fakePlugin{name: "fake"} })

	p, ok := r.Get("fake")
	if !ok {
		t.Fatal("expected plugin to be found")
	}
	if p.Name() != "fake" {
		t.Errorf("Name() = %q, want fake", p.Name())
	}

	if _, ok := r.Get("missing"); ok {
		t.Error("expected missing plugin lookup to fail")
	}

	if got := r.List(); len(got) != 1 || got[0] != "fake" {
		t.Errorf("List() = %v, want [fake]", got)
	}
}

func TestRegistryGetReturnsFreshInstance(t *testing.T) {
	r := NewRegistry()
	calls := 0
	r.Register("counter", func() Plugin {
		calls++
		return &fakePlugin{name: "counter"}
	})

	r.Get("counter")
	r.Get("counter")

	if calls != 2 {
		t.Errorf("expected constructor invoked twice, got %d", calls)
	}
}

func TestRegistryDuplicateRegisterPanics(t *testing.T) {
	r := NewRegistry()
	r.Register("dup", func() Plugin { return &fakePlugin{name: "dup"} })

	defer func() {
		if recover() == nil {
			t.Error("expected panic on duplicate registration")
		}
	}()
	r.Register("dup", func() Plugin { return &fakePlugin{name: "dup"} })
}

func TestQuickMatchEmptyKeywordsAcceptsAll(t *testing.T) {
	if !QuickMatch("anything at all", nil) {
		t.Error("expected empty keyword list to accept all")
	}
}

func TestQuickMatchCaseInsensitive(t *testing.T) {
	kws := []Keyword{{Keyword: "Python"}}
	if !QuickMatch("A Python Tutorial", kws) {
		t.Error("expected case-insensitive substring match")
	}
	if QuickMatch("A Rust Tutorial", kws) {
		t.Error("expected no match for unrelated title")
	}
}
