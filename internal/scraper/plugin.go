// Package scraper defines the plugin contract every content source
// implements, and the process-wide registry that looks plugins up by
// name.
package scraper

import (
	"context"
	"strings"

	"github.com/zenwatch/ingestor/internal/model"
)

// Keyword is the minimal shape a plugin needs to pre-filter and score
// candidate items; it mirrors model.Keyword without requiring plugins
// to import the store.
type Keyword struct {
	Keyword  string
	Weight   float64
	Category string
}

// Plugin is the explicit capability every concrete source adapter
// implements. Get(name) returns a fresh instance per call — no shared
// state survives across scrapes of the same plugin.
type Plugin interface {
	Name() string
	DisplayName() string
	Version() string
	// RequiredConfig lists config keys the plugin expects to find
	// populated on its Source before ValidateConfig will pass.
	RequiredConfig() []string
	ValidateConfig(config map[string]string) bool
	// Scrape is best-effort: per-item failures are absorbed internally
	// and simply omitted from the result. Only a total source failure
	// (e.g. the upstream is unreachable) returns an error.
	Scrape(ctx context.Context, config map[string]string, keywords []Keyword) ([]model.NormalizedItem, error)
}

// QuickMatch performs the shared case-insensitive substring pre-filter
// every plugin applies to a candidate title before doing further work.
// An empty keyword list matches everything.
func QuickMatch(title string, keywords []Keyword) bool {
	if len(keywords) == 0 {
		return true
	}
	lower := strings.ToLower(title)
	for _, kw := range keywords {
		needle := strings.ToLower(strings.TrimSpace(kw.Keyword))
		if needle != "" && strings.Contains(lower, needle) {
			return true
		}
	}
	return false
}
