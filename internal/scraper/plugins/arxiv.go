package plugins

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/zenwatch/ingestor/internal/httpclient"
	"github.com/zenwatch/ingestor/internal/model"
	"github.com/zenwatch/ingestor/internal/scraper"
)

func init() {
	scraper.Register("arxiv", func() scraper.Plugin { return newArxiv() })
}

var arxivCategories = []string{"cs.AI", "cs.CL", "cs.LG", "cs.MA"}

type atomFeed struct {
	XMLName xml.Name    `xml:"feed"`
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	Title     string `xml:"title"`
	ID        string `xml:"id"`
	Summary   string `xml:"summary"`
	Published string `xml:"published"`
	Links     []struct {
		Rel  string `xml:"rel,attr"`
		Href string `xml:"href,attr"`
	} `xml:"link"`
	Authors []struct {
		Name string `xml:"name"`
	} `xml:"author"`
	PrimaryCategory struct {
		Term string `xml:"term,attr"`
	} `xml:"primary_category"`
}

// arxiv queries the Atom XML export: category filter plus an optional
// OR'd keyword clause, sorted by submission date descending.
type arxiv struct {
	session *httpclient.Session
	baseURL string
}

func newArxiv() *arxiv {
	return &arxiv{
		session: httpclient.NewSession(httpclient.SessionConfig{
			PluginName:        "arxiv",
			RequestsPerMinute: 30,
		}, nopLogger()),
		baseURL: "https://export.arxiv.org/api/query",
	}
}

func (a *arxiv) Name() string                                 { return "arxiv" }
func (a *arxiv) DisplayName() string                          { return "arXiv" }
func (a *arxiv) Version() string                              { return "1.0.0" }
func (a *arxiv) RequiredConfig() []string                     { return nil }
func (a *arxiv) ValidateConfig(config map[string]string) bool { return true }

func (a *arxiv) Scrape(ctx context.Context, config map[string]string, keywords []scraper.Keyword) ([]model.NormalizedItem, error) {
	limit := maxArticles(config, 50)

	searchQuery := buildArxivQuery(keywords)
	body, err := getBody(ctx, a.session, a.baseURL, url.Values{
		"search_query": {searchQuery},
		"max_results":  {strconv.Itoa(limit)},
		"sortBy":       {"submittedDate"},
		"sortOrder":    {"descending"},
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("arxiv: fetch papers: %w", err)
	}

	var feed atomFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("arxiv: decode atom feed: %w", err)
	}

	var items []model.NormalizedItem
	for _, entry := range feed.Entries {
		item, ok := parseArxivEntry(entry)
		if !ok {
			continue
		}
		items = append(items, item)
		if len(items) >= limit {
			break
		}
	}
	return items, nil
}

func buildArxivQuery(keywords []scraper.Keyword) string {
	catClauses := make([]string, len(arxivCategories))
	for i, cat := range arxivCategories {
		catClauses[i] = "cat:" + cat
	}
	catQuery := "(" + strings.Join(catClauses, " OR ") + ")"

	if len(keywords) == 0 {
		return catQuery
	}

	kwClauses := make([]string, len(keywords))
	for i, kw := range keywords {
		kwClauses[i] = "all:" + url.QueryEscape(kw.Keyword)
	}
	return catQuery + " AND (" + strings.Join(kwClauses, " OR ") + ")"
}

func parseArxivEntry(entry atomEntry) (model.NormalizedItem, bool) {
	title := strings.Join(strings.Fields(entry.Title), " ")
	if title == "" || entry.ID == "" {
		return model.NormalizedItem{}, false
	}

	parts := strings.Split(entry.ID, "/")
	externalID := parts[len(parts)-1]

	itemURL := entry.ID
	for _, link := range entry.Links {
		if link.Rel == "alternate" && link.Href != "" {
			itemURL = link.Href
			break
		}
	}

	content := strings.Join(strings.Fields(entry.Summary), " ")

	var authorNames []string
	for _, author := range entry.Authors {
		if author.Name != "" {
			authorNames = append(authorNames, author.Name)
		}
	}
	author := strings.Join(authorNames, ", ")

	published, err := time.Parse(time.RFC3339, entry.Published)
	if err != nil {
		published = time.Now().UTC()
	}

	var tags []string
	if entry.PrimaryCategory.Term != "" {
		tags = append(tags, entry.PrimaryCategory.Term)
	}

	return model.NormalizedItem{
		SourceType:  "arxiv",
		ExternalID:  externalID,
		Title:       title,
		URL:         itemURL,
		Content:     content,
		Author:      author,
		PublishedAt: published,
		Tags:        tags,
	}, true
}
