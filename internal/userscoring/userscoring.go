// Package userscoring computes personalized, per-user relevance scores
// over a user's keyword set, blended with an item's global score.
package userscoring

import (
	"math"
	"strings"

	"github.com/zenwatch/ingestor/internal/model"
)

// Keyword is the scorer's view of one active UserKeyword.
type Keyword struct {
	Keyword string
	Weight  float64
}

// ScoreItem computes the personalized score for one item given a
// user's active keywords and the item's global score (nil if unscored).
//
// Three distinct defaulting behaviors for a null global score are
// preserved exactly:
//   - no keywords at all: falls back to the global score, or 0 if unset;
//   - keywords present but zero matches: 30% of the global score, or 0
//     if unset;
//   - at least one match: blends 80% personalized / 20% global, and the
//     global term defaults to 50 (not 0) when unset.
func ScoreItem(item *model.Item, keywords []Keyword) (score float64, matches int) {
	if len(keywords) == 0 {
		return globalScoreOr(item, 0), 0
	}

	fullText := strings.ToLower(item.Title + " " + item.Content + " " + item.Summary + " " + strings.Join(item.Tags, " "))
	titleLower := strings.ToLower(item.Title)
	tagsLower := strings.ToLower(strings.Join(item.Tags, " "))

	var totalScore, totalWeight float64

	for _, kw := range keywords {
		keywordLower := strings.ToLower(kw.Keyword)
		weight := kw.Weight
		if weight == 0 {
			weight = 1.0
		}

		if strings.Contains(fullText, keywordLower) {
			boost := 1.0
			switch {
			case strings.Contains(titleLower, keywordLower):
				boost = 2.0
			case strings.Contains(tagsLower, keywordLower):
				boost = 1.5
			}
			totalScore += weight * boost * 20
			matches++
		}

		totalWeight += weight
	}

	if matches == 0 {
		return math.Max(0, globalScoreOr(item, 0)*0.3), 0
	}

	matchBonus := math.Min(float64(matches)*5, 25)
	raw := (totalScore / totalWeight) + matchBonus

	globalScore := globalScoreOr(item, 50)
	final := raw*0.8 + globalScore*0.2

	return math.Max(0, math.Min(100, final)), matches
}

func globalScoreOr(item *model.Item, fallback float64) float64 {
	if item.Score == nil {
		return fallback
	}
	return *item.Score
}

// CountMatches counts how many keywords appear in an item's
// title+content+tags, independent of score computation. The batch
// service takes UserItemScore.KeywordMatches from ScoreItem instead,
// whose text also includes the summary.
func CountMatches(item *model.Item, keywords []Keyword) int {
	text := strings.ToLower(item.Title + " " + item.Content + " " + strings.Join(item.Tags, " "))
	count := 0
	for _, kw := range keywords {
		if strings.Contains(text, strings.ToLower(kw.Keyword)) {
			count++
		}
	}
	return count
}
