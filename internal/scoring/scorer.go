package scoring

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// ClaudeKeywords is the fixed set whose presence gates the combo
// multiplier.
var ClaudeKeywords = []string{"claude", "anthropic", "claude code", "claude sonnet", "claude opus"}

// DataTools is the fixed set of tokens counted toward the combo
// multiplier's tool-count tier.
var DataTools = []string{
	"power bi", "sql", "excel", "python", "pandas", "tableau",
	"data analyst", "data science", "etl", "bigquery",
	"snowflake", "dbt", "jupyter", "numpy", "matplotlib",
}

// Keyword is the scorer's view of a scoring term.
type Keyword struct {
	Keyword  string
	Weight   float64
	Category string
}

// SubScores holds the three component signals before aggregation.
type SubScores struct {
	Exact    float64
	Semantic float64
	TFIDF    float64
}

// MatchedKeyword records one keyword found in the scored text.
type MatchedKeyword struct {
	Keyword  string
	Category string
	Weight   float64
}

// Result is the full output of scoring one text against one keyword
// set.
type Result struct {
	OverallScore      float64
	Category          string
	MatchedKeywords   []MatchedKeyword
	Scores            SubScores
	ComboMultiplier   float64
	ComboReason       string
	MatchedDataTools  []string
}

// Scorer combines exact-match, semantic, and TF-IDF signals with the
// domain-specific combo multiplier. It is pure over (text, keywords)
// given a fixed backend — repeated calls are deterministic.
type Scorer struct {
	backend TextScoringBackend
}

// NewScorer builds a Scorer over the given capability backend.
func NewScorer(backend TextScoringBackend) *Scorer {
	return &Scorer{backend: backend}
}

// Score implements the full scoring contract from component C9.
func (s *Scorer) Score(text string, keywords []Keyword) Result {
	if strings.TrimSpace(text) == "" || len(keywords) == 0 {
		return Result{
			Category: "uncategorized",
			Scores:   SubScores{},
		}
	}

	textLower := strings.ToLower(text)

	exact := s.exactMatchScore(textLower, keywords)
	semantic := s.semanticScore(text, keywords)
	tfidf := s.tfidfScore(text, keywords)

	overall := exact*0.4 + semantic*0.3 + tfidf*0.3

	category := determineCategory(textLower, keywords)

	var matched []MatchedKeyword
	for _, kw := range keywords {
		if strings.Contains(textLower, strings.ToLower(kw.Keyword)) {
			matched = append(matched, MatchedKeyword{
				Keyword:  kw.Keyword,
				Category: kw.Category,
				Weight:   kw.Weight,
			})
		}
	}

	multiplier, reason, tools := comboMultiplier(textLower)
	overall = math.Min(100.0, overall*multiplier)

	return Result{
		OverallScore:     overall,
		Category:         category,
		MatchedKeywords:  matched,
		Scores:           SubScores{Exact: exact, Semantic: semantic, TFIDF: tfidf},
		ComboMultiplier:  multiplier,
		ComboReason:      reason,
		MatchedDataTools: tools,
	}
}

// exactMatchScore: min(100, 20*log2(match_count+1)) + min(30, 3*matched_weight).
func (s *Scorer) exactMatchScore(textLower string, keywords []Keyword) float64 {
	var matchedWeight float64
	matchCount := 0

	for _, kw := range keywords {
		if strings.Contains(textLower, strings.ToLower(kw.Keyword)) {
			weight := kw.Weight
			if weight == 0 {
				weight = 1.0
			}
			matchedWeight += weight
			matchCount++
		}
	}

	if matchCount == 0 {
		return 0.0
	}

	base := math.Min(100, 20*math.Log2(float64(matchCount)+1))
	weightBonus := math.Min(30, matchedWeight*3)
	return math.Min(100.0, base+weightBonus)
}

// semanticScore: top-5 weighted cosine similarities of the text
// embedding against each keyword embedding, averaged and scaled.
func (s *Scorer) semanticScore(text string, keywords []Keyword) float64 {
	textVec := s.backend.EmbedText(text)

	var similarities []float64
	for _, kw := range keywords {
		kwVec := s.backend.EmbedPhrase(kw.Keyword)
		weight := kw.Weight
		if weight == 0 {
			weight = 1.0
		}
		sim := s.backend.Cosine(textVec, kwVec)
		similarities = append(similarities, sim*weight)
	}

	return topFiveAverageScaled(similarities)
}

// tfidfScore: fit a TF-IDF space over [text]+keywords, cosine-similarity
// text vs each keyword vector, weight and top-5 average.
func (s *Scorer) tfidfScore(text string, keywords []Keyword) float64 {
	corpus := make([]string, 0, len(keywords)+1)
	corpus = append(corpus, text)
	for _, kw := range keywords {
		corpus = append(corpus, kw.Keyword)
	}

	vectors := s.backend.TFIDFFit(corpus)
	if len(vectors) == 0 {
		return 0.0
	}
	textVec := vectors[0]

	var weighted []float64
	for i, kw := range keywords {
		weight := kw.Weight
		if weight == 0 {
			weight = 1.0
		}
		sim := s.backend.Cosine(textVec, vectors[i+1])
		weighted = append(weighted, sim*weight)
	}

	return topFiveAverageScaled(weighted)
}

func topFiveAverageScaled(values []float64) float64 {
	if len(values) == 0 {
		return 0.0
	}
	sorted := append([]float64(nil), values...)
	sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))
	if len(sorted) > 5 {
		sorted = sorted[:5]
	}
	var sum float64
	for _, v := range sorted {
		sum += v
	}
	avg := sum / float64(len(sorted))
	return math.Max(0.0, math.Min(100.0, avg*100))
}

// determineCategory returns the category with the largest summed
// weight among matched keywords, ties broken by first-seen order.
func determineCategory(textLower string, keywords []Keyword) string {
	scores := make(map[string]float64)
	order := make([]string, 0)

	for _, kw := range keywords {
		if !strings.Contains(textLower, strings.ToLower(kw.Keyword)) {
			continue
		}
		category := kw.Category
		if category == "" {
			category = "other"
		}
		if _, seen := scores[category]; !seen {
			order = append(order, category)
		}
		weight := kw.Weight
		if weight == 0 {
			weight = 1.0
		}
		scores[category] += weight
	}

	if len(order) == 0 {
		return "other"
	}

	best := order[0]
	bestScore := scores[best]
	for _, cat := range order[1:] {
		if scores[cat] > bestScore {
			best = cat
			bestScore = scores[cat]
		}
	}
	return best
}

// comboMultiplier applies the domain-specific Claude+data-tools boost.
func comboMultiplier(textLower string) (float64, string, []string) {
	hasClaude := false
	for _, kw := range ClaudeKeywords {
		if strings.Contains(textLower, kw) {
			hasClaude = true
			break
		}
	}
	if !hasClaude {
		return 1.0, "no combo", nil
	}

	var matchedTools []string
	for _, tool := range DataTools {
		if strings.Contains(textLower, tool) {
			matchedTools = append(matchedTools, tool)
		}
	}
	toolCount := len(matchedTools)

	switch {
	case toolCount >= 3:
		return 2.0, "claude + " + strconv.Itoa(toolCount) + " data tools", matchedTools
	case toolCount == 2:
		return 1.5, "claude + 2 data tools", matchedTools
	case toolCount == 1:
		return 1.3, "claude + 1 data tool", matchedTools
	default:
		return 1.0, "claude only", nil
	}
}
