package userscoring

import (
	"math"
	"testing"

	"github.com/zenwatch/ingestor/internal/model"
)

func scorePtr(f float64) *float64 { return &f }

func TestScoreItemNoKeywordsFallsBackToGlobal(t *testing.T) {
	item := &model.Item{Title: "anything", Score: scorePtr(77)}
	score, matches := ScoreItem(item, nil)
	if score != 77 || matches != 0 {
		t.Errorf("got score=%v matches=%v, want score=77 matches=0", score, matches)
	}
}

func TestScoreItemNoKeywordsNilGlobalDefaultsZero(t *testing.T) {
	item := &model.Item{Title: "anything"}
	score, _ := ScoreItem(item, nil)
	if score != 0 {
		t.Errorf("got %v, want 0", score)
	}
}

func TestScoreItemZeroMatchesUsesThirtyPercentOfGlobal(t *testing.T) {
	item := &model.Item{Title: "no overlap here", Score: scorePtr(60)}
	kws := []Keyword{{Keyword: "nonexistent-term", Weight: 1}}
	score, matches := ScoreItem(item, kws)
	if matches != 0 {
		t.Fatalf("expected 0 matches, got %d", matches)
	}
	want := 18.0 // 0.3 * 60
	if math.Abs(score-want) > 0.001 {
		t.Errorf("score = %v, want %v", score, want)
	}
}

func TestScoreItemZeroMatchesNilGlobalDefaultsZero(t *testing.T) {
	item := &model.Item{Title: "no overlap here"}
	kws := []Keyword{{Keyword: "nonexistent-term", Weight: 1}}
	score, _ := ScoreItem(item, kws)
	if score != 0 {
		t.Errorf("score = %v, want 0", score)
	}
}

func TestScoreItemTitleMatchUsesDoubleBoost(t *testing.T) {
	item := &model.Item{Title: "A Go Tutorial", Score: scorePtr(50)}
	kws := []Keyword{{Keyword: "go", Weight: 1}}
	score, matches := ScoreItem(item, kws)
	if matches != 1 {
		t.Fatalf("expected 1 match, got %d", matches)
	}
	// totalScore = 1*2.0*20=40; totalWeight=1; raw=40+min(5,25)=45
	// final = 45*0.8 + 50*0.2 = 36+10 = 46
	want := 46.0
	if math.Abs(score-want) > 0.001 {
		t.Errorf("score = %v, want %v", score, want)
	}
}

func TestScoreItemBlendedFinalClampsTo100(t *testing.T) {
	item := &model.Item{Title: "go go go", Content: "go go", Score: scorePtr(100)}
	kws := []Keyword{{Keyword: "go", Weight: 5}}
	score, _ := ScoreItem(item, kws)
	if score > 100 {
		t.Errorf("score %v exceeds 100 clamp", score)
	}
}

func TestCountMatches(t *testing.T) {
	item := &model.Item{Title: "Go and Rust", Content: "also mentions python"}
	kws := []Keyword{{Keyword: "go"}, {Keyword: "rust"}, {Keyword: "java"}}
	if got := CountMatches(item, kws); got != 2 {
		t.Errorf("CountMatches = %d, want 2", got)
	}
}
