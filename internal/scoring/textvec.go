package scoring

import (
	"hash/fnv"
	"math"
	"strings"
)

const vectorDim = 256

var englishStopwords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "and": {}, "or": {}, "but": {}, "is": {},
	"are": {}, "was": {}, "were": {}, "be": {}, "been": {}, "to": {}, "of": {},
	"in": {}, "on": {}, "for": {}, "with": {}, "at": {}, "by": {}, "from": {},
	"this": {}, "that": {}, "it": {}, "as": {}, "its": {}, "into": {}, "about": {},
}

// HashedBackend is the pure-Go stand-in TextScoringBackend: a hashed
// bag-of-words vectorizer. No embedding or vector-similarity library
// appears anywhere in the example corpus, so this is deliberately
// hand-rolled against the standard library — see DESIGN.md — while the
// TextScoringBackend seam means a trained-model implementation can
// replace it without touching the scorer.
type HashedBackend struct{}

// NewHashedBackend returns the default stand-in backend.
func NewHashedBackend() *HashedBackend { return &HashedBackend{} }

func tokenize(text string) []string {
	lower := strings.ToLower(text)
	fields := strings.FieldsFunc(lower, func(r rune) bool {
		return !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9')
	})
	out := fields[:0]
	for _, f := range fields {
		if _, stop := englishStopwords[f]; stop {
			continue
		}
		out = append(out, f)
	}
	return out
}

func ngrams(tokens []string, n int) []string {
	if n <= 1 || len(tokens) < n {
		return tokens
	}
	grams := make([]string, 0, len(tokens)+len(tokens)-n+1)
	grams = append(grams, tokens...)
	for i := 0; i+n <= len(tokens); i++ {
		grams = append(grams, strings.Join(tokens[i:i+n], " "))
	}
	return grams
}

func hashToIndex(token string, dim int) int {
	h := fnv.New32a()
	h.Write([]byte(token))
	return int(h.Sum32() % uint32(dim))
}

func termFrequencyVector(text string, dim int) []float64 {
	tokens := ngrams(tokenize(text), 2)
	vec := make([]float64, dim)
	for _, tok := range tokens {
		vec[hashToIndex(tok, dim)]++
	}
	return normalize(vec)
}

func normalize(vec []float64) []float64 {
	var sumSquares float64
	for _, v := range vec {
		sumSquares += v * v
	}
	if sumSquares == 0 {
		return vec
	}
	norm := math.Sqrt(sumSquares)
	out := make([]float64, len(vec))
	for i, v := range vec {
		out[i] = v / norm
	}
	return out
}

// EmbedText returns a normalized hashed term-frequency vector standing
// in for a semantic text embedding.
func (b *HashedBackend) EmbedText(text string) []float64 {
	return termFrequencyVector(text, vectorDim)
}

// EmbedPhrase embeds a short keyword/phrase in the same space as
// EmbedText.
func (b *HashedBackend) EmbedPhrase(phrase string) []float64 {
	return termFrequencyVector(phrase, vectorDim)
}

// TFIDFFit fits a hashed TF-IDF vector space over corpus (document
// frequency computed across all documents, max vectorDim features via
// the hashing trick) and returns one L2-normalized vector per document.
func (b *HashedBackend) TFIDFFit(corpus []string) [][]float64 {
	docs := make([][]string, len(corpus))
	df := make(map[int]int)
	for i, doc := range corpus {
		toks := ngrams(tokenize(doc), 2)
		docs[i] = toks
		seen := make(map[int]struct{})
		for _, t := range toks {
			idx := hashToIndex(t, vectorDim)
			if _, ok := seen[idx]; !ok {
				seen[idx] = struct{}{}
				df[idx]++
			}
		}
	}

	n := float64(len(corpus))
	vectors := make([][]float64, len(corpus))
	for i, toks := range docs {
		tf := make(map[int]float64)
		for _, t := range toks {
			tf[hashToIndex(t, vectorDim)]++
		}
		vec := make([]float64, vectorDim)
		for idx, count := range tf {
			idf := math.Log((n+1)/(float64(df[idx])+1)) + 1
			vec[idx] = count * idf
		}
		vectors[i] = normalize(vec)
	}
	return vectors
}

// Cosine returns the cosine similarity of two equal-length vectors.
func (b *HashedBackend) Cosine(a, c []float64) float64 {
	if len(a) != len(c) || len(a) == 0 {
		return 0
	}
	var dot, na, nc float64
	for i := range a {
		dot += a[i] * c[i]
		na += a[i] * a[i]
		nc += c[i] * c[i]
	}
	if na == 0 || nc == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nc))
}
