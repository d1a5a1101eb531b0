// Package scoring implements the hybrid relevance scorer: exact-match,
// semantic-embedding, and TF-IDF signals combined with a domain-specific
// combo multiplier.
package scoring

// TextScoringBackend is the injected capability the scorer uses for
// anything that would, in a richer deployment, be backed by a trained
// NLP model. Keeping it behind an interface (per the source system's
// NLP-dependency redesign note) lets the scorer stay pure and testable
// with fakes; swapping in a real embeddings/vectorizer service later
// only touches the implementation behind this interface, never the
// scorer itself.
type TextScoringBackend interface {
	// EmbedText returns a fixed-length vector for an arbitrary span of
	// article text.
	EmbedText(text string) []float64
	// EmbedPhrase returns a fixed-length vector for a short keyword or
	// phrase, in the same space as EmbedText.
	EmbedPhrase(phrase string) []float64
	// TFIDFFit builds a TF-IDF vector space from a corpus (article text
	// first, followed by one document per keyword) and returns one
	// vector per corpus document, in order.
	TFIDFFit(corpus []string) [][]float64
	// Cosine returns the cosine similarity of two vectors of equal
	// length, or 0 if either is a zero vector.
	Cosine(a, b []float64) float64
}
