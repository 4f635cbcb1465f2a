package local

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/docgraph/docgraph/pkg/ai"

	"github.com/cespare/xxhash/v2"
)

const (
	DefaultDimensions = 384

	minNgram = 3
	maxNgram = 6
)

var (
	ErrInvalidDimensions = errors.New("invalid embedding dimensions")

	seedIndex = "docgraph-subword-idx-v1::"
	seedSign  = "docgraph-subword-sgn-v1::"
)

var _ ai.BatchEmbedder = (*LocalEmbedder)(nil)

// LocalEmbedder is a deterministic embedder that hashes character n-grams
// of every word into a fixed-size vector. Words sharing subwords land near
// each other, which is enough for offline indexing and tests.
type LocalEmbedder struct {
	dim int
}

// NewLocalEmbedder creates a local embedder with the given dimensionality.
func NewLocalEmbedder(dim int) (*LocalEmbedder, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidDimensions, dim)
	}
	return &LocalEmbedder{dim: dim}, nil
}

// Dimensions returns the vector size.
func (e *LocalEmbedder) Dimensions() int {
	return e.dim
}

// GenerateEmbedding returns the L2-normalized average of the word vectors
// of input. Input without indexable words yields a zero vector.
func (e *LocalEmbedder) GenerateEmbedding(ctx context.Context, input []byte) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vec := make([]float32, e.dim)
	words := 0
	for _, tok := range tokenize(string(input)) {
		if _, skip := stopwords[tok]; skip {
			continue
		}
		e.addWord(vec, tok)
		words++
	}
	if words == 0 {
		return vec, nil
	}

	scale := 1.0 / float32(words)
	for i := range vec {
		vec[i] *= scale
	}
	normalize(vec)
	return vec, nil
}

// GenerateEmbeddings embeds every input in order.
func (e *LocalEmbedder) GenerateEmbeddings(ctx context.Context, inputs [][]byte) ([][]float32, error) {
	out := make([][]float32, len(inputs))
	for i, in := range inputs {
		vec, err := e.GenerateEmbedding(ctx, in)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func (e *LocalEmbedder) addWord(vec []float32, word string) {
	bounded := "<" + word + ">"
	runes := []rune(bounded)

	e.addFeature(vec, bounded)
	for n := minNgram; n <= maxNgram && n <= len(runes); n++ {
		for i := 0; i <= len(runes)-n; i++ {
			e.addFeature(vec, string(runes[i:i+n]))
		}
	}
}

func (e *LocalEmbedder) addFeature(vec []float32, feature string) {
	idx := int(xxhash.Sum64String(seedIndex+feature) % uint64(e.dim))
	if xxhash.Sum64String(seedSign+feature)%2 == 1 {
		vec[idx] -= 1.0
	} else {
		vec[idx] += 1.0
	}
}

func tokenize(input string) []string {
	var tokens []string
	var b strings.Builder
	flush := func() {
		if b.Len() == 0 {
			return
		}
		tokens = append(tokens, b.String())
		b.Reset()
	}

	for _, r := range strings.ToLower(input) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			continue
		}
		flush()
	}
	flush()
	return tokens
}

func normalize(vec []float32) {
	sumSq := 0.0
	for _, v := range vec {
		sumSq += float64(v) * float64(v)
	}
	if sumSq == 0 {
		return
	}
	norm := float32(math.Sqrt(sumSq))
	for i := range vec {
		vec[i] /= norm
	}
}

var stopwords = map[string]struct{}{
	"a": {}, "about": {}, "after": {}, "all": {}, "an": {}, "and": {}, "any": {}, "are": {}, "as": {}, "at": {},
	"be": {}, "been": {}, "but": {}, "by": {}, "can": {}, "did": {}, "do": {}, "does": {}, "for": {}, "from": {},
	"had": {}, "has": {}, "have": {}, "he": {}, "her": {}, "his": {}, "how": {}, "i": {}, "if": {}, "in": {},
	"into": {}, "is": {}, "it": {}, "its": {}, "me": {}, "my": {}, "no": {}, "not": {}, "of": {}, "on": {},
	"or": {}, "our": {}, "she": {}, "so": {}, "than": {}, "that": {}, "the": {}, "their": {}, "them": {}, "then": {},
	"there": {}, "these": {}, "they": {}, "this": {}, "those": {}, "to": {}, "was": {}, "we": {}, "were": {}, "what": {},
	"when": {}, "where": {}, "which": {}, "who": {}, "why": {}, "with": {}, "you": {}, "your": {},
}
