package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// MockEmbedder produces deterministic embeddings from word-feature hashing:
// each word maps to a fixed set of dimensions, so texts that share words
// produce similar vectors. Identical text always yields an identical unit
// vector. For tests only.
type MockEmbedder struct {
	dims int
}

// NewMockEmbedder creates a mock embedder with the given dimensionality.
func NewMockEmbedder(dims int) *MockEmbedder {
	if dims <= 0 {
		dims = 384
	}
	return &MockEmbedder{dims: dims}
}

func (m *MockEmbedder) Embed(ctx context.Context, texts []string) ([]Vector, error) {
	vectors := make([]Vector, len(texts))
	for i, text := range texts {
		vectors[i] = m.embedOne(text)
	}
	return vectors, nil
}

func (m *MockEmbedder) Dims() int { return m.dims }

func (m *MockEmbedder) embedOne(text string) Vector {
	vec := make(Vector, m.dims)
	for _, word := range tokenize(text) {
		h := fnv.New64a()
		h.Write([]byte(word))
		seed := h.Sum64()
		// Spread each word across a few dimensions with signed weights.
		for j := 0; j < 4; j++ {
			seed = seed*6364136223846793005 + 1442695040888963407
			idx := int(seed % uint64(m.dims))
			if seed&(1<<63) != 0 {
				vec[idx] -= 1
			} else {
				vec[idx] += 1
			}
		}
	}
	normalize(vec)
	return vec
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func normalize(vec Vector) {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return
	}
	norm := float32(math.Sqrt(sum))
	for i := range vec {
		vec[i] /= norm
	}
}
