package vault

import (
	"context"
	"math"
	"sort"
)

// normEpsilon guards against division by zero when normalizing a zero
// vector.
const normEpsilon = 1e-10

// SimilarPair is a candidate duplicate: two distinct records whose vectors
// score at or above the consolidation threshold. IDs are ordered
// lexicographically within the pair.
type SimilarPair struct {
	ID1        string  `json:"id1"`
	ID2        string  `json:"id2"`
	Similarity float64 `json:"similarity"`
	Preview1   string  `json:"preview1"`
	Preview2   string  `json:"preview2"`
}

const previewLen = 80

// FindSimilarPairs scans every unordered pair of records and returns those
// with cosine similarity >= threshold, sorted by similarity descending with
// the lexicographic id pair as tiebreaker, truncated to limit (0 means no
// limit). Offline maintenance: O(n²) pairs, but each vector is normalized
// exactly once.
func (s *Store) FindSimilarPairs(ctx context.Context, threshold float64, limit int) ([]SimilarPair, error) {
	docs, err := s.idx.GetAll(ctx, true)
	if err != nil {
		return nil, backendErr("scan index", err)
	}
	if len(docs) < 2 {
		return nil, nil
	}

	// Deterministic pair ordering regardless of map iteration in backends.
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })

	normalized := make([][]float64, len(docs))
	for i, d := range docs {
		normalized[i] = normalizeF64(d.Vector)
	}

	var pairs []SimilarPair
	for i := 0; i < len(docs); i++ {
		for j := i + 1; j < len(docs); j++ {
			sim := dot(normalized[i], normalized[j])
			if sim < threshold {
				continue
			}
			pairs = append(pairs, SimilarPair{
				ID1:        docs[i].ID,
				ID2:        docs[j].ID,
				Similarity: sim,
				Preview1:   preview(docs[i].Text),
				Preview2:   preview(docs[j].Text),
			})
		}
	}

	sort.SliceStable(pairs, func(i, j int) bool {
		if pairs[i].Similarity != pairs[j].Similarity {
			return pairs[i].Similarity > pairs[j].Similarity
		}
		if pairs[i].ID1 != pairs[j].ID1 {
			return pairs[i].ID1 < pairs[j].ID1
		}
		return pairs[i].ID2 < pairs[j].ID2
	})

	if limit > 0 && len(pairs) > limit {
		pairs = pairs[:limit]
	}
	return pairs, nil
}

func normalizeF64(vec []float32) []float64 {
	out := make([]float64, len(vec))
	var sum float64
	for i, v := range vec {
		out[i] = float64(v)
		sum += float64(v) * float64(v)
	}
	norm := math.Sqrt(sum) + normEpsilon
	for i := range out {
		out[i] /= norm
	}
	return out
}

func dot(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

func preview(text string) string {
	if len(text) <= previewLen {
		return text
	}
	return text[:previewLen]
}
