// Package index defines the vector index interface and its embedded backends.
//
// The index is passive storage: it holds vectors, document text, and flat
// string metadata, and answers top-k nearest-neighbor queries. All memory
// semantics live in the vault package.
package index

import (
	"context"
)

// Document is one stored entry: an id, its embedding, the raw text, and a
// flat metadata map. Readers must tolerate missing optional metadata keys.
type Document struct {
	ID       string            `json:"id"`
	Vector   []float32         `json:"vector,omitempty"`
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata"`
}

// Result is one search hit. Distance is cosine distance in [0, 2]; lower is
// closer. Callers convert to a similarity score as 1 - Distance.
type Result struct {
	ID       string
	Distance float32
	Text     string
	Metadata map[string]string
}

// Index is the vector storage backend interface.
//
// Implementations assume at most one writer at a time. Readers that overlap
// a Reset (the full-reindex path) may observe an empty or partial
// collection; that window is an accepted tradeoff, not a bug.
type Index interface {
	// Upsert stores documents, replacing any existing document with the
	// same id. Documents without vectors are rejected.
	Upsert(ctx context.Context, docs ...Document) error

	// Search returns the k nearest documents to vec, optionally restricted
	// to documents whose metadata matches every entry of where. Results are
	// ordered by ascending distance. Fewer than k results are returned when
	// the collection is small.
	Search(ctx context.Context, vec []float32, k int, where map[string]string) ([]Result, error)

	// Get returns the documents for the given ids, omitting unknown ids.
	Get(ctx context.Context, ids ...string) ([]Document, error)

	// GetAll dumps every document. When includeVectors is false the vectors
	// are omitted to keep the dump small.
	GetAll(ctx context.Context, includeVectors bool) ([]Document, error)

	// Delete removes documents by id. Unknown ids are ignored; the count of
	// documents actually removed is returned.
	Delete(ctx context.Context, ids ...string) (int, error)

	// Count returns the number of stored documents.
	Count() int

	// Reset drops and recreates the backing collection, discarding all
	// documents.
	Reset(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// matches reports whether metadata satisfies every constraint in where.
func matches(metadata, where map[string]string) bool {
	for k, v := range where {
		if metadata[k] != v {
			return false
		}
	}
	return true
}
