package index

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	chromem "github.com/philippgille/chromem-go"
)

const collectionName = "memories"

// ChromemIndex implements Index using chromem-go, a pure Go embedded vector
// database with cosine similarity. chromem does not expose a full dump, so a
// JSON side-index of documents is kept alongside the vector data for
// Get/GetAll/Count.
type ChromemIndex struct {
	db         *chromem.DB
	collection *chromem.Collection
	docs       map[string]Document
	mu         sync.RWMutex
	persistDir string // empty for in-memory
}

// NewChromemIndex opens a persistent chromem-backed index under dir.
func NewChromemIndex(dir string) (*ChromemIndex, error) {
	db, err := chromem.NewPersistentDB(dir, false)
	if err != nil {
		return nil, fmt.Errorf("open persistent db: %w", err)
	}
	col, err := db.GetOrCreateCollection(collectionName, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("get or create collection: %w", err)
	}

	idx := &ChromemIndex{
		db:         db,
		collection: col,
		docs:       make(map[string]Document),
		persistDir: dir,
	}
	if err := idx.loadSideIndex(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load side index: %w", err)
	}
	return idx, nil
}

// NewChromemIndexInMemory creates a non-persistent index for testing.
func NewChromemIndexInMemory() (*ChromemIndex, error) {
	db := chromem.NewDB()
	col, err := db.GetOrCreateCollection(collectionName, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("get or create collection: %w", err)
	}
	return &ChromemIndex{
		db:         db,
		collection: col,
		docs:       make(map[string]Document),
	}, nil
}

func (x *ChromemIndex) Upsert(ctx context.Context, docs ...Document) error {
	for _, doc := range docs {
		if len(doc.Vector) == 0 {
			return fmt.Errorf("document %s has no vector", doc.ID)
		}
		err := x.collection.AddDocument(ctx, chromem.Document{
			ID:        doc.ID,
			Content:   doc.Text,
			Embedding: doc.Vector,
			Metadata:  doc.Metadata,
		})
		if err != nil {
			return fmt.Errorf("add document %s: %w", doc.ID, err)
		}

		x.mu.Lock()
		x.docs[doc.ID] = doc
		x.mu.Unlock()
	}
	return x.saveSideIndex()
}

func (x *ChromemIndex) Search(ctx context.Context, vec []float32, k int, where map[string]string) ([]Result, error) {
	// chromem rejects nResults larger than the number of documents left
	// after filtering, so clamp against the matching count up front.
	x.mu.RLock()
	matching := 0
	for _, doc := range x.docs {
		if matches(doc.Metadata, where) {
			matching++
		}
	}
	x.mu.RUnlock()

	if matching == 0 || k <= 0 {
		return nil, nil
	}
	if k > matching {
		k = matching
	}

	results, err := x.collection.QueryEmbedding(ctx, vec, k, where, nil)
	if err != nil {
		return nil, fmt.Errorf("query collection: %w", err)
	}

	out := make([]Result, 0, len(results))
	for _, r := range results {
		out = append(out, Result{
			ID:       r.ID,
			Distance: 1 - r.Similarity, // chromem reports cosine similarity
			Text:     r.Content,
			Metadata: r.Metadata,
		})
	}
	return out, nil
}

func (x *ChromemIndex) Get(ctx context.Context, ids ...string) ([]Document, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	var out []Document
	for _, id := range ids {
		if doc, ok := x.docs[id]; ok {
			doc.Metadata = copyMeta(doc.Metadata)
			out = append(out, doc)
		}
	}
	return out, nil
}

func (x *ChromemIndex) GetAll(ctx context.Context, includeVectors bool) ([]Document, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	out := make([]Document, 0, len(x.docs))
	for _, doc := range x.docs {
		if !includeVectors {
			doc.Vector = nil
		}
		doc.Metadata = copyMeta(doc.Metadata)
		out = append(out, doc)
	}
	return out, nil
}

func copyMeta(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (x *ChromemIndex) Delete(ctx context.Context, ids ...string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	x.mu.Lock()
	var existing []string
	for _, id := range ids {
		if _, ok := x.docs[id]; ok {
			existing = append(existing, id)
			delete(x.docs, id)
		}
	}
	x.mu.Unlock()

	if len(existing) > 0 {
		if err := x.collection.Delete(ctx, nil, nil, existing...); err != nil {
			return 0, fmt.Errorf("delete documents: %w", err)
		}
	}
	if err := x.saveSideIndex(); err != nil {
		return len(existing), err
	}
	return len(existing), nil
}

func (x *ChromemIndex) Count() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.docs)
}

func (x *ChromemIndex) Reset(ctx context.Context) error {
	if err := x.db.DeleteCollection(collectionName); err != nil {
		return fmt.Errorf("delete collection: %w", err)
	}
	col, err := x.db.GetOrCreateCollection(collectionName, nil, nil)
	if err != nil {
		return fmt.Errorf("recreate collection: %w", err)
	}
	x.collection = col

	x.mu.Lock()
	x.docs = make(map[string]Document)
	x.mu.Unlock()

	return x.saveSideIndex()
}

func (x *ChromemIndex) Close() error {
	return nil
}

// Side-index persistence. chromem persists vectors and metadata itself; the
// side file makes full dumps cheap and survives restarts alongside it.

func (x *ChromemIndex) sideIndexPath() string {
	if x.persistDir == "" {
		return ""
	}
	return filepath.Join(x.persistDir, "documents_index.json")
}

func (x *ChromemIndex) saveSideIndex() error {
	path := x.sideIndexPath()
	if path == "" {
		return nil
	}

	x.mu.RLock()
	data, err := json.Marshal(x.docs)
	x.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("marshal side index: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write side index: %w", err)
	}
	return nil
}

func (x *ChromemIndex) loadSideIndex() error {
	path := x.sideIndexPath()
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	return json.Unmarshal(data, &x.docs)
}
