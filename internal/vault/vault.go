// Package vault orchestrates the semantic memory store: chunking and
// indexing documents, similarity queries with two-tier disclosure,
// observation lifecycle, consolidation, and decay pruning.
//
// The store assumes a single writer. Readers that overlap a full reindex may
// observe a transient empty collection; see ReindexAll.
package vault

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rcliao/memory-vault/internal/chunker"
	"github.com/rcliao/memory-vault/internal/config"
	"github.com/rcliao/memory-vault/internal/embedding"
	"github.com/rcliao/memory-vault/internal/index"
	"github.com/rcliao/memory-vault/internal/model"
)

// Store owns the set of memory records. The vector index is addressed only
// through it.
type Store struct {
	idx        index.Index
	emb        embedding.Embedder
	chunkSize  int
	summaryLen int
	log        *slog.Logger
	now        func() time.Time
}

// Options configures a Store.
type Options struct {
	ChunkSize  int
	SummaryLen int
	Logger     *slog.Logger
}

// New builds a Store from an already constructed index and embedder. Both
// are required; there is no lazy initialization.
func New(idx index.Index, emb embedding.Embedder, opts Options) (*Store, error) {
	if idx == nil {
		return nil, fmt.Errorf("vault: nil index")
	}
	if emb == nil {
		return nil, fmt.Errorf("vault: nil embedder")
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = chunker.DefaultChunkSize
	}
	if opts.SummaryLen <= 0 {
		opts.SummaryLen = chunker.DefaultSummaryLen
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Store{
		idx:        idx,
		emb:        emb,
		chunkSize:  opts.ChunkSize,
		summaryLen: opts.SummaryLen,
		log:        opts.Logger,
		now:        time.Now,
	}, nil
}

// Open constructs both dependencies from configuration or fails fast.
func Open(cfg config.Config) (*Store, error) {
	emb, err := newEmbedder(cfg.Embedder)
	if err != nil {
		return nil, err
	}

	var idx index.Index
	switch cfg.Backend {
	case "", "chromem":
		idx, err = index.NewChromemIndex(filepath.Join(cfg.Dir, "chromem"))
	case "sqlite":
		idx, err = index.NewSQLiteIndex(filepath.Join(cfg.Dir, "index.db"))
	default:
		return nil, validationf("unknown index backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, backendErr("open index", err)
	}

	return New(idx, emb, Options{ChunkSize: cfg.ChunkSize})
}

func newEmbedder(cfg config.Embedder) (embedding.Embedder, error) {
	switch cfg.Provider {
	case "ollama":
		model := cfg.Model
		if model == "" {
			model = "nomic-embed-text"
		}
		return embedding.NewOllamaEmbedder(cfg.BaseURL, model), nil
	case "openai":
		return embedding.NewOpenAIEmbedder(cfg.BaseURL, cfg.APIKey, cfg.Model, cfg.Dims), nil
	case "":
		return nil, backendErr("load embedder", fmt.Errorf("no embedding provider configured (set MEMORY_VAULT_EMBED_PROVIDER or embedder.provider in %s)", config.MarkerFile))
	default:
		return nil, validationf("unknown embedding provider %q", cfg.Provider)
	}
}

// Close releases the index.
func (s *Store) Close() error {
	return s.idx.Close()
}

// Count returns the number of stored records.
func (s *Store) Count() int {
	return s.idx.Count()
}

// Document is raw input for indexing: a provenance label and full text.
type Document struct {
	Source string
	Text   string
}

// IndexDocuments chunks, summarizes, embeds, and upserts each document.
// Chunks previously indexed under the same source are deleted first, so
// re-running is idempotent per document. Returns the total chunk count.
func (s *Store) IndexDocuments(ctx context.Context, docs []Document) (int, error) {
	total := 0
	for _, doc := range docs {
		if err := s.deleteBySource(ctx, doc.Source); err != nil {
			return total, err
		}
		n, err := s.indexOne(ctx, doc)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// ReindexAll drops the entire backing collection and bulk-inserts every
// document, guaranteeing no orphaned chunks survive a source's removal.
// Concurrent readers may observe an empty or partial collection until the
// reinsert completes.
func (s *Store) ReindexAll(ctx context.Context, docs []Document) (int, error) {
	if err := s.idx.Reset(ctx); err != nil {
		return 0, backendErr("reset index", err)
	}
	total := 0
	for _, doc := range docs {
		n, err := s.indexOne(ctx, doc)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

func (s *Store) indexOne(ctx context.Context, doc Document) (int, error) {
	chunks := chunker.Split(doc.Text, chunker.Options{ChunkSize: s.chunkSize})
	if len(chunks) == 0 {
		return 0, nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := s.emb.Embed(ctx, texts)
	if err != nil {
		return 0, backendErr("embed chunks", err)
	}
	if len(vectors) != len(chunks) {
		return 0, backendErr("embed chunks", fmt.Errorf("got %d vectors for %d chunks", len(vectors), len(chunks)))
	}

	now := s.now().UTC()
	seen := make(map[string]int)
	indexDocs := make([]index.Document, 0, len(chunks))
	for i, c := range chunks {
		rec := model.MemoryRecord{
			ID:             model.ChunkID(c.Text, seen[c.Text]),
			Text:           c.Text,
			Vector:         vectors[i],
			Source:         doc.Source,
			Headers:        c.Headers,
			Summary:        chunker.Summarize(c.Text, s.summaryLen),
			ObsType:        model.TypeFileChunk,
			CreatedAt:      now,
			LastAccessedAt: now,
			Importance:     model.DefaultImportance,
		}
		seen[c.Text]++
		if err := rec.Validate(); err != nil {
			return 0, fmt.Errorf("chunk %d of %s: %w", i, doc.Source, err)
		}
		indexDocs = append(indexDocs, toIndexDoc(rec))
	}

	if err := s.idx.Upsert(ctx, indexDocs...); err != nil {
		return 0, backendErr("upsert chunks", err)
	}
	return len(indexDocs), nil
}

func (s *Store) deleteBySource(ctx context.Context, source string) error {
	docs, err := s.idx.GetAll(ctx, false)
	if err != nil {
		return backendErr("scan index", err)
	}
	var stale []string
	for _, d := range docs {
		if d.Metadata["source"] == source {
			stale = append(stale, d.ID)
		}
	}
	if len(stale) == 0 {
		return nil
	}
	if _, err := s.idx.Delete(ctx, stale...); err != nil {
		return backendErr("delete stale chunks", err)
	}
	return nil
}

// QueryResult is one search hit. Either Summary or Text is set, depending on
// the requested disclosure tier.
type QueryResult struct {
	ID      string   `json:"id"`
	Score   float64  `json:"score"`
	Source  string   `json:"source"`
	Headers []string `json:"headers,omitempty"`
	Summary string   `json:"summary,omitempty"`
	Text    string   `json:"text,omitempty"`
}

// Query embeds text and returns the k nearest memories, scored as
// 1 - cosine distance (higher is more similar). With full false only the
// precomputed summary is returned, keeping responses token-cheap. Every hit
// has its access bookkeeping updated best-effort; bookkeeping failures are
// logged and never fail the query.
func (s *Store) Query(ctx context.Context, text string, k int, full bool, typeFilter string) ([]QueryResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, validationf("empty query text")
	}
	if k <= 0 {
		k = 5
	}

	vectors, err := s.emb.Embed(ctx, []string{text})
	if err != nil {
		return nil, backendErr("embed query", err)
	}

	var where map[string]string
	if typeFilter != "" {
		where = map[string]string{"type": typeFilter}
	}

	hits, err := s.idx.Search(ctx, vectors[0], k, where)
	if err != nil {
		return nil, backendErr("search index", err)
	}

	results := make([]QueryResult, 0, len(hits))
	ids := make([]string, 0, len(hits))
	for _, h := range hits {
		rec := model.FromMetadata(h.ID, h.Text, nil, h.Metadata)
		qr := QueryResult{
			ID:      h.ID,
			Score:   1 - float64(h.Distance),
			Source:  rec.Source,
			Headers: rec.Headers,
		}
		if full {
			qr.Text = h.Text
		} else {
			qr.Summary = rec.Summary
		}
		results = append(results, qr)
		ids = append(ids, h.ID)
	}

	s.touch(ctx, ids)
	return results, nil
}

// touch bumps access counts and last-access timestamps. Best-effort: errors
// are logged and swallowed so they never fail the enclosing query.
func (s *Store) touch(ctx context.Context, ids []string) {
	if len(ids) == 0 {
		return
	}
	docs, err := s.idx.Get(ctx, ids...)
	if err != nil {
		s.log.Warn("access tracking: fetch failed", "err", err)
		return
	}
	now := s.now().UTC().Format(time.RFC3339)
	for _, doc := range docs {
		if doc.Metadata == nil {
			doc.Metadata = map[string]string{}
		}
		count, _ := strconv.Atoi(doc.Metadata["access_count"])
		doc.Metadata["access_count"] = strconv.Itoa(count + 1)
		doc.Metadata["last_accessed"] = now
		if err := s.idx.Upsert(ctx, doc); err != nil {
			s.log.Warn("access tracking: update failed", "id", doc.ID, "err", err)
		}
	}
}

// GetByID returns the full record, or false if the id is unknown. No access
// bookkeeping is performed.
func (s *Store) GetByID(ctx context.Context, id string) (model.MemoryRecord, bool, error) {
	recs, err := s.GetByIDs(ctx, []string{id})
	if err != nil {
		return model.MemoryRecord{}, false, err
	}
	if len(recs) == 0 {
		return model.MemoryRecord{}, false, nil
	}
	return recs[0], true, nil
}

// GetByIDs returns the records for the given ids, omitting unknown ones.
func (s *Store) GetByIDs(ctx context.Context, ids []string) ([]model.MemoryRecord, error) {
	docs, err := s.idx.Get(ctx, ids...)
	if err != nil {
		return nil, backendErr("get records", err)
	}
	recs := make([]model.MemoryRecord, 0, len(docs))
	for _, d := range docs {
		recs = append(recs, model.FromMetadata(d.ID, d.Text, d.Vector, d.Metadata))
	}
	return recs, nil
}

// ObservationOptions configures AddObservation.
type ObservationOptions struct {
	Type       string
	Area       string
	Importance float64 // 0 means default (0.5)

	// DedupeThreshold, when > 0, skips the insert if an existing memory
	// scores at or above it for the new text, returning the existing id.
	DedupeThreshold float64
}

// AddObservation inserts a single typed memory and returns its id and
// whether a new record was created. Unknown types fall back to
// "observation" with a warning, never an error.
func (s *Store) AddObservation(ctx context.Context, text string, opts ObservationOptions) (string, bool, error) {
	if strings.TrimSpace(text) == "" {
		return "", false, validationf("empty observation text")
	}

	obsType := model.ObsType(opts.Type)
	if opts.Type == "" {
		obsType = model.TypeObservation
	} else if !model.ValidObsTypes[obsType] {
		s.log.Warn("unknown observation type, falling back", "type", opts.Type, "fallback", model.TypeObservation)
		obsType = model.TypeObservation
	}

	importance := opts.Importance
	if importance <= 0 {
		importance = model.DefaultImportance
	}
	if importance > 1 {
		importance = 1
	}

	if opts.DedupeThreshold > 0 {
		hits, err := s.Query(ctx, text, 1, false, "")
		if err == nil && len(hits) > 0 && hits[0].Score >= opts.DedupeThreshold {
			s.log.Info("observation deduplicated", "existing", hits[0].ID, "score", hits[0].Score)
			return hits[0].ID, false, nil
		}
	}

	vectors, err := s.emb.Embed(ctx, []string{text})
	if err != nil {
		return "", false, backendErr("embed observation", err)
	}

	now := s.now().UTC()
	rec := model.MemoryRecord{
		ID:             model.ObservationID(text),
		Text:           text,
		Vector:         vectors[0],
		Source:         "observation",
		Summary:        chunker.Summarize(text, s.summaryLen),
		ObsType:        obsType,
		Area:           opts.Area,
		CreatedAt:      now,
		LastAccessedAt: now,
		Importance:     importance,
	}
	if err := s.idx.Upsert(ctx, toIndexDoc(rec)); err != nil {
		return "", false, backendErr("upsert observation", err)
	}
	return rec.ID, true, nil
}

// DeleteByID removes a record, reporting whether it existed. Deleting an
// unknown id is not an error.
func (s *Store) DeleteByID(ctx context.Context, id string) (bool, error) {
	n, err := s.idx.Delete(ctx, id)
	if err != nil {
		return false, backendErr("delete record", err)
	}
	return n > 0, nil
}

// Stats summarizes the store contents.
type Stats struct {
	Total    int            `json:"total_memories"`
	BySource map[string]int `json:"by_source"`
	ByType   map[string]int `json:"by_type"`
}

// Stats scans all metadata. O(n) over the store.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	docs, err := s.idx.GetAll(ctx, false)
	if err != nil {
		return nil, backendErr("scan index", err)
	}

	st := &Stats{
		Total:    len(docs),
		BySource: make(map[string]int),
		ByType:   make(map[string]int),
	}
	for _, d := range docs {
		src := d.Metadata["source"]
		if src == "" {
			src = "unknown"
		}
		st.BySource[src]++

		t := d.Metadata["type"]
		if t == "" {
			t = string(model.TypeFileChunk)
		}
		st.ByType[t]++
	}
	return st, nil
}

func toIndexDoc(rec model.MemoryRecord) index.Document {
	return index.Document{
		ID:       rec.ID,
		Vector:   rec.Vector,
		Text:     rec.Text,
		Metadata: rec.Metadata(),
	}
}
