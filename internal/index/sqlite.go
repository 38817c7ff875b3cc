package index

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	_ "modernc.org/sqlite"
)

// SQLiteIndex implements Index on a single SQLite table, with vectors stored
// as little-endian float32 blobs. Search is a brute-force cosine scan, which
// is fine at memory-vault scale (thousands of records) and keeps the backend
// dependency-light and durable.
type SQLiteIndex struct {
	db *sql.DB
}

// NewSQLiteIndex opens or creates the index database at the given path.
func NewSQLiteIndex(dbPath string) (*SQLiteIndex, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	x := &SQLiteIndex{db: db}
	if err := x.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return x, nil
}

func (x *SQLiteIndex) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		id       TEXT PRIMARY KEY,
		vector   BLOB NOT NULL,
		text     TEXT NOT NULL,
		metadata TEXT
	);
	`
	_, err := x.db.Exec(schema)
	return err
}

func (x *SQLiteIndex) Upsert(ctx context.Context, docs ...Document) error {
	tx, err := x.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, doc := range docs {
		if len(doc.Vector) == 0 {
			return fmt.Errorf("document %s has no vector", doc.ID)
		}
		metaJSON, err := json.Marshal(doc.Metadata)
		if err != nil {
			return fmt.Errorf("marshal metadata for %s: %w", doc.ID, err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO documents (id, vector, text, metadata) VALUES (?, ?, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET vector = excluded.vector, text = excluded.text, metadata = excluded.metadata`,
			doc.ID, encodeVector(doc.Vector), doc.Text, string(metaJSON))
		if err != nil {
			return fmt.Errorf("upsert document %s: %w", doc.ID, err)
		}
	}
	return tx.Commit()
}

func (x *SQLiteIndex) Search(ctx context.Context, vec []float32, k int, where map[string]string) ([]Result, error) {
	if k <= 0 {
		return nil, nil
	}

	docs, err := x.scanAll(ctx, true)
	if err != nil {
		return nil, err
	}

	var results []Result
	for _, doc := range docs {
		if len(doc.Vector) == 0 || !matches(doc.Metadata, where) {
			continue
		}
		results = append(results, Result{
			ID:       doc.ID,
			Distance: cosineDistance(vec, doc.Vector),
			Text:     doc.Text,
			Metadata: doc.Metadata,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Distance != results[j].Distance {
			return results[i].Distance < results[j].Distance
		}
		return results[i].ID < results[j].ID
	})
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

func (x *SQLiteIndex) Get(ctx context.Context, ids ...string) ([]Document, error) {
	var out []Document
	for _, id := range ids {
		row := x.db.QueryRowContext(ctx,
			`SELECT id, vector, text, metadata FROM documents WHERE id = ?`, id)
		doc, err := scanDocument(row)
		if err == sql.ErrNoRows {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, nil
}

func (x *SQLiteIndex) GetAll(ctx context.Context, includeVectors bool) ([]Document, error) {
	return x.scanAll(ctx, includeVectors)
}

func (x *SQLiteIndex) scanAll(ctx context.Context, includeVectors bool) ([]Document, error) {
	rows, err := x.db.QueryContext(ctx, `SELECT id, vector, text, metadata FROM documents`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		if !includeVectors {
			doc.Vector = nil
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (x *SQLiteIndex) Delete(ctx context.Context, ids ...string) (int, error) {
	deleted := 0
	for _, id := range ids {
		res, err := x.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
		if err != nil {
			return deleted, err
		}
		if n, err := res.RowsAffected(); err == nil {
			deleted += int(n)
		}
	}
	return deleted, nil
}

func (x *SQLiteIndex) Count() int {
	var n int
	x.db.QueryRow(`SELECT COUNT(*) FROM documents`).Scan(&n)
	return n
}

func (x *SQLiteIndex) Reset(ctx context.Context) error {
	if _, err := x.db.ExecContext(ctx, `DROP TABLE IF EXISTS documents`); err != nil {
		return fmt.Errorf("drop table: %w", err)
	}
	return x.migrate()
}

func (x *SQLiteIndex) Close() error {
	return x.db.Close()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanDocument(row scanner) (Document, error) {
	var doc Document
	var blob []byte
	var metaJSON sql.NullString

	if err := row.Scan(&doc.ID, &blob, &doc.Text, &metaJSON); err != nil {
		return doc, err
	}
	doc.Vector = decodeVector(blob)
	doc.Metadata = map[string]string{}
	if metaJSON.Valid && metaJSON.String != "" {
		json.Unmarshal([]byte(metaJSON.String), &doc.Metadata)
	}
	return doc, nil
}

// Vector encoding: little-endian float32s, 4 bytes per component.

func encodeVector(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func decodeVector(buf []byte) []float32 {
	vec := make([]float32, len(buf)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return vec
}

// cosineDistance returns 1 - cosine similarity, in [0, 2]. Zero vectors are
// treated as maximally distant.
func cosineDistance(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 1
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 1
	}
	return float32(1 - dot/(math.Sqrt(normA)*math.Sqrt(normB)))
}
