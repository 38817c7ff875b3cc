// Package model defines the core memory record types.
package model

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ObsType classifies an observation memory.
type ObsType string

const (
	TypeDecision       ObsType = "decision"
	TypeLesson         ObsType = "lesson"
	TypeBugfix         ObsType = "bugfix"
	TypeDiscovery      ObsType = "discovery"
	TypeImplementation ObsType = "implementation"
	TypeObservation    ObsType = "observation"

	// TypeFileChunk marks chunks produced by indexing files, as opposed
	// to directly added observations.
	TypeFileChunk ObsType = "file_chunk"
)

// ValidObsTypes are the observation types accepted by AddObservation.
// TypeFileChunk is reserved for the indexer and is not in this set.
var ValidObsTypes = map[ObsType]bool{
	TypeDecision:       true,
	TypeLesson:         true,
	TypeBugfix:         true,
	TypeDiscovery:      true,
	TypeImplementation: true,
	TypeObservation:    true,
}

// KnownAreas are the conventional memory areas. Free-form areas are accepted;
// this list is advisory for callers.
var KnownAreas = []string{"core", "trading", "infrastructure", "personal", "projects"}

// DefaultImportance is assigned when the caller does not specify one.
const DefaultImportance = 0.5

// MemoryRecord is the unit entity of the vault.
type MemoryRecord struct {
	ID             string    `json:"id"`
	Text           string    `json:"text"`
	Vector         []float32 `json:"-"`
	Source         string    `json:"source"`
	Headers        []string  `json:"headers,omitempty"`
	Summary        string    `json:"summary"`
	ObsType        ObsType   `json:"type"`
	Area           string    `json:"area,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	LastAccessedAt time.Time `json:"last_accessed_at"`
	AccessCount    int       `json:"access_count"`
	Importance     float64   `json:"importance"`
}

// ChunkID derives the content-addressed id for a file chunk. The ordinal
// suffix is only appended when a document repeats identical chunk text, so
// unchanged documents re-index onto the same ids.
func ChunkID(text string, ordinal int) string {
	id := contentID(text)
	if ordinal > 0 {
		return id + "-" + strconv.Itoa(ordinal)
	}
	return id
}

// ObservationID derives the content-addressed id for an observation.
// Identical text collides onto one id; last write wins.
func ObservationID(text string) string {
	return contentID(text)
}

func contentID(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])[:12]
}

// headerSep joins header path segments in stored metadata.
const headerSep = " > "

// Metadata flattens the record's fields into the string map stored in the
// vector index. The text and vector travel separately.
func (r *MemoryRecord) Metadata() map[string]string {
	meta := map[string]string{
		"source":        r.Source,
		"type":          string(r.ObsType),
		"summary":       r.Summary,
		"created_at":    r.CreatedAt.UTC().Format(time.RFC3339),
		"last_accessed": r.LastAccessedAt.UTC().Format(time.RFC3339),
		"access_count":  strconv.Itoa(r.AccessCount),
		"importance":    strconv.FormatFloat(r.Importance, 'f', -1, 64),
	}
	if len(r.Headers) > 0 {
		meta["headers"] = strings.Join(r.Headers, headerSep)
	}
	if r.Area != "" {
		meta["area"] = r.Area
	}
	return meta
}

// FromMetadata reconstructs a record from index storage. Missing optional
// keys fall back to zero values or defaults; malformed timestamps are
// treated as absent.
func FromMetadata(id, text string, vector []float32, meta map[string]string) MemoryRecord {
	r := MemoryRecord{
		ID:         id,
		Text:       text,
		Vector:     vector,
		Source:     meta["source"],
		Summary:    meta["summary"],
		Area:       meta["area"],
		ObsType:    ObsType(meta["type"]),
		Importance: DefaultImportance,
	}
	if r.ObsType == "" {
		r.ObsType = TypeFileChunk
	}
	if h := meta["headers"]; h != "" {
		r.Headers = strings.Split(h, headerSep)
	}
	if t, err := time.Parse(time.RFC3339, meta["created_at"]); err == nil {
		r.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339, meta["last_accessed"]); err == nil {
		r.LastAccessedAt = t
	} else {
		r.LastAccessedAt = r.CreatedAt
	}
	if n, err := strconv.Atoi(meta["access_count"]); err == nil && n >= 0 {
		r.AccessCount = n
	}
	if f, err := strconv.ParseFloat(meta["importance"], 64); err == nil && f >= 0 && f <= 1 {
		r.Importance = f
	}
	return r
}

// Validate checks the invariants that make a record storable.
func (r *MemoryRecord) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("record has empty id")
	}
	if strings.TrimSpace(r.Text) == "" {
		return fmt.Errorf("record %s has empty text", r.ID)
	}
	if len(r.Vector) == 0 {
		return fmt.Errorf("record %s has no embedding vector", r.ID)
	}
	return nil
}
