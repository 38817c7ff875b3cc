package vault

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/rcliao/memory-vault/internal/model"
)

func TestDecayScoreFreshRecord(t *testing.T) {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	rec := model.MemoryRecord{
		CreatedAt:      now,
		LastAccessedAt: now,
		AccessCount:    0,
		Importance:     0.5,
	}

	// age 0, staleness 0, access term 1, importance term 0.5:
	// 0 + 0 + 0.2*1 + 0.3*0.5 = 0.35
	got := DecayScore(rec, now)
	if math.Abs(got-0.35) > 1e-9 {
		t.Errorf("fresh record decay = %f, want 0.35", got)
	}
}

func TestDecayScoreWorstCase(t *testing.T) {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	old := now.AddDate(-2, 0, 0)
	rec := model.MemoryRecord{
		CreatedAt:      old,
		LastAccessedAt: old,
		AccessCount:    0,
		Importance:     0,
	}

	got := DecayScore(rec, now)
	if math.Abs(got-1.0) > 1e-9 {
		t.Errorf("worst-case decay = %f, want 1.0", got)
	}
}

func TestDecayScoreBestCaseStaysLow(t *testing.T) {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	rec := model.MemoryRecord{
		CreatedAt:      now,
		LastAccessedAt: now,
		AccessCount:    99,
		Importance:     1,
	}

	got := DecayScore(rec, now)
	if got > 0.01 {
		t.Errorf("best-case decay = %f, want near 0", got)
	}
}

func TestDecayScoreMonotonicInStaleness(t *testing.T) {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	created := now.AddDate(0, 0, -10)

	prev := -1.0
	for _, staleDays := range []int{0, 5, 10, 20, 29} {
		rec := model.MemoryRecord{
			CreatedAt:      created,
			LastAccessedAt: now.AddDate(0, 0, -staleDays),
			Importance:     0.5,
		}
		got := DecayScore(rec, now)
		if got <= prev {
			t.Errorf("decay at %d stale days = %f, not greater than %f", staleDays, got, prev)
		}
		prev = got
	}
}

func TestDecayScoreAccessFrequencyLowersDecay(t *testing.T) {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	old := now.AddDate(0, -3, 0)

	base := model.MemoryRecord{CreatedAt: old, LastAccessedAt: old, Importance: 0.5}
	accessed := base
	accessed.AccessCount = 9

	if DecayScore(accessed, now) >= DecayScore(base, now) {
		t.Error("frequently accessed record does not decay slower")
	}
}

func TestDecayScoreZeroTimestamps(t *testing.T) {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	// Missing timestamps are treated as "just now": no age or staleness
	// contribution.
	rec := model.MemoryRecord{Importance: 0.5}
	got := DecayScore(rec, now)
	if math.Abs(got-0.35) > 1e-9 {
		t.Errorf("zero-timestamp decay = %f, want 0.35", got)
	}

	// Zero LastAccessedAt falls back to CreatedAt, not to zero time.
	rec = model.MemoryRecord{CreatedAt: now.AddDate(0, 0, -15), Importance: 0.5}
	withAccess := rec
	withAccess.LastAccessedAt = rec.CreatedAt
	if DecayScore(rec, now) != DecayScore(withAccess, now) {
		t.Error("zero last-access not treated as created-at")
	}
}

// ageRecord rewrites a stored record's bookkeeping so it looks long
// abandoned.
func ageRecord(t *testing.T, s *Store, id string, now time.Time) {
	t.Helper()
	ctx := context.Background()

	docs, err := s.idx.Get(ctx, id)
	if err != nil || len(docs) != 1 {
		t.Fatalf("fetch record %s: %v", id, err)
	}
	doc := docs[0]
	old := now.AddDate(-1, -1, 0).Format(time.RFC3339)
	doc.Metadata["created_at"] = old
	doc.Metadata["last_accessed"] = old
	doc.Metadata["access_count"] = "0"
	doc.Metadata["importance"] = "0.1"
	if err := s.idx.Upsert(ctx, doc); err != nil {
		t.Fatalf("rewrite record: %v", err)
	}
}

func TestPruneDryRun(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	staleID, _, err := s.AddObservation(ctx, "an abandoned note nobody reads", ObservationOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := s.AddObservation(ctx, "a fresh note added today", ObservationOptions{}); err != nil {
		t.Fatal(err)
	}
	ageRecord(t, s, staleID, s.now().UTC())

	candidates, err := s.Prune(ctx, 0, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(candidates) != 1 {
		t.Fatalf("got %d candidates, want 1: %+v", len(candidates), candidates)
	}
	if candidates[0].ID != staleID {
		t.Errorf("candidate = %s, want %s", candidates[0].ID, staleID)
	}
	if candidates[0].Decay <= DefaultPruneThreshold {
		t.Errorf("candidate decay = %f, not above threshold %f", candidates[0].Decay, DefaultPruneThreshold)
	}
	if candidates[0].Preview == "" {
		t.Error("candidate preview is empty")
	}

	// Dry run must not delete anything.
	if got := s.Count(); got != 2 {
		t.Errorf("count after dry run = %d, want 2", got)
	}
}

func TestPruneDeletes(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	staleID, _, err := s.AddObservation(ctx, "an abandoned note nobody reads", ObservationOptions{})
	if err != nil {
		t.Fatal(err)
	}
	freshID, _, err := s.AddObservation(ctx, "a fresh note added today", ObservationOptions{})
	if err != nil {
		t.Fatal(err)
	}
	ageRecord(t, s, staleID, s.now().UTC())

	candidates, err := s.Prune(ctx, 0, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(candidates) != 1 {
		t.Fatalf("got %d candidates, want 1", len(candidates))
	}

	if _, ok, _ := s.GetByID(ctx, staleID); ok {
		t.Error("stale record survived prune")
	}
	if _, ok, _ := s.GetByID(ctx, freshID); !ok {
		t.Error("fresh record was pruned")
	}
}

func TestPruneSortsByDecayDescending(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	firstID, _, err := s.AddObservation(ctx, "first stale record about nothing", ObservationOptions{})
	if err != nil {
		t.Fatal(err)
	}
	secondID, _, err := s.AddObservation(ctx, "second stale record about everything", ObservationOptions{})
	if err != nil {
		t.Fatal(err)
	}

	now := s.now().UTC()
	ageRecord(t, s, firstID, now)
	ageRecord(t, s, secondID, now)

	// Make the second one slightly less decayed via importance.
	docs, err := s.idx.Get(ctx, secondID)
	if err != nil || len(docs) != 1 {
		t.Fatal(err)
	}
	docs[0].Metadata["importance"] = "0.3"
	if err := s.idx.Upsert(ctx, docs[0]); err != nil {
		t.Fatal(err)
	}

	candidates, err := s.Prune(ctx, 0, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(candidates) != 2 {
		t.Fatalf("got %d candidates, want 2", len(candidates))
	}
	if candidates[0].ID != firstID || candidates[1].ID != secondID {
		t.Errorf("order = [%s %s], want most decayed first", candidates[0].ID, candidates[1].ID)
	}
	if candidates[0].Decay < candidates[1].Decay {
		t.Error("candidates not sorted by decay descending")
	}
}

func TestPruneEmptyStore(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	candidates, err := s.Prune(ctx, 0, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(candidates) != 0 {
		t.Errorf("empty store produced candidates: %+v", candidates)
	}
}
