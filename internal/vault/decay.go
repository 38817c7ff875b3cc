package vault

import (
	"context"
	"sort"
	"time"

	"github.com/rcliao/memory-vault/internal/model"
)

// Decay weights. They sum to 1.0 so the score stays in [0, 1].
const (
	decayAgeWeight        = 0.2
	decayStalenessWeight  = 0.3
	decayAccessWeight     = 0.2
	decayImportanceWeight = 0.3

	decayAgeHorizonDays       = 180.0
	decayStalenessHorizonDays = 30.0

	// DefaultPruneThreshold is the decay score above which a record becomes
	// a pruning candidate.
	DefaultPruneThreshold = 0.75
)

// DecayScore computes a record's staleness in [0, 1]: a weighted sum of age,
// time since last access, inverse access frequency, and inverted importance,
// each factor capped at 1 before weighting. Frequently retrieved, recently
// created, explicitly important memories score low; stale, never-recalled,
// low-importance ones score high.
func DecayScore(rec model.MemoryRecord, now time.Time) float64 {
	created := rec.CreatedAt
	if created.IsZero() {
		created = now
	}
	accessed := rec.LastAccessedAt
	if accessed.IsZero() {
		accessed = created
	}

	ageDays := now.Sub(created).Hours() / 24
	staleDays := now.Sub(accessed).Hours() / 24

	return decayAgeWeight*capped(ageDays/decayAgeHorizonDays) +
		decayStalenessWeight*capped(staleDays/decayStalenessHorizonDays) +
		decayAccessWeight*(1/float64(rec.AccessCount+1)) +
		decayImportanceWeight*(1-rec.Importance)
}

func capped(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// PruneCandidate is a record whose decay score exceeds the prune threshold.
type PruneCandidate struct {
	ID      string  `json:"id"`
	Decay   float64 `json:"decay"`
	Preview string  `json:"preview"`
}

// Prune lists records with decay above threshold, sorted by decay
// descending, and deletes them unless dryRun. Returns the candidates either
// way.
func (s *Store) Prune(ctx context.Context, threshold float64, dryRun bool) ([]PruneCandidate, error) {
	if threshold <= 0 {
		threshold = DefaultPruneThreshold
	}

	docs, err := s.idx.GetAll(ctx, false)
	if err != nil {
		return nil, backendErr("scan index", err)
	}

	now := s.now().UTC()
	var candidates []PruneCandidate
	for _, d := range docs {
		rec := model.FromMetadata(d.ID, d.Text, nil, d.Metadata)
		decay := DecayScore(rec, now)
		if decay <= threshold {
			continue
		}
		candidates = append(candidates, PruneCandidate{
			ID:      d.ID,
			Decay:   decay,
			Preview: preview(d.Text),
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Decay != candidates[j].Decay {
			return candidates[i].Decay > candidates[j].Decay
		}
		return candidates[i].ID < candidates[j].ID
	})

	if dryRun || len(candidates) == 0 {
		return candidates, nil
	}

	ids := make([]string, len(candidates))
	for i, c := range candidates {
		ids[i] = c.ID
	}
	if _, err := s.idx.Delete(ctx, ids...); err != nil {
		return candidates, backendErr("delete pruned records", err)
	}
	return candidates, nil
}
