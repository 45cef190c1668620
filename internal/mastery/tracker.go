package mastery

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"study-engine/internal/domain"
)

// KeyValueStore is the device-local whole-document store holding mastery maps.
// It offers no locking and no concurrency token.
type KeyValueStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

// ApplyOutcome advances or relapses a record by one step.
//
// Policy: correct moves not-learned -> learning -> mastered, incorrect moves
// mastered -> learning -> not-learned. Transitions happen on the first event;
// there are no review-count thresholds. ReviewCount always increments.
func ApplyOutcome(record domain.MasteryRecord, correct bool) domain.MasteryRecord {
	next := record
	next.ReviewCount++
	if correct {
		if next.Status < domain.Mastered {
			next.Status++
		}
	} else if next.Status > domain.NotLearned {
		next.Status--
	}
	return next
}

// Tracker reads and writes per-deck mastery maps through a KeyValueStore.
//
// Record does a read-modify-write of the whole map. Two sessions on the same
// deck racing through Record lose updates: the last writer wins.
type Tracker struct {
	kv    KeyValueStore
	clock func() time.Time
}

func NewTracker(kv KeyValueStore) *Tracker {
	return &Tracker{kv: kv, clock: time.Now}
}

// NewTrackerWithClock is used by tests that need deterministic timestamps.
func NewTrackerWithClock(kv KeyValueStore, now func() time.Time) *Tracker {
	return &Tracker{kv: kv, clock: now}
}

// Load returns the full map for a deck; a missing document is an empty map.
func (t *Tracker) Load(ctx context.Context, deckID string) (domain.MasteryMap, error) {
	raw, ok, err := t.kv.Get(ctx, key(deckID))
	if err != nil {
		return nil, fmt.Errorf("load mastery map: %w", err)
	}
	m := make(domain.MasteryMap)
	if !ok || len(raw) == 0 {
		return m, nil
	}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("decode mastery map: %w", err)
	}
	return m, nil
}

// Store overwrites the full map for a deck.
func (t *Tracker) Store(ctx context.Context, deckID string, m domain.MasteryMap) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode mastery map: %w", err)
	}
	if err := t.kv.Set(ctx, key(deckID), raw); err != nil {
		return fmt.Errorf("store mastery map: %w", err)
	}
	return nil
}

// Record applies one outcome to an item and writes the whole map back.
func (t *Tracker) Record(ctx context.Context, deckID, itemID string, correct bool) (domain.MasteryRecord, error) {
	m, err := t.Load(ctx, deckID)
	if err != nil {
		return domain.MasteryRecord{}, err
	}
	rec, ok := m[itemID]
	if !ok {
		rec = domain.MasteryRecord{CardID: itemID, Status: domain.NotLearned}
	}
	rec = ApplyOutcome(rec, correct)
	rec.LastReviewed = t.clock()
	m[itemID] = rec
	if err := t.Store(ctx, deckID, m); err != nil {
		return domain.MasteryRecord{}, err
	}
	return rec, nil
}

// Statuses projects a map onto item ids; unseen items are NotLearned.
func Statuses(m domain.MasteryMap, ids []string) map[string]domain.MasteryStatus {
	out := make(map[string]domain.MasteryStatus, len(ids))
	for _, id := range ids {
		out[id] = m[id].Status
	}
	return out
}

// Counts tallies statuses over ids, for the deck overview.
func Counts(m domain.MasteryMap, ids []string) map[domain.MasteryStatus]int {
	out := map[domain.MasteryStatus]int{
		domain.NotLearned: 0,
		domain.Learning:   0,
		domain.Mastered:   0,
	}
	for _, id := range ids {
		out[m[id].Status]++
	}
	return out
}

func key(deckID string) string {
	return "mastery:" + deckID
}
