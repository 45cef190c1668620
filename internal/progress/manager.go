package progress

import (
	"context"
	"errors"
	"log"
	"time"

	"study-engine/internal/domain"
)

// Store is the remote document store holding one ProgressDocument per deck or quiz.
type Store interface {
	SaveProgress(ctx context.Context, id string, doc domain.ProgressDocument, isComplete bool) error
	// LoadProgress returns domain.ErrProgressNotFound when nothing was saved yet.
	LoadProgress(ctx context.Context, id string) (*domain.ProgressDocument, error)
}

// Manager validates snapshots and writes them wholesale to a Store. It never
// retries; the next periodic save is the retry.
type Manager struct {
	store Store
	clock func() time.Time
}

func NewManager(store Store) *Manager {
	return &Manager{store: store, clock: time.Now}
}

// NewManagerWithClock is used by tests that assert on LastStudied.
func NewManagerWithClock(store Store, now func() time.Time) *Manager {
	return &Manager{store: store, clock: now}
}

// Save validates snap and writes it with LastStudied set to now. A schema
// failure returns *domain.ValidationError and nothing is written; a store
// failure returns *domain.PersistenceError.
func (m *Manager) Save(ctx context.Context, id string, snap domain.ProgressSnapshot) error {
	if err := Validate(snap); err != nil {
		return err
	}
	doc := domain.ProgressDocument{LastStudied: m.clock(), StudyProgress: snap}
	if err := m.store.SaveProgress(ctx, id, doc, snap.IsCompleted); err != nil {
		return &domain.PersistenceError{Op: "save progress " + id, Err: err}
	}
	return nil
}

// SaveCompleted writes the completed-and-reset snapshot.
func (m *Manager) SaveCompleted(ctx context.Context, id string) error {
	return m.Save(ctx, id, domain.CompletedSnapshot())
}

// Clear writes the all-empty snapshot.
func (m *Manager) Clear(ctx context.Context, id string) error {
	return m.Save(ctx, id, domain.EmptySnapshot())
}

// Load returns the stored snapshot. ok is false when nothing was saved or the
// stored snapshot fails validation; the latter is logged and treated as absent.
func (m *Manager) Load(ctx context.Context, id string) (snap domain.ProgressSnapshot, ok bool, err error) {
	doc, err := m.store.LoadProgress(ctx, id)
	if errors.Is(err, domain.ErrProgressNotFound) {
		return domain.ProgressSnapshot{}, false, nil
	}
	if err != nil {
		return domain.ProgressSnapshot{}, false, &domain.PersistenceError{Op: "load progress " + id, Err: err}
	}
	if doc == nil {
		return domain.ProgressSnapshot{}, false, nil
	}
	if err := Validate(doc.StudyProgress); err != nil {
		log.Printf("ignoring stored progress for %s: %v", id, err)
		return domain.ProgressSnapshot{}, false, nil
	}
	return doc.StudyProgress, true, nil
}

// ShouldOfferResume reports whether a stored snapshot carries any progress
// worth resuming. The caller must ask the user; resume is never automatic.
func ShouldOfferResume(snap domain.ProgressSnapshot) bool {
	return len(snap.KnownCardIDs) > 0 || len(snap.UnknownCardIDs) > 0 || snap.StudyTime > 0
}
