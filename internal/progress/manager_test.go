package progress_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"study-engine/internal/domain"
	"study-engine/internal/infra/memory"
	"study-engine/internal/progress"
)

var fixedNow = time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)

func newManager(store progress.Store) *progress.Manager {
	return progress.NewManagerWithClock(store, func() time.Time { return fixedNow })
}

func TestValidateAcceptsWellFormedSnapshot(t *testing.T) {
	snap := domain.EmptySnapshot()
	snap.KnownCardIDs = []string{"a", "b"}
	snap.CurrentCardIndex = 2
	snap.StudyTime = 30
	assert.NoError(t, progress.Validate(snap))
	assert.NoError(t, progress.Validate(domain.CompletedSnapshot()))
}

func TestValidateCollectsEveryMessage(t *testing.T) {
	snap := domain.ProgressSnapshot{
		CurrentCardIndex: -1,
		StudyTime:        -5,
		UnknownCardIDs:   []string{},
		ReviewingCardIDs: []string{},
	}
	err := progress.Validate(snap)

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	joined := strings.Join(verr.Messages, "\n")
	assert.Contains(t, joined, "/currentCardIndex")
	assert.Contains(t, joined, "/studyTime")
	assert.Contains(t, joined, "/knownCardIds")
	assert.GreaterOrEqual(t, len(verr.Messages), 3)
}

func TestValidateJSONRejectsMissingFields(t *testing.T) {
	err := progress.ValidateJSON([]byte(`{"currentCardIndex": 0, "knownCardIds": ["a", 3]}`))
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.NotEmpty(t, verr.Messages)
}

func TestSaveWritesDocumentWithLastStudied(t *testing.T) {
	ctx := context.Background()
	store := memory.NewProgressStore()
	m := newManager(store)

	snap := domain.EmptySnapshot()
	snap.KnownCardIDs = []string{"a"}
	snap.StudyTime = 42
	require.NoError(t, m.Save(ctx, "deck-1", snap))

	doc, err := store.LoadProgress(ctx, "deck-1")
	require.NoError(t, err)
	assert.True(t, doc.LastStudied.Equal(fixedNow))
	assert.Equal(t, snap, doc.StudyProgress)
}

func TestSaveInvalidSnapshotWritesNothing(t *testing.T) {
	ctx := context.Background()
	store := memory.NewProgressStore()
	m := newManager(store)

	bad := domain.EmptySnapshot()
	bad.LastPosition = -3
	err := m.Save(ctx, "deck-1", bad)

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	_, err = store.LoadProgress(ctx, "deck-1")
	assert.ErrorIs(t, err, domain.ErrProgressNotFound)
}

func TestSaveWrapsStoreFailure(t *testing.T) {
	m := newManager(failingStore{err: errors.New("connection refused")})
	err := m.Save(context.Background(), "deck-1", domain.EmptySnapshot())

	var perr *domain.PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.NotEmpty(t, perr.UserMessage())
	assert.Contains(t, err.Error(), "connection refused")
}

func TestSaveCompletedAndClear(t *testing.T) {
	ctx := context.Background()
	store := memory.NewProgressStore()
	m := newManager(store)

	require.NoError(t, m.SaveCompleted(ctx, "deck-1"))
	snap, ok, err := m.Load(ctx, "deck-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, domain.CompletedSnapshot(), snap)
	assert.False(t, progress.ShouldOfferResume(snap))

	require.NoError(t, m.Clear(ctx, "deck-1"))
	snap, ok, err = m.Load(ctx, "deck-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, domain.EmptySnapshot(), snap)
}

func TestLoadMissingAndInvalid(t *testing.T) {
	ctx := context.Background()
	store := memory.NewProgressStore()
	m := newManager(store)

	_, ok, err := m.Load(ctx, "deck-1")
	require.NoError(t, err)
	assert.False(t, ok)

	// Bypass the manager to plant a snapshot that fails validation.
	bad := domain.ProgressDocument{StudyProgress: domain.ProgressSnapshot{StudyTime: 10}}
	require.NoError(t, store.SaveProgress(ctx, "deck-1", bad, false))
	_, ok, err = m.Load(ctx, "deck-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLoadWrapsStoreFailure(t *testing.T) {
	m := newManager(failingStore{err: errors.New("timeout")})
	_, _, err := m.Load(context.Background(), "deck-1")
	var perr *domain.PersistenceError
	assert.ErrorAs(t, err, &perr)
}

func TestShouldOfferResume(t *testing.T) {
	withKnown := domain.EmptySnapshot()
	withKnown.KnownCardIDs = []string{"a"}
	withKnown.StudyTime = 42
	assert.True(t, progress.ShouldOfferResume(withKnown))

	onlyTime := domain.EmptySnapshot()
	onlyTime.StudyTime = 1
	assert.True(t, progress.ShouldOfferResume(onlyTime))

	onlyUnknown := domain.EmptySnapshot()
	onlyUnknown.UnknownCardIDs = []string{"b"}
	assert.True(t, progress.ShouldOfferResume(onlyUnknown))

	assert.False(t, progress.ShouldOfferResume(domain.EmptySnapshot()))
}

type failingStore struct{ err error }

func (s failingStore) SaveProgress(context.Context, string, domain.ProgressDocument, bool) error {
	return s.err
}

func (s failingStore) LoadProgress(context.Context, string) (*domain.ProgressDocument, error) {
	return nil, s.err
}
