package memory

import (
	"context"
	"slices"
	"sync"

	"study-engine/internal/domain"
)

// ProgressStore is an in-memory progress.Store.
type ProgressStore struct {
	mu        sync.RWMutex
	docs      map[string]domain.ProgressDocument
	completed map[string]bool
}

func NewProgressStore() *ProgressStore {
	return &ProgressStore{
		docs:      make(map[string]domain.ProgressDocument),
		completed: make(map[string]bool),
	}
}

func (s *ProgressStore) SaveProgress(_ context.Context, id string, doc domain.ProgressDocument, isComplete bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[id] = cloneDocument(doc)
	s.completed[id] = isComplete
	return nil
}

// Completed reports whether the last write for id was a completion.
func (s *ProgressStore) Completed(_ context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.completed[id], nil
}

func (s *ProgressStore) LoadProgress(_ context.Context, id string) (*domain.ProgressDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[id]
	if !ok {
		return nil, domain.ErrProgressNotFound
	}
	doc = cloneDocument(doc)
	return &doc, nil
}

func cloneDocument(doc domain.ProgressDocument) domain.ProgressDocument {
	snap := &doc.StudyProgress
	snap.KnownCardIDs = slices.Clone(snap.KnownCardIDs)
	snap.UnknownCardIDs = slices.Clone(snap.UnknownCardIDs)
	snap.ReviewingCardIDs = slices.Clone(snap.ReviewingCardIDs)
	return doc
}

// AttemptStore keeps quiz attempts in insertion order.
type AttemptStore struct {
	mu       sync.Mutex
	attempts []domain.QuizAttempt
}

func NewAttemptStore() *AttemptStore {
	return &AttemptStore{}
}

func (s *AttemptStore) RecordQuizAttempt(_ context.Context, attempt domain.QuizAttempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts = append(s.attempts, attempt)
	return nil
}

// Attempts returns the attempts recorded for a quiz, newest first.
func (s *AttemptStore) Attempts(_ context.Context, quizID string) ([]domain.QuizAttempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.QuizAttempt
	for i := len(s.attempts) - 1; i >= 0; i-- {
		if s.attempts[i].QuizID == quizID {
			out = append(out, s.attempts[i])
		}
	}
	return out, nil
}
