package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"study-engine/internal/domain"
	"study-engine/internal/mastery"
	"study-engine/internal/progress"
	"study-engine/internal/schedule"
	"study-engine/internal/session"
)

// ContentRepository loads deck and quiz content (from cache/backing store).
type ContentRepository interface {
	GetDeck(ctx context.Context, deckID string) (domain.Deck, error)
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// AttemptRecorder appends finished quiz attempts to the remote store.
type AttemptRecorder interface {
	RecordQuizAttempt(ctx context.Context, attempt domain.QuizAttempt) error
}

// Scheduler starts repeating tasks; *schedule.Scheduler implements it.
type Scheduler interface {
	Every(interval time.Duration, fn func()) (schedule.Task, error)
}

// Deps are the collaborators a StudyService drives.
type Deps struct {
	Content   ContentRepository
	Progress  *progress.Manager
	Mastery   *mastery.Tracker
	Attempts  AttemptRecorder
	Scheduler Scheduler
	Speaker   domain.Speaker
}

// Config tunes the background tasks of an open session.
type Config struct {
	// SaveInterval is how often an open session snapshots its progress.
	SaveInterval time.Duration
	// TickInterval is the real-time unit counted by the study timer.
	TickInterval time.Duration
	// Clock and Seed default to time.Now and a time-based seed.
	Clock func() time.Time
	Seed  func() int64
}

const (
	DefaultSaveInterval = 30 * time.Second
	DefaultTickInterval = time.Second

	backgroundTimeout = 10 * time.Second
)

// StudyService opens decks and quizzes and hands out session controllers.
type StudyService struct {
	deps Deps
	cfg  Config
}

func NewStudyService(deps Deps, cfg Config) *StudyService {
	if deps.Speaker == nil {
		deps.Speaker = domain.NoopSpeaker{}
	}
	if cfg.SaveInterval <= 0 {
		cfg.SaveInterval = DefaultSaveInterval
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultTickInterval
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Seed == nil {
		cfg.Seed = func() int64 { return time.Now().UnixNano() }
	}
	return &StudyService{deps: deps, cfg: cfg}
}

// DeckKey scopes progress and mastery documents of a deck.
func DeckKey(deckID string) string { return "deck/" + deckID }

// QuizKey scopes progress and mastery documents of a quiz.
func QuizKey(quizID string) string { return "quiz/" + quizID }

// DeckOpening is the result of OpenDeck: content plus the stored snapshot.
// When OfferResume is set the caller must ask the user before calling StartDeck.
type DeckOpening struct {
	Deck        domain.Deck
	Snapshot    domain.ProgressSnapshot
	OfferResume bool
}

// QuizOpening is the quiz counterpart of DeckOpening.
type QuizOpening struct {
	Quiz        domain.Quiz
	Snapshot    domain.ProgressSnapshot
	OfferResume bool
}

// OpenDeck loads a deck and decides whether resuming should be offered.
func (s *StudyService) OpenDeck(ctx context.Context, deckID string) (DeckOpening, error) {
	deck, err := s.deps.Content.GetDeck(ctx, deckID)
	if err != nil {
		return DeckOpening{}, err
	}
	snap, ok, err := s.deps.Progress.Load(ctx, DeckKey(deckID))
	if err != nil {
		return DeckOpening{}, err
	}
	return DeckOpening{Deck: deck, Snapshot: snap, OfferResume: ok && progress.ShouldOfferResume(snap)}, nil
}

// OpenQuiz loads a quiz and decides whether resuming should be offered.
func (s *StudyService) OpenQuiz(ctx context.Context, quizID string) (QuizOpening, error) {
	quiz, err := s.deps.Content.GetQuiz(ctx, quizID)
	if err != nil {
		return QuizOpening{}, err
	}
	snap, ok, err := s.deps.Progress.Load(ctx, QuizKey(quizID))
	if err != nil {
		return QuizOpening{}, err
	}
	return QuizOpening{Quiz: quiz, Snapshot: snap, OfferResume: ok && progress.ShouldOfferResume(snap)}, nil
}

// StartDeck creates a controller. With resume the stored snapshot is restored;
// declining an offered resume clears the stored progress first.
func (s *StudyService) StartDeck(ctx context.Context, opening DeckOpening, resume bool) (*DeckController, error) {
	key := DeckKey(opening.Deck.ID)
	var state session.Flashcards
	if resume && opening.OfferResume {
		state = session.RestoreFlashcards(opening.Deck, opening.Snapshot)
	} else {
		if opening.OfferResume {
			if err := s.deps.Progress.Clear(ctx, key); err != nil {
				log.Printf("clear declined progress for %s: %v", key, err)
			}
		}
		state = session.NewFlashcards(opening.Deck)
	}
	c := &DeckController{deck: opening.Deck, state: state}
	c.runner = s.newRunner(key, opening.Deck.ID)
	if err := c.start(c.autosave, c.tick); err != nil {
		return nil, err
	}
	log.Printf("session %s started for %s (resumed=%v)", c.id, key, resume && opening.OfferResume)
	return c, nil
}

// StartQuiz is the quiz counterpart of StartDeck.
func (s *StudyService) StartQuiz(ctx context.Context, opening QuizOpening, resume bool) (*QuizController, error) {
	key := QuizKey(opening.Quiz.ID)
	var state session.Quiz
	if resume && opening.OfferResume {
		state = session.RestoreQuiz(opening.Quiz, opening.Snapshot, s.cfg.Seed())
	} else {
		if opening.OfferResume {
			if err := s.deps.Progress.Clear(ctx, key); err != nil {
				log.Printf("clear declined progress for %s: %v", key, err)
			}
		}
		state = session.NewQuiz(opening.Quiz, s.cfg.Seed())
	}
	c := &QuizController{state: state}
	c.runner = s.newRunner(key, opening.Quiz.ID)
	if err := c.start(c.autosave, c.tick); err != nil {
		return nil, err
	}
	log.Printf("session %s started for %s (resumed=%v)", c.id, key, resume && opening.OfferResume)
	return c, nil
}

// ClearDeckProgress writes the all-empty snapshot for a deck.
func (s *StudyService) ClearDeckProgress(ctx context.Context, deckID string) error {
	return s.deps.Progress.Clear(ctx, DeckKey(deckID))
}

// ClearQuizProgress writes the all-empty snapshot for a quiz.
func (s *StudyService) ClearQuizProgress(ctx context.Context, quizID string) error {
	return s.deps.Progress.Clear(ctx, QuizKey(quizID))
}

// MasteryOverview is the per-status tally of a deck.
type MasteryOverview struct {
	DeckID string
	Total  int
	Counts map[domain.MasteryStatus]int
}

// DeckMastery tallies the mastery statuses of every card in a deck.
func (s *StudyService) DeckMastery(ctx context.Context, deckID string) (MasteryOverview, error) {
	deck, err := s.deps.Content.GetDeck(ctx, deckID)
	if err != nil {
		return MasteryOverview{}, err
	}
	m, err := s.deps.Mastery.Load(ctx, DeckKey(deckID))
	if err != nil {
		return MasteryOverview{}, fmt.Errorf("deck mastery: %w", err)
	}
	ids := deck.CardIDs()
	return MasteryOverview{DeckID: deckID, Total: len(ids), Counts: mastery.Counts(m, ids)}, nil
}

func (s *StudyService) newRunner(key, contentID string) runner {
	return runner{
		svc:       s,
		id:        uuid.New().String(),
		key:       key,
		contentID: contentID,
		notices:   newNotifier(),
	}
}
