package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"study-engine/internal/domain"
)

// ContentLoader fetches decks and quizzes from a backing store (e.g., Postgres).
type ContentLoader interface {
	LoadDeck(ctx context.Context, deckID string) (domain.Deck, error)
	LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// ContentRepository caches decks and quizzes with TTL to avoid repeated DB hits.
type ContentRepository struct {
	loader ContentLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group

	mu    sync.RWMutex
	rnd   *rand.Rand
	cache map[string]cachedContent
}

type cachedContent struct {
	value     any
	expiresAt time.Time
}

func NewContentRepository(loader ContentLoader, ttl time.Duration) *ContentRepository {
	return &ContentRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedContent),
	}
}

func (r *ContentRepository) GetDeck(ctx context.Context, deckID string) (domain.Deck, error) {
	v, err := r.get(ctx, "deck:"+deckID, func() (any, error) {
		return r.loader.LoadDeck(ctx, deckID)
	})
	if err != nil {
		return domain.Deck{}, err
	}
	return v.(domain.Deck), nil
}

func (r *ContentRepository) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	v, err := r.get(ctx, "quiz:"+quizID, func() (any, error) {
		return r.loader.LoadQuiz(ctx, quizID)
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	return v.(domain.Quiz), nil
}

func (r *ContentRepository) get(_ context.Context, key string, load func() (any, error)) (any, error) {
	if v, ok := r.lookup(key); ok {
		return v, nil
	}

	result, err, _ := r.sf.Do(key, func() (interface{}, error) {
		if v, ok := r.lookup(key); ok {
			return v, nil
		}
		v, err := load()
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.cache[key] = cachedContent{
			value:     v,
			expiresAt: r.clock().Add(r.ttlWithJitter()),
		}
		r.mu.Unlock()
		return v, nil
	})
	return result, err
}

func (r *ContentRepository) lookup(key string) (any, bool) {
	now := r.clock()
	r.mu.RLock()
	defer r.mu.RUnlock()
	if entry, ok := r.cache[key]; ok && entry.expiresAt.After(now) {
		return entry.value, true
	}
	return nil, false
}

// caller holds r.mu
func (r *ContentRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

// StaticContentLoader is a simple loader backed by in-memory maps (useful for tests/demos).
type StaticContentLoader struct {
	decks   map[string]domain.Deck
	quizzes map[string]domain.Quiz
}

func NewStaticContentLoader(decks []domain.Deck, quizzes []domain.Quiz) *StaticContentLoader {
	l := &StaticContentLoader{
		decks:   make(map[string]domain.Deck, len(decks)),
		quizzes: make(map[string]domain.Quiz, len(quizzes)),
	}
	for _, d := range decks {
		l.decks[d.ID] = d
	}
	for _, q := range quizzes {
		l.quizzes[q.ID] = q
	}
	return l
}

func (l *StaticContentLoader) LoadDeck(_ context.Context, deckID string) (domain.Deck, error) {
	if deck, ok := l.decks[deckID]; ok {
		return deck, nil
	}
	return domain.Deck{}, domain.ErrDeckNotFound
}

func (l *StaticContentLoader) LoadQuiz(_ context.Context, quizID string) (domain.Quiz, error) {
	if quiz, ok := l.quizzes[quizID]; ok {
		return quiz, nil
	}
	return domain.Quiz{}, domain.ErrQuizNotFound
}
