package redis

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"study-engine/internal/domain"
)

// ContentLoader fetches decks and quizzes from a backing store (e.g., Postgres).
type ContentLoader interface {
	LoadDeck(ctx context.Context, deckID string) (domain.Deck, error)
	LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// ContentRepository caches deck and quiz documents in Redis and falls back to
// a loader on cache miss.
// Decks are stored as:   SET content:deck:{deckID} {json}
// Quizzes are stored as: SET content:quiz:{quizID} {json}
type ContentRepository struct {
	client *redis.Client
	loader ContentLoader
	ttl    time.Duration
	sf     singleflight.Group

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewContentRepository(client *redis.Client, loader ContentLoader, ttl time.Duration) *ContentRepository {
	return &ContentRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *ContentRepository) GetDeck(ctx context.Context, deckID string) (domain.Deck, error) {
	var deck domain.Deck
	err := r.get(ctx, "content:deck:"+deckID, &deck, func() (any, error) {
		return r.loader.LoadDeck(ctx, deckID)
	})
	return deck, err
}

func (r *ContentRepository) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	var quiz domain.Quiz
	err := r.get(ctx, "content:quiz:"+quizID, &quiz, func() (any, error) {
		return r.loader.LoadQuiz(ctx, quizID)
	})
	return quiz, err
}

// get decodes the cached document at key into dst, loading and caching it on a miss.
func (r *ContentRepository) get(ctx context.Context, key string, dst any, load func() (any, error)) error {
	if raw, err := r.client.Get(ctx, key).Bytes(); err == nil {
		return json.Unmarshal(raw, dst)
	}

	result, err, _ := r.sf.Do(key, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if raw, err := r.client.Get(ctx, key).Bytes(); err == nil {
			return raw, nil
		}

		v, err := load()
		if err != nil {
			return nil, err
		}
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		// best-effort: a failed cache write only costs another load
		_ = r.client.Set(ctx, key, raw, r.ttlWithJitter()).Err()
		return raw, nil
	})
	if err != nil {
		return err
	}
	raw, ok := result.([]byte)
	if !ok {
		return errors.New("content cache: unexpected result type")
	}
	return json.Unmarshal(raw, dst)
}

func (r *ContentRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
