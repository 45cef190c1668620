package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"study-engine/internal/domain"
)

// ProgressStore keeps one progress document per deck or quiz.
// Documents are stored as: SET progress:{id} {json}
// Completed ids are kept in: SADD progress:completed {id}
type ProgressStore struct {
	client *redis.Client
}

func NewProgressStore(client *redis.Client) *ProgressStore {
	return &ProgressStore{client: client}
}

func (s *ProgressStore) SaveProgress(ctx context.Context, id string, doc domain.ProgressDocument, isComplete bool) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode progress: %w", err)
	}
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.key(id), raw, 0)
	if isComplete {
		pipe.SAdd(ctx, completedKey, id)
	} else {
		pipe.SRem(ctx, completedKey, id)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("write progress: %w", err)
	}
	return nil
}

func (s *ProgressStore) LoadProgress(ctx context.Context, id string) (*domain.ProgressDocument, error) {
	raw, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrProgressNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read progress: %w", err)
	}
	var doc domain.ProgressDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode progress: %w", err)
	}
	return &doc, nil
}

// Completed reports whether the last write for id was a completion.
func (s *ProgressStore) Completed(ctx context.Context, id string) (bool, error) {
	return s.client.SIsMember(ctx, completedKey, id).Result()
}

const completedKey = "progress:completed"

func (s *ProgressStore) key(id string) string {
	return "progress:" + id
}
