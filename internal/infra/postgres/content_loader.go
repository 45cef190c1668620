package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"study-engine/internal/domain"
)

// ContentLoader loads deck and quiz JSONB from Postgres.
type ContentLoader struct {
	pool *pgxpool.Pool
}

func NewContentLoader(pool *pgxpool.Pool) *ContentLoader {
	return &ContentLoader{pool: pool}
}

func (l *ContentLoader) LoadDeck(ctx context.Context, deckID string) (domain.Deck, error) {
	var raw []byte
	err := l.pool.QueryRow(ctx, `SELECT data FROM decks WHERE id=$1`, deckID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Deck{}, domain.ErrDeckNotFound
	}
	if err != nil {
		return domain.Deck{}, fmt.Errorf("load deck: %w", err)
	}
	var deck domain.Deck
	if err := json.Unmarshal(raw, &deck); err != nil {
		return domain.Deck{}, fmt.Errorf("unmarshal deck: %w", err)
	}
	return deck, nil
}

func (l *ContentLoader) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	var raw []byte
	err := l.pool.QueryRow(ctx, `SELECT data FROM quizzes WHERE id=$1`, quizID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}
	var quiz domain.Quiz
	if err := json.Unmarshal(raw, &quiz); err != nil {
		return domain.Quiz{}, fmt.Errorf("unmarshal quiz: %w", err)
	}
	return quiz, nil
}
