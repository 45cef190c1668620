package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"study-engine/internal/domain"
)

// AttemptStore appends quiz attempts to the quiz_attempts table.
type AttemptStore struct {
	pool *pgxpool.Pool
}

func NewAttemptStore(pool *pgxpool.Pool) *AttemptStore {
	return &AttemptStore{pool: pool}
}

func (s *AttemptStore) RecordQuizAttempt(ctx context.Context, attempt domain.QuizAttempt) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO quiz_attempts (id, quiz_id, score, attempted_at) VALUES ($1, $2, $3, $4)`,
		attempt.ID, attempt.QuizID, attempt.Score, attempt.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert quiz attempt: %w", err)
	}
	return nil
}

// Attempts lists a quiz's attempts, newest first.
func (s *AttemptStore) Attempts(ctx context.Context, quizID string) ([]domain.QuizAttempt, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, quiz_id, score, attempted_at FROM quiz_attempts WHERE quiz_id=$1 ORDER BY attempted_at DESC`,
		quizID,
	)
	if err != nil {
		return nil, fmt.Errorf("list quiz attempts: %w", err)
	}
	defer rows.Close()

	var out []domain.QuizAttempt
	for rows.Next() {
		var a domain.QuizAttempt
		if err := rows.Scan(&a.ID, &a.QuizID, &a.Score, &a.Timestamp); err != nil {
			return nil, fmt.Errorf("scan quiz attempt: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
