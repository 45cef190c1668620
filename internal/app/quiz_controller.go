package app

import (
	"context"
	"log"
	"sync"

	"study-engine/internal/domain"
	"study-engine/internal/session"
)

// QuizController is the quiz counterpart of DeckController.
type QuizController struct {
	runner

	mu    sync.Mutex
	state session.Quiz
}

func (c *QuizController) State() session.Quiz {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Dispatch applies an event and runs its effects.
func (c *QuizController) Dispatch(ctx context.Context, ev session.Event) (session.Quiz, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.applyLocked(ctx, ev)
}

func (c *QuizController) applyLocked(ctx context.Context, ev session.Event) (session.Quiz, error) {
	if c.closed {
		return c.state, domain.ErrSessionClosed
	}
	next, effects := session.ReduceQuiz(c.state, ev)
	c.state = next
	return next, c.execute(ctx, effects)
}

// Select picks an answer by its displayed position.
func (c *QuizController) Select(ctx context.Context, shuffledIndex int) (session.Quiz, error) {
	return c.Dispatch(ctx, session.SelectAnswer{ShuffledIndex: shuffledIndex})
}

// Submit grades and freezes the current question.
func (c *QuizController) Submit(ctx context.Context) (session.Quiz, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Completed || c.state.Submitted(c.state.CurrentIndex) || len(c.state.Pending[c.state.CurrentIndex]) == 0 {
		log.Printf("session %s: submit ignored: %v", c.id, domain.ErrInvalidState)
		return c.state, nil
	}
	return c.applyLocked(ctx, session.Submit{At: c.svc.cfg.Clock()})
}

func (c *QuizController) Next(ctx context.Context) (session.Quiz, error) {
	return c.Dispatch(ctx, session.Next{})
}

func (c *QuizController) Previous(ctx context.Context) (session.Quiz, error) {
	return c.Dispatch(ctx, session.Previous{})
}

// Finish completes the quiz, records the attempt and returns the result.
func (c *QuizController) Finish(ctx context.Context) (session.QuizResult, error) {
	s, err := c.Dispatch(ctx, session.Finish{})
	return s.Result(), err
}

// Restart clears every answer and draws new answer orders.
func (c *QuizController) Restart(ctx context.Context) (session.Quiz, error) {
	return c.Dispatch(ctx, session.RestartQuiz{Seed: c.svc.cfg.Seed()})
}

func (c *QuizController) ToggleTimer(ctx context.Context) (session.Quiz, error) {
	return c.Dispatch(ctx, session.ToggleTimer{})
}

func (c *QuizController) DismissBreak(ctx context.Context) (session.Quiz, error) {
	return c.Dispatch(ctx, session.DismissBreak{})
}

func (c *QuizController) Result() session.QuizResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Result()
}

func (c *QuizController) autosave() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	ctx, cancel := c.backgroundContext()
	defer cancel()
	_ = c.saveLocked(ctx, c.state.Completed, c.state.Snapshot())
}

func (c *QuizController) tick() {
	c.mu.Lock()
	defer c.mu.Unlock()
	ctx, cancel := c.backgroundContext()
	defer cancel()
	_, _ = c.applyLocked(ctx, session.Tick{})
}

// Close cancels the background tasks and issues a final save. A failed save
// is logged and swallowed. Close is idempotent.
func (c *QuizController) Close(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.cancelTasks()
	_ = c.saveLocked(ctx, c.state.Completed, c.state.Snapshot())
	c.notices.closeAll()
	log.Printf("session %s ended for %s", c.id, c.key)
}
