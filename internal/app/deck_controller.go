package app

import (
	"context"
	"log"
	"sync"

	"study-engine/internal/domain"
	"study-engine/internal/mastery"
	"study-engine/internal/session"
)

// DeckController serializes user actions and scheduled callbacks on one
// flashcard session and executes the effects the reducer returns.
type DeckController struct {
	runner

	mu    sync.Mutex
	deck  domain.Deck
	state session.Flashcards
}

// State returns the current session state.
func (c *DeckController) State() session.Flashcards {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Current returns the card at the current index.
func (c *DeckController) Current() (domain.Card, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id, ok := c.state.Current()
	if !ok {
		return domain.Card{}, false
	}
	return c.deck.Card(id)
}

// Dispatch applies an event and runs its effects. The new state is kept even
// when a save effect fails; the error reports that failure.
func (c *DeckController) Dispatch(ctx context.Context, ev session.Event) (session.Flashcards, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.applyLocked(ctx, ev)
}

func (c *DeckController) applyLocked(ctx context.Context, ev session.Event) (session.Flashcards, error) {
	if c.closed {
		return c.state, domain.ErrSessionClosed
	}
	next, effects := session.ReduceFlashcards(c.state, ev)
	c.state = next
	return next, c.execute(ctx, effects)
}

func (c *DeckController) Flip(ctx context.Context) (session.Flashcards, error) {
	return c.Dispatch(ctx, session.Flip{})
}

// Mark grades the current card.
func (c *DeckController) Mark(ctx context.Context, known bool) (session.Flashcards, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id, ok := c.state.Current()
	if !ok || c.state.Completed {
		log.Printf("session %s: mark ignored: %v", c.id, domain.ErrInvalidState)
		return c.state, nil
	}
	return c.applyLocked(ctx, session.Mark{ItemID: id, Known: known, At: c.svc.cfg.Clock()})
}

func (c *DeckController) Undo(ctx context.Context) (session.Flashcards, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.state.CanUndo() {
		log.Printf("session %s: undo ignored: %v", c.id, domain.ErrInvalidState)
		return c.state, nil
	}
	return c.applyLocked(ctx, session.Undo{})
}

func (c *DeckController) Shuffle(ctx context.Context) (session.Flashcards, error) {
	return c.Dispatch(ctx, session.Shuffle{Seed: c.svc.cfg.Seed()})
}

func (c *DeckController) ResetOrder(ctx context.Context) (session.Flashcards, error) {
	return c.Dispatch(ctx, session.ResetOrder{})
}

// Restart starts the deck over, weakest cards first.
func (c *DeckController) Restart(ctx context.Context) (session.Flashcards, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, err := c.svc.deps.Mastery.Load(ctx, c.key)
	if err != nil {
		log.Printf("session %s: load mastery for restart: %v", c.id, err)
		m = domain.MasteryMap{}
	}
	return c.applyLocked(ctx, session.Restart{Statuses: mastery.Statuses(m, c.state.Order)})
}

// RestartWithUnknown starts a review pass over the cards marked unknown.
func (c *DeckController) RestartWithUnknown(ctx context.Context) (session.Flashcards, error) {
	return c.Dispatch(ctx, session.RestartWithUnknown{})
}

func (c *DeckController) ToggleTimer(ctx context.Context) (session.Flashcards, error) {
	return c.Dispatch(ctx, session.ToggleTimer{})
}

func (c *DeckController) DismissBreak(ctx context.Context) (session.Flashcards, error) {
	return c.Dispatch(ctx, session.DismissBreak{})
}

// Speak reads the visible side of the current card.
func (c *DeckController) Speak(ctx context.Context) error {
	c.mu.Lock()
	id, ok := c.state.Current()
	flipped := c.state.Flipped
	c.mu.Unlock()
	if !ok {
		return domain.ErrInvalidState
	}
	card, ok := c.deck.Card(id)
	if !ok {
		return domain.ErrInvalidState
	}
	text := card.Front
	if flipped {
		text = card.Back
	}
	return c.svc.deps.Speaker.Speak(ctx, text)
}

func (c *DeckController) Summary() session.FlashcardSummary {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Summary()
}

func (c *DeckController) autosave() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	ctx, cancel := c.backgroundContext()
	defer cancel()
	_ = c.saveLocked(ctx, c.state.Completed, c.state.Snapshot())
}

func (c *DeckController) tick() {
	c.mu.Lock()
	defer c.mu.Unlock()
	ctx, cancel := c.backgroundContext()
	defer cancel()
	_, _ = c.applyLocked(ctx, session.Tick{})
}

// Close cancels the background tasks and issues a final save. A failed save
// is logged and swallowed. Close is idempotent.
func (c *DeckController) Close(ctx context.Context) {
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
