package session

import (
	"time"

	"study-engine/internal/domain"
)

// Event is an input to a session reducer.
type Event interface {
	isEvent()
}

type (
	// Flip toggles the displayed side of the current card.
	Flip struct{}
	// SetDialog opens or closes an edit/grading dialog; flips are ignored while open.
	SetDialog struct{ Open bool }
	// Mark grades the current card as known or unknown.
	Mark struct {
		ItemID string
		Known  bool
		At     time.Time
	}
	// Undo reverts the immediately preceding Mark.
	Undo struct{}
	// Shuffle permutes the active subset with a seeded Fisher–Yates pass.
	Shuffle struct{ Seed int64 }
	// ResetOrder restores deck order, answered items first.
	ResetOrder struct{}
	// Restart starts over with items sorted by mastery status.
	Restart struct {
		Statuses map[string]domain.MasteryStatus
	}
	// RestartWithUnknown starts a review pass over the unknown items.
	RestartWithUnknown struct{}

	// SelectAnswer picks (or toggles, for multi-correct questions) a displayed answer.
	SelectAnswer struct{ ShuffledIndex int }
	// Submit freezes the current question's selection and grades it.
	Submit struct{ At time.Time }
	// Next moves to the following question.
	Next struct{}
	// Previous moves back one question.
	Previous struct{}
	// Finish completes the quiz.
	Finish struct{}
	// RestartQuiz clears answers and regenerates shuffle maps.
	RestartQuiz struct{ Seed int64 }

	// Tick is one second of real time.
	Tick struct{}
	// ToggleTimer pauses or resumes the study timer.
	ToggleTimer struct{}
	// DismissBreak acknowledges a break reminder.
	DismissBreak struct{}
)

func (Flip) isEvent()               {}
func (SetDialog) isEvent()          {}
func (Mark) isEvent()               {}
func (Undo) isEvent()               {}
func (Shuffle) isEvent()            {}
func (ResetOrder) isEvent()         {}
func (Restart) isEvent()            {}
func (RestartWithUnknown) isEvent() {}
func (SelectAnswer) isEvent()       {}
func (Submit) isEvent()             {}
func (Next) isEvent()               {}
func (Previous) isEvent()           {}
func (Finish) isEvent()             {}
func (RestartQuiz) isEvent()        {}
func (Tick) isEvent()               {}
func (ToggleTimer) isEvent()        {}
func (DismissBreak) isEvent()       {}

// EffectKind names a side effect requested by a reducer.
type EffectKind int

const (
	// EffectRecordMastery applies one outcome to the item's mastery record.
	EffectRecordMastery EffectKind = iota + 1
	// EffectSaveSnapshot persists Effect.Snapshot immediately.
	EffectSaveSnapshot
	// EffectSaveCompleted persists the completed-and-reset snapshot.
	EffectSaveCompleted
	// EffectClearProgress persists the all-empty snapshot.
	EffectClearProgress
	// EffectRecordAttempt appends a quiz attempt with Effect.Score.
	EffectRecordAttempt
	// EffectBreakReminder surfaces a break prompt.
	EffectBreakReminder
)

func (k EffectKind) String() string {
	switch k {
	case EffectRecordMastery:
		return "record-mastery"
	case EffectSaveSnapshot:
		return "save-snapshot"
	case EffectSaveCompleted:
		return "save-completed"
	case EffectClearProgress:
		return "clear-progress"
	case EffectRecordAttempt:
		return "record-attempt"
	case EffectBreakReminder:
		return "break-reminder"
	}
	return "unknown"
}

// Effect is a side effect the caller must execute after a reduce step.
type Effect struct {
	Kind     EffectKind
	ItemID   string
	Correct  bool
	Score    int
	Snapshot domain.ProgressSnapshot
}

func reduceTimer(t Timer, completed bool, ev Event) (Timer, []Effect, bool) {
	switch ev.(type) {
	case Tick:
		next := t.Tick(completed)
		if next.CrossedBreak(t) {
			return next, []Effect{{Kind: EffectBreakReminder}}, true
		}
		return next, nil, true
	case ToggleTimer:
		return t.Toggle(), nil, true
	case DismissBreak:
		return t.DismissBreak(), nil, true
	}
	return t, nil, false
}
