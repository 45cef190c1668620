package domain

import "time"

// Card is a single flashcard. Content is immutable and owned by its deck.
type Card struct {
	ID    string `json:"id"`
	Front string `json:"front"`
	Back  string `json:"back"`
}

// Deck is an ordered collection of cards.
type Deck struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Cards []Card `json:"cards"`
}

// CardIDs returns the card ids in deck order.
func (d Deck) CardIDs() []string {
	ids := make([]string, 0, len(d.Cards))
	for _, c := range d.Cards {
		ids = append(ids, c.ID)
	}
	return ids
}

// Card looks up a card by id.
func (d Deck) Card(id string) (Card, bool) {
	for _, c := range d.Cards {
		if c.ID == id {
			return c, true
		}
	}
	return Card{}, false
}

// Answer is one option of a multiple-choice question.
type Answer struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"isCorrect"`
}

// Question models an MCQ question with one or more correct answers.
type Question struct {
	ID      string   `json:"id"`
	Text    string   `json:"text"`
	Answers []Answer `json:"answers"`
}

// CorrectIndices returns the original indices of the correct answers, ascending.
func (q Question) CorrectIndices() []int {
	var out []int
	for i, a := range q.Answers {
		if a.IsCorrect {
			out = append(out, i)
		}
	}
	return out
}

// MultiCorrect reports whether more than one answer is flagged correct.
func (q Question) MultiCorrect() bool {
	return len(q.CorrectIndices()) > 1
}

// Quiz is a collection of questions.
type Quiz struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`
}

// MasteryRecord is the per-item classification tracked across sessions.
type MasteryRecord struct {
	CardID       string        `json:"cardId"`
	Status       MasteryStatus `json:"status"`
	ReviewCount  int           `json:"reviewCount"`
	LastReviewed time.Time     `json:"lastReviewed"`
}

// MasteryMap is the whole per-deck document kept in the device-local store.
type MasteryMap map[string]MasteryRecord

// Outcome is the graded result of a single item in a session.
type Outcome string

const (
	OutcomeKnown     Outcome = "known"
	OutcomeUnknown   Outcome = "unknown"
	OutcomeCorrect   Outcome = "correct"
	OutcomeIncorrect Outcome = "incorrect"
)

// HistoryEntry records one graded event in session order.
type HistoryEntry struct {
	ItemID  string    `json:"itemId"`
	Outcome Outcome   `json:"outcome"`
	At      time.Time `json:"at"`
}

// ProgressSnapshot is the persisted projection of a session.
type ProgressSnapshot struct {
	CurrentCardIndex int      `json:"currentCardIndex"`
	KnownCardIDs     []string `json:"knownCardIds"`
	UnknownCardIDs   []string `json:"unknownCardIds"`
	LastPosition     int      `json:"lastPosition"`
	StudyTime        int      `json:"studyTime"`
	IsReviewMode     bool     `json:"isReviewMode"`
	IsCompleted      bool     `json:"isCompleted"`
	ReviewingCardIDs []string `json:"reviewingCardIds"`
}

// EmptySnapshot is written when progress is cleared.
func EmptySnapshot() ProgressSnapshot {
	return ProgressSnapshot{
		KnownCardIDs:     []string{},
		UnknownCardIDs:   []string{},
		ReviewingCardIDs: []string{},
	}
}

// CompletedSnapshot is the "completed and reset" snapshot written when a session finishes.
func CompletedSnapshot() ProgressSnapshot {
	s := EmptySnapshot()
	s.IsCompleted = true
	return s
}

// ProgressDocument is what the remote store keeps for a deck or quiz.
type ProgressDocument struct {
	LastStudied   time.Time        `json:"lastStudied"`
	StudyProgress ProgressSnapshot `json:"studyProgress"`
}

// QuizAttempt is an append-only record produced on quiz completion.
type QuizAttempt struct {
	ID        string    `json:"id"`
	QuizID    string    `json:"quizId"`
	Score     int       `json:"score"`
	Timestamp time.Time `json:"timestamp"`
}
