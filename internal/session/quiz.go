package session

import (
	"maps"
	"math/rand"
	"slices"

	"study-engine/internal/domain"
)

// QuizAnswer is a submitted, frozen answer in original answer indices.
type QuizAnswer struct {
	Selected []int
	Correct  bool
}

// Quiz is the in-memory state of one quiz attempt.
type Quiz struct {
	QuizID       string
	Questions    []domain.Question
	Maps         []ShuffleMap
	CurrentIndex int
	// Pending holds displayed (shuffled) indices selected but not yet submitted.
	Pending map[int][]int
	// Answers holds submitted questions keyed by question index.
	Answers   map[int]QuizAnswer
	History   []domain.HistoryEntry
	Timer     Timer
	Completed bool
}

// NewQuiz starts a quiz with one shuffle map per question drawn from seed.
func NewQuiz(quiz domain.Quiz, seed int64) Quiz {
	return Quiz{
		QuizID:    quiz.ID,
		Questions: quiz.Questions,
		Maps:      buildMaps(quiz.Questions, seed),
		Pending:   make(map[int][]int),
		Answers:   make(map[int]QuizAnswer),
		Timer:     NewTimer(),
	}
}

func buildMaps(questions []domain.Question, seed int64) []ShuffleMap {
	rng := rand.New(rand.NewSource(seed))
	out := make([]ShuffleMap, len(questions))
	for i, q := range questions {
		out[i] = NewShuffleMap(len(q.Answers), rng)
	}
	return out
}

// Current returns the question at CurrentIndex.
func (s Quiz) Current() (domain.Question, bool) {
	if s.CurrentIndex < 0 || s.CurrentIndex >= len(s.Questions) {
		return domain.Question{}, false
	}
	return s.Questions[s.CurrentIndex], true
}

// DisplayedAnswers returns a question's answers in their shuffled order.
func (s Quiz) DisplayedAnswers(i int) []domain.Answer {
	q := s.Questions[i]
	out := make([]domain.Answer, len(q.Answers))
	for shuffled := range out {
		out[shuffled] = q.Answers[s.Maps[i].Original(shuffled)]
	}
	return out
}

// Submitted reports whether question i is frozen.
func (s Quiz) Submitted(i int) bool {
	_, ok := s.Answers[i]
	return ok
}

// ReduceQuiz applies one event to a quiz session. The input is not modified.
func ReduceQuiz(s Quiz, ev Event) (Quiz, []Effect) {
	switch e := ev.(type) {
	case SelectAnswer:
		return s.selectAnswer(e.ShuffledIndex), nil
	case Submit:
		return s.submit(e)
	case Next:
		if s.CurrentIndex < len(s.Questions)-1 {
			s.CurrentIndex++
		}
		return s, nil
	case Previous:
		if s.CurrentIndex > 0 {
			s.CurrentIndex--
		}
		return s, nil
	case Finish:
		return s.finish()
	case RestartQuiz:
		next := Quiz{
			QuizID:    s.QuizID,
			Questions: s.Questions,
			Maps:      buildMaps(s.Questions, e.Seed),
			Pending:   make(map[int][]int),
			Answers:   make(map[int]QuizAnswer),
			Timer:     NewTimer(),
		}
		return next, []Effect{{Kind: EffectClearProgress}}
	}
	if t, effects, ok := reduceTimer(s.Timer, s.Completed, ev); ok {
		s.Timer = t
		return s, effects
	}
	return s, nil
}

func (s Quiz) clone() Quiz {
	c := s
	c.Pending = maps.Clone(s.Pending)
	c.Answers = maps.Clone(s.Answers)
	c.History = slices.Clone(s.History)
	if c.Pending == nil {
		c.Pending = make(map[int][]int)
	}
	if c.Answers == nil {
		c.Answers = make(map[int]QuizAnswer)
	}
	return c
}

// selectAnswer replaces the selection on single-answer questions and toggles
// membership on multi-correct ones. Submitted questions are read-only.
func (s Quiz) selectAnswer(shuffled int) Quiz {
	q, ok := s.Current()
	if s.Completed || !ok || s.Submitted(s.CurrentIndex) || shuffled < 0 || shuffled >= len(q.Answers) {
		return s
	}
	next := s.clone()
	if !q.MultiCorrect() {
		next.Pending[s.CurrentIndex] = []int{shuffled}
		return next
	}
	sel := slices.Clone(next.Pending[s.CurrentIndex])
	if i := slices.Index(sel, shuffled); i >= 0 {
		sel = slices.Delete(sel, i, i+1)
	} else {
		sel = append(sel, shuffled)
	}
	next.Pending[s.CurrentIndex] = sel
	return next
}

func (s Quiz) submit(e Submit) (Quiz, []Effect) {
	q, ok := s.Current()
	pending := s.Pending[s.CurrentIndex]
	if s.Completed || !ok || s.Submitted(s.CurrentIndex) || len(pending) == 0 {
		return s, nil
	}
	original := make([]int, 0, len(pending))
	for _, shuffled := range pending {
		original = append(original, s.Maps[s.CurrentIndex].Original(shuffled))
	}
	slices.Sort(original)
	correct := Grade(q, original)

	next := s.clone()
	delete(next.Pending, s.CurrentIndex)
	next.Answers[s.CurrentIndex] = QuizAnswer{Selected: original, Correct: correct}
	outcome := domain.OutcomeIncorrect
	if correct {
		outcome = domain.OutcomeCorrect
	}
	next.History = append(next.History, domain.HistoryEntry{ItemID: q.ID, Outcome: outcome, At: e.At})
	return next, []Effect{{Kind: EffectRecordMastery, ItemID: q.ID, Correct: correct}}
}

func (s Quiz) finish() (Quiz, []Effect) {
	if s.Completed {
		return s, nil
	}
	next := s.clone()
	next.Completed = true
	return next, []Effect{
		{Kind: EffectRecordAttempt, Score: next.Result().Score},
		{Kind: EffectSaveCompleted},
	}
}

// QuestionStatus is a question's grade in a result.
type QuestionStatus string

const (
	StatusCorrect   QuestionStatus = "correct"
	StatusIncorrect QuestionStatus = "incorrect"
	StatusSkipped   QuestionStatus = "skipped"
)

// QuestionOutcome pairs a question with its grade.
type QuestionOutcome struct {
	QuestionID string
	Status     QuestionStatus
	Selected   []int
}

// QuizResult is the score summary; skipped questions are not counted as incorrect.
type QuizResult struct {
	Total     int
	Correct   int
	Incorrect int
	Skipped   int
	Score     int
	Outcomes  []QuestionOutcome
}

func (s Quiz) Result() QuizResult {
	r := QuizResult{Total: len(s.Questions)}
	for i, q := range s.Questions {
		o := QuestionOutcome{QuestionID: q.ID, Status: StatusSkipped}
		if a, ok := s.Answers[i]; ok {
			o.Selected = a.Selected
			if a.Correct {
				o.Status = StatusCorrect
				r.Correct++
			} else {
				o.Status = StatusIncorrect
				r.Incorrect++
			}
		} else {
			r.Skipped++
		}
		r.Outcomes = append(r.Outcomes, o)
	}
	r.Score = Score(r.Correct, r.Total)
	return r
}

// Snapshot projects the quiz onto the progress schema: correctly answered
// question ids are "known", incorrectly answered ones "unknown".
func (s Quiz) Snapshot() domain.ProgressSnapshot {
	snap := domain.ProgressSnapshot{
		CurrentCardIndex: s.CurrentIndex,
		KnownCardIDs:     []string{},
		UnknownCardIDs:   []string{},
		LastPosition:     s.CurrentIndex,
		StudyTime:        s.Timer.Elapsed,
		IsCompleted:      s.Completed,
		ReviewingCardIDs: []string{},
	}
	for i, q := range s.Questions {
		a, ok := s.Answers[i]
		switch {
		case !ok:
			// skipped
		case a.Correct:
			snap.KnownCardIDs = append(snap.KnownCardIDs, q.ID)
		default:
			snap.UnknownCardIDs = append(snap.UnknownCardIDs, q.ID)
		}
	}
	return snap
}

// RestoreQuiz rebuilds a quiz from a snapshot. Correct answers are restored
// with their correct selection; the original selection of incorrect answers is
// not stored, so they come back graded with an empty selection.
func RestoreQuiz(quiz domain.Quiz, snap domain.ProgressSnapshot, seed int64) Quiz {
	s := NewQuiz(quiz, seed)
	s.Timer.Elapsed = snap.StudyTime
	known := toSet(snap.KnownCardIDs)
	unknown := toSet(snap.UnknownCardIDs)
	for i, q := range quiz.Questions {
		switch {
		case known[q.ID]:
			s.Answers[i] = QuizAnswer{Selected: q.CorrectIndices(), Correct: true}
			s.History = append(s.History, domain.HistoryEntry{ItemID: q.ID, Outcome: domain.OutcomeCorrect})
		case unknown[q.ID]:
			s.Answers[i] = QuizAnswer{Correct: false}
			s.History = append(s.History, domain.HistoryEntry{ItemID: q.ID, Outcome: domain.OutcomeIncorrect})
		}
	}
	if snap.IsCompleted && !snap.IsReviewMode {
		s.Completed = true
	}
	s.CurrentIndex = clamp(snap.CurrentCardIndex, 0, len(s.Questions)-1)
	return s
}
