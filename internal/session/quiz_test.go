package session

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"study-engine/internal/domain"
)

func multiQuestion() domain.Question {
	return domain.Question{
		ID:   "q-multi",
		Text: "Pick the primes",
		Answers: []domain.Answer{
			{Text: "2", IsCorrect: true},
			{Text: "4", IsCorrect: false},
			{Text: "5", IsCorrect: true},
		},
	}
}

func singleQuestion(id string, correct int) domain.Question {
	q := domain.Question{ID: id, Text: id}
	for i := 0; i < 3; i++ {
		q.Answers = append(q.Answers, domain.Answer{Text: string(rune('a' + i)), IsCorrect: i == correct})
	}
	return q
}

// identityQuiz starts a quiz whose shuffle maps keep original order.
func identityQuiz(questions ...domain.Question) Quiz {
	s := NewQuiz(domain.Quiz{ID: "quiz-1", Questions: questions}, 1)
	for i, q := range questions {
		s.Maps[i] = IdentityShuffleMap(len(q.Answers))
	}
	return s
}

func TestGradeIsExactSetEquality(t *testing.T) {
	q := multiQuestion()
	require.True(t, IsMultiCorrect(q))

	assert.False(t, Grade(q, []int{0}))
	assert.True(t, Grade(q, []int{0, 2}))
	assert.True(t, Grade(q, []int{2, 0}))
	assert.False(t, Grade(q, []int{0, 1, 2}))
	assert.False(t, Grade(q, nil))
}

func TestScore(t *testing.T) {
	assert.Equal(t, 67, Score(2, 3))
	assert.Equal(t, 100, Score(4, 4))
	assert.Equal(t, 0, Score(0, 5))
	assert.Equal(t, EmptyQuizScore, Score(0, 0))
}

func TestShuffleMapIsBijection(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for n := 0; n < 8; n++ {
		m := NewShuffleMap(n, rng)
		require.Equal(t, n, m.Len())
		seen := make(map[int]bool)
		for shuffled := 0; shuffled < n; shuffled++ {
			orig := m.Original(shuffled)
			assert.False(t, seen[orig])
			seen[orig] = true
			assert.Equal(t, shuffled, m.Shuffled(orig))
		}
	}
}

func TestShuffleMapsStableAcrossNavigation(t *testing.T) {
	quiz := domain.Quiz{ID: "quiz-1", Questions: []domain.Question{multiQuestion(), singleQuestion("q2", 1)}}
	s := NewQuiz(quiz, 99)
	first := s.DisplayedAnswers(0)

	s, _ = ReduceQuiz(s, Next{})
	s, _ = ReduceQuiz(s, Previous{})
	assert.Equal(t, first, s.DisplayedAnswers(0))
}

func TestSelectSingleReplacesMultiToggles(t *testing.T) {
	s := identityQuiz(singleQuestion("q1", 0), multiQuestion())

	s, _ = ReduceQuiz(s, SelectAnswer{ShuffledIndex: 1})
	s, _ = ReduceQuiz(s, SelectAnswer{ShuffledIndex: 2})
	assert.Equal(t, []int{2}, s.Pending[0])

	s, _ = ReduceQuiz(s, Next{})
	s, _ = ReduceQuiz(s, SelectAnswer{ShuffledIndex: 0})
	s, _ = ReduceQuiz(s, SelectAnswer{ShuffledIndex: 1})
	s, _ = ReduceQuiz(s, SelectAnswer{ShuffledIndex: 2})
	s, _ = ReduceQuiz(s, SelectAnswer{ShuffledIndex: 1})
	assert.Equal(t, []int{0, 2}, s.Pending[1])
}

func TestSubmitTranslatesShuffledSelection(t *testing.T) {
	quiz := domain.Quiz{ID: "quiz-1", Questions: []domain.Question{multiQuestion()}}
	s := NewQuiz(quiz, 5)
	m := s.Maps[0]

	// Select the displayed positions of original answers 0 and 2.
	s, _ = ReduceQuiz(s, SelectAnswer{ShuffledIndex: m.Shuffled(2)})
	s, _ = ReduceQuiz(s, SelectAnswer{ShuffledIndex: m.Shuffled(0)})
	s, effects := ReduceQuiz(s, Submit{At: time.Unix(10, 0)})

	require.True(t, s.Submitted(0))
	assert.Equal(t, QuizAnswer{Selected: []int{0, 2}, Correct: true}, s.Answers[0])
	assert.Equal(t, []Effect{{Kind: EffectRecordMastery, ItemID: "q-multi", Correct: true}}, effects)
	assert.Empty(t, s.Pending)
}

func TestSubmittedQuestionIsReadOnly(t *testing.T) {
	s := identityQuiz(singleQuestion("q1", 0), singleQuestion("q2", 1))
	s, _ = ReduceQuiz(s, SelectAnswer{ShuffledIndex: 1})
	s, _ = ReduceQuiz(s, Submit{})
	s, _ = ReduceQuiz(s, Next{})
	s, _ = ReduceQuiz(s, Previous{})

	frozen := s
	s, _ = ReduceQuiz(s, SelectAnswer{ShuffledIndex: 0})
	s, effects := ReduceQuiz(s, Submit{})
	assert.Nil(t, effects)
	assert.Equal(t, frozen.Answers, s.Answers)
	assert.False(t, s.Answers[0].Correct)
}

func TestUnsubmittedQuestionStaysEditableOnPrevious(t *testing.T) {
	s := identityQuiz(singleQuestion("q1", 0), singleQuestion("q2", 1))
	s, _ = ReduceQuiz(s, SelectAnswer{ShuffledIndex: 2})
	s, _ = ReduceQuiz(s, Next{})
	s, _ = ReduceQuiz(s, Previous{})
	s, _ = ReduceQuiz(s, SelectAnswer{ShuffledIndex: 0})
	assert.Equal(t, []int{0}, s.Pending[0])

	s, _ = ReduceQuiz(s, Submit{})
	assert.True(t, s.Answers[0].Correct)
}

func TestSubmitWithoutSelectionIsNoop(t *testing.T) {
	s := identityQuiz(singleQuestion("q1", 0))
	next, effects := ReduceQuiz(s, Submit{})
	assert.Nil(t, effects)
	assert.False(t, next.Submitted(0))
}

func TestFinishScoresSkippedSeparately(t *testing.T) {
	s := identityQuiz(singleQuestion("q1", 0), singleQuestion("q2", 1), singleQuestion("q3", 2))
	s, _ = ReduceQuiz(s, SelectAnswer{ShuffledIndex: 0})
	s, _ = ReduceQuiz(s, Submit{})
	s, _ = ReduceQuiz(s, Next{})
	s, _ = ReduceQuiz(s, SelectAnswer{ShuffledIndex: 1})
	s, _ = ReduceQuiz(s, Submit{})
	s, _ = ReduceQuiz(s, Next{})

	s, effects := ReduceQuiz(s, Finish{})
	require.True(t, s.Completed)
	require.Len(t, effects, 2)
	assert.Equal(t, Effect{Kind: EffectRecordAttempt, Score: 67}, effects[0])
	assert.Equal(t, EffectSaveCompleted, effects[1].Kind)

	r := s.Result()
	assert.Equal(t, 2, r.Correct)
	assert.Equal(t, 0, r.Incorrect)
	assert.Equal(t, 1, r.Skipped)
	assert.Equal(t, 67, r.Score)
	assert.Equal(t, StatusSkipped, r.Outcomes[2].Status)

	again, effects := ReduceQuiz(s, Finish{})
	assert.Nil(t, effects)
	assert.Equal(t, s, again)
}

func TestEmptyQuizUsesPlaceholderScore(t *testing.T) {
	s := NewQuiz(domain.Quiz{ID: "empty"}, 1)
	s, effects := ReduceQuiz(s, Finish{})
	assert.Equal(t, EmptyQuizScore, effects[0].Score)
	assert.Equal(t, EmptyQuizScore, s.Result().Score)
}

func TestRestartQuizClearsAnswers(t *testing.T) {
	s := identityQuiz(singleQuestion("q1", 0))
	s, _ = ReduceQuiz(s, SelectAnswer{ShuffledIndex: 0})
	s, _ = ReduceQuiz(s, Submit{})
	s, _ = ReduceQuiz(s, Finish{})

	r, effects := ReduceQuiz(s, RestartQuiz{Seed: 3})
	assert.False(t, r.Completed)
	assert.Empty(t, r.Answers)
	assert.Len(t, r.Maps, 1)
	assert.Equal(t, []Effect{{Kind: EffectClearProgress}}, effects)
}

func TestQuizSnapshotAndRestore(t *testing.T) {
	quiz := domain.Quiz{ID: "quiz-1", Questions: []domain.Question{
		singleQuestion("q1", 0), singleQuestion("q2", 1), singleQuestion("q3", 2),
	}}
	s := identityQuiz(quiz.Questions...)
	s, _ = ReduceQuiz(s, SelectAnswer{ShuffledIndex: 0})
	s, _ = ReduceQuiz(s, Submit{})
	s, _ = ReduceQuiz(s, Next{})
	s, _ = ReduceQuiz(s, SelectAnswer{ShuffledIndex: 0})
	s, _ = ReduceQuiz(s, Submit{})
	s, _ = ReduceQuiz(s, Next{})

	snap := s.Snapshot()
	assert.Equal(t, []string{"q1"}, snap.KnownCardIDs)
	assert.Equal(t, []string{"q2"}, snap.UnknownCardIDs)
	assert.Equal(t, 2, snap.CurrentCardIndex)

	r := RestoreQuiz(quiz, snap, 8)
	assert.Equal(t, 2, r.CurrentIndex)
	assert.True(t, r.Answers[0].Correct)
	assert.Equal(t, []int{0}, r.Answers[0].Selected)
	assert.False(t, r.Answers[1].Correct)
	assert.False(t, r.Submitted(2))
	assert.Equal(t, s.Result().Score, r.Result().Score)
}

func TestTimerRemindsAtEveryBoundary(t *testing.T) {
	timer := NewTimer()
	reminders := 0
	for i := 0; i < BreakIntervalSeconds*2+10; i++ {
		prev := timer
		timer = timer.Tick(false)
		if timer.CrossedBreak(prev) {
			reminders++
		}
	}
	assert.Equal(t, BreakIntervalSeconds*2+10, timer.Elapsed)
	assert.Equal(t, 2, reminders, "one reminder per boundary without dismissal")
	assert.True(t, timer.BreakDue)

	timer = timer.DismissBreak()
	assert.False(t, timer.BreakDue)
	for i := 0; i < BreakIntervalSeconds; i++ {
		prev := timer
		timer = timer.Tick(false)
		if timer.CrossedBreak(prev) {
			reminders++
		}
	}
	assert.Equal(t, 3, reminders)
}

func TestUndismissedBreakReminderRepeats(t *testing.T) {
	s := NewFlashcards(testDeck("a"))
	reminders := 0
	for i := 0; i < BreakIntervalSeconds*2; i++ {
		var effects []Effect
		s, effects = ReduceFlashcards(s, Tick{})
		for _, e := range effects {
			if e.Kind == EffectBreakReminder {
				reminders++
			}
		}
	}
	assert.Equal(t, BreakIntervalSeconds*2, s.Timer.Elapsed)
	assert.Equal(t, 2, reminders)
}

func TestPausedTimerDoesNotRemind(t *testing.T) {
	timer := NewTimer()
	for i := 0; i < BreakIntervalSeconds; i++ {
		timer = timer.Tick(false)
	}
	prev := timer
	timer = timer.Tick(true)
	assert.False(t, timer.CrossedBreak(prev), "completed session does not advance")
}

func TestTimerPausesAndStopsOnCompletion(t *testing.T) {
	timer := NewTimer().Tick(false).Tick(false)
	timer = timer.Toggle()
	timer = timer.Tick(false)
	assert.Equal(t, 2, timer.Elapsed)
	timer = timer.Toggle().Tick(false)
	assert.Equal(t, 3, timer.Elapsed)
	assert.Equal(t, 3, timer.Tick(true).Elapsed)
}

func TestTickEmitsBreakReminderEffect(t *testing.T) {
	s := NewFlashcards(testDeck("a"))
	s = tickN(s, BreakIntervalSeconds-1)
	s, effects := ReduceFlashcards(s, Tick{})
	assert.Equal(t, []Effect{{Kind: EffectBreakReminder}}, effects)
	assert.Equal(t, BreakIntervalSeconds, s.Snapshot().StudyTime)

	s, effects = ReduceFlashcards(s, Tick{})
	assert.Nil(t, effects)
	s, _ = ReduceFlashcards(s, DismissBreak{})
	assert.False(t, s.Timer.BreakDue)
}
