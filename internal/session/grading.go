package session

import (
	"math"

	"study-engine/internal/domain"
)

// EmptyQuizScore is shown for a quiz with no questions instead of a ratio.
const EmptyQuizScore = 0

// IsMultiCorrect reports whether a question has more than one correct answer.
func IsMultiCorrect(q domain.Question) bool {
	return q.MultiCorrect()
}

// Grade is exact-set equality between the selected original indices and the
// correct ones. Partial overlap is incorrect.
func Grade(q domain.Question, selectedOriginal []int) bool {
	want := make(map[int]bool)
	for _, i := range q.CorrectIndices() {
		want[i] = true
	}
	got := make(map[int]bool, len(selectedOriginal))
	for _, i := range selectedOriginal {
		got[i] = true
	}
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if !want[i] {
			return false
		}
	}
	return true
}

// Score is round(correct/total*100), or EmptyQuizScore when total is zero.
func Score(correct, total int) int {
	if total == 0 {
		return EmptyQuizScore
	}
	return int(math.Round(float64(correct) / float64(total) * 100))
}
