package cli

import "study-engine/internal/domain"

// sampleDecks provides built-in content; swap this loader with the Postgres-backed one in production.
func sampleDecks() []domain.Deck {
	return []domain.Deck{
		{
			ID:    "capitals",
			Title: "European capitals",
			Cards: []domain.Card{
				{ID: "fr", Front: "France", Back: "Paris"},
				{ID: "de", Front: "Germany", Back: "Berlin"},
				{ID: "es", Front: "Spain", Back: "Madrid"},
				{ID: "pt", Front: "Portugal", Back: "Lisbon"},
			},
		},
	}
}

func sampleQuizzes() []domain.Quiz {
	return []domain.Quiz{
		{
			ID:    "arithmetic",
			Title: "Arithmetic warm-up",
			Questions: []domain.Question{
				{
					ID:   "q1",
					Text: "What is 2 + 2?",
					Answers: []domain.Answer{
						{Text: "3", IsCorrect: false},
						{Text: "4", IsCorrect: true},
						{Text: "5", IsCorrect: false},
					},
				},
				{
					ID:   "q2",
					Text: "Which numbers are prime?",
					Answers: []domain.Answer{
						{Text: "2", IsCorrect: true},
						{Text: "4", IsCorrect: false},
						{Text: "7", IsCorrect: true},
						{Text: "9", IsCorrect: false},
					},
				},
			},
		},
	}
}
