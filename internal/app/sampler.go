package app

import (
	"math/rand"

	"course-quiz-service/internal/domain"
)

// DefaultMaxQuestions bounds how many questions a quiz attempt shows.
const DefaultMaxQuestions = 5

// SampleQuestions derives a quiz from a question bank.
// Banks of at most k questions are returned unchanged and in order. Larger banks yield k
// questions with distinct IDs, chosen uniformly at random by a partial Fisher-Yates shuffle.
func SampleQuestions(bank []domain.Question, k int, rnd *rand.Rand) []domain.Question {
	if k <= 0 {
		k = DefaultMaxQuestions
	}
	if len(bank) <= k {
		out := make([]domain.Question, len(bank))
		copy(out, bank)
		return out
	}

	pool := distinctByID(bank)
	if len(pool) <= k {
		return pool
	}

	// Only the first k slots are settled; the tail is never touched again.
	for i := 0; i < k; i++ {
		j := i + rnd.Intn(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:k:k]
}

// distinctByID copies bank keeping the first occurrence of every question ID.
func distinctByID(bank []domain.Question) []domain.Question {
	seen := make(map[string]struct{}, len(bank))
	out := make([]domain.Question, 0, len(bank))
	for _, q := range bank {
		if _, ok := seen[q.ID]; ok {
			continue
		}
		seen[q.ID] = struct{}{}
		out = append(out, q)
	}
	return out
}
