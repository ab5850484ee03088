package app_test

import (
	"fmt"
	"math/rand"
	"testing"

	"course-quiz-service/internal/app"
	"course-quiz-service/internal/domain"
)

func TestSampleQuestionsSmallBankUnchanged(t *testing.T) {
	bank := makeBank(3)
	got := app.SampleQuestions(bank, 5, rand.New(rand.NewSource(1)))
	if len(got) != 3 {
		t.Fatalf("expected 3 questions, got %d", len(got))
	}
	for i := range bank {
		if got[i].ID != bank[i].ID {
			t.Fatalf("expected bank order preserved, got %s at %d", got[i].ID, i)
		}
	}

	// The caller's slice is not aliased.
	got[0].ID = "changed"
	if bank[0].ID == "changed" {
		t.Fatalf("sample must not alias the bank")
	}
}

func TestSampleQuestionsLargeBank(t *testing.T) {
	bank := makeBank(20)
	known := make(map[string]bool, len(bank))
	for _, q := range bank {
		known[q.ID] = true
	}

	for seed := int64(0); seed < 50; seed++ {
		got := app.SampleQuestions(bank, 5, rand.New(rand.NewSource(seed)))
		if len(got) != 5 {
			t.Fatalf("seed %d: expected 5 questions, got %d", seed, len(got))
		}
		seen := make(map[string]bool)
		for _, q := range got {
			if !known[q.ID] {
				t.Fatalf("seed %d: question %s not from bank", seed, q.ID)
			}
			if seen[q.ID] {
				t.Fatalf("seed %d: duplicate question %s", seed, q.ID)
			}
			seen[q.ID] = true
		}
	}
	if bank[0].ID != "q0" || bank[19].ID != "q19" {
		t.Fatalf("sampling must not reorder the bank")
	}
}

func TestSampleQuestionsReachesEveryQuestion(t *testing.T) {
	bank := makeBank(8)
	hits := make(map[string]int)
	rnd := rand.New(rand.NewSource(42))
	for i := 0; i < 2000; i++ {
		for _, q := range app.SampleQuestions(bank, 5, rnd) {
			hits[q.ID]++
		}
	}
	// Each question is expected 2000*5/8 = 1250 times.
	for _, q := range bank {
		if hits[q.ID] < 1000 || hits[q.ID] > 1500 {
			t.Fatalf("question %s drawn %d times, sampling looks biased", q.ID, hits[q.ID])
		}
	}
}

func TestSampleQuestionsDeduplicatesIDs(t *testing.T) {
	bank := append(makeBank(4), makeBank(4)...)
	got := app.SampleQuestions(bank, 5, rand.New(rand.NewSource(7)))
	if len(got) != 4 {
		t.Fatalf("expected the 4 distinct questions, got %d", len(got))
	}
}

func TestSampleQuestionsDefaultsK(t *testing.T) {
	got := app.SampleQuestions(makeBank(9), 0, rand.New(rand.NewSource(3)))
	if len(got) != app.DefaultMaxQuestions {
		t.Fatalf("expected %d questions, got %d", app.DefaultMaxQuestions, len(got))
	}
	if got := app.SampleQuestions(nil, 5, rand.New(rand.NewSource(3))); len(got) != 0 {
		t.Fatalf("expected empty quiz for empty bank, got %d", len(got))
	}
}

func makeBank(n int) []domain.Question {
	bank := make([]domain.Question, n)
	for i := range bank {
		bank[i] = domain.Question{
			ID:       fmt.Sprintf("q%d", i),
			Question: fmt.Sprintf("Question %d?", i),
			Options:  []string{"a", "b", "c"},
		}
	}
	return bank
}
