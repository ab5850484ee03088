package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"course-quiz-service/internal/app"
	"course-quiz-service/internal/domain"
)

func TestSessionStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore(time.Minute)

	session := app.NewSession("s1", "course-1", "u1", sampleCourse().Quiz, time.Now())
	if err := store.Create(ctx, session); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := store.Get(ctx, "s1"); err != nil {
		t.Fatalf("expected session present: %v", err)
	}

	updated, err := store.Update(ctx, "s1", func(s *app.Session) error {
		return s.Select(0, "4")
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Answers[0] != "4" {
		t.Fatalf("expected answer stored, got %q", updated.Answers[0])
	}

	// A rejected transition leaves the stored session untouched.
	rejected, err := store.Update(ctx, "s1", func(s *app.Session) error {
		s.Answers[0] = "tampered"
		return domain.ErrNoNextQuestion
	})
	if !errors.Is(err, domain.ErrNoNextQuestion) {
		t.Fatalf("expected rejection, got %v", err)
	}
	if rejected.Answers[0] != "4" {
		t.Fatalf("expected unchanged session, got %q", rejected.Answers[0])
	}
}

func TestSessionStoreExpires(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore(time.Minute)
	now := time.Now()
	store.clock = func() time.Time { return now }

	_ = store.Create(ctx, app.NewSession("s1", "course-1", "u1", sampleCourse().Quiz, now))
	now = now.Add(2 * time.Minute)

	if _, err := store.Get(ctx, "s1"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected expired session, got %v", err)
	}
	if store.Len() != 0 {
		t.Fatalf("expected store empty after expiry")
	}
}
