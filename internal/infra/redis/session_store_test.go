package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"course-quiz-service/internal/app"
	"course-quiz-service/internal/domain"
)

func TestSessionStoreRoundTrip(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewSessionStore(client, time.Minute)

	session := app.NewSession("s1", "course-1", "u1", sampleCourse().Quiz, time.Now())
	if err := store.Create(ctx, session); err != nil {
		t.Fatalf("create: %v", err)
	}
	if !mr.Exists("quiz:session:s1") {
		t.Fatalf("expected redis key to be set")
	}

	updated, err := store.Update(ctx, "s1", func(s *app.Session) error {
		return s.Select(0, "4")
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Answers[0] != "4" {
		t.Fatalf("expected answer recorded, got %q", updated.Answers[0])
	}

	loaded, err := store.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if loaded.Answers[0] != "4" || loaded.CourseID != "course-1" {
		t.Fatalf("unexpected session after reload: %+v", loaded)
	}
}

func TestSessionStoreRejectedUpdateKeepsState(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	store := NewSessionStore(newClient(mr), time.Minute)
	_ = store.Create(ctx, app.NewSession("s1", "course-1", "u1", sampleCourse().Quiz, time.Now()))

	session, err := store.Update(ctx, "s1", (*app.Session).Next)
	if !errors.Is(err, domain.ErrNoNextQuestion) {
		t.Fatalf("expected rejected transition, got %v", err)
	}
	if session.ID != "s1" || session.Index != 0 {
		t.Fatalf("expected unchanged session, got %+v", session)
	}
}

func TestSessionStoreExpires(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	store := NewSessionStore(newClient(mr), time.Minute)
	_ = store.Create(ctx, app.NewSession("s1", "course-1", "u1", sampleCourse().Quiz, time.Now()))

	mr.FastForward(2 * time.Minute)
	if _, err := store.Get(ctx, "s1"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected session not found after ttl, got %v", err)
	}
}
