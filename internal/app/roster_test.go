package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"course-quiz-service/internal/app"
	"course-quiz-service/internal/domain"
	"course-quiz-service/internal/infra/memory"
)

func TestRosterList(t *testing.T) {
	ctx := context.Background()
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	backend := memory.NewBackend([]domain.Course{sampleCourse()}, []domain.POAP{
		{ID: "p1", Name: "Assigned", MintLinks: []string{"https://poap.xyz/a", "https://poap.xyz/b"}, CourseID: "course-1", CreatedAt: created},
		{ID: "p2", Name: "Dangling", CourseID: "deleted-course", CreatedAt: created.Add(time.Minute)},
		{ID: "p3", Name: "Unassigned", CreatedAt: created.Add(2 * time.Minute)},
	})
	roster := app.NewRosterService(backend, backend)

	entries, err := roster.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].Course == nil || entries[0].Course.Title != "Intro to Arithmetic" || entries[0].Remaining != 2 {
		t.Fatalf("unexpected assigned entry %+v", entries[0])
	}
	if entries[1].Course != nil || entries[2].Course != nil {
		t.Fatalf("expected dangling and unassigned POAPs without a course, got %+v / %+v", entries[1].Course, entries[2].Course)
	}
}

func TestRosterReassign(t *testing.T) {
	ctx := context.Background()
	backend := memory.NewBackend([]domain.Course{sampleCourse()}, []domain.POAP{{ID: "p1", Name: "Badge"}})
	roster := app.NewRosterService(backend, backend)

	if _, err := roster.Reassign(ctx, "p1", "missing"); err != domain.ErrCourseNotFound {
		t.Fatalf("expected course not found, got %v", err)
	}
	if _, err := roster.Reassign(ctx, "missing", "course-1"); err != domain.ErrPOAPNotFound {
		t.Fatalf("expected poap not found, got %v", err)
	}
	if _, err := roster.Reassign(ctx, "", "course-1"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}

	entries, err := roster.Reassign(ctx, "p1", "course-1")
	if err != nil {
		t.Fatalf("reassign: %v", err)
	}
	if len(entries) != 1 || entries[0].Course == nil || entries[0].Course.ID != "course-1" {
		t.Fatalf("expected refreshed roster with course-1, got %+v", entries)
	}
}

func TestRosterImport(t *testing.T) {
	ctx := context.Background()
	backend := memory.NewBackend([]domain.Course{sampleCourse()}, nil)
	roster := app.NewRosterService(backend, backend)

	if _, err := roster.Import(ctx, domain.POAP{Name: "Bad", Image: "not a url"}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if _, err := roster.Import(ctx, domain.POAP{Name: "Orphan", Image: "https://example.com/x.png", CourseID: "missing"}); err != domain.ErrCourseNotFound {
		t.Fatalf("expected course not found, got %v", err)
	}

	poap, err := roster.Import(ctx, domain.POAP{Name: "Badge", Image: "https://example.com/x.png", CourseID: "course-1"})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if poap.ID == "" || poap.CreatedAt.IsZero() || poap.MintLinks == nil {
		t.Fatalf("expected id, timestamps and empty mint links, got %+v", poap)
	}
	entries, _ := roster.List(ctx)
	if len(entries) != 1 || entries[0].Remaining != 0 {
		t.Fatalf("unexpected roster %+v", entries)
	}
}
