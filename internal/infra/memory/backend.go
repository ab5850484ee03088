package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"course-quiz-service/internal/domain"
)

// Backend is an in-memory stand-in for the hosted document store (useful for tests/demos).
// It implements the course, user and POAP stores and records submissions atomically.
type Backend struct {
	clock func() time.Time

	mu      sync.RWMutex
	courses map[string]domain.Course
	users   map[string]domain.User
	poaps   map[string]domain.POAP
}

func NewBackend(courses []domain.Course, poaps []domain.POAP) *Backend {
	b := &Backend{
		clock:   time.Now,
		courses: make(map[string]domain.Course, len(courses)),
		users:   make(map[string]domain.User),
		poaps:   make(map[string]domain.POAP, len(poaps)),
	}
	for _, c := range courses {
		b.courses[c.ID] = c
	}
	for _, p := range poaps {
		b.poaps[p.ID] = p
	}
	return b
}

func (b *Backend) GetCourse(_ context.Context, courseID string) (domain.Course, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	course, ok := b.courses[courseID]
	if !ok {
		return domain.Course{}, domain.ErrCourseNotFound
	}
	course.Quiz = append([]domain.Question(nil), course.Quiz...)
	course.Responses = append([]domain.Submission(nil), course.Responses...)
	return course, nil
}

// SaveCourse inserts or replaces a course's title and question bank; responses are kept.
func (b *Backend) SaveCourse(_ context.Context, course domain.Course) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	existing := b.courses[course.ID]
	course.Quiz = append([]domain.Question(nil), course.Quiz...)
	course.Responses = existing.Responses
	b.courses[course.ID] = course
	return nil
}

func (b *Backend) ListCourses(_ context.Context) ([]domain.CourseRef, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	refs := make([]domain.CourseRef, 0, len(b.courses))
	for _, c := range b.courses {
		refs = append(refs, domain.CourseRef{ID: c.ID, Title: c.Title})
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].ID < refs[j].ID })
	return refs, nil
}

func (b *Backend) AppendResponse(_ context.Context, courseID string, submission domain.Submission) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.appendResponseLocked(courseID, submission)
}

func (b *Backend) GetUser(_ context.Context, userID string) (domain.User, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	user, ok := b.users[userID]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	user.CoursesCompleted = append([]string(nil), user.CoursesCompleted...)
	return user, nil
}

func (b *Backend) AddCompletedCourse(_ context.Context, userID, courseID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.addCompletedLocked(userID, courseID)
	return nil
}

// RecordSubmission writes the response and the completion under one lock.
func (b *Backend) RecordSubmission(_ context.Context, courseID string, submission domain.Submission) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.appendResponseLocked(courseID, submission); err != nil {
		return err
	}
	b.addCompletedLocked(submission.User, courseID)
	return nil
}

func (b *Backend) ListPOAPs(_ context.Context) ([]domain.POAP, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	poaps := make([]domain.POAP, 0, len(b.poaps))
	for _, p := range b.poaps {
		poaps = append(poaps, p)
	}
	sort.Slice(poaps, func(i, j int) bool {
		if !poaps[i].CreatedAt.Equal(poaps[j].CreatedAt) {
			return poaps[i].CreatedAt.Before(poaps[j].CreatedAt)
		}
		return poaps[i].ID < poaps[j].ID
	})
	return poaps, nil
}

func (b *Backend) CreatePOAP(_ context.Context, poap domain.POAP) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.poaps[poap.ID] = poap
	return nil
}

func (b *Backend) AssignCourse(_ context.Context, poapID, courseID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	poap, ok := b.poaps[poapID]
	if !ok {
		return domain.ErrPOAPNotFound
	}
	poap.CourseID = courseID
	poap.UpdatedAt = b.clock().UTC()
	b.poaps[poapID] = poap
	return nil
}

func (b *Backend) appendResponseLocked(courseID string, submission domain.Submission) error {
	course, ok := b.courses[courseID]
	if !ok {
		return domain.ErrCourseNotFound
	}
	for _, existing := range course.Responses {
		if existing.ID == submission.ID {
			return nil
		}
	}
	course.Responses = append(append([]domain.Submission(nil), course.Responses...), submission)
	b.courses[courseID] = course
	return nil
}

func (b *Backend) addCompletedLocked(userID, courseID string) {
	user := b.users[userID]
	user.ID = userID
	for _, id := range user.CoursesCompleted {
		if id == courseID {
			return
		}
	}
	user.CoursesCompleted = append(append([]string(nil), user.CoursesCompleted...), courseID)
	b.users[userID] = user
}
