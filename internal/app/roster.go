package app

import (
	"context"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"course-quiz-service/internal/domain"
)

// POAPStore is the backend's POAP collection.
type POAPStore interface {
	ListPOAPs(ctx context.Context) ([]domain.POAP, error)
	CreatePOAP(ctx context.Context, poap domain.POAP) error
	AssignCourse(ctx context.Context, poapID, courseID string) error
}

// RosterService backs the POAP admin list.
type RosterService struct {
	poaps    POAPStore
	courses  CourseStore
	validate *validator.Validate
	now      func() time.Time
}

func NewRosterService(poaps POAPStore, courses CourseStore) *RosterService {
	return &RosterService{
		poaps:    poaps,
		courses:  courses,
		validate: validator.New(),
		now:      time.Now,
	}
}

// List returns every POAP joined with its assigned course.
// A course reference that no longer resolves is logged and shown as unassigned.
func (s *RosterService) List(ctx context.Context) ([]domain.RosterEntry, error) {
	poaps, err := s.poaps.ListPOAPs(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list poaps")
	}

	titles := make(map[string]*domain.CourseRef)
	entries := make([]domain.RosterEntry, 0, len(poaps))
	for _, poap := range poaps {
		entry := domain.RosterEntry{POAP: poap, Remaining: len(poap.MintLinks)}
		if poap.CourseID != "" {
			ref, ok := titles[poap.CourseID]
			if !ok {
				ref = s.resolve(ctx, poap.CourseID)
				titles[poap.CourseID] = ref
			}
			entry.Course = ref
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (s *RosterService) resolve(ctx context.Context, courseID string) *domain.CourseRef {
	course, err := s.courses.GetCourse(ctx, courseID)
	if err != nil {
		log.Printf("resolve course %s: %v", courseID, err)
		return nil
	}
	return &domain.CourseRef{ID: course.ID, Title: course.Title}
}

// Courses lists the assignable courses.
func (s *RosterService) Courses(ctx context.Context) ([]domain.CourseRef, error) {
	refs, err := s.courses.ListCourses(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list courses")
	}
	return refs, nil
}

// Reassign points a POAP at a course and returns the re-fetched roster.
func (s *RosterService) Reassign(ctx context.Context, poapID, courseID string) ([]domain.RosterEntry, error) {
	if poapID == "" || courseID == "" {
		return nil, errors.Wrap(domain.ErrInvalidInput, "poap and course are required")
	}
	if _, err := s.courses.GetCourse(ctx, courseID); err != nil {
		return nil, err
	}
	if err := s.poaps.AssignCourse(ctx, poapID, courseID); err != nil {
		log.Printf("assign course %s to poap %s: %v", courseID, poapID, err)
		return nil, err
	}
	log.Printf("assigned course %s to poap %s", courseID, poapID)
	return s.List(ctx)
}

// Import validates and stores a new POAP.
func (s *RosterService) Import(ctx context.Context, poap domain.POAP) (domain.POAP, error) {
	if err := s.validate.Struct(poap); err != nil {
		return domain.POAP{}, errors.Wrap(domain.ErrInvalidInput, err.Error())
	}
	if poap.CourseID != "" {
		if _, err := s.courses.GetCourse(ctx, poap.CourseID); err != nil {
			return domain.POAP{}, err
		}
	}
	now := s.now().UTC()
	poap.ID = uuid.NewString()
	poap.CreatedAt = now
	poap.UpdatedAt = now
	if poap.MintLinks == nil {
		poap.MintLinks = []string{}
	}
	if err := s.poaps.CreatePOAP(ctx, poap); err != nil {
		return domain.POAP{}, errors.Wrap(err, "create poap")
	}
	return poap, nil
}
