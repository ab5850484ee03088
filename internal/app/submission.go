package app

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"course-quiz-service/internal/domain"
)

// CourseStore is the backend's Course collection.
type CourseStore interface {
	GetCourse(ctx context.Context, courseID string) (domain.Course, error)
	ListCourses(ctx context.Context) ([]domain.CourseRef, error)
	// AppendResponse adds the submission to the course's responses unless one with its ID is present.
	AppendResponse(ctx context.Context, courseID string, submission domain.Submission) error
}

// UserStore is the backend's user entity.
type UserStore interface {
	GetUser(ctx context.Context, userID string) (domain.User, error)
	// AddCompletedCourse adds courseID to the user's completed courses unless already present.
	AddCompletedCourse(ctx context.Context, userID, courseID string) error
}

// SubmissionRecorder is implemented by backends that can write the course response and the
// user's completion in a single transaction.
type SubmissionRecorder interface {
	RecordSubmission(ctx context.Context, courseID string, submission domain.Submission) error
}

// SubmissionMode selects how the two submission writes are performed.
type SubmissionMode string

const (
	// ModeBestEffort writes the course then the user, with no rollback if the second write fails.
	ModeBestEffort SubmissionMode = "best-effort"
	// ModeTransactional writes both in one backend transaction when the backend supports it.
	ModeTransactional SubmissionMode = "transactional"
)

// timestampLayout is the UTC string form stored on submission records.
const timestampLayout = "Mon, 02 Jan 2006 15:04:05 GMT"

// submissionNamespace scopes name-based submission IDs.
var submissionNamespace = uuid.MustParse("6f1c1f4e-2b7d-4c51-9d0a-5be3c8f0a7e2")

// SubmissionID is the record ID written for an attempt. The same attempt always maps to the same
// ID, so a replayed or concurrent submit of one attempt cannot add a second record.
func SubmissionID(attemptID string) string {
	return uuid.NewSHA1(submissionNamespace, []byte(attemptID)).String()
}

// SubmissionWriter persists quiz attempts.
type SubmissionWriter struct {
	courses  CourseStore
	users    UserStore
	recorder SubmissionRecorder
	now      func() time.Time
}

func NewSubmissionWriter(courses CourseStore, users UserStore, mode SubmissionMode) *SubmissionWriter {
	w := &SubmissionWriter{
		courses: courses,
		users:   users,
		now:     time.Now,
	}
	if mode == ModeTransactional {
		if recorder, ok := courses.(SubmissionRecorder); ok {
			w.recorder = recorder
		} else {
			log.Printf("backend has no transactional submissions, falling back to %s", ModeBestEffort)
		}
	}
	return w
}

// Mode reports the mode actually in use.
func (w *SubmissionWriter) Mode() SubmissionMode {
	if w.recorder != nil {
		return ModeTransactional
	}
	return ModeBestEffort
}

// Submit builds the submission record of one attempt and persists it.
// Writes are idempotent per attempt: submitting the same attempt again leaves the stores unchanged.
func (w *SubmissionWriter) Submit(ctx context.Context, user domain.UserSession, attemptID, courseID string, questions []domain.Question, answers []string) (domain.Submission, error) {
	if !user.Authenticated() {
		return domain.Submission{}, domain.ErrUnauthenticated
	}
	if attemptID == "" {
		return domain.Submission{}, errors.Wrap(domain.ErrInvalidInput, "attempt id is required")
	}
	if len(answers) != len(questions) {
		return domain.Submission{}, errors.Wrapf(domain.ErrInvalidInput, "%d answers for %d questions", len(answers), len(questions))
	}

	paired := make([]domain.Answer, len(questions))
	for i, q := range questions {
		paired[i] = domain.Answer{ID: q.ID, Answer: answers[i]}
	}
	submission := domain.Submission{
		ID:        SubmissionID(attemptID),
		User:      user.UserID,
		Answers:   paired,
		Timestamp: w.now().UTC().Format(timestampLayout),
	}

	if w.recorder != nil {
		if err := w.recorder.RecordSubmission(ctx, courseID, submission); err != nil {
			log.Printf("record submission %s for course %s: %v", submission.ID, courseID, err)
			return domain.Submission{}, errors.Wrap(domain.ErrSubmissionFailed, err.Error())
		}
		return submission, nil
	}

	if err := w.courses.AppendResponse(ctx, courseID, submission); err != nil {
		log.Printf("append response %s to course %s: %v", submission.ID, courseID, err)
		return domain.Submission{}, errors.Wrap(domain.ErrSubmissionFailed, err.Error())
	}
	// No rollback past this point; reconcile repairs a missing completion.
	if err := w.users.AddCompletedCourse(ctx, user.UserID, courseID); err != nil {
		log.Printf("mark course %s completed for user %s: %v", courseID, user.UserID, err)
		return domain.Submission{}, errors.Wrap(domain.ErrSubmissionFailed, err.Error())
	}
	return submission, nil
}

// GetSubmission returns one response of a course. Only its author or an admin may read it.
func (w *SubmissionWriter) GetSubmission(ctx context.Context, user domain.UserSession, courseID, submissionID string) (domain.Submission, error) {
	if !user.Authenticated() {
		return domain.Submission{}, domain.ErrUnauthenticated
	}
	course, err := w.courses.GetCourse(ctx, courseID)
	if err != nil {
		return domain.Submission{}, err
	}
	for _, response := range course.Responses {
		if response.ID != submissionID {
			continue
		}
		if response.User != user.UserID && !user.Admin {
			return domain.Submission{}, domain.ErrForbidden
		}
		return response, nil
	}
	return domain.Submission{}, domain.ErrSubmissionNotFound
}

// Reconcile adds the course to coursesCompleted for every responding user that lacks it,
// closing the gap left by a best-effort submission whose second write failed.
// It returns how many completions were added.
func (w *SubmissionWriter) Reconcile(ctx context.Context) (int, error) {
	refs, err := w.courses.ListCourses(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "list courses")
	}

	var result *multierror.Error
	repaired := 0
	for _, ref := range refs {
		course, err := w.courses.GetCourse(ctx, ref.ID)
		if err != nil {
			result = multierror.Append(result, errors.Wrapf(err, "load course %s", ref.ID))
			continue
		}
		checked := make(map[string]struct{})
		for _, response := range course.Responses {
			if response.User == "" {
				continue
			}
			if _, ok := checked[response.User]; ok {
				continue
			}
			checked[response.User] = struct{}{}

			done, err := w.completed(ctx, response.User, course.ID)
			if err != nil {
				result = multierror.Append(result, err)
				continue
			}
			if done {
				continue
			}
			if err := w.users.AddCompletedCourse(ctx, response.User, course.ID); err != nil {
				result = multierror.Append(result, errors.Wrapf(err, "add course %s for user %s", course.ID, response.User))
				continue
			}
			log.Printf("reconciled course %s for user %s", course.ID, response.User)
			repaired++
		}
	}
	return repaired, result.ErrorOrNil()
}

func (w *SubmissionWriter) completed(ctx context.Context, userID, courseID string) (bool, error) {
	user, err := w.users.GetUser(ctx, userID)
	if errors.Is(err, domain.ErrUserNotFound) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrapf(err, "load user %s", userID)
	}
	for _, id := range user.CoursesCompleted {
		if id == courseID {
			return true, nil
		}
	}
	return false, nil
}
