package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/pkg/errors"

	"course-quiz-service/internal/domain"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// Store keeps courses, users and POAPs in Postgres, documents as JSONB.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) GetCourse(ctx context.Context, courseID string) (domain.Course, error) {
	var (
		course    domain.Course
		quiz      []byte
		responses []byte
	)
	err := s.pool.QueryRow(ctx, `SELECT id, title, quiz, responses FROM courses WHERE id=$1`, courseID).
		Scan(&course.ID, &course.Title, &quiz, &responses)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Course{}, domain.ErrCourseNotFound
	}
	if err != nil {
		return domain.Course{}, errors.Wrapf(err, "load course %s", courseID)
	}
	if err := json.Unmarshal(quiz, &course.Quiz); err != nil {
		return domain.Course{}, errors.Wrapf(err, "unmarshal quiz of course %s", courseID)
	}
	if err := json.Unmarshal(responses, &course.Responses); err != nil {
		return domain.Course{}, errors.Wrapf(err, "unmarshal responses of course %s", courseID)
	}
	return course, nil
}

func (s *Store) ListCourses(ctx context.Context) ([]domain.CourseRef, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, title FROM courses ORDER BY id`)
	if err != nil {
		return nil, errors.Wrap(err, "list courses")
	}
	defer rows.Close()

	refs := make([]domain.CourseRef, 0)
	for rows.Next() {
		var ref domain.CourseRef
		if err := rows.Scan(&ref.ID, &ref.Title); err != nil {
			return nil, errors.Wrap(err, "scan course")
		}
		refs = append(refs, ref)
	}
	return refs, errors.Wrap(rows.Err(), "list courses")
}

// SaveCourse inserts or replaces a course's title and question bank; responses are kept.
func (s *Store) SaveCourse(ctx context.Context, course domain.Course) error {
	quiz, err := json.Marshal(course.Quiz)
	if err != nil {
		return errors.Wrapf(err, "marshal quiz of course %s", course.ID)
	}
	_, err = s.pool.Exec(ctx, `
INSERT INTO courses (id, title, quiz) VALUES ($1, $2, $3::jsonb)
ON CONFLICT (id) DO UPDATE SET title = EXCLUDED.title, quiz = EXCLUDED.quiz`,
		course.ID, course.Title, string(quiz))
	return errors.Wrapf(err, "save course %s", course.ID)
}

func (s *Store) AppendResponse(ctx context.Context, courseID string, submission domain.Submission) error {
	return appendResponse(ctx, s.pool, courseID, submission)
}

func (s *Store) GetUser(ctx context.Context, userID string) (domain.User, error) {
	user := domain.User{ID: userID}
	err := s.pool.QueryRow(ctx, `SELECT courses_completed FROM users WHERE id=$1`, userID).Scan(&user.CoursesCompleted)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, errors.Wrapf(err, "load user %s", userID)
	}
	return user, nil
}

func (s *Store) AddCompletedCourse(ctx context.Context, userID, courseID string) error {
	return addCompletedCourse(ctx, s.pool, userID, courseID)
}

// RecordSubmission writes the course response and the user's completion in one transaction.
func (s *Store) RecordSubmission(ctx context.Context, courseID string, submission domain.Submission) error {
	return s.pool.BeginFunc(ctx, func(tx pgx.Tx) error {
		if err := appendResponse(ctx, tx, courseID, submission); err != nil {
			return err
		}
		return addCompletedCourse(ctx, tx, submission.User, courseID)
	})
}

func (s *Store) ListPOAPs(ctx context.Context) ([]domain.POAP, error) {
	rows, err := s.pool.Query(ctx, `
SELECT id, name, image, mint_links, admin_link, COALESCE(course_id, ''), created_at, updated_at
FROM poaps ORDER BY created_at, id`)
	if err != nil {
		return nil, errors.Wrap(err, "list poaps")
	}
	defer rows.Close()

	poaps := make([]domain.POAP, 0)
	for rows.Next() {
		var (
			poap      domain.POAP
			mintLinks []byte
		)
		if err := rows.Scan(&poap.ID, &poap.Name, &poap.Image, &mintLinks, &poap.AdminLink, &poap.CourseID, &poap.CreatedAt, &poap.UpdatedAt); err != nil {
			return nil, errors.Wrap(err, "scan poap")
		}
		if err := json.Unmarshal(mintLinks, &poap.MintLinks); err != nil {
			return nil, errors.Wrapf(err, "unmarshal mint links of poap %s", poap.ID)
		}
		poaps = append(poaps, poap)
	}
	return poaps, errors.Wrap(rows.Err(), "list poaps")
}

func (s *Store) CreatePOAP(ctx context.Context, poap domain.POAP) error {
	mintLinks, err := json.Marshal(poap.MintLinks)
	if err != nil {
		return errors.Wrapf(err, "marshal mint links of poap %s", poap.ID)
	}
	_, err = s.pool.Exec(ctx, `
INSERT INTO poaps (id, name, image, mint_links, admin_link, course_id, created_at, updated_at)
VALUES ($1, $2, $3, $4::jsonb, $5, NULLIF($6, ''), $7, $8)`,
		poap.ID, poap.Name, poap.Image, string(mintLinks), poap.AdminLink, poap.CourseID, poap.CreatedAt, poap.UpdatedAt)
	return errors.Wrapf(err, "insert poap %s", poap.ID)
}

func (s *Store) AssignCourse(ctx context.Context, poapID, courseID string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE poaps SET course_id=$2, updated_at=$3 WHERE id=$1`, poapID, courseID, time.Now().UTC())
	if err != nil {
		return errors.Wrapf(err, "assign course %s to poap %s", courseID, poapID)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPOAPNotFound
	}
	return nil
}

// appendResponse adds the submission unless a response with the same id is already present.
func appendResponse(ctx context.Context, q querier, courseID string, submission domain.Submission) error {
	data, err := json.Marshal(submission)
	if err != nil {
		return errors.Wrapf(err, "marshal submission %s", submission.ID)
	}
	tag, err := q.Exec(ctx, `
UPDATE courses SET responses = CASE
    WHEN EXISTS (SELECT 1 FROM jsonb_array_elements(responses) AS e WHERE e->>'id' = $3) THEN responses
    ELSE responses || jsonb_build_array($2::jsonb)
END
WHERE id = $1`, courseID, string(data), submission.ID)
	if err != nil {
		return errors.Wrapf(err, "append response to course %s", courseID)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCourseNotFound
	}
	return nil
}

func addCompletedCourse(ctx context.Context, q querier, userID, courseID string) error {
	_, err := q.Exec(ctx, `
INSERT INTO users (id, courses_completed) VALUES ($1, ARRAY[$2::text])
ON CONFLICT (id) DO UPDATE SET courses_completed = CASE
    WHEN $2::text = ANY(users.courses_completed) THEN users.courses_completed
    ELSE array_append(users.courses_completed, $2::text)
END`, userID, courseID)
	return errors.Wrapf(err, "add completed course %s for user %s", courseID, userID)
}
