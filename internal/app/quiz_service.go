package app

import (
	"context"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"course-quiz-service/internal/domain"
)

// QuestionBankRepository loads a course's question bank (from cache/backing store).
type QuestionBankRepository interface {
	GetQuestionBank(ctx context.Context, courseID string) ([]domain.Question, error)
}

// SessionRepository abstracts how quiz sessions are stored (in-memory, Redis, etc).
type SessionRepository interface {
	Create(ctx context.Context, session Session) error
	Get(ctx context.Context, sessionID string) (Session, error)
	// Update applies fn to the stored session and persists the result when fn returns nil.
	Update(ctx context.Context, sessionID string, fn func(*Session) error) (Session, error)
}

// Verifier validates a human-verification challenge token.
type Verifier interface {
	Verify(ctx context.Context, token string) error
}

// QuizService contains the quiz-taking use cases.
type QuizService struct {
	banks        QuestionBankRepository
	sessions     SessionRepository
	verifier     Verifier
	writer       *SubmissionWriter
	maxQuestions int
	now          func() time.Time

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewQuizService(banks QuestionBankRepository, sessions SessionRepository, verifier Verifier, writer *SubmissionWriter, maxQuestions int) *QuizService {
	return NewQuizServiceWithRand(banks, sessions, verifier, writer, maxQuestions, rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewQuizServiceWithRand allows deterministic sampling in tests.
func NewQuizServiceWithRand(banks QuestionBankRepository, sessions SessionRepository, verifier Verifier, writer *SubmissionWriter, maxQuestions int, rnd *rand.Rand) *QuizService {
	if maxQuestions <= 0 {
		maxQuestions = DefaultMaxQuestions
	}
	return &QuizService{
		banks:        banks,
		sessions:     sessions,
		verifier:     verifier,
		writer:       writer,
		maxQuestions: maxQuestions,
		now:          time.Now,
		rnd:          rnd,
	}
}

// LoadQuiz derives the quiz for a course. Failures are logged and yield an empty quiz.
func (s *QuizService) LoadQuiz(ctx context.Context, courseID string) []domain.Question {
	bank, err := s.banks.GetQuestionBank(ctx, courseID)
	if err != nil {
		log.Printf("load quiz for course %s: %v", courseID, err)
		return []domain.Question{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return SampleQuestions(bank, s.maxQuestions, s.rnd)
}

// Start opens a new attempt for the user on a freshly sampled quiz.
func (s *QuizService) Start(ctx context.Context, user domain.UserSession, courseID string) (SessionView, error) {
	if !user.Authenticated() {
		return SessionView{}, domain.ErrUnauthenticated
	}
	questions := s.LoadQuiz(ctx, courseID)
	if len(questions) == 0 {
		return SessionView{}, domain.ErrQuizUnavailable
	}

	session := NewSession(uuid.NewString(), courseID, user.UserID, questions, s.now())
	if err := s.sessions.Create(ctx, session); err != nil {
		return SessionView{}, errors.Wrapf(err, "create session for course %s", courseID)
	}
	return session.View(), nil
}

// Get returns the caller's session.
func (s *QuizService) Get(ctx context.Context, user domain.UserSession, sessionID string) (SessionView, error) {
	session, err := s.owned(ctx, user, sessionID)
	if err != nil {
		return SessionView{}, err
	}
	return session.View(), nil
}

// SelectAnswer records the answer for the current question without advancing.
func (s *QuizService) SelectAnswer(ctx context.Context, user domain.UserSession, sessionID string, index int, answer string) (SessionView, error) {
	return s.mutate(ctx, user, sessionID, func(session *Session) error {
		return session.Select(index, answer)
	})
}

// Next advances to the following question.
func (s *QuizService) Next(ctx context.Context, user domain.UserSession, sessionID string) (SessionView, error) {
	return s.mutate(ctx, user, sessionID, (*Session).Next)
}

// Prev returns to the previous question.
func (s *QuizService) Prev(ctx context.Context, user domain.UserSession, sessionID string) (SessionView, error) {
	return s.mutate(ctx, user, sessionID, (*Session).Prev)
}

// Verify passes the challenge token through the verification gate and, on success, unlocks submit.
func (s *QuizService) Verify(ctx context.Context, user domain.UserSession, sessionID, token string) (SessionView, error) {
	session, err := s.owned(ctx, user, sessionID)
	if err != nil {
		return SessionView{}, err
	}
	if err := session.canVerify(); err != nil {
		return session.View(), err
	}
	if token == "" {
		return session.View(), domain.ErrVerificationFailed
	}
	if err := s.verifier.Verify(ctx, token); err != nil {
		log.Printf("verification failed for session %s: %v", sessionID, err)
		return session.View(), errors.Wrap(domain.ErrVerificationFailed, err.Error())
	}
	return s.mutate(ctx, user, sessionID, (*Session).markVerified)
}

// Submit writes the attempt through the submission writer.
// On failure the session stays verified so the user can try again; the record ID is derived from
// the session, so a retry or a concurrent submit rewrites the same record instead of adding one.
func (s *QuizService) Submit(ctx context.Context, user domain.UserSession, sessionID string) (SessionView, error) {
	session, err := s.owned(ctx, user, sessionID)
	if err != nil {
		return SessionView{}, err
	}
	if err := session.canSubmit(); err != nil {
		return session.View(), err
	}

	submission, err := s.writer.Submit(ctx, user, session.ID, session.CourseID, session.Questions, session.Answers)
	if err != nil {
		return session.View(), err
	}
	return s.mutate(ctx, user, sessionID, func(session *Session) error {
		return session.markSubmitted(submission.ID)
	})
}

func (s *QuizService) owned(ctx context.Context, user domain.UserSession, sessionID string) (Session, error) {
	if !user.Authenticated() {
		return Session{}, domain.ErrUnauthenticated
	}
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return Session{}, err
	}
	if session.UserID != user.UserID {
		return Session{}, domain.ErrForbidden
	}
	return session, nil
}

func (s *QuizService) mutate(ctx context.Context, user domain.UserSession, sessionID string, fn func(*Session) error) (SessionView, error) {
	if _, err := s.owned(ctx, user, sessionID); err != nil {
		return SessionView{}, err
	}
	var rejected error
	updated, err := s.sessions.Update(ctx, sessionID, func(session *Session) error {
		rejected = fn(session)
		return rejected
	})
	if rejected != nil {
		// The store returns the unchanged session alongside a rejected transition.
		return updated.View(), rejected
	}
	if err != nil {
		return SessionView{}, err
	}
	return updated.View(), nil
}
