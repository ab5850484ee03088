package app

import (
	"time"

	"course-quiz-service/internal/domain"
)

// State is the externally visible phase of a quiz session.
type State string

const (
	StateLoading       State = "loading"
	StateAnswering     State = "answering"
	StateReadyToVerify State = "ready_to_verify"
	StateVerified      State = "verified"
	StateSubmitted     State = "submitted"
)

// Session is one attempt at a course quiz.
// Fields are exported so stores can serialize it; mutate only through the methods.
type Session struct {
	ID           string            `json:"id"`
	CourseID     string            `json:"courseId"`
	UserID       string            `json:"userId"`
	Questions    []domain.Question `json:"questions"`
	Answers      []string          `json:"answers"`
	Index        int               `json:"index"`
	Verified     bool              `json:"verified"`
	SubmissionID string            `json:"submissionId,omitempty"`
	CreatedAt    time.Time         `json:"createdAt"`
}

// NewSession starts an attempt at the first question with every answer unset.
func NewSession(id, courseID, userID string, questions []domain.Question, now time.Time) Session {
	return Session{
		ID:        id,
		CourseID:  courseID,
		UserID:    userID,
		Questions: questions,
		Answers:   make([]string, len(questions)),
		CreatedAt: now,
	}
}

// State derives the phase from the session fields.
func (s *Session) State() State {
	switch {
	case s.SubmissionID != "":
		return StateSubmitted
	case len(s.Questions) == 0:
		return StateLoading
	case s.Verified:
		return StateVerified
	case s.ShowSubmit():
		return StateReadyToVerify
	default:
		return StateAnswering
	}
}

// ShowSubmit reports whether the verify/submit panel is visible, i.e. the last question is current.
func (s *Session) ShowSubmit() bool {
	return len(s.Questions) > 0 && s.Index == len(s.Questions)-1
}

// Select records answer for the question at index, which must be the current one.
func (s *Session) Select(index int, answer string) error {
	if s.SubmissionID != "" {
		return domain.ErrSessionSubmitted
	}
	if index != s.Index || index < 0 || index >= len(s.Questions) {
		return domain.ErrNotCurrentQuestion
	}
	if !s.Questions[index].HasOption(answer) {
		return domain.ErrOptionNotFound
	}
	s.Answers[index] = answer
	return nil
}

// Next advances to the following question once the current one is answered.
func (s *Session) Next() error {
	if s.SubmissionID != "" {
		return domain.ErrSessionSubmitted
	}
	if s.Index+1 >= len(s.Questions) {
		return domain.ErrNoNextQuestion
	}
	if s.Answers[s.Index] == "" {
		return domain.ErrAnswerRequired
	}
	s.Index++
	return nil
}

// Prev goes back one question. Leaving the last question drops any verification,
// since the challenge is tied to the submit panel.
func (s *Session) Prev() error {
	if s.SubmissionID != "" {
		return domain.ErrSessionSubmitted
	}
	if s.Index <= 0 {
		return domain.ErrNoPreviousQuestion
	}
	s.Index--
	s.Verified = false
	return nil
}

func (s *Session) canVerify() error {
	if s.SubmissionID != "" {
		return domain.ErrSessionSubmitted
	}
	if !s.ShowSubmit() {
		return domain.ErrVerificationUnavailable
	}
	return nil
}

func (s *Session) markVerified() error {
	if err := s.canVerify(); err != nil {
		return err
	}
	s.Verified = true
	return nil
}

func (s *Session) canSubmit() error {
	if s.SubmissionID != "" {
		return domain.ErrSessionSubmitted
	}
	if !s.Verified {
		return domain.ErrNotVerified
	}
	for _, a := range s.Answers {
		if a == "" {
			return domain.ErrAnswerRequired
		}
	}
	return nil
}

func (s *Session) markSubmitted(submissionID string) error {
	if err := s.canSubmit(); err != nil {
		return err
	}
	s.SubmissionID = submissionID
	return nil
}

// SessionView is the client-facing snapshot of a session.
type SessionView struct {
	ID           string           `json:"id"`
	CourseID     string           `json:"courseId"`
	State        State            `json:"state"`
	Index        int              `json:"index"`
	Total        int              `json:"total"`
	Question     *domain.Question `json:"question,omitempty"`
	Answer       string           `json:"answer"`
	Answers      []string         `json:"answers"`
	ShowSubmit   bool             `json:"showSubmit"`
	Verified     bool             `json:"verified"`
	SubmissionID string           `json:"submissionId,omitempty"`
}

// View snapshots the session for clients.
func (s *Session) View() SessionView {
	view := SessionView{
		ID:           s.ID,
		CourseID:     s.CourseID,
		State:        s.State(),
		Index:        s.Index,
		Total:        len(s.Questions),
		Answers:      append([]string(nil), s.Answers...),
		ShowSubmit:   s.ShowSubmit(),
		Verified:     s.Verified,
		SubmissionID: s.SubmissionID,
	}
	if s.Index >= 0 && s.Index < len(s.Questions) {
		q := s.Questions[s.Index]
		view.Question = &q
		view.Answer = s.Answers[s.Index]
	}
	return view
}
