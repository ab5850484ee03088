package domain

import "errors"

var (
	// ErrCourseNotFound is returned when the backend has no course with the given ID.
	ErrCourseNotFound = errors.New("course not found")
	// ErrUserNotFound is returned when the backend has no user record yet.
	ErrUserNotFound = errors.New("user not found")
	// ErrPOAPNotFound is returned when the backend has no POAP with the given ID.
	ErrPOAPNotFound = errors.New("poap not found")
	// ErrSubmissionNotFound is returned when a course has no response with the given ID.
	ErrSubmissionNotFound = errors.New("submission not found")
	// ErrSessionNotFound is returned when a quiz session expired or never existed.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrQuizUnavailable is returned when a session is started for a course with no questions.
	ErrQuizUnavailable = errors.New("quiz unavailable")

	ErrAnswerRequired          = errors.New("answer required before continuing")
	ErrNoNextQuestion          = errors.New("already at the last question")
	ErrNoPreviousQuestion      = errors.New("already at the first question")
	ErrNotCurrentQuestion      = errors.New("only the current question can be answered")
	ErrOptionNotFound          = errors.New("option not found")
	ErrVerificationUnavailable = errors.New("verification is only available on the last question")
	ErrVerificationFailed      = errors.New("verification failed")
	ErrNotVerified             = errors.New("please verify before submitting")
	ErrSessionSubmitted        = errors.New("quiz already submitted")

	// ErrUnauthenticated is returned when a use case needs a user and none is present.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrForbidden is returned when the caller does not own the resource.
	ErrForbidden = errors.New("forbidden")
	// ErrSubmissionFailed wraps any persistence failure of the submission writer.
	ErrSubmissionFailed = errors.New("something went wrong, please try again later")
	// ErrInvalidInput wraps request validation failures.
	ErrInvalidInput = errors.New("invalid input")
)
