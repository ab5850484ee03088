package domain

import "time"

// Question is a single multiple-choice prompt from a course's question bank.
type Question struct {
	ID       string   `json:"id" bson:"id" validate:"required"`
	Question string   `json:"question" bson:"question" validate:"required"`
	Options  []string `json:"options" bson:"options" validate:"min=2,dive,required"`
}

// HasOption reports whether answer is one of the question's options.
func (q Question) HasOption(answer string) bool {
	for _, opt := range q.Options {
		if opt == answer {
			return true
		}
	}
	return false
}

// Answer pairs a question ID with the option the user selected.
type Answer struct {
	ID     string `json:"id" bson:"id"`
	Answer string `json:"answer" bson:"answer"`
}

// Submission is the write-once record of one quiz attempt.
type Submission struct {
	ID        string   `json:"id" bson:"id"`
	User      string   `json:"user" bson:"user"`
	Answers   []Answer `json:"answers" bson:"answers"`
	Timestamp string   `json:"timestamp" bson:"timestamp"`
}

// Course holds the question bank and the responses collected for it.
type Course struct {
	ID        string       `json:"id" validate:"required"`
	Title     string       `json:"title" validate:"required"`
	Quiz      []Question   `json:"quiz" validate:"min=1,dive"`
	Responses []Submission `json:"responses"`
}

// CourseRef is the minimal course view used by selectors and the roster.
type CourseRef struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// User is the backend account, keyed by wallet address.
type User struct {
	ID               string   `json:"id"`
	CoursesCompleted []string `json:"coursesCompleted"`
}

// UserSession identifies the authenticated caller of a use case.
type UserSession struct {
	UserID string
	Admin  bool
}

// Authenticated reports whether the session carries a user.
func (u UserSession) Authenticated() bool {
	return u.UserID != ""
}

// POAP is an imported proof-of-attendance asset, optionally assigned to a course.
type POAP struct {
	ID        string    `json:"id"`
	Name      string    `json:"name" validate:"required"`
	Image     string    `json:"image" validate:"required,url"`
	MintLinks []string  `json:"mintLinks" validate:"dive,url"`
	AdminLink string    `json:"adminLink" validate:"omitempty,url"`
	CourseID  string    `json:"course,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// RosterEntry is a POAP joined with its resolved course.
type RosterEntry struct {
	POAP      POAP       `json:"poap"`
	Course    *CourseRef `json:"course"`
	Remaining int        `json:"remaining"`
}

// Equal reports whether two submissions carry the same id, author, answers and timestamp.
func (s Submission) Equal(other Submission) bool {
	if s.ID != other.ID || s.User != other.User || s.Timestamp != other.Timestamp || len(s.Answers) != len(other.Answers) {
		return false
	}
	for i := range s.Answers {
		if s.Answers[i] != other.Answers[i] {
			return false
		}
	}
	return true
}
