package model

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Subject is one of the OAB first-phase disciplines.
type Subject string

const (
	SubjectEtica              Subject = "Ética Profissional"
	SubjectConstitucional     Subject = "Direito Constitucional"
	SubjectCivil              Subject = "Direito Civil"
	SubjectProcessualCivil    Subject = "Direito Processual Civil"
	SubjectPenal              Subject = "Direito Penal"
	SubjectProcessualPenal    Subject = "Direito Processual Penal"
	SubjectTrabalho           Subject = "Direito do Trabalho"
	SubjectProcessualTrabalho Subject = "Direito Processual do Trabalho"
	SubjectAdministrativo     Subject = "Direito Administrativo"
	SubjectTributario         Subject = "Direito Tributário"
	SubjectEmpresarial        Subject = "Direito Empresarial"
	SubjectDireitosHumanos    Subject = "Direitos Humanos"
	SubjectInternacional      Subject = "Direito Internacional"
	SubjectAmbiental          Subject = "Direito Ambiental"
	SubjectConsumidor         Subject = "Direito do Consumidor"
	SubjectFilosofia          Subject = "Filosofia do Direito"
	SubjectECA                Subject = "ECA"
)

// SubjectGeral marks a mixed exam rather than a single discipline.
const SubjectGeral = "Geral"

// AllSubjects lists every discipline, in the official order.
var AllSubjects = []Subject{
	SubjectEtica,
	SubjectConstitucional,
	SubjectCivil,
	SubjectProcessualCivil,
	SubjectPenal,
	SubjectProcessualPenal,
	SubjectTrabalho,
	SubjectProcessualTrabalho,
	SubjectAdministrativo,
	SubjectTributario,
	SubjectEmpresarial,
	SubjectDireitosHumanos,
	SubjectInternacional,
	SubjectAmbiental,
	SubjectConsumidor,
	SubjectFilosofia,
	SubjectECA,
}

// DefaultExamSize is the question count for a practice exam when none is given.
const DefaultExamSize = 10

// OfficialExamSize is the question count of the official first-phase exam.
const OfficialExamSize = 80

// UserRole represents a user's access level.
type UserRole string

const (
	// UserRoleStudent is a student user role.
	UserRoleStudent UserRole = "student"
	// UserRoleMentor is a mentor user role with read access to all students.
	UserRoleMentor UserRole = "mentor"
)

// UserProfile represents a registered user.
type UserProfile struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         UserRole  `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// AuthSession represents an authentication session.
type AuthSession struct {
	ID        string
	UserID    string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Option is a single answer choice on a question.
type Option struct {
	Letter string `json:"letter"`
	Text   string `json:"text"`
}

// Question is a generated multiple-choice question. Immutable once produced.
type Question struct {
	ID            string   `json:"id"`
	Subject       Subject  `json:"subject"`
	Text          string   `json:"text"`
	Options       []Option `json:"options"`
	CorrectOption string   `json:"correctOption"`
	Explanation   string   `json:"explanation"`
}

// optionLetters is the required letter set for a question's options.
var optionLetters = []string{"A", "B", "C", "D"}

// Validate checks the structural invariants of a generated question:
// four options lettered A-D exactly once, and a correct option naming
// one of them.
func (q Question) Validate() error {
	if q.ID == "" {
		return errors.New("question missing id")
	}
	if q.Text == "" {
		return errors.New("question missing text")
	}
	if len(q.Options) != len(optionLetters) {
		return fmt.Errorf("question %s: expected %d options, got %d", q.ID, len(optionLetters), len(q.Options))
	}
	seen := make(map[string]bool, len(optionLetters))
	for _, opt := range q.Options {
		if seen[opt.Letter] {
			return fmt.Errorf("question %s: duplicate option letter %q", q.ID, opt.Letter)
		}
		seen[opt.Letter] = true
	}
	for _, letter := range optionLetters {
		if !seen[letter] {
			return fmt.Errorf("question %s: missing option letter %q", q.ID, letter)
		}
	}
	if !seen[q.CorrectOption] {
		return fmt.Errorf("question %s: correct option %q does not match any option", q.ID, q.CorrectOption)
	}
	return nil
}

// UnansweredMark is recorded as the user answer for questions never answered.
const UnansweredMark = "N/A"

// ResultDetail is the per-question record inside an ExamResult. Question
// text, options and explanation are snapshotted so history review stays
// correct even though generated content is never reproduced identically.
type ResultDetail struct {
	QuestionID    string   `json:"questionId"`
	Subject       Subject  `json:"subject"`
	IsCorrect     bool     `json:"isCorrect"`
	UserAnswer    string   `json:"userAnswer"`
	QuestionText  string   `json:"questionText,omitempty"`
	Options       []Option `json:"options,omitempty"`
	CorrectOption string   `json:"correctOption,omitempty"`
	Explanation   string   `json:"explanation,omitempty"`
}

// ExamResult is the final record of one exam session. Created once at
// submission and never mutated afterwards; AIDiagnostic may be attached
// between creation and the moment the result is recorded.
type ExamResult struct {
	ID               string         `json:"id"`
	UserID           string         `json:"userId"`
	Date             time.Time      `json:"date"`
	Subject          string         `json:"subject"`
	Score            int            `json:"score"`
	TotalQuestions   int            `json:"totalQuestions"`
	TimeSpentSeconds int            `json:"timeSpentSeconds"`
	TabExitCount     int            `json:"tabExitCount"`
	Details          []ResultDetail `json:"details"`
	AIDiagnostic     string         `json:"aiDiagnostic,omitempty"`
}

// Diagnostic is AI-derived structured feedback over a user's history.
// Always recomputed from the result history, never persisted.
type Diagnostic struct {
	Summary        string   `json:"summary"`
	Strengths      []string `json:"strengths"`
	Weaknesses     []string `json:"weaknesses"`
	Recommendation string   `json:"recommendation"`
}

// Theme is the persisted UI theme preference, independent of user identity.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// ErrValidation marks locally detected bad input (malformed login fields,
// duplicate email at registration). Surfaced immediately, never retried.
var ErrValidation = errors.New("validation error")

// GenerationError wraps an upstream failure of the question generation
// service. It blocks exam setup; callers show a retry prompt.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return "question generation failed: " + e.Err.Error()
}

func (e *GenerationError) Unwrap() error { return e.Err }

type userCtxKey struct{}

// ContextWithUser stores a user in the request context.
func ContextWithUser(ctx context.Context, u *UserProfile) context.Context {
	return context.WithValue(ctx, userCtxKey{}, u)
}

// UserFromContext retrieves the authenticated user from context, or nil.
func UserFromContext(ctx context.Context) *UserProfile {
	u, _ := ctx.Value(userCtxKey{}).(*UserProfile)
	return u
}
