// Package session implements the timed exam state machine: question
// navigation, answer capture with reveal-on-answer, the countdown timer and
// the focus-loss anti-cheat pause. A finished session produces exactly one
// scored ExamResult.
package session

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tfarias/oabsim/internal/model"
)

// secondsPerQuestion models the official ratio of 300 minutes for 80 questions.
const secondsPerQuestion = 3.75 * 60

// Clock abstracts wall-clock access so tests can drive the timer.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// FinishFunc receives the final ExamResult. It is invoked exactly once,
// whether submission is manual or timer-triggered.
type FinishFunc func(model.ExamResult)

// Engine owns the state of one exam session. All methods are safe for
// concurrent use; the timer, the focus signals and answer input may arrive
// from independent goroutines.
type Engine struct {
	mu sync.Mutex

	userID    string
	questions []model.Question
	onFinish  FinishFunc
	clock     Clock

	currentIndex int
	answers      map[string]string
	revealed     map[string]bool
	budget       int
	timeLeft     int
	isPaused     bool
	tabExitCount int
	submitted    bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces the wall clock, for tests.
func WithClock(c Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// New creates an engine for the given user and question set. The time budget
// is fixed at construction: ceil(len(questions) * 3.75 min) in seconds, with
// a floor of one question so an empty set cannot produce a zero budget or a
// division by zero in progress reporting.
func New(userID string, questions []model.Question, onFinish FinishFunc, opts ...Option) *Engine {
	n := len(questions)
	if n < 1 {
		n = 1
	}
	e := &Engine{
		userID:    userID,
		questions: questions,
		onFinish:  onFinish,
		clock:     realClock{},
		answers:   make(map[string]string),
		revealed:  make(map[string]bool),
		budget:    int(math.Ceil(float64(n) * secondsPerQuestion)),
	}
	e.timeLeft = e.budget
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Snapshot is a read-only view of the engine state for display.
type Snapshot struct {
	CurrentIndex   int             `json:"currentIndex"`
	TotalQuestions int             `json:"totalQuestions"`
	TimeLeft       int             `json:"timeLeft"`
	IsPaused       bool            `json:"isPaused"`
	TabExitCount   int             `json:"tabExitCount"`
	Submitted      bool            `json:"submitted"`
	Revealed       bool            `json:"revealed"`
	UserAnswer     string          `json:"userAnswer,omitempty"`
	Question       *model.Question `json:"question,omitempty"`
}

// Snapshot returns the current state, including the current question when
// the session is still running.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := Snapshot{
		CurrentIndex:   e.currentIndex,
		TotalQuestions: len(e.questions),
		TimeLeft:       e.timeLeft,
		IsPaused:       e.isPaused,
		TabExitCount:   e.tabExitCount,
		Submitted:      e.submitted,
	}
	if !e.submitted && e.currentIndex < len(e.questions) {
		q := e.questions[e.currentIndex]
		s.Revealed = e.revealed[q.ID]
		s.UserAnswer = e.answers[q.ID]
		// The answer key stays hidden until the question is revealed.
		if !s.Revealed {
			q.CorrectOption = ""
			q.Explanation = ""
		}
		s.Question = &q
	}
	return s
}

// Select records an answer for the current question and reveals it. A second
// call for an already revealed question is a no-op; after submission the
// engine is inert.
func (e *Engine) Select(letter string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.submitted || e.currentIndex >= len(e.questions) {
		return false
	}
	q := e.questions[e.currentIndex]
	if e.revealed[q.ID] {
		return false
	}
	e.answers[q.ID] = letter
	e.revealed[q.ID] = true
	return true
}

// Advance moves to the next question. It refuses to move past an unrevealed
// current question: the only way forward without answering is submission.
func (e *Engine) Advance() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.submitted || e.currentIndex >= len(e.questions)-1 {
		return false
	}
	if !e.revealed[e.questions[e.currentIndex].ID] {
		return false
	}
	e.currentIndex++
	return true
}

// Retreat moves back one question, clamped at the first.
func (e *Engine) Retreat() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.submitted || e.currentIndex == 0 {
		return false
	}
	e.currentIndex--
	return true
}

// Blur signals that the exam surface lost focus: the tab-exit counter goes
// up and the countdown freezes.
func (e *Engine) Blur() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.submitted {
		return
	}
	e.tabExitCount++
	e.isPaused = true
}

// Focus signals that the exam surface regained focus, resuming the countdown.
func (e *Engine) Focus() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.submitted {
		return
	}
	e.isPaused = false
}

// Tick consumes one second of exam time. Paused sessions do not tick. When
// the budget reaches zero the session auto-submits.
func (e *Engine) Tick() {
	e.mu.Lock()
	if e.submitted || e.isPaused {
		e.mu.Unlock()
		return
	}
	if e.timeLeft > 0 {
		e.timeLeft--
	}
	expired := e.timeLeft == 0
	e.mu.Unlock()

	if expired {
		e.Submit()
	}
}

// Run drives the countdown from a once-per-second ticker until the session
// is submitted or the context is cancelled.
func (e *Engine) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.Tick()
			e.mu.Lock()
			done := e.submitted
			e.mu.Unlock()
			if done {
				return
			}
		}
	}
}

// Submit is the terminal transition. Every question gets a ResultDetail with
// the recorded answer or "N/A", compared against its correct option; the
// question content is snapshotted into the detail. Repeated calls are no-ops.
func (e *Engine) Submit() {
	e.mu.Lock()
	if e.submitted {
		e.mu.Unlock()
		return
	}
	e.submitted = true

	details := make([]model.ResultDetail, 0, len(e.questions))
	score := 0
	for _, q := range e.questions {
		answer, answered := e.answers[q.ID]
		if !answered {
			answer = model.UnansweredMark
		}
		correct := answered && answer == q.CorrectOption
		if correct {
			score++
		}
		details = append(details, model.ResultDetail{
			QuestionID:    q.ID,
			Subject:       q.Subject,
			IsCorrect:     correct,
			UserAnswer:    answer,
			QuestionText:  q.Text,
			Options:       q.Options,
			CorrectOption: q.CorrectOption,
			Explanation:   q.Explanation,
		})
	}

	result := model.ExamResult{
		ID:               uuid.NewString(),
		UserID:           e.userID,
		Date:             e.clock.Now(),
		Subject:          e.commonSubject(),
		Score:            score,
		TotalQuestions:   len(e.questions),
		TimeSpentSeconds: e.budget - e.timeLeft,
		TabExitCount:     e.tabExitCount,
		Details:          details,
	}
	onFinish := e.onFinish
	e.mu.Unlock()

	if onFinish != nil {
		onFinish(result)
	}
}

// commonSubject returns the shared subject when every question agrees on
// one, otherwise "Geral". Caller holds the lock.
func (e *Engine) commonSubject() string {
	if len(e.questions) == 0 {
		return model.SubjectGeral
	}
	first := e.questions[0].Subject
	for _, q := range e.questions[1:] {
		if q.Subject != first {
			return model.SubjectGeral
		}
	}
	return string(first)
}
