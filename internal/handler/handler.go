// Package handler exposes the JSON HTTP API: auth, exam sessions, history,
// dashboards and the mentor views.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/tfarias/oabsim/internal/cache"
	appI18n "github.com/tfarias/oabsim/internal/i18n"
	"github.com/tfarias/oabsim/internal/llm"
	"github.com/tfarias/oabsim/internal/model"
	"github.com/tfarias/oabsim/internal/session"
	"github.com/tfarias/oabsim/internal/store"
)

// Config holds handler-level settings.
type Config struct {
	SecureCookies bool
}

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store  *store.Store
	llm    *llm.Client
	cache  *cache.Cache
	config Config

	mu     sync.Mutex
	active map[string]*activeExam
}

// activeExam is one running exam session plus the cancel for its timer goroutine.
type activeExam struct {
	engine *session.Engine
	cancel context.CancelFunc
}

// New creates a new Handler.
func New(s *store.Store, l *llm.Client, c *cache.Cache, cfg Config) *Handler {
	return &Handler{
		store:  s,
		llm:    l,
		cache:  c,
		config: cfg,
		active: make(map[string]*activeExam),
	}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", h.handleRegister)
		r.Post("/auth/login", h.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(h.requireAuth)

			r.Post("/auth/logout", h.handleLogout)
			r.Get("/auth/me", h.handleMe)

			r.Get("/theme", h.handleGetTheme)
			r.Put("/theme", h.handleSetTheme)

			r.Post("/exams", h.handleStartExam)
			r.Route("/exams/current", func(r chi.Router) {
				r.Get("/", h.handleExamState)
				r.Post("/select", h.handleSelect)
				r.Post("/advance", h.handleAdvance)
				r.Post("/retreat", h.handleRetreat)
				r.Post("/blur", h.handleBlur)
				r.Post("/focus", h.handleFocus)
				r.Post("/submit", h.handleSubmit)
			})

			r.Get("/history", h.handleHistory)
			r.Get("/history/{resultID}", h.handleHistoryResult)
			r.Get("/dashboard", h.handleDashboard)

			r.Group(func(r chi.Router) {
				r.Use(requireRole(model.UserRoleMentor))
				r.Get("/mentor/overview", h.handleMentorOverview)
				r.Get("/mentor/students", h.handleMentorStudents)
				r.Get("/mentor/students/{studentID}/history", h.handleMentorStudentHistory)
				r.Get("/mentor/students/{studentID}/dashboard", h.handleMentorStudentDashboard)
			})
		})
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

// writeError sends a localized error message under a fixed JSON shape.
func writeError(w http.ResponseWriter, r *http.Request, status int, msgID string) {
	writeJSON(w, status, map[string]string{"error": appI18n.T(r.Context(), msgID)})
}

func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

type startExamRequest struct {
	Subject      string   `json:"subject"`
	Count        int      `json:"count"`
	RecentTopics []string `json:"recentTopics"`
}

type startExamResponse struct {
	Snapshot session.Snapshot `json:"snapshot"`
	Cached   bool             `json:"cached"`
}

func (h *Handler) handleStartExam(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())

	var req startExamRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "error.invalid_request")
		return
	}
	if req.Subject == "" {
		req.Subject = model.SubjectGeral
	}
	if req.Count <= 0 {
		req.Count = model.DefaultExamSize
	}
	if len(req.RecentTopics) == 0 {
		req.RecentTopics = recentTopics(h.historyForUser(user.ID))
	}

	key := cache.Key(req.Subject, req.Count, req.RecentTopics)
	questions := h.cache.Get(key)
	cached := questions != nil
	if !cached {
		var err error
		questions, err = h.llm.GenerateQuestions(r.Context(), req.Subject, req.Count, req.RecentTopics)
		if err != nil {
			var genErr *model.GenerationError
			if errors.As(err, &genErr) {
				slog.Error("question generation failed", "subject", req.Subject, "count", req.Count, "error", err)
				writeError(w, r, http.StatusBadGateway, "error.generation_failed")
				return
			}
			writeError(w, r, http.StatusInternalServerError, "error.internal")
			return
		}
		if len(questions) > 0 {
			h.cache.Put(key, questions)
		}
	}
	if len(questions) == 0 {
		writeError(w, r, http.StatusBadGateway, "error.generation_failed")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	a := &activeExam{cancel: cancel}
	a.engine = session.New(user.ID, questions, h.finishFunc(user.ID, a))
	h.replaceActive(user.ID, a)
	go a.engine.Run(ctx)

	slog.Info("exam started", "user_id", user.ID, "subject", req.Subject, "questions", len(questions), "cached", cached)
	writeJSON(w, http.StatusCreated, startExamResponse{Snapshot: a.engine.Snapshot(), Cached: cached})
}

// recentTopics collects the subjects covered by the user's last three exams,
// deduplicated and capped at ten, to steer generation away from repetition.
func recentTopics(history []model.ExamResult) []string {
	if len(history) > 3 {
		history = history[:3]
	}
	seen := make(map[string]bool)
	var topics []string
	for _, r := range history {
		for _, d := range r.Details {
			topic := string(d.Subject)
			if topic == "" || seen[topic] {
				continue
			}
			seen[topic] = true
			topics = append(topics, topic)
			if len(topics) == 10 {
				return topics
			}
		}
	}
	return topics
}

// finishFunc builds the submit pipeline for one session: claim the registry
// slot, attach the instant diagnostic (fail soft), persist the result. A
// finish from a session that was already replaced loses the claim and its
// result is discarded; a replaced exam's timer can still fire one last
// submit after cancellation, and that result must land harmlessly.
func (h *Handler) finishFunc(userID string, a *activeExam) session.FinishFunc {
	return func(result model.ExamResult) {
		if !h.detachActive(userID, a) {
			slog.Warn("discarding result from replaced exam session", "user_id", userID, "result_id", result.ID)
			return
		}
		result.AIDiagnostic = h.llm.InstantDiagnostic(context.Background(), result)
		if err := h.store.RecordResult(userID, result); err != nil {
			slog.Error("failed to record result", "user_id", userID, "result_id", result.ID, "error", err)
		}
	}
}

func (h *Handler) replaceActive(userID string, a *activeExam) {
	h.mu.Lock()
	old := h.active[userID]
	h.active[userID] = a
	h.mu.Unlock()
	if old != nil {
		old.cancel()
	}
}

func (h *Handler) getActive(userID string) *activeExam {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.active[userID]
}

// detachActive removes a from the registry only if it is still the user's
// registered session. Reports whether the caller owned the slot.
func (h *Handler) detachActive(userID string, a *activeExam) bool {
	h.mu.Lock()
	owned := h.active[userID] == a
	if owned {
		delete(h.active, userID)
	}
	h.mu.Unlock()
	if owned {
		a.cancel()
	}
	return owned
}

// currentEngine resolves the caller's active session or writes a 404.
func (h *Handler) currentEngine(w http.ResponseWriter, r *http.Request) *session.Engine {
	user := model.UserFromContext(r.Context())
	a := h.getActive(user.ID)
	if a == nil {
		writeError(w, r, http.StatusNotFound, "error.exam_not_found")
		return nil
	}
	return a.engine
}

func (h *Handler) handleExamState(w http.ResponseWriter, r *http.Request) {
	eng := h.currentEngine(w, r)
	if eng == nil {
		return
	}
	writeJSON(w, http.StatusOK, eng.Snapshot())
}

func (h *Handler) handleSelect(w http.ResponseWriter, r *http.Request) {
	eng := h.currentEngine(w, r)
	if eng == nil {
		return
	}
	var req struct {
		Letter string `json:"letter"`
	}
	if err := decodeJSON(r, &req); err != nil || req.Letter == "" {
		writeError(w, r, http.StatusBadRequest, "error.invalid_request")
		return
	}
	eng.Select(req.Letter)
	writeJSON(w, http.StatusOK, eng.Snapshot())
}

func (h *Handler) handleAdvance(w http.ResponseWriter, r *http.Request) {
	eng := h.currentEngine(w, r)
	if eng == nil {
		return
	}
	eng.Advance()
	writeJSON(w, http.StatusOK, eng.Snapshot())
}

func (h *Handler) handleRetreat(w http.ResponseWriter, r *http.Request) {
	eng := h.currentEngine(w, r)
	if eng == nil {
		return
	}
	eng.Retreat()
	writeJSON(w, http.StatusOK, eng.Snapshot())
}

func (h *Handler) handleBlur(w http.ResponseWriter, r *http.Request) {
	eng := h.currentEngine(w, r)
	if eng == nil {
		return
	}
	eng.Blur()
	writeJSON(w, http.StatusOK, eng.Snapshot())
}

func (h *Handler) handleFocus(w http.ResponseWriter, r *http.Request) {
	eng := h.currentEngine(w, r)
	if eng == nil {
		return
	}
	eng.Focus()
	writeJSON(w, http.StatusOK, eng.Snapshot())
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	eng := h.currentEngine(w, r)
	if eng == nil {
		return
	}

	// Submit runs the finish pipeline synchronously, so the freshest history
	// entry is the result of this very session.
	eng.Submit()

	history, err := h.store.ResultsForUser(user.ID)
	if err != nil || len(history) == 0 {
		slog.Error("result missing after submit", "user_id", user.ID, "error", err)
		writeError(w, r, http.StatusInternalServerError, "error.internal")
		return
	}
	writeJSON(w, http.StatusOK, history[0])
}
