package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tfarias/oabsim/internal/model"
	"github.com/tfarias/oabsim/internal/stats"
)

// historyForUser reads a user's history, degrading to empty on read failure.
func (h *Handler) historyForUser(userID string) []model.ExamResult {
	history, err := h.store.ResultsForUser(userID)
	if err != nil {
		slog.Warn("failed to load history, serving empty", "user_id", userID, "error", err)
		return nil
	}
	return history
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	history := h.historyForUser(user.ID)

	subject := r.URL.Query().Get("subject")
	order := stats.SortOrder(r.URL.Query().Get("sort"))
	writeJSON(w, http.StatusOK, stats.FilterHistory(history, subject, order))
}

func (h *Handler) handleHistoryResult(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())

	result, err := h.store.GetResult(chi.URLParam(r, "resultID"))
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "error.internal")
		return
	}
	if result == nil || result.UserID != user.ID {
		writeError(w, r, http.StatusNotFound, "error.not_found")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type dashboardResponse struct {
	Weekly     stats.WeeklyStats `json:"weekly"`
	Diagnostic model.Diagnostic  `json:"diagnostic"`
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	history := h.historyForUser(user.ID)

	writeJSON(w, http.StatusOK, dashboardResponse{
		Weekly:     stats.Weekly(history, time.Now()),
		Diagnostic: h.llm.HistoricalDiagnostic(r.Context(), history),
	})
}

func (h *Handler) handleMentorOverview(w http.ResponseWriter, r *http.Request) {
	students, err := h.store.ListStudents()
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "error.internal")
		return
	}
	all, err := h.store.LoadAll()
	if err != nil {
		slog.Warn("failed to load results, serving empty overview", "error", err)
		all = nil
	}
	writeJSON(w, http.StatusOK, stats.Overview(students, all))
}

// studentSummary is one row of the mentor student list.
type studentSummary struct {
	model.UserProfile
	ExamCount int `json:"examCount"`
	AvgScore  int `json:"avgScore"`
}

func (h *Handler) handleMentorStudents(w http.ResponseWriter, r *http.Request) {
	students, err := h.store.ListStudents()
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "error.internal")
		return
	}
	all, err := h.store.LoadAll()
	if err != nil {
		slog.Warn("failed to load results, serving empty histories", "error", err)
		all = nil
	}

	q := r.URL.Query()
	filters := stats.StudentFilters{
		Search:    q.Get("search"),
		Perf:      stats.PerfFilter(q.Get("perf")),
		ExamCount: stats.ExamCountFilter(q.Get("exams")),
		Recency:   stats.RecencyFilter(q.Get("recency")),
	}

	filtered := stats.FilterStudents(students, all, filters, time.Now())
	summaries := make([]studentSummary, 0, len(filtered))
	for _, s := range filtered {
		summaries = append(summaries, studentSummary{
			UserProfile: s,
			ExamCount:   len(all[s.ID]),
			AvgScore:    stats.StudentAverage(all[s.ID]),
		})
	}
	writeJSON(w, http.StatusOK, summaries)
}

// mentorStudent resolves the student path param, or writes a 404.
func (h *Handler) mentorStudent(w http.ResponseWriter, r *http.Request) *model.UserProfile {
	student, err := h.store.GetUserByID(chi.URLParam(r, "studentID"))
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "error.internal")
		return nil
	}
	if student == nil || student.Role != model.UserRoleStudent {
		writeError(w, r, http.StatusNotFound, "error.not_found")
		return nil
	}
	return student
}

func (h *Handler) handleMentorStudentHistory(w http.ResponseWriter, r *http.Request) {
	student := h.mentorStudent(w, r)
	if student == nil {
		return
	}
	history := h.historyForUser(student.ID)

	subject := r.URL.Query().Get("subject")
	order := stats.SortOrder(r.URL.Query().Get("sort"))
	writeJSON(w, http.StatusOK, stats.FilterHistory(history, subject, order))
}

func (h *Handler) handleMentorStudentDashboard(w http.ResponseWriter, r *http.Request) {
	student := h.mentorStudent(w, r)
	if student == nil {
		return
	}
	history := h.historyForUser(student.ID)

	writeJSON(w, http.StatusOK, dashboardResponse{
		Weekly:     stats.Weekly(history, time.Now()),
		Diagnostic: h.llm.HistoricalDiagnostic(r.Context(), history),
	})
}

func (h *Handler) handleGetTheme(w http.ResponseWriter, r *http.Request) {
	theme, err := h.store.GetTheme()
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "error.internal")
		return
	}
	writeJSON(w, http.StatusOK, map[string]model.Theme{"theme": theme})
}

func (h *Handler) handleSetTheme(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Theme model.Theme `json:"theme"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "error.invalid_request")
		return
	}
	if req.Theme != model.ThemeLight && req.Theme != model.ThemeDark {
		writeError(w, r, http.StatusUnprocessableEntity, "error.invalid_request")
		return
	}
	if err := h.store.SetTheme(req.Theme); err != nil {
		writeError(w, r, http.StatusInternalServerError, "error.internal")
		return
	}
	writeJSON(w, http.StatusOK, map[string]model.Theme{"theme": req.Theme})
}
