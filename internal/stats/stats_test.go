package stats

import (
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/tfarias/oabsim/internal/model"
)

var testNow = time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)

func result(daysAgo int, score, total int, subject string) model.ExamResult {
	r := model.ExamResult{
		ID:             fmt.Sprintf("%s-%d", subject, daysAgo),
		Date:           testNow.AddDate(0, 0, -daysAgo),
		Subject:        subject,
		Score:          score,
		TotalQuestions: total,
	}
	for i := 0; i < total; i++ {
		r.Details = append(r.Details, model.ResultDetail{
			Subject:   model.Subject(subject),
			IsCorrect: i < score,
		})
	}
	return r
}

func TestWeeklyQuestionWeighted(t *testing.T) {
	history := []model.ExamResult{
		result(1, 5, 10, "Geral"),
		result(2, 8, 10, "Geral"),
		result(3, 2, 10, "Geral"),
	}

	got := Weekly(history, testNow)
	if got.TotalExams != 3 {
		t.Errorf("expected 3 exams, got %d", got.TotalExams)
	}
	if got.TotalQuestions != 30 {
		t.Errorf("expected 30 questions, got %d", got.TotalQuestions)
	}
	if got.Accuracy != 50 {
		t.Errorf("expected 50%% accuracy, got %d", got.Accuracy)
	}

	// Aggregation is idempotent: same input, same output.
	again := Weekly(history, testNow)
	if !reflect.DeepEqual(got, again) {
		t.Error("repeated aggregation diverged")
	}
}

func TestWeeklyWindowExcludesOldResults(t *testing.T) {
	history := []model.ExamResult{
		result(1, 10, 10, "Geral"),
		result(8, 0, 10, "Geral"), // outside the window
	}

	got := Weekly(history, testNow)
	if got.TotalExams != 1 {
		t.Errorf("expected 1 exam inside the window, got %d", got.TotalExams)
	}
	if got.Accuracy != 100 {
		t.Errorf("expected 100%% accuracy, got %d", got.Accuracy)
	}
}

func TestWeeklySubjectsSortedByAccuracy(t *testing.T) {
	history := []model.ExamResult{
		result(1, 2, 10, string(model.SubjectCivil)),
		result(1, 9, 10, string(model.SubjectEtica)),
		result(1, 5, 10, string(model.SubjectPenal)),
	}

	got := Weekly(history, testNow)
	if len(got.Subjects) != 3 {
		t.Fatalf("expected 3 subjects, got %d", len(got.Subjects))
	}
	want := []model.Subject{model.SubjectEtica, model.SubjectPenal, model.SubjectCivil}
	for i, s := range got.Subjects {
		if s.Subject != want[i] {
			t.Errorf("position %d: expected %q, got %q", i, want[i], s.Subject)
		}
	}
}

func TestWeeklyEmptyHistory(t *testing.T) {
	got := Weekly(nil, testNow)
	if got.TotalExams != 0 || got.Accuracy != 0 || len(got.Subjects) != 0 {
		t.Errorf("expected zero stats for empty history, got %+v", got)
	}
}

func TestOverviewExamWeighted(t *testing.T) {
	students := []model.UserProfile{{ID: "s1"}, {ID: "s2"}}
	all := map[string][]model.ExamResult{
		"s1": {result(1, 1, 2, "Geral")},   // 50%
		"s2": {result(1, 80, 80, "Geral")}, // 100%
	}

	got := Overview(students, all)
	if got.TotalStudents != 2 {
		t.Errorf("expected 2 students, got %d", got.TotalStudents)
	}
	if got.TotalExams != 2 {
		t.Errorf("expected 2 exams, got %d", got.TotalExams)
	}
	// Exam-weighted: (0.5 + 1.0) / 2 = 75. Question-weighted would be 99.
	if got.AvgScore != 75 {
		t.Errorf("expected exam-weighted 75, got %d", got.AvgScore)
	}
}

func TestOverviewTopMissed(t *testing.T) {
	all := map[string][]model.ExamResult{
		"s1": {
			result(1, 0, 5, string(model.SubjectCivil)),      // 5 errors
			result(1, 2, 3, string(model.SubjectEtica)),      // 1 error
			result(1, 0, 3, string(model.SubjectPenal)),      // 3 errors
			result(1, 0, 2, string(model.SubjectTributario)), // 2 errors
		},
	}

	got := Overview(nil, all)
	want := []model.Subject{model.SubjectCivil, model.SubjectPenal, model.SubjectTributario}
	if !reflect.DeepEqual(got.TopMissed, want) {
		t.Errorf("expected top missed %v, got %v", want, got.TopMissed)
	}
}

func TestFilterHistorySubject(t *testing.T) {
	history := []model.ExamResult{
		result(1, 5, 10, string(model.SubjectCivil)),
		result(2, 5, 10, "Geral"),
		result(3, 5, 10, string(model.SubjectCivil)),
	}

	got := FilterHistory(history, string(model.SubjectCivil), SortNewest)
	if len(got) != 2 {
		t.Fatalf("expected 2 results, got %d", len(got))
	}
	for _, r := range got {
		if r.Subject != string(model.SubjectCivil) {
			t.Errorf("unexpected subject %q", r.Subject)
		}
	}

	if got := FilterHistory(history, "all", SortNewest); len(got) != 3 {
		t.Errorf("expected 'all' to keep everything, got %d", len(got))
	}
}

func TestFilterHistorySortReversal(t *testing.T) {
	history := []model.ExamResult{
		result(1, 9, 10, "Geral"),
		result(2, 1, 10, "Geral"),
		result(3, 5, 10, "Geral"),
	}

	newest := FilterHistory(history, "", SortNewest)
	oldest := FilterHistory(history, "", SortOldest)
	for i := range newest {
		if newest[i].ID != oldest[len(oldest)-1-i].ID {
			t.Fatalf("oldest is not the reverse of newest at %d", i)
		}
	}

	high := FilterHistory(history, "", SortScoreHigh)
	if high[0].Score != 9 || high[2].Score != 1 {
		t.Errorf("score-high order wrong: %d, %d, %d", high[0].Score, high[1].Score, high[2].Score)
	}
	low := FilterHistory(history, "", SortScoreLow)
	if low[0].Score != 1 || low[2].Score != 9 {
		t.Errorf("score-low order wrong: %d, %d, %d", low[0].Score, low[1].Score, low[2].Score)
	}

	// The input slice must stay untouched.
	if history[0].Score != 9 || history[2].Score != 5 {
		t.Error("input slice was reordered")
	}
}

func TestFilterStudents(t *testing.T) {
	students := []model.UserProfile{
		{ID: "s1", Name: "Ana Silva", Email: "ana@example.com"},
		{ID: "s2", Name: "Bruno Costa", Email: "bruno@example.com"},
		{ID: "s3", Name: "Carla Souza", Email: "carla@example.com"},
	}
	all := map[string][]model.ExamResult{
		"s1": {
			result(2, 8, 10, "Geral"),
			result(10, 7, 10, "Geral"),
			result(11, 7, 10, "Geral"),
			result(12, 7, 10, "Geral"),
			result(13, 7, 10, "Geral"),
		}, // avg 72%, latest 2 days ago, 5 exams
		"s2": {result(40, 2, 10, "Geral")}, // avg 20%, latest 40 days ago, 1 exam
		// s3 has no exams
	}

	tests := []struct {
		name    string
		filters StudentFilters
		want    []string
	}{
		{"no filters", StudentFilters{}, []string{"s1", "s2", "s3"}},
		{"search by name", StudentFilters{Search: "ana"}, []string{"s1"}},
		{"search by email", StudentFilters{Search: "BRUNO@"}, []string{"s2"}},
		{"above 50%", StudentFilters{Perf: PerfAbove}, []string{"s1"}},
		{"below 50%", StudentFilters{Perf: PerfBelow}, []string{"s2"}},
		{"no exams", StudentFilters{ExamCount: CountNone}, []string{"s3"}},
		{"at least one exam", StudentFilters{ExamCount: CountAtLeast1}, []string{"s1", "s2"}},
		{"at least five exams", StudentFilters{ExamCount: CountAtLeast5}, []string{"s1"}},
		{"active this week", StudentFilters{Recency: RecencyWeek}, []string{"s1"}},
		{"active this month", StudentFilters{Recency: RecencyMonth}, []string{"s1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterStudents(students, all, tt.filters, testNow)
			var ids []string
			for _, s := range got {
				ids = append(ids, s.ID)
			}
			if !reflect.DeepEqual(ids, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, ids)
			}
		})
	}
}

func TestStudentAverage(t *testing.T) {
	if got := StudentAverage(nil); got != 0 {
		t.Errorf("expected 0 for empty history, got %d", got)
	}
	results := []model.ExamResult{
		result(1, 1, 2, "Geral"),
		result(2, 10, 10, "Geral"),
	}
	if got := StudentAverage(results); got != 75 {
		t.Errorf("expected 75, got %d", got)
	}
}
