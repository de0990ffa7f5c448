// Package stats computes derived dashboard views over stored exam results.
// Every function here is pure: same inputs, same outputs, no side effects.
package stats

import (
	"sort"
	"strings"
	"time"

	"github.com/tfarias/oabsim/internal/model"
)

// weeklyWindow bounds the student dashboard to the last seven days.
const weeklyWindow = 7 * 24 * time.Hour

// SubjectAccuracy is the per-subject breakdown on the weekly dashboard.
type SubjectAccuracy struct {
	Subject  model.Subject `json:"subject"`
	Accuracy int           `json:"accuracy"`
	Count    int           `json:"count"`
}

// WeeklyStats summarizes a student's last seven days.
type WeeklyStats struct {
	TotalExams     int               `json:"totalExams"`
	TotalQuestions int               `json:"totalQuestions"`
	Accuracy       int               `json:"accuracy"`
	Subjects       []SubjectAccuracy `json:"subjects"`
}

// Weekly filters history to results dated within the last seven days of now
// and aggregates them. Accuracy is question-weighted: total correct answers
// over total questions across the filtered set, not an average of per-exam
// percentages. The per-subject breakdown is sorted by accuracy descending.
func Weekly(history []model.ExamResult, now time.Time) WeeklyStats {
	cutoff := now.Add(-weeklyWindow)

	var stats WeeklyStats
	totalCorrect := 0
	type bucket struct{ correct, total int }
	subjects := make(map[model.Subject]*bucket)

	for _, r := range history {
		if r.Date.Before(cutoff) {
			continue
		}
		stats.TotalExams++
		stats.TotalQuestions += r.TotalQuestions
		totalCorrect += r.Score
		for _, d := range r.Details {
			b := subjects[d.Subject]
			if b == nil {
				b = &bucket{}
				subjects[d.Subject] = b
			}
			b.total++
			if d.IsCorrect {
				b.correct++
			}
		}
	}

	if stats.TotalQuestions > 0 {
		stats.Accuracy = roundPercent(totalCorrect, stats.TotalQuestions)
	}
	for subject, b := range subjects {
		stats.Subjects = append(stats.Subjects, SubjectAccuracy{
			Subject:  subject,
			Accuracy: roundPercent(b.correct, b.total),
			Count:    b.total,
		})
	}
	sort.Slice(stats.Subjects, func(i, j int) bool {
		if stats.Subjects[i].Accuracy != stats.Subjects[j].Accuracy {
			return stats.Subjects[i].Accuracy > stats.Subjects[j].Accuracy
		}
		return stats.Subjects[i].Subject < stats.Subjects[j].Subject
	})
	return stats
}

// MentorOverview aggregates all students' results for the mentor dashboard.
type MentorOverview struct {
	TotalStudents int             `json:"totalStudents"`
	TotalExams    int             `json:"totalExams"`
	AvgScore      int             `json:"avgScore"`
	TopMissed     []model.Subject `json:"topMissed"`
}

// Overview flattens every student's results. AvgScore is exam-weighted: the
// mean of per-exam score ratios, so a 10-question exam counts as much as an
// 80-question one. This intentionally differs from the question-weighted
// weekly accuracy; the two dashboards answer different questions. TopMissed
// ranks subjects by raw error count, not error rate, and keeps the top three.
func Overview(students []model.UserProfile, allResults map[string][]model.ExamResult) MentorOverview {
	var flat []model.ExamResult
	for _, results := range allResults {
		flat = append(flat, results...)
	}

	overview := MentorOverview{
		TotalStudents: len(students),
		TotalExams:    len(flat),
	}

	var ratioSum float64
	errorCounts := make(map[model.Subject]int)
	for _, r := range flat {
		if r.TotalQuestions > 0 {
			ratioSum += float64(r.Score) / float64(r.TotalQuestions)
		}
		for _, d := range r.Details {
			if !d.IsCorrect {
				errorCounts[d.Subject]++
			}
		}
	}
	if len(flat) > 0 {
		overview.AvgScore = int(ratioSum/float64(len(flat))*100 + 0.5)
	}

	type missed struct {
		subject model.Subject
		count   int
	}
	ranked := make([]missed, 0, len(errorCounts))
	for subject, count := range errorCounts {
		ranked = append(ranked, missed{subject, count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].subject < ranked[j].subject
	})
	if len(ranked) > 3 {
		ranked = ranked[:3]
	}
	for _, m := range ranked {
		overview.TopMissed = append(overview.TopMissed, m.subject)
	}
	return overview
}

// SortOrder selects how a history list is ordered.
type SortOrder string

const (
	SortNewest    SortOrder = "newest"
	SortOldest    SortOrder = "oldest"
	SortScoreHigh SortOrder = "score-high"
	SortScoreLow  SortOrder = "score-low"
)

// FilterHistory returns a new slice filtered by subject ("" or "all" keeps
// everything) and sorted by the given order. The input is not modified.
func FilterHistory(history []model.ExamResult, subject string, order SortOrder) []model.ExamResult {
	list := make([]model.ExamResult, 0, len(history))
	for _, r := range history {
		if subject != "" && subject != "all" && r.Subject != subject {
			continue
		}
		list = append(list, r)
	}

	ratio := func(r model.ExamResult) float64 {
		if r.TotalQuestions == 0 {
			return 0
		}
		return float64(r.Score) / float64(r.TotalQuestions)
	}
	switch order {
	case SortOldest:
		sort.SliceStable(list, func(i, j int) bool { return list[i].Date.Before(list[j].Date) })
	case SortScoreHigh:
		sort.SliceStable(list, func(i, j int) bool { return ratio(list[i]) > ratio(list[j]) })
	case SortScoreLow:
		sort.SliceStable(list, func(i, j int) bool { return ratio(list[i]) < ratio(list[j]) })
	default: // SortNewest
		sort.SliceStable(list, func(i, j int) bool { return list[i].Date.After(list[j].Date) })
	}
	return list
}

// PerfFilter selects students by their average performance.
type PerfFilter string

const (
	PerfAll   PerfFilter = "all"
	PerfAbove PerfFilter = "above"
	PerfBelow PerfFilter = "below"
)

// RecencyFilter selects students by the date of their latest exam.
type RecencyFilter string

const (
	RecencyAll   RecencyFilter = "all"
	RecencyWeek  RecencyFilter = "week"
	RecencyMonth RecencyFilter = "month"
)

// ExamCountFilter selects students by how many exams they have taken.
type ExamCountFilter string

const (
	CountAll      ExamCountFilter = "all"
	CountNone     ExamCountFilter = "none"
	CountAtLeast1 ExamCountFilter = "atleast1"
	CountAtLeast5 ExamCountFilter = "atleast5"
)

// StudentFilters bundles the mentor student-list filters.
type StudentFilters struct {
	Search    string
	Perf      PerfFilter
	ExamCount ExamCountFilter
	Recency   RecencyFilter
}

// FilterStudents applies the mentor list filters. Search matches name or
// email case-insensitively. The performance split is at 50% exam-weighted
// average; recency is measured from the most recent result's date, which is
// always history[0].
func FilterStudents(students []model.UserProfile, allResults map[string][]model.ExamResult, f StudentFilters, now time.Time) []model.UserProfile {
	search := strings.ToLower(f.Search)
	var out []model.UserProfile

	for _, s := range students {
		results := allResults[s.ID]

		if search != "" &&
			!strings.Contains(strings.ToLower(s.Name), search) &&
			!strings.Contains(strings.ToLower(s.Email), search) {
			continue
		}

		avg := StudentAverage(results)
		if f.Perf == PerfAbove && avg < 50 {
			continue
		}
		if f.Perf == PerfBelow && (avg >= 50 || len(results) == 0) {
			continue
		}

		switch f.ExamCount {
		case CountNone:
			if len(results) > 0 {
				continue
			}
		case CountAtLeast1:
			if len(results) < 1 {
				continue
			}
		case CountAtLeast5:
			if len(results) < 5 {
				continue
			}
		}

		if f.Recency == RecencyWeek || f.Recency == RecencyMonth {
			if len(results) == 0 {
				continue
			}
			age := now.Sub(results[0].Date)
			if f.Recency == RecencyWeek && age > weeklyWindow {
				continue
			}
			if f.Recency == RecencyMonth && age > 30*24*time.Hour {
				continue
			}
		}

		out = append(out, s)
	}
	return out
}

// StudentAverage is the exam-weighted average accuracy of one student's
// history, as a rounded percentage. Empty histories average to zero.
func StudentAverage(results []model.ExamResult) int {
	if len(results) == 0 {
		return 0
	}
	var sum float64
	for _, r := range results {
		if r.TotalQuestions > 0 {
			sum += float64(r.Score) / float64(r.TotalQuestions)
		}
	}
	return int(sum/float64(len(results))*100 + 0.5)
}

func roundPercent(part, whole int) int {
	return int(float64(part)/float64(whole)*100 + 0.5)
}
