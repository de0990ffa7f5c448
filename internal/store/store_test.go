package store

import (
	"fmt"
	"testing"
	"time"

	"github.com/tfarias/oabsim/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("newTestStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func createTestUser(t *testing.T, s *Store, id, email string, role model.UserRole) model.UserProfile {
	t.Helper()
	u := model.UserProfile{
		ID:           id,
		Name:         "User " + id,
		Email:        email,
		PasswordHash: "hash-" + id,
		Role:         role,
	}
	if err := s.CreateUser(u); err != nil {
		t.Fatalf("createTestUser: %v", err)
	}
	return u
}

func testResult(id string, score int) model.ExamResult {
	return model.ExamResult{
		ID:             id,
		Date:           time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC),
		Subject:        "Geral",
		Score:          score,
		TotalQuestions: 10,
		Details: []model.ResultDetail{
			{QuestionID: "q1", Subject: model.SubjectEtica, IsCorrect: score > 0, UserAnswer: "A"},
		},
		AIDiagnostic: "diagnóstico " + id,
	}
}

func TestUserCRUD(t *testing.T) {
	s := newTestStore(t)

	count, err := s.UserCount()
	if err != nil {
		t.Fatalf("UserCount: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 users, got %d", count)
	}

	createTestUser(t, s, "u1", "Ana@Example.com", model.UserRoleStudent)

	// Lookup is case-insensitive and the stored email is normalized.
	u, err := s.GetUserByEmail("ana@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if u == nil {
		t.Fatal("expected user, got nil")
	}
	if u.Email != "ana@example.com" {
		t.Errorf("expected normalized email, got %q", u.Email)
	}
	if u.PasswordHash != "hash-u1" {
		t.Errorf("expected password hash to round-trip, got %q", u.PasswordHash)
	}

	byID, err := s.GetUserByID("u1")
	if err != nil || byID == nil {
		t.Fatalf("GetUserByID: %v, %v", byID, err)
	}

	missing, err := s.GetUserByID("nope")
	if err != nil {
		t.Fatalf("GetUserByID missing: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for missing user")
	}
}

func TestDuplicateEmailRejected(t *testing.T) {
	s := newTestStore(t)
	createTestUser(t, s, "u1", "ana@example.com", model.UserRoleStudent)

	err := s.CreateUser(model.UserProfile{
		ID:           "u2",
		Name:         "Impostora",
		Email:        "ANA@example.com",
		PasswordHash: "x",
		Role:         model.UserRoleStudent,
	})
	if err == nil {
		t.Fatal("expected duplicate email to be rejected")
	}

	// The rejected registration must leave no profile behind.
	count, err := s.UserCount()
	if err != nil {
		t.Fatalf("UserCount: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 user after rejection, got %d", count)
	}
}

func TestListStudents(t *testing.T) {
	s := newTestStore(t)
	createTestUser(t, s, "u1", "a@example.com", model.UserRoleStudent)
	createTestUser(t, s, "u2", "m@example.com", model.UserRoleMentor)
	createTestUser(t, s, "u3", "b@example.com", model.UserRoleStudent)

	students, err := s.ListStudents()
	if err != nil {
		t.Fatalf("ListStudents: %v", err)
	}
	if len(students) != 2 {
		t.Fatalf("expected 2 students, got %d", len(students))
	}
	for _, st := range students {
		if st.Role != model.UserRoleStudent {
			t.Errorf("unexpected role %q in student list", st.Role)
		}
	}
}

func TestRecordResultPrepends(t *testing.T) {
	s := newTestStore(t)
	createTestUser(t, s, "u1", "a@example.com", model.UserRoleStudent)

	for i := 1; i <= 3; i++ {
		if err := s.RecordResult("u1", testResult(fmt.Sprintf("r%d", i), i)); err != nil {
			t.Fatalf("RecordResult r%d: %v", i, err)
		}
	}

	history, err := s.ResultsForUser("u1")
	if err != nil {
		t.Fatalf("ResultsForUser: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("expected 3 results, got %d", len(history))
	}
	// Most recent first: the last insert sits at the head.
	want := []string{"r3", "r2", "r1"}
	for i, r := range history {
		if r.ID != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], r.ID)
		}
	}
	if history[0].AIDiagnostic != "diagnóstico r3" {
		t.Errorf("diagnostic did not round-trip: %q", history[0].AIDiagnostic)
	}
	if len(history[0].Details) != 1 || history[0].Details[0].QuestionID != "q1" {
		t.Errorf("details did not round-trip: %+v", history[0].Details)
	}
}

func TestGetResult(t *testing.T) {
	s := newTestStore(t)
	createTestUser(t, s, "u1", "a@example.com", model.UserRoleStudent)
	if err := s.RecordResult("u1", testResult("r1", 5)); err != nil {
		t.Fatalf("RecordResult: %v", err)
	}

	r, err := s.GetResult("r1")
	if err != nil {
		t.Fatalf("GetResult: %v", err)
	}
	if r == nil || r.Score != 5 || r.UserID != "u1" {
		t.Fatalf("unexpected result: %+v", r)
	}

	missing, err := s.GetResult("nope")
	if err != nil {
		t.Fatalf("GetResult missing: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for missing result")
	}
}

func TestCorruptDetailsDropped(t *testing.T) {
	s := newTestStore(t)
	createTestUser(t, s, "u1", "a@example.com", model.UserRoleStudent)
	if err := s.RecordResult("u1", testResult("good", 5)); err != nil {
		t.Fatalf("RecordResult: %v", err)
	}

	_, err := s.db.Exec(
		`INSERT INTO results (id, user_id, position, date, subject, score, total_questions, time_spent_seconds, details)
		 VALUES ('bad', 'u1', 99, ?, 'Geral', 0, 10, 0, 'not json')`, time.Now(),
	)
	if err != nil {
		t.Fatalf("insert corrupt row: %v", err)
	}

	history, err := s.ResultsForUser("u1")
	if err != nil {
		t.Fatalf("ResultsForUser: %v", err)
	}
	if len(history) != 1 || history[0].ID != "good" {
		t.Errorf("expected corrupt row to be dropped, got %+v", history)
	}

	// Single-result lookup degrades the same way as the list readers.
	got, err := s.GetResult("bad")
	if err != nil {
		t.Fatalf("GetResult: %v", err)
	}
	if got != nil {
		t.Errorf("expected corrupt result to be dropped, got %+v", got)
	}
}

func TestLoadAll(t *testing.T) {
	s := newTestStore(t)
	createTestUser(t, s, "u1", "a@example.com", model.UserRoleStudent)
	createTestUser(t, s, "u2", "b@example.com", model.UserRoleStudent)

	_ = s.RecordResult("u1", testResult("r1", 1))
	_ = s.RecordResult("u1", testResult("r2", 2))
	_ = s.RecordResult("u2", testResult("r3", 3))

	all, err := s.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 users in map, got %d", len(all))
	}
	if len(all["u1"]) != 2 || all["u1"][0].ID != "r2" {
		t.Errorf("u1 history wrong: %+v", all["u1"])
	}
	if len(all["u2"]) != 1 {
		t.Errorf("u2 history wrong: %+v", all["u2"])
	}

	count, err := s.ResultCount()
	if err != nil {
		t.Fatalf("ResultCount: %v", err)
	}
	if count != 3 {
		t.Errorf("expected 3 results, got %d", count)
	}
}

func TestAuthSessions(t *testing.T) {
	s := newTestStore(t)
	createTestUser(t, s, "u1", "a@example.com", model.UserRoleStudent)

	token, err := s.CreateAuthSession("u1")
	if err != nil {
		t.Fatalf("CreateAuthSession: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}

	sess, err := s.GetAuthSession(token)
	if err != nil {
		t.Fatalf("GetAuthSession: %v", err)
	}
	if sess == nil || sess.UserID != "u1" {
		t.Fatalf("unexpected session: %+v", sess)
	}

	if err := s.DeleteAuthSession(token); err != nil {
		t.Fatalf("DeleteAuthSession: %v", err)
	}
	sess, err = s.GetAuthSession(token)
	if err != nil {
		t.Fatalf("GetAuthSession after delete: %v", err)
	}
	if sess != nil {
		t.Error("expected nil after delete")
	}
}

func TestExpiredAuthSession(t *testing.T) {
	s := newTestStore(t)
	createTestUser(t, s, "u1", "a@example.com", model.UserRoleStudent)

	token, err := s.CreateAuthSession("u1")
	if err != nil {
		t.Fatalf("CreateAuthSession: %v", err)
	}
	_, err = s.db.Exec(`UPDATE auth_sessions SET expires_at = ? WHERE id = ?`,
		time.Now().Add(-time.Hour), token)
	if err != nil {
		t.Fatalf("expire session: %v", err)
	}

	sess, err := s.GetAuthSession(token)
	if err != nil {
		t.Fatalf("GetAuthSession: %v", err)
	}
	if sess != nil {
		t.Error("expected expired session to be nil")
	}
}

func TestTheme(t *testing.T) {
	s := newTestStore(t)

	theme, err := s.GetTheme()
	if err != nil {
		t.Fatalf("GetTheme: %v", err)
	}
	if theme != model.ThemeLight {
		t.Errorf("expected light default, got %q", theme)
	}

	if err := s.SetTheme(model.ThemeDark); err != nil {
		t.Fatalf("SetTheme: %v", err)
	}
	theme, err = s.GetTheme()
	if err != nil {
		t.Fatalf("GetTheme: %v", err)
	}
	if theme != model.ThemeDark {
		t.Errorf("expected dark, got %q", theme)
	}
}

func TestExportAll(t *testing.T) {
	s := newTestStore(t)
	createTestUser(t, s, "u1", "a@example.com", model.UserRoleStudent)
	_ = s.RecordResult("u1", testResult("r1", 5))

	export, err := s.ExportAll()
	if err != nil {
		t.Fatalf("ExportAll: %v", err)
	}
	if export.UserCount != 1 || len(export.Users) != 1 {
		t.Fatalf("unexpected export: %+v", export)
	}
	if len(export.Users[0].Results) != 1 || export.Users[0].Results[0].ID != "r1" {
		t.Errorf("results missing from export: %+v", export.Users[0])
	}
}
