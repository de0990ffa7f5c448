package cache

import (
	"testing"
	"time"

	"github.com/tfarias/oabsim/internal/model"
)

func TestKey(t *testing.T) {
	tests := []struct {
		name    string
		subject string
		count   int
		topics  []string
		want    string
	}{
		{"no topics", "Geral", 80, nil, "Geral_80"},
		{"one topic", "Direito Civil", 10, []string{"contratos"}, "Direito Civil_10_contratos"},
		{"three topics", "Geral", 10, []string{"a", "b", "c"}, "Geral_10_a_b_c"},
		{"topics truncated to three", "Geral", 10, []string{"a", "b", "c", "d", "e"}, "Geral_10_a_b_c"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Key(tt.subject, tt.count, tt.topics); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestGetPutWithinTTL(t *testing.T) {
	c := New(0)
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	questions := []model.Question{{ID: "q1", Subject: model.SubjectEtica}}
	key := Key("Ética Profissional", 10, nil)

	if got := c.Get(key); got != nil {
		t.Fatalf("expected miss on empty cache, got %d questions", len(got))
	}

	c.Put(key, questions)
	now = now.Add(4 * time.Minute)
	got := c.Get(key)
	if len(got) != 1 || got[0].ID != "q1" {
		t.Fatalf("expected cached set within TTL, got %v", got)
	}
}

func TestExpiryEvictsLazily(t *testing.T) {
	c := New(0)
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	key := Key("Geral", 10, []string{"t1"})
	c.Put(key, []model.Question{{ID: "q1"}})

	now = now.Add(DefaultTTL)
	if got := c.Get(key); got != nil {
		t.Fatalf("expected expiry at TTL boundary, got %v", got)
	}
	if _, ok := c.entries[key]; ok {
		t.Error("expired entry should be evicted on read")
	}
}

func TestPutRestartsTTL(t *testing.T) {
	c := New(0)
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	key := Key("Geral", 10, nil)
	c.Put(key, []model.Question{{ID: "old"}})

	now = now.Add(4 * time.Minute)
	c.Put(key, []model.Question{{ID: "new"}})

	// 4 more minutes: past the first write's window, inside the second's.
	now = now.Add(4 * time.Minute)
	got := c.Get(key)
	if len(got) != 1 || got[0].ID != "new" {
		t.Fatalf("expected refreshed entry, got %v", got)
	}
}
