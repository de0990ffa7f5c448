// Package cache memoizes generated question sets so that identical requests
// inside a short window do not hit the generation service again. It is an
// optimization, not a correctness-critical store: entries expire after a
// fixed TTL and there is no capacity bound.
package cache

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/tfarias/oabsim/internal/model"
)

// DefaultTTL is the validity window for a cached question set.
const DefaultTTL = 5 * time.Minute

// keyTopics bounds how many recent topics participate in the cache key.
// Topic diversity affects generation output, so topics must be part of the
// identity, but only a short prefix to keep key cardinality low.
const keyTopics = 3

type entry struct {
	questions []model.Question
	storedAt  time.Time
}

// Cache is a TTL-bounded question-set cache safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time
}

// New creates a cache with the given TTL; ttl <= 0 selects DefaultTTL.
func New(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Key builds the deterministic composite cache key from the request
// parameters: subject, count and up to the first three recent topics.
func Key(subject string, count int, recentTopics []string) string {
	topics := recentTopics
	if len(topics) > keyTopics {
		topics = topics[:keyTopics]
	}
	parts := append([]string{subject, strconv.Itoa(count)}, topics...)
	return strings.Join(parts, "_")
}

// Get returns the cached question set for key, or nil when absent or
// expired. Expired entries are evicted lazily here; no background sweep.
func (c *Cache) Get(key string) []model.Question {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil
	}
	if c.now().Sub(e.storedAt) >= c.ttl {
		delete(c.entries, key)
		return nil
	}
	return e.questions
}

// Put stores a question set under key, restarting its TTL window.
func (c *Cache) Put(key string, questions []model.Question) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{questions: questions, storedAt: c.now()}
}
