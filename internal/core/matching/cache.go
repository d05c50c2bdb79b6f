package matching

import (
	"fmt"
	"sync"
	"time"
)

// Cache memoizes match results per live event for one pass, so every market
// of an event sees the same link.
type Cache struct {
	matcher *Matcher
	idx     *Index

	mu      sync.Mutex
	results map[string]Result
}

func NewCache(m *Matcher, idx *Index) *Cache {
	return &Cache{matcher: m, idx: idx, results: make(map[string]Result)}
}

func cacheKey(q Query, tol time.Duration) string {
	return fmt.Sprintf("%s|%d|%s", q.EventID, q.Segment, tol)
}

// Match is Matcher.Match with memoization. Queries without an EventID are
// not cached.
func (c *Cache) Match(q Query, tol time.Duration) Result {
	if q.EventID == "" {
		return c.matcher.Match(q, c.idx, tol)
	}
	key := cacheKey(q, tol)

	c.mu.Lock()
	defer c.mu.Unlock()
	if res, ok := c.results[key]; ok {
		return res
	}
	res := c.matcher.Match(q, c.idx, tol)
	c.results[key] = res
	return res
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.results)
}
