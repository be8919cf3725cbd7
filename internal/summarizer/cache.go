package summarizer

import (
	"container/list"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"time"
)

// CachingSummarizer remembers one-shot summaries by snippet text so that
// resubmitting the same text does not call the provider again. Streams are
// passed through uncached.
type CachingSummarizer struct {
	next  Summarizer
	cache *summaryCache
	ttl   time.Duration
	now   func() time.Time
}

// NewCachingSummarizer wraps next. A non-positive size or ttl disables
// caching and returns next unchanged.
func NewCachingSummarizer(next Summarizer, size int, ttl time.Duration) Summarizer {
	if size <= 0 || ttl <= 0 {
		return next
	}

	return &CachingSummarizer{
		next:  next,
		cache: newSummaryCache(size),
		ttl:   ttl,
		now:   time.Now,
	}
}

func (c *CachingSummarizer) Summarize(ctx context.Context, input Input) (string, error) {
	key := summaryCacheKey(input.Text)
	now := c.now()

	if summary, ok := c.cache.get(key, now); ok {
		return summary, nil
	}

	summary, err := c.next.Summarize(ctx, input)
	if err != nil {
		return "", err
	}

	c.cache.set(key, summary, now.Add(c.ttl), now)

	return summary, nil
}

func (c *CachingSummarizer) SummarizeStream(ctx context.Context, input Input) (Stream, error) {
	return c.next.SummarizeStream(ctx, input)
}

func summaryCacheKey(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}

	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

type summaryCache struct {
	mu         sync.Mutex
	entries    map[string]*list.Element
	order      *list.List
	maxEntries int
}

type summaryCacheEntry struct {
	key       string
	summary   string
	expiresAt time.Time
}

func newSummaryCache(maxEntries int) *summaryCache {
	return &summaryCache{
		entries:    make(map[string]*list.Element, maxEntries),
		order:      list.New(),
		maxEntries: maxEntries,
	}
}

func (c *summaryCache) get(key string, now time.Time) (string, bool) {
	if key == "" {
		return "", false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		return "", false
	}

	entry := elem.Value.(*summaryCacheEntry)
	if now.After(entry.expiresAt) {
		c.remove(elem)
		return "", false
	}

	c.order.MoveToFront(elem)

	return entry.summary, true
}

func (c *summaryCache) set(key, summary string, expiresAt, now time.Time) {
	if key == "" || summary == "" || !expiresAt.After(now) {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		entry := elem.Value.(*summaryCacheEntry)
		entry.summary = summary
		entry.expiresAt = expiresAt
		c.order.MoveToFront(elem)

		return
	}

	c.entries[key] = c.order.PushFront(&summaryCacheEntry{
		key:       key,
		summary:   summary,
		expiresAt: expiresAt,
	})

	for elem := c.order.Back(); elem != nil; {
		prev := elem.Prev()
		if now.After(elem.Value.(*summaryCacheEntry).expiresAt) {
			c.remove(elem)
		}
		elem = prev
	}

	for len(c.entries) > c.maxEntries {
		c.remove(c.order.Back())
	}
}

func (c *summaryCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}

func (c *summaryCache) remove(elem *list.Element) {
	delete(c.entries, elem.Value.(*summaryCacheEntry).key)
	c.order.Remove(elem)
}
