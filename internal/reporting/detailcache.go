package reporting

import (
	"context"
	"sync"

	"github.com/odyssey-erp/tekstil/internal/textile"
)

// FetchFunc loads one document detail by id.
type FetchFunc func(ctx context.Context, id int64) (textile.Document, error)

// DetailCache memoises document details by id for the duration of one
// assemble call. Failed fetches are not cached.
type DetailCache struct {
	fetch FetchFunc

	mu   sync.Mutex
	docs map[int64]textile.Document
}

// NewDetailCache builds an empty cache over fetch.
func NewDetailCache(fetch FetchFunc) *DetailCache {
	return &DetailCache{fetch: fetch, docs: make(map[int64]textile.Document)}
}

// Get returns the cached detail or fetches it.
func (c *DetailCache) Get(ctx context.Context, id int64) (textile.Document, error) {
	c.mu.Lock()
	doc, ok := c.docs[id]
	c.mu.Unlock()
	if ok {
		return doc, nil
	}
	doc, err := c.fetch(ctx, id)
	if err != nil {
		return textile.Document{}, err
	}
	c.mu.Lock()
	c.docs[id] = doc
	c.mu.Unlock()
	return doc, nil
}

// Len reports the number of cached details.
func (c *DetailCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.docs)
}
