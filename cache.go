package pubsite

import (
	"sync"
	"time"

	"github.com/eringen/pubsite/content"
)

// PostCache is an in-memory snapshot of the content store with a TTL.
// It satisfies page.Resolver. Neighbors are still derived per call from
// the cached sorted post list.
type PostCache struct {
	mu      sync.RWMutex
	snap    *content.Snapshot
	fetched time.Time
	ttl     time.Duration
	store   *content.Store
	now     func() time.Time
}

// NewPostCache creates a PostCache backed by the given Store.
func NewPostCache(s *content.Store, ttl time.Duration) *PostCache {
	return &PostCache{store: s, ttl: ttl, now: time.Now}
}

func (c *PostCache) valid() bool {
	return c.snap != nil && c.now().Sub(c.fetched) < c.ttl
}

// Invalidate drops the snapshot so the next read reloads the store.
func (c *PostCache) Invalidate() {
	c.mu.Lock()
	c.snap = nil
	c.mu.Unlock()
}

// Snapshot returns a fresh-enough snapshot. It takes a read lock first and
// only takes the write lock when a reload is needed.
func (c *PostCache) Snapshot() (*content.Snapshot, error) {
	c.mu.RLock()
	if c.valid() {
		snap := c.snap
		c.mu.RUnlock()
		return snap, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.valid() {
		return c.snap, nil
	}
	snap, err := c.store.Load()
	if err != nil {
		return nil, err
	}
	c.snap = snap
	c.fetched = c.now()
	return snap, nil
}

// ListSlugs returns every slug, including posts that failed to parse.
func (c *PostCache) ListSlugs() ([]string, error) {
	snap, err := c.Snapshot()
	if err != nil {
		return nil, err
	}
	return snap.Slugs(), nil
}

// GetBySlug returns one post from the snapshot.
func (c *PostCache) GetBySlug(slug string) (content.Post, error) {
	snap, err := c.Snapshot()
	if err != nil {
		return content.Post{}, err
	}
	return snap.Get(slug)
}

// GetNeighbors returns the older and newer posts around slug.
func (c *PostCache) GetNeighbors(slug string) (content.Neighbors, error) {
	snap, err := c.Snapshot()
	if err != nil {
		return content.Neighbors{}, err
	}
	return snap.Neighbors(slug), nil
}

// ListPosts returns the well-formed posts, newest first.
func (c *PostCache) ListPosts() ([]content.Post, error) {
	snap, err := c.Snapshot()
	if err != nil {
		return nil, err
	}
	return snap.Posts(), nil
}
