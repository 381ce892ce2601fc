package posts

import (
	"slices"
	"strings"
	"sync"
)

// Cache is the in-memory working set of every post, ordered by publication
// date, newest first. It owns its copies; nothing outside sees cache state.
type Cache struct {
	mu    sync.RWMutex
	posts []*Post
}

// NewCache builds a cache from a freshly loaded post set.
func NewCache(initial []*Post) *Cache {
	c := &Cache{posts: make([]*Post, 0, len(initial))}
	for _, p := range initial {
		c.posts = append(c.posts, p.Clone())
	}
	c.sort()
	return c
}

// View calls fn with the ordered posts under the read lock. fn must not
// retain or modify the slice or its elements.
func (c *Cache) View(fn func(posts []*Post)) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	fn(c.posts)
}

// All returns copies of every post in cache order.
func (c *Cache) All() []*Post {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*Post, len(c.posts))
	for i, p := range c.posts {
		out[i] = p.Clone()
	}
	return out
}

// Get returns a copy of the post with the given id, ignoring case.
func (c *Cache) Get(id string) (*Post, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if i := c.indexOf(id); i >= 0 {
		return c.posts[i].Clone(), true
	}
	return nil, false
}

// Upsert inserts p, or replaces the cached post with the same id, and
// restores the ordering.
func (c *Cache) Upsert(p *Post) {
	cp := p.Clone()

	c.mu.Lock()
	defer c.mu.Unlock()

	if i := c.indexOf(cp.ID); i >= 0 {
		c.posts[i] = cp
	} else {
		c.posts = append(c.posts, cp)
	}
	c.sort()
}

// Remove drops the post with the given id. It reports whether one was cached.
func (c *Cache) Remove(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexOf(id)
	if i < 0 {
		return false
	}
	c.posts = slices.Delete(c.posts, i, i+1)
	return true
}

// Replace swaps the whole working set, as after a restore.
func (c *Cache) Replace(posts []*Post) {
	next := make([]*Post, 0, len(posts))
	for _, p := range posts {
		next = append(next, p.Clone())
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.posts = next
	c.sort()
}

// Len returns the number of cached posts.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.posts)
}

// indexOf must be called with mu held.
func (c *Cache) indexOf(id string) int {
	return slices.IndexFunc(c.posts, func(p *Post) bool { return strings.EqualFold(p.ID, id) })
}

// sort must be called with mu held for writing.
func (c *Cache) sort() {
	slices.SortStableFunc(c.posts, func(a, b *Post) int {
		return b.PubDate.Compare(a.PubDate)
	})
}
