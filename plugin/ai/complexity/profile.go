package complexity

import (
	"container/list"
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Expertise is the self-reported or inferred skill level of a user.
type Expertise string

const (
	ExpertiseBeginner     Expertise = "beginner"
	ExpertiseIntermediate Expertise = "intermediate"
	ExpertiseAdvanced     Expertise = "advanced"
)

// UserProfile captures the behavior signals the scorer uses.
type UserProfile struct {
	UserID         string
	DaysActive     int
	Expertise      Expertise
	PowerUser      bool
	PreferredStyle string
}

// ProfileLoader builds a profile from whatever user store backs the
// deployment. It is only called on cache misses.
type ProfileLoader func(ctx context.Context, userID string) (*UserProfile, error)

// ProfileCache is a bounded LRU of user profiles. Concurrent misses for
// the same user are deduplicated so the loader runs at most once.
type ProfileCache struct {
	loader   ProfileLoader
	capacity int

	mu      sync.Mutex
	order   *list.List
	entries map[string]*list.Element

	group singleflight.Group
}

type profileEntry struct {
	userID  string
	profile *UserProfile
}

// NewProfileCache creates a profile cache holding at most capacity entries.
func NewProfileCache(loader ProfileLoader, capacity int) *ProfileCache {
	if capacity < 1 {
		capacity = 1
	}
	return &ProfileCache{
		loader:   loader,
		capacity: capacity,
		order:    list.New(),
		entries:  make(map[string]*list.Element),
	}
}

// Get returns the cached profile for userID, loading it on first use.
func (c *ProfileCache) Get(ctx context.Context, userID string) (*UserProfile, error) {
	c.mu.Lock()
	if elem, ok := c.entries[userID]; ok {
		c.order.MoveToFront(elem)
		p := elem.Value.(*profileEntry).profile
		c.mu.Unlock()
		return p, nil
	}
	c.mu.Unlock()

	v, err, _ := c.group.Do(userID, func() (any, error) {
		p, err := c.loader(ctx, userID)
		if err != nil {
			return nil, err
		}
		c.put(userID, p)
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*UserProfile), nil
}

// Invalidate drops the cached profile for userID, if present.
func (c *ProfileCache) Invalidate(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.entries[userID]; ok {
		c.order.Remove(elem)
		delete(c.entries, userID)
	}
}

// Len returns the number of cached profiles.
func (c *ProfileCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *ProfileCache) put(userID string, p *UserProfile) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.entries[userID]; ok {
		elem.Value.(*profileEntry).profile = p
		c.order.MoveToFront(elem)
		return
	}
	c.entries[userID] = c.order.PushFront(&profileEntry{userID: userID, profile: p})
	for len(c.entries) > c.capacity {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*profileEntry).userID)
	}
}
