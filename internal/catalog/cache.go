package catalog

import (
	"context"
	"slices"
	"sync"
	"time"

	"space-trips/internal/models"
)

// Cache holds normalized launches keyed by flight number, plus the ordered id list of
// the whole collection. Get and GetIndex return nil, nil on a miss.
// Implementations must be safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, id int) (*models.Launch, error)
	Set(ctx context.Context, launches ...models.Launch) error
	GetIndex(ctx context.Context) ([]int, error)
	SetIndex(ctx context.Context, ids []int) error
}

type memoryEntry struct {
	launch  models.Launch
	expires time.Time
}

// MemoryCache is an in-process Cache. A ttl <= 0 keeps entries forever.
type MemoryCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[int]memoryEntry
	index   []int
	indexAt time.Time
	now     func() time.Time
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		ttl:     ttl,
		entries: make(map[int]memoryEntry),
		now:     time.Now,
	}
}

func (c *MemoryCache) Get(_ context.Context, id int) (*models.Launch, error) {
	c.mu.RLock()
	entry, ok := c.entries[id]
	c.mu.RUnlock()

	if !ok {
		return nil, nil
	}
	if c.ttl > 0 && !c.now().Before(entry.expires) {
		return nil, nil
	}
	launch := entry.launch
	return &launch, nil
}

func (c *MemoryCache) Set(_ context.Context, launches ...models.Launch) error {
	expires := c.now().Add(c.ttl)

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, l := range launches {
		l.IsBooked = false
		c.entries[l.ID] = memoryEntry{launch: l, expires: expires}
	}
	return nil
}

func (c *MemoryCache) GetIndex(_ context.Context) ([]int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.index == nil {
		return nil, nil
	}
	if c.ttl > 0 && !c.now().Before(c.indexAt.Add(c.ttl)) {
		return nil, nil
	}
	return slices.Clone(c.index), nil
}

func (c *MemoryCache) SetIndex(_ context.Context, ids []int) error {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.index = append(make([]int, 0, len(ids)), ids...)
	c.indexAt = now
	return nil
}

// Len reports the number of stored entries, expired ones included.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

var _ Cache = (*MemoryCache)(nil)
