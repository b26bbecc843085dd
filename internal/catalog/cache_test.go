package catalog

import (
	"context"
	"sync"
	"testing"
	"time"

	"space-trips/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache_GetSet(t *testing.T) {
	c := NewMemoryCache(time.Minute)
	ctx := context.Background()

	got, err := c.Get(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, c.Set(ctx, models.Launch{ID: 1, Cursor: "1", IsBooked: true}, models.Launch{ID: 2, Cursor: "2"}))
	assert.Equal(t, 2, c.Len())

	got, err = c.Get(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 1, got.ID)
	assert.False(t, got.IsBooked, "per-user booking state is never cached")
}

func TestMemoryCache_Expires(t *testing.T) {
	c := NewMemoryCache(time.Minute)
	now := time.Date(2049, time.December, 25, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, models.Launch{ID: 1}))

	now = now.Add(59 * time.Second)
	got, _ := c.Get(ctx, 1)
	assert.NotNil(t, got)

	now = now.Add(time.Second)
	got, _ = c.Get(ctx, 1)
	assert.Nil(t, got)
}

func TestMemoryCache_NoTTLKeepsEntries(t *testing.T) {
	c := NewMemoryCache(0)
	now := time.Now()
	c.now = func() time.Time { return now }
	require.NoError(t, c.Set(context.Background(), models.Launch{ID: 1}))

	now = now.Add(24 * time.Hour)
	got, _ := c.Get(context.Background(), 1)
	assert.NotNil(t, got)
}

func TestMemoryCache_ReturnsCopies(t *testing.T) {
	c := NewMemoryCache(0)
	require.NoError(t, c.Set(context.Background(), models.Launch{ID: 1}))

	got, _ := c.Get(context.Background(), 1)
	got.IsBooked = true

	again, _ := c.Get(context.Background(), 1)
	assert.False(t, again.IsBooked)
}

func TestMemoryCache_ConcurrentAccess(t *testing.T) {
	c := NewMemoryCache(time.Minute)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(id int) {
			defer wg.Done()
			_ = c.Set(ctx, models.Launch{ID: id % 5})
		}(i)
		go func(id int) {
			defer wg.Done()
			_, _ = c.Get(ctx, id%5)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 5, c.Len())
}

func TestLaunchKey(t *testing.T) {
	assert.Equal(t, "spacetrips:launch:42", LaunchKey(42))
}

// unreachableRedis points at a closed local port so every command fails fast.
func unreachableRedis(t *testing.T) *redis.Client {
	t.Helper()
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { client.Close() })
	return client
}

func TestRedisCache_ErrorsWhenUnreachable(t *testing.T) {
	c := NewRedisCache(unreachableRedis(t), time.Minute)

	_, err := c.Get(context.Background(), 1)
	assert.Error(t, err)

	assert.Error(t, c.Set(context.Background(), models.Launch{ID: 1}))
	assert.NoError(t, c.Set(context.Background()), "empty set is a no-op")
}

func TestMemoryCache_Index(t *testing.T) {
	c := NewMemoryCache(time.Minute)
	now := time.Date(2049, time.December, 25, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	ids, err := c.GetIndex(ctx)
	require.NoError(t, err)
	assert.Nil(t, ids)

	in := []int{1, 2, 3}
	require.NoError(t, c.SetIndex(ctx, in))
	in[0] = 99

	ids, err = c.GetIndex(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, ids)

	ids[1] = 42
	ids, _ = c.GetIndex(ctx)
	assert.Equal(t, []int{1, 2, 3}, ids, "callers get a copy")

	now = now.Add(time.Minute)
	ids, _ = c.GetIndex(ctx)
	assert.Nil(t, ids)
}

func TestMemoryCache_EmptyIndexIsAHit(t *testing.T) {
	c := NewMemoryCache(0)
	require.NoError(t, c.SetIndex(context.Background(), nil))

	ids, err := c.GetIndex(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, ids)
	assert.Empty(t, ids)
}

func TestRedisCache_IndexErrorsWhenUnreachable(t *testing.T) {
	c := NewRedisCache(unreachableRedis(t), time.Minute)

	_, err := c.GetIndex(context.Background())
	assert.Error(t, err)
	assert.Error(t, c.SetIndex(context.Background(), []int{1}))
}
