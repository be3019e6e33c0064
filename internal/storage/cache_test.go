package storage

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redisLib "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

type countingStore struct {
	contents map[string]string
	loads    int
	saves    int
}

func newCountingStore() *countingStore {
	return &countingStore{contents: make(map[string]string)}
}

func (s *countingStore) Load(ctx context.Context, documentID string) (string, time.Time, error) {
	s.loads++
	content, ok := s.contents[documentID]
	if !ok {
		return "", time.Time{}, ErrNotFound
	}
	return content, time.Now().UTC(), nil
}

func (s *countingStore) Save(ctx context.Context, documentID, content string) error {
	s.saves++
	s.contents[documentID] = content
	return nil
}

func setupCache(t *testing.T) (*CachedStore, *countingStore, *miniredis.Miniredis) {
	t.Helper()
	mini, err := miniredis.Run()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(mini.Close)

	client := redisLib.NewClient(&redisLib.Options{Addr: mini.Addr()})
	inner := newCountingStore()
	return NewCachedStore(inner, client), inner, mini
}

func TestCachedStore_ReadThrough(t *testing.T) {
	cached, inner, _ := setupCache(t)
	inner.contents["doc1"] = "hello"
	ctx := context.Background()

	content, _, err := cached.Load(ctx, "doc1")
	assert.NoError(t, err)
	assert.Equal(t, "hello", content)
	assert.Equal(t, 1, inner.loads)

	// Second load is served from the cache
	content, _, err = cached.Load(ctx, "doc1")
	assert.NoError(t, err)
	assert.Equal(t, "hello", content)
	assert.Equal(t, 1, inner.loads)
}

func TestCachedStore_NotFoundPropagates(t *testing.T) {
	cached, _, _ := setupCache(t)

	_, _, err := cached.Load(context.Background(), "missing")

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCachedStore_SaveWritesThroughAndRefreshes(t *testing.T) {
	cached, inner, _ := setupCache(t)
	ctx := context.Background()

	assert.NoError(t, cached.Save(ctx, "doc1", "v1"))
	assert.Equal(t, 1, inner.saves)
	assert.Equal(t, "v1", inner.contents["doc1"])

	// The refreshed cache serves the load without touching the inner store
	content, _, err := cached.Load(ctx, "doc1")
	assert.NoError(t, err)
	assert.Equal(t, "v1", content)
	assert.Equal(t, 0, inner.loads)
}

func TestCachedStore_ExpiredEntryFallsBack(t *testing.T) {
	cached, inner, mini := setupCache(t)
	inner.contents["doc1"] = "hello"
	ctx := context.Background()

	_, _, err := cached.Load(ctx, "doc1")
	assert.NoError(t, err)

	mini.FastForward(25 * time.Hour)

	_, _, err = cached.Load(ctx, "doc1")
	assert.NoError(t, err)
	assert.Equal(t, 2, inner.loads)
}
