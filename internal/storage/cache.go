package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// InitRedis connects a redis client, returning nil when redis is unavailable
// so callers can run without the cache layer.
func InitRedis(address string) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr: address,
	})
	if _, err := client.Ping(context.Background()).Result(); err != nil {
		log.Println("Redis not available. Running without Redis.")
		return nil
	}

	log.Println("Redis connected successfully.")
	return client
}

const cacheTTL = 24 * time.Hour

type cachedContent struct {
	Content   string    `json:"content"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CachedStore is a redis read-through cache in front of another Store
type CachedStore struct {
	inner  Store
	client *redis.Client
}

func NewCachedStore(inner Store, client *redis.Client) *CachedStore {
	return &CachedStore{inner: inner, client: client}
}

func contentKey(documentID string) string {
	return fmt.Sprintf("doc:content:%s", documentID)
}

func (s *CachedStore) Load(ctx context.Context, documentID string) (string, time.Time, error) {
	raw, err := s.client.Get(ctx, contentKey(documentID)).Result()
	if err == nil {
		var cached cachedContent
		if err := json.Unmarshal([]byte(raw), &cached); err == nil {
			return cached.Content, cached.UpdatedAt, nil
		}
	}

	content, updatedAt, err := s.inner.Load(ctx, documentID)
	if err != nil {
		return "", time.Time{}, err
	}

	s.setCache(ctx, documentID, content, updatedAt)
	return content, updatedAt, nil
}

// Save writes through to the inner store and refreshes the cache
func (s *CachedStore) Save(ctx context.Context, documentID, content string) error {
	if err := s.inner.Save(ctx, documentID, content); err != nil {
		return err
	}

	s.setCache(ctx, documentID, content, time.Now().UTC())
	return nil
}

func (s *CachedStore) setCache(ctx context.Context, documentID, content string, updatedAt time.Time) {
	payload, err := json.Marshal(cachedContent{Content: content, UpdatedAt: updatedAt})
	if err != nil {
		return
	}
	if err := s.client.Set(ctx, contentKey(documentID), payload, cacheTTL).Err(); err != nil {
		log.Printf("cache set failed for %s: %v", documentID, err)
	}
}
