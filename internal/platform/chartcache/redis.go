package chartcache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// entryTTL bounds how long a pushed filling lives in the cache; the chart UI
// refreshes from the ledger well before this.
const entryTTL = 24 * time.Hour

// RedisCache writes filling zones to Redis under chart:{patient}:{tooth}.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a cache over an existing Redis client.
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// NewRedisCacheURL connects to Redis from a URL such as
// redis://localhost:6379/0.
func NewRedisCacheURL(url string) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return &RedisCache{client: redis.NewClient(opts)}, nil
}

type fillingEntry struct {
	Zones    []string `json:"zones"`
	Material string   `json:"material"`
}

// Key returns the cache key for a patient's tooth.
func Key(patientID uuid.UUID, tooth int) string {
	return fmt.Sprintf("chart:%s:%d", patientID, tooth)
}

func (c *RedisCache) PutFilling(ctx context.Context, patientID uuid.UUID, tooth int, zones []string, material string) error {
	payload, err := json.Marshal(fillingEntry{Zones: zones, Material: material})
	if err != nil {
		return fmt.Errorf("marshal filling entry: %w", err)
	}
	if err := c.client.Set(ctx, Key(patientID, tooth), payload, entryTTL).Err(); err != nil {
		return fmt.Errorf("set chart cache key: %w", err)
	}
	return nil
}
