package verifycache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"watsonmark/internal/registry/models"
	id "watsonmark/pkg/domain"
	"watsonmark/pkg/platform/sentinel"
)

const verifyKeyPrefix = "verify:wm:"

// Redis is a Redis-backed verification cache for deployments where multiple
// instances should share the read cache.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis constructs a Redis-backed verification cache.
func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Redis{client: client, ttl: ttl}
}

func (c *Redis) Get(ctx context.Context, wmID id.WatermarkID) (*models.Verification, error) {
	payload, err := c.client.Get(ctx, verifyKeyPrefix+wmID.String()).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("verify cache get: %w", err)
	}
	var verification models.Verification
	if err := json.Unmarshal(payload, &verification); err != nil {
		return nil, fmt.Errorf("verify cache decode: %w", err)
	}
	return &verification, nil
}

func (c *Redis) Save(ctx context.Context, wmID id.WatermarkID, verification models.Verification) error {
	payload, err := json.Marshal(verification)
	if err != nil {
		return fmt.Errorf("verify cache encode: %w", err)
	}
	if err := c.client.Set(ctx, verifyKeyPrefix+wmID.String(), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("verify cache set: %w", err)
	}
	return nil
}

func (c *Redis) Invalidate(ctx context.Context, wmID id.WatermarkID) error {
	if err := c.client.Del(ctx, verifyKeyPrefix+wmID.String()).Err(); err != nil {
		return fmt.Errorf("verify cache invalidate: %w", err)
	}
	return nil
}
