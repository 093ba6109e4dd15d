package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-grading-api/internal/dto"
)

// ProgressCache stores computed learner progress in redis. A nil client
// turns every operation into a no-op.
type ProgressCache struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewProgressCache builds a progress cache with the given time to live.
func NewProgressCache(client *redis.Client, ttl time.Duration, logger zerolog.Logger) *ProgressCache {
	return &ProgressCache{
		client: client,
		ttl:    ttl,
		logger: logger.With().Str("component", "progress_cache").Logger(),
	}
}

func progressCacheKey(userID uint) string {
	return fmt.Sprintf("progress:user:%d", userID)
}

// Get returns the cached progress for a user, if present.
func (c *ProgressCache) Get(ctx context.Context, userID uint) (dto.ProgressResponse, bool) {
	if c == nil || c.client == nil {
		return dto.ProgressResponse{}, false
	}

	cached, err := c.client.Get(ctx, progressCacheKey(userID)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn().Err(err).Msg("failed to read progress cache")
		}
		return dto.ProgressResponse{}, false
	}

	var response dto.ProgressResponse
	if err := json.Unmarshal([]byte(cached), &response); err != nil {
		c.logger.Warn().Err(err).Msg("failed to decode cached progress")
		return dto.ProgressResponse{}, false
	}

	return response, true
}

// Set stores progress for a user.
func (c *ProgressCache) Set(ctx context.Context, userID uint, response dto.ProgressResponse) {
	if c == nil || c.client == nil || c.ttl <= 0 {
		return
	}

	payload, err := json.Marshal(response)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, progressCacheKey(userID), payload, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Msg("failed to store progress cache")
	}
}

// Invalidate drops cached progress for the given users.
func (c *ProgressCache) Invalidate(ctx context.Context, userIDs ...uint) {
	if c == nil || c.client == nil || len(userIDs) == 0 {
		return
	}

	keys := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		keys = append(keys, progressCacheKey(id))
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn().Err(err).Int("users", len(userIDs)).Msg("failed to invalidate progress cache")
	}
}
