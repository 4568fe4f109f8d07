package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-batch-grader/internal/grading"
	"github.com/noah-isme/gema-batch-grader/pkg/ai"
)

type redisAssessmentCache struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewAssessmentCache wraps a Redis client as the orchestrator's judgment cache.
// Returns nil when the client is nil, which disables caching.
func NewAssessmentCache(client *redis.Client, ttl time.Duration, logger zerolog.Logger) grading.AssessmentCache {
	if client == nil {
		return nil
	}

	return &redisAssessmentCache{
		client: client,
		ttl:    ttl,
		logger: logger.With().Str("component", "assessment_cache").Logger(),
	}
}

func (c *redisAssessmentCache) Get(ctx context.Context, key string) (ai.QualitativeResult, bool) {
	cached, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn().Err(err).Msg("failed to read assessment cache")
		}
		return ai.QualitativeResult{}, false
	}

	var judgments []ai.CriterionJudgment
	if err := json.Unmarshal([]byte(cached), &judgments); err != nil {
		c.logger.Warn().Err(err).Msg("failed to decode cached assessment")
		return ai.QualitativeResult{}, false
	}

	c.logger.Debug().Str("key", key).Msg("assessment cache hit")
	return ai.QualitativeResult{Judgments: judgments}, true
}

func (c *redisAssessmentCache) Set(ctx context.Context, key string, result ai.QualitativeResult) {
	payload, err := json.Marshal(result.Judgments)
	if err != nil {
		c.logger.Warn().Err(err).Msg("failed to encode assessment for cache")
		return
	}

	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Msg("failed to store assessment cache")
	}
}
