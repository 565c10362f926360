package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/studyflow/planner-engine/internal/models"
)

// PlanCache keeps each user's latest generated plan in Redis so the
// common "show my schedule" read skips the database. It is strictly a
// read-through accelerator; the repository stays authoritative.
type PlanCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewPlanCache creates a Redis-backed plan cache
func NewPlanCache(address, password string, db int, ttl time.Duration) (*PlanCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &PlanCache{client: client, ttl: ttl}, nil
}

func latestKey(userID string) string {
	return fmt.Sprintf("planner:latest:%s", userID)
}

// SetLatest stores the plan as the user's latest
func (c *PlanCache) SetLatest(ctx context.Context, plan *models.StudyPlan) error {
	data, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("failed to marshal plan: %w", err)
	}

	if err := c.client.Set(ctx, latestKey(plan.UserID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache plan: %w", err)
	}

	return nil
}

// GetLatest returns the cached latest plan, or nil on a miss
func (c *PlanCache) GetLatest(ctx context.Context, userID string) (*models.StudyPlan, error) {
	data, err := c.client.Get(ctx, latestKey(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // Miss
		}
		return nil, fmt.Errorf("failed to read cached plan: %w", err)
	}

	var plan models.StudyPlan
	if err := json.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached plan: %w", err)
	}

	return &plan, nil
}

// Invalidate drops the cached latest plan for a user
func (c *PlanCache) Invalidate(ctx context.Context, userID string) error {
	if err := c.client.Del(ctx, latestKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate cached plan: %w", err)
	}
	return nil
}

// HealthCheck verifies Redis connectivity
func (c *PlanCache) HealthCheck(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (c *PlanCache) Close() error {
	return c.client.Close()
}
