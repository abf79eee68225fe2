// Package cache is the Redis read-through cache for completed analyses. One
// entry per (household, calendar day) with a short TTL, so repeated on-demand
// requests for the same household do not burn a model call each time.
//
// Every operation is best-effort: a Redis failure degrades to a recompute,
// never to a request failure.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcg-iot/seniorsafe-backend/internal/ai"
	"github.com/mcg-iot/seniorsafe-backend/internal/metrics"
)

const (
	analysisKeyPrefix = "analysis:"
	defaultTTL        = 10 * time.Minute
)

// AnalysisCache caches ai.Analysis records in Redis.
type AnalysisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// New connects to Redis and verifies the connection. ttl <= 0 selects the
// default of 10 minutes.
func New(ctx context.Context, addr, password string, db int, ttl time.Duration) (*AnalysisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("cache: connect to redis: %w", err)
	}

	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &AnalysisCache{client: client, ttl: ttl}, nil
}

// key is one entry per household per calendar day: a new day means a new
// comparison window, so yesterday's cached verdict must not leak forward.
func key(householdID int, day time.Time) string {
	return fmt.Sprintf("%s%d:%s", analysisKeyPrefix, householdID, day.Format("2006-01-02"))
}

// Get returns the cached analysis for the household's current day, if any.
func (c *AnalysisCache) Get(ctx context.Context, householdID int, day time.Time) (ai.Analysis, bool) {
	data, err := c.client.Get(ctx, key(householdID, day)).Bytes()
	if err != nil {
		metrics.CacheMisses.Inc()
		return ai.Analysis{}, false
	}
	var a ai.Analysis
	if err := json.Unmarshal(data, &a); err != nil {
		metrics.CacheMisses.Inc()
		return ai.Analysis{}, false
	}
	metrics.CacheHits.Inc()
	return a, true
}

// Set stores an analysis under the household's current day. Errors are
// returned for the caller to log and discard.
func (c *AnalysisCache) Set(ctx context.Context, householdID int, day time.Time, a ai.Analysis) error {
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("cache: marshal analysis: %w", err)
	}
	if err := c.client.Set(ctx, key(householdID, day), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache: set analysis: %w", err)
	}
	return nil
}

// Close releases the Redis connection.
func (c *AnalysisCache) Close() error {
	return c.client.Close()
}
