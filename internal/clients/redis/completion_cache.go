package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/velebitsec/compliance-backend/internal/logger"
	"github.com/velebitsec/compliance-backend/internal/services"
)

// CompletionCache caches the questionnaire progress tuple in Redis. It is
// best effort: any Redis failure degrades to a recompute, never to an error.
type completionCache struct {
	log *logger.Logger
	rdb *goredis.Client
	ttl time.Duration
}

func NewCompletionCache(log *logger.Logger) (services.CompletionCache, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &completionCache{
		log: log.With("service", "RedisCompletionCache"),
		rdb: rdb,
		ttl: 30 * time.Second,
	}, nil
}

func completionKey(assessmentID uuid.UUID) string {
	return "completion:" + assessmentID.String()
}

func (c *completionCache) Get(ctx context.Context, assessmentID uuid.UUID) (*services.CompletionResult, bool) {
	raw, err := c.rdb.Get(ctx, completionKey(assessmentID)).Bytes()
	if err != nil {
		if err != goredis.Nil {
			c.log.Debug("Completion cache read failed", "assessment_id", assessmentID, "error", err)
		}
		return nil, false
	}
	var result services.CompletionResult
	if err := json.Unmarshal(raw, &result); err != nil {
		c.log.Warn("Completion cache entry corrupt, dropping", "assessment_id", assessmentID, "error", err)
		_ = c.rdb.Del(ctx, completionKey(assessmentID)).Err()
		return nil, false
	}
	return &result, true
}

func (c *completionCache) Set(ctx context.Context, assessmentID uuid.UUID, result *services.CompletionResult) {
	raw, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, completionKey(assessmentID), raw, c.ttl).Err(); err != nil {
		c.log.Debug("Completion cache write failed", "assessment_id", assessmentID, "error", err)
	}
}

func (c *completionCache) Invalidate(ctx context.Context, assessmentID uuid.UUID) {
	if err := c.rdb.Del(ctx, completionKey(assessmentID)).Err(); err != nil {
		c.log.Debug("Completion cache invalidate failed", "assessment_id", assessmentID, "error", err)
	}
}
