package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/reelgraph/reelgraph-backend/internal/domain"
	"github.com/reelgraph/reelgraph-backend/internal/platform/logger"
	"github.com/reelgraph/reelgraph-backend/internal/platform/operr"
)

// RecommendationSource computes a ranked top-k list from the
// authoritative store; the graph store satisfies it.
type RecommendationSource interface {
	TopKRecommendations(ctx context.Context, userID int64, k int) ([]domain.Recommendation, error)
}

// RecommendationCache is the read-through cache over the collaborative
// filter. Every (userID, k) pair is its own entry; a cached k=20 list
// never answers a k=5 request.
type RecommendationCache struct {
	rdb    Commands
	source RecommendationSource
	ttl    time.Duration
	log    *logger.Logger
}

func NewRecommendationCache(rdb Commands, source RecommendationSource, ttl time.Duration, baseLog *logger.Logger) *RecommendationCache {
	return &RecommendationCache{
		rdb:    rdb,
		source: source,
		ttl:    ttl,
		log:    baseLog.With("cache", "Recommendations"),
	}
}

// GetTopK returns the ranked list for (userID, k), consulting the cache
// first. A payload that fails to parse counts as a miss and is
// overwritten. Empty lists are cached like any other result, so a user
// with no overlap costs one store query per TTL window.
func (c *RecommendationCache) GetTopK(ctx context.Context, userID int64, k int) ([]domain.Recommendation, error) {
	key := RecsKey(userID, k)

	raw, err := c.rdb.Get(ctx, key).Result()
	switch {
	case err == nil:
		var recs []domain.Recommendation
		if jerr := json.Unmarshal([]byte(raw), &recs); jerr == nil {
			c.log.Debug("Cache hit", "key", key)
			return recs, nil
		}
		c.log.Warn("Malformed cached payload, recomputing", "key", key)
	case errors.Is(err, goredis.Nil):
		c.log.Debug("Cache miss", "key", key)
	default:
		return nil, operr.Wrap("cache.GetTopK", key, err)
	}

	recs, err := c.source.TopKRecommendations(ctx, userID, k)
	if err != nil {
		return nil, err
	}
	if recs == nil {
		recs = []domain.Recommendation{}
	}

	payload, err := json.Marshal(recs)
	if err != nil {
		return nil, operr.Wrap("cache.GetTopK", key, err)
	}
	if err := c.rdb.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		return nil, operr.Wrap("cache.GetTopK", key, err)
	}
	return recs, nil
}
