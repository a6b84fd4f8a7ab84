package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/reelgraph/reelgraph-backend/internal/domain"
	"github.com/reelgraph/reelgraph-backend/internal/platform/logger"
	"github.com/reelgraph/reelgraph-backend/internal/platform/operr"
)

// RatingSetCache keeps a user's rating history in two co-located forms:
// a hash mapping movie id to rating for point lookups, and a JSON list
// (rating desc, title asc) for display. Both carry the same TTL.
type RatingSetCache struct {
	rdb Commands
	ttl time.Duration
	log *logger.Logger
}

func NewRatingSetCache(rdb Commands, ttl time.Duration, baseLog *logger.Logger) *RatingSetCache {
	return &RatingSetCache{
		rdb: rdb,
		ttl: ttl,
		log: baseLog.With("cache", "RatingSet"),
	}
}

// LoadAndCache replaces both representations from the authoritative
// list. An empty redis hash is indistinguishable from a missing key, so
// zero ratings are represented by deleting the mapping outright; the
// list form still gets an explicit empty payload.
func (c *RatingSetCache) LoadAndCache(ctx context.Context, userID int64, rated []domain.RatedMovie) error {
	hashKey := RatingsKey(userID)

	if len(rated) > 0 {
		fields := make(map[string]string, len(rated))
		for _, m := range rated {
			fields[m.MovieID] = formatRating(m.Rating)
		}
		if err := c.rdb.HSet(ctx, hashKey, fields).Err(); err != nil {
			return operr.Wrap("cache.LoadAndCache", hashKey, err)
		}
		if err := c.rdb.Expire(ctx, hashKey, c.ttl).Err(); err != nil {
			return operr.Wrap("cache.LoadAndCache", hashKey, err)
		}
	} else {
		if err := c.rdb.Del(ctx, hashKey).Err(); err != nil {
			return operr.Wrap("cache.LoadAndCache", hashKey, err)
		}
	}

	if rated == nil {
		rated = []domain.RatedMovie{}
	}
	payload, err := json.Marshal(rated)
	if err != nil {
		return operr.Wrap("cache.LoadAndCache", RatingsListKey(userID), err)
	}
	listKey := RatingsListKey(userID)
	if err := c.rdb.Set(ctx, listKey, payload, c.ttl).Err(); err != nil {
		return operr.Wrap("cache.LoadAndCache", listKey, err)
	}
	c.log.Debug("Cached rating set", "user_id", userID, "count", len(rated))
	return nil
}

// GetRatings reads the point-lookup mapping. An expired or absent entry
// comes back as an empty map, which callers must treat as "assume
// unrated", never as authoritative truth.
func (c *RatingSetCache) GetRatings(ctx context.Context, userID int64) (map[string]float64, error) {
	hashKey := RatingsKey(userID)
	data, err := c.rdb.HGetAll(ctx, hashKey).Result()
	if err != nil {
		return nil, operr.Wrap("cache.GetRatings", hashKey, err)
	}

	out := make(map[string]float64, len(data))
	for movieID, raw := range data {
		v, perr := strconv.ParseFloat(raw, 64)
		if perr != nil {
			c.log.Warn("Dropping malformed cached rating", "key", hashKey, "movie_id", movieID)
			continue
		}
		out[movieID] = v
	}
	return out, nil
}

// SetRating point-updates the mapping after a write. The list form is
// deliberately left to expire naturally; refreshing it would cost a
// full re-serialization on every rating for a view that is only needed
// at session start.
func (c *RatingSetCache) SetRating(ctx context.Context, userID int64, movieID string, rating float64) error {
	hashKey := RatingsKey(userID)
	err := c.rdb.HSet(ctx, hashKey, movieID, formatRating(rating)).Err()
	return operr.Wrap("cache.SetRating", hashKey, err)
}

// RatedList reads the display form. ok is false on an absent entry; a
// payload that fails to parse counts as absent too.
func (c *RatingSetCache) RatedList(ctx context.Context, userID int64) (list []domain.RatedMovie, ok bool, err error) {
	listKey := RatingsListKey(userID)
	raw, err := c.rdb.Get(ctx, listKey).Result()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, operr.Wrap("cache.RatedList", listKey, err)
	}
	if jerr := json.Unmarshal([]byte(raw), &list); jerr != nil {
		c.log.Warn("Malformed cached rating list", "key", listKey)
		return nil, false, nil
	}
	return list, true, nil
}

func formatRating(r float64) string {
	return strconv.FormatFloat(r, 'f', -1, 64)
}
