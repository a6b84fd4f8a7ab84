package search

import (
	"context"
	"errors"
	"strconv"
	"strings"

	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/reelgraph/reelgraph-backend/internal/cache"
	"github.com/reelgraph/reelgraph-backend/internal/domain"
	"github.com/reelgraph/reelgraph-backend/internal/platform/logger"
	"github.com/reelgraph/reelgraph-backend/internal/platform/operr"
	"github.com/reelgraph/reelgraph-backend/internal/platform/redisdb"
)

const IndexName = "idx:movie"

// bulkLoadWorkers bounds the concurrent hash writes during a full load.
const bulkLoadWorkers = 8

// Projection maintains the denormalized movie hashes and the full-text
// index over them.
type Projection struct {
	rdb *goredis.Client
	log *logger.Logger
}

func NewProjection(client *redisdb.Client, baseLog *logger.Logger) *Projection {
	return &Projection{
		rdb: client.RDB,
		log: baseLog.With("service", "SearchProjection"),
	}
}

// EnsureIndex drops and recreates the index definition. Documents are
// untouched; a missing index on drop is a no-op, so the rebuild is safe
// to run repeatedly.
func (p *Projection) EnsureIndex(ctx context.Context) error {
	if err := p.rdb.FTDropIndex(ctx, IndexName).Err(); err != nil {
		if !indexMissing(err) {
			return operr.Wrap("search.EnsureIndex", IndexName, err)
		}
	} else {
		p.log.Debug("Dropped existing index", "index", IndexName)
	}

	err := p.rdb.FTCreate(ctx, IndexName,
		&goredis.FTCreateOptions{
			OnHash: true,
			Prefix: []interface{}{cache.MovieKeyPrefix},
		},
		&goredis.FieldSchema{FieldName: "title", FieldType: goredis.SearchFieldTypeText},
		&goredis.FieldSchema{FieldName: "genres", FieldType: goredis.SearchFieldTypeText},
		&goredis.FieldSchema{FieldName: "year", FieldType: goredis.SearchFieldTypeNumeric},
		&goredis.FieldSchema{FieldName: "avg_rating", FieldType: goredis.SearchFieldTypeNumeric, Sortable: true},
	).Err()
	if err != nil {
		return operr.Wrap("search.EnsureIndex", IndexName, err)
	}
	p.log.Info("Index created", "index", IndexName)
	return nil
}

func indexMissing(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unknown index") || strings.Contains(msg, "no such index")
}

// BulkLoad writes one hash per movie under the indexed key prefix,
// refreshing any record that already exists.
func (p *Projection) BulkLoad(ctx context.Context, movies []domain.Movie) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bulkLoadWorkers)

	for _, m := range movies {
		m := m
		g.Go(func() error {
			key := cache.MovieKey(m.ID)
			fields := map[string]string{
				"movie_id": m.ID,
				"title":    m.Title,
				"genres":   strings.Join(m.Genres, " | "),
				"year":     strconv.Itoa(m.Year),
			}
			if m.AvgRating != nil {
				fields["avg_rating"] = strconv.FormatFloat(*m.AvgRating, 'f', -1, 64)
			}
			return operr.Wrap("search.BulkLoad", key, p.rdb.HSet(ctx, key, fields).Err())
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	p.log.Info("Loaded movie hashes", "count", len(movies))
	return nil
}

// SetAverageRating updates the single avg_rating field in place. A
// field-set is atomic, so concurrent readers see the old value or the
// new one, never a torn write.
func (p *Projection) SetAverageRating(ctx context.Context, movieID string, avg float64) error {
	key := cache.MovieKey(movieID)
	err := p.rdb.HSet(ctx, key, "avg_rating", strconv.FormatFloat(avg, 'f', -1, 64)).Err()
	return operr.Wrap("search.SetAverageRating", key, err)
}

// Title reads one movie's title from the projection. A missing record
// comes back as an empty string, not an error.
func (p *Projection) Title(ctx context.Context, movieID string) (string, error) {
	key := cache.MovieKey(movieID)
	title, err := p.rdb.HGet(ctx, key, "title").Result()
	if errors.Is(err, goredis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", operr.Wrap("search.Title", key, err)
	}
	return title, nil
}
