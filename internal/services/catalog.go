package services

import (
	"context"

	"github.com/reelgraph/reelgraph-backend/internal/domain"
	"github.com/reelgraph/reelgraph-backend/internal/platform/logger"
)

type MovieScanner interface {
	AllMovies(ctx context.Context) ([]domain.Movie, error)
}

type ProjectionAdmin interface {
	EnsureIndex(ctx context.Context) error
	BulkLoad(ctx context.Context, movies []domain.Movie) error
}

// CatalogService owns the administrative projection actions: the full
// bulk load and the index rebuild.
type CatalogService struct {
	graph      MovieScanner
	projection ProjectionAdmin
	log        *logger.Logger
}

func NewCatalogService(graph MovieScanner, projection ProjectionAdmin, baseLog *logger.Logger) *CatalogService {
	return &CatalogService{
		graph:      graph,
		projection: projection,
		log:        baseLog.With("service", "CatalogService"),
	}
}

// ReloadProjection replaces every movie hash from the authoritative
// store and reports how many records were loaded.
func (s *CatalogService) ReloadProjection(ctx context.Context) (int, error) {
	movies, err := s.graph.AllMovies(ctx)
	if err != nil {
		return 0, err
	}
	if err := s.projection.BulkLoad(ctx, movies); err != nil {
		return 0, err
	}
	s.log.Info("Projection reloaded", "movies", len(movies))
	return len(movies), nil
}

// RebuildIndex drops and recreates the full-text index definition; the
// loaded hashes are untouched.
func (s *CatalogService) RebuildIndex(ctx context.Context) error {
	return s.projection.EnsureIndex(ctx)
}
