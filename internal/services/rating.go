package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/reelgraph/reelgraph-backend/internal/domain"
	"github.com/reelgraph/reelgraph-backend/internal/platform/logger"
)

// RatingGraph is the slice of the authoritative store the write path
// needs.
type RatingGraph interface {
	CheckRefs(ctx context.Context, userID int64, movieID string) (userOK, movieOK bool, err error)
	UpsertRating(ctx context.Context, userID int64, movieID string, rating float64) error
	AverageRating(ctx context.Context, movieID string) (avg float64, ok bool, err error)
}

// AverageWriter propagates a recomputed aggregate into the projection.
type AverageWriter interface {
	SetAverageRating(ctx context.Context, movieID string, avg float64) error
}

// RatingCacheWriter point-updates the user's cached rating mapping.
type RatingCacheWriter interface {
	SetRating(ctx context.Context, userID int64, movieID string, rating float64) error
}

// RatingService is the write/invalidation path: it mutates the
// authoritative store first, then pushes derived state into the caches
// without waiting for TTL expiry.
type RatingService struct {
	graph      RatingGraph
	projection AverageWriter
	ratings    RatingCacheWriter
	log        *logger.Logger
}

func NewRatingService(graph RatingGraph, projection AverageWriter, ratings RatingCacheWriter, baseLog *logger.Logger) *RatingService {
	return &RatingService{
		graph:      graph,
		projection: projection,
		ratings:    ratings,
		log:        baseLog.With("service", "RatingService"),
	}
}

type SubmitResult struct {
	NewAverage   float64
	AverageKnown bool
}

// SubmitRating records the rating and refreshes derived state, in order:
//
//  1. upsert the RATED edge (idempotent under retry),
//  2. recompute the movie's average from the authoritative store,
//  3. push the new average into the projection,
//  4. push the user's own rating into the rating-set mapping.
//
// Validation failures reject before any mutation. Once step 1 has
// committed it is never rolled back: a step-2 failure returns
// ErrAverageUnavailable with the rating retained, and a step-3/4
// failure returns ErrCacheStale with the new average still reported.
func (s *RatingService) SubmitRating(ctx context.Context, userID int64, movieID string, rating float64) (SubmitResult, error) {
	if !domain.ValidRating(rating) {
		return SubmitResult{}, domain.ErrInvalidRating
	}
	userOK, movieOK, err := s.graph.CheckRefs(ctx, userID, movieID)
	if err != nil {
		return SubmitResult{}, err
	}
	if !userOK {
		return SubmitResult{}, domain.ErrUnknownUser
	}
	if !movieOK {
		return SubmitResult{}, domain.ErrUnknownMovie
	}

	if err := s.graph.UpsertRating(ctx, userID, movieID, rating); err != nil {
		return SubmitResult{}, err
	}

	var stale bool
	result := SubmitResult{}

	avg, ok, avgErr := s.graph.AverageRating(ctx, movieID)
	switch {
	case avgErr != nil:
	case !ok:
		avgErr = domain.ErrAverageUnavailable
	default:
		result.NewAverage = avg
		result.AverageKnown = true
		if perr := s.projection.SetAverageRating(ctx, movieID, avg); perr != nil {
			s.log.Warn("Projection average update failed", "movie_id", movieID, "error", perr)
			stale = true
		}
	}

	// The user's own rating still propagates when the aggregate could
	// not be refreshed; only the average is in doubt.
	if cerr := s.ratings.SetRating(ctx, userID, movieID, rating); cerr != nil {
		s.log.Warn("Rating cache update failed", "user_id", userID, "movie_id", movieID, "error", cerr)
		stale = true
	}

	if avgErr != nil {
		if errors.Is(avgErr, domain.ErrAverageUnavailable) {
			return result, avgErr
		}
		return result, fmt.Errorf("%w: %v", domain.ErrAverageUnavailable, avgErr)
	}
	if stale {
		return result, domain.ErrCacheStale
	}
	return result, nil
}
