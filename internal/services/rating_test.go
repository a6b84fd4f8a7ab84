package services

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/reelgraph/reelgraph-backend/internal/domain"
)

func TestSubmitRatingRecomputesAverage(t *testing.T) {
	ctx := context.Background()
	graph := newFakeGraph()
	graph.users[12] = "Ada"
	graph.movies["7"] = true
	graph.edges["7"] = map[int64]float64{1: 4.0, 2: 5.0}
	ratings := newFakeRatingSet()
	projection := newFakeProjection()
	svc := NewRatingService(graph, projection, ratings, testLogger())

	res, err := svc.SubmitRating(ctx, 12, "7", 3.0)
	if err != nil {
		t.Fatalf("SubmitRating: %v", err)
	}
	if !res.AverageKnown || math.Abs(res.NewAverage-4.0) > 1e-9 {
		t.Fatalf("expected new average 4.0, got %+v", res)
	}
	if projection.averages["7"] != res.NewAverage {
		t.Fatalf("projection not updated: %v", projection.averages)
	}
	got, _ := ratings.GetRatings(ctx, 12)
	if got["7"] != 3.0 {
		t.Fatalf("rating cache not point-updated: %v", got)
	}
}

func TestSubmitRatingValidation(t *testing.T) {
	ctx := context.Background()
	graph := newFakeGraph()
	graph.users[12] = "Ada"
	graph.movies["7"] = true
	svc := NewRatingService(graph, newFakeProjection(), newFakeRatingSet(), testLogger())

	for _, bad := range []float64{0.4, 5.1, -1, 0} {
		if _, err := svc.SubmitRating(ctx, 12, "7", bad); !errors.Is(err, domain.ErrInvalidRating) {
			t.Fatalf("rating %v: expected ErrInvalidRating, got %v", bad, err)
		}
	}
	if graph.upserts != 0 {
		t.Fatalf("invalid ratings must not touch the store")
	}

	if _, err := svc.SubmitRating(ctx, 99, "7", 3.0); !errors.Is(err, domain.ErrUnknownUser) {
		t.Fatalf("expected ErrUnknownUser, got %v", err)
	}
	if _, err := svc.SubmitRating(ctx, 12, "404", 3.0); !errors.Is(err, domain.ErrUnknownMovie) {
		t.Fatalf("expected ErrUnknownMovie, got %v", err)
	}
	if graph.upserts != 0 {
		t.Fatalf("bad references must not touch the store")
	}
}

func TestSubmitRatingIdempotentResubmit(t *testing.T) {
	ctx := context.Background()
	graph := newFakeGraph()
	graph.users[12] = "Ada"
	graph.movies["7"] = true
	svc := NewRatingService(graph, newFakeProjection(), newFakeRatingSet(), testLogger())

	first, err := svc.SubmitRating(ctx, 12, "7", 4.0)
	if err != nil {
		t.Fatalf("first submit: %v", err)
	}
	second, err := svc.SubmitRating(ctx, 12, "7", 4.0)
	if err != nil {
		t.Fatalf("second submit: %v", err)
	}
	if len(graph.edges["7"]) != 1 {
		t.Fatalf("resubmit created extra edges: %v", graph.edges["7"])
	}
	if first.NewAverage != second.NewAverage {
		t.Fatalf("average changed on identical resubmit: %v vs %v", first.NewAverage, second.NewAverage)
	}
}

func TestSubmitRatingAverageFailureKeepsWrite(t *testing.T) {
	ctx := context.Background()
	graph := newFakeGraph()
	graph.users[12] = "Ada"
	graph.movies["7"] = true
	graph.avgErr = errBoom
	ratings := newFakeRatingSet()
	projection := newFakeProjection()
	svc := NewRatingService(graph, projection, ratings, testLogger())

	res, err := svc.SubmitRating(ctx, 12, "7", 3.0)
	if !errors.Is(err, domain.ErrAverageUnavailable) {
		t.Fatalf("expected ErrAverageUnavailable, got %v", err)
	}
	if res.AverageKnown {
		t.Fatalf("average should be unknown")
	}
	if graph.edges["7"][12] != 3.0 {
		t.Fatalf("the recorded rating must survive an aggregate failure")
	}
	if len(projection.averages) != 0 {
		t.Fatalf("projection update must be skipped without an average")
	}
	got, _ := ratings.GetRatings(ctx, 12)
	if got["7"] != 3.0 {
		t.Fatalf("user's own rating should still propagate: %v", got)
	}
}

func TestSubmitRatingCacheFailureReportsStale(t *testing.T) {
	ctx := context.Background()
	graph := newFakeGraph()
	graph.users[12] = "Ada"
	graph.movies["7"] = true
	ratings := newFakeRatingSet()
	ratings.setErr = errBoom
	svc := NewRatingService(graph, newFakeProjection(), ratings, testLogger())

	res, err := svc.SubmitRating(ctx, 12, "7", 3.0)
	if !errors.Is(err, domain.ErrCacheStale) {
		t.Fatalf("expected ErrCacheStale, got %v", err)
	}
	if !res.AverageKnown || res.NewAverage != 3.0 {
		t.Fatalf("new average should still be reported: %+v", res)
	}
	if graph.edges["7"][12] != 3.0 {
		t.Fatalf("authoritative write must be retained")
	}
}
