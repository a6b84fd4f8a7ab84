package cache

import (
	"context"
	"testing"
	"time"

	"github.com/reelgraph/reelgraph-backend/internal/domain"
)

func TestLoadAndCacheStoresBothForms(t *testing.T) {
	ctx := context.Background()
	rdb := newFakeRedis()
	c := NewRatingSetCache(rdb, time.Hour, testLogger())

	rated := []domain.RatedMovie{
		{MovieID: "7", Title: "Star Wars", Rating: 4.5},
		{MovieID: "31", Title: "Alien", Rating: 4.0},
	}
	if err := c.LoadAndCache(ctx, 12, rated); err != nil {
		t.Fatalf("LoadAndCache: %v", err)
	}

	got, err := c.GetRatings(ctx, 12)
	if err != nil {
		t.Fatalf("GetRatings: %v", err)
	}
	if len(got) != 2 || got["7"] != 4.5 || got["31"] != 4.0 {
		t.Fatalf("unexpected mapping: %v", got)
	}
	if rdb.expires[RatingsKey(12)] != time.Hour {
		t.Fatalf("mapping TTL not set")
	}

	list, ok, err := c.RatedList(ctx, 12)
	if err != nil || !ok {
		t.Fatalf("RatedList: ok=%v err=%v", ok, err)
	}
	if len(list) != 2 || list[0].Title != "Star Wars" {
		t.Fatalf("unexpected list: %+v", list)
	}
}

func TestLoadAndCacheEmptyDeletesMapping(t *testing.T) {
	ctx := context.Background()
	rdb := newFakeRedis()
	c := NewRatingSetCache(rdb, time.Hour, testLogger())

	// A stale non-empty mapping from a previous session must not survive.
	if err := c.LoadAndCache(ctx, 5, []domain.RatedMovie{{MovieID: "1", Rating: 3}}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := c.LoadAndCache(ctx, 5, nil); err != nil {
		t.Fatalf("LoadAndCache empty: %v", err)
	}

	if _, ok := rdb.hashes[RatingsKey(5)]; ok {
		t.Fatalf("mapping should be deleted, not left empty")
	}
	if rdb.strings[RatingsListKey(5)] != "[]" {
		t.Fatalf("list form should be an explicit empty payload, got %q", rdb.strings[RatingsListKey(5)])
	}

	got, err := c.GetRatings(ctx, 5)
	if err != nil {
		t.Fatalf("GetRatings: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty mapping, got %v", got)
	}
}

func TestSetRatingLeavesListStale(t *testing.T) {
	ctx := context.Background()
	rdb := newFakeRedis()
	c := NewRatingSetCache(rdb, time.Hour, testLogger())

	if err := c.LoadAndCache(ctx, 12, []domain.RatedMovie{{MovieID: "7", Title: "Star Wars", Rating: 4.5}}); err != nil {
		t.Fatalf("LoadAndCache: %v", err)
	}
	if err := c.SetRating(ctx, 12, "7", 3.0); err != nil {
		t.Fatalf("SetRating: %v", err)
	}
	if err := c.SetRating(ctx, 12, "99", 5.0); err != nil {
		t.Fatalf("SetRating new movie: %v", err)
	}

	got, err := c.GetRatings(ctx, 12)
	if err != nil {
		t.Fatalf("GetRatings: %v", err)
	}
	if got["7"] != 3.0 || got["99"] != 5.0 {
		t.Fatalf("mapping not point-updated: %v", got)
	}

	// The display list keeps the pre-write view until it expires.
	list, ok, err := c.RatedList(ctx, 12)
	if err != nil || !ok {
		t.Fatalf("RatedList: ok=%v err=%v", ok, err)
	}
	if len(list) != 1 || list[0].Rating != 4.5 {
		t.Fatalf("list form should be stale, got %+v", list)
	}
}

func TestGetRatingsMissReturnsEmptyMap(t *testing.T) {
	ctx := context.Background()
	c := NewRatingSetCache(newFakeRedis(), time.Hour, testLogger())

	got, err := c.GetRatings(ctx, 404)
	if err != nil {
		t.Fatalf("GetRatings: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil map, got %v", got)
	}
}

func TestGetRatingsSkipsMalformedField(t *testing.T) {
	ctx := context.Background()
	rdb := newFakeRedis()
	rdb.hashes[RatingsKey(2)] = map[string]string{"7": "4.5", "9": "not-a-number"}
	c := NewRatingSetCache(rdb, time.Hour, testLogger())

	got, err := c.GetRatings(ctx, 2)
	if err != nil {
		t.Fatalf("GetRatings: %v", err)
	}
	if len(got) != 1 || got["7"] != 4.5 {
		t.Fatalf("expected only the parsable field, got %v", got)
	}
}
