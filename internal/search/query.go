package search

import (
	"context"
	"strconv"
	"strings"

	goredis "github.com/redis/go-redis/v9"

	"github.com/reelgraph/reelgraph-backend/internal/cache"
	"github.com/reelgraph/reelgraph-backend/internal/platform/operr"
)

// MaxResults caps a result page.
const MaxResults = 10

// MovieView is one search hit shaped for display, annotated with the
// caller-supplied rating state.
type MovieView struct {
	ID         string
	Title      string
	Genres     string
	Year       int
	AvgRating  *float64
	Seen       bool
	UserRating *float64
}

type Result struct {
	Total  int64
	Movies []MovieView
}

// Search runs the query string against the index exactly as given: no
// wildcard rewriting, no anchoring, no escaping. The caller owns the
// matching semantics, including field-scoped forms like @title:(...).
// userRatings annotates each hit; pass nil for an anonymous search. The
// annotation is recomputed on every call, never cached, so it tracks
// whatever the rating cache currently holds.
func (p *Projection) Search(ctx context.Context, query string, maxResults int, userRatings map[string]float64) (Result, error) {
	maxResults = clampResults(maxResults)

	res, err := p.rdb.FTSearchWithArgs(ctx, IndexName, query, &goredis.FTSearchOptions{
		LimitOffset: 0,
		Limit:       maxResults,
	}).Result()
	if err != nil {
		return Result{}, operr.Wrap("search.Search", query, err)
	}

	views := make([]MovieView, 0, len(res.Docs))
	for _, doc := range res.Docs {
		views = append(views, docView(doc.ID, doc.Fields))
	}
	return Result{Total: int64(res.Total), Movies: annotate(views, userRatings)}, nil
}

func clampResults(n int) int {
	if n < 1 {
		return MaxResults
	}
	if n > MaxResults {
		return MaxResults
	}
	return n
}

// docView shapes one raw document. The movie id prefers the stored
// field and falls back to stripping the key prefix.
func docView(docID string, fields map[string]string) MovieView {
	view := MovieView{
		ID:     strings.TrimPrefix(docID, cache.MovieKeyPrefix),
		Title:  fields["title"],
		Genres: fields["genres"],
	}
	if id := fields["movie_id"]; id != "" {
		view.ID = id
	}
	if y, err := strconv.Atoi(fields["year"]); err == nil {
		view.Year = y
	}
	if raw, ok := fields["avg_rating"]; ok {
		if avg, err := strconv.ParseFloat(raw, 64); err == nil {
			view.AvgRating = &avg
		}
	}
	return view
}

// annotate is the read-time join with the user's cached rating state.
func annotate(views []MovieView, userRatings map[string]float64) []MovieView {
	if len(userRatings) == 0 {
		return views
	}
	for i := range views {
		if rating, ok := userRatings[views[i].ID]; ok {
			r := rating
			views[i].Seen = true
			views[i].UserRating = &r
		}
	}
	return views
}
