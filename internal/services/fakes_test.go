package services

import (
	"context"
	"errors"

	"github.com/reelgraph/reelgraph-backend/internal/domain"
	"github.com/reelgraph/reelgraph-backend/internal/platform/logger"
	"github.com/reelgraph/reelgraph-backend/internal/search"
)

type fakeGraph struct {
	users  map[int64]string // presence = node exists, "" = unnamed
	movies map[string]bool
	edges  map[string]map[int64]float64 // movie -> user -> rating
	rated  map[int64][]domain.RatedMovie
	recs   []domain.Recommendation

	upserts int
	refsErr error
	avgErr  error
}

func newFakeGraph() *fakeGraph {
	return &fakeGraph{
		users:  map[int64]string{},
		movies: map[string]bool{},
		edges:  map[string]map[int64]float64{},
		rated:  map[int64][]domain.RatedMovie{},
	}
}

func (g *fakeGraph) FindUser(ctx context.Context, userID int64) (domain.UserProfile, bool, error) {
	name, ok := g.users[userID]
	if !ok {
		return domain.UserProfile{}, false, nil
	}
	return domain.UserProfile{ID: userID, Name: name}, true, nil
}

func (g *fakeGraph) EnsureUser(ctx context.Context, userID int64, name string) (string, error) {
	if existing, ok := g.users[userID]; ok && existing != "" {
		return existing, nil
	}
	if _, ok := g.users[userID]; !ok {
		g.users[userID] = name
	}
	return g.users[userID], nil
}

func (g *fakeGraph) SetUserName(ctx context.Context, userID int64, name string) (string, error) {
	if existing := g.users[userID]; existing != "" {
		return existing, nil
	}
	g.users[userID] = name
	return name, nil
}

func (g *fakeGraph) RatedMovies(ctx context.Context, userID int64) ([]domain.RatedMovie, error) {
	return g.rated[userID], nil
}

func (g *fakeGraph) CheckRefs(ctx context.Context, userID int64, movieID string) (bool, bool, error) {
	if g.refsErr != nil {
		return false, false, g.refsErr
	}
	_, userOK := g.users[userID]
	return userOK, g.movies[movieID], nil
}

func (g *fakeGraph) UpsertRating(ctx context.Context, userID int64, movieID string, rating float64) error {
	g.upserts++
	byUser := g.edges[movieID]
	if byUser == nil {
		byUser = map[int64]float64{}
		g.edges[movieID] = byUser
	}
	byUser[userID] = rating
	return nil
}

func (g *fakeGraph) AverageRating(ctx context.Context, movieID string) (float64, bool, error) {
	if g.avgErr != nil {
		return 0, false, g.avgErr
	}
	byUser := g.edges[movieID]
	if len(byUser) == 0 {
		return 0, false, nil
	}
	var sum float64
	for _, r := range byUser {
		sum += r
	}
	return sum / float64(len(byUser)), true, nil
}

func (g *fakeGraph) TopKRecommendations(ctx context.Context, userID int64, k int) ([]domain.Recommendation, error) {
	if len(g.recs) > k {
		return g.recs[:k], nil
	}
	return g.recs, nil
}

type fakeRatingSet struct {
	ratings map[int64]map[string]float64
	lists   map[int64][]domain.RatedMovie
	setErr  error
}

func newFakeRatingSet() *fakeRatingSet {
	return &fakeRatingSet{
		ratings: map[int64]map[string]float64{},
		lists:   map[int64][]domain.RatedMovie{},
	}
}

func (c *fakeRatingSet) LoadAndCache(ctx context.Context, userID int64, rated []domain.RatedMovie) error {
	m := map[string]float64{}
	for _, r := range rated {
		m[r.MovieID] = r.Rating
	}
	if len(m) == 0 {
		delete(c.ratings, userID)
	} else {
		c.ratings[userID] = m
	}
	c.lists[userID] = rated
	return nil
}

func (c *fakeRatingSet) GetRatings(ctx context.Context, userID int64) (map[string]float64, error) {
	out := map[string]float64{}
	for id, r := range c.ratings[userID] {
		out[id] = r
	}
	return out, nil
}

func (c *fakeRatingSet) SetRating(ctx context.Context, userID int64, movieID string, rating float64) error {
	if c.setErr != nil {
		return c.setErr
	}
	m := c.ratings[userID]
	if m == nil {
		m = map[string]float64{}
		c.ratings[userID] = m
	}
	m[movieID] = rating
	return nil
}

func (c *fakeRatingSet) RatedList(ctx context.Context, userID int64) ([]domain.RatedMovie, bool, error) {
	list, ok := c.lists[userID]
	return list, ok, nil
}

type fakeProjection struct {
	titles   map[string]string
	averages map[string]float64
	avgErr   error

	lastQuery   string
	lastMax     int
	lastRatings map[string]float64
	result      search.Result
}

func newFakeProjection() *fakeProjection {
	return &fakeProjection{
		titles:   map[string]string{},
		averages: map[string]float64{},
	}
}

func (p *fakeProjection) SetAverageRating(ctx context.Context, movieID string, avg float64) error {
	if p.avgErr != nil {
		return p.avgErr
	}
	p.averages[movieID] = avg
	return nil
}

func (p *fakeProjection) Title(ctx context.Context, movieID string) (string, error) {
	return p.titles[movieID], nil
}

func (p *fakeProjection) Search(ctx context.Context, query string, maxResults int, userRatings map[string]float64) (search.Result, error) {
	p.lastQuery = query
	p.lastMax = maxResults
	p.lastRatings = userRatings
	return p.result, nil
}

var errBoom = errors.New("boom")

func testLogger() *logger.Logger {
	log, err := logger.New("production")
	if err != nil {
		panic(err)
	}
	return log
}
