package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/reelgraph/reelgraph-backend/internal/domain"
	"github.com/reelgraph/reelgraph-backend/internal/platform/logger"
	"github.com/reelgraph/reelgraph-backend/internal/search"
)

// topUnratedFetchK oversizes the cached recommendation pull so the
// unrated filter usually still leaves a full page of five.
const (
	topUnratedFetchK = 20
	TopUnratedCount  = 5
)

type UserStatus int

const (
	UserNotFound UserStatus = iota
	UserFoundUnnamed
	UserFoundNamed
)

// SessionGraph is the slice of the authoritative store the orchestrator
// reads from.
type SessionGraph interface {
	FindUser(ctx context.Context, userID int64) (domain.UserProfile, bool, error)
	EnsureUser(ctx context.Context, userID int64, name string) (string, error)
	SetUserName(ctx context.Context, userID int64, name string) (string, error)
	RatedMovies(ctx context.Context, userID int64) ([]domain.RatedMovie, error)
}

// RecommendationProvider is the read-through recommendation cache.
type RecommendationProvider interface {
	GetTopK(ctx context.Context, userID int64, k int) ([]domain.Recommendation, error)
}

// RatingSet is the cached rating state the orchestrator joins against.
type RatingSet interface {
	LoadAndCache(ctx context.Context, userID int64, rated []domain.RatedMovie) error
	GetRatings(ctx context.Context, userID int64) (map[string]float64, error)
	RatedList(ctx context.Context, userID int64) ([]domain.RatedMovie, bool, error)
}

// MovieSearcher runs full-text queries and reads projection fields.
type MovieSearcher interface {
	Search(ctx context.Context, query string, maxResults int, userRatings map[string]float64) (search.Result, error)
	Title(ctx context.Context, movieID string) (string, error)
}

// SessionService answers "who is this user", "what have they rated" and
// "what should we recommend". It never blocks on user input; the
// interaction shell drives prompts and calls back in.
type SessionService struct {
	graph    SessionGraph
	recs     RecommendationProvider
	ratings  RatingSet
	searcher MovieSearcher
	log      *logger.Logger
}

func NewSessionService(graph SessionGraph, recs RecommendationProvider, ratings RatingSet, searcher MovieSearcher, baseLog *logger.Logger) *SessionService {
	return &SessionService{
		graph:    graph,
		recs:     recs,
		ratings:  ratings,
		searcher: searcher,
		log:      baseLog.With("service", "SessionService"),
	}
}

// LookupUser reports the user's identity state without writing
// anything. The shell decides whether a name prompt is needed.
func (s *SessionService) LookupUser(ctx context.Context, userID int64) (string, UserStatus, error) {
	profile, found, err := s.graph.FindUser(ctx, userID)
	if err != nil {
		return "", UserNotFound, err
	}
	if !found {
		return "", UserNotFound, nil
	}
	if profile.Name == "" {
		return "", UserFoundUnnamed, nil
	}
	return profile.Name, UserFoundNamed, nil
}

// RegisterUser creates the user node, safe under a concurrent creator.
// A blank name falls back to User<id>. The name that actually survived
// at the store is returned.
func (s *SessionService) RegisterUser(ctx context.Context, userID int64, name string) (string, error) {
	return s.graph.EnsureUser(ctx, userID, defaultName(userID, name))
}

// NameUser fills in a missing name on an existing user, keeping any
// name a concurrent session set first.
func (s *SessionService) NameUser(ctx context.Context, userID int64, name string) (string, error) {
	return s.graph.SetUserName(ctx, userID, defaultName(userID, name))
}

func defaultName(userID int64, name string) string {
	if name = strings.TrimSpace(name); name != "" {
		return name
	}
	return fmt.Sprintf("User%d", userID)
}

// LoadRatings fetches the user's history from the authoritative store
// and repopulates both cached representations. Called once at session
// start.
func (s *SessionService) LoadRatings(ctx context.Context, userID int64) ([]domain.RatedMovie, error) {
	rated, err := s.graph.RatedMovies(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.ratings.LoadAndCache(ctx, userID, rated); err != nil {
		return nil, err
	}
	return rated, nil
}

// CachedRatingList reads the display form of the rating cache. It may
// lag behind ratings submitted this session; ok is false once the entry
// has expired.
func (s *SessionService) CachedRatingList(ctx context.Context, userID int64) ([]domain.RatedMovie, bool, error) {
	return s.ratings.RatedList(ctx, userID)
}

// SearchMovies runs a full-text query annotated with the user's current
// cached rating state. userID 0 searches anonymously.
func (s *SessionService) SearchMovies(ctx context.Context, userID int64, query string, maxResults int) (search.Result, error) {
	var ratings map[string]float64
	if userID != 0 {
		var err error
		ratings, err = s.ratings.GetRatings(ctx, userID)
		if err != nil {
			return search.Result{}, err
		}
	}
	return s.searcher.Search(ctx, query, maxResults, ratings)
}

// Recommendations exposes the raw cached top-k list.
func (s *SessionService) Recommendations(ctx context.Context, userID int64, k int) ([]domain.Recommendation, error) {
	return s.recs.GetTopK(ctx, userID, k)
}

// TopUnrated returns up to TopUnratedCount recommendations the user has
// not rated, titles attached. The exclusion join runs against the
// rating cache on every call; the recommendation entry and the rating
// entry expire independently, so it cannot be baked in at cache-write
// time.
func (s *SessionService) TopUnrated(ctx context.Context, userID int64) ([]domain.Recommendation, error) {
	all, err := s.recs.GetTopK(ctx, userID, topUnratedFetchK)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, nil
	}

	rated, err := s.ratings.GetRatings(ctx, userID)
	if err != nil {
		return nil, err
	}

	picks := make([]domain.Recommendation, 0, TopUnratedCount)
	for _, rec := range all {
		if _, seen := rated[rec.MovieID]; seen {
			continue
		}
		picks = append(picks, rec)
		if len(picks) == TopUnratedCount {
			break
		}
	}

	for i := range picks {
		title, terr := s.searcher.Title(ctx, picks[i].MovieID)
		if terr != nil {
			s.log.Warn("Title lookup failed", "movie_id", picks[i].MovieID, "error", terr)
		}
		if title == "" {
			title = "(no title)"
		}
		picks[i].Title = title
	}
	return picks, nil
}
