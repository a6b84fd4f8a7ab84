package graph

import (
	"context"
	"fmt"
	"strconv"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/reelgraph/reelgraph-backend/internal/domain"
	"github.com/reelgraph/reelgraph-backend/internal/platform/operr"
)

// RatedMovies returns the user's full rating history, rating descending
// then title ascending.
func (s *Store) RatedMovies(ctx context.Context, userID int64) ([]domain.RatedMovie, error) {
	session := s.client.ReadSession(ctx)
	defer session.Close(ctx)

	rows, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
MATCH (u:User {userId: $user_id})-[r:RATED]->(m:Movie)
RETURN m.movieId AS movie_id,
       m.title   AS title,
       r.rating  AS rating
ORDER BY r.rating DESC, title
`, map[string]any{"user_id": userID})
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, operr.Wrap("graph.RatedMovies", strconv.FormatInt(userID, 10), err)
	}

	records := rows.([]*neo4j.Record)
	rated := make([]domain.RatedMovie, 0, len(records))
	for _, rec := range records {
		id, _ := rec.Get("movie_id")
		title, _ := rec.Get("title")
		rating, _ := rec.Get("rating")

		titleStr, _ := title.(string)
		val, _ := floatValue(rating)
		rated = append(rated, domain.RatedMovie{
			MovieID: idString(id),
			Title:   titleStr,
			Rating:  val,
		})
	}
	return rated, nil
}

// CheckRefs reports whether the user and the movie both exist, without
// mutating anything. The write path calls this before any upsert so a
// bad reference is rejected with the prior state unchanged.
func (s *Store) CheckRefs(ctx context.Context, userID int64, movieID string) (userOK, movieOK bool, err error) {
	session := s.client.ReadSession(ctx)
	defer session.Close(ctx)

	row, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
OPTIONAL MATCH (u:User {userId: $user_id})
OPTIONAL MATCH (m:Movie {movieId: $movie_id})
RETURN u IS NOT NULL AS user_ok, m IS NOT NULL AS movie_ok
`, map[string]any{"user_id": userID, "movie_id": movieIDParam(movieID)})
		if err != nil {
			return nil, err
		}
		return res.Single(ctx)
	})
	if err != nil {
		return false, false, operr.Wrap("graph.CheckRefs", fmt.Sprintf("user %d movie %s", userID, movieID), err)
	}

	rec := row.(*neo4j.Record)
	u, _ := rec.Get("user_ok")
	m, _ := rec.Get("movie_ok")
	userOK, _ = u.(bool)
	movieOK, _ = m.(bool)
	return userOK, movieOK, nil
}

// UpsertRating creates or overwrites the single RATED edge between the
// user and the movie. MERGE keeps the edge unique, so retrying the same
// submission leaves exactly one edge.
func (s *Store) UpsertRating(ctx context.Context, userID int64, movieID string, rating float64) error {
	session := s.client.WriteSession(ctx)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
MATCH (u:User {userId: $user_id}), (m:Movie {movieId: $movie_id})
MERGE (u)-[r:RATED]->(m)
SET r.rating  = $rating,
    r.ratedAt = datetime()
`, map[string]any{
			"user_id":  userID,
			"movie_id": movieIDParam(movieID),
			"rating":   rating,
		})
		if err != nil {
			return nil, err
		}
		return res.Consume(ctx)
	})
	return operr.Wrap("graph.UpsertRating", fmt.Sprintf("user %d movie %s", userID, movieID), err)
}

// AverageRating re-derives the movie's aggregate from every RATED edge.
// ok is false when the movie has no ratings at all.
func (s *Store) AverageRating(ctx context.Context, movieID string) (avg float64, ok bool, err error) {
	session := s.client.ReadSession(ctx)
	defer session.Close(ctx)

	row, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
MATCH (:User)-[r:RATED]->(m:Movie {movieId: $movie_id})
RETURN avg(r.rating) AS avg_rating
`, map[string]any{"movie_id": movieIDParam(movieID)})
		if err != nil {
			return nil, err
		}
		return res.Single(ctx)
	})
	if err != nil {
		return 0, false, operr.Wrap("graph.AverageRating", movieID, err)
	}

	rec := row.(*neo4j.Record)
	v, _ := rec.Get("avg_rating")
	avg, ok = floatValue(v)
	return avg, ok, nil
}

// TopKRecommendations runs the collaborative-filter query: rank the 50
// users with the most co-rated movies, collect what they rated that the
// target user has not, score by the neighbor set's mean rating.
func (s *Store) TopKRecommendations(ctx context.Context, userID int64, k int) ([]domain.Recommendation, error) {
	session := s.client.ReadSession(ctx)
	defer session.Close(ctx)

	rows, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
MATCH (u:User {userId: $user_id})
MATCH (u)-[:RATED]->(m:Movie)<-[:RATED]-(other:User)
WHERE other <> u
WITH u, other, count(*) AS common_rated
ORDER BY common_rated DESC
LIMIT 50
MATCH (other)-[r:RATED]->(rec:Movie)
WHERE NOT (u)-[:RATED]->(rec)
WITH rec, avg(r.rating) AS predicted
RETURN rec.movieId AS movie_id, predicted
ORDER BY predicted DESC
LIMIT $k
`, map[string]any{"user_id": userID, "k": k})
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, operr.Wrap("graph.TopKRecommendations", fmt.Sprintf("user %d k %d", userID, k), err)
	}

	records := rows.([]*neo4j.Record)
	recs := make([]domain.Recommendation, 0, len(records))
	for _, rec := range records {
		id, _ := rec.Get("movie_id")
		predicted, _ := rec.Get("predicted")
		score, _ := floatValue(predicted)
		recs = append(recs, domain.Recommendation{
			MovieID:        idString(id),
			PredictedScore: score,
		})
	}
	return recs, nil
}
