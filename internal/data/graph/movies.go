package graph

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/reelgraph/reelgraph-backend/internal/domain"
	"github.com/reelgraph/reelgraph-backend/internal/platform/operr"
)

// AllMovies scans every movie node for the bulk projection load.
func (s *Store) AllMovies(ctx context.Context) ([]domain.Movie, error) {
	session := s.client.ReadSession(ctx)
	defer session.Close(ctx)

	rows, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
MATCH (m:Movie)
RETURN m.movieId AS movie_id,
       m.title   AS title,
       m.genres  AS genres,
       m.year    AS year
ORDER BY movie_id
`, nil)
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, operr.Wrap("graph.AllMovies", "", err)
	}

	records := rows.([]*neo4j.Record)
	movies := make([]domain.Movie, 0, len(records))
	for _, rec := range records {
		id, _ := rec.Get("movie_id")
		title, _ := rec.Get("title")
		genres, _ := rec.Get("genres")
		year, _ := rec.Get("year")

		titleStr, _ := title.(string)
		movies = append(movies, domain.Movie{
			ID:     idString(id),
			Title:  titleStr,
			Genres: genreList(genres),
			Year:   intValue(year),
		})
	}
	s.log.Debug("Scanned movie nodes", "count", len(movies))
	return movies, nil
}
