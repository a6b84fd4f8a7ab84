package domain

// Movie is the projected form of a catalog record as it lives in the
// cache/index, not the graph node itself. AvgRating is nil until the
// first rating exists.
type Movie struct {
	ID        string
	Title     string
	Genres    []string
	Year      int
	AvgRating *float64
}

// RatedMovie is one row of a user's rating history. JSON field names
// are part of the persisted cache layout and must stay stable.
type RatedMovie struct {
	MovieID string  `json:"movie_id"`
	Title   string  `json:"title"`
	Rating  float64 `json:"rating"`
}

// Recommendation is one entry of a collaborative-filter result list,
// ordered by descending predicted score.
type Recommendation struct {
	MovieID        string  `json:"movie_id"`
	PredictedScore float64 `json:"predicted_rating"`
	Title          string  `json:"title,omitempty"`
}

// UserProfile mirrors the authoritative user node. Name stays empty
// until the user has introduced themselves.
type UserProfile struct {
	ID   int64
	Name string
}
