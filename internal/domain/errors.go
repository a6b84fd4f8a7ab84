package domain

import "errors"

const (
	MinRating = 0.5
	MaxRating = 5.0
)

var (
	// ErrInvalidRating rejects a rating outside [MinRating, MaxRating]
	// before anything is written.
	ErrInvalidRating = errors.New("rating must be between 0.5 and 5.0")

	ErrUnknownUser  = errors.New("user does not exist")
	ErrUnknownMovie = errors.New("movie does not exist")

	// ErrAverageUnavailable means the rating itself was recorded but the
	// aggregate average could not be recomputed; the write is retained.
	ErrAverageUnavailable = errors.New("average rating could not be recomputed")

	// ErrCacheStale means the authoritative write succeeded but a cache
	// propagation step failed; cached state may lag until the next
	// successful read-through.
	ErrCacheStale = errors.New("cached state may be stale")
)

func ValidRating(r float64) bool {
	return r >= MinRating && r <= MaxRating
}
