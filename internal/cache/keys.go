package cache

import "fmt"

// Key shapes are part of the persisted layout and shared with the
// search index definition; changing them invalidates live deployments.
const MovieKeyPrefix = "movie:"

func MovieKey(movieID string) string {
	return MovieKeyPrefix + movieID
}

func RecsKey(userID int64, k int) string {
	return fmt.Sprintf("recs:user:%d:k:%d", userID, k)
}

func RatingsKey(userID int64) string {
	return fmt.Sprintf("user:%d:ratings", userID)
}

func RatingsListKey(userID int64) string {
	return fmt.Sprintf("user:%d:ratings:list", userID)
}
