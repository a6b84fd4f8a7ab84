package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/reelgraph/reelgraph-backend/internal/domain"
	"github.com/reelgraph/reelgraph-backend/internal/platform/logger"
	"github.com/reelgraph/reelgraph-backend/internal/search"
	"github.com/reelgraph/reelgraph-backend/internal/services"
)

// Shell is the interactive surface. It only prompts, parses and prints;
// every decision lives in the services it calls into.
type Shell struct {
	in  *bufio.Scanner
	out io.Writer
	log *logger.Logger

	catalog  *services.CatalogService
	sessions *services.SessionService
	ratings  *services.RatingService
}

func New(in io.Reader, out io.Writer, log *logger.Logger, catalog *services.CatalogService, sessions *services.SessionService, ratings *services.RatingService) *Shell {
	return &Shell{
		in:       bufio.NewScanner(in),
		out:      out,
		log:      log,
		catalog:  catalog,
		sessions: sessions,
		ratings:  ratings,
	}
}

func (s *Shell) Run(ctx context.Context) {
	for {
		s.print("=== Main Menu ===")
		s.print("1. Load movies into the search projection")
		s.print("2. Create / recreate the full-text index")
		s.print("3. Full-text search demo (raw query)")
		s.print("4. Show cached recommendations for a user")
		s.print("5. Run user application")
		s.print("0. Exit")

		switch s.prompt("Choose an option: ") {
		case "1":
			count, err := s.catalog.ReloadProjection(ctx)
			if err != nil {
				s.printf("Error loading movies: %v\n", err)
				continue
			}
			s.printf("Loaded %d movie records.\n\n", count)
		case "2":
			if err := s.catalog.RebuildIndex(ctx); err != nil {
				s.printf("Error creating index: %v\n", err)
				continue
			}
			s.printf("Index %q created.\n\n", search.IndexName)
		case "3":
			s.rawSearch(ctx)
		case "4":
			s.showRecommendations(ctx)
		case "5":
			s.userApplication(ctx)
		case "0":
			s.print("Exiting.")
			return
		default:
			s.print("Invalid choice, try again.")
		}
	}
}

// rawSearch runs the query exactly as typed; the user controls
// wildcards and any other query syntax.
func (s *Shell) rawSearch(ctx context.Context) {
	term := s.prompt("Enter search query (e.g. star war*, @genres:Comedy): ")
	if term == "" {
		s.print("Empty search, returning.")
		return
	}
	max := parseMax(s.prompt("Max number of results [10]: "))

	res, err := s.sessions.SearchMovies(ctx, 0, term, max)
	if err != nil {
		s.printf("Error executing search: %v\n", err)
		return
	}
	s.printf("Query %q -> %d total hits, returning %d movie(s).\n\n", term, res.Total, len(res.Movies))
	for _, m := range res.Movies {
		s.printf("    movie_id=%s, year=%d, title=%s, genres=%s\n", m.ID, m.Year, m.Title, m.Genres)
	}
	s.print("")
}

func (s *Shell) showRecommendations(ctx context.Context) {
	userID, ok := s.promptUserID()
	if !ok {
		return
	}
	k := parseMax(s.prompt("How many recommendations? [10]: "))

	recs, err := s.sessions.Recommendations(ctx, userID, k)
	if err != nil {
		s.printf("Error fetching recommendations: %v\n", err)
		return
	}
	if len(recs) == 0 {
		s.print("No recommendations.")
		return
	}
	s.printf("Recommendations for user %d:\n", userID)
	for _, rec := range recs {
		s.printf("    movie_id=%s, predicted_rating=%.2f\n", rec.MovieID, rec.PredictedScore)
	}
	s.print("")
}

func (s *Shell) userApplication(ctx context.Context) {
	userID, ok := s.promptUserID()
	if !ok {
		return
	}

	name, err := s.login(ctx, userID)
	if err != nil {
		s.log.Warn("Login failed", "user_id", userID, "error", err)
		s.printf("Error looking up user: %v\n", err)
		return
	}
	s.printf("\nWelcome, %s!\n\n", name)

	rated, err := s.sessions.LoadRatings(ctx, userID)
	if err != nil {
		s.printf("Error loading your ratings: %v\n", err)
		return
	}
	s.printf("You have rated %d movie(s) so far.\n\n", len(rated))

	var lastRecs []domain.Recommendation
	for {
		s.print("=== User Application Menu ===")
		s.print("1. Search movies by title")
		s.print("2. Show top-5 recommended movies you haven't rated")
		s.print("3. Rate a movie from the latest recommendations")
		s.print("4. Show your cached ratings")
		s.print("0. Return to main menu")

		switch s.prompt("Choose an option: ") {
		case "1":
			s.titleSearch(ctx, userID)
		case "2":
			lastRecs = s.topUnrated(ctx, userID)
		case "3":
			if len(lastRecs) == 0 {
				s.print("No recommendations loaded yet. Choose option 2 first.")
				continue
			}
			s.rateMovie(ctx, userID, lastRecs)
		case "4":
			s.showCachedRatings(ctx, userID)
		case "0":
			s.print("Returning to main menu...")
			return
		default:
			s.print("Invalid choice, try again.")
		}
	}
}

func (s *Shell) login(ctx context.Context, userID int64) (string, error) {
	name, status, err := s.sessions.LookupUser(ctx, userID)
	if err != nil {
		return "", err
	}
	switch status {
	case services.UserFoundNamed:
		return name, nil
	case services.UserFoundUnnamed:
		entered := s.prompt("We found your user ID but no name is stored yet.\nPlease enter your name: ")
		return s.sessions.NameUser(ctx, userID, entered)
	default:
		entered := s.prompt("No user found. Please enter your name: ")
		return s.sessions.RegisterUser(ctx, userID, entered)
	}
}

// titleSearch scopes the query to the title field; wrapping in
// parentheses keeps multi-word terms one clause. Wildcards the user
// types are passed through untouched.
func (s *Shell) titleSearch(ctx context.Context, userID int64) {
	term := s.prompt("Enter part of a movie title to search for: ")
	if term == "" {
		s.print("Empty search; returning to menu.")
		return
	}

	res, err := s.sessions.SearchMovies(ctx, userID, titleQuery(term), search.MaxResults)
	if err != nil {
		s.printf("Error executing search: %v\n", err)
		return
	}
	if res.Total == 0 {
		s.print("No movies matched your search.")
		return
	}

	s.printf("\nTop %d results for %q:\n\n", len(res.Movies), term)
	for _, m := range res.Movies {
		s.printf("  Movie ID   : %s\n", m.ID)
		s.printf("  Title      : %s\n", m.Title)
		s.printf("  Genres     : %s\n", m.Genres)
		s.printf("  Avg Rating : %s\n", formatAvg(m.AvgRating))
		s.printf("  Seen       : %s\n", yesNo(m.Seen))
		s.printf("  Your rating: %s\n\n", formatUserRating(m.UserRating))
	}
}

func (s *Shell) topUnrated(ctx context.Context, userID int64) []domain.Recommendation {
	picks, err := s.sessions.TopUnrated(ctx, userID)
	if err != nil {
		s.printf("Error fetching recommendations: %v\n", err)
		return nil
	}
	if len(picks) == 0 {
		s.print("No unrated recommendations available.")
		return nil
	}

	s.print("\nTop recommended movies you have not rated yet:\n")
	for i, rec := range picks {
		s.printf("%d. [%s] %s  (recommender score: %.4f)\n", i+1, rec.MovieID, rec.Title, rec.PredictedScore)
	}
	s.print("")
	return picks
}

func (s *Shell) rateMovie(ctx context.Context, userID int64, recs []domain.Recommendation) {
	choice := s.prompt("Enter the number of the movie you want to rate (or press Enter to cancel): ")
	if choice == "" {
		s.print("Rating cancelled.")
		return
	}
	idx, err := strconv.Atoi(choice)
	if err != nil || idx < 1 || idx > len(recs) {
		s.print("Invalid choice. Rating cancelled.")
		return
	}
	movie := recs[idx-1]

	raw := s.prompt(fmt.Sprintf("Enter your rating for %q (0.5 - 5.0): ", movie.Title))
	rating, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		s.print("Invalid rating. Rating cancelled.")
		return
	}

	res, err := s.ratings.SubmitRating(ctx, userID, movie.MovieID, rating)
	switch {
	case errors.Is(err, domain.ErrInvalidRating):
		s.print("Rating must be between 0.5 and 5.0. Rating cancelled.")
		return
	case errors.Is(err, domain.ErrUnknownUser), errors.Is(err, domain.ErrUnknownMovie):
		s.printf("Rating rejected: %v\n", err)
		return
	case errors.Is(err, domain.ErrAverageUnavailable):
		s.printf("\nYou rated %q (movie %s) with %.1f stars.\n", movie.Title, movie.MovieID, rating)
		s.print("Average rating could not be recomputed.")
		return
	case errors.Is(err, domain.ErrCacheStale):
		s.printf("\nYou rated %q (movie %s) with %.1f stars.\n", movie.Title, movie.MovieID, rating)
		s.print("Warning: cached values may be stale until they refresh.")
	case err != nil:
		s.printf("Error submitting rating: %v\n", err)
		return
	default:
		s.printf("\nYou rated %q (movie %s) with %.1f stars.\n", movie.Title, movie.MovieID, rating)
	}
	if res.AverageKnown {
		s.printf("New average rating for this movie is %.2f.\n\n", res.NewAverage)
	}
}

// showCachedRatings prints the display form of the rating cache. It can
// lag behind ratings submitted this session until it expires.
func (s *Shell) showCachedRatings(ctx context.Context, userID int64) {
	list, ok, err := s.sessions.CachedRatingList(ctx, userID)
	if err != nil {
		s.printf("Error reading cached ratings: %v\n", err)
		return
	}
	if !ok {
		s.print("No cached rating list (it may have expired).")
		return
	}
	if len(list) == 0 {
		s.print("You have not rated any movies yet.")
		return
	}
	s.print("\nYour cached ratings:\n")
	for _, m := range list {
		s.printf("  %.1f  [%s] %s\n", m.Rating, m.MovieID, m.Title)
	}
	s.print("")
}

func (s *Shell) promptUserID() (int64, bool) {
	for {
		raw := s.prompt("Enter your user ID: ")
		if raw == "" {
			return 0, false
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			s.print("User ID must be an integer. Please try again.")
			continue
		}
		return id, true
	}
}

func (s *Shell) prompt(label string) string {
	fmt.Fprint(s.out, label)
	if !s.in.Scan() {
		return ""
	}
	return strings.TrimSpace(s.in.Text())
}

func (s *Shell) print(line string) {
	fmt.Fprintln(s.out, line)
}

func (s *Shell) printf(format string, args ...interface{}) {
	fmt.Fprintf(s.out, format, args...)
}

func titleQuery(term string) string {
	if strings.Contains(term, " ") {
		return "@title:(" + term + ")"
	}
	return "@title:" + term
}

func parseMax(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return search.MaxResults
	}
	if n > search.MaxResults {
		return search.MaxResults
	}
	return n
}

func formatAvg(avg *float64) string {
	if avg == nil {
		return "N/A"
	}
	return strconv.FormatFloat(*avg, 'f', 2, 64)
}

func formatUserRating(r *float64) string {
	if r == nil {
		return "N/A"
	}
	return strconv.FormatFloat(*r, 'f', 1, 64)
}

func yesNo(b bool) string {
	if b {
		return "YES"
	}
	return "NO"
}
