// Package testutil provides fake upstreams and configuration for tests that
// run the whole catalog.
package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/narwhalmedia/fantasycards/pkg/config"
)

// Movie is a discover row served by the fake TMDB.
type Movie struct {
	ID     int
	Title  string
	Date   string
	Rating float64
	Votes  int
}

// Book is a search row served by the fake Open Library.
type Book struct {
	Key    string
	Title  string
	Author string
	Year   int
}

// DefaultMovies is a small fantasy catalog.
var DefaultMovies = []Movie{
	{ID: 120, Title: "The Lord of the Rings: The Fellowship of the Ring", Date: "2001-12-18", Rating: 8.4, Votes: 25000},
	{ID: 671, Title: "Harry Potter and the Philosopher's Stone", Date: "2001-11-16", Rating: 7.9, Votes: 27000},
	{ID: 1895, Title: "Labyrinth", Date: "1986-06-27", Rating: 7.2, Votes: 2800},
}

// DefaultBooks is a small fantasy book catalog.
var DefaultBooks = []Book{
	{Key: "/works/OL27448W", Title: "The Lord of the Rings", Author: "J.R.R. Tolkien", Year: 1954},
	{Key: "/works/OL59863W", Title: "A Wizard of Earthsea", Author: "Ursula K. Le Guin", Year: 1968},
}

// NewTMDBServer serves discover, search and similar listings for movies and
// TV from movies. Any other path is a 404.
func NewTMDBServer(t *testing.T, movies []Movie) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("api_key") == "" {
			http.Error(w, `{"status_message":"Invalid API key"}`, http.StatusUnauthorized)
			return
		}
		switch {
		case strings.HasPrefix(r.URL.Path, "/discover/"),
			strings.HasPrefix(r.URL.Path, "/search/"),
			strings.HasSuffix(r.URL.Path, "/similar"):
			writeJSON(w, tmdbPage(movies))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

// NewOpenLibraryServer serves search.json from books. Any other path is a 404.
func NewOpenLibraryServer(t *testing.T, books []Book) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search.json" {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, openLibraryPage(books))
	}))
	t.Cleanup(srv.Close)
	return srv
}

// NewCatalogConfig returns a valid configuration aimed at the fake
// upstreams, with one page per kind, one book subject and no pacing.
func NewCatalogConfig(tmdbURL, openLibraryURL string) *config.CatalogConfig {
	cfg := config.GetDefaultCatalogConfig()
	cfg.TMDB.APIKey = "test-key"
	cfg.TMDB.BaseURL = tmdbURL
	cfg.TMDB.Timeout = 5 * time.Second
	cfg.OpenLibrary.BaseURL = openLibraryURL
	cfg.OpenLibrary.Timeout = 5 * time.Second
	cfg.Retry.MaxAttempts = 1
	cfg.Retry.BaseDelay = time.Millisecond
	cfg.Retry.MaxDelay = time.Millisecond
	cfg.Aggregation.MoviePages = 1
	cfg.Aggregation.TVPages = 1
	cfg.Aggregation.BookSubjects = []string{"fantasy"}
	cfg.Aggregation.BookLimit = 10
	cfg.Aggregation.TopicDelay = 0
	cfg.Metrics.Enabled = false
	cfg.Site.URL = "https://cards.example.test"
	return cfg
}

func tmdbPage(movies []Movie) string {
	rows := make([]string, len(movies))
	for i, m := range movies {
		rows[i] = fmt.Sprintf(
			`{"id":%d,"title":%q,"name":%q,"release_date":%q,"first_air_date":%q,"vote_average":%g,"vote_count":%d,"genre_ids":[14]}`,
			m.ID, m.Title, m.Title, m.Date, m.Date, m.Rating, m.Votes)
	}
	return fmt.Sprintf(`{"page":1,"total_pages":1,"total_results":%d,"results":[%s]}`, len(movies), strings.Join(rows, ","))
}

func openLibraryPage(books []Book) string {
	rows := make([]string, len(books))
	for i, b := range books {
		rows[i] = fmt.Sprintf(
			`{"key":%q,"title":%q,"author_name":[%q],"first_publish_year":%d,"subject":["Fantasy"]}`,
			b.Key, b.Title, b.Author, b.Year)
	}
	return fmt.Sprintf(`{"numFound":%d,"start":0,"docs":[%s]}`, len(books), strings.Join(rows, ","))
}

func writeJSON(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(body))
}
