package tmdb

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/narwhalmedia/fantasycards/internal/infrastructure/adapters/external/restclient"
	apperrors "github.com/narwhalmedia/fantasycards/pkg/errors"
	"github.com/narwhalmedia/fantasycards/pkg/interfaces"
)

// FantasyGenreID is the TMDB genre id for Fantasy, shared by movies and TV.
const FantasyGenreID = 14

// MediaType selects the TMDB movie or tv endpoints.
type MediaType string

const (
	Movie MediaType = "movie"
	TV    MediaType = "tv"
)

// Config holds TMDB client settings.
type Config struct {
	APIKey       string
	BaseURL      string
	ImageBaseURL string
	Language     string
	Timeout      time.Duration
	Retry        restclient.RetryPolicy
}

// Client represents a TMDB API client
type Client struct {
	rest      *restclient.Client
	imageBase string
}

// NewClient creates a new TMDB client. A missing API key is a configuration
// error reported before any request is made.
func NewClient(cfg Config, logger interfaces.Logger, opts ...restclient.Option) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, apperrors.Configuration("TMDB_API_KEY is not set")
	}

	defaults := restclient.Params{"api_key": cfg.APIKey}
	if cfg.Language != "" {
		defaults["language"] = cfg.Language
	}

	return &Client{
		rest: restclient.New(restclient.Config{
			Name:          "tmdb",
			BaseURL:       cfg.BaseURL,
			Timeout:       cfg.Timeout,
			DefaultParams: defaults,
			Retry:         cfg.Retry,
		}, logger, opts...),
		imageBase: strings.TrimRight(cfg.ImageBaseURL, "/"),
	}, nil
}

// Result is one row of a discover, search or similar listing. Movies fill
// Title and ReleaseDate, TV fills Name and FirstAirDate.
type Result struct {
	ID            int      `json:"id"`
	Title         string   `json:"title"`
	Name          string   `json:"name"`
	OriginalTitle string   `json:"original_title"`
	OriginalName  string   `json:"original_name"`
	Overview      string   `json:"overview"`
	PosterPath    string   `json:"poster_path"`
	BackdropPath  string   `json:"backdrop_path"`
	ReleaseDate   string   `json:"release_date"`
	FirstAirDate  string   `json:"first_air_date"`
	VoteAverage   *float64 `json:"vote_average"`
	VoteCount     int      `json:"vote_count"`
	Popularity    *float64 `json:"popularity"`
	GenreIDs      []int    `json:"genre_ids"`
}

// DisplayTitle returns the title for movies and the name for TV.
func (r Result) DisplayTitle() string {
	if r.Title != "" {
		return r.Title
	}
	return r.Name
}

// Original returns the original-language title or name.
func (r Result) Original() string {
	if r.OriginalTitle != "" {
		return r.OriginalTitle
	}
	return r.OriginalName
}

// Date returns the release date for movies and the first air date for TV.
func (r Result) Date() string {
	if r.ReleaseDate != "" {
		return r.ReleaseDate
	}
	return r.FirstAirDate
}

// PagedResults is a TMDB listing page.
type PagedResults struct {
	Page         int      `json:"page"`
	Results      []Result `json:"results"`
	TotalPages   int      `json:"total_pages"`
	TotalResults int      `json:"total_results"`
}

type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type Credits struct {
	Cast []CastMember `json:"cast"`
	Crew []CrewMember `json:"crew"`
}

type CastMember struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Character   string `json:"character"`
	ProfilePath string `json:"profile_path"`
	Order       int    `json:"order"`
}

type CrewMember struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Job  string `json:"job"`
}

type Video struct {
	Key      string `json:"key"`
	Name     string `json:"name"`
	Site     string `json:"site"`
	Type     string `json:"type"`
	Official bool   `json:"official"`
}

type Provider struct {
	ProviderID   int    `json:"provider_id"`
	ProviderName string `json:"provider_name"`
	LogoPath     string `json:"logo_path"`
}

// CountryProviders lists where a title can be watched in one country.
type CountryProviders struct {
	Link     string     `json:"link"`
	Flatrate []Provider `json:"flatrate"`
	Rent     []Provider `json:"rent"`
	Buy      []Provider `json:"buy"`
}

type ExternalIDs struct {
	IMDbID      string `json:"imdb_id"`
	WikidataID  string `json:"wikidata_id"`
	FacebookID  string `json:"facebook_id"`
	InstagramID string `json:"instagram_id"`
	TwitterID   string `json:"twitter_id"`
}

// Details is the full movie or TV record with appended sub-resources.
type Details struct {
	Result
	Genres           []Genre  `json:"genres"`
	Tagline          string   `json:"tagline"`
	Homepage         string   `json:"homepage"`
	Status           string   `json:"status"`
	Runtime          *int     `json:"runtime"`
	EpisodeRunTime   []int    `json:"episode_run_time"`
	NumberOfSeasons  *int     `json:"number_of_seasons"`
	NumberOfEpisodes *int     `json:"number_of_episodes"`
	IMDbID           string   `json:"imdb_id"`
	CreatedBy        []Person `json:"created_by"`
	Credits          Credits  `json:"credits"`
	Videos           struct {
		Results []Video `json:"results"`
	} `json:"videos"`
	WatchProviders struct {
		Results map[string]CountryProviders `json:"results"`
	} `json:"watch/providers"`
	ExternalIDs ExternalIDs `json:"external_ids"`
}

type Person struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// DiscoverOptions narrows a discover call. Zero values are omitted.
type DiscoverOptions struct {
	GenreIDs  []int
	YearFrom  *int
	YearTo    *int
	MinRating *float64
	Page      int
}

// Discover lists titles sorted by popularity, defaulting to the Fantasy genre.
func (c *Client) Discover(ctx context.Context, mt MediaType, opts DiscoverOptions) (*PagedResults, error) {
	genres := opts.GenreIDs
	if len(genres) == 0 {
		genres = []int{FantasyGenreID}
	}
	page := opts.Page
	if page < 1 {
		page = 1
	}

	params := restclient.Params{
		"with_genres": genres,
		"sort_by":     "popularity.desc",
		"page":        page,
	}

	dateField := "primary_release_date"
	if mt == TV {
		dateField = "first_air_date"
	}
	if opts.YearFrom != nil {
		params[dateField+".gte"] = fmt.Sprintf("%d-01-01", *opts.YearFrom)
	}
	if opts.YearTo != nil {
		params[dateField+".lte"] = fmt.Sprintf("%d-12-31", *opts.YearTo)
	}
	if opts.MinRating != nil {
		params["vote_average.gte"] = opts.MinRating
	}

	var out PagedResults
	if err := c.rest.Get(ctx, "/discover/"+string(mt), params, &out); err != nil {
		return nil, fmt.Errorf("discover %s page %d: %w", mt, page, err)
	}
	return &out, nil
}

// Search runs a free-text title search.
func (c *Client) Search(ctx context.Context, mt MediaType, query string, page int) (*PagedResults, error) {
	if page < 1 {
		page = 1
	}
	var out PagedResults
	err := c.rest.Get(ctx, "/search/"+string(mt), restclient.Params{"query": query, "page": page}, &out)
	if err != nil {
		return nil, fmt.Errorf("search %s %q: %w", mt, query, err)
	}
	return &out, nil
}

// Similar lists titles TMDB considers similar to id.
func (c *Client) Similar(ctx context.Context, mt MediaType, id string, page int) (*PagedResults, error) {
	if page < 1 {
		page = 1
	}
	var out PagedResults
	if err := c.rest.Get(ctx, fmt.Sprintf("/%s/%s/similar", mt, id), restclient.Params{"page": page}, &out); err != nil {
		return nil, fmt.Errorf("similar %s %s: %w", mt, id, err)
	}
	return &out, nil
}

// GetDetails fetches one title with credits, videos, watch providers and
// external ids appended.
func (c *Client) GetDetails(ctx context.Context, mt MediaType, id string) (*Details, error) {
	var out Details
	params := restclient.Params{"append_to_response": "credits,videos,watch/providers,external_ids"}
	if err := c.rest.Get(ctx, fmt.Sprintf("/%s/%s", mt, id), params, &out); err != nil {
		return nil, fmt.Errorf("get %s %s: %w", mt, id, err)
	}
	return &out, nil
}

// PosterURL builds an image URL for a poster path. Sizes are TMDB size
// names such as w200, w300 or w500. An empty path gives "".
func (c *Client) PosterURL(path, size string) string {
	if path == "" {
		return ""
	}
	if size == "" {
		size = "w500"
	}
	return c.imageBase + "/" + size + path
}

// BackdropURL builds an image URL for a backdrop path.
func (c *Client) BackdropURL(path string) string {
	return c.PosterURL(path, "w1280")
}

// GetMovie fetches one movie with its appended sub-resources.
func (c *Client) GetMovie(ctx context.Context, id string) (*Details, error) {
	return c.GetDetails(ctx, Movie, id)
}

// GetTV fetches one series with its appended sub-resources.
func (c *Client) GetTV(ctx context.Context, id string) (*Details, error) {
	return c.GetDetails(ctx, TV, id)
}
