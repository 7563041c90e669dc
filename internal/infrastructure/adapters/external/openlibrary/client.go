package openlibrary

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/narwhalmedia/fantasycards/internal/infrastructure/adapters/external/restclient"
	"github.com/narwhalmedia/fantasycards/pkg/interfaces"
)

const searchFields = "key,title,first_publish_year,cover_i,author_name,author_key,subject," +
	"edition_count,number_of_pages_median,ratings_average,ratings_count,ebook_access"

// Config holds Open Library client settings.
type Config struct {
	BaseURL   string
	CoversURL string
	UserAgent string
	Timeout   time.Duration
	Retry     restclient.RetryPolicy
}

// Client talks to the Open Library search, works and authors APIs.
type Client struct {
	rest   *restclient.Client
	covers string
}

// NewClient creates an Open Library client. No key is required.
func NewClient(cfg Config, logger interfaces.Logger, opts ...restclient.Option) *Client {
	headers := map[string]string{}
	if cfg.UserAgent != "" {
		headers["User-Agent"] = cfg.UserAgent
	}
	return &Client{
		rest: restclient.New(restclient.Config{
			Name:    "openlibrary",
			BaseURL: cfg.BaseURL,
			Timeout: cfg.Timeout,
			Headers: headers,
			Retry:   cfg.Retry,
		}, logger, opts...),
		covers: strings.TrimRight(cfg.CoversURL, "/"),
	}
}

// Doc is one search.json hit.
type Doc struct {
	Key                 string   `json:"key"`
	Title               string   `json:"title"`
	FirstPublishYear    *int     `json:"first_publish_year"`
	CoverID             *int     `json:"cover_i"`
	AuthorName          []string `json:"author_name"`
	AuthorKey           []string `json:"author_key"`
	Subject             []string `json:"subject"`
	EditionCount        *int     `json:"edition_count"`
	NumberOfPagesMedian *int     `json:"number_of_pages_median"`
	RatingsAverage      *float64 `json:"ratings_average"`
	RatingsCount        *int     `json:"ratings_count"`
	EbookAccess         string   `json:"ebook_access"`
}

// SearchResponse is the search.json envelope.
type SearchResponse struct {
	NumFound int   `json:"numFound"`
	Start    int   `json:"start"`
	Docs     []Doc `json:"docs"`
}

// TextValue decodes fields Open Library serves either as a plain string or
// as {"type": "/type/text", "value": "..."}.
type TextValue string

func (t *TextValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*t = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = TextValue(s)
		return nil
	}
	var obj struct {
		Value string `json:"value"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*t = TextValue(obj.Value)
	return nil
}

type Link struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

type Excerpt struct {
	Excerpt TextValue `json:"excerpt"`
	Comment string    `json:"comment"`
}

type keyRef struct {
	Key string `json:"key"`
}

// WorkAuthor references an author of a work.
type WorkAuthor struct {
	Author keyRef `json:"author"`
}

// Work is the /works/{id}.json record.
type Work struct {
	Key              string       `json:"key"`
	Title            string       `json:"title"`
	Description      TextValue    `json:"description"`
	Subjects         []string     `json:"subjects"`
	Authors          []WorkAuthor `json:"authors"`
	FirstPublishDate string       `json:"first_publish_date"`
	Covers           []int        `json:"covers"`
	Links            []Link       `json:"links"`
	Excerpts         []Excerpt    `json:"excerpts"`
	SubjectPeople    []string     `json:"subject_people"`
	SubjectPlaces    []string     `json:"subject_places"`
}

// AuthorKeys returns the bare author ids (OL26320A) of the work.
func (w *Work) AuthorKeys() []string {
	keys := make([]string, 0, len(w.Authors))
	for _, a := range w.Authors {
		if id := AuthorID(a.Author.Key); id != "" {
			keys = append(keys, id)
		}
	}
	return keys
}

// Author is the /authors/{id}.json record.
type Author struct {
	Key          string    `json:"key"`
	Name         string    `json:"name"`
	PersonalName string    `json:"personal_name"`
	Bio          TextValue `json:"bio"`
	BirthDate    string    `json:"birth_date"`
	DeathDate    string    `json:"death_date"`
	Photos       []int     `json:"photos"`
	Links        []Link    `json:"links"`
	TopWork      string    `json:"top_work"`
	TopSubjects  []string  `json:"top_subjects"`
}

// RatingsSummary is the aggregate of /works/{id}/ratings.json.
type RatingsSummary struct {
	Average *float64 `json:"average"`
	Count   int      `json:"count"`
}

// SearchSubject lists works for a subject, best rated first.
func (c *Client) SearchSubject(ctx context.Context, subject string, page, limit int) (*SearchResponse, error) {
	page, limit = normalise(page, limit)
	var out SearchResponse
	err := c.rest.Get(ctx, "/search.json", restclient.Params{
		"subject": subject,
		"limit":   limit,
		"offset":  (page - 1) * limit,
		"fields":  searchFields,
		"sort":    "rating desc",
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("search subject %q: %w", subject, err)
	}
	return &out, nil
}

// Search runs a free-text query over works.
func (c *Client) Search(ctx context.Context, query string, page, limit int) (*SearchResponse, error) {
	page, limit = normalise(page, limit)
	var out SearchResponse
	err := c.rest.Get(ctx, "/search.json", restclient.Params{
		"q":      query,
		"limit":  limit,
		"offset": (page - 1) * limit,
		"fields": searchFields,
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("search books %q: %w", query, err)
	}
	return &out, nil
}

// AuthorWorks lists works credited to an author.
func (c *Client) AuthorWorks(ctx context.Context, authorID string, limit int) ([]Doc, error) {
	_, limit = normalise(1, limit)
	var out SearchResponse
	err := c.rest.Get(ctx, "/search.json", restclient.Params{
		"author_key": AuthorID(authorID),
		"limit":      limit,
		"fields":     searchFields,
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("author works %s: %w", authorID, err)
	}
	return out.Docs, nil
}

// GetWork fetches a work by its id (OL123W).
func (c *Client) GetWork(ctx context.Context, workID string) (*Work, error) {
	var out Work
	if err := c.rest.Get(ctx, "/works/"+WorkID(workID)+".json", nil, &out); err != nil {
		return nil, fmt.Errorf("get work %s: %w", workID, err)
	}
	return &out, nil
}

// GetAuthor fetches an author by id (OL26320A) or key (/authors/OL26320A).
func (c *Client) GetAuthor(ctx context.Context, authorID string) (*Author, error) {
	var out Author
	if err := c.rest.Get(ctx, "/authors/"+AuthorID(authorID)+".json", nil, &out); err != nil {
		return nil, fmt.Errorf("get author %s: %w", authorID, err)
	}
	return &out, nil
}

// WorkRatings returns the ratings summary, or nil when nobody rated the work.
func (c *Client) WorkRatings(ctx context.Context, workID string) (*RatingsSummary, error) {
	var out struct {
		Summary *RatingsSummary `json:"summary"`
	}
	if err := c.rest.Get(ctx, "/works/"+WorkID(workID)+"/ratings.json", nil, &out); err != nil {
		return nil, fmt.Errorf("work ratings %s: %w", workID, err)
	}
	if out.Summary == nil || out.Summary.Count == 0 {
		return nil, nil
	}
	return out.Summary, nil
}

// CoverURL builds a cover image URL. Size is S, M or L; a nil id gives "".
func (c *Client) CoverURL(coverID *int, size string) string {
	if coverID == nil || *coverID <= 0 {
		return ""
	}
	if size == "" {
		size = "L"
	}
	return fmt.Sprintf("%s/b/id/%d-%s.jpg", c.covers, *coverID, size)
}

// AuthorPhotoURL builds an author photo URL from the author id.
func (c *Client) AuthorPhotoURL(authorID, size string) string {
	if authorID == "" {
		return ""
	}
	if size == "" {
		size = "M"
	}
	return fmt.Sprintf("%s/a/olid/%s-%s.jpg", c.covers, AuthorID(authorID), size)
}

// WorkID strips the /works/ prefix from a work key.
func WorkID(key string) string {
	return strings.TrimPrefix(key, "/works/")
}

// AuthorID strips the /authors/ prefix from an author key.
func AuthorID(key string) string {
	return strings.TrimPrefix(strings.TrimPrefix(key, "/"), "authors/")
}

func normalise(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	return page, limit
}
