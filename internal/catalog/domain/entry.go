package domain

import (
	"fmt"
	"strconv"
)

// Kind tags which catalog an entry belongs to.
type Kind string

const (
	KindMovie Kind = "movie"
	KindTV    Kind = "tv"
	KindBook  Kind = "book"
)

// Kinds lists every catalog kind in display order.
var Kinds = []Kind{KindMovie, KindTV, KindBook}

// ParseKind accepts the singular and plural route forms (movie, movies, tv, book, books).
func ParseKind(s string) (Kind, error) {
	switch s {
	case "movie", "movies":
		return KindMovie, nil
	case "tv", "series":
		return KindTV, nil
	case "book", "books":
		return KindBook, nil
	}
	return "", fmt.Errorf("unknown catalog kind %q", s)
}

// IsScreen reports whether the kind is served by the movie and TV upstream.
func (k Kind) IsScreen() bool {
	return k == KindMovie || k == KindTV
}

// Entry is one catalog item. It is a plain value: copying it is safe and
// it owns no network resources. Exactly one of Screen or Book is set.
type Entry struct {
	Kind        Kind     `json:"kind" yaml:"kind"`
	ID          string   `json:"id" yaml:"id"`
	Title       string   `json:"title" yaml:"title"`
	ReleaseDate string   `json:"release_date,omitempty" yaml:"release_date,omitempty"`
	Year        *int     `json:"year,omitempty" yaml:"year,omitempty"`
	ImageRef    string   `json:"image_ref,omitempty" yaml:"-"`
	ImageURL    string   `json:"image_url,omitempty" yaml:"image_url,omitempty"`
	Rating      *float64 `json:"rating,omitempty" yaml:"rating,omitempty"`
	RatingCount *int     `json:"rating_count,omitempty" yaml:"rating_count,omitempty"`
	Popularity  *float64 `json:"popularity,omitempty" yaml:"-"`

	Screen *ScreenInfo `json:"screen,omitempty" yaml:"screen,omitempty"`
	Book   *BookInfo   `json:"book,omitempty" yaml:"book,omitempty"`
}

// ScreenInfo is the movie and TV specific payload.
type ScreenInfo struct {
	GenreIDs      []int  `json:"genre_ids" yaml:"genre_ids,flow"`
	Overview      string `json:"overview,omitempty" yaml:"overview,omitempty"`
	BackdropPath  string `json:"backdrop_path,omitempty" yaml:"-"`
	OriginalTitle string `json:"original_title,omitempty" yaml:"original_title,omitempty"`
}

// BookInfo is the book specific payload.
type BookInfo struct {
	Authors      []string `json:"authors,omitempty" yaml:"authors,omitempty,flow"`
	AuthorKeys   []string `json:"author_keys,omitempty" yaml:"-"`
	Subjects     []string `json:"subjects,omitempty" yaml:"-"`
	EditionCount *int     `json:"edition_count,omitempty" yaml:"edition_count,omitempty"`
	PagesMedian  *int     `json:"pages_median,omitempty" yaml:"pages_median,omitempty"`
	EbookAccess  string   `json:"ebook_access,omitempty" yaml:"-"`
}

// Categories returns the ordered category tags: genre ids for screen
// entries, subjects for books.
func (e Entry) Categories() []string {
	switch {
	case e.Screen != nil:
		tags := make([]string, len(e.Screen.GenreIDs))
		for i, id := range e.Screen.GenreIDs {
			tags[i] = strconv.Itoa(id)
		}
		return tags
	case e.Book != nil:
		return append([]string(nil), e.Book.Subjects...)
	}
	return nil
}

// Authors returns the author names of a book, nil otherwise.
func (e Entry) Authors() []string {
	if e.Book == nil {
		return nil
	}
	return e.Book.Authors
}

// YearFromDate extracts the leading four digit year of an upstream date
// such as 2001-12-18 or "December 1954". Nil when none is present.
func YearFromDate(date string) *int {
	for i := 0; i+4 <= len(date); i++ {
		if i > 0 && isDigit(date[i-1]) {
			continue
		}
		chunk := date[i : i+4]
		if i+4 < len(date) && isDigit(date[i+4]) {
			continue
		}
		if y, err := strconv.Atoi(chunk); err == nil && y > 0 {
			return &y
		}
	}
	return nil
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

// Detail is the long-form view of one entry.
type Detail struct {
	Entry

	Overview       string            `json:"overview,omitempty"`
	Tagline        string            `json:"tagline,omitempty"`
	Homepage       string            `json:"homepage,omitempty"`
	Status         string            `json:"status,omitempty"`
	BackdropURL    string            `json:"backdrop_url,omitempty"`
	Runtime        *int              `json:"runtime,omitempty"`
	Seasons        *int              `json:"seasons,omitempty"`
	Episodes       *int              `json:"episodes,omitempty"`
	Genres         []Genre           `json:"genres,omitempty"`
	Cast           []CastMember      `json:"cast,omitempty"`
	Crew           []CrewMember      `json:"crew,omitempty"`
	Videos         []Video           `json:"videos,omitempty"`
	WatchProviders []WatchProvider   `json:"watch_providers,omitempty"`
	ExternalIDs    map[string]string `json:"external_ids,omitempty"`
	Links          []Link            `json:"links,omitempty"`
	Excerpts       []string          `json:"excerpts,omitempty"`
	SubjectPeople  []string          `json:"subject_people,omitempty"`
	AuthorRefs     []AuthorRef       `json:"author_refs,omitempty"`
	Similar        []Entry           `json:"similar"`
}

type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type CastMember struct {
	Name       string `json:"name"`
	Character  string `json:"character,omitempty"`
	ProfileURL string `json:"profile_url,omitempty"`
}

type CrewMember struct {
	Name string `json:"name"`
	Job  string `json:"job"`
}

// Video is a trailer or clip hosted on an external site.
type Video struct {
	Key  string `json:"key"`
	Name string `json:"name"`
	Site string `json:"site"`
	Type string `json:"type"`
}

// WatchProvider is one way of watching a title in the configured region.
type WatchProvider struct {
	Name    string `json:"name"`
	LogoURL string `json:"logo_url,omitempty"`
	Offer   string `json:"offer"` // flatrate, rent, buy
}

type Link struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// AuthorRef is the short author reference shown on a book page.
type AuthorRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Author is an author page: biography plus known works.
type Author struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	PersonalName string   `json:"personal_name,omitempty"`
	Bio          string   `json:"bio,omitempty"`
	BirthDate    string   `json:"birth_date,omitempty"`
	DeathDate    string   `json:"death_date,omitempty"`
	PhotoURL     string   `json:"photo_url,omitempty"`
	Links        []Link   `json:"links,omitempty"`
	TopWork      string   `json:"top_work,omitempty"`
	TopSubjects  []string `json:"top_subjects,omitempty"`
	Works        []Entry  `json:"works"`
}
