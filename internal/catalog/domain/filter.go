package domain

import (
	"slices"
	"strconv"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/narwhalmedia/fantasycards/internal/domain/specification"
)

// DefaultPageSize is the number of entries one "load more" step reveals.
const DefaultPageSize = 24

// SortKey orders a filtered listing.
type SortKey string

const (
	SortPopularity SortKey = "popularity"
	SortRating     SortKey = "rating"
	SortYearDesc   SortKey = "year-desc"
	SortYearAsc    SortKey = "year-asc"
	SortTitle      SortKey = "title"
)

// ParseSortKey maps a query value onto a SortKey. Empty means popularity;
// "year" is accepted as year-desc.
func ParseSortKey(s string) (SortKey, bool) {
	switch SortKey(s) {
	case "", SortPopularity:
		return SortPopularity, true
	case "year", SortYearDesc:
		return SortYearDesc, true
	case SortRating, SortYearAsc, SortTitle:
		return SortKey(s), true
	}
	return "", false
}

// FilterSpec holds the browse constraints. Zero fields impose nothing.
type FilterSpec struct {
	Category    string   `json:"category,omitempty"`
	MinRating   *float64 `json:"min_rating,omitempty"`
	DecadeStart *int     `json:"decade,omitempty"`
	Author      string   `json:"author,omitempty"`
	Query       string   `json:"q,omitempty"`
	Sort        SortKey  `json:"sort,omitempty"`
}

// Signature is a stable textual form of the filter, used to bind pagination
// tokens and cache keys to the listing they were produced for.
func (f FilterSpec) Signature(kind Kind) string {
	var b strings.Builder
	b.WriteString(string(kind))
	add := func(k, v string) {
		if v == "" {
			return
		}
		b.WriteString("|")
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(v)
	}
	add("category", f.Category)
	if f.MinRating != nil {
		add("min_rating", strconv.FormatFloat(*f.MinRating, 'f', -1, 64))
	}
	if f.DecadeStart != nil {
		add("decade", strconv.Itoa(*f.DecadeStart))
	}
	add("author", f.Author)
	add("q", strings.ToLower(f.Query))
	add("sort", string(f.Sort))
	return b.String()
}

type entrySpec = specification.Specification[Entry]

// CategorySpec keeps entries tagged with a category. Screen entries match a
// genre id exactly; books match when any subject contains the category,
// compared case-insensitively with underscores read as spaces.
func CategorySpec(category string) entrySpec {
	genreID, numErr := strconv.Atoi(category)
	needle := strings.ToLower(strings.ReplaceAll(category, "_", " "))
	return specification.Func[Entry](func(e Entry) bool {
		switch {
		case e.Screen != nil:
			return numErr == nil && slices.Contains(e.Screen.GenreIDs, genreID)
		case e.Book != nil:
			return slices.ContainsFunc(e.Book.Subjects, func(s string) bool {
				return strings.Contains(strings.ToLower(s), needle)
			})
		}
		return false
	})
}

// MinRatingSpec keeps entries rated at least min. Unrated entries fail.
func MinRatingSpec(min float64) entrySpec {
	return specification.Func[Entry](func(e Entry) bool {
		return e.Rating != nil && *e.Rating >= min
	})
}

// DecadeSpec keeps entries released in [start, start+9]. Undated entries fail.
func DecadeSpec(start int) entrySpec {
	return specification.Func[Entry](func(e Entry) bool {
		return e.Year != nil && *e.Year >= start && *e.Year <= start+9
	})
}

// AuthorSpec keeps books with an author named exactly name.
func AuthorSpec(name string) entrySpec {
	return specification.Func[Entry](func(e Entry) bool {
		return slices.Contains(e.Authors(), name)
	})
}

// TitleQuerySpec keeps entries whose title contains q, ignoring case.
func TitleQuerySpec(q string) entrySpec {
	q = strings.ToLower(strings.TrimSpace(q))
	return specification.Func[Entry](func(e Entry) bool {
		return strings.Contains(strings.ToLower(e.Title), q)
	})
}

// Specification builds the conjunction of every constraint set on f.
func (f FilterSpec) Specification() entrySpec {
	var specs []entrySpec
	if f.Category != "" {
		specs = append(specs, CategorySpec(f.Category))
	}
	if f.MinRating != nil {
		specs = append(specs, MinRatingSpec(*f.MinRating))
	}
	if f.DecadeStart != nil {
		specs = append(specs, DecadeSpec(*f.DecadeStart))
	}
	if f.Author != "" {
		specs = append(specs, AuthorSpec(f.Author))
	}
	if strings.TrimSpace(f.Query) != "" {
		specs = append(specs, TitleQuerySpec(f.Query))
	}
	return specification.And(specs...)
}

// Apply returns the entries satisfying every constraint of f, in input
// order. The input slice is not modified.
func Apply(entries []Entry, f FilterSpec) []Entry {
	return specification.Filter(entries, f.Specification())
}

// Sort returns a stably sorted copy of entries. Popularity keeps the
// aggregation order, which upstream already ranks by popularity.
func Sort(entries []Entry, key SortKey) []Entry {
	out := slices.Clone(entries)
	switch key {
	case SortRating:
		slices.SortStableFunc(out, func(a, b Entry) int {
			switch {
			case a.Rating == nil && b.Rating == nil:
				return 0
			case a.Rating == nil:
				return 1
			case b.Rating == nil:
				return -1
			}
			return compareFloat(*b.Rating, *a.Rating)
		})
	case SortYearDesc:
		// Raw date strings compare lexicographically; ISO dates order correctly.
		slices.SortStableFunc(out, func(a, b Entry) int {
			return strings.Compare(b.ReleaseDate, a.ReleaseDate)
		})
	case SortYearAsc:
		slices.SortStableFunc(out, func(a, b Entry) int {
			return strings.Compare(a.ReleaseDate, b.ReleaseDate)
		})
	case SortTitle:
		coll := collate.New(language.English, collate.Loose)
		slices.SortStableFunc(out, func(a, b Entry) int {
			return coll.CompareString(a.Title, b.Title)
		})
	}
	return out
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// PaginateWindow returns the first pageSize*pageCount entries and whether
// any remain beyond them. Non-positive arguments fall back to one page of
// DefaultPageSize.
func PaginateWindow(entries []Entry, pageSize, pageCount int) ([]Entry, bool) {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageCount < 1 {
		pageCount = 1
	}
	n := pageSize * pageCount
	if n >= len(entries) {
		return slices.Clone(entries), false
	}
	return slices.Clone(entries[:n]), true
}

const maxAuthorFacets = 30

// Facets are the filter choices present in a catalog.
type Facets struct {
	GenreIDs []int    `json:"genre_ids,omitempty"`
	Authors  []string `json:"authors,omitempty"`
	Decades  []int    `json:"decades,omitempty"`
}

// BuildFacets collects the distinct genre ids, author names (first 30 in
// sorted order) and decades, newest first, found in entries.
func BuildFacets(entries []Entry) Facets {
	genres := map[int]struct{}{}
	authors := map[string]struct{}{}
	decades := map[int]struct{}{}
	for _, e := range entries {
		if e.Screen != nil {
			for _, g := range e.Screen.GenreIDs {
				genres[g] = struct{}{}
			}
		}
		for _, a := range e.Authors() {
			if strings.TrimSpace(a) != "" {
				authors[a] = struct{}{}
			}
		}
		if e.Year != nil {
			decades[*e.Year/10*10] = struct{}{}
		}
	}

	var f Facets
	for g := range genres {
		f.GenreIDs = append(f.GenreIDs, g)
	}
	slices.Sort(f.GenreIDs)
	for a := range authors {
		f.Authors = append(f.Authors, a)
	}
	slices.Sort(f.Authors)
	if len(f.Authors) > maxAuthorFacets {
		f.Authors = f.Authors[:maxAuthorFacets]
	}
	for d := range decades {
		f.Decades = append(f.Decades, d)
	}
	slices.Sort(f.Decades)
	slices.Reverse(f.Decades)
	return f
}
