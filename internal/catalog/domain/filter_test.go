package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/narwhalmedia/fantasycards/internal/catalog/domain"
)

func TestApply_DecadeKeepsOrder(t *testing.T) {
	entries := []domain.Entry{
		movie(1, "Labyrinth", "1985-06-27", nil),
		movie(2, "Hook", "1992-12-11", nil),
		movie(3, "Sleepy Hollow", "1999-11-19", nil),
		movie(4, "Shrek", "2001-05-18", nil),
	}

	got := domain.Apply(entries, domain.FilterSpec{DecadeStart: ptr(1990)})
	assert.Equal(t, []string{"2", "3"}, ids(got))
}

func TestApply_AbsentValuesFailFloors(t *testing.T) {
	entries := []domain.Entry{
		movie(1, "Rated", "2001-01-01", ptr(7.5)),
		movie(2, "Unrated", "2002-01-01", nil),
		movie(3, "Undated", "", ptr(9.0)),
	}

	assert.Equal(t, []string{"1", "3"}, ids(domain.Apply(entries, domain.FilterSpec{MinRating: ptr(7.0)})))
	assert.Equal(t, []string{"1", "2"}, ids(domain.Apply(entries, domain.FilterSpec{DecadeStart: ptr(2000)})))
}

func TestApply_Category(t *testing.T) {
	t.Run("genre ids match exactly", func(t *testing.T) {
		entries := []domain.Entry{
			movie(1, "A", "", nil, 14, 12),
			movie(2, "B", "", nil, 140),
			movie(3, "C", "", nil, 16),
		}
		assert.Equal(t, []string{"1"}, ids(domain.Apply(entries, domain.FilterSpec{Category: "14"})))
		assert.Empty(t, domain.Apply(entries, domain.FilterSpec{Category: "fantasy"}))
	})

	t.Run("subjects match by substring", func(t *testing.T) {
		entries := []domain.Entry{
			book("OL1W", "A", 0, nil, "Fantasy fiction", "Dark Fantasy Fiction"),
			book("OL2W", "B", 0, nil, "Urban fantasy"),
			book("OL3W", "C", 0, nil),
		}
		assert.Equal(t, []string{"OL1W"}, ids(domain.Apply(entries, domain.FilterSpec{Category: "dark_fantasy"})))
		assert.Equal(t, []string{"OL1W", "OL2W"}, ids(domain.Apply(entries, domain.FilterSpec{Category: "FANTASY"})))
	})
}

func TestApply_AuthorAndQuery(t *testing.T) {
	entries := []domain.Entry{
		book("OL1W", "The Hobbit", 1937, []string{"J.R.R. Tolkien"}),
		book("OL2W", "A Wizard of Earthsea", 1968, []string{"Ursula K. Le Guin"}),
		book("OL3W", "The Silmarillion", 1977, []string{"J.R.R. Tolkien", "Christopher Tolkien"}),
	}

	assert.Equal(t, []string{"OL1W", "OL3W"}, ids(domain.Apply(entries, domain.FilterSpec{Author: "J.R.R. Tolkien"})))
	assert.Empty(t, domain.Apply(entries, domain.FilterSpec{Author: "Tolkien"}))
	assert.Equal(t, []string{"OL2W"}, ids(domain.Apply(entries, domain.FilterSpec{Query: "earthSEA"})))
}

func TestApply_CompositionEqualsSequential(t *testing.T) {
	entries := []domain.Entry{
		movie(1, "A", "1995-01-01", ptr(7.2), 14),
		movie(2, "B", "1996-01-01", ptr(6.1), 14),
		movie(3, "C", "1997-01-01", ptr(8.3), 12),
		movie(4, "D", "2005-01-01", ptr(9.0), 14),
		movie(5, "E", "1998-01-01", nil, 14),
	}
	specs := []domain.FilterSpec{
		{Category: "14"},
		{MinRating: ptr(7.0)},
		{DecadeStart: ptr(1990)},
	}

	sequential := entries
	var combined domain.FilterSpec
	for _, s := range specs {
		sequential = domain.Apply(sequential, s)
		if s.Category != "" {
			combined.Category = s.Category
		}
		if s.MinRating != nil {
			combined.MinRating = s.MinRating
		}
		if s.DecadeStart != nil {
			combined.DecadeStart = s.DecadeStart
		}
	}

	all := domain.Apply(entries, combined)
	assert.Equal(t, ids(sequential), ids(all))
	assert.Equal(t, []string{"1"}, ids(all))
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	entries := []domain.Entry{movie(1, "A", "", ptr(5.0)), movie(2, "B", "", ptr(9.0))}
	before := ids(entries)

	_ = domain.Apply(entries, domain.FilterSpec{MinRating: ptr(6.0)})
	_ = domain.Sort(entries, domain.SortRating)

	assert.Equal(t, before, ids(entries))
}

func TestSort(t *testing.T) {
	t.Run("rating puts absent last", func(t *testing.T) {
		entries := []domain.Entry{
			movie(1, "A", "", ptr(3.2)),
			movie(2, "B", "", nil),
			movie(3, "C", "", ptr(8.1)),
		}
		assert.Equal(t, []string{"3", "1", "2"}, ids(domain.Sort(entries, domain.SortRating)))
	})

	t.Run("rating is stable", func(t *testing.T) {
		entries := []domain.Entry{
			movie(1, "A", "", ptr(7.0)),
			movie(2, "B", "", ptr(7.0)),
			movie(3, "C", "", nil),
			movie(4, "D", "", nil),
		}
		assert.Equal(t, []string{"1", "2", "3", "4"}, ids(domain.Sort(entries, domain.SortRating)))
	})

	t.Run("year compares raw dates", func(t *testing.T) {
		entries := []domain.Entry{
			movie(1, "A", "2001-12-18", nil),
			movie(2, "B", "", nil),
			movie(3, "C", "2001-05-01", nil),
			movie(4, "D", "1999-01-01", nil),
		}
		assert.Equal(t, []string{"1", "3", "4", "2"}, ids(domain.Sort(entries, domain.SortYearDesc)))
		assert.Equal(t, []string{"2", "4", "3", "1"}, ids(domain.Sort(entries, domain.SortYearAsc)))
	})

	t.Run("title is locale aware", func(t *testing.T) {
		entries := []domain.Entry{
			movie(1, "zelda", "", nil),
			movie(2, "Éragon", "", nil),
			movie(3, "Avatar", "", nil),
		}
		assert.Equal(t, []string{"3", "2", "1"}, ids(domain.Sort(entries, domain.SortTitle)))
	})

	t.Run("popularity keeps order", func(t *testing.T) {
		entries := []domain.Entry{movie(2, "B", "", ptr(1.0)), movie(1, "A", "", ptr(9.0))}
		assert.Equal(t, []string{"2", "1"}, ids(domain.Sort(entries, domain.SortPopularity)))
	})
}

func TestParseSortKey(t *testing.T) {
	for in, want := range map[string]domain.SortKey{
		"":           domain.SortPopularity,
		"popularity": domain.SortPopularity,
		"year":       domain.SortYearDesc,
		"year-asc":   domain.SortYearAsc,
		"title":      domain.SortTitle,
	} {
		got, ok := domain.ParseSortKey(in)
		require.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}

	_, ok := domain.ParseSortKey("random")
	assert.False(t, ok)
}

func TestPaginateWindow(t *testing.T) {
	entries := make([]domain.Entry, 50)
	for i := range entries {
		entries[i] = movie(i, "T", "", nil)
	}

	prev, more := domain.PaginateWindow(entries, 24, 1)
	assert.Len(t, prev, 24)
	assert.True(t, more)

	for n := 2; n <= 4; n++ {
		window, more := domain.PaginateWindow(entries, 24, n)
		assert.Greater(t, len(window), len(prev)-1)
		assert.Equal(t, ids(prev), ids(window[:len(prev)]))
		assert.Equal(t, len(window) < len(entries), more)
		prev = window
	}

	all, more := domain.PaginateWindow(entries, 24, 3)
	assert.Len(t, all, 50)
	assert.False(t, more)

	def, _ := domain.PaginateWindow(entries, 0, 0)
	assert.Len(t, def, domain.DefaultPageSize)
}

func TestBuildFacets(t *testing.T) {
	entries := []domain.Entry{
		movie(1, "A", "1999-01-01", nil, 14, 12),
		movie(2, "B", "2004-01-01", nil, 14, 16),
		book("OL1W", "C", 1954, []string{"J.R.R. Tolkien", " "}),
		book("OL2W", "D", 0, []string{"Ursula K. Le Guin", "J.R.R. Tolkien"}),
	}

	f := domain.BuildFacets(entries)
	assert.Equal(t, []int{12, 14, 16}, f.GenreIDs)
	assert.Equal(t, []string{"J.R.R. Tolkien", "Ursula K. Le Guin"}, f.Authors)
	assert.Equal(t, []int{2000, 1990, 1950}, f.Decades)
}

func TestSignature(t *testing.T) {
	a := domain.FilterSpec{Category: "14", MinRating: ptr(7.5), Sort: domain.SortRating}
	b := domain.FilterSpec{Category: "14", MinRating: ptr(7.5), Sort: domain.SortRating}
	c := domain.FilterSpec{Category: "14"}

	assert.Equal(t, a.Signature(domain.KindMovie), b.Signature(domain.KindMovie))
	assert.NotEqual(t, a.Signature(domain.KindMovie), a.Signature(domain.KindTV))
	assert.NotEqual(t, a.Signature(domain.KindMovie), c.Signature(domain.KindMovie))
	assert.Equal(t, "movie|category=14|min_rating=7.5|sort=rating", a.Signature(domain.KindMovie))
}

func TestYearFromDate(t *testing.T) {
	assert.Equal(t, 2001, *domain.YearFromDate("2001-12-18"))
	assert.Equal(t, 1954, *domain.YearFromDate("July 29, 1954"))
	assert.Nil(t, domain.YearFromDate(""))
	assert.Nil(t, domain.YearFromDate("n.d."))
}
