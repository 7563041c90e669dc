package domain_test

import (
	"strconv"

	"github.com/narwhalmedia/fantasycards/internal/catalog/domain"
)

func ptr[T any](v T) *T { return &v }

func movie(id int, title, date string, rating *float64, genres ...int) domain.Entry {
	return domain.Entry{
		Kind:        domain.KindMovie,
		ID:          strconv.Itoa(id),
		Title:       title,
		ReleaseDate: date,
		Year:        domain.YearFromDate(date),
		Rating:      rating,
		Screen:      &domain.ScreenInfo{GenreIDs: genres},
	}
}

func book(id, title string, year int, authors []string, subjects ...string) domain.Entry {
	e := domain.Entry{
		Kind:  domain.KindBook,
		ID:    id,
		Title: title,
		Book:  &domain.BookInfo{Authors: authors, Subjects: subjects},
	}
	if year > 0 {
		e.Year = &year
		e.ReleaseDate = strconv.Itoa(year)
	}
	return e
}

func ids(entries []domain.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}
