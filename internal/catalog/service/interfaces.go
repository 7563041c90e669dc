package service

import (
	"context"

	"github.com/narwhalmedia/fantasycards/internal/catalog/domain"
)

// ScreenSearcher runs movie and TV title searches.
type ScreenSearcher interface {
	Search(ctx context.Context, kind domain.Kind, query string, page int) ([]domain.Entry, error)
}

// BookSearcher runs free-text book searches.
type BookSearcher interface {
	Search(ctx context.Context, query string, limit int) ([]domain.Entry, error)
}

// Catalog defines the catalog service operations used by the transports.
type Catalog interface {
	Catalog(ctx context.Context, kind domain.Kind) ([]domain.Entry, error)
	Browse(ctx context.Context, kind domain.Kind, filter domain.FilterSpec, pageCount int) (*Listing, error)
	Detail(ctx context.Context, kind domain.Kind, id string) (*domain.Detail, error)
	Author(ctx context.Context, id string) (*domain.Author, error)
	Search(ctx context.Context, query string, scope SearchScope) (*SearchResults, error)
	Warm(ctx context.Context, kinds ...domain.Kind) (map[domain.Kind]int, error)
	Invalidate(ctx context.Context, kind domain.Kind) error
}
