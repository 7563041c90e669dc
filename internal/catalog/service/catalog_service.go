package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/narwhalmedia/fantasycards/internal/catalog/domain"
	"github.com/narwhalmedia/fantasycards/pkg/errors"
	"github.com/narwhalmedia/fantasycards/pkg/interfaces"
	"github.com/narwhalmedia/fantasycards/pkg/metrics"
	"github.com/narwhalmedia/fantasycards/pkg/tracing"
)

const (
	catalogKeyPrefix = "catalog:"
	detailKeyPrefix  = "detail:"
	authorKeyPrefix  = "author:"
)

// Options is the aggregation plan and caching policy of the service.
type Options struct {
	MoviePages    int
	TVPages       int
	BookSubjects  []string
	BookLimit     int
	SearchLimit   int
	MixedBookHits int
	PageSize      int
	MaxPages      int
	ScreenTTL     time.Duration
	BookTTL       time.Duration
	DetailTTL     time.Duration
	WorkTTL       time.Duration
}

// Listing is one browse window over a filtered catalog.
type Listing struct {
	Kind    domain.Kind       `json:"kind"`
	Filter  domain.FilterSpec `json:"filter"`
	Entries []domain.Entry    `json:"entries"`
	Total   int               `json:"total"`
	Pages   int               `json:"pages"`
	HasMore bool              `json:"has_more"`
	Facets  domain.Facets     `json:"facets"`
}

// SearchScope limits a search to some catalogs.
type SearchScope string

const (
	ScopeAll    SearchScope = "all"
	ScopeMovies SearchScope = "movies"
	ScopeTV     SearchScope = "tv"
	ScopeBooks  SearchScope = "books"
)

// ParseSearchScope maps the type query value onto a scope; empty is all.
func ParseSearchScope(s string) (SearchScope, error) {
	switch SearchScope(s) {
	case "", ScopeAll:
		return ScopeAll, nil
	case ScopeMovies, ScopeTV, ScopeBooks:
		return SearchScope(s), nil
	}
	return "", errors.BadRequest(fmt.Sprintf("unknown search type %q", s))
}

// SearchResults groups hits per catalog.
type SearchResults struct {
	Query  string         `json:"query" yaml:"query"`
	Movies []domain.Entry `json:"movies" yaml:"movies"`
	TV     []domain.Entry `json:"tv" yaml:"tv"`
	Books  []domain.Entry `json:"books" yaml:"books"`
}

// CatalogService aggregates, caches and queries the catalogs.
type CatalogService struct {
	aggregator *domain.Aggregator
	resolver   *domain.DetailResolver
	screens    ScreenSearcher
	books      BookSearcher
	cache      interfaces.Cache
	eventBus   interfaces.EventBus
	flights    singleflight.Group
	opts       Options
	logger     interfaces.Logger
}

// NewCatalogService creates a new catalog service
func NewCatalogService(
	aggregator *domain.Aggregator,
	resolver *domain.DetailResolver,
	screens ScreenSearcher,
	books BookSearcher,
	cache interfaces.Cache,
	eventBus interfaces.EventBus,
	opts Options,
	logger interfaces.Logger,
) *CatalogService {
	if opts.PageSize < 1 {
		opts.PageSize = domain.DefaultPageSize
	}
	if opts.MaxPages < 1 {
		opts.MaxPages = 20
	}
	return &CatalogService{
		aggregator: aggregator,
		resolver:   resolver,
		screens:    screens,
		books:      books,
		cache:      cache,
		eventBus:   eventBus,
		opts:       opts,
		logger:     logger,
	}
}

// Catalog returns the full aggregated catalog of kind, from cache when
// fresh. Concurrent misses share one aggregation.
func (s *CatalogService) Catalog(ctx context.Context, kind domain.Kind) ([]domain.Entry, error) {
	key := catalogKeyPrefix + string(kind)
	if cached, err := s.cache.Get(ctx, key); err == nil {
		if entries, ok := cached.([]domain.Entry); ok {
			metrics.RecordCache("catalog", true)
			return entries, nil
		}
	}
	metrics.RecordCache("catalog", false)

	v, err, _ := s.flights.Do(key, func() (interface{}, error) {
		// The aggregation outlives a caller that gives up, so waiters
		// sharing this flight still get the result.
		return s.refresh(context.WithoutCancel(ctx), kind)
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.Entry), nil
}

// refresh aggregates kind from upstream and stores it.
func (s *CatalogService) refresh(ctx context.Context, kind domain.Kind) ([]domain.Entry, error) {
	ctx, span := tracing.StartSpan(ctx, "catalog.aggregate")
	defer span.End()

	start := time.Now()
	var (
		entries []domain.Entry
		err     error
	)
	switch kind {
	case domain.KindMovie:
		entries, err = s.aggregator.AggregateByPages(ctx, kind, s.opts.MoviePages)
	case domain.KindTV:
		entries, err = s.aggregator.AggregateByPages(ctx, kind, s.opts.TVPages)
	case domain.KindBook:
		entries, err = s.aggregator.AggregateByTopics(ctx, kind, s.opts.BookSubjects, s.opts.BookLimit)
	default:
		return nil, errors.BadRequest(fmt.Sprintf("unknown catalog kind %q", kind))
	}
	if err != nil {
		span.RecordError(err)
		s.logger.Error("Catalog aggregation failed",
			interfaces.String("kind", string(kind)),
			interfaces.Error(err))
		return nil, err
	}
	metrics.RecordAggregation(string(kind), len(entries), start)

	if err := s.cache.Set(ctx, catalogKeyPrefix+string(kind), entries, s.catalogTTL(kind)); err != nil {
		s.logger.Warn("Failed to cache catalog", interfaces.String("kind", string(kind)), interfaces.Error(err))
	}
	s.logger.Info("Catalog aggregated",
		interfaces.String("kind", string(kind)),
		interfaces.Int("entries", len(entries)),
		interfaces.Duration("took", time.Since(start)))
	return entries, nil
}

// Browse filters, sorts and windows a catalog. Facets describe the whole
// catalog so filter choices do not vanish as filters narrow the listing.
func (s *CatalogService) Browse(ctx context.Context, kind domain.Kind, filter domain.FilterSpec, pageCount int) (*Listing, error) {
	entries, err := s.Catalog(ctx, kind)
	if err != nil {
		return nil, err
	}

	pageCount = min(max(pageCount, 1), s.opts.MaxPages)
	matched := domain.Sort(domain.Apply(entries, filter), filter.Sort)
	window, hasMore := domain.PaginateWindow(matched, s.opts.PageSize, pageCount)

	return &Listing{
		Kind:    kind,
		Filter:  filter,
		Entries: window,
		Total:   len(matched),
		Pages:   pageCount,
		HasMore: hasMore,
		Facets:  domain.BuildFacets(entries),
	}, nil
}

// Detail returns the detail view of one entry.
func (s *CatalogService) Detail(ctx context.Context, kind domain.Kind, id string) (*domain.Detail, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errors.BadRequest("id is required")
	}
	key := detailKeyPrefix + string(kind) + ":" + id
	ttl := s.opts.DetailTTL
	if kind == domain.KindBook {
		ttl = s.opts.WorkTTL
	}

	v, err := s.cached(ctx, "detail", key, ttl, func(ctx context.Context) (interface{}, error) {
		return s.resolver.Resolve(ctx, kind, id)
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Detail), nil
}

// Author returns an author page.
func (s *CatalogService) Author(ctx context.Context, id string) (*domain.Author, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errors.BadRequest("author id is required")
	}
	v, err := s.cached(ctx, "author", authorKeyPrefix+id, s.opts.WorkTTL, func(ctx context.Context) (interface{}, error) {
		return s.resolver.ResolveAuthor(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Author), nil
}

func (s *CatalogService) cached(
	ctx context.Context,
	shape, key string,
	ttl time.Duration,
	load func(context.Context) (interface{}, error),
) (interface{}, error) {
	if v, err := s.cache.Get(ctx, key); err == nil && v != nil {
		metrics.RecordCache(shape, true)
		return v, nil
	}
	metrics.RecordCache(shape, false)

	v, err, _ := s.flights.Do(key, func() (interface{}, error) {
		v, err := load(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		if err := s.cache.Set(ctx, key, v, ttl); err != nil {
			s.logger.Warn("Failed to cache value", interfaces.String("key", key), interfaces.Error(err))
		}
		return v, nil
	})
	return v, err
}

// Search looks a query up in the catalogs selected by scope. The mixed
// scope searches movies and books in parallel. A blank query has no hits.
func (s *CatalogService) Search(ctx context.Context, query string, scope SearchScope) (*SearchResults, error) {
	query = strings.TrimSpace(query)
	res := &SearchResults{
		Query:  query,
		Movies: []domain.Entry{},
		TV:     []domain.Entry{},
		Books:  []domain.Entry{},
	}
	if query == "" {
		return res, nil
	}

	ctx, span := tracing.StartSpan(ctx, "catalog.search")
	defer span.End()

	var err error
	switch scope {
	case ScopeMovies:
		res.Movies, err = s.screens.Search(ctx, domain.KindMovie, query, 1)
	case ScopeTV:
		res.TV, err = s.screens.Search(ctx, domain.KindTV, query, 1)
	case ScopeBooks:
		res.Books, err = s.books.Search(ctx, query, s.opts.SearchLimit)
	case ScopeAll, "":
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			movies, err := s.screens.Search(gctx, domain.KindMovie, query, 1)
			res.Movies = movies
			return err
		})
		g.Go(func() error {
			books, err := s.books.Search(gctx, query, s.opts.MixedBookHits)
			res.Books = books
			return err
		})
		err = g.Wait()
	default:
		return nil, errors.BadRequest(fmt.Sprintf("unknown search type %q", scope))
	}
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return res, nil
}

// Warm re-aggregates the given kinds, all of them when none are named,
// bypassing and then replacing the cache. Each refreshed kind is announced
// on the event bus in the background so a slow broker does not hold up
// the warm-up; the bus's Stop waits for those deliveries.
func (s *CatalogService) Warm(ctx context.Context, kinds ...domain.Kind) (map[domain.Kind]int, error) {
	if len(kinds) == 0 {
		kinds = domain.Kinds
	}

	counts := make([]int, len(kinds))
	g, gctx := errgroup.WithContext(ctx)
	for i, kind := range kinds {
		g.Go(func() error {
			entries, err := s.refresh(gctx, kind)
			if err != nil {
				return fmt.Errorf("warm %s: %w", kind, err)
			}
			counts[i] = len(entries)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[domain.Kind]int, len(kinds))
	for i, kind := range kinds {
		out[kind] = counts[i]
		if s.eventBus != nil {
			s.eventBus.PublishAsync(ctx, domain.NewCatalogRefreshed(kind, counts[i]))
		}
	}
	return out, nil
}

// Invalidate drops the cached catalog of kind, and every cached detail
// page of that kind, so the next read goes upstream.
func (s *CatalogService) Invalidate(ctx context.Context, kind domain.Kind) error {
	if err := s.cache.Delete(ctx, catalogKeyPrefix+string(kind)); err != nil {
		return fmt.Errorf("invalidate %s: %w", kind, err)
	}
	if err := s.cache.DeletePrefix(ctx, detailKeyPrefix+string(kind)+":"); err != nil {
		return fmt.Errorf("invalidate %s details: %w", kind, err)
	}
	s.logger.Info("Catalog invalidated", interfaces.String("kind", string(kind)))
	return nil
}

func (s *CatalogService) catalogTTL(kind domain.Kind) time.Duration {
	if kind == domain.KindBook {
		return s.opts.BookTTL
	}
	return s.opts.ScreenTTL
}
