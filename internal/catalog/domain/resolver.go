package domain

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	apperrors "github.com/narwhalmedia/fantasycards/pkg/errors"
	"github.com/narwhalmedia/fantasycards/pkg/interfaces"
	"github.com/narwhalmedia/fantasycards/pkg/metrics"
)

// ScreenCatalog serves movie and TV detail lookups.
type ScreenCatalog interface {
	Detail(ctx context.Context, kind Kind, id string) (*Detail, error)
	Similar(ctx context.Context, kind Kind, id string) ([]Entry, error)
}

// RatingSummary is the aggregate reader rating of a book.
type RatingSummary struct {
	Average float64
	Count   int
}

// BookCatalog serves book and author lookups.
type BookCatalog interface {
	Work(ctx context.Context, id string) (*Detail, error)
	// Ratings returns nil when the work has no ratings.
	Ratings(ctx context.Context, id string) (*RatingSummary, error)
	Author(ctx context.Context, id string) (*Author, error)
	AuthorWorks(ctx context.Context, id string, limit int) ([]Entry, error)
}

// ResolverConfig caps the enrichment lists.
type ResolverConfig struct {
	SimilarLimit   int
	RelatedLimit   int
	AuthorRefLimit int
	AuthorWorks    int
	// RelatedTimeout bounds the related-books lookup, including its wait
	// on the shared topic pacer.
	RelatedTimeout time.Duration
}

// DetailResolver assembles detail views. The primary record is required;
// every enrichment is best-effort and left empty when it fails.
type DetailResolver struct {
	screens    ScreenCatalog
	books      BookCatalog
	aggregator *Aggregator
	cfg        ResolverConfig
	logger     interfaces.Logger
}

// NewDetailResolver creates a resolver. Zero limits take the defaults
// 8 similar, 12 related, 3 author references, 24 author works and a 5s
// related-books deadline.
func NewDetailResolver(
	screens ScreenCatalog,
	books BookCatalog,
	aggregator *Aggregator,
	cfg ResolverConfig,
	logger interfaces.Logger,
) *DetailResolver {
	if cfg.SimilarLimit <= 0 {
		cfg.SimilarLimit = 8
	}
	if cfg.RelatedLimit <= 0 {
		cfg.RelatedLimit = 12
	}
	if cfg.AuthorRefLimit <= 0 {
		cfg.AuthorRefLimit = 3
	}
	if cfg.AuthorWorks <= 0 {
		cfg.AuthorWorks = 24
	}
	if cfg.RelatedTimeout <= 0 {
		cfg.RelatedTimeout = 5 * time.Second
	}
	return &DetailResolver{
		screens:    screens,
		books:      books,
		aggregator: aggregator,
		cfg:        cfg,
		logger:     logger,
	}
}

// Resolve builds the detail view of one entry. A missing id yields a
// NOT_FOUND AppError; other primary failures propagate unchanged.
func (r *DetailResolver) Resolve(ctx context.Context, kind Kind, id string) (*Detail, error) {
	var (
		detail *Detail
		err    error
	)
	switch {
	case kind.IsScreen():
		detail, err = r.resolveScreen(ctx, kind, id)
	case kind == KindBook:
		detail, err = r.resolveBook(ctx, id)
	default:
		return nil, apperrors.BadRequest(fmt.Sprintf("unknown catalog kind %q", kind))
	}
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.Wrap(apperrors.ErrorTypeNotFound, fmt.Sprintf("%s %s not found", kind, id), err)
		}
		return nil, err
	}
	return detail, nil
}

func (r *DetailResolver) resolveScreen(ctx context.Context, kind Kind, id string) (*Detail, error) {
	var (
		detail  *Detail
		similar []Entry
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		d, err := r.screens.Detail(gctx, kind, id)
		if err != nil {
			return err
		}
		detail = d
		return nil
	})
	g.Go(func() error {
		s, err := r.screens.Similar(gctx, kind, id)
		if err != nil {
			r.enrichmentFailed(kind, id, "similar", err)
			return nil
		}
		similar = s
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	detail.Similar = capExcluding(similar, id, r.cfg.SimilarLimit)
	return detail, nil
}

func (r *DetailResolver) resolveBook(ctx context.Context, id string) (*Detail, error) {
	var (
		detail  *Detail
		ratings *RatingSummary
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		d, err := r.books.Work(gctx, id)
		if err != nil {
			return err
		}
		detail = d
		return nil
	})
	g.Go(func() error {
		s, err := r.books.Ratings(gctx, id)
		if err != nil {
			r.enrichmentFailed(KindBook, id, "ratings", err)
			return nil
		}
		ratings = s
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if ratings != nil && ratings.Count > 0 {
		avg, count := ratings.Average, ratings.Count
		detail.Rating = &avg
		detail.RatingCount = &count
	}

	// Follow-ups need the primary record: its first subject and its authors.
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		detail.Similar = r.relatedBooks(ctx, detail)
	}()
	go func() {
		defer wg.Done()
		detail.AuthorRefs = r.authorRefs(ctx, detail)
	}()
	wg.Wait()

	if detail.Book != nil && len(detail.Book.Authors) == 0 {
		for _, ref := range detail.AuthorRefs {
			detail.Book.Authors = append(detail.Book.Authors, ref.Name)
		}
	}
	return detail, nil
}

// relatedBooks reruns the single-topic aggregation on the first subject.
// The topic pacer is shared with catalog aggregation, so during a warm-up
// the wait can be long; past RelatedTimeout the list is left empty.
func (r *DetailResolver) relatedBooks(ctx context.Context, detail *Detail) []Entry {
	if detail.Book == nil || len(detail.Book.Subjects) == 0 || r.aggregator == nil {
		return []Entry{}
	}
	ctx, cancel := context.WithTimeout(ctx, r.cfg.RelatedTimeout)
	defer cancel()

	subject := detail.Book.Subjects[0]
	entries, err := r.aggregator.AggregateByTopics(ctx, KindBook, []string{subject}, r.cfg.RelatedLimit+5)
	if err != nil {
		metrics.EnrichmentFailures.WithLabelValues(string(KindBook), "related").Inc()
	}
	entries = FallbackEmpty(r.logger, "related books", entries, err)
	return capExcluding(entries, detail.ID, r.cfg.RelatedLimit)
}

// authorRefs looks up names for the first few author keys concurrently.
// Keys whose lookup fails are dropped.
func (r *DetailResolver) authorRefs(ctx context.Context, detail *Detail) []AuthorRef {
	if detail.Book == nil {
		return nil
	}
	keys := detail.Book.AuthorKeys
	if len(keys) > r.cfg.AuthorRefLimit {
		keys = keys[:r.cfg.AuthorRefLimit]
	}

	refs := make([]*AuthorRef, len(keys))
	var wg sync.WaitGroup
	for i, key := range keys {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a, err := r.books.Author(ctx, key)
			if err != nil {
				r.enrichmentFailed(KindBook, detail.ID, "author", err)
				return
			}
			refs[i] = &AuthorRef{ID: key, Name: a.Name}
		}()
	}
	wg.Wait()

	out := make([]AuthorRef, 0, len(refs))
	for _, ref := range refs {
		if ref != nil {
			out = append(out, *ref)
		}
	}
	return out
}

// ResolveAuthor builds an author page. The author record is required,
// the works list is best-effort.
func (r *DetailResolver) ResolveAuthor(ctx context.Context, id string) (*Author, error) {
	var (
		author *Author
		works  []Entry
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a, err := r.books.Author(gctx, id)
		if err != nil {
			return err
		}
		author = a
		return nil
	})
	g.Go(func() error {
		w, err := r.books.AuthorWorks(gctx, id, r.cfg.AuthorWorks)
		if err != nil {
			r.enrichmentFailed(KindBook, id, "author_works", err)
			return nil
		}
		works = w
		return nil
	})
	if err := g.Wait(); err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.Wrap(apperrors.ErrorTypeNotFound, fmt.Sprintf("author %s not found", id), err)
		}
		return nil, err
	}

	author.Works = Dedupe(works)
	return author, nil
}

func (r *DetailResolver) enrichmentFailed(kind Kind, id, enrichment string, err error) {
	metrics.EnrichmentFailures.WithLabelValues(string(kind), enrichment).Inc()
	r.logger.Warn("Detail enrichment failed",
		interfaces.String("kind", string(kind)),
		interfaces.String("id", id),
		interfaces.String("enrichment", enrichment),
		interfaces.Error(err))
}

// capExcluding drops self and duplicates, then truncates to limit.
func capExcluding(entries []Entry, self string, limit int) []Entry {
	out := make([]Entry, 0, min(len(entries), limit))
	for _, e := range Dedupe(entries) {
		if len(out) >= limit {
			break
		}
		if e.ID == self {
			continue
		}
		out = append(out, e)
	}
	return slices.Clip(out)
}
