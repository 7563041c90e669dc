// Package sitemap renders the public site's sitemap from the static routes
// and the current catalog.
package sitemap

import (
	"context"
	"encoding/xml"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/narwhalmedia/fantasycards/internal/catalog/domain"
	"github.com/narwhalmedia/fantasycards/pkg/interfaces"
	"github.com/narwhalmedia/fantasycards/pkg/tracing"
)

const (
	namespace     = "http://www.sitemaps.org/schemas/sitemap/0.9"
	cacheKey      = "sitemap:xml"
	bookSubject   = "fantasy"
	moviePages    = 1
	lastModLayout = "2006-01-02"
)

// ChangeFreq is a sitemaps.org change frequency.
type ChangeFreq string

const (
	Daily  ChangeFreq = "daily"
	Weekly ChangeFreq = "weekly"
)

// URL is one <url> element.
type URL struct {
	Loc        string     `xml:"loc"`
	LastMod    string     `xml:"lastmod"`
	ChangeFreq ChangeFreq `xml:"changefreq"`
	Priority   string     `xml:"priority"`
}

// URLSet is the document root.
type URLSet struct {
	XMLName xml.Name `xml:"urlset"`
	XMLNS   string   `xml:"xmlns,attr"`
	URLs    []URL    `xml:"url"`
}

// Lister is the part of the aggregator the builder needs.
type Lister interface {
	AggregateByPages(ctx context.Context, kind domain.Kind, maxPages int) ([]domain.Entry, error)
	AggregateByTopics(ctx context.Context, kind domain.Kind, topics []string, perTopicLimit int) ([]domain.Entry, error)
}

// Builder assembles sitemaps.
type Builder struct {
	siteURL  string
	lister   Lister
	bookSize int
	logger   interfaces.Logger
	now      func() time.Time
	cache    interfaces.Cache
	ttl      time.Duration
}

// Option customises a Builder.
type Option func(*Builder)

// WithClock overrides the time used for lastmod.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) { b.now = now }
}

// WithCache keeps rendered documents in c for ttl.
func WithCache(c interfaces.Cache, ttl time.Duration) Option {
	return func(b *Builder) {
		if ttl > 0 {
			b.cache, b.ttl = c, ttl
		}
	}
}

// NewBuilder creates a sitemap builder for siteURL.
func NewBuilder(siteURL string, lister Lister, bookSize int, logger interfaces.Logger, opts ...Option) *Builder {
	if bookSize < 1 {
		bookSize = 100
	}
	b := &Builder{
		siteURL:  strings.TrimRight(siteURL, "/"),
		lister:   lister,
		bookSize: bookSize,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

type staticPage struct {
	path     string
	freq     ChangeFreq
	priority string
}

var staticPages = []staticPage{
	{"", Daily, "1.0"},
	{"/movies", Daily, "0.9"},
	{"/books", Daily, "0.9"},
	{"/tv", Daily, "0.9"},
	{"/search", Weekly, "0.5"},
}

// Build collects every sitemap URL. Upstream failures degrade to a sitemap
// of static pages only.
func (b *Builder) Build(ctx context.Context) (*URLSet, error) {
	ctx, span := tracing.StartSpan(ctx, "sitemap.Build")
	defer span.End()

	var movies, books []domain.Entry
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		entries, err := b.lister.AggregateByPages(gctx, domain.KindMovie, moviePages)
		movies = domain.FallbackEmpty(b.logger, "sitemap movies", entries, err)
		return nil
	})
	g.Go(func() error {
		entries, err := b.lister.AggregateByTopics(gctx, domain.KindBook, []string{bookSubject}, b.bookSize)
		books = domain.FallbackEmpty(b.logger, "sitemap books", entries, err)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	lastMod := b.now().UTC().Format(lastModLayout)
	set := &URLSet{XMLNS: namespace, URLs: make([]URL, 0, len(staticPages)+len(movies)+len(books))}
	for _, p := range staticPages {
		set.URLs = append(set.URLs, URL{Loc: b.siteURL + p.path, LastMod: lastMod, ChangeFreq: p.freq, Priority: p.priority})
	}
	for _, e := range movies {
		set.URLs = append(set.URLs, URL{Loc: b.siteURL + "/movies/" + e.ID, LastMod: lastMod, ChangeFreq: Weekly, Priority: "0.7"})
	}
	for _, e := range books {
		set.URLs = append(set.URLs, URL{Loc: b.siteURL + "/books/" + e.ID, LastMod: lastMod, ChangeFreq: Weekly, Priority: "0.7"})
	}

	b.logger.Info("Built sitemap",
		interfaces.Int("urls", len(set.URLs)),
		interfaces.Int("movies", len(movies)),
		interfaces.Int("books", len(books)))
	return set, nil
}

// Render builds the sitemap and encodes it as XML. With a cache, a
// document rendered within the TTL is served again without rebuilding.
func (b *Builder) Render(ctx context.Context) ([]byte, error) {
	if b.cache != nil {
		if v, err := b.cache.Get(ctx, cacheKey); err == nil {
			if body, ok := v.([]byte); ok {
				return body, nil
			}
		}
	}

	set, err := b.Build(ctx)
	if err != nil {
		return nil, err
	}
	out, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return nil, err
	}
	body := append([]byte(xml.Header), out...)

	if b.cache != nil {
		if err := b.cache.Set(ctx, cacheKey, body, b.ttl); err != nil {
			b.logger.Warn("Failed to cache sitemap", interfaces.Error(err))
		}
	}
	return body, nil
}
