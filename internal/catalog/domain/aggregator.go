package domain

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/narwhalmedia/fantasycards/pkg/interfaces"
)

// PageQuery addresses one upstream call: a result page, or a topic with a
// result limit.
type PageQuery struct {
	Page  int
	Topic string
	Limit int
}

// Page is what a Source returns for one call. TotalPages is zero when the
// upstream does not report it.
type Page struct {
	Entries    []Entry
	Page       int
	TotalPages int
}

// Source fetches catalog pages for the kinds it serves.
type Source interface {
	Name() string
	Kinds() []Kind
	FetchPage(ctx context.Context, kind Kind, q PageQuery) (*Page, error)
}

// Aggregator merges many upstream calls into one deduplicated list per kind.
type Aggregator struct {
	sources map[Kind]Source
	mu      sync.RWMutex
	pacer   *rate.Limiter
	logger  interfaces.Logger
}

// NewAggregator creates an aggregator. Successive topic calls, across all
// concurrent aggregations, are spaced at least topicDelay apart.
func NewAggregator(topicDelay time.Duration, logger interfaces.Logger) *Aggregator {
	limit := rate.Inf
	if topicDelay > 0 {
		limit = rate.Every(topicDelay)
	}
	return &Aggregator{
		sources: make(map[Kind]Source),
		pacer:   rate.NewLimiter(limit, 1),
		logger:  logger,
	}
}

// RegisterSource registers a source for every kind it reports, replacing
// any earlier source for those kinds.
func (a *Aggregator) RegisterSource(src Source) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, k := range src.Kinds() {
		a.sources[k] = src
	}
	a.logger.Info("Registered catalog source",
		interfaces.String("source", src.Name()),
		interfaces.Any("kinds", src.Kinds()))
}

// Source returns the source registered for kind.
func (a *Aggregator) Source(kind Kind) (Source, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	src, ok := a.sources[kind]
	if !ok {
		return nil, fmt.Errorf("no catalog source registered for %s", kind)
	}
	return src, nil
}

// AggregateByPages fetches pages 1..maxPages and stops early once the
// upstream reports its last page. Any failed page fails the aggregation.
func (a *Aggregator) AggregateByPages(ctx context.Context, kind Kind, maxPages int) ([]Entry, error) {
	src, err := a.Source(kind)
	if err != nil {
		return nil, err
	}

	d := newDeduper()
	for page := 1; page <= maxPages; page++ {
		res, err := src.FetchPage(ctx, kind, PageQuery{Page: page})
		if err != nil {
			return nil, fmt.Errorf("aggregate %s page %d: %w", kind, page, err)
		}
		d.add(res.Entries)
		if res.TotalPages > 0 && page >= res.TotalPages {
			break
		}
	}

	a.logger.Debug("Aggregated catalog by pages",
		interfaces.String("kind", string(kind)),
		interfaces.Int("entries", len(d.entries)))
	return d.entries, nil
}

// AggregateByTopics fetches up to perTopicLimit entries for each topic in
// turn, paced by the topic delay. Any failed topic fails the aggregation.
func (a *Aggregator) AggregateByTopics(ctx context.Context, kind Kind, topics []string, perTopicLimit int) ([]Entry, error) {
	src, err := a.Source(kind)
	if err != nil {
		return nil, err
	}

	d := newDeduper()
	for _, topic := range topics {
		if err := a.pacer.Wait(ctx); err != nil {
			return nil, fmt.Errorf("aggregate %s topic %q: %w", kind, topic, err)
		}
		res, err := src.FetchPage(ctx, kind, PageQuery{Page: 1, Topic: topic, Limit: perTopicLimit})
		if err != nil {
			return nil, fmt.Errorf("aggregate %s topic %q: %w", kind, topic, err)
		}
		d.add(res.Entries)
	}

	a.logger.Debug("Aggregated catalog by topics",
		interfaces.String("kind", string(kind)),
		interfaces.Int("topics", len(topics)),
		interfaces.Int("entries", len(d.entries)))
	return d.entries, nil
}

// FallbackEmpty swallows an aggregation error, logging it and returning an
// empty list, for callers where partial data beats a hard failure.
func FallbackEmpty(logger interfaces.Logger, what string, entries []Entry, err error) []Entry {
	if err != nil {
		logger.Warn("Falling back to an empty list",
			interfaces.String("section", what),
			interfaces.Error(err))
		return []Entry{}
	}
	return entries
}

// deduper keeps the first occurrence of every id, in arrival order.
type deduper struct {
	seen    map[string]struct{}
	entries []Entry
}

func newDeduper() *deduper {
	return &deduper{seen: make(map[string]struct{}), entries: []Entry{}}
}

func (d *deduper) add(entries []Entry) {
	for _, e := range entries {
		if _, dup := d.seen[e.ID]; dup {
			continue
		}
		d.seen[e.ID] = struct{}{}
		d.entries = append(d.entries, e)
	}
}

// Dedupe returns entries with later duplicates of an id removed.
func Dedupe(entries []Entry) []Entry {
	d := newDeduper()
	d.add(entries)
	return d.entries
}
