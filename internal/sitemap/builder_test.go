package sitemap

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/narwhalmedia/fantasycards/internal/catalog/domain"
	"github.com/narwhalmedia/fantasycards/pkg/cache"
	"github.com/narwhalmedia/fantasycards/pkg/logger"
)

type mockLister struct {
	mock.Mock
}

func (m *mockLister) AggregateByPages(ctx context.Context, kind domain.Kind, maxPages int) ([]domain.Entry, error) {
	args := m.Called(ctx, kind, maxPages)
	entries, _ := args.Get(0).([]domain.Entry)
	return entries, args.Error(1)
}

func (m *mockLister) AggregateByTopics(ctx context.Context, kind domain.Kind, topics []string, limit int) ([]domain.Entry, error) {
	args := m.Called(ctx, kind, topics, limit)
	entries, _ := args.Get(0).([]domain.Entry)
	return entries, args.Error(1)
}

func fixedClock() time.Time {
	return time.Date(2024, 3, 9, 22, 15, 0, 0, time.UTC)
}

func locs(set *URLSet) []string {
	out := make([]string, len(set.URLs))
	for i, u := range set.URLs {
		out[i] = u.Loc
	}
	return out
}

func TestBuild(t *testing.T) {
	lister := new(mockLister)
	lister.On("AggregateByPages", mock.Anything, domain.KindMovie, 1).
		Return([]domain.Entry{{ID: "671", Kind: domain.KindMovie}}, nil)
	lister.On("AggregateByTopics", mock.Anything, domain.KindBook, []string{"fantasy"}, 100).
		Return([]domain.Entry{{ID: "OL27448W", Kind: domain.KindBook}}, nil)

	b := NewBuilder("https://example.test/", lister, 100, logger.NewFromZap(zaptest.NewLogger(t)), WithClock(fixedClock))
	set, err := b.Build(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"https://example.test",
		"https://example.test/movies",
		"https://example.test/books",
		"https://example.test/tv",
		"https://example.test/search",
		"https://example.test/movies/671",
		"https://example.test/books/OL27448W",
	}, locs(set))

	assert.Equal(t, "1.0", set.URLs[0].Priority)
	assert.Equal(t, Weekly, set.URLs[4].ChangeFreq)
	assert.Equal(t, "0.7", set.URLs[6].Priority)
	for _, u := range set.URLs {
		assert.Equal(t, "2024-03-09", u.LastMod)
	}
	lister.AssertExpectations(t)
}

func TestBuildFallsBackToStaticPages(t *testing.T) {
	lister := new(mockLister)
	lister.On("AggregateByPages", mock.Anything, domain.KindMovie, 1).Return(nil, errors.New("tmdb down"))
	lister.On("AggregateByTopics", mock.Anything, domain.KindBook, mock.Anything, mock.Anything).Return(nil, errors.New("openlibrary down"))

	b := NewBuilder("https://example.test", lister, 0, logger.NewNoop(), WithClock(fixedClock))
	set, err := b.Build(context.Background())
	require.NoError(t, err)
	assert.Len(t, set.URLs, 5)
}

func TestRender(t *testing.T) {
	lister := new(mockLister)
	lister.On("AggregateByPages", mock.Anything, mock.Anything, mock.Anything).Return([]domain.Entry{}, nil)
	lister.On("AggregateByTopics", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return([]domain.Entry{}, nil)

	b := NewBuilder("https://example.test", lister, 10, logger.NewNoop(), WithClock(fixedClock))
	out, err := b.Render(context.Background())
	require.NoError(t, err)

	doc := string(out)
	assert.Contains(t, doc, `<?xml version="1.0" encoding="UTF-8"?>`)
	assert.Contains(t, doc, `<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">`)
	assert.Contains(t, doc, "<loc>https://example.test/search</loc>")
	assert.Contains(t, doc, "<changefreq>daily</changefreq>")
}

func TestRender_ServedFromCacheWithinTTL(t *testing.T) {
	lister := new(mockLister)
	lister.On("AggregateByPages", mock.Anything, domain.KindMovie, 1).
		Return([]domain.Entry{{ID: "120", Kind: domain.KindMovie}}, nil).Once()
	lister.On("AggregateByTopics", mock.Anything, domain.KindBook, []string{"fantasy"}, 100).
		Return([]domain.Entry{}, nil).Once()

	c := cache.NewInMemoryCache(time.Hour)
	t.Cleanup(c.Close)

	b := NewBuilder("https://example.test", lister, 100, logger.NewNoop(),
		WithClock(fixedClock), WithCache(c, time.Hour))

	first, err := b.Render(context.Background())
	require.NoError(t, err)
	second, err := b.Render(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Contains(t, string(second), "https://example.test/movies/120")
	lister.AssertNumberOfCalls(t, "AggregateByPages", 1)
	lister.AssertNumberOfCalls(t, "AggregateByTopics", 1)
}
