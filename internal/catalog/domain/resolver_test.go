package domain_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/narwhalmedia/fantasycards/internal/catalog/domain"
	apperrors "github.com/narwhalmedia/fantasycards/pkg/errors"
	"github.com/narwhalmedia/fantasycards/pkg/logger"
)

type MockScreenCatalog struct {
	mock.Mock
}

func (m *MockScreenCatalog) Detail(ctx context.Context, kind domain.Kind, id string) (*domain.Detail, error) {
	args := m.Called(ctx, kind, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Detail), args.Error(1)
}

func (m *MockScreenCatalog) Similar(ctx context.Context, kind domain.Kind, id string) ([]domain.Entry, error) {
	args := m.Called(ctx, kind, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Entry), args.Error(1)
}

type MockBookCatalog struct {
	mock.Mock
}

func (m *MockBookCatalog) Work(ctx context.Context, id string) (*domain.Detail, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Detail), args.Error(1)
}

func (m *MockBookCatalog) Ratings(ctx context.Context, id string) (*domain.RatingSummary, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RatingSummary), args.Error(1)
}

func (m *MockBookCatalog) Author(ctx context.Context, id string) (*domain.Author, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Author), args.Error(1)
}

func (m *MockBookCatalog) AuthorWorks(ctx context.Context, id string, limit int) ([]domain.Entry, error) {
	args := m.Called(ctx, id, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Entry), args.Error(1)
}

type DetailResolverTestSuite struct {
	suite.Suite

	ctx      context.Context
	screens  *MockScreenCatalog
	books    *MockBookCatalog
	source   *MockSource
	resolver *domain.DetailResolver
}

func (suite *DetailResolverTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.screens = new(MockScreenCatalog)
	suite.books = new(MockBookCatalog)
	suite.source = new(MockSource)

	agg := domain.NewAggregator(0, logger.NewNoop())
	agg.RegisterSource(suite.source)
	suite.resolver = domain.NewDetailResolver(suite.screens, suite.books, agg, domain.ResolverConfig{
		SimilarLimit: 2,
		RelatedLimit: 2,
	}, logger.NewNoop())
}

func (suite *DetailResolverTestSuite) TearDownTest() {
	suite.screens.AssertExpectations(suite.T())
	suite.books.AssertExpectations(suite.T())
	suite.source.AssertExpectations(suite.T())
}

func (suite *DetailResolverTestSuite) TestMovie_SimilarExcludesSelfAndCaps() {
	primary := &domain.Detail{Entry: movie(120, "The Fellowship of the Ring", "2001-12-18", ptr(8.4), 14)}
	suite.screens.On("Detail", mock.Anything, domain.KindMovie, "120").Return(primary, nil)
	suite.screens.On("Similar", mock.Anything, domain.KindMovie, "120").Return([]domain.Entry{
		movie(120, "self", "", nil),
		movie(121, "The Two Towers", "", nil),
		movie(122, "The Return of the King", "", nil),
		movie(123, "The Hobbit", "", nil),
	}, nil)

	got, err := suite.resolver.Resolve(suite.ctx, domain.KindMovie, "120")

	suite.Require().NoError(err)
	suite.Equal("The Fellowship of the Ring", got.Title)
	suite.Equal([]string{"121", "122"}, ids(got.Similar))
}

func (suite *DetailResolverTestSuite) TestMovie_SimilarFailureIsTolerated() {
	primary := &domain.Detail{Entry: movie(120, "The Fellowship of the Ring", "2001-12-18", nil)}
	suite.screens.On("Detail", mock.Anything, domain.KindMovie, "120").Return(primary, nil)
	suite.screens.On("Similar", mock.Anything, domain.KindMovie, "120").Return(nil, errors.New("similar down"))

	got, err := suite.resolver.Resolve(suite.ctx, domain.KindMovie, "120")

	suite.Require().NoError(err)
	suite.NotNil(got.Similar)
	suite.Empty(got.Similar)
}

func (suite *DetailResolverTestSuite) TestTV_NotFound() {
	upstream := &apperrors.UpstreamError{Upstream: "tmdb", Status: 404}
	suite.screens.On("Detail", mock.Anything, domain.KindTV, "999").Return(nil, apperrors.AsUpstream("tv 999", upstream))
	suite.screens.On("Similar", mock.Anything, domain.KindTV, "999").Return([]domain.Entry{}, nil).Maybe()

	_, err := suite.resolver.Resolve(suite.ctx, domain.KindTV, "999")

	suite.Require().Error(err)
	suite.True(apperrors.IsNotFound(err))
}

func (suite *DetailResolverTestSuite) TestMovie_PrimaryFailurePropagates() {
	upstream := &apperrors.UpstreamError{Upstream: "tmdb", Status: 500}
	suite.screens.On("Detail", mock.Anything, domain.KindMovie, "1").Return(nil, apperrors.AsUpstream("movie 1", upstream))
	suite.screens.On("Similar", mock.Anything, domain.KindMovie, "1").Return([]domain.Entry{}, nil).Maybe()

	_, err := suite.resolver.Resolve(suite.ctx, domain.KindMovie, "1")

	suite.Require().Error(err)
	suite.False(apperrors.IsNotFound(err))
	suite.True(apperrors.IsUpstream(err))
}

func (suite *DetailResolverTestSuite) TestBook_FullEnrichment() {
	work := &domain.Detail{Entry: domain.Entry{
		Kind:  domain.KindBook,
		ID:    "OL27448W",
		Title: "The Lord of the Rings",
		Book: &domain.BookInfo{
			Subjects:   []string{"Fantasy fiction", "Middle Earth"},
			AuthorKeys: []string{"OL26320A", "OL2A", "OL3A", "OL4A"},
		},
	}}
	suite.books.On("Work", mock.Anything, "OL27448W").Return(work, nil)
	suite.books.On("Ratings", mock.Anything, "OL27448W").Return(&domain.RatingSummary{Average: 4.5, Count: 420}, nil)
	suite.books.On("Author", mock.Anything, "OL26320A").Return(&domain.Author{Name: "J.R.R. Tolkien"}, nil)
	suite.books.On("Author", mock.Anything, "OL2A").Return(nil, errors.New("author down"))
	suite.books.On("Author", mock.Anything, "OL3A").Return(&domain.Author{Name: "Christopher Tolkien"}, nil)
	suite.source.On("FetchPage", mock.Anything, domain.KindBook, domain.PageQuery{Page: 1, Topic: "Fantasy fiction", Limit: 7}).
		Return(page(1, 0,
			book("OL27448W", "self", 0, nil),
			book("OL1W", "The Hobbit", 0, nil),
			book("OL2W", "The Silmarillion", 0, nil),
			book("OL3W", "Unfinished Tales", 0, nil),
		), nil)

	got, err := suite.resolver.Resolve(suite.ctx, domain.KindBook, "OL27448W")

	suite.Require().NoError(err)
	suite.Require().NotNil(got.Rating)
	suite.InDelta(4.5, *got.Rating, 0.0001)
	suite.Equal(420, *got.RatingCount)
	suite.Equal([]string{"OL1W", "OL2W"}, ids(got.Similar))
	suite.Equal([]domain.AuthorRef{
		{ID: "OL26320A", Name: "J.R.R. Tolkien"},
		{ID: "OL3A", Name: "Christopher Tolkien"},
	}, got.AuthorRefs)
}

func (suite *DetailResolverTestSuite) TestBook_EnrichmentsDegrade() {
	work := &domain.Detail{Entry: domain.Entry{
		Kind:  domain.KindBook,
		ID:    "OL1W",
		Title: "The Hobbit",
		Book:  &domain.BookInfo{Subjects: []string{"Dragons"}},
	}}
	suite.books.On("Work", mock.Anything, "OL1W").Return(work, nil)
	suite.books.On("Ratings", mock.Anything, "OL1W").Return(nil, errors.New("ratings down"))
	suite.source.On("FetchPage", mock.Anything, domain.KindBook, mock.Anything).Return(nil, errors.New("search down"))

	got, err := suite.resolver.Resolve(suite.ctx, domain.KindBook, "OL1W")

	suite.Require().NoError(err)
	suite.Nil(got.Rating)
	suite.Empty(got.Similar)
	suite.Empty(got.AuthorRefs)
}

func (suite *DetailResolverTestSuite) TestBook_NoSubjectsSkipsRelated() {
	work := &domain.Detail{Entry: domain.Entry{Kind: domain.KindBook, ID: "OL1W", Book: &domain.BookInfo{}}}
	suite.books.On("Work", mock.Anything, "OL1W").Return(work, nil)
	suite.books.On("Ratings", mock.Anything, "OL1W").Return(nil, nil)

	got, err := suite.resolver.Resolve(suite.ctx, domain.KindBook, "OL1W")

	suite.Require().NoError(err)
	suite.Empty(got.Similar)
	suite.source.AssertNotCalled(suite.T(), "FetchPage", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *DetailResolverTestSuite) TestResolveAuthor_WorksBestEffort() {
	suite.books.On("Author", mock.Anything, "OL26320A").Return(&domain.Author{ID: "OL26320A", Name: "J.R.R. Tolkien"}, nil)
	suite.books.On("AuthorWorks", mock.Anything, "OL26320A", 24).Return(nil, errors.New("search down"))

	got, err := suite.resolver.ResolveAuthor(suite.ctx, "OL26320A")

	suite.Require().NoError(err)
	suite.Equal("J.R.R. Tolkien", got.Name)
	suite.Empty(got.Works)
}

func (suite *DetailResolverTestSuite) TestResolveAuthor_NotFound() {
	upstream := &apperrors.UpstreamError{Upstream: "openlibrary", Status: 404}
	suite.books.On("Author", mock.Anything, "OL0A").Return(nil, apperrors.AsUpstream("author", upstream))
	suite.books.On("AuthorWorks", mock.Anything, "OL0A", 24).Return([]domain.Entry{}, nil).Maybe()

	_, err := suite.resolver.ResolveAuthor(suite.ctx, "OL0A")

	suite.True(apperrors.IsNotFound(err))
}

func (suite *DetailResolverTestSuite) TestUnknownKind() {
	_, err := suite.resolver.Resolve(suite.ctx, domain.Kind("podcast"), "1")
	suite.True(apperrors.IsBadRequest(err))
}

func TestDetailResolver_RelatedBooksGiveUpBehindBusyPacer(t *testing.T) {
	ctx := context.Background()
	source := new(MockSource)
	books := new(MockBookCatalog)

	agg := domain.NewAggregator(time.Hour, logger.NewNoop())
	agg.RegisterSource(source)
	source.On("FetchPage", mock.Anything, domain.KindBook, domain.PageQuery{Page: 1, Topic: "fantasy", Limit: 35}).
		Return(page(1, 0, book("OL9W", "warm-up", 0, nil)), nil).Once()
	// A warm-up takes the only pacer token; the next topic call would wait an hour.
	_, err := agg.AggregateByTopics(ctx, domain.KindBook, []string{"fantasy"}, 35)
	require.NoError(t, err)

	work := &domain.Detail{Entry: domain.Entry{
		Kind: domain.KindBook,
		ID:   "OL1W",
		Book: &domain.BookInfo{Subjects: []string{"Dragons"}},
	}}
	books.On("Work", mock.Anything, "OL1W").Return(work, nil)
	books.On("Ratings", mock.Anything, "OL1W").Return(nil, nil)

	resolver := domain.NewDetailResolver(nil, books, agg, domain.ResolverConfig{
		RelatedTimeout: 50 * time.Millisecond,
	}, logger.NewNoop())

	start := time.Now()
	got, err := resolver.Resolve(context.WithoutCancel(ctx), domain.KindBook, "OL1W")

	require.NoError(t, err)
	assert.Empty(t, got.Similar)
	assert.Less(t, time.Since(start), 5*time.Second)
	source.AssertExpectations(t)
	books.AssertExpectations(t)
}

func TestDetailResolverTestSuite(t *testing.T) {
	suite.Run(t, new(DetailResolverTestSuite))
}
