package container_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap/zaptest"

	"github.com/narwhalmedia/fantasycards/internal/catalog/domain"
	"github.com/narwhalmedia/fantasycards/internal/container"
	"github.com/narwhalmedia/fantasycards/pkg/logger"
	"github.com/narwhalmedia/fantasycards/test/testutil"
)

type CatalogIntegrationTestSuite struct {
	suite.Suite
	catalog *container.CatalogContainer
	cleanup func()
}

func (s *CatalogIntegrationTestSuite) SetupTest() {
	tmdb := testutil.NewTMDBServer(s.T(), testutil.DefaultMovies)
	ol := testutil.NewOpenLibraryServer(s.T(), testutil.DefaultBooks)

	cfg := testutil.NewCatalogConfig(tmdb.URL, ol.URL)
	c, cleanup, err := container.InitializeCatalog(cfg, logger.NewFromZap(zaptest.NewLogger(s.T())))
	s.Require().NoError(err)
	s.catalog, s.cleanup = c, cleanup
}

func (s *CatalogIntegrationTestSuite) TearDownTest() {
	s.cleanup()
}

func (s *CatalogIntegrationTestSuite) TestWarmAggregatesEveryKind() {
	counts, err := s.catalog.Service.Warm(context.Background())
	s.Require().NoError(err)

	s.Equal(len(testutil.DefaultMovies), counts[domain.KindMovie])
	s.Equal(len(testutil.DefaultMovies), counts[domain.KindTV])
	s.Equal(len(testutil.DefaultBooks), counts[domain.KindBook])
}

func (s *CatalogIntegrationTestSuite) TestBrowseOverHTTP() {
	srv := httptest.NewServer(s.catalog.Handler.Routes())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/movies?decade=2000&sort=rating")
	s.Require().NoError(err)
	defer resp.Body.Close()
	s.Equal(http.StatusOK, resp.StatusCode)

	var body struct {
		Entries []domain.Entry `json:"entries"`
		Total   int            `json:"total"`
	}
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&body))
	s.Equal(2, body.Total)
	s.Require().Len(body.Entries, 2)
	s.Equal("120", body.Entries[0].ID)
	s.Equal("671", body.Entries[1].ID)
}

func (s *CatalogIntegrationTestSuite) TestSitemapListsCatalogPages() {
	doc, err := s.catalog.Sitemap.Render(context.Background())
	s.Require().NoError(err)

	s.Contains(string(doc), "<loc>https://cards.example.test/movies/671</loc>")
	s.Contains(string(doc), "<loc>https://cards.example.test/books/OL59863W</loc>")
}

func TestCatalogIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(CatalogIntegrationTestSuite))
}

func TestInitializeCatalogRejectsUnreachableBroker(t *testing.T) {
	cfg := testutil.NewCatalogConfig("http://127.0.0.1:1", "http://127.0.0.1:1")
	cfg.Events.Driver = "nats"
	cfg.Events.NATSURL = "nats://127.0.0.1:1"

	_, _, err := container.InitializeCatalog(cfg, logger.NewNoop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NATS")
}
