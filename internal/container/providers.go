package container

import (
	"context"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/google/wire"

	"github.com/narwhalmedia/fantasycards/internal/catalog/domain"
	"github.com/narwhalmedia/fantasycards/internal/catalog/handler"
	"github.com/narwhalmedia/fantasycards/internal/catalog/provider"
	"github.com/narwhalmedia/fantasycards/internal/catalog/service"
	"github.com/narwhalmedia/fantasycards/internal/handlers"
	"github.com/narwhalmedia/fantasycards/internal/infrastructure/adapters/external/openlibrary"
	"github.com/narwhalmedia/fantasycards/internal/infrastructure/adapters/external/restclient"
	"github.com/narwhalmedia/fantasycards/internal/infrastructure/adapters/external/tmdb"
	"github.com/narwhalmedia/fantasycards/internal/infrastructure/events"
	"github.com/narwhalmedia/fantasycards/internal/infrastructure/events/kafka"
	"github.com/narwhalmedia/fantasycards/internal/infrastructure/events/nats"
	"github.com/narwhalmedia/fantasycards/internal/infrastructure/storage"
	"github.com/narwhalmedia/fantasycards/internal/sitemap"
	"github.com/narwhalmedia/fantasycards/pkg/cache"
	"github.com/narwhalmedia/fantasycards/pkg/config"
	pkgevents "github.com/narwhalmedia/fantasycards/pkg/events"
	"github.com/narwhalmedia/fantasycards/pkg/interfaces"
	"github.com/narwhalmedia/fantasycards/pkg/pagination"
)

// CatalogContainer holds all dependencies of the catalog service
type CatalogContainer struct {
	Config     *config.CatalogConfig
	Logger     interfaces.Logger
	Aggregator *domain.Aggregator
	Service    *service.CatalogService
	Handler    *handler.Handler
	Sitemap    *sitemap.Builder
	Events     *EventForwarding
}

// InstanceID identifies this process on the message broker.
type InstanceID string

// EventForwarding is the broker side of catalog events. Broker is nil when
// the events driver is none.
type EventForwarding struct {
	Broker     events.Broker
	InstanceID InstanceID
}

// ProviderSet wires the catalog from configuration.
var ProviderSet = wire.NewSet(
	ProvideRetryPolicy,
	ProvideTMDBClient,
	ProvideOpenLibraryClient,
	ProvideScreenProvider,
	provider.NewBookProvider,
	ProvideAggregator,
	ProvideResolverConfig,
	domain.NewDetailResolver,
	wire.Bind(new(domain.ScreenCatalog), new(*provider.ScreenProvider)),
	wire.Bind(new(domain.BookCatalog), new(*provider.BookProvider)),
	ProvideCache,
	wire.Bind(new(interfaces.Cache), new(*cache.InMemoryCache)),
	ProvideEventBus,
	wire.Bind(new(interfaces.EventBus), new(*pkgevents.InMemoryEventBus)),
	ProvideServiceOptions,
	service.NewCatalogService,
	wire.Bind(new(service.ScreenSearcher), new(*provider.ScreenProvider)),
	wire.Bind(new(service.BookSearcher), new(*provider.BookProvider)),
	wire.Bind(new(service.Catalog), new(*service.CatalogService)),
	ProvideSitemapBuilder,
	ProvideCursorEncoder,
	ProvideHandler,
	ProvideInstanceID,
	ProvideEventForwarding,
)

// ProvideRetryPolicy maps the shared retry section.
func ProvideRetryPolicy(cfg *config.CatalogConfig) restclient.RetryPolicy {
	return restclient.RetryPolicy{
		MaxAttempts: cfg.Retry.MaxAttempts,
		BaseDelay:   cfg.Retry.BaseDelay,
		MaxDelay:    cfg.Retry.MaxDelay,
	}
}

// ProvideTMDBClient fails when no API key is configured.
func ProvideTMDBClient(cfg *config.CatalogConfig, retry restclient.RetryPolicy, logger interfaces.Logger) (*tmdb.Client, error) {
	return tmdb.NewClient(tmdb.Config{
		APIKey:       cfg.TMDB.APIKey,
		BaseURL:      cfg.TMDB.BaseURL,
		ImageBaseURL: cfg.TMDB.ImageBaseURL,
		Language:     cfg.TMDB.Language,
		Timeout:      cfg.TMDB.Timeout,
		Retry:        retry,
	}, logger)
}

func ProvideOpenLibraryClient(cfg *config.CatalogConfig, retry restclient.RetryPolicy, logger interfaces.Logger) *openlibrary.Client {
	return openlibrary.NewClient(openlibrary.Config{
		BaseURL:   cfg.OpenLibrary.BaseURL,
		CoversURL: cfg.OpenLibrary.CoversURL,
		UserAgent: cfg.OpenLibrary.UserAgent,
		Timeout:   cfg.OpenLibrary.Timeout,
		Retry:     retry,
	}, logger)
}

func ProvideScreenProvider(client *tmdb.Client, cfg *config.CatalogConfig) *provider.ScreenProvider {
	return provider.NewScreenProvider(client, cfg.TMDB.Language)
}

// ProvideAggregator registers both upstreams as catalog sources.
func ProvideAggregator(
	cfg *config.CatalogConfig,
	screens *provider.ScreenProvider,
	books *provider.BookProvider,
	logger interfaces.Logger,
) *domain.Aggregator {
	agg := domain.NewAggregator(cfg.Aggregation.TopicDelay, logger)
	agg.RegisterSource(screens)
	agg.RegisterSource(books)
	return agg
}

func ProvideResolverConfig(cfg *config.CatalogConfig) domain.ResolverConfig {
	return domain.ResolverConfig{
		SimilarLimit:   cfg.Aggregation.SimilarLimit,
		RelatedLimit:   cfg.Aggregation.RelatedLimit,
		AuthorWorks:    cfg.Aggregation.AuthorWorks,
		RelatedTimeout: cfg.Aggregation.RelatedWait,
	}
}

func ProvideCache() (*cache.InMemoryCache, func()) {
	c := cache.NewInMemoryCache(0)
	return c, c.Close
}

func ProvideEventBus(logger interfaces.Logger) (*pkgevents.InMemoryEventBus, func()) {
	bus := pkgevents.NewInMemoryEventBus(logger)
	return bus, func() { _ = bus.Stop() }
}

func ProvideServiceOptions(cfg *config.CatalogConfig) service.Options {
	return service.Options{
		MoviePages:    cfg.Aggregation.MoviePages,
		TVPages:       cfg.Aggregation.TVPages,
		BookSubjects:  cfg.Aggregation.BookSubjects,
		BookLimit:     cfg.Aggregation.BookLimit,
		SearchLimit:   cfg.Aggregation.SearchLimit,
		MixedBookHits: cfg.Aggregation.MixedBookHits,
		PageSize:      cfg.Pagination.PageSize,
		MaxPages:      cfg.Pagination.MaxPages,
		ScreenTTL:     cfg.Cache.ScreenTTL,
		BookTTL:       cfg.Cache.BookTTL,
		DetailTTL:     cfg.Cache.DetailTTL,
		WorkTTL:       cfg.Cache.WorkTTL,
	}
}

func ProvideSitemapBuilder(
	cfg *config.CatalogConfig,
	agg *domain.Aggregator,
	c interfaces.Cache,
	logger interfaces.Logger,
) *sitemap.Builder {
	return sitemap.NewBuilder(cfg.Site.URL, agg, cfg.Sitemap.BookSize, logger,
		sitemap.WithCache(c, cfg.Cache.SitemapTTL))
}

// ProvideCursorEncoder returns nil when no cursor key is configured.
func ProvideCursorEncoder(cfg *config.CatalogConfig) (*pagination.CursorEncoder, error) {
	key := cfg.Pagination.CursorKey()
	if key == nil {
		return nil, nil
	}
	return pagination.NewCursorEncoder(key)
}

func ProvideHandler(
	cfg *config.CatalogConfig,
	catalog service.Catalog,
	builder *sitemap.Builder,
	cursors *pagination.CursorEncoder,
	logger interfaces.Logger,
) *handler.Handler {
	return handler.NewHandler(catalog, builder, cursors, cfg.Pagination.CursorExpiration, logger)
}

func ProvideInstanceID() InstanceID {
	return InstanceID(uuid.NewString())
}

// ProvideEventForwarding connects the configured broker, forwards refresh
// events from the in-process bus to it and, for NATS, invalidates local
// catalogs when a peer refreshes.
func ProvideEventForwarding(
	cfg *config.CatalogConfig,
	bus *pkgevents.InMemoryEventBus,
	svc *service.CatalogService,
	id InstanceID,
	logger interfaces.Logger,
) (*EventForwarding, func(), error) {
	out := &EventForwarding{InstanceID: id}
	cleanup := func() {}

	switch cfg.Events.Driver {
	case "", "none":
		return out, cleanup, nil

	case "nats":
		client, drain, err := nats.NewClient(nats.Config{
			URL:  cfg.Events.NATSURL,
			Name: cfg.Service.Name + "-" + string(id),
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		inv := nats.NewInvalidator(cfg.Events.Subject, string(id), svc, logger)
		if err := inv.Start(client); err != nil {
			drain()
			return nil, nil, err
		}
		out.Broker = nats.NewPublisher(client)
		cleanup = drain

	case "kafka":
		pub, err := kafka.NewPublisher(cfg.Events.KafkaBrokers, cfg.Events.KafkaTopic)
		if err != nil {
			return nil, nil, err
		}
		out.Broker = pub
		cleanup = func() {
			if err := pub.Close(); err != nil {
				logger.Warn("Failed to close Kafka publisher", interfaces.Error(err))
			}
		}
	}

	fwd := handlers.NewCatalogEventForwarder(out.Broker, cfg.Events.Subject, string(id), logger)
	if err := bus.Subscribe(fwd.EventType(), fwd); err != nil {
		cleanup()
		return nil, nil, err
	}
	logger.Info("Forwarding catalog events",
		interfaces.String("driver", cfg.Events.Driver),
		interfaces.String("subject", cfg.Events.Subject))

	// Deliveries still in flight on the bus need the broker open.
	return out, func() {
		_ = bus.Stop()
		cleanup()
	}, nil
}

// NewSitemapStore picks S3 when a bucket is configured, else the local
// output path. It returns the store and the key to write under.
func NewSitemapStore(ctx context.Context, cfg config.SitemapConfig, logger interfaces.Logger) (storage.Store, string, error) {
	if cfg.Bucket != "" {
		s, err := storage.NewS3Store(ctx, cfg.Bucket, cfg.Prefix, cfg.Region, logger)
		if err != nil {
			return nil, "", err
		}
		return s, "sitemap.xml", nil
	}
	s, err := storage.NewLocalStore(filepath.Dir(cfg.Output), logger)
	if err != nil {
		return nil, "", err
	}
	return s, filepath.Base(cfg.Output), nil
}
