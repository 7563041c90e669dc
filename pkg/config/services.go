package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

// CatalogConfig is the full configuration of the catalog service.
type CatalogConfig struct {
	Service     ServiceConfig     `koanf:"service"`
	Logger      LoggerConfig      `koanf:"logger"`
	Metrics     MetricsConfig     `koanf:"metrics"`
	Tracing     TracingConfig     `koanf:"tracing"`
	Pagination  PaginationConfig  `koanf:"pagination"`
	TMDB        TMDBConfig        `koanf:"tmdb"`
	OpenLibrary OpenLibraryConfig `koanf:"openlibrary"`
	Retry       RetryConfig       `koanf:"retry"`
	Aggregation AggregationConfig `koanf:"aggregation"`
	Cache       CacheConfig       `koanf:"cache"`
	Site        SiteConfig        `koanf:"site"`
	Events      EventsConfig      `koanf:"events"`
	Sitemap     SitemapConfig     `koanf:"sitemap"`
}

// TMDBConfig configures the movie and TV upstream.
type TMDBConfig struct {
	APIKey       string        `koanf:"api_key"`
	BaseURL      string        `koanf:"base_url"`
	ImageBaseURL string        `koanf:"image_base_url"`
	Timeout      time.Duration `koanf:"timeout"`
	Language     string        `koanf:"language"`
}

// OpenLibraryConfig configures the book upstream.
type OpenLibraryConfig struct {
	BaseURL   string        `koanf:"base_url"`
	CoversURL string        `koanf:"covers_url"`
	Timeout   time.Duration `koanf:"timeout"`
	UserAgent string        `koanf:"user_agent"`
}

// RetryConfig is the 429 retry policy shared by both upstreams.
type RetryConfig struct {
	MaxAttempts int           `koanf:"max_attempts"`
	BaseDelay   time.Duration `koanf:"base_delay"`
	MaxDelay    time.Duration `koanf:"max_delay"`
}

// AggregationConfig controls how full catalogs are assembled.
type AggregationConfig struct {
	MoviePages    int           `koanf:"movie_pages"`
	TVPages       int           `koanf:"tv_pages"`
	BookSubjects  []string      `koanf:"book_subjects"`
	BookLimit     int           `koanf:"book_limit"`
	TopicDelay    time.Duration `koanf:"topic_delay"`
	RelatedLimit  int           `koanf:"related_limit"`
	RelatedWait   time.Duration `koanf:"related_timeout"`
	SimilarLimit  int           `koanf:"similar_limit"`
	AuthorWorks   int           `koanf:"author_works"`
	SearchLimit   int           `koanf:"search_limit"`
	MixedBookHits int           `koanf:"mixed_book_hits"`
}

// CacheConfig sets time-to-live per cached shape.
type CacheConfig struct {
	ScreenTTL  time.Duration `koanf:"screen_ttl"`
	BookTTL    time.Duration `koanf:"book_ttl"`
	DetailTTL  time.Duration `koanf:"detail_ttl"`
	WorkTTL    time.Duration `koanf:"work_ttl"`
	SitemapTTL time.Duration `koanf:"sitemap_ttl"` // rendered sitemap.xml
}

// SiteConfig describes the public site the catalog backs.
type SiteConfig struct {
	URL  string `koanf:"url"`
	Name string `koanf:"name"`
}

// EventsConfig selects the broker catalog events are forwarded to.
type EventsConfig struct {
	Driver       string   `koanf:"driver"` // none, nats, kafka
	NATSURL      string   `koanf:"nats_url"`
	Subject      string   `koanf:"subject"`
	KafkaBrokers []string `koanf:"kafka_brokers"`
	KafkaTopic   string   `koanf:"kafka_topic"`
}

// SitemapConfig controls where the generated sitemap goes.
type SitemapConfig struct {
	Output   string `koanf:"output"` // local path, used when bucket is empty
	Bucket   string `koanf:"bucket"`
	Prefix   string `koanf:"prefix"`
	Region   string `koanf:"region"`
	BookSize int    `koanf:"book_size"`
}

// Validate validates the catalog configuration.
func (c *CatalogConfig) Validate() error {
	if err := validateCommon(c.Service, c.Metrics, c.Tracing, c.Pagination); err != nil {
		return err
	}
	if c.Retry.MaxAttempts < 1 {
		return errors.New("retry max attempts must be at least 1")
	}
	if c.Retry.BaseDelay < 0 || c.Retry.MaxDelay < c.Retry.BaseDelay {
		return fmt.Errorf("retry delays are inconsistent: base %s, max %s", c.Retry.BaseDelay, c.Retry.MaxDelay)
	}
	if c.Aggregation.MoviePages < 1 || c.Aggregation.TVPages < 1 {
		return errors.New("aggregation page counts must be at least 1")
	}
	if len(c.Aggregation.BookSubjects) == 0 {
		return errors.New("at least one book subject is required")
	}
	if c.Aggregation.BookLimit < 1 {
		return errors.New("aggregation book limit must be at least 1")
	}
	if _, err := url.ParseRequestURI(c.Site.URL); err != nil {
		return fmt.Errorf("invalid site url %q: %w", c.Site.URL, err)
	}
	switch c.Events.Driver {
	case "", "none":
	case "nats":
		if c.Events.NATSURL == "" {
			return errors.New("events nats_url is required for the nats driver")
		}
	case "kafka":
		if len(c.Events.KafkaBrokers) == 0 {
			return errors.New("events kafka_brokers is required for the kafka driver")
		}
	default:
		return fmt.Errorf("unknown events driver %q", c.Events.Driver)
	}
	return nil
}

// GetDefaultCatalogConfig returns default catalog configuration.
func GetDefaultCatalogConfig() *CatalogConfig {
	return &CatalogConfig{
		Service: ServiceConfig{
			Name:            "fantasycards",
			Environment:     "dev",
			Port:            DefaultHTTPPort,
			ShutdownTimeout: DefaultShutdownTimeout,
		},
		Logger: LoggerConfig{
			Level:      "info",
			Format:     "json",
			OutputPath: "stdout",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
			Port:    DefaultTelemetryPort,
		},
		Tracing: TracingConfig{
			Endpoint:     "localhost:4317",
			SamplingRate: DefaultSamplingRate,
		},
		Pagination: PaginationConfig{
			PageSize:         DefaultPageSize,
			MaxPages:         DefaultMaxWindowPages,
			CursorExpiration: 24 * time.Hour,
		},
		TMDB: TMDBConfig{
			BaseURL:      "https://api.themoviedb.org/3",
			ImageBaseURL: "https://image.tmdb.org/t/p",
			Timeout:      DefaultRequestTimeout,
			Language:     "en-US",
		},
		OpenLibrary: OpenLibraryConfig{
			BaseURL:   "https://openlibrary.org",
			CoversURL: "https://covers.openlibrary.org",
			Timeout:   DefaultRequestTimeout,
			UserAgent: "FantasyCards/1.0",
		},
		Retry: RetryConfig{
			MaxAttempts: DefaultRetryAttempts,
			BaseDelay:   DefaultRetryBaseDelay,
			MaxDelay:    DefaultRetryMaxDelay,
		},
		Aggregation: AggregationConfig{
			MoviePages: 10,
			TVPages:    5,
			BookSubjects: []string{
				"fantasy", "high_fantasy", "epic_fantasy",
				"dark_fantasy", "urban_fantasy", "fantasy_fiction",
			},
			BookLimit:     35,
			TopicDelay:    DefaultTopicDelay,
			RelatedLimit:  12,
			RelatedWait:   5 * time.Second,
			SimilarLimit:  8,
			AuthorWorks:   24,
			SearchLimit:   20,
			MixedBookHits: 10,
		},
		Cache: CacheConfig{
			ScreenTTL:  DefaultScreenTTL,
			BookTTL:    DefaultBookTTL,
			DetailTTL:  DefaultDetailTTL,
			WorkTTL:    DefaultWorkTTL,
			SitemapTTL: DefaultSitemapTTL,
		},
		Site: SiteConfig{
			URL:  "https://fantasy-cards.vercel.app",
			Name: "Fantasy Cards",
		},
		Events: EventsConfig{
			Driver:     "none",
			NATSURL:    "nats://localhost:4222",
			Subject:    "catalog.refreshed",
			KafkaTopic: "catalog-events",
		},
		Sitemap: SitemapConfig{
			Output:   "public/sitemap.xml",
			Region:   "us-east-1",
			BookSize: 100,
		},
	}
}
