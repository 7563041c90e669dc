package config

import "time"

const (
	// Server ports.
	DefaultHTTPPort      = 8080
	DefaultTelemetryPort = 2112

	DefaultShutdownTimeout = 10 * time.Second
	DefaultSamplingRate    = 0.1

	// Listing windows.
	DefaultPageSize       = 24
	DefaultMaxWindowPages = 20

	// Upstream retry on 429.
	DefaultRetryAttempts  = 3
	DefaultRetryBaseDelay = 3 * time.Second
	DefaultRetryMaxDelay  = 15 * time.Second

	DefaultRequestTimeout = 15 * time.Second
	DefaultTopicDelay     = 2 * time.Second

	// Cache lifetimes.
	DefaultScreenTTL  = time.Hour
	DefaultBookTTL    = time.Hour
	DefaultDetailTTL  = time.Hour
	DefaultWorkTTL    = 7 * 24 * time.Hour
	DefaultSitemapTTL = time.Hour
)
