package nats

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/narwhalmedia/fantasycards/internal/infrastructure/events"
	"github.com/narwhalmedia/fantasycards/pkg/interfaces"
)

// Config holds connection settings.
type Config struct {
	URL           string
	Name          string
	MaxReconnect  int
	ReconnectWait time.Duration
}

// Client wraps a core NATS connection.
type Client struct {
	nc     *nats.Conn
	logger interfaces.Logger
}

// NewClient connects to NATS. The returned cleanup drains the connection.
func NewClient(cfg Config, logger interfaces.Logger) (*Client, func(), error) {
	if cfg.MaxReconnect == 0 {
		cfg.MaxReconnect = 10
	}
	if cfg.ReconnectWait == 0 {
		cfg.ReconnectWait = 2 * time.Second
	}

	opts := []nats.Option{
		nats.Name(cfg.Name),
		nats.MaxReconnects(cfg.MaxReconnect),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				logger.Error("NATS disconnected", interfaces.Error(err))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected", interfaces.String("url", nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Info("NATS connection closed")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			subject := ""
			if sub != nil {
				subject = sub.Subject
			}
			logger.Error("NATS async error",
				interfaces.Error(err),
				interfaces.String("subject", subject))
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	cleanup := func() {
		if err := nc.Drain(); err != nil {
			logger.Error("failed to drain NATS connection", interfaces.Error(err))
		}
	}

	logger.Info("NATS client initialized",
		interfaces.String("url", cfg.URL),
		interfaces.String("name", cfg.Name))

	return &Client{nc: nc, logger: logger}, cleanup, nil
}

// Publish sends data on subject and flushes so the caller learns about
// connection failures.
func (c *Client) Publish(ctx context.Context, subject string, data []byte) error {
	if err := c.nc.Publish(subject, data); err != nil {
		return fmt.Errorf("publish to %s: %w", subject, err)
	}
	if err := c.nc.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("flush %s: %w", subject, err)
	}
	return nil
}

// Subscribe delivers every message on subject to handler. Handler errors
// are logged.
func (c *Client) Subscribe(subject string, handler events.MessageHandler) (*nats.Subscription, error) {
	sub, err := c.nc.Subscribe(subject, func(msg *nats.Msg) {
		if err := handler(context.Background(), msg.Data); err != nil {
			c.logger.Warn("Failed to handle NATS message",
				interfaces.String("subject", msg.Subject),
				interfaces.Error(err))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe to %s: %w", subject, err)
	}
	return sub, nil
}

// Close closes the connection without draining.
func (c *Client) Close() error {
	c.nc.Close()
	return nil
}

// IsConnected checks if the client is connected.
func (c *Client) IsConnected() bool {
	return c.nc.IsConnected()
}

// Health reports whether the connection is usable.
func (c *Client) Health() error {
	if !c.IsConnected() {
		return fmt.Errorf("NATS client is not connected")
	}
	return nil
}
