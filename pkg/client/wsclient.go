package client

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"gstdirectory/pkg/directory"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// WSClient subscribes to the server's change feed and reconnects when the
// connection drops.
type WSClient struct {
	url       string
	handler   func(directory.Event)
	logger    *zap.Logger
	retryWait time.Duration
}

// NewWSClient derives the feed URL (ws[s]://host/data/events) from the
// server's base URL.
func NewWSClient(baseURL string, logger *zap.Logger) (*WSClient, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, err
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return nil, errors.New("unsupported scheme " + u.Scheme)
	}
	u.Path += "/data/events"

	return &WSClient{
		url:       u.String(),
		logger:    logger,
		retryWait: 3 * time.Second,
	}, nil
}

// URL returns the feed endpoint.
func (c *WSClient) URL() string {
	return c.url
}

// SetMessageHandler sets the function to handle incoming events.
func (c *WSClient) SetMessageHandler(h func(directory.Event)) {
	c.handler = h
}

// SetRetryWait changes the pause between reconnect attempts.
func (c *WSClient) SetRetryWait(d time.Duration) {
	c.retryWait = d
}

// Listen connects and delivers events until ctx is done, reconnecting
// indefinitely after read errors.
func (c *WSClient) Listen(ctx context.Context) error {
	for {
		conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger.Warn("Retrying connect...", zap.String("url", c.url), zap.Error(err))
			if !sleep(ctx, c.retryWait) {
				return nil
			}
			continue
		}
		c.logger.Info("WebSocket connected", zap.String("url", c.url))

		err = c.readAll(ctx, conn)
		if ctx.Err() != nil {
			return nil
		}
		c.logger.Error("WebSocket read error", zap.Error(err))
		if !sleep(ctx, c.retryWait) {
			return nil
		}
	}
}

func (c *WSClient) readAll(ctx context.Context, conn *websocket.Conn) error {
	// unblock ReadJSON when ctx ends
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()
	defer conn.Close()

	for {
		var e directory.Event
		if err := conn.ReadJSON(&e); err != nil {
			return err
		}
		if c.handler != nil {
			c.handler(e)
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
