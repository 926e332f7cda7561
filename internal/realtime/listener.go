// Package realtime maintains a WebSocket subscription to the backend's
// change feed so other devices' edits show up without polling. The
// listener fans change events out to subscribers; it does not write to
// the cache itself, the repositories refresh on their next read.
package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	ws "github.com/coder/websocket"
	"github.com/sethvargo/go-retry"

	"github.com/shipshape-app/shipshape/internal/connectivity"
	"github.com/shipshape-app/shipshape/internal/gateway"
)

const pingInterval = 30 * time.Second

// Change is one entity mutation broadcast by the backend.
type Change struct {
	Entity string `json:"entity"`
	Action string `json:"action"`
	ID     string `json:"id"`
}

// Listener dials the backend change feed and re-dials with backoff
// whenever the connection drops or connectivity returns.
type Listener struct {
	url     string
	tokens  gateway.TokenSource
	monitor *connectivity.Monitor
	logger  *slog.Logger

	mu        sync.Mutex
	listeners map[int]func(Change)
	nextID    int
}

// New creates a listener for the given feed URL, e.g.
// "wss://host/api/v1/realtime".
func New(url string, tokens gateway.TokenSource, monitor *connectivity.Monitor, logger *slog.Logger) *Listener {
	return &Listener{
		url:       url,
		tokens:    tokens,
		monitor:   monitor,
		logger:    logger,
		listeners: make(map[int]func(Change)),
	}
}

// Subscribe registers fn for every received change. The returned
// function unsubscribes.
func (l *Listener) Subscribe(fn func(Change)) func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	id := l.nextID
	l.nextID++
	l.listeners[id] = fn
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.listeners, id)
	}
}

// Run keeps the feed connection alive until ctx is cancelled. It blocks,
// so callers run it in a goroutine.
func (l *Listener) Run(ctx context.Context) {
	for ctx.Err() == nil {
		if !l.monitor.IsOnline() {
			// Wait for the monitor to report the backend reachable
			// before burning dial attempts.
			select {
			case <-time.After(5 * time.Second):
			case <-ctx.Done():
				return
			}
			continue
		}

		conn, err := l.dial(ctx)
		if err != nil {
			if ctx.Err() == nil {
				l.logger.Warn("realtime dial failed", "error", err)
			}
			continue
		}

		l.logger.Info("realtime feed connected")
		l.pump(ctx, conn)
		conn.Close(ws.StatusNormalClosure, "")
		l.logger.Info("realtime feed disconnected")
	}
}

// dial connects with fibonacci backoff, capped at a minute per attempt
// round so a dead backend does not spin.
func (l *Listener) dial(ctx context.Context) (*ws.Conn, error) {
	var conn *ws.Conn
	b := retry.WithMaxDuration(time.Minute, retry.NewFibonacci(time.Second))
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		token, err := l.tokens.Token(ctx)
		if err != nil {
			return err
		}
		c, _, err := ws.Dial(ctx, l.url, &ws.DialOptions{
			HTTPHeader: http.Header{"Authorization": {"Bearer " + token}},
		})
		if err != nil {
			return retry.RetryableError(err)
		}
		conn = c
		return nil
	})
	return conn, err
}

// pump reads changes until the connection fails, pinging periodically to
// detect a stale link.
func (l *Listener) pump(ctx context.Context, conn *ws.Conn) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := conn.Ping(ctx); err != nil {
					cancel()
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return
		}
		var change Change
		if err := json.Unmarshal(data, &change); err != nil {
			l.logger.Warn("malformed change event", "error", err)
			continue
		}
		l.notify(change)
	}
}

func (l *Listener) notify(change Change) {
	l.mu.Lock()
	fns := make([]func(Change), 0, len(l.listeners))
	for _, fn := range l.listeners {
		fns = append(fns, fn)
	}
	l.mu.Unlock()
	for _, fn := range fns {
		fn(change)
	}
}
