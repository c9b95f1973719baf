// Package wssource adapts a JSON WebSocket endpoint into a reactive
// source stream, following the connect/read-loop shape of a Home
// Assistant-style WebSocket client: dial, authenticate if configured,
// read frames in a background goroutine, and open a new transaction per
// inbound message. A dropped connection is reported as ConnectionClosed
// and is not redialed; a new dial happens only when the stream restarts.
// The source is inbound only: it writes nothing to the socket.
package wssource

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nugget/reactived/internal/reactive"
)

// Source dials url and decodes every inbound text/binary frame as A,
// firing one value per frame on the stream it backs. It implements
// reactive.Source[A].
type Source[A any] struct {
	url    string
	header func() map[string]string
	logger *slog.Logger

	connMu sync.Mutex
	conn   *websocket.Conn
	cancel context.CancelFunc

	handle reactive.SourceHandle[A]
}

// Option configures a Source at construction.
type Option[A any] func(*Source[A])

// WithHeader supplies a function returning headers (commonly an
// Authorization bearer token) evaluated fresh on every dial (each Start
// dials once), so a restart after a credential refresh picks up the new
// value.
func WithHeader[A any](f func() map[string]string) Option[A] {
	return func(s *Source[A]) { s.header = f }
}

// WithLogger sets the structured logger used for connection lifecycle
// events. Defaults to slog.Default().
func WithLogger[A any](l *slog.Logger) Option[A] {
	return func(s *Source[A]) { s.logger = l }
}

// New constructs a Source dialing url. Pass it to
// reactive.NewSourceStream to obtain the resulting Stream[A].
func New[A any](url string, opts ...Option[A]) *Source[A] {
	s := &Source[A]{url: url, logger: slog.Default()}
	for _, o := range opts {
		o(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Start implements reactive.Source: it dials url and begins the read
// loop on a background goroutine. Per the source contract, Start never
// blocks the engine thread — the connection runs concurrently and
// injects values via handle.Fire/FireError, each opening its own
// transaction.
func (s *Source[A]) Start(h reactive.SourceHandle[A]) {
	s.handle = h

	ctx, cancel := context.WithCancel(context.Background())
	s.connMu.Lock()
	s.cancel = cancel
	s.connMu.Unlock()

	go s.dialAndRead(ctx)
}

// Stop implements reactive.Source. The local connection reference is
// cleared before Close is called so that, if the close handshake
// invokes our own read-loop error path synchronously, it finds a nil
// connection and treats the closure as self-initiated rather than
// firing a spurious ConnectionClosed.
func (s *Source[A]) Stop() {
	s.connMu.Lock()
	conn := s.conn
	s.conn = nil
	if s.cancel != nil {
		s.cancel()
	}
	s.connMu.Unlock()

	if conn != nil {
		conn.Close()
	}
}

func (s *Source[A]) dialAndRead(ctx context.Context) {
	u, err := url.Parse(s.url)
	if err != nil {
		s.handle.FireError(&reactive.SourceError{Cause: fmt.Errorf("parse url: %w", err)})
		return
	}

	header := map[string][]string{}
	if s.header != nil {
		for k, v := range s.header() {
			header[k] = []string{v}
		}
	}

	dialer := websocket.Dialer{HandshakeTimeout: 30 * time.Second}
	conn, _, err := dialer.DialContext(ctx, u.String(), header)
	if err != nil {
		s.handle.FireError(&reactive.SourceError{Cause: fmt.Errorf("dial websocket: %w", err)})
		return
	}

	s.connMu.Lock()
	s.conn = conn
	s.connMu.Unlock()

	s.logger.Info("wssource connected", "url", s.url)

	for {
		var payload A
		_, data, err := conn.ReadMessage()
		if err != nil {
			s.connMu.Lock()
			stillOurs := s.conn == conn
			s.connMu.Unlock()
			if !stillOurs {
				// Stop already cleared the reference; this is a
				// self-initiated close, not an upstream one.
				return
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.handle.FireError(&reactive.ConnectionClosed{})
			} else {
				s.handle.FireError(&reactive.ConnectionClosed{Cause: err})
			}
			return
		}

		if err := json.Unmarshal(data, &payload); err != nil {
			s.handle.FireError(&reactive.SourceError{Cause: fmt.Errorf("decode frame: %w", err)})
			continue
		}
		s.handle.Fire(payload)
	}
}
