package stream

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/rickgao/okx-withdrawals/internal/auth"
	"github.com/rickgao/okx-withdrawals/internal/model"
)

// Config holds connection settings.
type Config struct {
	URL              string
	Ccy              string        // optional currency filter
	PingInterval     time.Duration // quiet time before a ping is sent
	PongTimeout      time.Duration // how long to wait for any reply to a ping
	HandshakeTimeout time.Duration // dial, login and subscribe, each
	WriteTimeout     time.Duration
}

// DefaultConfig returns settings that keep a connection alive on OKX.
func DefaultConfig(url string) Config {
	return Config{
		URL:              url,
		PingInterval:     25 * time.Second,
		PongTimeout:      10 * time.Second,
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     5 * time.Second,
	}
}

// Handler receives each pushed batch. Returning an error stops Run.
type Handler func(ctx context.Context, records []*model.Record) error

// Client is a logged-in subscription to the withdrawal channel.
type Client struct {
	cfg    Config
	creds  *auth.Credentials
	logger *slog.Logger
	now    func() time.Time

	conn *websocket.Conn

	// Write serialization
	writeMu sync.Mutex

	// State
	mu       sync.Mutex
	closed   bool
	lastRecv atomic.Int64 // unix nanos of the last frame read
}

// NewClient creates a websocket client. Zero Config durations take the
// DefaultConfig values.
func NewClient(cfg Config, creds *auth.Credentials, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultConfig(cfg.URL)
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = def.PingInterval
	}
	if cfg.PongTimeout <= 0 {
		cfg.PongTimeout = def.PongTimeout
	}
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = def.HandshakeTimeout
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = def.WriteTimeout
	}

	return &Client{
		cfg:    cfg,
		creds:  creds,
		logger: logger,
		now:    time.Now,
	}
}

// Connect dials, logs in and subscribes. It returns an *EventError if the
// server rejects either step.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrAlreadyClosed
	}
	c.mu.Unlock()

	if c.creds == nil {
		return fmt.Errorf("login: %w", auth.ErrMissingCredentials)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: c.cfg.HandshakeTimeout,
	}
	conn, _, err := dialer.DialContext(ctx, c.cfg.URL, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", c.cfg.URL, err)
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	c.touch()

	if err := c.login(); err != nil {
		conn.Close()
		return err
	}
	if err := c.subscribe(); err != nil {
		conn.Close()
		return err
	}

	c.logger.Info("websocket subscribed", "url", c.cfg.URL, "channel", Channel, "ccy", c.cfg.Ccy)
	return nil
}

func (c *Client) login() error {
	args, err := c.creds.SignLogin(c.now())
	if err != nil {
		return fmt.Errorf("sign login: %w", err)
	}
	if err := c.sendJSON(request{Op: "login", Args: []any{args}}); err != nil {
		return fmt.Errorf("send login: %w", err)
	}
	return c.await("login")
}

func (c *Client) subscribe() error {
	arg := SubscribeArg{Channel: Channel, Ccy: c.cfg.Ccy}
	if err := c.sendJSON(request{Op: "subscribe", Args: []any{arg}}); err != nil {
		return fmt.Errorf("send subscribe: %w", err)
	}
	return c.await("subscribe")
}

// await reads frames until the reply to op arrives.
func (c *Client) await(op string) error {
	c.conn.SetReadDeadline(time.Now().Add(c.cfg.HandshakeTimeout))
	defer c.conn.SetReadDeadline(time.Time{})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("await %s: %w", op, err)
		}
		c.touch()

		if string(data) == "pong" {
			continue
		}
		m, err := parseMessage(data)
		if err != nil {
			return fmt.Errorf("await %s: %w", op, err)
		}

		switch {
		case m.Event == "error":
			return &EventError{Op: op, Code: m.Code, Msg: m.Msg}
		case m.Event == op:
			if m.Code != "" && m.Code != "0" {
				return &EventError{Op: op, Code: m.Code, Msg: m.Msg}
			}
			return nil
		default:
			c.logger.Debug("ignoring frame during handshake", "op", op, "event", m.Event)
		}
	}
}

// Run reads pushes until ctx is cancelled or the connection fails. A
// cancelled ctx is a clean stop and returns nil.
func (c *Client) Run(ctx context.Context, handle Handler) error {
	c.mu.Lock()
	conn := c.conn
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return ErrAlreadyClosed
	}
	if conn == nil {
		return ErrNotConnected
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return c.readLoop(gctx, ctx, handle)
	})
	g.Go(func() error {
		return c.keepalive(gctx)
	})
	g.Go(func() error {
		// Unblocks ReadMessage once anything stops.
		<-gctx.Done()
		c.Close()
		return nil
	})

	return g.Wait()
}

func (c *Client) readLoop(gctx, parent context.Context, handle Handler) error {
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if parent.Err() != nil || gctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read: %w", err)
		}
		c.touch()

		if string(data) == "pong" {
			continue
		}
		m, err := parseMessage(data)
		if err != nil {
			c.logger.Warn("dropping undecodable frame", "error", err)
			continue
		}

		switch {
		case m.Event == "error":
			return &EventError{Op: "stream", Code: m.Code, Msg: m.Msg}
		case m.Event != "":
			c.logger.Debug("websocket event", "event", m.Event, "code", m.Code)
		case len(m.Data) > 0:
			if err := handle(gctx, m.Data); err != nil {
				return err
			}
		}
	}
}

// keepalive sends "ping" after PingInterval of silence and fails the
// connection if nothing arrives within PongTimeout after that.
func (c *Client) keepalive(ctx context.Context) error {
	tick := c.cfg.PingInterval / 5
	if tick <= 0 {
		tick = c.cfg.PingInterval
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	var pingSent time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		last := time.Unix(0, c.lastRecv.Load())
		if !pingSent.IsZero() && last.Before(pingSent) {
			if time.Since(pingSent) > c.cfg.PongTimeout {
				c.logger.Warn("no pong received, connection stale",
					"last_frame", last,
					"timeout", c.cfg.PongTimeout,
				)
				return ErrStaleConnection
			}
			continue
		}

		if time.Since(last) >= c.cfg.PingInterval {
			if err := c.send(websocket.TextMessage, []byte("ping")); err != nil {
				return fmt.Errorf("send ping: %w", err)
			}
			pingSent = time.Now()
		}
	}
}

// Close gracefully closes the connection.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	conn := c.conn
	c.mu.Unlock()

	if conn == nil {
		return nil
	}

	c.writeMu.Lock()
	conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	c.writeMu.Unlock()

	if err := conn.Close(); err != nil && !errors.Is(err, websocket.ErrCloseSent) {
		return err
	}
	return nil
}

func (c *Client) sendJSON(v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
	return c.conn.WriteJSON(v)
}

func (c *Client) send(messageType int, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
	return c.conn.WriteMessage(messageType, data)
}

func (c *Client) touch() {
	c.lastRecv.Store(time.Now().UnixNano())
}
