// Package chatclient is a Go client for the chat gateway, used by CLI tools
// and integration tests. It reconnects with exponential backoff when the
// gateway is unreachable.
package chatclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
)

var (
	ErrAuthFailed = errors.New("chat authentication failed")
	ErrMaxRetries = errors.New("gave up connecting after max retries")
)

const (
	baseBackoff  = 1000 * time.Millisecond
	maxBackoff   = 10000 * time.Millisecond
	maxRetries   = 3
	dialTimeout  = 10 * time.Second
	replyTimeout = 120 * time.Second
)

// Conn is the subset of the websocket connection the client uses.
type Conn interface {
	WriteJSON(v interface{}) error
	ReadJSON(v interface{}) error
	Close() error
}

type DialFunc func(ctx context.Context, url string) (Conn, error)

type serverFrame struct {
	Type      string `json:"type"`
	Status    string `json:"status,omitempty"`
	Content   string `json:"content,omitempty"`
	Message   string `json:"message,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

type Client struct {
	url    string
	token  string
	teamID uint

	dial  DialFunc
	sleep func(time.Duration)

	conn Conn
}

type Option func(*Client)

// WithTeam joins a team chat instead of the personal one.
func WithTeam(teamID uint) Option {
	return func(c *Client) { c.teamID = teamID }
}

// WithDialer replaces the websocket dialer, for tests.
func WithDialer(dial DialFunc) Option {
	return func(c *Client) { c.dial = dial }
}

// WithSleeper replaces the backoff sleep, for tests.
func WithSleeper(sleep func(time.Duration)) Option {
	return func(c *Client) { c.sleep = sleep }
}

func New(url, token string, opts ...Option) *Client {
	c := &Client{
		url:   url,
		token: token,
		dial:  gorillaDial,
		sleep: time.Sleep,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func gorillaDial(ctx context.Context, url string) (Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: dialTimeout}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// Connect dials the gateway and authenticates, retrying transient failures
// with exponential backoff. A rejected token is terminal: retrying with the
// same credentials cannot succeed.
func (c *Client) Connect(ctx context.Context) error {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			c.sleep(backoffDelay(attempt))
		}

		err := c.connectOnce(ctx)
		if err == nil {
			return nil
		}
		if errors.Is(err, ErrAuthFailed) {
			return err
		}
		lastErr = err
	}
	return fmt.Errorf("%w: %v", ErrMaxRetries, lastErr)
}

func (c *Client) connectOnce(ctx context.Context) error {
	conn, err := c.dial(ctx, c.url)
	if err != nil {
		return err
	}

	auth := map[string]interface{}{"type": "auth", "token": c.token}
	if c.teamID != 0 {
		auth["team_id"] = c.teamID
	}
	if err := conn.WriteJSON(auth); err != nil {
		_ = conn.Close()
		return err
	}

	var reply serverFrame
	if err := conn.ReadJSON(&reply); err != nil {
		_ = conn.Close()
		return err
	}
	if reply.Type == "error" {
		_ = conn.Close()
		return fmt.Errorf("%w: %s", ErrAuthFailed, reply.Message)
	}
	if reply.Type != "auth" || reply.Status != "authenticated" {
		_ = conn.Close()
		return fmt.Errorf("unexpected handshake reply %q", reply.Type)
	}

	c.conn = conn
	return nil
}

// Send delivers one chat message and waits for the assistant's reply. A lost
// connection triggers one reconnect cycle before giving up.
func (c *Client) Send(ctx context.Context, message string) (string, error) {
	if c.conn == nil {
		if err := c.Connect(ctx); err != nil {
			return "", err
		}
	}

	reply, err := c.sendOnce(message)
	if err == nil {
		return reply, nil
	}

	c.conn = nil
	if err := c.Connect(ctx); err != nil {
		return "", err
	}
	return c.sendOnce(message)
}

func (c *Client) sendOnce(message string) (string, error) {
	if err := c.conn.WriteJSON(map[string]interface{}{"type": "chat", "message": message}); err != nil {
		return "", err
	}

	deadline := time.Now().Add(replyTimeout)
	for time.Now().Before(deadline) {
		var frame serverFrame
		if err := c.conn.ReadJSON(&frame); err != nil {
			return "", err
		}
		switch frame.Type {
		case "message":
			return frame.Content, nil
		case "error":
			return "", errors.New(frame.Message)
		}
	}
	return "", errors.New("timed out waiting for reply")
}

func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

// backoffDelay doubles per attempt from 2s, capped at 10s.
func backoffDelay(attempt int) time.Duration {
	d := baseBackoff << uint(attempt)
	if d > maxBackoff {
		d = maxBackoff
	}
	return d
}
