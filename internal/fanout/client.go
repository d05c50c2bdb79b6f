package fanout

import (
	"context"
	"fmt"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/charleschow/lol-valuebets/internal/events"
	"github.com/charleschow/lol-valuebets/internal/telemetry"
)

const (
	minBackoff = 1 * time.Second
	maxBackoff = 30 * time.Second
	// A session that lasted this long resets the backoff.
	stableSession = time.Minute
)

// Client follows a daemon's /ws feed and republishes every ledger event
// onto a local bus.
type Client struct {
	addr   string
	league string
	bus    *events.Bus

	// OnState, if set, is told about every connect (true) and drop (false).
	OnState func(connected bool, err error)

	reconnects atomic.Int64
}

// NewClient watches addr (host:port). An empty league follows every league.
func NewClient(addr, league string, bus *events.Bus) *Client {
	return &Client{addr: addr, league: league, bus: bus}
}

// Reconnects counts sessions after the first.
func (c *Client) Reconnects() int64 { return c.reconnects.Load() }

func (c *Client) url() string {
	u := url.URL{Scheme: "ws", Host: c.addr, Path: "/ws"}
	if c.league != "" {
		u.RawQuery = url.Values{"league": {c.league}}.Encode()
	}
	return u.String()
}

// backoff doubles from minBackoff per failed attempt, capped at maxBackoff.
func backoff(attempt int) time.Duration {
	d := minBackoff << min(max(attempt-1, 0), 5)
	return min(d, maxBackoff)
}

// ConnectWithRetry keeps a session open until ctx is cancelled.
func (c *Client) ConnectWithRetry(ctx context.Context) {
	attempt := 0
	for sessions := 0; ctx.Err() == nil; sessions++ {
		if sessions > 0 {
			c.reconnects.Add(1)
		}
		began := time.Now()
		err := c.session(ctx)
		if ctx.Err() != nil {
			return
		}
		if time.Since(began) > stableSession {
			attempt = 0
		}
		attempt++
		wait := backoff(attempt)
		c.state(false, err)
		telemetry.Warnf("fanout: feed lost (attempt %d): %v; retry in %s", attempt, err, wait)

		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}

func (c *Client) state(connected bool, err error) {
	if c.OnState != nil {
		c.OnState(connected, err)
	}
}

// session runs one connection until it fails or ctx ends.
func (c *Client) session(ctx context.Context) error {
	target := c.url()
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, target, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", target, err)
	}
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	c.state(true, nil)
	telemetry.Infof("fanout: following %s", target)

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		evt, err := UnmarshalEvent(msg)
		if err != nil {
			telemetry.Warnf("fanout: skipping frame: %v", err)
			continue
		}
		c.bus.Publish(evt)
	}
}
