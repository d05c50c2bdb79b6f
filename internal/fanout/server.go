package fanout

import (
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/charleschow/lol-valuebets/internal/events"
	"github.com/charleschow/lol-valuebets/internal/telemetry"
)

const (
	clientSendBuf = 256
	writeDeadline = 5 * time.Second
	pongWait      = 30 * time.Second
	pingInterval  = 20 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(_ *http.Request) bool { return true },
}

// watcher is one connected dashboard or tail process. An empty league
// receives everything.
type watcher struct {
	league string
	conn   *websocket.Conn
	send   chan []byte
	done   chan struct{}
	kicked atomic.Bool
}

func (w *watcher) label() string {
	if w.league == "" {
		return "all"
	}
	return w.league
}

// Server fans out ledger events to connected WebSocket watchers.
type Server struct {
	mu      sync.Mutex
	clients map[*watcher]struct{}
}

func NewServer(bus *events.Bus) *Server {
	s := &Server{
		clients: make(map[*watcher]struct{}),
	}
	bus.Subscribe(events.EventBetCreated, s.forward)
	bus.Subscribe(events.EventBetSettled, s.forward)
	bus.Subscribe(events.EventPassCompleted, s.forward)
	return s
}

// Clients reports the number of connected watchers.
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// forward is called on the publisher's goroutine. It serializes the event
// and enqueues it to matching clients' send channels (non-blocking).
func (s *Server) forward(evt events.Event) error {
	data, err := MarshalEvent(evt)
	if err != nil {
		telemetry.Warnf("fanout: marshal error: %v", err)
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for c := range s.clients {
		if c.league != "" && evt.League != "" && !strings.EqualFold(c.league, evt.League) {
			continue
		}
		select {
		case c.send <- data:
		default:
			// A watcher a full buffer behind is disconnected, never silently skipped.
			if c.kicked.CompareAndSwap(false, true) {
				telemetry.Warnf("fanout: watcher league=%s too slow, disconnecting", c.label())
				go c.conn.Close()
			}
		}
	}
	return nil
}

// HandleWS is the HTTP handler for WebSocket upgrade requests.
// Watchers may narrow the feed with ?league=LCK. Pass summaries carry no
// league and reach every watcher.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	league := strings.TrimSpace(r.URL.Query().Get("league"))

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		telemetry.Warnf("fanout: upgrade failed: %v", err)
		return
	}

	c := &watcher{
		league: league,
		conn:   conn,
		send:   make(chan []byte, clientSendBuf),
		done:   make(chan struct{}),
	}

	s.mu.Lock()
	s.clients[c] = struct{}{}
	s.mu.Unlock()

	telemetry.Plainf("Fanout: Client Connected [%s]", c.label())

	go s.writePump(c)
	go s.readPump(c)
}

// writePump drains the client's send channel and writes to the WS connection.
// It owns the client lifecycle: on exit it removes the client from the map
// (so forward never sends to a stale channel) and closes the connection.
func (s *Server) writePump(c *watcher) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		s.removeClient(c)
		c.conn.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				telemetry.Warnf("fanout: write error league=%s: %v", c.label(), err)
				return
			}
		case <-c.done:
			return
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump keeps the connection alive by reading pongs / close frames.
// No upstream messages are expected from watchers.
// On exit it signals writePump via c.done (never closes c.send).
func (s *Server) readPump(c *watcher) {
	defer close(c.done)

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, _, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
	}
}

func (s *Server) removeClient(c *watcher) {
	s.mu.Lock()
	delete(s.clients, c)
	s.mu.Unlock()
	telemetry.Plainf("Fanout: Client Disconnected [%s]", c.label())
}
