package ws

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rzbill/relay/pkg/log"
)

// wsConn is the subset of *websocket.Conn the registry writes through.
// Narrowed for tests.
type wsConn interface {
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// conn is one registered live connection. The mutex serializes writes;
// gorilla permits at most one concurrent writer per connection.
type conn struct {
	mu sync.Mutex
	ws wsConn
}

// Registry tracks live connections by id and implements transport.Sender
// over them. Sends to unknown ids report false, never an error: the
// connection may have disconnected between membership lookup and delivery
// and that is an ordinary race, not a fault.
type Registry struct {
	mu          sync.RWMutex
	conns       map[string]*conn
	sendTimeout time.Duration
	logger      log.Logger
}

// NewRegistry builds an empty registry. sendTimeout bounds each write.
func NewRegistry(sendTimeout time.Duration, logger log.Logger) *Registry {
	if sendTimeout <= 0 {
		sendTimeout = 5 * time.Second
	}
	return &Registry{
		conns:       make(map[string]*conn),
		sendTimeout: sendTimeout,
		logger:      logger.WithComponent("ws.registry"),
	}
}

// Register adds a live connection under id.
func (r *Registry) Register(id string, ws wsConn) {
	r.mu.Lock()
	r.conns[id] = &conn{ws: ws}
	r.mu.Unlock()
}

// Unregister drops the connection. Subsequent sends to id report false.
func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	delete(r.conns, id)
	r.mu.Unlock()
}

// Len reports the number of live connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// Send pushes payload to the connection as one text frame. Best-effort:
// a stale id or a write error yields false and the connection is left for
// the read loop to tear down.
func (r *Registry) Send(ctx context.Context, connectionID string, payload []byte) bool {
	r.mu.RLock()
	c, ok := r.conns[connectionID]
	r.mu.RUnlock()
	if !ok {
		return false
	}

	deadline := time.Now().Add(r.sendTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.ws.SetWriteDeadline(deadline)
	if err := c.ws.WriteMessage(websocket.TextMessage, payload); err != nil {
		r.logger.Debug("send failed", log.Str("connection", connectionID), log.Err(err))
		return false
	}
	return true
}
