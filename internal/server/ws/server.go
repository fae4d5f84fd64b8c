package ws

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rzbill/relay/internal/dispatch"
	"github.com/rzbill/relay/internal/lifecycle"
	"github.com/rzbill/relay/internal/runtime"
	"github.com/rzbill/relay/pkg/id"
	"github.com/rzbill/relay/pkg/log"
)

// Inbound request actions.
const (
	actionSubscribe   = "subscribe"
	actionUnsubscribe = "unsubscribe"
	actionSendMessage = "sendMessage"
	actionLoadHistory = "loadHistory"
)

// request is one inbound client frame.
type request struct {
	Action    string `json:"action"`
	ChannelID string `json:"channelId"`
	Name      string `json:"name"`
	Content   string `json:"content"`
}

// Server owns the websocket endpoint and its HTTP surface. Each accepted
// connection gets an opaque id, joins the default channel through the
// lifecycle manager, and is serviced by one read goroutine until it
// closes or errs.
type Server struct {
	rt         *runtime.Runtime
	lc         *lifecycle.Manager
	dispatcher *dispatch.Dispatcher
	registry   *Registry
	endpoint   *EndpointConfig
	ids        *id.Generator
	upgrader   websocket.Upgrader
	srv        *http.Server
	lis        net.Listener
	logger     log.Logger
}

// New wires the server. The registry it creates is the transport.Sender
// the dispatcher should be built on; construct the server first and pass
// srv.Registry() to dispatch.New, then call SetDispatcher.
func New(rt *runtime.Runtime, lc *lifecycle.Manager, logger log.Logger) *Server {
	cfg := rt.Config()
	s := &Server{
		rt:       rt,
		lc:       lc,
		registry: NewRegistry(cfg.Server.SendTimeout, logger),
		endpoint: NewEndpointConfig(rt.Table(), cfg.Server.Addr),
		ids:      id.NewGenerator(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		logger: logger.WithComponent("ws"),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.Handle("/metrics", rt.Metrics().Handler())
	s.srv = &http.Server{Handler: mux}
	return s
}

// Registry returns the connection registry, the Sender for dispatch.
func (s *Server) Registry() *Registry { return s.registry }

// SetDispatcher injects the dispatcher once it exists. Must be called
// before ListenAndServe.
func (s *Server) SetDispatcher(d *dispatch.Dispatcher) { s.dispatcher = d }

// ListenAndServe blocks until ctx is canceled or the listener fails.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.lis = l
	errCh := make(chan error, 1)
	go func() { errCh <- s.srv.Serve(l) }()
	select {
	case <-ctx.Done():
		cctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.srv.Shutdown(cctx)
		return nil
	case err := <-errCh:
		return err
	}
}

// Close tears the listener down.
func (s *Server) Close() {
	if s.lis != nil {
		_ = s.lis.Close()
	}
}

// Addr returns the bound listen address, once listening.
func (s *Server) Addr() string {
	if s.lis == nil {
		return ""
	}
	return s.lis.Addr().String()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.rt.CheckHealth(r.Context()); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "not_serving"})
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	c, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("upgrade failed", log.Err(err))
		return
	}

	connectionID := s.ids.Next().String()
	s.registry.Register(connectionID, c)
	s.endpoint.Address(r.Context())

	if err := s.lc.Connect(r.Context(), connectionID); err != nil {
		s.logger.Error("connect failed", log.Str("connection", connectionID), log.Err(err))
		s.registry.Unregister(connectionID)
		_ = c.Close()
		return
	}
	s.logger.Info("connected", log.Str("connection", connectionID))

	go s.readLoop(connectionID, c)
}

// readLoop services one connection until close or error, then runs the
// disconnect transition. Each request is independent: a handler error is
// reported to this connection and the loop keeps going.
func (s *Server) readLoop(connectionID string, c *websocket.Conn) {
	cfg := s.rt.Config().Server
	defer func() {
		s.registry.Unregister(connectionID)
		_ = c.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.lc.Disconnect(ctx, connectionID); err != nil {
			// Partial cleanup may remain; a later REMOVE never arriving is
			// tolerated by the dispatcher's absent-member handling.
			s.logger.Warn("disconnect cleanup incomplete",
				log.Str("connection", connectionID), log.Err(err))
		}
		s.logger.Info("disconnected", log.Str("connection", connectionID))
	}()

	if cfg.MaxFrameSize > 0 {
		c.SetReadLimit(cfg.MaxFrameSize)
	}
	if cfg.PingInterval > 0 {
		readWait := 2 * cfg.PingInterval
		_ = c.SetReadDeadline(time.Now().Add(readWait))
		c.SetPongHandler(func(string) error {
			return c.SetReadDeadline(time.Now().Add(readWait))
		})
	}

	stop := make(chan struct{})
	defer close(stop)
	go s.pingLoop(connectionID, cfg.PingInterval, stop)

	for {
		_, raw, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("read failed", log.Str("connection", connectionID), log.Err(err))
			}
			return
		}
		s.handleRequest(connectionID, raw)
	}
}

func (s *Server) pingLoop(connectionID string, interval time.Duration, stop <-chan struct{}) {
	if interval <= 0 {
		return
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			s.withConn(connectionID, func(c *conn) {
				_ = c.ws.SetWriteDeadline(time.Now().Add(interval))
				_ = c.ws.WriteMessage(websocket.PingMessage, nil)
			})
		}
	}
}

// withConn runs fn with the connection's write lock held, if still registered.
func (s *Server) withConn(connectionID string, fn func(*conn)) {
	s.registry.mu.RLock()
	c, ok := s.registry.conns[connectionID]
	s.registry.mu.RUnlock()
	if !ok {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(c)
}
