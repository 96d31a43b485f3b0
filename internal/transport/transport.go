// Package transport fans emitted normalized activities out to
// downstream consumers. Consumers either hold a WebSocket subscription
// or poll a bounded backlog.
package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/broidkit/skype-bridge/internal/activity"
)

// backlogLimit bounds the polling backlog.
const backlogLimit = 1000

// Envelope wraps an emitted activity with its emission time, used for
// since-based polling.
type Envelope struct {
	EmittedAt int64              `json:"emittedAt"`
	Activity  *activity.Activity `json:"activity"`
}

// Publisher accepts emitted activities for downstream delivery.
type Publisher interface {
	Publish(a *activity.Activity) error
}

// WebSocketServer broadcasts every published activity to all connected
// downstream consumers.
type WebSocketServer struct {
	logger   *zap.Logger
	upgrader websocket.Upgrader

	connMu sync.RWMutex
	conns  map[*websocket.Conn]bool

	outQueue chan *Envelope

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewWebSocketServer creates a WebSocket fan-out server.
func NewWebSocketServer(logger *zap.Logger) *WebSocketServer {
	return &WebSocketServer{
		logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		conns:    make(map[*websocket.Conn]bool),
		outQueue: make(chan *Envelope, 100),
		stopCh:   make(chan struct{}),
	}
}

// Start starts the broadcast loop.
func (ws *WebSocketServer) Start(ctx context.Context) error {
	ws.wg.Add(1)
	go ws.broadcastLoop()
	ws.logger.Info("Stream WebSocket server started")
	return nil
}

// Stop closes all consumer connections and stops the broadcast loop.
func (ws *WebSocketServer) Stop(ctx context.Context) error {
	close(ws.stopCh)

	ws.connMu.Lock()
	for conn := range ws.conns {
		conn.Close()
	}
	ws.connMu.Unlock()

	ws.wg.Wait()
	ws.logger.Info("Stream WebSocket server stopped")
	return nil
}

// Publish queues an activity for broadcast.
func (ws *WebSocketServer) Publish(a *activity.Activity) error {
	envelope := &Envelope{EmittedAt: time.Now().UnixMilli(), Activity: a}
	select {
	case ws.outQueue <- envelope:
		return nil
	default:
		return fmt.Errorf("stream queue full")
	}
}

// HTTPHandler returns an http.Handler for consumer subscriptions.
func (ws *WebSocketServer) HTTPHandler() http.Handler {
	return http.HandlerFunc(ws.handleConnection)
}

func (ws *WebSocketServer) handleConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := ws.upgrader.Upgrade(w, r, nil)
	if err != nil {
		ws.logger.Error("WebSocket upgrade failed", zap.Error(err))
		return
	}

	ws.connMu.Lock()
	ws.conns[conn] = true
	ws.connMu.Unlock()

	ws.logger.Info("Stream consumer connected",
		zap.String("remoteAddr", r.RemoteAddr))

	ws.wg.Add(1)
	go ws.readLoop(conn)
}

// readLoop drains the consumer side until it disconnects. Consumers
// are receive-only; anything they send is discarded.
func (ws *WebSocketServer) readLoop(conn *websocket.Conn) {
	defer ws.wg.Done()
	defer func() {
		ws.connMu.Lock()
		delete(ws.conns, conn)
		ws.connMu.Unlock()
		conn.Close()
		ws.logger.Info("Stream consumer disconnected")
	}()

	for {
		select {
		case <-ws.stopCh:
			return
		default:
		}

		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				ws.logger.Debug("WebSocket read error", zap.Error(err))
			}
			return
		}
	}
}

func (ws *WebSocketServer) broadcastLoop() {
	defer ws.wg.Done()

	for {
		select {
		case <-ws.stopCh:
			return
		case envelope := <-ws.outQueue:
			ws.broadcast(envelope)
		}
	}
}

func (ws *WebSocketServer) broadcast(envelope *Envelope) {
	data, err := json.Marshal(envelope)
	if err != nil {
		ws.logger.Error("Failed to marshal activity", zap.Error(err))
		return
	}

	ws.connMu.RLock()
	defer ws.connMu.RUnlock()

	for conn := range ws.conns {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			ws.logger.Warn("Failed to push activity", zap.Error(err))
		}
	}
}

// ConnectionCount returns the number of subscribed consumers.
func (ws *WebSocketServer) ConnectionCount() int {
	ws.connMu.RLock()
	defer ws.connMu.RUnlock()
	return len(ws.conns)
}

// PollingServer retains a bounded backlog of emitted activities for
// consumers that poll instead of holding a connection.
type PollingServer struct {
	logger *zap.Logger

	queueMu sync.RWMutex
	queue   []*Envelope
}

// NewPollingServer creates a polling fan-out server.
func NewPollingServer(logger *zap.Logger) *PollingServer {
	return &PollingServer{
		logger: logger,
		queue:  make([]*Envelope, 0),
	}
}

// Publish appends an activity to the backlog, evicting the oldest
// entries past the backlog limit.
func (ps *PollingServer) Publish(a *activity.Activity) error {
	envelope := &Envelope{EmittedAt: time.Now().UnixMilli(), Activity: a}

	ps.queueMu.Lock()
	ps.queue = append(ps.queue, envelope)
	if len(ps.queue) > backlogLimit {
		ps.queue = ps.queue[len(ps.queue)-backlogLimit:]
	}
	ps.queueMu.Unlock()

	return nil
}

// HTTPHandler returns an http.Handler for the polling endpoint. The
// optional since query parameter (epoch ms) filters the backlog.
func (ps *PollingServer) HTTPHandler() http.Handler {
	return http.HandlerFunc(ps.handlePoll)
}

func (ps *PollingServer) handlePoll(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var since int64
	if sinceStr := r.URL.Query().Get("since"); sinceStr != "" {
		parsed, err := strconv.ParseInt(sinceStr, 10, 64)
		if err != nil {
			http.Error(w, "Invalid since parameter", http.StatusBadRequest)
			return
		}
		since = parsed
	}

	ps.queueMu.RLock()
	var activities []*Envelope
	for _, envelope := range ps.queue {
		if envelope.EmittedAt > since {
			activities = append(activities, envelope)
		}
	}
	ps.queueMu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"activities": activities,
	})
}

// QueueSize returns the number of retained activities.
func (ps *PollingServer) QueueSize() int {
	ps.queueMu.RLock()
	defer ps.queueMu.RUnlock()
	return len(ps.queue)
}
