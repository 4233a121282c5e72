package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/vyrodovalexey/item-catalog/internal/model"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBufferSize = 32

	// paramEventTypes restricts a subscription, e.g. ?types=created,deleted.
	paramEventTypes = "types"
)

var (
	feedSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "catalog",
		Subsystem: "feed",
		Name:      "subscribers",
		Help:      "Connected change feed subscribers.",
	})

	feedDroppedEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "catalog",
		Subsystem: "feed",
		Name:      "dropped_events_total",
		Help:      "Item events not delivered because a subscriber's buffer was full.",
	}, []string{"type"})
)

var knownEventTypes = map[string]bool{
	model.EventItemCreated: true,
	model.EventItemUpdated: true,
	model.EventItemDeleted: true,
}

type subscriber struct {
	conn       *websocket.Conn
	remoteAddr string
	send       chan []byte
	types      map[string]bool // nil means every type
	cancel     context.CancelFunc
}

func (s *subscriber) wants(eventType string) bool {
	return s.types == nil || s.types[eventType]
}

// WebSocketHandler streams item change events to subscribed clients.
type WebSocketHandler struct {
	upgrader    websocket.Upgrader
	logger      *zap.Logger
	mu          sync.RWMutex
	subscribers map[*subscriber]struct{}
}

// NewWebSocketHandler creates a new WebSocketHandler instance.
func NewWebSocketHandler(logger *zap.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(_ *http.Request) bool {
				return true
			},
		},
		logger:      logger,
		subscribers: make(map[*subscriber]struct{}),
	}
}

// RegisterRoutes registers the change feed route with the router.
func (h *WebSocketHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/ws", h.HandleWebSocket).Methods(http.MethodGet)
}

// HandleWebSocket upgrades the request and subscribes the client to item events.
//
//nolint:contextcheck // the subscription outlives the request context
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	types, err := parseEventTypes(r.URL.Query().Get(paramEventTypes))
	if err != nil {
		writeJSON(w, h.logger, http.StatusBadRequest, model.ErrorResponse{
			Code:    http.StatusBadRequest,
			Message: err.Error(),
		})
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("failed to upgrade connection", zap.Error(err))
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	sub := &subscriber{
		conn:       conn,
		remoteAddr: conn.RemoteAddr().String(),
		send:       make(chan []byte, sendBufferSize),
		types:      types,
		cancel:     cancel,
	}

	h.mu.Lock()
	h.subscribers[sub] = struct{}{}
	h.mu.Unlock()
	feedSubscribers.Inc()

	h.logger.Info("feed subscriber connected",
		zap.String("remote_addr", sub.remoteAddr),
		zap.Strings("types", typeNames(types)),
	)

	go h.writePump(ctx, sub)
	go h.readPump(ctx, sub)
}

// Publish sends an item event to every subscriber that wants its type.
// A subscriber whose buffer is full misses the event.
func (h *WebSocketHandler) Publish(event model.ItemEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("failed to encode item event", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subscribers {
		if !sub.wants(event.Type) {
			continue
		}
		select {
		case sub.send <- payload:
		default:
			feedDroppedEvents.WithLabelValues(event.Type).Inc()
			h.logger.Warn("dropping item event for slow subscriber",
				zap.String("remote_addr", sub.remoteAddr),
				zap.String("event", event.Type),
				zap.Int64("item_id", event.ItemID),
			)
		}
	}
}

// ClientCount returns the number of connected subscribers.
func (h *WebSocketHandler) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// readPump drains incoming frames so that pong and close frames are processed.
func (h *WebSocketHandler) readPump(ctx context.Context, sub *subscriber) {
	conn := sub.conn
	defer func() {
		h.unsubscribe(sub)
		if err := conn.Close(); err != nil {
			h.logger.Debug("error closing connection", zap.Error(err))
		}
	}()

	conn.SetReadLimit(maxMessageSize)
	if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		h.logger.Error("failed to set read deadline", zap.Error(err))
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for ctx.Err() == nil {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Warn("feed read error", zap.Error(err))
			}
			return
		}
	}
}

// writePump forwards queued events and keeps the connection alive with pings.
func (h *WebSocketHandler) writePump(ctx context.Context, sub *subscriber) {
	pingTicker := time.NewTicker(pingPeriod)
	defer pingTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.write(sub.conn, websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "server shutting down"))
			return
		case payload := <-sub.send:
			if err := h.write(sub.conn, websocket.TextMessage, payload); err != nil {
				return
			}
		case <-pingTicker.C:
			if err := h.write(sub.conn, websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *WebSocketHandler) write(conn *websocket.Conn, messageType int, data []byte) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		h.logger.Debug("failed to set write deadline", zap.Error(err))
		return err
	}
	if err := conn.WriteMessage(messageType, data); err != nil {
		h.logger.Debug("feed write failed", zap.Int("message_type", messageType), zap.Error(err))
		return err
	}
	return nil
}

// unsubscribe cancels the subscriber and forgets it. It is safe to call twice.
func (h *WebSocketHandler) unsubscribe(sub *subscriber) {
	sub.cancel()

	h.mu.Lock()
	_, exists := h.subscribers[sub]
	delete(h.subscribers, sub)
	h.mu.Unlock()

	if exists {
		feedSubscribers.Dec()
		h.logger.Info("feed subscriber disconnected", zap.String("remote_addr", sub.remoteAddr))
	}
}

// CloseAllConnections sends a close frame to every subscriber and drops them.
func (h *WebSocketHandler) CloseAllConnections() {
	h.mu.RLock()
	subs := make([]*subscriber, 0, len(h.subscribers))
	for sub := range h.subscribers {
		subs = append(subs, sub)
	}
	h.mu.RUnlock()

	// Canceling makes each writePump send a close frame.
	for _, sub := range subs {
		sub.cancel()
	}

	time.Sleep(100 * time.Millisecond)

	for _, sub := range subs {
		h.unsubscribe(sub)
		if err := sub.conn.Close(); err != nil {
			h.logger.Debug("error closing connection", zap.Error(err))
		}
	}

	h.logger.Info("all feed subscribers closed", zap.Int("count", len(subs)))
}

// parseEventTypes reads a comma separated list of event types. An empty list
// subscribes to everything.
func parseEventTypes(raw string) (map[string]bool, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	types := make(map[string]bool)
	for _, name := range strings.Split(raw, ",") {
		name = strings.TrimSpace(name)
		if !knownEventTypes[name] {
			return nil, fmt.Errorf("unknown event type %q", name)
		}
		types[name] = true
	}
	return types, nil
}

func typeNames(types map[string]bool) []string {
	if types == nil {
		return []string{"all"}
	}
	names := make([]string, 0, len(types))
	for _, name := range []string{model.EventItemCreated, model.EventItemUpdated, model.EventItemDeleted} {
		if types[name] {
			names = append(names, name)
		}
	}
	return names
}
