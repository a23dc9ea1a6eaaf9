// Package ws streams a user's own alert events to their dashboard over
// WebSocket.
package ws

import (
	"context"
	"net/http"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/HerbHall/moodwatch/internal/auth"
	"github.com/HerbHall/moodwatch/internal/emergency"
	"github.com/HerbHall/moodwatch/pkg/plugin"
)

// TokenValidator checks access tokens. Implemented by auth.TokenService.
type TokenValidator interface {
	ValidateAccessToken(token string) (*auth.Claims, error)
}

// Handler provides the alert stream endpoint.
type Handler struct {
	hub    *Hub
	tokens TokenValidator
	logger *zap.Logger
}

// Compile-time check that Handler implements the server interface.
var _ interface {
	RegisterRoutes(mux *http.ServeMux)
} = (*Handler)(nil)

// NewHandler creates a WebSocket handler.
func NewHandler(tokens TokenValidator, logger *zap.Logger) *Handler {
	return &Handler{
		hub:    NewHub(logger),
		tokens: tokens,
		logger: logger,
	}
}

// RegisterRoutes registers WebSocket routes on the server mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/ws/alerts", h.handleAlertStream)
}

// handleAlertStream upgrades the connection and streams the caller's alert events.
func (h *Handler) handleAlertStream(w http.ResponseWriter, r *http.Request) {
	// Browsers cannot set headers on WebSocket requests.
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "missing token parameter", http.StatusUnauthorized)
		return
	}

	claims, err := h.tokens.ValidateAccessToken(token)
	if err != nil {
		http.Error(w, "invalid or expired token", http.StatusUnauthorized)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		// Origin is not checked; the token authenticates the caller.
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.logger.Error("websocket accept failed", zap.Error(err))
		return
	}

	client := &Client{
		conn:   conn,
		userID: claims.UserID,
		send:   make(chan Message, 32),
		logger: h.logger,
	}
	h.hub.Register(client)

	ctx := r.Context()
	done := make(chan struct{})
	go func() {
		client.writePump(ctx)
		close(done)
	}()

	// readPump blocks until client disconnects.
	client.readPump(ctx)

	h.hub.Unregister(client)
	conn.Close(websocket.StatusNormalClosure, "")
	<-done
}

// Subscribe forwards alert events to the affected user's connections.
func (h *Handler) Subscribe(bus plugin.Subscriber) (unsubscribe func()) {
	return bus.Subscribe(emergency.TopicAlertDispatched, h.handleAlertEvent)
}

func (h *Handler) handleAlertEvent(_ context.Context, event plugin.Event) {
	alert, ok := event.Payload.(*emergency.AlertEvent)
	if !ok {
		h.logger.Warn("unexpected payload type for alert event", zap.String("topic", event.Topic))
		return
	}
	h.hub.SendTo(alert.UserID, Message{
		Type:      MessageAlertDispatched,
		Timestamp: event.Timestamp,
		Data: AlertData{
			Channel:  string(alert.Channel),
			Reason:   string(alert.Reason),
			Severity: alert.Severity,
			Score:    alert.Score,
			Sent:     alert.Sent,
			SampleID: alert.SampleID,
		},
	})
}
