package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/yourorg/knowledgehub/internal/events"
	"github.com/yourorg/knowledgehub/internal/security/auth"
)

// ProgressHandler streams a user's progress events (purchases, validations,
// certifications) over a WebSocket. Browsers cannot set an Authorization
// header on the upgrade request, so the JWT travels as a query parameter.
type ProgressHandler struct {
	bus            *events.Bus
	tokenManager   *auth.TokenManager
	allowedOrigins []string
	logger         *slog.Logger
}

// NewProgressHandler creates a new progress handler
func NewProgressHandler(bus *events.Bus, tm *auth.TokenManager, allowedOrigins []string, logger *slog.Logger) *ProgressHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProgressHandler{
		bus:            bus,
		tokenManager:   tm,
		allowedOrigins: allowedOrigins,
		logger:         logger,
	}
}

// upgrader is initialized per-request to use instance's allowed origins
func (h *ProgressHandler) getUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				// Allow requests with no origin (e.g., non-browser clients)
				return true
			}
			for _, allowed := range h.allowedOrigins {
				if origin == allowed {
					return true
				}
			}
			h.logger.Warn("websocket origin rejected", slog.String("origin", origin))
			return false
		},
	}
}

// ServeHTTP handles GET /ws/progress?token=...
func (h *ProgressHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	claims, err := h.tokenManager.ValidateToken(token)
	if err != nil {
		h.logger.Warn("websocket token rejected", slog.String("error", err.Error()))
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	upgrader := h.getUpgrader()
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}
	defer ws.Close()

	ch, cancel := h.bus.Subscribe(claims.UserID)
	defer cancel()

	h.logger.Info("progress stream opened", slog.String("user_id", claims.UserID))

	// Reader goroutine: we never expect client messages, but reading is how
	// websocket close frames surface.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	pingTicker := time.NewTicker(30 * time.Second)
	defer pingTicker.Stop()

	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return
			}
			ws.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := ws.WriteJSON(ev); err != nil {
				h.logger.Debug("progress stream write failed", slog.String("error", err.Error()))
				return
			}
		case <-pingTicker.C:
			if err := ws.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(5*time.Second)); err != nil {
				return
			}
		case <-done:
			return
		case <-r.Context().Done():
			return
		}
	}
}
