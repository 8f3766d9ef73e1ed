package handlers

import (
	"log/slog"
	"net/http"
	"slices"

	"github.com/Dosada05/tennis-planner/live"
	"github.com/gorilla/websocket"
)

type WebSocketHandler struct {
	hub      *live.Hub
	upgrader websocket.Upgrader
}

// NewWebSocketHandler accepts upgrades only from allowedOrigins; requests
// without an Origin header (non-browser clients) pass.
func NewWebSocketHandler(hub *live.Hub, allowedOrigins []string) *WebSocketHandler {
	return &WebSocketHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || slices.Contains(allowedOrigins, origin)
			},
		},
	}
}

// ServeWs joins the signed-in account to its own room and its role room.
func (h *WebSocketHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	account, ok := currentAccount(w, r)
	if !ok {
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade уже ответил клиенту ошибкой.
		logger.WarnContext(r.Context(), "websocket upgrade failed", slog.Any("error", err))
		return
	}

	client := live.NewClient(h.hub, conn, live.RoomsFor(account))
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()

	logger.DebugContext(r.Context(), "websocket connected",
		slog.String("account_id", account.ID.String()), slog.String("role", string(account.Role)))
}
