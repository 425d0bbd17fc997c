package websocket

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Handler upgrades admin requests to the moderation feed
type Handler struct {
	hub      *Hub
	upgrader websocket.Upgrader
	logger   zerolog.Logger
}

// NewHandler creates a new WebSocket handler. An empty allowedOrigins list
// or a "*" entry accepts any origin.
func NewHandler(hub *Hub, allowedOrigins []string, logger zerolog.Logger) *Handler {
	return &Handler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		logger: logger,
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(allowed) == 0 {
			return true
		}
		for _, o := range allowed {
			if o == "*" || strings.EqualFold(o, origin) {
				return true
			}
		}
		return false
	}
}

// HandleConnection godoc
// @Summary Subscribe to the moderation feed
// @Description Upgrades to a WebSocket that streams moderation events (pending uploads, new complaints, status changes) as JSON
// @Tags admin
// @Security BearerAuth
// @Param token query string false "Access token, for clients that cannot set headers"
// @Success 101 {string} string "Switching Protocols to WebSocket"
// @Failure 401 {object} dto.APIResponse{error=dto.ErrorDetail} "Unauthorized"
// @Failure 403 {object} dto.APIResponse{error=dto.ErrorDetail} "Forbidden - admin only"
// @Router /admin/feed/ws [get]
func (h *Handler) HandleConnection(c *gin.Context) {
	userID := c.GetInt64("userID")

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error().Err(err).Int64("userID", userID).Msg("Failed to upgrade connection to WebSocket")
		return
	}

	client := &Client{
		hub:    h.hub,
		conn:   conn,
		send:   make(chan []byte, 64),
		userID: userID,
		logger: h.logger,
	}
	client.hub.register <- client

	go client.writePump()
	go client.readPump()
}
