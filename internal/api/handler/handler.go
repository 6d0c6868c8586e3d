package handler

import (
	"chatrelay/backend/internal/chathub"
	"chatrelay/backend/internal/config"
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Handler містить посилання на ChatHub
type Handler struct {
	Hub        *chathub.ManagerService
	Controller chathub.EventHandler

	// ctx outlives single requests: upgraded connections keep running after
	// the HTTP handler returns.
	ctx      context.Context
	settings config.WebSocket
}

func NewHandler(ctx context.Context, hub *chathub.ManagerService, controller chathub.EventHandler, settings config.WebSocket) *Handler {
	return &Handler{
		Hub:        hub,
		Controller: controller,
		ctx:        ctx,
		settings:   settings,
	}
}

// Routes registers the relay endpoints on r.
func (h *Handler) Routes(r gin.IRoutes) {
	r.GET("/ws", h.ServeWebSocket)
	r.GET("/online", h.GetOnlineUsers)
	r.GET("/health", h.Health)
}

// GetOnlineUsers returns the current roster.
func (h *Handler) GetOnlineUsers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": h.Hub.OnlineUsers()})
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
