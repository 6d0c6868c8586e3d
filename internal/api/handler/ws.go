package handler

import (
	"chatrelay/backend/internal/chathub"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Дозволяє з'єднання з будь-якого домену. У продакшені налаштувати!
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWebSocket оновлює HTTP-з'єднання до WebSocket.
// Identity is declared later by the client's registerUser/joinChat frames.
func (h *Handler) ServeWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the HTTP error response.
		log.Printf("Failed to upgrade connection: %v", err)
		return
	}

	client := chathub.NewWebSocketClient(h.ctx, conn, h.Controller, h.settings)

	// 1. Реєстрація клієнта в Chat Hub
	h.Hub.Connect(client)

	// 2. client.Run() сам запустить необхідні goroutines
	client.Run()
}
