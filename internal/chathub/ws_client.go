package chathub

import (
	"chatrelay/backend/internal/config"
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// WebSocketClient реалізує інтерфейс chathub.Client
type WebSocketClient struct {
	ConnID  string
	Conn    *websocket.Conn
	Handler EventHandler
	Send    chan []byte

	ctx       context.Context
	settings  config.WebSocket
	open      atomic.Bool
	closeOnce sync.Once
}

// NewWebSocketClient wraps an upgraded connection. ctx bounds the storage
// calls made on behalf of this connection.
func NewWebSocketClient(ctx context.Context, conn *websocket.Conn, handler EventHandler, settings config.WebSocket) *WebSocketClient {
	c := &WebSocketClient{
		ConnID:   uuid.NewString(),
		Conn:     conn,
		Handler:  handler,
		Send:     make(chan []byte, settings.SendBuffer),
		ctx:      ctx,
		settings: settings,
	}
	c.open.Store(true)
	return c
}

// --- Реалізація методів інтерфейсу ---

func (c *WebSocketClient) GetConnID() string             { return c.ConnID }
func (c *WebSocketClient) GetSendChannel() chan<- []byte { return c.Send }
func (c *WebSocketClient) IsOpen() bool                  { return c.open.Load() }

// Run запускає 'pumps' для WebSocket
func (c *WebSocketClient) Run() {
	go c.writePump()
	go c.readPump()
}

// Close закриває Send канал (що зупинить writePump)
func (c *WebSocketClient) Close() {
	c.closeOnce.Do(func() {
		c.open.Store(false)
		close(c.Send)
	})
}

func (c *WebSocketClient) readPump() {
	defer func() {
		c.open.Store(false)
		c.Handler.HandleClose(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.settings.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.settings.PongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.settings.PongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("error reading message from %s: %v", c.ConnID, err)
			}
			break
		}
		c.Handler.HandleEvent(c.ctx, c, message)
	}
}

// writePump читає кадри з каналу Send і записує їх у WebSocket, по одному кадру на повідомлення.
func (c *WebSocketClient) writePump() {
	ticker := time.NewTicker(c.settings.PingPeriod())

	defer func() {
		ticker.Stop()
		c.open.Store(false)
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.settings.WriteWait))
			if !ok {
				// Канал закрито хабом, закриваємо з'єднання WS
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("Error writing to client %s: %v", c.ConnID, err)
				return
			}

		case <-ticker.C:
			// Надсилаємо Ping для підтримки з'єднання активним
			c.Conn.SetWriteDeadline(time.Now().Add(c.settings.WriteWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
