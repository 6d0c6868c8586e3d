package chathub

import (
	"chatrelay/backend/internal/models"
	"chatrelay/backend/internal/storage"
	"context"
	"log"
	"runtime/debug"

	"github.com/go-playground/validator/v10"
)

// SessionController turns inbound frames into hub operations and storage calls.
// Storage calls run on the caller's goroutine (the connection's read pump),
// so a slow database stalls only that connection.
type SessionController struct {
	Hub     *ManagerService
	Storage storage.Storage

	validate  *validator.Validate
	chatLocks *chatLocks
}

func NewSessionController(hub *ManagerService, s storage.Storage) *SessionController {
	return &SessionController{
		Hub:       hub,
		Storage:   s,
		validate:  validator.New(),
		chatLocks: newChatLocks(),
	}
}

// HandleEvent dispatches one inbound frame. Bad frames are logged and
// dropped; the connection stays open.
func (s *SessionController) HandleEvent(ctx context.Context, c Client, raw []byte) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("ERROR: Panic while handling frame from %s: %v\n%s", c.GetConnID(), r, debug.Stack())
		}
	}()

	ev, err := models.DecodeInbound(raw)
	if err != nil {
		log.Printf("WARNING: Ignoring frame from %s: %v", c.GetConnID(), err)
		return
	}

	switch ev.Type {
	case models.TypeRegisterUser:
		req := models.RegisterUserEvent{User: ev.User}
		if s.invalid(c, ev.Type, req) {
			return
		}
		s.Hub.RegisterUser(c, req.User)

	case models.TypeJoinChat:
		req := models.JoinChatEvent{User: ev.User, Target: ev.Target}
		if s.invalid(c, ev.Type, req) {
			return
		}
		s.joinChat(ctx, c, req)

	case models.TypeMessage:
		req := models.ChatMessageEvent{Text: ev.Text}
		if s.invalid(c, ev.Type, req) {
			return
		}
		s.sendMessage(ctx, c, req)
	}
}

// HandleClose drops the connection from the hub.
func (s *SessionController) HandleClose(c Client) {
	s.Hub.Disconnect(c)
}

func (s *SessionController) invalid(c Client, eventType string, req any) bool {
	if err := s.validate.Struct(req); err != nil {
		log.Printf("WARNING: Invalid %s frame from %s: %v", eventType, c.GetConnID(), err)
		return true
	}
	return false
}

// joinChat switches the session to the target conversation, sends its history
// and then the unread counters with the target's entry cleared. If the history
// cannot be loaded, neither the history nor the cleared counters are sent.
func (s *SessionController) joinChat(ctx context.Context, c Client, req models.JoinChatEvent) {
	s.Hub.JoinChat(c, req.User, req.Target)

	chatID := ConversationID(req.User, req.Target)
	history, err := s.Storage.FindMessages(ctx, chatID)
	if err != nil {
		log.Printf("ERROR: Failed to load history of %s for %s: %v", chatID, req.User, err)
		return
	}

	payload, err := models.EncodeHistory(history)
	if err != nil {
		log.Printf("ERROR: Failed to encode history of %s: %v", chatID, err)
		return
	}
	s.Hub.SendTo(c, payload)
	s.Hub.ClearUnread(c, req.User, req.Target)
}

// sendMessage stores and routes a chat line. Frames from connections that are
// not joined to a conversation are dropped silently.
func (s *SessionController) sendMessage(ctx context.Context, c Client, req models.ChatMessageEvent) {
	session, ok := s.Hub.Lookup(c)
	if !ok {
		return
	}
	chatID, joined := session.ConversationID()
	if !joined {
		return
	}

	// Held across create and deliver so peers see messages in stored order.
	unlock := s.chatLocks.Lock(chatID)
	defer unlock()

	stored, err := s.Storage.CreateMessage(ctx, &models.Message{
		ChatID: chatID,
		User:   session.Username,
		Text:   req.Text,
	})
	if err != nil {
		log.Printf("ERROR: Failed to store message from %s in %s: %v", session.Username, chatID, err)
		return
	}

	s.Hub.Deliver(*stored, session)

	if err := s.Storage.PublishMessage(ctx, *stored); err != nil {
		log.Printf("WARNING: Failed to publish message %d: %v", stored.ID, err)
	}
}

var _ EventHandler = (*SessionController)(nil)

