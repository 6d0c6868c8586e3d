package models

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Inbound event types sent by clients.
const (
	TypeRegisterUser = "registerUser"
	TypeJoinChat     = "joinChat"
	TypeMessage      = "message"
)

// Outbound event types pushed by the relay.
const (
	TypeOnlineUsers  = "onlineUsers"
	TypeHistory      = "history"
	TypeUnreadUpdate = "unreadUpdate"
)

var (
	ErrEmptyPayload     = errors.New("empty payload")
	ErrUnknownEventType = errors.New("unknown event type")
)

// InboundEvent is the decoded form of any client frame.
// Which fields are meaningful depends on Type.
type InboundEvent struct {
	Type   string `json:"type"`
	User   string `json:"user,omitempty"`
	Target string `json:"target,omitempty"`
	Text   string `json:"text,omitempty"`
}

// RegisterUserEvent binds the connection to a username.
type RegisterUserEvent struct {
	User string `validate:"required"`
}

// JoinChatEvent opens the conversation between User and Target.
type JoinChatEvent struct {
	User   string `validate:"required"`
	Target string `validate:"required"`
}

// ChatMessageEvent carries a chat line; sender and target come from the session.
type ChatMessageEvent struct {
	Text string `validate:"required"`
}

// DecodeInbound parses a raw frame. Frames without a known type tag (including
// the legacy {user, text} lines of the console client) yield ErrUnknownEventType.
func DecodeInbound(raw []byte) (InboundEvent, error) {
	var ev InboundEvent
	if len(raw) == 0 {
		return ev, ErrEmptyPayload
	}
	if err := json.Unmarshal(raw, &ev); err != nil {
		return ev, fmt.Errorf("decode inbound frame: %w", err)
	}
	switch ev.Type {
	case TypeRegisterUser, TypeJoinChat, TypeMessage:
		return ev, nil
	default:
		return ev, fmt.Errorf("%w: %q", ErrUnknownEventType, ev.Type)
	}
}

// Envelope is the shape of every frame the relay sends.
type Envelope struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// UnreadMap maps a sender username to the number of unread messages from them.
type UnreadMap map[string]int

// EncodeOnlineUsers builds an onlineUsers frame.
func EncodeOnlineUsers(users []string) ([]byte, error) {
	if users == nil {
		users = []string{}
	}
	return json.Marshal(Envelope{Type: TypeOnlineUsers, Data: users})
}

// EncodeHistory builds a history frame; an empty history is sent as [].
func EncodeHistory(messages []Message) ([]byte, error) {
	if messages == nil {
		messages = []Message{}
	}
	return json.Marshal(Envelope{Type: TypeHistory, Data: messages})
}

// EncodeUnreadUpdate builds an unreadUpdate frame; an empty map is sent as {}.
func EncodeUnreadUpdate(unread UnreadMap) ([]byte, error) {
	if unread == nil {
		unread = UnreadMap{}
	}
	return json.Marshal(Envelope{Type: TypeUnreadUpdate, Data: unread})
}

// EncodeMessage builds a message frame for a stored message.
func EncodeMessage(msg Message) ([]byte, error) {
	return json.Marshal(Envelope{Type: TypeMessage, Data: msg})
}
