package chathub

import "fmt"

// SessionState is the position of a connection in the register/join lifecycle.
type SessionState int

const (
	// StateUnbound: connected, no username declared yet.
	StateUnbound SessionState = iota
	// StateRegistered: username declared, no conversation open.
	StateRegistered
	// StateJoined: username declared and viewing the conversation with Partner.
	StateJoined
)

func (s SessionState) String() string {
	switch s {
	case StateUnbound:
		return "unbound"
	case StateRegistered:
		return "registered"
	case StateJoined:
		return "joined"
	default:
		return fmt.Sprintf("SessionState(%d)", int(s))
	}
}

// Session is the live binding of a connection to a username and,
// once joined, to the conversation partner.
type Session struct {
	State    SessionState
	Username string
	Partner  string
}

func RegisteredSession(username string) Session {
	return Session{State: StateRegistered, Username: username}
}

func JoinedSession(username, partner string) Session {
	return Session{State: StateJoined, Username: username, Partner: partner}
}

// ConversationID returns the id of the conversation the session is viewing.
// ok is false unless the session is joined.
func (s Session) ConversationID() (id string, ok bool) {
	if s.State != StateJoined {
		return "", false
	}
	return ConversationID(s.Username, s.Partner), true
}

// IsViewing reports whether the session currently has partner's conversation open.
func (s Session) IsViewing(partner string) bool {
	return s.State == StateJoined && s.Partner == partner
}
