package chathub

import (
	"chatrelay/backend/internal/models"
	"context"
	"log"
	"slices"
)

// ManagerService is the hub. Its Run loop is the single owner of the Registry
// and the UnreadTracker: every exported method submits a closure to the loop
// and waits for it, so the shared maps are never touched concurrently.
// Nothing executed in the loop blocks: sends to clients never wait.
type ManagerService struct {
	Registry *Registry
	Unread   *UnreadTracker

	opsCh   chan func()
	stopped chan struct{}
}

func NewManagerService() *ManagerService {
	registry := NewRegistry()
	return &ManagerService{
		Registry: registry,
		Unread:   NewUnreadTracker(registry),
		opsCh:    make(chan func()),
		stopped:  make(chan struct{}),
	}
}

// Run processes hub operations until ctx is cancelled. Call it once.
func (m *ManagerService) Run(ctx context.Context) {
	log.Println("Chat hub started.")
	defer close(m.stopped)

	for {
		select {
		case op := <-m.opsCh:
			op()
		case <-ctx.Done():
			log.Println("Chat hub stopped.")
			return
		}
	}
}

// exec runs op inside the loop and waits for it. It returns false without
// running op once the loop has stopped.
func (m *ManagerService) exec(op func()) bool {
	finished := make(chan struct{})
	wrapped := func() {
		defer close(finished)
		op()
	}
	select {
	case m.opsCh <- wrapped:
		<-finished
		return true
	case <-m.stopped:
		return false
	}
}

// Connect starts tracking a new connection. It receives roster broadcasts
// from now on, even before it declares a username.
func (m *ManagerService) Connect(c Client) {
	m.exec(func() {
		m.Registry.Attach(c)
		log.Printf("INFO: Connection %s opened (%d active).", c.GetConnID(), m.Registry.Len())
	})
}

// Disconnect removes the connection and its session, closes its send channel
// and broadcasts the new roster. Unknown connections are ignored.
func (m *ManagerService) Disconnect(c Client) {
	m.exec(func() {
		s, hadSession := m.Registry.Lookup(c)
		if !m.Registry.Remove(c) {
			return
		}
		c.Close()
		if hadSession && s.Username != "" {
			log.Printf("INFO: %s left (connection %s).", s.Username, c.GetConnID())
		}
		m.broadcastPresence()
	})
}

// RegisterUser binds username to the connection and broadcasts the roster.
func (m *ManagerService) RegisterUser(c Client, username string) {
	m.exec(func() {
		m.Registry.Register(c, username)
		log.Printf("INFO: %s registered (connection %s).", username, c.GetConnID())
		m.broadcastPresence()
	})
}

// JoinChat points the connection at the conversation between username and
// target. The roster is re-broadcast only if the join changed it (implicit register).
func (m *ManagerService) JoinChat(c Client, username, target string) Session {
	var s Session
	m.exec(func() {
		before := Roster(m.Registry)
		s = m.Registry.Join(c, username, target)
		log.Printf("INFO: %s joined chat with %s (connection %s).", username, target, c.GetConnID())
		if !slices.Equal(before, Roster(m.Registry)) {
			m.broadcastPresence()
		}
	})
	return s
}

// Lookup returns the session bound to the connection.
func (m *ManagerService) Lookup(c Client) (Session, bool) {
	var (
		s  Session
		ok bool
	)
	m.exec(func() {
		s, ok = m.Registry.Lookup(c)
	})
	return s, ok
}

// SendTo pushes a frame to one connection if it is still tracked.
func (m *ManagerService) SendTo(c Client, payload []byte) {
	m.exec(func() {
		if m.Registry.Has(c) {
			m.send(c, payload)
		}
	})
}

// ClearUnread resets the counter of partner for username and pushes the
// resulting map to the connection, whether or not anything was cleared.
func (m *ManagerService) ClearUnread(c Client, username, partner string) models.UnreadMap {
	var unread models.UnreadMap
	m.exec(func() {
		unread = m.Unread.Clear(username, partner)
		if m.Registry.Has(c) {
			m.sendUnread(c, unread)
		}
	})
	return unread
}

// Deliver routes a stored message to everyone viewing the sender's conversation
// and bumps the recipient's unread counter if they are looking elsewhere.
func (m *ManagerService) Deliver(msg models.Message, sender Session) {
	if sender.State != StateJoined {
		return
	}
	payload, err := models.EncodeMessage(msg)
	if err != nil {
		log.Printf("ERROR: Failed to encode message %d: %v", msg.ID, err)
		return
	}

	m.exec(func() {
		m.route(sender.Username, sender.Partner, payload)

		if c, unread, ok := m.Unread.Increment(sender.Partner, sender.Username); ok {
			m.sendUnread(c, unread)
		}
	})
}

// OnlineUsers returns the current roster.
func (m *ManagerService) OnlineUsers() []string {
	users := []string{}
	m.exec(func() {
		users = Roster(m.Registry)
	})
	return users
}

// UnreadFor returns a snapshot of username's unread counters.
func (m *ManagerService) UnreadFor(username string) models.UnreadMap {
	unread := models.UnreadMap{}
	m.exec(func() {
		unread = m.Unread.Get(username)
	})
	return unread
}

// route sends payload to every connection joined to the conversation of
// sender and target. Without a target there is no conversation and nothing is sent.
func (m *ManagerService) route(sender, target string, payload []byte) {
	if sender == "" || target == "" {
		return
	}
	chatID := ConversationID(sender, target)
	for _, c := range m.Registry.conns {
		s, ok := m.Registry.sessions[c]
		if !ok {
			continue
		}
		if id, joined := s.ConversationID(); joined && id == chatID {
			m.send(c, payload)
		}
	}
}

// broadcastPresence pushes the roster to every connection, registered or not.
func (m *ManagerService) broadcastPresence() {
	payload, err := models.EncodeOnlineUsers(Roster(m.Registry))
	if err != nil {
		log.Printf("ERROR: Failed to encode online users: %v", err)
		return
	}
	for _, c := range m.Registry.conns {
		m.send(c, payload)
	}
}

func (m *ManagerService) sendUnread(c Client, unread models.UnreadMap) {
	payload, err := models.EncodeUnreadUpdate(unread)
	if err != nil {
		log.Printf("ERROR: Failed to encode unread update: %v", err)
		return
	}
	m.send(c, payload)
}

// send never blocks the loop: closed clients are skipped and a full buffer
// drops the frame.
func (m *ManagerService) send(c Client, payload []byte) {
	if !c.IsOpen() {
		return
	}
	select {
	case c.GetSendChannel() <- payload:
	default:
		log.Printf("WARNING: Send buffer full for connection %s, frame dropped.", c.GetConnID())
	}
}
