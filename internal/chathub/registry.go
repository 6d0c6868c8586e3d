package chathub

// Registry maps live connections to their sessions.
// It is not safe for concurrent use; the ManagerService loop owns it.
type Registry struct {
	// conns keeps insertion order so lookups by username are deterministic.
	conns    []Client
	attached map[Client]struct{}
	sessions map[Client]Session
}

func NewRegistry() *Registry {
	return &Registry{
		attached: make(map[Client]struct{}),
		sessions: make(map[Client]Session),
	}
}

// Attach adds a connection without a session.
func (r *Registry) Attach(c Client) {
	if _, ok := r.attached[c]; ok {
		return
	}
	r.attached[c] = struct{}{}
	r.conns = append(r.conns, c)
}

// Has reports whether the connection is still tracked.
func (r *Registry) Has(c Client) bool {
	_, ok := r.attached[c]
	return ok
}

// Register creates or replaces the session of c with an unjoined one.
func (r *Registry) Register(c Client, username string) Session {
	r.Attach(c)
	s := RegisteredSession(username)
	r.sessions[c] = s
	return s
}

// Join creates or replaces the session of c with one viewing target.
// A connection that never registered is registered implicitly.
func (r *Registry) Join(c Client, username, target string) Session {
	r.Attach(c)
	s := JoinedSession(username, target)
	r.sessions[c] = s
	return s
}

// Lookup returns the session of c. ok is false for unbound or unknown connections.
func (r *Registry) Lookup(c Client) (Session, bool) {
	s, ok := r.sessions[c]
	return s, ok
}

// FindByUsername returns the first connection, in attach order, whose session
// carries username.
func (r *Registry) FindByUsername(username string) (Client, Session, bool) {
	for _, c := range r.conns {
		if s, ok := r.sessions[c]; ok && s.Username == username {
			return c, s, true
		}
	}
	return nil, Session{}, false
}

// Remove forgets the connection and its session. It reports whether c was tracked.
func (r *Registry) Remove(c Client) bool {
	if _, ok := r.attached[c]; !ok {
		return false
	}
	delete(r.attached, c)
	delete(r.sessions, c)
	for i, existing := range r.conns {
		if existing == c {
			r.conns = append(r.conns[:i], r.conns[i+1:]...)
			break
		}
	}
	return true
}

// Connections returns every tracked connection in attach order.
func (r *Registry) Connections() []Client {
	out := make([]Client, len(r.conns))
	copy(out, r.conns)
	return out
}

// Len returns the number of tracked connections.
func (r *Registry) Len() int {
	return len(r.conns)
}
