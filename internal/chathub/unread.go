package chathub

import (
	"chatrelay/backend/internal/models"
	"maps"
)

// UnreadTracker counts, per recipient, the messages received from each sender
// while the recipient was online but looking at another conversation.
// Zero counts are never stored. Counters live in memory only.
// Like Registry, it is owned by the ManagerService loop.
type UnreadTracker struct {
	registry *Registry
	counts   map[string]models.UnreadMap
}

func NewUnreadTracker(r *Registry) *UnreadTracker {
	return &UnreadTracker{
		registry: r,
		counts:   make(map[string]models.UnreadMap),
	}
}

// Increment adds one unread message from sender to recipient's counters when
// the recipient is online and not viewing sender's conversation. It returns the
// connection to notify and the updated counters; ok is false when nothing changed.
func (u *UnreadTracker) Increment(recipient, sender string) (c Client, unread models.UnreadMap, ok bool) {
	c, s, online := u.registry.FindByUsername(recipient)
	if !online || s.IsViewing(sender) {
		return nil, nil, false
	}

	current, exists := u.counts[recipient]
	if !exists {
		current = make(models.UnreadMap)
		u.counts[recipient] = current
	}
	current[sender]++
	return c, u.Get(recipient), true
}

// Clear drops the counter for partner in username's map and returns the
// remaining counters. The result is returned even if nothing was removed.
func (u *UnreadTracker) Clear(username, partner string) models.UnreadMap {
	if current, ok := u.counts[username]; ok {
		delete(current, partner)
		if len(current) == 0 {
			delete(u.counts, username)
		}
	}
	return u.Get(username)
}

// Get returns a copy of username's counters, never nil.
func (u *UnreadTracker) Get(username string) models.UnreadMap {
	current, ok := u.counts[username]
	if !ok {
		return models.UnreadMap{}
	}
	return maps.Clone(current)
}
