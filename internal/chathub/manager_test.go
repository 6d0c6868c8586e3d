package chathub_test

import (
	"chatrelay/backend/internal/chathub"
	"chatrelay/backend/internal/models"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_RegisterBroadcastsRosterToEveryConnection(t *testing.T) {
	hub := startHub(t)
	alice := newMockClient("alice")
	bob := newMockClient("bob")
	lurker := newMockClient("lurker")
	hub.Connect(alice)
	hub.Connect(bob)
	hub.Connect(lurker)

	hub.RegisterUser(alice, "alice")
	hub.RegisterUser(bob, "bob")

	for _, c := range []*MockClient{alice, bob, lurker} {
		rosters := framesOfType(drainFrames(t, c), models.TypeOnlineUsers)
		require.Len(t, rosters, 2, "client %s", c.GetConnID())
		assert.ElementsMatch(t, []string{"alice", "bob"}, decodeRoster(t, rosters[1]))
	}
	assert.ElementsMatch(t, []string{"alice", "bob"}, hub.OnlineUsers())
}

func TestManager_DuplicateUsernamesCollapse(t *testing.T) {
	hub := startHub(t)
	phone := newMockClient("phone")
	laptop := newMockClient("laptop")
	hub.Connect(phone)
	hub.Connect(laptop)

	hub.RegisterUser(phone, "alice")
	hub.RegisterUser(laptop, "alice")

	assert.Equal(t, []string{"alice"}, hub.OnlineUsers())
}

func TestManager_DisconnectRemovesFromRoster(t *testing.T) {
	hub := startHub(t)
	alice := newMockClient("alice")
	bob := newMockClient("bob")
	hub.Connect(alice)
	hub.Connect(bob)
	hub.RegisterUser(alice, "alice")
	hub.RegisterUser(bob, "bob")
	drainFrames(t, alice)

	hub.Disconnect(bob)

	rosters := framesOfType(drainFrames(t, alice), models.TypeOnlineUsers)
	require.Len(t, rosters, 1)
	assert.Equal(t, []string{"alice"}, decodeRoster(t, rosters[0]))
	assert.Equal(t, []string{"alice"}, hub.OnlineUsers())
	assert.EqualValues(t, 1, bob.closeCalls.Load())

	_, ok := hub.Lookup(bob)
	assert.False(t, ok)

	hub.Disconnect(bob)
	assert.EqualValues(t, 1, bob.closeCalls.Load(), "close happens once")
}

func TestManager_JoinBroadcastsOnlyWhenRosterChanges(t *testing.T) {
	hub := startHub(t)
	alice := newMockClient("alice")
	hub.Connect(alice)

	// Implicit register through join adds alice.
	hub.JoinChat(alice, "alice", "bob")
	assert.Len(t, framesOfType(drainFrames(t, alice), models.TypeOnlineUsers), 1)

	// Switching partner leaves the roster as is.
	s := hub.JoinChat(alice, "alice", "carol")
	assert.Equal(t, chathub.JoinedSession("alice", "carol"), s)
	assert.Empty(t, framesOfType(drainFrames(t, alice), models.TypeOnlineUsers))
}

func TestManager_SkipsClosedClients(t *testing.T) {
	hub := startHub(t)
	alice := newMockClient("alice")
	stale := newMockClient("stale")
	hub.Connect(alice)
	hub.Connect(stale)
	stale.closed.Store(true)

	hub.RegisterUser(alice, "alice")

	assert.Empty(t, drainFrames(t, stale))
	assert.Len(t, drainFrames(t, alice), 1)
}

func TestManager_FullBufferDoesNotBlock(t *testing.T) {
	hub := startHub(t)
	slow := &MockClient{connID: "slow", RecvChannel: make(chan []byte)} // never read
	alice := newMockClient("alice")
	hub.Connect(slow)
	hub.Connect(alice)

	done := make(chan struct{})
	go func() {
		hub.RegisterUser(alice, "alice")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("broadcast blocked on a slow client")
	}
	assert.Len(t, drainFrames(t, alice), 1)
}

func TestManager_SendToUnknownConnectionIsDropped(t *testing.T) {
	hub := startHub(t)
	ghost := newMockClient("ghost")

	hub.SendTo(ghost, []byte(`{"type":"history","data":[]}`))

	assert.Empty(t, drainFrames(t, ghost))
}

func TestManager_DeliverRoutesAndCountsUnread(t *testing.T) {
	hub := startHub(t)
	alice := newMockClient("alice")
	bob := newMockClient("bob")
	hub.Connect(alice)
	hub.Connect(bob)
	sender := hub.JoinChat(alice, "alice", "bob")
	hub.JoinChat(bob, "bob", "carol")
	drainFrames(t, alice)
	drainFrames(t, bob)

	msg := models.Message{ID: 1, ChatID: chathub.ConversationID("alice", "bob"), User: "alice", Text: "hi"}
	hub.Deliver(msg, sender)

	aliceFrames := drainFrames(t, alice)
	require.Len(t, framesOfType(aliceFrames, models.TypeMessage), 1)
	assert.Equal(t, "hi", decodeMessage(t, aliceFrames[0]).Text)

	bobFrames := drainFrames(t, bob)
	assert.Empty(t, framesOfType(bobFrames, models.TypeMessage))
	updates := framesOfType(bobFrames, models.TypeUnreadUpdate)
	require.Len(t, updates, 1)
	assert.Equal(t, models.UnreadMap{"alice": 1}, decodeUnread(t, updates[0]))
	assert.Equal(t, models.UnreadMap{"alice": 1}, hub.UnreadFor("bob"))
}

func TestManager_DeliverFromUnjoinedSenderIsNoop(t *testing.T) {
	hub := startHub(t)
	bob := newMockClient("bob")
	hub.Connect(bob)
	hub.RegisterUser(bob, "bob")
	drainFrames(t, bob)

	hub.Deliver(models.Message{Text: "hi"}, chathub.RegisteredSession("alice"))

	assert.Empty(t, drainFrames(t, bob))
	assert.Empty(t, hub.UnreadFor("bob"))
}

func TestManager_CallsAfterStopReturn(t *testing.T) {
	hub := chathub.NewManagerService()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()
	cancel()
	<-done

	c := newMockClient("late")
	hub.Connect(c)
	hub.RegisterUser(c, "late")
	_, ok := hub.Lookup(c)
	assert.False(t, ok)
	assert.Empty(t, hub.OnlineUsers())
}
