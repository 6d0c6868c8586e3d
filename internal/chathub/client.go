package chathub

import "context"

// Client is the interface for any type of connection (e.g., WebSocket).
// It abstracts the underlying communication mechanism, allowing the hub to manage
// connections uniformly. The hub uses a Client as a map key, so implementations
// must be comparable (pointer receivers).
type Client interface {
	// GetConnID returns the identifier of the connection, used in logs.
	GetConnID() string

	// GetSendChannel returns the channel to which the ManagerService (hub) sends
	// frames intended for this specific client. It is a send-only channel.
	GetSendChannel() chan<- []byte

	// IsOpen reports whether the transport can still accept frames.
	IsOpen() bool

	// Run starts the client's read and write pumps.
	Run()
	// Close shuts down the send channel. Only the hub calls it, once,
	// when the connection is removed.
	Close()
}

// EventHandler consumes what a Client reads from its transport.
type EventHandler interface {
	// HandleEvent processes one inbound frame.
	HandleEvent(ctx context.Context, c Client, raw []byte)
	// HandleClose is called once after the transport is gone.
	HandleClose(c Client)
}
