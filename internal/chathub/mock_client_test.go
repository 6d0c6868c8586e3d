package chathub_test

import (
	"chatrelay/backend/internal/chathub"
	"chatrelay/backend/internal/models"
	"context"
	"encoding/json"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

type MockClient struct {
	connID      string
	closed      atomic.Bool
	closeCalls  atomic.Int32
	RecvChannel chan []byte
}

func newMockClient(connID string) *MockClient {
	return &MockClient{
		connID:      connID,
		RecvChannel: make(chan []byte, 64),
	}
}

func (c *MockClient) GetConnID() string {
	return c.connID
}

func (c *MockClient) GetSendChannel() chan<- []byte {
	return c.RecvChannel
}

func (c *MockClient) IsOpen() bool {
	return !c.closed.Load()
}

func (c *MockClient) Run() {
	// Not needed for testing
}

// Close marks the client closed but keeps RecvChannel readable for assertions.
func (c *MockClient) Close() {
	c.closeCalls.Add(1)
	c.closed.Store(true)
}

// frame is an outbound envelope with its data left raw.
type frame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// drainFrames returns every frame queued for c so far.
func drainFrames(t *testing.T, c *MockClient) []frame {
	t.Helper()
	var frames []frame
	for {
		select {
		case raw := <-c.RecvChannel:
			var f frame
			require.NoError(t, json.Unmarshal(raw, &f), "frame must be valid JSON: %s", raw)
			frames = append(frames, f)
		default:
			return frames
		}
	}
}

func framesOfType(frames []frame, frameType string) []frame {
	var out []frame
	for _, f := range frames {
		if f.Type == frameType {
			out = append(out, f)
		}
	}
	return out
}

func decodeRoster(t *testing.T, f frame) []string {
	t.Helper()
	var users []string
	require.NoError(t, json.Unmarshal(f.Data, &users))
	return users
}

func decodeUnread(t *testing.T, f frame) models.UnreadMap {
	t.Helper()
	var unread models.UnreadMap
	require.NoError(t, json.Unmarshal(f.Data, &unread))
	return unread
}

func decodeMessage(t *testing.T, f frame) models.Message {
	t.Helper()
	var msg models.Message
	require.NoError(t, json.Unmarshal(f.Data, &msg))
	return msg
}

func decodeHistory(t *testing.T, f frame) []models.Message {
	t.Helper()
	var history []models.Message
	require.NoError(t, json.Unmarshal(f.Data, &history))
	return history
}

// startHub runs a hub for the duration of the test.
func startHub(t *testing.T) *chathub.ManagerService {
	t.Helper()
	hub := chathub.NewManagerService()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		hub.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return hub
}
