package chathub_test

import (
	"chatrelay/backend/internal/models"
	"context"
	"sync/atomic"
	"time"

	"github.com/stretchr/testify/mock"
)

// MockStorage is a testify/mock implementation of storage.Storage.
type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) FindMessages(ctx context.Context, chatID string) ([]models.Message, error) {
	args := m.Called(ctx, chatID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Message), args.Error(1)
}

// CreateMessage accepts either a fixed *models.Message or a func deriving the
// stored record from the input as its first return value.
func (m *MockStorage) CreateMessage(ctx context.Context, msg *models.Message) (*models.Message, error) {
	args := m.Called(ctx, msg)
	if fn, ok := args.Get(0).(func(*models.Message) *models.Message); ok {
		return fn(msg), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Message), args.Error(1)
}

func (m *MockStorage) PublishMessage(ctx context.Context, msg models.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

// echoStored behaves like the database: it assigns increasing IDs and a timestamp.
func echoStored() func(*models.Message) *models.Message {
	var nextID atomic.Uint32
	return func(in *models.Message) *models.Message {
		out := *in
		out.ID = uint(nextID.Add(1))
		out.CreatedAt = time.Now()
		return &out
	}
}
