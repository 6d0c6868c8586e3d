package storage

import (
	"chatrelay/backend/internal/models"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// PublishChannelPrefix prefixes the Redis channel a stored message is published on.
const PublishChannelPrefix = "chat:"

// Storage is the persistence collaborator used by the relay.
type Storage interface {
	// FindMessages returns the history of a conversation, oldest first.
	FindMessages(ctx context.Context, chatID string) ([]models.Message, error)
	// CreateMessage stores msg and returns it with ID and CreatedAt filled in.
	CreateMessage(ctx context.Context, msg *models.Message) (*models.Message, error)
	// PublishMessage announces a stored message to other processes.
	PublishMessage(ctx context.Context, msg models.Message) error
}

type Service struct {
	DB    *gorm.DB
	Redis *redis.Client
}

// NewStorageService Constructor. rdb may be nil, publishing is then disabled.
func NewStorageService(db *gorm.DB, rdb *redis.Client) *Service {
	return &Service{
		DB:    db,
		Redis: rdb,
	}
}

// Migrate creates or updates the tables used by the relay.
func (s *Service) Migrate() error {
	return s.DB.AutoMigrate(&models.Message{})
}

// FindMessages loads the history of chatID sorted by creation time.
func (s *Service) FindMessages(ctx context.Context, chatID string) ([]models.Message, error) {
	var messages []models.Message
	err := s.DB.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("created_at asc").
		Order("id asc").
		Find(&messages).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return []models.Message{}, nil
		}
		log.Printf("ERROR: Failed to get history for chat %s: %v", chatID, err)
		return nil, err
	}
	return messages, nil
}

// CreateMessage inserts msg. GORM fills ID and CreatedAt on the same struct.
func (s *Service) CreateMessage(ctx context.Context, msg *models.Message) (*models.Message, error) {
	if msg == nil {
		return nil, errors.New("nil message")
	}
	stored := models.Message{
		ChatID: msg.ChatID,
		User:   msg.User,
		Text:   msg.Text,
	}
	if err := s.DB.WithContext(ctx).Create(&stored).Error; err != nil {
		log.Printf("ERROR: Failed to save message for chat %s: %v", msg.ChatID, err)
		return nil, fmt.Errorf("create message: %w", err)
	}
	return &stored, nil
}

// PublishMessage публікує повідомлення в Redis Pub/Sub
func (s *Service) PublishMessage(ctx context.Context, msg models.Message) error {
	if s.Redis == nil {
		return nil
	}
	msgBytes, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return s.Redis.Publish(ctx, PublishChannelPrefix+msg.ChatID, string(msgBytes)).Err()
}

// SubscribeToAllChats listens on every chat channel. Used by tooling that
// mirrors the live stream of stored messages.
func (s *Service) SubscribeToAllChats(ctx context.Context) *redis.PubSub {
	return s.Redis.PSubscribe(ctx, PublishChannelPrefix+"*")
}

// CountMessages returns how many messages a conversation holds.
func (s *Service) CountMessages(ctx context.Context, chatID string) (int64, error) {
	var n int64
	err := s.DB.WithContext(ctx).Model(&models.Message{}).Where("chat_id = ?", chatID).Count(&n).Error
	return n, err
}
