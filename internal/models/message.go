package models

import "time"

// Message is a chat line stored in the database.
// ID and CreatedAt are assigned by GORM on insert and echoed back to clients,
// so a stored Message is the confirmation object the relay routes.
type Message struct {
	// ID is the primary key assigned by the database.
	ID uint `gorm:"primaryKey" json:"id"`
	// ChatID is the conversation identifier shared by both participants.
	ChatID string `gorm:"type:text;not null;index:idx_chat_created" json:"chatId"`
	// User is the username of the sender.
	User string `gorm:"type:text;not null" json:"user"`
	// Text is the message body.
	Text string `gorm:"type:text;not null" json:"text"`
	// CreatedAt orders the history of a conversation.
	CreatedAt time.Time `gorm:"index:idx_chat_created" json:"createdAt"`
}
