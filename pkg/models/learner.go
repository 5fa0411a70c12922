package models

import (
	"fmt"
	"time"
)

// Learner represents a Telegram user studying with the bot
type Learner struct {
	ChatID              int64     `json:"chat_id" db:"chat_id"` // Telegram chat ID
	Username            string    `json:"username" db:"username"`
	FirstName           string    `json:"first_name" db:"first_name"`
	NotificationEnabled bool      `json:"notification_enabled" db:"notification_enabled"`
	CreatedAt           time.Time `json:"created_at" db:"created_at"`
}

// Namespace returns the storage namespace holding the learner's progress
func (l Learner) Namespace() string {
	return LearnerNamespace(l.ChatID)
}

// LearnerNamespace returns the storage namespace for a chat
func LearnerNamespace(chatID int64) string {
	return fmt.Sprintf("chat:%d", chatID)
}
