package database

import (
	"fmt"

	"github.com/example/psychstudy/pkg/models"
	"github.com/jmoiron/sqlx"
)

// LearnerRepository handles database operations for bot learners
type LearnerRepository struct {
	db *sqlx.DB
}

// NewLearnerRepository creates a new repository instance
func NewLearnerRepository(db *sqlx.DB) *LearnerRepository {
	return &LearnerRepository{db: db}
}

// Register inserts a learner, or refreshes the name of an existing one
func (r *LearnerRepository) Register(learner *models.Learner) error {
	query := r.db.Rebind(`
		INSERT INTO learners (chat_id, username, first_name, notification_enabled)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (chat_id) DO UPDATE SET
			username = excluded.username,
			first_name = excluded.first_name
	`)
	_, err := r.db.Exec(query, learner.ChatID, learner.Username, learner.FirstName, learner.NotificationEnabled)
	if err != nil {
		return fmt.Errorf("failed to register learner %d: %w", learner.ChatID, err)
	}
	return nil
}

// GetByChatID returns a learner by chat ID
func (r *LearnerRepository) GetByChatID(chatID int64) (*models.Learner, error) {
	var learner models.Learner
	query := r.db.Rebind(`SELECT chat_id, username, first_name, notification_enabled, created_at FROM learners WHERE chat_id = ?`)
	if err := r.db.Get(&learner, query, chatID); err != nil {
		return nil, fmt.Errorf("failed to get learner %d: %w", chatID, err)
	}
	return &learner, nil
}

// GetForNotification returns the learners who accept reminders
func (r *LearnerRepository) GetForNotification() ([]models.Learner, error) {
	var learners []models.Learner
	query := `SELECT chat_id, username, first_name, notification_enabled, created_at
		FROM learners WHERE notification_enabled = TRUE ORDER BY chat_id`
	if err := r.db.Select(&learners, query); err != nil {
		return nil, fmt.Errorf("failed to get learners for notification: %w", err)
	}
	return learners, nil
}

// SetNotifications turns reminders on or off for a learner
func (r *LearnerRepository) SetNotifications(chatID int64, enabled bool) error {
	query := r.db.Rebind(`UPDATE learners SET notification_enabled = ? WHERE chat_id = ?`)
	result, err := r.db.Exec(query, enabled, chatID)
	if err != nil {
		return fmt.Errorf("failed to update notifications: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("learner %d not found", chatID)
	}
	return nil
}
