package repository

import (
	"fmt"

	"gorm.io/gorm"

	"mindscribe/internal/model"
)

type TranscriptRepository struct {
	db *gorm.DB
}

func NewTranscriptRepository(db *gorm.DB) *TranscriptRepository {
	return &TranscriptRepository{db: db}
}

func (r *TranscriptRepository) Create(msg *model.TranscriptMessage) error {
	if err := r.db.Create(msg).Error; err != nil {
		return fmt.Errorf("create transcript message failed: %w", err)
	}
	return nil
}

func (r *TranscriptRepository) ListByUserID(userID uint, limit int) ([]model.TranscriptMessage, error) {
	if limit <= 0 || limit > 200 {
		limit = 100
	}

	// Newest window first, then reversed to chronological order, so the
	// store and the cache trim agree on which N messages a limit selects.
	var messages []model.TranscriptMessage
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").Limit(limit).Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("list transcript messages failed: %w", err)
	}
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}
