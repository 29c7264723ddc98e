package model

import "time"

// TranscriptMessage is one side of a chat turn, persisted asynchronously by
// the transcript worker.
type TranscriptMessage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	TeamID    uint      `gorm:"index" json:"team_id,omitempty"`
	Role      string    `gorm:"size:16;not null" json:"role"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
