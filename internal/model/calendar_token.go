package model

import "time"

// CalendarToken holds one user's Google OAuth credentials, upserted on every
// connect or refresh.
type CalendarToken struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"not null;uniqueIndex" json:"user_id"`
	AccessToken  string    `gorm:"size:2048;not null" json:"-"`
	RefreshToken string    `gorm:"size:512" json:"-"`
	Expiry       time.Time `json:"expiry"`
	UpdatedAt    time.Time `json:"updated_at"`
}
