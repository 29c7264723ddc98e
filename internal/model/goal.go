package model

import "time"

// Goal belongs either to a user (personal, TeamID = 0) or to a team.
type Goal struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"not null;index" json:"user_id"`
	TeamID      uint      `gorm:"index" json:"team_id,omitempty"`
	Title       string    `gorm:"size:256;not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	Deadline    string    `gorm:"size:10" json:"deadline"`
	Completed   bool      `gorm:"not null;default:false" json:"completed"`
	CreatedAt   time.Time `json:"created_at"`
}
