package model

import "time"

const (
	RoleLead   = "lead"
	RoleMember = "member"
)

type Team struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	OwnerID    uint      `gorm:"not null;index" json:"owner_id"`
	Name       string    `gorm:"size:128;not null" json:"name"`
	InviteCode string    `gorm:"size:6;not null;uniqueIndex" json:"invite_code,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type TeamMember struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	TeamID   uint      `gorm:"not null;index:idx_team_user,unique" json:"team_id"`
	UserID   uint      `gorm:"not null;index:idx_team_user,unique" json:"user_id"`
	Role     string    `gorm:"size:16;not null" json:"role"`
	JoinedAt time.Time `gorm:"autoCreateTime" json:"joined_at"`
}
