package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"mindscribe/internal/model"
)

type TeamMemberRepository struct {
	db *gorm.DB
}

func NewTeamMemberRepository(db *gorm.DB) *TeamMemberRepository {
	return &TeamMemberRepository{db: db}
}

func (r *TeamMemberRepository) Create(member *model.TeamMember) error {
	if err := r.db.Create(member).Error; err != nil {
		return fmt.Errorf("create team member failed: %w", err)
	}
	return nil
}

func (r *TeamMemberRepository) Get(teamID, userID uint) (*model.TeamMember, error) {
	var member model.TeamMember
	if err := r.db.Where("team_id = ? AND user_id = ?", teamID, userID).First(&member).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get team member failed: %w", err)
	}
	return &member, nil
}

func (r *TeamMemberRepository) ListByTeamID(teamID uint) ([]model.TeamMember, error) {
	var members []model.TeamMember
	if err := r.db.Where("team_id = ?", teamID).Order("joined_at ASC").Find(&members).Error; err != nil {
		return nil, fmt.Errorf("list team members failed: %w", err)
	}
	return members, nil
}

func (r *TeamMemberRepository) Delete(teamID, userID uint) error {
	if err := r.db.Where("team_id = ? AND user_id = ?", teamID, userID).Delete(&model.TeamMember{}).Error; err != nil {
		return fmt.Errorf("delete team member failed: %w", err)
	}
	return nil
}
