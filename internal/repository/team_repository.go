package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"mindscribe/internal/model"
)

type TeamRepository struct {
	db *gorm.DB
}

func NewTeamRepository(db *gorm.DB) *TeamRepository {
	return &TeamRepository{db: db}
}

func (r *TeamRepository) Create(team *model.Team) error {
	if err := r.db.Create(team).Error; err != nil {
		return fmt.Errorf("create team failed: %w", err)
	}
	return nil
}

func (r *TeamRepository) GetByID(id uint) (*model.Team, error) {
	var team model.Team
	if err := r.db.First(&team, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get team failed: %w", err)
	}
	return &team, nil
}

func (r *TeamRepository) GetByInviteCode(code string) (*model.Team, error) {
	var team model.Team
	if err := r.db.Where("invite_code = ?", code).First(&team).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get team by invite code failed: %w", err)
	}
	return &team, nil
}

func (r *TeamRepository) ListByMemberUserID(userID uint) ([]model.Team, error) {
	var teams []model.Team
	err := r.db.Joins("JOIN team_members ON team_members.team_id = teams.id").
		Where("team_members.user_id = ?", userID).
		Order("teams.created_at DESC").Find(&teams).Error
	if err != nil {
		return nil, fmt.Errorf("list teams for user failed: %w", err)
	}
	return teams, nil
}
