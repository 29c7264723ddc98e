package repository

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"mindscribe/internal/model"
)

type GoalRepository struct {
	db *gorm.DB
}

func NewGoalRepository(db *gorm.DB) *GoalRepository {
	return &GoalRepository{db: db}
}

func (r *GoalRepository) Create(goal *model.Goal) error {
	if err := r.db.Create(goal).Error; err != nil {
		return fmt.Errorf("create goal failed: %w", err)
	}
	return nil
}

func (r *GoalRepository) GetByID(id uint) (*model.Goal, error) {
	var goal model.Goal
	if err := r.db.First(&goal, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get goal failed: %w", err)
	}
	return &goal, nil
}

// ListByUserID returns the user's personal goals (team goals excluded).
func (r *GoalRepository) ListByUserID(userID uint) ([]model.Goal, error) {
	var goals []model.Goal
	err := r.db.Where("user_id = ? AND team_id = 0", userID).
		Order("created_at DESC").Find(&goals).Error
	if err != nil {
		return nil, fmt.Errorf("list goals failed: %w", err)
	}
	return goals, nil
}

func (r *GoalRepository) ListByTeamID(teamID uint) ([]model.Goal, error) {
	var goals []model.Goal
	if err := r.db.Where("team_id = ?", teamID).Order("created_at DESC").Find(&goals).Error; err != nil {
		return nil, fmt.Errorf("list team goals failed: %w", err)
	}
	return goals, nil
}

func (r *GoalRepository) SetCompleted(id uint, completed bool) error {
	if err := r.db.Model(&model.Goal{}).Where("id = ?", id).Update("completed", completed).Error; err != nil {
		return fmt.Errorf("update goal completion failed: %w", err)
	}
	return nil
}

func (r *GoalRepository) Delete(id uint) error {
	if err := r.db.Delete(&model.Goal{}, id).Error; err != nil {
		return fmt.Errorf("delete goal failed: %w", err)
	}
	return nil
}

// ListDueBefore returns incomplete goals whose deadline falls on or before the
// given day. Deadlines are stored as YYYY-MM-DD strings so lexicographic
// comparison matches date order.
func (r *GoalRepository) ListDueBefore(day time.Time) ([]model.Goal, error) {
	var goals []model.Goal
	err := r.db.Where("completed = ? AND deadline <> '' AND deadline <= ?", false, day.Format("2006-01-02")).
		Find(&goals).Error
	if err != nil {
		return nil, fmt.Errorf("list due goals failed: %w", err)
	}
	return goals, nil
}
