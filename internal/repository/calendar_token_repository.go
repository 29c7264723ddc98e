package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"mindscribe/internal/model"
)

type CalendarTokenRepository struct {
	db *gorm.DB
}

func NewCalendarTokenRepository(db *gorm.DB) *CalendarTokenRepository {
	return &CalendarTokenRepository{db: db}
}

// Upsert writes the user's token row, replacing credentials on conflict. The
// refresh token is only overwritten when the new value is non-empty, since
// Google omits it on re-consent.
func (r *CalendarTokenRepository) Upsert(token *model.CalendarToken) error {
	assignments := []string{"access_token", "expiry", "updated_at"}
	if token.RefreshToken != "" {
		assignments = append(assignments, "refresh_token")
	}
	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns(assignments),
	}).Create(token).Error
	if err != nil {
		return fmt.Errorf("upsert calendar token failed: %w", err)
	}
	return nil
}

func (r *CalendarTokenRepository) GetByUserID(userID uint) (*model.CalendarToken, error) {
	var token model.CalendarToken
	if err := r.db.Where("user_id = ?", userID).First(&token).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get calendar token failed: %w", err)
	}
	return &token, nil
}
