package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"mindscribe/internal/model"
)

type EntryRepository struct {
	db *gorm.DB
}

func NewEntryRepository(db *gorm.DB) *EntryRepository {
	return &EntryRepository{db: db}
}

// Upsert inserts the entry or, when a row for the same user and date exists,
// replaces its content and embedding.
func (r *EntryRepository) Upsert(entry *model.Entry) error {
	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"content", "embedding"}),
	}).Create(entry).Error
	if err != nil {
		return fmt.Errorf("upsert entry failed: %w", err)
	}
	return nil
}

func (r *EntryRepository) GetByUserIDAndDate(userID uint, date string) (*model.Entry, error) {
	var entry model.Entry
	if err := r.db.Where("user_id = ? AND date = ?", userID, date).First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get entry failed: %w", err)
	}
	return &entry, nil
}

func (r *EntryRepository) ListByUserID(userID uint) ([]model.Entry, error) {
	var entries []model.Entry
	if err := r.db.Where("user_id = ?", userID).Order("date ASC").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("list entries failed: %w", err)
	}
	return entries, nil
}

func (r *EntryRepository) ListByUserIDAndRange(userID uint, startDate, endDate string) ([]model.Entry, error) {
	var entries []model.Entry
	err := r.db.Where("user_id = ? AND date >= ? AND date <= ?", userID, startDate, endDate).
		Order("date ASC").Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("list entries by range failed: %w", err)
	}
	return entries, nil
}

// ListByUserIDs returns all entries for the given users, used for the team
// search variant where the candidate set spans every member.
func (r *EntryRepository) ListByUserIDs(userIDs []uint) ([]model.Entry, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	var entries []model.Entry
	if err := r.db.Where("user_id IN ?", userIDs).Order("date ASC").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("list entries by users failed: %w", err)
	}
	return entries, nil
}

// DeleteByUserIDAndDate removes the entry and reports whether a row existed.
func (r *EntryRepository) DeleteByUserIDAndDate(userID uint, date string) (bool, error) {
	res := r.db.Where("user_id = ? AND date = ?", userID, date).Delete(&model.Entry{})
	if res.Error != nil {
		return false, fmt.Errorf("delete entry failed: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}
