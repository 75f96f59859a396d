package chat

import (
	"context"

	"gorm.io/gorm"
)

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) InsertEntry(ctx context.Context, e *Entry) error {
	return r.db.WithContext(ctx).Create(e).Error
}

// ListEntries returns the user's full history in ASC id order (oldest first).
func (r *Repo) ListEntries(ctx context.Context, userID string) ([]Entry, error) {
	var entries []Entry
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// ListRecentEntriesDesc returns the most recent entries, newest first.
func (r *Repo) ListRecentEntriesDesc(ctx context.Context, userID string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 5
	}
	var entries []Entry
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id DESC").
		Limit(limit).
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *Repo) CountEntries(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&Entry{}).
		Where("user_id = ?", userID).
		Count(&n).Error
	return n, err
}

// DeleteAt removes the entry at the given position in ASC id order. Returns
// gorm.ErrRecordNotFound when the index is out of range.
func (r *Repo) DeleteAt(ctx context.Context, userID string, index int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var e Entry
		if err := tx.
			Where("user_id = ?", userID).
			Order("id ASC").
			Offset(index).
			First(&e).Error; err != nil {
			return err
		}
		return tx.Delete(&e).Error
	})
}

func (r *Repo) Clear(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&Entry{}).Error
}
