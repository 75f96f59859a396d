package library

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) CreateFile(ctx context.Context, f *File) error {
	return r.db.WithContext(ctx).Create(f).Error
}

// ListFiles returns the user's files in upload order.
func (r *Repo) ListFiles(ctx context.Context, userID string) ([]File, error) {
	var files []File
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC, id ASC").
		Find(&files).Error; err != nil {
		return nil, err
	}
	return files, nil
}

func (r *Repo) GetFile(ctx context.Context, userID, fileID string) (*File, error) {
	var f File
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND id = ?", userID, fileID).
		First(&f).Error; err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *Repo) DeleteFile(ctx context.Context, userID, fileID string) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND id = ?", userID, fileID).
		Delete(&File{}).Error
}

func (r *Repo) CountFiles(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&File{}).
		Where("user_id = ?", userID).
		Count(&n).Error
	return n, err
}

// ReplaceChunks swaps the user's knowledge base atomically: the old chunks
// disappear and the new ones appear in one transaction.
func (r *Repo) ReplaceChunks(ctx context.Context, userID string, chunks []Chunk) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&Chunk{}).Error; err != nil {
			return err
		}
		if len(chunks) == 0 {
			return nil
		}
		return tx.Create(&chunks).Error
	})
}

func (r *Repo) DeleteChunks(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&Chunk{}).Error
}

func (r *Repo) CountChunks(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&Chunk{}).
		Where("user_id = ?", userID).
		Count(&n).Error
	return n, err
}

func (r *Repo) ListChunks(ctx context.Context, userID string) ([]Chunk, error) {
	var chunks []Chunk
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id ASC").
		Find(&chunks).Error; err != nil {
		return nil, err
	}
	return chunks, nil
}

// Job CRUD

func (r *Repo) CreateJob(ctx context.Context, job *Job) error {
	return r.db.WithContext(ctx).Create(job).Error
}

func (r *Repo) GetJobByID(ctx context.Context, id string) (*Job, error) {
	var j Job
	if err := r.db.WithContext(ctx).First(&j, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &j, nil
}

func (r *Repo) UpdateJobStatusRunning(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&Job{}).
		Where("id = ? AND status = ?", id, JobQueued).
		Update("status", JobRunning).Error
}

func (r *Repo) MarkJobSucceeded(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&Job{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status": JobSucceeded,
			"error":  nil,
		}).Error
}

func (r *Repo) MarkJobFailed(ctx context.Context, id string, errMsg string) error {
	return r.db.WithContext(ctx).Model(&Job{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status": JobFailed,
			"error":  errMsg,
		}).Error
}

func (r *Repo) GetJobByUserAndIdempotencyKey(ctx context.Context, userID, key string) (*Job, error) {
	var j Job
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND idempotency_key = ?", userID, key).
		First(&j).Error; err != nil {
		return nil, err
	}
	return &j, nil
}

// CreateJobOrGetExisting tries to create a job, but if (user_id, idempotency_key)
// already exists it returns the existing job instead.
func (r *Repo) CreateJobOrGetExisting(ctx context.Context, job *Job) (*Job, bool, error) {
	if job.IdempotencyKey == nil || *job.IdempotencyKey == "" {
		job.IdempotencyKey = nil
		if err := r.db.WithContext(ctx).Create(job).Error; err != nil {
			return nil, false, err
		}
		return job, true, nil
	}

	err := r.db.WithContext(ctx).Create(job).Error
	if err == nil {
		return job, true, nil
	}

	existing, getErr := r.GetJobByUserAndIdempotencyKey(ctx, job.UserID, *job.IdempotencyKey)
	if getErr == nil {
		return existing, false, nil
	}
	if errors.Is(getErr, gorm.ErrRecordNotFound) {
		return nil, false, err
	}
	return nil, false, getErr
}
