package library

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

type File struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	UserID    string    `gorm:"size:36;index;not null" json:"-"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Path      string    `gorm:"type:varchar(512);not null" json:"-"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"uploaded_at"`
}

func (File) TableName() string { return "files" }

// Vector is a float slice stored as a JSON blob.
type Vector []float64

func (v Vector) Value() (driver.Value, error) {
	return json.Marshal(v)
}

func (v *Vector) Scan(src any) error {
	switch b := src.(type) {
	case []byte:
		return json.Unmarshal(b, v)
	case string:
		return json.Unmarshal([]byte(b), v)
	case nil:
		*v = nil
		return nil
	default:
		return errors.New("vector: unsupported scan type")
	}
}

// Chunk is one embedded slice of a processed document. A user has chunks if
// and only if their knowledge base has been processed and is queryable.
type Chunk struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	UserID    string    `gorm:"size:36;index;not null"`
	FileID    string    `gorm:"size:36;index;not null"`
	Source    string    `gorm:"type:varchar(255);not null"`
	Content   string    `gorm:"type:text;not null"`
	Embedding Vector    `gorm:"type:text;not null"`
	CreatedAt time.Time
}

func (Chunk) TableName() string { return "kb_chunks" }

type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobSucceeded JobStatus = "succeeded"
	JobFailed    JobStatus = "failed"
)

// Job is an async processing request handled by cmd/worker.
type Job struct {
	ID     string `gorm:"primaryKey;size:26"` // ULID length
	UserID string `gorm:"size:36;index;not null"`

	IdempotencyKey *string `gorm:"type:varchar(128);index:uniq_user_idempo,unique"`

	Status JobStatus `gorm:"type:varchar(16);index;not null"`

	// Filled when failed
	Error *string `gorm:"type:text"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Job) TableName() string { return "process_jobs" }
