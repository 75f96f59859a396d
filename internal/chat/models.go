package chat

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// StringList is a string slice stored as a JSON blob.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		l = StringList{}
	}
	return json.Marshal(l)
}

func (l *StringList) Scan(src any) error {
	switch b := src.(type) {
	case []byte:
		return json.Unmarshal(b, l)
	case string:
		return json.Unmarshal([]byte(b), l)
	case nil:
		*l = nil
		return nil
	default:
		return errors.New("stringlist: unsupported scan type")
	}
}

// Entry is one confirmed question/answer exchange. Ascending id order is the
// history order clients address positionally, so rows are only ever appended
// or deleted, never reordered.
type Entry struct {
	ID        uint64     `gorm:"primaryKey;autoIncrement"`
	UserID    string     `gorm:"size:36;index;not null"`
	UserText  string     `gorm:"type:text;not null"`
	BotText   string     `gorm:"type:text;not null"`
	Sources   StringList `gorm:"type:text"`
	CreatedAt time.Time
}

func (Entry) TableName() string { return "chat_entries" }
