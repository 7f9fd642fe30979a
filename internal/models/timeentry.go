package models

import "time"

// TimeEntry tracks worked time. An entry with End == nil is running; the
// service layer guarantees at most one running entry per owner by stopping
// the previous one inside the same transaction that starts a new one.
type TimeEntry struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	UserID          uint       `gorm:"not null;index" json:"user_id"`
	ProjectID       *uint      `gorm:"index" json:"project_id"` // optionnel
	Description     string     `json:"description"`
	Start           time.Time  `gorm:"column:start_time;not null" json:"start"`
	End             *time.Time `gorm:"column:end_time" json:"end"` // "end" is an SQL keyword
	DurationSeconds int64      `json:"duration_seconds"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func (t TimeEntry) GetUserID() uint { return t.UserID }

// Running reports whether the entry is still being tracked.
func (t TimeEntry) Running() bool { return t.End == nil }
