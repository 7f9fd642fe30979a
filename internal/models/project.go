package models

import "time"

// Project statuses. Set manually by the owner, there is no transition logic.
const (
	ProjectStatusPlanning  = "planning"
	ProjectStatusActive    = "active"
	ProjectStatusDone      = "done"
	ProjectStatusSuspended = "suspended"
)

type Project struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	UserID         uint       `gorm:"not null;index" json:"user_id"`
	ClientID       *uint      `gorm:"index" json:"client_id"` // optionnel
	Name           string     `gorm:"not null" json:"name"`
	Status         string     `gorm:"not null;default:'planning'" json:"status"`
	HourlyRate     float64    `json:"hourly_rate"`
	EstimatedHours float64    `json:"estimated_hours"`
	Deadline       *time.Time `json:"deadline"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (p Project) GetUserID() uint { return p.UserID }

// ValidProjectStatus reports whether s is one of the known project statuses.
func ValidProjectStatus(s string) bool {
	switch s {
	case ProjectStatusPlanning, ProjectStatusActive, ProjectStatusDone, ProjectStatusSuspended:
		return true
	}
	return false
}
