package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/ldelattre/microgest/internal/apperr"
	"github.com/ldelattre/microgest/internal/models"
)

// TimeService owns the running-timer invariant: at most one running entry
// per user, enforced transactionally rather than by client-side convention.
type TimeService struct{ DB *gorm.DB }

func NewTimeService(db *gorm.DB) *TimeService { return &TimeService{DB: db} }

// Start stops any running entry and opens a new one in a single transaction.
func (s *TimeService) Start(userID uint, projectID *uint, description string, now time.Time) (*models.TimeEntry, error) {
	entry := models.TimeEntry{UserID: userID, ProjectID: projectID, Description: description, Start: now}
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var running []models.TimeEntry
		if err := tx.Where("user_id = ? AND end_time IS NULL", userID).Find(&running).Error; err != nil {
			return err
		}
		for i := range running {
			stopAt := now
			running[i].End = &stopAt
			running[i].DurationSeconds = int64(stopAt.Sub(running[i].Start).Seconds())
			if err := tx.Save(&running[i]).Error; err != nil {
				return err
			}
		}
		return tx.Create(&entry).Error
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// Stop closes the given entry and records its duration.
func (s *TimeService) Stop(userID, entryID uint, now time.Time) (*models.TimeEntry, error) {
	var entry models.TimeEntry
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&entry, entryID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("time_entry", entryID)
			}
			return err
		}
		if entry.UserID != userID {
			return apperr.Permission("time_entry", entryID)
		}
		if entry.End != nil {
			return apperr.Validation(map[string]string{"end": "already_stopped"})
		}
		stopAt := now
		entry.End = &stopAt
		entry.DurationSeconds = int64(stopAt.Sub(entry.Start).Seconds())
		return tx.Save(&entry).Error
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// Running returns the user's running entry, or nil when the timer is idle.
func (s *TimeService) Running(userID uint) (*models.TimeEntry, error) {
	var entry models.TimeEntry
	err := s.DB.Where("user_id = ? AND end_time IS NULL", userID).Order("start_time desc").First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}
