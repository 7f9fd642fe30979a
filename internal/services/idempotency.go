package services

import (
	"errors"

	"gorm.io/gorm"

	"github.com/ldelattre/microgest/internal/models"
)

// FindIdempotent looks up a prior create for (owner, key). A hit returns the
// entity id created the first time; the caller replays that record instead
// of inserting a duplicate (double-click, client retry).
func FindIdempotent(db *gorm.DB, userID uint, key, entity string) (uint, bool, error) {
	if key == "" {
		return 0, false, nil
	}
	var rec models.IdempotencyRecord
	err := db.Where("user_id = ? AND key = ? AND entity = ?", userID, key, entity).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return rec.EntityID, true, nil
}

// RecordIdempotent stores the key→entity mapping inside the create
// transaction, so the record and its key commit or roll back together.
func RecordIdempotent(tx *gorm.DB, userID uint, key, entity string, entityID uint) error {
	if key == "" {
		return nil
	}
	return tx.Create(&models.IdempotencyRecord{UserID: userID, Key: key, Entity: entity, EntityID: entityID}).Error
}
