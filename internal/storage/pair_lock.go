package storage

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"reelchat/internal/models"
)

// LockPair serializes all request and friendship changes for the unordered
// pair (a, b). tx must be an open transaction; the lock is held until it
// commits or rolls back.
//
// The lock row is created on first use. sqlite has no row locks, but it
// only ever runs one write transaction at a time.
func LockPair(ctx context.Context, tx *gorm.DB, a, b string) error {
	key, err := models.DirectRoomID(a, b)
	if err != nil {
		return err
	}

	lock := models.PairLock{PairKey: key}
	if err := tx.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&lock).Error; err != nil {
		return fmt.Errorf("create pair lock %s: %w", key, err)
	}
	if err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("pair_key = ?", key).
		First(&lock).Error; err != nil {
		return fmt.Errorf("lock pair %s: %w", key, err)
	}
	return nil
}
