package storage

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"reelchat/internal/models"
)

// RoomRepository 定义了直接消息房间的数据操作接口。
type RoomRepository interface {
	// GetOrCreate inserts room if its id is free and returns the stored
	// record either way. created reports whether this call wrote it.
	GetOrCreate(ctx context.Context, room *models.Room) (stored *models.Room, created bool, err error)
	// FindByID returns nil, nil when the room does not exist.
	FindByID(ctx context.Context, id string) (*models.Room, error)
	ListForUser(ctx context.Context, userID string) ([]models.Room, error)
}

type gormRoomRepository struct {
	db *gorm.DB
}

// NewGormRoomRepository 创建一个新的基于 GORM 的 RoomRepository。
func NewGormRoomRepository(db *gorm.DB) RoomRepository {
	return &gormRoomRepository{db: db}
}

func (r *gormRoomRepository) GetOrCreate(ctx context.Context, room *models.Room) (*models.Room, bool, error) {
	// The insert is create-if-absent on the primary key: concurrent callers
	// for the same pair all end up reading the one row that won.
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(room)
	if res.Error != nil {
		return nil, false, fmt.Errorf("create room %s: %w", room.ID, res.Error)
	}

	stored, err := r.FindByID(ctx, room.ID)
	if err != nil {
		return nil, false, err
	}
	if stored == nil {
		return nil, false, fmt.Errorf("room %s vanished after create", room.ID)
	}
	return stored, res.RowsAffected == 1, nil
}

func (r *gormRoomRepository) FindByID(ctx context.Context, id string) (*models.Room, error) {
	var room models.Room
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&room).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &room, nil
}

// ListForUser returns the rooms userID takes part in, newest first.
func (r *gormRoomRepository) ListForUser(ctx context.Context, userID string) ([]models.Room, error) {
	var rooms []models.Room
	err := r.db.WithContext(ctx).
		Where("low_id = ? OR high_id = ?", userID, userID).
		Order("created_at DESC").Order("id").
		Find(&rooms).Error
	return rooms, err
}
