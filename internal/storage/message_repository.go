package storage

import (
	"context"

	"gorm.io/gorm"

	"reelchat/internal/models"
)

// MessageRepository 定义了房间消息数据操作的接口。
type MessageRepository interface {
	Create(ctx context.Context, message *models.RoomMessage) error
	// ListByRoom returns messages in send order.
	ListByRoom(ctx context.Context, roomID string, limit int, offset int) ([]models.RoomMessage, error)
}

type gormMessageRepository struct {
	db *gorm.DB
}

// NewGormMessageRepository 创建一个新的基于 GORM 的 MessageRepository。
func NewGormMessageRepository(db *gorm.DB) MessageRepository {
	return &gormMessageRepository{db: db}
}

// Create 在数据库中创建一条新的消息记录。
func (r *gormMessageRepository) Create(ctx context.Context, message *models.RoomMessage) error {
	return r.db.WithContext(ctx).Create(message).Error
}

func (r *gormMessageRepository) ListByRoom(ctx context.Context, roomID string, limit int, offset int) ([]models.RoomMessage, error) {
	var messages []models.RoomMessage
	query := r.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("created_at ASC").Order("id")

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	if err := query.Find(&messages).Error; err != nil {
		return nil, err
	}
	return messages, nil
}
