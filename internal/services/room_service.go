package services

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"reelchat/internal/imtypes"
	"reelchat/internal/models"
	"reelchat/internal/storage"
)

const maxMessagePage = 200

// RoomService 定义了直接消息房间相关服务的接口。
type RoomService interface {
	// GetOrCreateRoom returns the pair's room, creating it on first use.
	// Concurrent callers for the same pair get the same record.
	GetOrCreateRoom(ctx context.Context, a, b models.UserSnapshot) (*models.Room, error)
	GetRoom(ctx context.Context, roomID string) (*models.Room, error)
	// GetRoomForUser is GetRoom restricted to the room's participants.
	GetRoomForUser(ctx context.Context, roomID, userID string) (*models.Room, error)
	ListRooms(ctx context.Context, userID string) ([]models.Room, error)
	SendMessage(ctx context.Context, roomID string, sender models.UserSnapshot, text string) (*models.RoomMessage, error)
	// ShareReel posts reel into the room sender shares with friend. The two
	// must be friends; the room is created if needed.
	ShareReel(ctx context.Context, sender, friend models.UserSnapshot, reel models.Reel) (*models.RoomMessage, error)
	ListMessages(ctx context.Context, roomID, userID string, limit, offset int) ([]models.RoomMessage, error)
}

type roomService struct {
	db        *gorm.DB
	rooms     storage.RoomRepository
	messages  storage.MessageRepository
	publisher EventPublisher
}

// NewRoomService 创建一个新的 RoomService 实例。
func NewRoomService(db *gorm.DB, publisher EventPublisher) RoomService {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	return &roomService{
		db:        db,
		rooms:     storage.NewGormRoomRepository(db),
		messages:  storage.NewGormMessageRepository(db),
		publisher: publisher,
	}
}

func (s *roomService) GetOrCreateRoom(ctx context.Context, a, b models.UserSnapshot) (*models.Room, error) {
	room, err := models.NewDirectRoom(a, b)
	if err != nil {
		return nil, err
	}
	stored, created, err := s.rooms.GetOrCreate(ctx, room)
	if err != nil {
		return nil, txError(err)
	}
	if created {
		slog.Info("room created", "room", stored.ID)
		var events eventBatch
		events.add(imtypes.RoomCreated, stored.ID, a.ID, stored.ParticipantIDs, stored, withRoom(stored.ID))
		events.publish(ctx, s.publisher)
	}
	return stored, nil
}

func (s *roomService) GetRoom(ctx context.Context, roomID string) (*models.Room, error) {
	room, err := s.rooms.FindByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, ErrRoomNotFound
	}
	return room, nil
}

func (s *roomService) GetRoomForUser(ctx context.Context, roomID, userID string) (*models.Room, error) {
	room, err := s.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if !room.HasParticipant(userID) {
		return nil, ErrNotRoomParticipant
	}
	return room, nil
}

func (s *roomService) ListRooms(ctx context.Context, userID string) ([]models.Room, error) {
	if err := models.ValidateUserID(userID); err != nil {
		return nil, err
	}
	return s.rooms.ListForUser(ctx, userID)
}

func (s *roomService) SendMessage(ctx context.Context, roomID string, sender models.UserSnapshot, text string) (*models.RoomMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}
	room, err := s.GetRoomForUser(ctx, roomID, sender.ID)
	if err != nil {
		return nil, err
	}

	message := newRoomMessage(room.ID, sender, models.TextMessage)
	message.Text = text
	if err := s.messages.Create(ctx, message); err != nil {
		return nil, err
	}

	s.announceMessage(ctx, room, message)
	return message, nil
}

func (s *roomService) ShareReel(ctx context.Context, sender, friend models.UserSnapshot, reel models.Reel) (*models.RoomMessage, error) {
	if strings.TrimSpace(reel.ID) == "" || strings.TrimSpace(reel.VideoURL) == "" {
		return nil, ErrInvalidReel
	}
	room, err := models.NewDirectRoom(sender, friend)
	if err != nil {
		return nil, err
	}

	var (
		stored  *models.Room
		created bool
		message *models.RoomMessage
	)
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		areFriends, err := storage.NewGormFriendshipRepository(tx).AreFriends(ctx, sender.ID, friend.ID)
		if err != nil {
			return err
		}
		if !areFriends {
			return ErrNotFriends
		}

		stored, created, err = storage.NewGormRoomRepository(tx).GetOrCreate(ctx, room)
		if err != nil {
			return err
		}

		message = newRoomMessage(stored.ID, sender, models.ReelMessage)
		message.Reel = &reel
		return storage.NewGormMessageRepository(tx).Create(ctx, message)
	})
	if txErr != nil {
		return nil, txError(txErr)
	}

	if created {
		var events eventBatch
		events.add(imtypes.RoomCreated, stored.ID, sender.ID, stored.ParticipantIDs, stored, withRoom(stored.ID))
		events.publish(ctx, s.publisher)
	}
	slog.Info("reel shared", "room", stored.ID, "reel", reel.ID)
	s.announceMessage(ctx, stored, message)
	return message, nil
}

func (s *roomService) ListMessages(ctx context.Context, roomID, userID string, limit, offset int) ([]models.RoomMessage, error) {
	if _, err := s.GetRoomForUser(ctx, roomID, userID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > maxMessagePage {
		limit = maxMessagePage
	}
	if offset < 0 {
		offset = 0
	}
	return s.messages.ListByRoom(ctx, roomID, limit, offset)
}

func (s *roomService) announceMessage(ctx context.Context, room *models.Room, message *models.RoomMessage) {
	var events eventBatch
	events.add(imtypes.RoomMessagePosted, room.ID, message.SenderID, room.ParticipantIDs, message, withRoom(room.ID))
	events.publish(ctx, s.publisher)
}

func newRoomMessage(roomID string, sender models.UserSnapshot, messageType models.MessageType) *models.RoomMessage {
	return &models.RoomMessage{
		ID:             uuid.NewString(),
		RoomID:         roomID,
		SenderID:       sender.ID,
		SenderName:     sender.DisplayName,
		SenderPhotoURL: sender.PhotoURL,
		Type:           messageType,
	}
}
