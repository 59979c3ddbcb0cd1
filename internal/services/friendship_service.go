package services

import (
	"context"
	"log/slog"

	"gorm.io/gorm"

	"reelchat/internal/imtypes"
	"reelchat/internal/models"
	"reelchat/internal/storage"
)

// FriendshipService reads and ends friendships. Friendships are only created
// by the friend request ledger.
type FriendshipService interface {
	ListFriends(ctx context.Context, userID string) ([]models.FriendEdge, error)
	// RemoveFriend deletes both edges of the pair. It is a no-op when the two
	// are not friends. The pair's room is kept.
	RemoveFriend(ctx context.Context, userID, friendID string) error
	// RefreshFriend rewrites both edges with the given snapshots. It returns
	// ErrNotFriends instead of creating a friendship.
	RefreshFriend(ctx context.Context, a, b models.UserSnapshot) error
	FriendIDs(ctx context.Context, userID string) ([]string, error)
}

type friendshipService struct {
	db        *gorm.DB
	friends   storage.FriendshipRepository
	publisher EventPublisher
}

func NewFriendshipService(db *gorm.DB, publisher EventPublisher) FriendshipService {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	return &friendshipService{
		db:        db,
		friends:   storage.NewGormFriendshipRepository(db),
		publisher: publisher,
	}
}

func (s *friendshipService) ListFriends(ctx context.Context, userID string) ([]models.FriendEdge, error) {
	if err := models.ValidateUserID(userID); err != nil {
		return nil, err
	}
	return s.friends.ListFriends(ctx, userID)
}

func (s *friendshipService) FriendIDs(ctx context.Context, userID string) ([]string, error) {
	return s.friends.GetFriendIDs(ctx, userID)
}

func (s *friendshipService) RemoveFriend(ctx context.Context, userID, friendID string) error {
	pairID, err := models.DirectRoomID(userID, friendID)
	if err != nil {
		return err
	}

	var events eventBatch
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := storage.LockPair(ctx, tx, userID, friendID); err != nil {
			return err
		}
		txFriends := storage.NewGormFriendshipRepository(tx)
		wereFriends, err := txFriends.AreFriends(ctx, userID, friendID)
		if err != nil {
			return err
		}
		if err := txFriends.RemoveEdge(ctx, userID, friendID); err != nil {
			return err
		}
		if wereFriends {
			events.add(imtypes.FriendshipRemoved, pairID, userID, []string{friendID, userID}, nil, nil)
		}
		return nil
	})
	if txErr != nil {
		return txError(txErr)
	}

	slog.Info("friend removed", "user", userID, "friend", friendID)
	events.publish(ctx, s.publisher)
	return nil
}

func (s *friendshipService) RefreshFriend(ctx context.Context, a, b models.UserSnapshot) error {
	if _, _, err := models.CanonicalPair(a.ID, b.ID); err != nil {
		return err
	}
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := storage.LockPair(ctx, tx, a.ID, b.ID); err != nil {
			return err
		}
		txFriends := storage.NewGormFriendshipRepository(tx)
		areFriends, err := txFriends.AreFriends(ctx, a.ID, b.ID)
		if err != nil {
			return err
		}
		if !areFriends {
			return ErrNotFriends
		}
		return txFriends.AddEdge(ctx, a, b)
	})
	return txError(txErr)
}
