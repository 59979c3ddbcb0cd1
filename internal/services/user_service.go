package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"gorm.io/gorm"

	"reelchat/internal/models"
	"reelchat/internal/storage"
)

const searchLimit = 20

// UserService is the identity collaborator: it owns profiles and hands out
// the snapshots the friendship and room operations work on.
type UserService interface {
	GetUserProfile(ctx context.Context, userID string) (*models.User, error)
	GetSnapshot(ctx context.Context, userID string) (models.UserSnapshot, error)
	// UpdateUserProfile changes display name and photo and refreshes the
	// copies stored in the user's friendship edges.
	UpdateUserProfile(ctx context.Context, userID, displayName, photoURL string) (*models.User, error)
	// SearchUsers finds people the caller could send a request to: the
	// caller, their friends and anyone with a pending request either way are
	// left out.
	SearchUsers(ctx context.Context, userID, query string) ([]models.UserSnapshot, error)
}

// userService 是 UserService 的实现。
type userService struct {
	users       storage.UserRepository
	requests    storage.FriendRequestRepository
	friendships FriendshipService
}

// NewUserService 创建一个新的 UserService 实例。
func NewUserService(db *gorm.DB, friendships FriendshipService) UserService {
	return &userService{
		users:       storage.NewGormUserRepository(db),
		requests:    storage.NewGormFriendRequestRepository(db),
		friendships: friendships,
	}
}

func (s *userService) GetUserProfile(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user %s: %w", userID, err)
	}
	user.PasswordHash = ""
	return user, nil
}

func (s *userService) GetSnapshot(ctx context.Context, userID string) (models.UserSnapshot, error) {
	user, err := s.GetUserProfile(ctx, userID)
	if err != nil {
		return models.UserSnapshot{}, err
	}
	return user.Snapshot(), nil
}

func (s *userService) UpdateUserProfile(ctx context.Context, userID, displayName, photoURL string) (*models.User, error) {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return nil, ErrInvalidProfile
	}
	user, err := s.GetUserProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.DisplayName == displayName && user.PhotoURL == photoURL {
		return user, nil
	}

	user.DisplayName = displayName
	user.PhotoURL = photoURL
	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user %s: %w", userID, err)
	}

	s.refreshFriendEdges(ctx, user.Snapshot())
	return user, nil
}

// refreshFriendEdges rewrites the edges of every friendship with the new
// snapshot. Failures leave a stale cache behind and are only logged.
func (s *userService) refreshFriendEdges(ctx context.Context, me models.UserSnapshot) {
	friendIDs, err := s.friendships.FriendIDs(ctx, me.ID)
	if err != nil {
		slog.Warn("list friends for snapshot refresh", "user", me.ID, "err", err)
		return
	}
	friends, err := s.users.GetSnapshots(ctx, friendIDs)
	if err != nil {
		slog.Warn("load friend snapshots", "user", me.ID, "err", err)
		return
	}
	for _, friend := range friends {
		err := s.friendships.RefreshFriend(ctx, me, friend)
		if err != nil && !errors.Is(err, ErrNotFriends) {
			slog.Warn("refresh friend edge", "user", me.ID, "friend", friend.ID, "err", err)
		}
	}
}

func (s *userService) SearchUsers(ctx context.Context, userID, query string) ([]models.UserSnapshot, error) {
	if strings.TrimSpace(query) == "" {
		return []models.UserSnapshot{}, nil
	}

	exclude := []string{userID}
	friendIDs, err := s.friendships.FriendIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	exclude = append(exclude, friendIDs...)
	pending, err := s.requests.PendingPeerIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	exclude = append(exclude, pending...)

	users, err := s.users.SearchUsers(ctx, query, exclude, searchLimit)
	if err != nil {
		return nil, err
	}
	results := make([]models.UserSnapshot, 0, len(users))
	for i := range users {
		results = append(results, users[i].Snapshot())
	}
	return results, nil
}
