package storage

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"reelchat/internal/models"
)

// FriendRequestRepository defines the interface for friend request data operations.
// Requests are keyed by direction (models.FriendRequestID), so there is at most
// one pending request from A to B.
type FriendRequestRepository interface {
	// Create stores the request unless one already exists for its direction.
	// It reports whether a row was written.
	Create(ctx context.Context, request *models.FriendRequest) (bool, error)
	// FindByID returns nil, nil when there is no such request.
	FindByID(ctx context.Context, id string) (*models.FriendRequest, error)
	FindDirected(ctx context.Context, fromID, toID string) (*models.FriendRequest, error)
	// Delete removes the request and reports whether it existed.
	Delete(ctx context.Context, id string) (bool, error)
	ListIncoming(ctx context.Context, toID string) ([]models.FriendRequest, error)
	ListOutgoing(ctx context.Context, fromID string) ([]models.FriendRequest, error)
	// PendingPeerIDs lists every user with a request to or from userID.
	PendingPeerIDs(ctx context.Context, userID string) ([]string, error)
}

type gormFriendRequestRepository struct {
	db *gorm.DB
}

func NewGormFriendRequestRepository(db *gorm.DB) FriendRequestRepository {
	return &gormFriendRequestRepository{db: db}
}

func (r *gormFriendRequestRepository) Create(ctx context.Context, request *models.FriendRequest) (bool, error) {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(request)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *gormFriendRequestRepository) FindByID(ctx context.Context, id string) (*models.FriendRequest, error) {
	var request models.FriendRequest
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&request).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &request, nil
}

func (r *gormFriendRequestRepository) FindDirected(ctx context.Context, fromID, toID string) (*models.FriendRequest, error) {
	return r.FindByID(ctx, models.FriendRequestID(fromID, toID))
}

func (r *gormFriendRequestRepository) Delete(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.FriendRequest{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *gormFriendRequestRepository) ListIncoming(ctx context.Context, toID string) ([]models.FriendRequest, error) {
	var requests []models.FriendRequest
	err := r.db.WithContext(ctx).
		Where("to_id = ?", toID).
		Order("created_at DESC").Order("id").
		Find(&requests).Error
	return requests, err
}

func (r *gormFriendRequestRepository) ListOutgoing(ctx context.Context, fromID string) ([]models.FriendRequest, error) {
	var requests []models.FriendRequest
	err := r.db.WithContext(ctx).
		Where("from_id = ?", fromID).
		Order("created_at DESC").Order("id").
		Find(&requests).Error
	return requests, err
}

func (r *gormFriendRequestRepository) PendingPeerIDs(ctx context.Context, userID string) ([]string, error) {
	var requests []models.FriendRequest
	err := r.db.WithContext(ctx).
		Select("from_id", "to_id").
		Where("from_id = ? OR to_id = ?", userID, userID).
		Find(&requests).Error
	if err != nil {
		return nil, err
	}
	peers := make([]string, 0, len(requests))
	for _, req := range requests {
		if req.FromID == userID {
			peers = append(peers, req.ToID)
		} else {
			peers = append(peers, req.FromID)
		}
	}
	return peers, nil
}
