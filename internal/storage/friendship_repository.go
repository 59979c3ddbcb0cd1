package storage

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"reelchat/internal/models"
)

// FriendshipRepository stores friendships as mirrored edges. Writes always
// touch both edges in a single statement, so a reader never sees one side
// without the other.
type FriendshipRepository interface {
	// AddEdge upserts both edges of a–b. Re-adding refreshes the stored
	// snapshots and keeps the original CreatedAt.
	AddEdge(ctx context.Context, a, b models.UserSnapshot) error
	// RemoveEdge deletes both edges. Removing an absent friendship is a no-op.
	RemoveEdge(ctx context.Context, aID, bID string) error
	AreFriends(ctx context.Context, aID, bID string) (bool, error)
	// FindEdge returns nil, nil when ownerID has no edge to friendID.
	FindEdge(ctx context.Context, ownerID, friendID string) (*models.FriendEdge, error)
	ListFriends(ctx context.Context, userID string) ([]models.FriendEdge, error)
	GetFriendIDs(ctx context.Context, userID string) ([]string, error)
}

type gormFriendshipRepository struct {
	db *gorm.DB
}

// NewGormFriendshipRepository creates a new GORM-based FriendshipRepository.
func NewGormFriendshipRepository(db *gorm.DB) FriendshipRepository {
	return &gormFriendshipRepository{db: db}
}

func (r *gormFriendshipRepository) AddEdge(ctx context.Context, a, b models.UserSnapshot) error {
	if _, _, err := models.CanonicalPair(a.ID, b.ID); err != nil {
		return err
	}
	pair := models.MirroredEdges(a, b)
	edges := pair[:]
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "owner_id"}, {Name: "friend_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"display_name", "photo_url", "email", "updated_at"}),
	}).Create(&edges).Error
	if err != nil {
		return fmt.Errorf("add friend edges %s/%s: %w", a.ID, b.ID, err)
	}
	return nil
}

func (r *gormFriendshipRepository) RemoveEdge(ctx context.Context, aID, bID string) error {
	if _, _, err := models.CanonicalPair(aID, bID); err != nil {
		return err
	}
	err := r.db.WithContext(ctx).
		Where("(owner_id = ? AND friend_id = ?) OR (owner_id = ? AND friend_id = ?)", aID, bID, bID, aID).
		Delete(&models.FriendEdge{}).Error
	if err != nil {
		return fmt.Errorf("remove friend edges %s/%s: %w", aID, bID, err)
	}
	return nil
}

func (r *gormFriendshipRepository) AreFriends(ctx context.Context, aID, bID string) (bool, error) {
	edge, err := r.FindEdge(ctx, aID, bID)
	if err != nil {
		return false, err
	}
	return edge != nil, nil
}

func (r *gormFriendshipRepository) FindEdge(ctx context.Context, ownerID, friendID string) (*models.FriendEdge, error) {
	var edge models.FriendEdge
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND friend_id = ?", ownerID, friendID).
		First(&edge).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &edge, nil
}

// ListFriends returns userID's edges, oldest friendship first.
func (r *gormFriendshipRepository) ListFriends(ctx context.Context, userID string) ([]models.FriendEdge, error) {
	var edges []models.FriendEdge
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", userID).
		Order("created_at").Order("friend_id").
		Find(&edges).Error
	return edges, err
}

func (r *gormFriendshipRepository) GetFriendIDs(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&models.FriendEdge{}).
		Where("owner_id = ?", userID).
		Pluck("friend_id", &ids).Error
	return ids, err
}
