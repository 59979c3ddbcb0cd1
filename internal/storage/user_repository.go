package storage

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"reelchat/internal/models"
)

// UserRepository defines the interface for user data operations.
// Get methods return gorm.ErrRecordNotFound for unknown users.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	// SearchUsers matches display name or email, case-insensitively, and
	// leaves out the ids in exclude.
	SearchUsers(ctx context.Context, query string, exclude []string, limit int) ([]models.User, error)
	GetSnapshots(ctx context.Context, userIDs []string) ([]models.UserSnapshot, error)
}

// gormUserRepository implements UserRepository using GORM.
type gormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository creates a new GORM-based UserRepository.
func NewGormUserRepository(db *gorm.DB) UserRepository {
	return &gormUserRepository{db: db}
}

func (r *gormUserRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *gormUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *gormUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("email = ?", strings.ToLower(email)).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Update writes the profile fields of user. The email and password hash are
// not touched here.
func (r *gormUserRepository) Update(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		return gorm.ErrMissingWhereClause
	}
	return r.db.WithContext(ctx).
		Model(user).
		Select("display_name", "photo_url", "updated_at").
		Updates(user).Error
}

func (r *gormUserRepository) SearchUsers(ctx context.Context, query string, exclude []string, limit int) ([]models.User, error) {
	var users []models.User
	// 大小写不敏感的模糊匹配
	searchTerm := "%" + strings.ToLower(strings.TrimSpace(query)) + "%"

	tx := r.db.WithContext(ctx).
		Where("LOWER(display_name) LIKE ? OR LOWER(email) LIKE ?", searchTerm, searchTerm)
	if len(exclude) > 0 {
		tx = tx.Where("id NOT IN ?", exclude)
	}
	if limit <= 0 {
		limit = 20
	}
	err := tx.Select("id", "email", "display_name", "photo_url").
		Order("display_name").Order("id").
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (r *gormUserRepository) GetSnapshots(ctx context.Context, userIDs []string) ([]models.UserSnapshot, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	var users []models.User
	err := r.db.WithContext(ctx).
		Select("id", "email", "display_name", "photo_url").
		Where("id IN ?", userIDs).
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	snapshots := make([]models.UserSnapshot, 0, len(users))
	for i := range users {
		snapshots = append(snapshots, users[i].Snapshot())
	}
	return snapshots, nil
}
