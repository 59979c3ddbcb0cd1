package models

// User is an account known to the identity collaborator.
type User struct {
	ID           string `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Email        string `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	DisplayName  string `gorm:"type:varchar(100);not null;index" json:"displayName"`
	PhotoURL     string `gorm:"type:varchar(512)" json:"photoURL,omitempty"`
	PasswordHash string `gorm:"type:varchar(255);not null" json:"-"` // never exposed
	Timestamps
}

// TableName 指定 User 模型的表名。
func (User) TableName() string {
	return "users"
}

// Snapshot returns the display data other records copy from this user.
func (u *User) Snapshot() UserSnapshot {
	return UserSnapshot{
		ID:          u.ID,
		DisplayName: u.DisplayName,
		PhotoURL:    u.PhotoURL,
		Email:       u.Email,
	}
}

// UserSnapshot is an immutable copy of a user's public profile, passed by
// value into friendship and room operations. Copies stored inside edges and
// rooms are a cache: they are not updated when the profile changes and are
// refreshed only by rewriting the edge or creating the room.
type UserSnapshot struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	PhotoURL    string `json:"photoURL,omitempty"`
	Email       string `json:"email,omitempty"`
}
