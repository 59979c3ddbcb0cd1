package models

import "time"

// FriendRequestID derives the request key for the direction from → to, so
// at most one pending request can exist per direction.
func FriendRequestID(fromID, toID string) string {
	return fromID + PairSeparator + toID
}

// FriendRequest is a pending, directed proposal. It is created by a send and
// hard-deleted by accept, reject or cancel; it is never updated in place.
type FriendRequest struct {
	ID        string    `gorm:"primaryKey;type:varchar(200)" json:"id"`
	FromID    string    `gorm:"type:varchar(64);not null;index" json:"fromId"`
	FromName  string    `gorm:"type:varchar(100)" json:"fromName"`
	FromPhoto string    `gorm:"type:varchar(512)" json:"fromPhoto,omitempty"`
	ToID      string    `gorm:"type:varchar(64);not null;index" json:"toId"`
	ToName    string    `gorm:"type:varchar(100)" json:"toName"`
	ToPhoto   string    `gorm:"type:varchar(512)" json:"toPhoto,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// TableName 指定 FriendRequest 模型的表名。
func (FriendRequest) TableName() string {
	return "friend_requests"
}

// NewFriendRequest builds the request record for from → to.
func NewFriendRequest(from, to UserSnapshot) *FriendRequest {
	return &FriendRequest{
		ID:        FriendRequestID(from.ID, to.ID),
		FromID:    from.ID,
		FromName:  from.DisplayName,
		FromPhoto: from.PhotoURL,
		ToID:      to.ID,
		ToName:    to.DisplayName,
		ToPhoto:   to.PhotoURL,
	}
}

// Sender returns the display snapshot of the requester captured at send time.
func (r *FriendRequest) Sender() UserSnapshot {
	return UserSnapshot{ID: r.FromID, DisplayName: r.FromName, PhotoURL: r.FromPhoto}
}

// Recipient returns the display snapshot of the recipient captured at send time.
func (r *FriendRequest) Recipient() UserSnapshot {
	return UserSnapshot{ID: r.ToID, DisplayName: r.ToName, PhotoURL: r.ToPhoto}
}
