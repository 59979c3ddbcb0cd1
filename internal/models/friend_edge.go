package models

import "time"

// FriendEdge is one side of a friendship: the record stored under OwnerID's
// friend collection, carrying a snapshot of the friend. A friendship is
// always the pair of mirrored edges (a→b, b→a).
type FriendEdge struct {
	OwnerID     string    `gorm:"primaryKey;type:varchar(64)" json:"-"`
	FriendID    string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	DisplayName string    `gorm:"type:varchar(100)" json:"displayName"`
	PhotoURL    string    `gorm:"type:varchar(512)" json:"photoURL,omitempty"`
	Email       string    `gorm:"type:varchar(255)" json:"email,omitempty"`
	CreatedAt   time.Time `gorm:"index" json:"since"`
	UpdatedAt   time.Time `json:"-"`
}

// TableName 指定 FriendEdge 模型的表名。
func (FriendEdge) TableName() string {
	return "friend_edges"
}

// MirroredEdges returns the two records that together express a–b.
func MirroredEdges(a, b UserSnapshot) [2]FriendEdge {
	return [2]FriendEdge{
		{OwnerID: a.ID, FriendID: b.ID, DisplayName: b.DisplayName, PhotoURL: b.PhotoURL, Email: b.Email},
		{OwnerID: b.ID, FriendID: a.ID, DisplayName: a.DisplayName, PhotoURL: a.PhotoURL, Email: a.Email},
	}
}

// Path is the document-style key of this edge: "{ownerId}/friends/{otherId}".
func (e FriendEdge) Path() string {
	return e.OwnerID + "/friends/" + e.FriendID
}

// Friend returns the stored snapshot of the other user.
func (e FriendEdge) Friend() UserSnapshot {
	return UserSnapshot{ID: e.FriendID, DisplayName: e.DisplayName, PhotoURL: e.PhotoURL, Email: e.Email}
}

// PairLock is the row a transaction locks before reading or changing the
// request/friendship state of a pair. PairKey is the canonical pair id.
type PairLock struct {
	PairKey   string `gorm:"primaryKey;type:varchar(200)"`
	CreatedAt time.Time
}

// TableName 指定 PairLock 模型的表名。
func (PairLock) TableName() string {
	return "pair_locks"
}

// PairState is the ledger's view of an unordered pair (A, B), where A is the
// user the state was computed for.
type PairState string

const (
	PairStateNone        PairState = "none"
	PairStatePendingAtoB PairState = "pending_outgoing" // A asked B
	PairStatePendingBtoA PairState = "pending_incoming" // B asked A
	PairStateFriends     PairState = "friends"
)
