package models

import (
	"errors"
	"strings"
	"time"
)

// PairSeparator joins two user ids into a pair key. It may not appear inside
// a single user id, which keeps pair keys injective.
const PairSeparator = "_"

// ErrInvalidParticipants is returned when a pair operation is given an empty
// id, an id containing PairSeparator, or the same id twice.
var ErrInvalidParticipants = errors.New("invalid participants")

// ValidateUserID reports whether id can take part in a pair key.
func ValidateUserID(id string) error {
	if id == "" || strings.Contains(id, PairSeparator) {
		return ErrInvalidParticipants
	}
	return nil
}

// CanonicalPair orders two user ids lexicographically.
func CanonicalPair(a, b string) (low, high string, err error) {
	if err := ValidateUserID(a); err != nil {
		return "", "", err
	}
	if err := ValidateUserID(b); err != nil {
		return "", "", err
	}
	if a == b {
		return "", "", ErrInvalidParticipants
	}
	if a > b {
		a, b = b, a
	}
	return a, b, nil
}

// DirectRoomID derives the room id for a pair of users. The result does not
// depend on argument order and distinct pairs never share an id.
func DirectRoomID(a, b string) (string, error) {
	low, high, err := CanonicalPair(a, b)
	if err != nil {
		return "", err
	}
	return low + PairSeparator + high, nil
}

// Room is the direct-message conversation of exactly two users.
type Room struct {
	ID              string `gorm:"primaryKey;type:varchar(200)" json:"id"`
	IsDirectMessage bool   `gorm:"not null;default:true" json:"isDirectMessage"`

	// LowID and HighID are the canonical ordering of ParticipantIDs and back
	// the per-user room queries.
	LowID  string `gorm:"type:varchar(64);not null;index" json:"-"`
	HighID string `gorm:"type:varchar(64);not null;index" json:"-"`

	ParticipantIDs    []string          `gorm:"serializer:json;type:text;not null" json:"participantIds"`
	ParticipantNames  map[string]string `gorm:"serializer:json;type:text" json:"participantNames"`
	ParticipantPhotos map[string]string `gorm:"serializer:json;type:text" json:"participantPhotos"`

	CreatedAt time.Time `gorm:"index" json:"createdAt"`
}

// TableName 指定 Room 模型的表名。
func (Room) TableName() string {
	return "rooms"
}

// NewDirectRoom builds the room record for a and b with their display
// snapshots. The record is not persisted.
func NewDirectRoom(a, b UserSnapshot) (*Room, error) {
	low, high, err := CanonicalPair(a.ID, b.ID)
	if err != nil {
		return nil, err
	}
	return &Room{
		ID:              low + PairSeparator + high,
		IsDirectMessage: true,
		LowID:           low,
		HighID:          high,
		ParticipantIDs:  []string{low, high},
		ParticipantNames: map[string]string{
			a.ID: a.DisplayName,
			b.ID: b.DisplayName,
		},
		ParticipantPhotos: map[string]string{
			a.ID: a.PhotoURL,
			b.ID: b.PhotoURL,
		},
	}, nil
}

// HasParticipant reports whether userID is one of the two room members.
func (r *Room) HasParticipant(userID string) bool {
	return userID != "" && (r.LowID == userID || r.HighID == userID)
}

// OtherParticipant returns the member that is not userID.
func (r *Room) OtherParticipant(userID string) string {
	if r.LowID == userID {
		return r.HighID
	}
	return r.LowID
}
