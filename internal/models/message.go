package models

import "time"

// MessageType 定义了存储在数据库中的消息类型。
type MessageType string

const (
	TextMessage MessageType = "text"
	ReelMessage MessageType = "reel" // a shared short-video link
)

// Reel is the shared short-video reference carried by a reel message.
// Only the link and its display metadata are stored.
type Reel struct {
	ID             string `json:"id"`
	VideoURL       string `json:"videoUrl"`
	Description    string `json:"description,omitempty"`
	AuthorNickname string `json:"authorNickname,omitempty"`
	AuthorAvatar   string `json:"authorAvatar,omitempty"`
}

// RoomMessage 代表存储在数据库中的聊天消息。
type RoomMessage struct {
	ID             string      `gorm:"primaryKey;type:varchar(64)" json:"id"`
	RoomID         string      `gorm:"type:varchar(200);not null;index:idx_room_messages_room_created" json:"roomId"`
	SenderID       string      `gorm:"type:varchar(64);not null" json:"senderId"`
	SenderName     string      `gorm:"type:varchar(100)" json:"senderName"`
	SenderPhotoURL string      `gorm:"type:varchar(512)" json:"senderPhotoURL,omitempty"`
	Type           MessageType `gorm:"type:varchar(20);not null" json:"type"`
	Text           string      `gorm:"type:text" json:"text,omitempty"`
	Reel           *Reel       `gorm:"serializer:json;type:text" json:"reel,omitempty"`
	CreatedAt      time.Time   `gorm:"index:idx_room_messages_room_created" json:"createdAt"`
}

// TableName 指定 RoomMessage 模型的表名。
func (RoomMessage) TableName() string {
	return "room_messages"
}
