package imtypes

// FrameType is the kind of a frame pushed to websocket clients.
type FrameType string

const (
	WelcomeFrame FrameType = "welcome"
	EventFrame   FrameType = "event"
	ErrorFrame   FrameType = "error"
)

// Frame is the JSON object written to a websocket client.
type Frame struct {
	Type   FrameType    `json:"type"`
	UserID string       `json:"userId,omitempty"`
	Event  *DomainEvent `json:"event,omitempty"`
	Error  string       `json:"error,omitempty"`
}
