package proto

import "encoding/json"

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	InboundTypeWho     = "who"
	InboundTypeWhisper = "whisper:send"

	OutboundTypeEvent = "event"
	OutboundTypeError = "error"

	EventParticipants = "room:participants"
	EventWhisper      = "whisper"
	EventWhisperError = "whisper:error"
	EventJoin         = "join"
	EventExit         = "exit"
	EventChat         = "chat"
	EventNewRoom      = "newRoom"
	EventRemoveRoom   = "removeRoom"
)

// WhisperSendData asks to deliver a private message to a connection in the same room.
type WhisperSendData struct {
	To   string `json:"to"`
	Chat string `json:"chat"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// Participant is one roster entry.
type Participant struct {
	ConnectionID string `json:"connectionId"`
	Label        string `json:"label"`
}

// Participants is the full roster of a room.
type Participants struct {
	RoomID  string        `json:"roomId"`
	Count   int           `json:"count"`
	Members []Participant `json:"members"`
}

// Whisper is delivered to both ends of a private message.
type Whisper struct {
	User    string `json:"user"`
	Chat    string `json:"chat"`
	FromID  string `json:"fromId"`
	ToID    string `json:"toId"`
	RoomID  string `json:"roomId"`
	Private bool   `json:"private"`
}

// WhisperError is sent to the sender only.
type WhisperError struct {
	Message string `json:"message"`
}

// Notice is a system line such as a join or exit announcement.
type Notice struct {
	User string `json:"user"`
	Chat string `json:"chat"`
}

// Chat is a persisted room line, either text or an uploaded gif.
type Chat struct {
	ID        int64  `json:"id"`
	RoomID    string `json:"roomId"`
	User      string `json:"user"`
	Chat      string `json:"chat,omitempty"`
	GIF       string `json:"gif,omitempty"`
	CreatedAt int64  `json:"createdAt"`
}

// RoomSummary describes a room without its password.
type RoomSummary struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Max         int    `json:"max"`
	Owner       string `json:"owner"`
	HasPassword bool   `json:"hasPassword"`
	CreatedAt   int64  `json:"createdAt"`
}

// RemoveRoom tells lobby clients that a room is gone.
type RemoveRoom struct {
	RoomID string `json:"roomId"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
