package core

import "github.com/vovakirdan/gifchat-server/internal/store"

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventRoster carries the participant list of a room.
	EventRoster EventKind = iota
	// EventWhisper delivers a private message to its target and echoes it to the sender.
	EventWhisper
	// EventWhisperError tells the sender why a whisper was not delivered.
	EventWhisperError
	// EventJoin is a system notice about a participant entering the room.
	EventJoin
	// EventExit is a system notice about a participant leaving the room.
	EventExit
	// EventChat carries a stored chat line (text or gif) posted to the room.
	EventChat
	// EventNewRoom tells lobby clients that a room was created.
	EventNewRoom
	// EventRemoveRoom tells lobby clients that a room was deleted.
	EventRemoveRoom
	// EventError notifies clients about a domain error.
	EventError
)

// Event is sent to clients to describe what happened in the system.
type Event struct {
	Kind    EventKind
	Room    string
	Roster  *Roster     // EventRoster
	Whisper *Whisper    // EventWhisper
	Notice  *Notice     // EventJoin, EventExit
	Chat    *store.Chat // EventChat
	Info    *store.Room // EventNewRoom
	Error   *CoreError  // EventError, EventWhisperError
}
