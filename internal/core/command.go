package core

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandWho asks for the current roster of the client's room.
	CommandWho CommandKind = iota
	// CommandWhisper sends a private message to another member of the room.
	CommandWhisper
)

// Command represents an action requested by a client.
type Command struct {
	Kind CommandKind
	To   string
	Text string
}
