package core

// SystemUser is the author of join and exit notices.
const SystemUser = "system"

// Whisper is a private message between two members of one room.
type Whisper struct {
	User    string
	Chat    string
	FromID  string
	ToID    string
	RoomID  string
	Private bool
}

// Notice is a system line shown in a room.
type Notice struct {
	User string
	Chat string
}

func joinNotice(label string) *Notice {
	return &Notice{User: SystemUser, Chat: label + " joined the room."}
}

func exitNotice(label string) *Notice {
	return &Notice{User: SystemUser, Chat: label + " left the room."}
}
