package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Room represents a chat room.
type Room struct {
	ID           string
	Title        string
	Max          int    // 0 means unlimited
	Owner        string // color of the creating session
	PasswordHash string // empty for open rooms
	CreatedAt    time.Time
}

// HasPassword reports whether entering the room requires a password.
func (r *Room) HasPassword() bool {
	return r.PasswordHash != ""
}

// Chat represents a persisted chat line. Exactly one of Text and GIF is set.
type Chat struct {
	ID        int64
	RoomID    string
	User      string
	Text      string
	GIF       string
	CreatedAt time.Time
}

// RoomStore handles room persistence.
type RoomStore interface {
	// CreateRoom inserts a room. The caller assigns the ID.
	CreateRoom(ctx context.Context, room *Room) error

	// GetRoom retrieves a room by ID.
	GetRoom(ctx context.Context, id string) (*Room, error)

	// ListRooms lists all rooms, newest first.
	ListRooms(ctx context.Context) ([]*Room, error)

	// DeleteRoom removes a room together with its chats.
	DeleteRoom(ctx context.Context, id string) error
}

// ChatStore handles chat persistence.
type ChatStore interface {
	// CreateChat appends a chat line and fills in ID and CreatedAt.
	CreateChat(ctx context.Context, chat *Chat) error

	// ListChats returns the chats of a room ordered by creation time.
	ListChats(ctx context.Context, roomID string) ([]*Chat, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	RoomStore
	ChatStore

	// Close closes the underlying database connection.
	Close() error
}
