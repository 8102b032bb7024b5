package core

import "sync"

// Channel tells which pub/sub channel a client is attached to.
type Channel int

const (
	// ChannelChat clients are bound to exactly one room.
	ChannelChat Channel = iota
	// ChannelLobby clients receive room list updates only.
	ChannelLobby
)

// Session is the ephemeral identity behind a connection.
type Session struct {
	ID    string
	Color string
}

// Client is a live connection as seen by the core layer.
type Client struct {
	ID       string
	Session  Session
	Room     string
	Channel  Channel
	Commands chan *Command
	Events   chan *Event

	seq       uint64
	done      chan struct{}
	closeOnce sync.Once
}

// NewClient constructs a chat client bound to room for its whole lifetime.
func NewClient(id string, session Session, room string) *Client {
	return &Client{
		ID:       id,
		Session:  session,
		Room:     room,
		Channel:  ChannelChat,
		Commands: make(chan *Command, 8),
		Events:   make(chan *Event, 32),
		done:     make(chan struct{}),
	}
}

// NewLobbyClient constructs a client that only listens to lobby broadcasts.
func NewLobbyClient(id string) *Client {
	c := NewClient(id, Session{}, "")
	c.Channel = ChannelLobby
	return c
}

// Done is closed once the hub has dropped the client.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// send queues an event without blocking the hub.
func (c *Client) send(event *Event) bool {
	select {
	case c.Events <- event:
		return true
	default:
		// Drop if slow consumer.
		return false
	}
}

func (c *Client) close() {
	c.closeOnce.Do(func() { close(c.done) })
}
