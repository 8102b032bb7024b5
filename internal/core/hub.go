package core

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DefaultDeleteTimeout bounds a single room deletion call.
const DefaultDeleteTimeout = 10 * time.Second

// RoomDeleter removes a room once its last participant has left.
// by is the session whose disconnect emptied the room.
type RoomDeleter interface {
	DeleteRoom(ctx context.Context, roomID string, by Session) error
}

// Option customizes a Hub.
type Option func(*Hub)

// WithDeleteTimeout sets the timeout of room deletion calls. Zero disables it.
func WithDeleteTimeout(d time.Duration) Option {
	return func(h *Hub) {
		h.deleteTimeout = d
	}
}

type clientCommand struct {
	client *Client
	cmd    *Command
}

// Hub is the single event loop of the chat core. Every connect, command,
// disconnect and external query runs on the goroutine executing Run, so
// membership and presence are never mutated concurrently.
type Hub struct {
	register   chan *Client
	unregister chan *Client
	commands   chan clientCommand
	calls      chan func()
	stopped    chan struct{}

	members  *Membership
	presence *Presence
	clients  map[string]*Client
	lobby    map[string]*Client
	nextSeq  uint64

	deleter       RoomDeleter
	deleteTimeout time.Duration
	deletions     sync.WaitGroup
	log           *zerolog.Logger
}

// NewHub creates a hub. deleter and logger may be nil.
func NewHub(deleter RoomDeleter, logger *zerolog.Logger, opts ...Option) *Hub {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	members := NewMembership()
	h := &Hub{
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		commands:      make(chan clientCommand),
		calls:         make(chan func()),
		stopped:       make(chan struct{}),
		members:       members,
		presence:      NewPresence(members),
		clients:       make(map[string]*Client),
		lobby:         make(map[string]*Client),
		deleter:       deleter,
		deleteTimeout: DefaultDeleteTimeout,
		log:           logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run processes hub events until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.stopped)

	for {
		select {
		case <-ctx.Done():
			h.drainClients(ctx)
			return
		case c := <-h.register:
			h.handleRegister(ctx, c)
		case c := <-h.unregister:
			h.handleUnregister(ctx, c)
		case cc := <-h.commands:
			h.handleCommand(cc)
		case fn := <-h.calls:
			fn()
		}
	}
}

// Wait blocks until Run has returned and every room deletion it started has finished.
func (h *Hub) Wait() {
	<-h.stopped
	h.deletions.Wait()
}

// RegisterClient attaches a connection. Chat clients join their room immediately.
func (h *Hub) RegisterClient(c *Client) error {
	select {
	case h.register <- c:
		return nil
	case <-h.stopped:
		return ErrHubStopped
	}
}

// UnregisterClient detaches a connection and runs the room lifecycle checks.
func (h *Hub) UnregisterClient(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.stopped:
	}
}

// MemberCount returns how many connections are currently in roomID.
func (h *Hub) MemberCount(ctx context.Context, roomID string) (int, error) {
	result := make(chan int, 1)
	if err := h.do(ctx, func() { result <- h.members.MemberCount(roomID) }); err != nil {
		return 0, err
	}
	return <-result, nil
}

// Roster returns the current participant list of roomID.
func (h *Hub) Roster(ctx context.Context, roomID string) (*Roster, error) {
	result := make(chan *Roster, 1)
	if err := h.do(ctx, func() { result <- h.presence.RosterOf(roomID) }); err != nil {
		return nil, err
	}
	return <-result, nil
}

// BroadcastRoom sends event to every connection in roomID.
func (h *Hub) BroadcastRoom(ctx context.Context, roomID string, event *Event) error {
	return h.do(ctx, func() { h.broadcast(roomID, event) })
}

// BroadcastLobby sends event to every lobby connection.
func (h *Hub) BroadcastLobby(ctx context.Context, event *Event) error {
	return h.do(ctx, func() {
		for _, c := range h.lobby {
			c.send(event)
		}
	})
}

// do runs fn on the hub goroutine.
func (h *Hub) do(ctx context.Context, fn func()) error {
	select {
	case h.calls <- fn:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-h.stopped:
		return ErrHubStopped
	}
}

func (h *Hub) handleRegister(ctx context.Context, c *Client) {
	if _, exists := h.clients[c.ID]; exists {
		h.log.Warn().Str("conn_id", c.ID).Msg("duplicate connection id rejected")
		c.send(&Event{Kind: EventError, Error: coreError(ErrCodeBadRequest, "duplicate connection id")})
		c.close()
		return
	}

	h.nextSeq++
	c.seq = h.nextSeq
	h.clients[c.ID] = c
	go h.forward(ctx, c)

	if c.Channel == ChannelLobby {
		h.lobby[c.ID] = c
		h.log.Debug().Str("conn_id", c.ID).Msg("lobby client connected")
		return
	}

	h.members.Join(c, c.Room)
	h.presence.Register(c.ID, c.Session.Color)
	h.log.Debug().
		Str("conn_id", c.ID).
		Str("room_id", c.Room).
		Str("color", c.Session.Color).
		Int("members", h.members.MemberCount(c.Room)).
		Msg("client joined room")

	h.broadcastRoster(c.Room)
	h.broadcast(c.Room, &Event{Kind: EventJoin, Room: c.Room, Notice: joinNotice(h.presence.Label(c.ID))})
}

// forward feeds a client's commands into the hub loop until the client is dropped.
func (h *Hub) forward(ctx context.Context, c *Client) {
	for {
		select {
		case cmd := <-c.Commands:
			if cmd == nil {
				continue
			}
			select {
			case h.commands <- clientCommand{client: c, cmd: cmd}:
			case <-c.done:
				return
			case <-ctx.Done():
				return
			}
		case <-c.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (h *Hub) handleCommand(cc clientCommand) {
	c := cc.client
	if h.clients[c.ID] != c {
		return
	}
	if c.Channel != ChannelChat {
		c.send(&Event{Kind: EventError, Error: coreError(ErrCodeBadRequest, "lobby connections cannot send room commands")})
		return
	}

	switch cc.cmd.Kind {
	case CommandWho:
		c.send(&Event{Kind: EventRoster, Room: c.Room, Roster: h.presence.RosterOf(c.Room)})
	case CommandWhisper:
		h.whisper(c, cc.cmd)
	default:
		c.send(&Event{Kind: EventError, Error: coreError(ErrCodeBadRequest, "unknown command")})
	}
}

func (h *Hub) broadcast(roomID string, event *Event) {
	if room := h.members.Room(roomID); room != nil {
		room.Broadcast(event)
	}
}

func (h *Hub) broadcastRoster(roomID string) {
	h.broadcast(roomID, &Event{Kind: EventRoster, Room: roomID, Roster: h.presence.RosterOf(roomID)})
}
