package rooms

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/vovakirdan/gifchat-server/internal/auth"
	"github.com/vovakirdan/gifchat-server/internal/core"
	"github.com/vovakirdan/gifchat-server/internal/store"
	"github.com/vovakirdan/gifchat-server/internal/upload"
)

// Common errors for room operations.
var (
	ErrRoomNotFound  = errors.New("room not found")
	ErrWrongPassword = errors.New("wrong password")
	ErrRoomFull      = errors.New("room is full")
	ErrInvalidRoom   = errors.New("invalid room")
	ErrEmptyChat     = errors.New("chat is empty")
	ErrRoomOccupied  = errors.New("room still has participants")
	ErrNoUploads     = errors.New("uploads are disabled")
)

// MaxTitleLen bounds room titles.
const MaxTitleLen = 64

// Hub is the part of the chat core the service talks to.
type Hub interface {
	MemberCount(ctx context.Context, roomID string) (int, error)
	BroadcastRoom(ctx context.Context, roomID string, event *core.Event) error
	BroadcastLobby(ctx context.Context, event *core.Event) error
}

// CreateParams describes a new room.
type CreateParams struct {
	Title    string
	Max      int
	Password string
	Owner    string
}

// Service provides room and chat business logic.
type Service struct {
	store   store.Store
	uploads *upload.Storage
	hub     Hub
	log     *zerolog.Logger

	// deletes collapses concurrent removals of the same room into one.
	deletes singleflight.Group
}

// New creates a room service. uploads may be nil to disable GIF posts.
func New(st store.Store, uploads *upload.Storage, logger *zerolog.Logger) *Service {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Service{store: st, uploads: uploads, log: logger}
}

// Attach connects the service to the hub. The hub is built after the service
// because the service is the hub's room deleter.
func (s *Service) Attach(hub Hub) {
	s.hub = hub
}

// Create validates and stores a new room and announces it in the lobby.
func (s *Service) Create(ctx context.Context, p CreateParams) (*store.Room, error) {
	title := strings.TrimSpace(p.Title)
	if title == "" || len(title) > MaxTitleLen {
		return nil, fmt.Errorf("%w: title must be 1-%d characters", ErrInvalidRoom, MaxTitleLen)
	}
	if p.Max < 0 {
		return nil, fmt.Errorf("%w: max must not be negative", ErrInvalidRoom)
	}

	room := &store.Room{
		ID:    uuid.NewString(),
		Title: title,
		Max:   p.Max,
		Owner: p.Owner,
	}
	if p.Password != "" {
		hash, err := auth.HashPassword(p.Password)
		if err != nil {
			return nil, err
		}
		room.PasswordHash = hash
	}

	if err := s.store.CreateRoom(ctx, room); err != nil {
		return nil, fmt.Errorf("create room: %w", err)
	}

	s.log.Info().Str("room_id", room.ID).Str("owner", room.Owner).Int("max", room.Max).Msg("room created")
	s.notifyLobby(ctx, &core.Event{Kind: core.EventNewRoom, Room: room.ID, Info: room})
	return room, nil
}

// List returns all rooms, newest first.
func (s *Service) List(ctx context.Context) ([]*store.Room, error) {
	rooms, err := s.store.ListRooms(ctx)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	return rooms, nil
}

// Get returns a room by id.
func (s *Service) Get(ctx context.Context, id string) (*store.Room, error) {
	room, err := s.store.GetRoom(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("get room: %w", err)
	}
	return room, nil
}

// Enter checks the password and capacity of a room and returns its history.
// A room with Max 0 has no capacity limit.
func (s *Service) Enter(ctx context.Context, id, password string) (*store.Room, []*store.Chat, error) {
	room, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	if room.HasPassword() {
		if err := auth.ComparePassword(room.PasswordHash, password); err != nil {
			return nil, nil, ErrWrongPassword
		}
	}

	if room.Max > 0 {
		present, err := s.occupancy(ctx, room.ID)
		if err != nil {
			return nil, nil, err
		}
		if present >= room.Max {
			return nil, nil, ErrRoomFull
		}
	}

	chats, err := s.store.ListChats(ctx, room.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("list chats: %w", err)
	}
	return room, chats, nil
}

// Delete handles an explicit deletion request. Anyone may delete an empty
// room; a room with live participants can only be deleted by its owner.
func (s *Service) Delete(ctx context.Context, id string, by core.Session) error {
	room, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if by.Color != room.Owner {
		present, err := s.occupancy(ctx, room.ID)
		if err != nil {
			return err
		}
		if present > 0 {
			return ErrRoomOccupied
		}
	}

	return s.remove(ctx, room.ID, by)
}

// DeleteRoom is called by the hub when the last participant of a room
// disconnects. It is a trusted internal call; a room that is already gone
// counts as deleted.
func (s *Service) DeleteRoom(ctx context.Context, roomID string, by core.Session) error {
	err := s.remove(ctx, roomID, by)
	if errors.Is(err, ErrRoomNotFound) {
		s.log.Debug().Str("room_id", roomID).Msg("empty room already deleted")
		return nil
	}
	return err
}

func (s *Service) remove(ctx context.Context, roomID string, by core.Session) error {
	_, err, shared := s.deletes.Do(roomID, func() (any, error) {
		return nil, s.removeNow(ctx, roomID, by)
	})
	if shared {
		s.log.Debug().Str("room_id", roomID).Msg("joined in-flight room deletion")
	}
	return err
}

func (s *Service) removeNow(ctx context.Context, roomID string, by core.Session) error {
	chats, err := s.store.ListChats(ctx, roomID)
	if err != nil {
		return fmt.Errorf("list chats: %w", err)
	}

	if err := s.store.DeleteRoom(ctx, roomID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrRoomNotFound
		}
		return fmt.Errorf("delete room: %w", err)
	}

	if s.uploads != nil {
		for _, chat := range chats {
			if chat.GIF == "" {
				continue
			}
			if err := s.uploads.Remove(chat.GIF); err != nil {
				s.log.Warn().Err(err).Str("file", chat.GIF).Msg("failed to remove gif of deleted room")
			}
		}
	}

	s.log.Info().Str("room_id", roomID).Str("by", by.Color).Int("chats", len(chats)).Msg("room deleted")
	s.notifyLobby(ctx, &core.Event{Kind: core.EventRemoveRoom, Room: roomID})
	return nil
}

// PostChat stores a text line and broadcasts it to the room.
func (s *Service) PostChat(ctx context.Context, roomID string, by core.Session, text string) (*store.Chat, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyChat
	}
	if _, err := s.Get(ctx, roomID); err != nil {
		return nil, err
	}

	chat := &store.Chat{RoomID: roomID, User: by.Color, Text: text}
	if err := s.store.CreateChat(ctx, chat); err != nil {
		return nil, fmt.Errorf("create chat: %w", err)
	}
	s.notifyRoom(ctx, chat)
	return chat, nil
}

// PostGIF stores an uploaded file, records it as a chat line and broadcasts it.
func (s *Service) PostGIF(ctx context.Context, roomID string, by core.Session, filename string, r io.Reader) (*store.Chat, error) {
	if s.uploads == nil {
		return nil, ErrNoUploads
	}
	if _, err := s.Get(ctx, roomID); err != nil {
		return nil, err
	}

	name, err := s.uploads.Save(filename, r)
	if err != nil {
		return nil, fmt.Errorf("save upload: %w", err)
	}

	chat := &store.Chat{RoomID: roomID, User: by.Color, GIF: name}
	if err := s.store.CreateChat(ctx, chat); err != nil {
		if rmErr := s.uploads.Remove(name); rmErr != nil {
			s.log.Warn().Err(rmErr).Str("file", name).Msg("failed to remove orphaned upload")
		}
		return nil, fmt.Errorf("create chat: %w", err)
	}
	s.notifyRoom(ctx, chat)
	return chat, nil
}

func (s *Service) occupancy(ctx context.Context, roomID string) (int, error) {
	if s.hub == nil {
		return 0, nil
	}
	n, err := s.hub.MemberCount(ctx, roomID)
	if err != nil {
		return 0, fmt.Errorf("member count: %w", err)
	}
	return n, nil
}

func (s *Service) notifyLobby(ctx context.Context, event *core.Event) {
	if s.hub == nil {
		return
	}
	if err := s.hub.BroadcastLobby(ctx, event); err != nil {
		s.log.Warn().Err(err).Str("room_id", event.Room).Msg("failed to notify lobby")
	}
}

func (s *Service) notifyRoom(ctx context.Context, chat *store.Chat) {
	if s.hub == nil {
		return
	}
	event := &core.Event{Kind: core.EventChat, Room: chat.RoomID, Chat: chat}
	if err := s.hub.BroadcastRoom(ctx, chat.RoomID, event); err != nil {
		s.log.Warn().Err(err).Str("room_id", chat.RoomID).Msg("failed to broadcast chat")
	}
}

// Ensure Service can delete rooms for the hub.
var _ core.RoomDeleter = (*Service)(nil)
