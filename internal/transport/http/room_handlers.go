package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/gifchat-server/internal/config"
	"github.com/vovakirdan/gifchat-server/internal/proto"
	"github.com/vovakirdan/gifchat-server/internal/service/rooms"
	"github.com/vovakirdan/gifchat-server/internal/upload"
)

// RoomHandlers provides HTTP handlers for room management endpoints.
type RoomHandlers struct {
	rooms *rooms.Service
	cfg   *config.Config
	log   *zerolog.Logger
}

// NewRoomHandlers creates a new room handlers instance.
func NewRoomHandlers(roomService *rooms.Service, cfg *config.Config, logger *zerolog.Logger) *RoomHandlers {
	return &RoomHandlers{
		rooms: roomService,
		cfg:   cfg,
		log:   logger,
	}
}

// CreateRoomRequest represents the create room request body.
type CreateRoomRequest struct {
	Title    string `json:"title" binding:"required"`
	Max      int    `json:"max"`
	Password string `json:"password"`
}

// EnterRoomResponse is returned when a room is entered.
type EnterRoomResponse struct {
	Room  proto.RoomSummary `json:"room"`
	Chats []proto.Chat      `json:"chats"`
}

// PostChatRequest represents a text chat line.
type PostChatRequest struct {
	Chat string `json:"chat"`
}

// ListRooms handles listing rooms.
// GET /rooms
func (h *RoomHandlers) ListRooms(c *gin.Context) {
	list, err := h.rooms.List(c.Request.Context())
	if err != nil {
		internalError(c, h.cfg, h.log, err, "failed to list rooms")
		return
	}

	response := make([]proto.RoomSummary, 0, len(list))
	for _, room := range list {
		response = append(response, roomSummary(room))
	}
	c.JSON(http.StatusOK, response)
}

// CreateRoom handles room creation. The caller's color becomes the owner.
// POST /room
func (h *RoomHandlers) CreateRoom(c *gin.Context) {
	session, ok := sessionFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "no session"})
		return
	}

	var req CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid create room request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	room, err := h.rooms.Create(c.Request.Context(), rooms.CreateParams{
		Title:    req.Title,
		Max:      req.Max,
		Password: req.Password,
		Owner:    session.Color,
	})
	if err != nil {
		h.respondError(c, err, "failed to create room")
		return
	}

	c.JSON(http.StatusCreated, roomSummary(room))
}

// EnterRoom checks password and capacity and returns the room with its history.
// GET /room/:id?password=
func (h *RoomHandlers) EnterRoom(c *gin.Context) {
	room, chats, err := h.rooms.Enter(c.Request.Context(), c.Param("id"), c.Query("password"))
	if err != nil {
		h.respondError(c, err, "failed to enter room")
		return
	}

	response := EnterRoomResponse{Room: roomSummary(room), Chats: make([]proto.Chat, 0, len(chats))}
	for _, chat := range chats {
		response.Chats = append(response.Chats, chatFromStore(chat))
	}
	c.JSON(http.StatusOK, response)
}

// DeleteRoom removes a room on request.
// DELETE /room/:id
func (h *RoomHandlers) DeleteRoom(c *gin.Context) {
	session, ok := sessionFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "no session"})
		return
	}

	if err := h.rooms.Delete(c.Request.Context(), c.Param("id"), session); err != nil {
		h.respondError(c, err, "failed to delete room")
		return
	}
	c.Status(http.StatusNoContent)
}

// PostChat stores a text line and broadcasts it to the room.
// POST /room/:id/chat
func (h *RoomHandlers) PostChat(c *gin.Context) {
	session, ok := sessionFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "no session"})
		return
	}

	var req PostChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	chat, err := h.rooms.PostChat(c.Request.Context(), c.Param("id"), session, req.Chat)
	if err != nil {
		h.respondError(c, err, "failed to post chat")
		return
	}
	c.JSON(http.StatusCreated, chatFromStore(chat))
}

// PostGIF accepts a multipart upload in field "gif".
// POST /room/:id/gif
func (h *RoomHandlers) PostGIF(c *gin.Context) {
	session, ok := sessionFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "no session"})
		return
	}

	// Leave room for the multipart envelope around the file itself.
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.cfg.MaxUploadBytes+1<<20)

	header, err := c.FormFile("gif")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: "file too large"})
			return
		}
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing gif file"})
		return
	}

	file, err := header.Open()
	if err != nil {
		internalError(c, h.cfg, h.log, err, "failed to open upload")
		return
	}
	defer file.Close()

	chat, err := h.rooms.PostGIF(c.Request.Context(), c.Param("id"), session, header.Filename, file)
	if err != nil {
		h.respondError(c, err, "failed to post gif")
		return
	}
	c.JSON(http.StatusCreated, chatFromStore(chat))
}

func (h *RoomHandlers) respondError(c *gin.Context, err error, msg string) {
	switch {
	case errors.Is(err, rooms.ErrRoomNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "room not found"})
	case errors.Is(err, rooms.ErrWrongPassword):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "wrong password"})
	case errors.Is(err, rooms.ErrRoomOccupied):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "room still has participants"})
	case errors.Is(err, rooms.ErrRoomFull):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "room is full"})
	case errors.Is(err, rooms.ErrInvalidRoom), errors.Is(err, rooms.ErrEmptyChat), errors.Is(err, upload.ErrEmpty):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case errors.Is(err, upload.ErrTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: "file too large"})
	case errors.Is(err, rooms.ErrNoUploads):
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "uploads are disabled"})
	default:
		internalError(c, h.cfg, h.log, err, msg)
	}
}
