package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/gifchat-server/internal/auth"
	"github.com/vovakirdan/gifchat-server/internal/config"
	"github.com/vovakirdan/gifchat-server/internal/core"
	"github.com/vovakirdan/gifchat-server/internal/service/rooms"
	"github.com/vovakirdan/gifchat-server/internal/upload"
)

// ChatHub is the part of the core hub used by websocket connections.
type ChatHub interface {
	RegisterClient(c *core.Client) error
	UnregisterClient(c *core.Client)
}

// NewServer builds an HTTP server with all routes.
func NewServer(
	hub ChatHub,
	roomService *rooms.Service,
	authService *auth.Service,
	uploads *upload.Storage,
	cfg *config.Config,
	logger *zerolog.Logger,
) *stdhttp.Server {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(LoggerMiddleware(logger))
	router.Use(RecoveryMiddleware(cfg, logger))

	router.GET("/health", healthHandler)

	if uploads != nil {
		router.Static("/gif", uploads.Dir())
	}

	roomHandlers := NewRoomHandlers(roomService, cfg, logger)
	api := router.Group("/", SessionMiddleware(authService, cfg, logger))
	{
		api.GET("/session", sessionHandler)
		api.GET("/rooms", roomHandlers.ListRooms)
		api.POST("/room", roomHandlers.CreateRoom)
		api.GET("/room/:id", roomHandlers.EnterRoom)
		api.DELETE("/room/:id", roomHandlers.DeleteRoom)
		api.POST("/room/:id/chat", roomHandlers.PostChat)
		api.POST("/room/:id/gif", roomHandlers.PostGIF)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(stdhttp.StatusNotFound, ErrorResponse{Error: "not found"})
	})

	// Websockets bypass gin: Accept must hijack the raw ResponseWriter.
	// They resolve the session cookie themselves and fall back to the connection id.
	wsHandler := NewWSHandler(hub, authService, cfg, logger)
	mux := stdhttp.NewServeMux()
	mux.HandleFunc("GET /ws/lobby", wsHandler.ServeLobby)
	mux.HandleFunc("GET /ws/chat", wsHandler.ServeChat)
	mux.Handle("/", router)

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
