package app

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/gifchat-server/internal/auth"
	"github.com/vovakirdan/gifchat-server/internal/config"
	"github.com/vovakirdan/gifchat-server/internal/core"
	"github.com/vovakirdan/gifchat-server/internal/service/rooms"
	"github.com/vovakirdan/gifchat-server/internal/store"
	"github.com/vovakirdan/gifchat-server/internal/store/sqlite"
	transporthttp "github.com/vovakirdan/gifchat-server/internal/transport/http"
	"github.com/vovakirdan/gifchat-server/internal/upload"
)

// App wires together core and transport layers.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	hub             *core.Hub
	store           store.Store
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	// Initialize database store
	st, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	logger.Info().Str("db_path", cfg.DatabasePath).Msg("database initialized")

	uploads, err := upload.New(cfg.UploadDir, cfg.MaxUploadBytes)
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("init uploads: %w", err)
	}

	logger.Info().Str("upload_dir", uploads.Dir()).Int64("max_bytes", uploads.MaxBytes()).Msg("upload storage initialized")

	// The room service deletes rooms for the hub and broadcasts through it.
	roomService := rooms.New(st, uploads, logger)
	hub := core.NewHub(roomService, logger, core.WithDeleteTimeout(cfg.RoomDeleteTimeout))
	roomService.Attach(hub)

	authService := auth.NewService(&auth.JWTConfig{
		Secret: []byte(cfg.SessionSecret),
		Issuer: "gifchat",
		TTL:    cfg.SessionTTL,
	})

	server := transporthttp.NewServer(hub, roomService, authService, uploads, cfg, logger)

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		hub:             hub,
		store:           st,
		log:             logger,
	}, nil
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	go a.hub.Run(hubCtx)

	go func() {
		a.log.Info().Str("addr", a.server.Addr).Msg("http server listening")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		stopHub()
		a.hub.Wait()
		a.cleanup()
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		// Stopping the hub first closes live websockets, which Shutdown does not track.
		// Rooms still occupied at that point are deleted before the store closes.
		stopHub()
		shutdownErr := a.server.Shutdown(shutdownCtx)
		a.hub.Wait()
		a.cleanup()
		if shutdownErr != nil {
			return shutdownErr
		}
		return <-serverErr
	}
}

// cleanup closes database and other resources.
func (a *App) cleanup() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		} else {
			a.log.Info().Msg("store closed")
		}
	}
}
