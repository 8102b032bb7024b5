package http

import (
	"context"
	"errors"
	"io"
	stdhttp "net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/gifchat-server/internal/auth"
	"github.com/vovakirdan/gifchat-server/internal/config"
	"github.com/vovakirdan/gifchat-server/internal/core"
	"github.com/vovakirdan/gifchat-server/internal/proto"
	"github.com/vovakirdan/gifchat-server/internal/utils"
)

// WSHandler upgrades HTTP connections and bridges them to core.Client.
type WSHandler struct {
	hub  ChatHub
	auth *auth.Service
	cfg  *config.Config
	log  *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(hub ChatHub, authService *auth.Service, cfg *config.Config, logger *zerolog.Logger) *WSHandler {
	return &WSHandler{hub: hub, auth: authService, cfg: cfg, log: logger}
}

// ServeLobby streams room creation and removal to the room list page.
func (h *WSHandler) ServeLobby(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	h.serve(w, r, core.NewLobbyClient(utils.NewID()))
}

// ServeChat joins the room named by the last path segment of the Referer.
func (h *WSHandler) ServeChat(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	connID := utils.NewID()
	roomID := core.RoomIDFromReferer(r.Referer())
	h.serve(w, r, core.NewClient(connID, h.session(r, connID), roomID))
}

func (h *WSHandler) session(r *stdhttp.Request, connID string) core.Session {
	cookie, err := r.Cookie(h.cfg.SessionCookie)
	if err == nil {
		session, err := h.auth.Resolve(cookie.Value)
		if err == nil {
			return session
		}
		h.log.Debug().Err(err).Str("conn_id", connID).Msg("invalid session cookie on websocket")
	}
	return auth.FallbackSession(connID)
}

func (h *WSHandler) serve(w stdhttp.ResponseWriter, r *stdhttp.Request, client *core.Client) {
	ctx := r.Context()

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns:     h.cfg.WSOriginPatterns,
		InsecureSkipVerify: len(h.cfg.WSOriginPatterns) == 0 && !h.cfg.IsProduction(),
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")

	if h.cfg.MaxMessageBytes > 0 {
		conn.SetReadLimit(h.cfg.MaxMessageBytes)
	}

	if err := h.hub.RegisterClient(client); err != nil {
		h.log.Warn().Err(err).Str("conn_id", client.ID).Msg("hub rejected client")
		conn.Close(websocket.StatusTryAgainLater, "server shutting down")
		return
	}
	defer h.hub.UnregisterClient(client)

	h.log.Debug().
		Str("conn_id", client.ID).
		Str("room_id", client.Room).
		Str("color", client.Session.Color).
		Msg("ws connected")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	limiter := newRateLimiter(h.cfg.WhisperRateLimit, time.Minute)

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, client, limiter)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, client)
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != -1 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = "connection error"
			h.log.Warn().Err(err).Str("conn_id", client.ID).Msg("ws connection closed with error")
		}
	}

	conn.Close(status, reason)
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, client *core.Client, limiter *rateLimiter) error {
	for {
		var inbound proto.Inbound
		if err := wsjson.Read(ctx, conn, &inbound); err != nil {
			return err
		}

		cmd, protoErr, err := inboundToCommand(inbound)
		if err != nil {
			protoErr = &proto.Error{Code: core.ErrCodeBadRequest, Msg: "malformed message data"}
		}
		if protoErr == nil && cmd.Kind == core.CommandWhisper && !limiter.allow() {
			protoErr = &proto.Error{Code: core.ErrCodeRateLimited, Msg: "too many whispers"}
		}
		if protoErr != nil {
			if writeErr := wsjson.Write(ctx, conn, proto.Outbound{
				Type:  proto.OutboundTypeError,
				Error: protoErr,
			}); writeErr != nil {
				return writeErr
			}
			continue
		}

		select {
		case client.Commands <- cmd:
		case <-client.Done():
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	for {
		select {
		case event, ok := <-client.Events:
			if !ok {
				return nil
			}
			if err := wsjson.Write(ctx, conn, outboundFromEvent(event)); err != nil {
				h.log.Error().Err(err).Str("conn_id", client.ID).Msg("write ws event")
				return err
			}
		case <-client.Done():
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
