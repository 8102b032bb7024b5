package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/gifchat-server/internal/config"
	"github.com/vovakirdan/gifchat-server/internal/core"
)

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// SessionResponse describes the caller's anonymous identity.
type SessionResponse struct {
	Color string `json:"color"`
}

// GET /session
func sessionHandler(c *gin.Context) {
	session, ok := sessionFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "no session"})
		return
	}
	c.JSON(http.StatusOK, SessionResponse{Color: session.Color})
}

func sessionFrom(c *gin.Context) (core.Session, bool) {
	value, exists := c.Get(ContextKeySession)
	if !exists {
		return core.Session{}, false
	}
	session, ok := value.(core.Session)
	return session, ok
}

// internalError logs err and answers 500. Details are only exposed outside production.
func internalError(c *gin.Context, cfg *config.Config, logger *zerolog.Logger, err error, msg string) {
	logger.Error().Err(err).Str("path", c.Request.URL.Path).Msg(msg)
	resp := ErrorResponse{Error: "internal server error"}
	if !cfg.IsProduction() && err != nil {
		resp.Details = err.Error()
	}
	c.JSON(http.StatusInternalServerError, resp)
}
