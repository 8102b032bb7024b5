package http

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/gifchat-server/internal/auth"
	"github.com/vovakirdan/gifchat-server/internal/config"
)

// ContextKeySession is the context key for storing the caller's core.Session.
const ContextKeySession = "session"

// SessionMiddleware attaches the session from the cookie, issuing a new one when
// the cookie is missing or no longer valid.
func SessionMiddleware(authService *auth.Service, cfg *config.Config, logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, err := c.Cookie(cfg.SessionCookie); err == nil {
			session, err := authService.Resolve(token)
			if err == nil {
				c.Set(ContextKeySession, session)
				c.Next()
				return
			}
			logger.Debug().Err(err).Msg("discarding session cookie")
		}

		session, token, err := authService.NewSession()
		if err != nil {
			internalError(c, cfg, logger, err, "failed to issue session")
			c.Abort()
			return
		}

		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(
			cfg.SessionCookie,
			token,
			int(cfg.SessionTTL.Seconds()),
			"/",
			"",
			cfg.IsProduction(), // secure
			true,               // httpOnly
		)
		logger.Debug().Str("color", session.Color).Msg("session issued")

		c.Set(ContextKeySession, session)
		c.Next()
	}
}

// LoggerMiddleware creates a middleware that logs HTTP requests.
func LoggerMiddleware(logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Process request
		c.Next()

		// Log after request
		logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Msg("http request")
	}
}

// RecoveryMiddleware turns panics into a 500 JSON response.
func RecoveryMiddleware(cfg *config.Config, logger *zerolog.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		internalError(c, cfg, logger, fmt.Errorf("panic: %v", recovered), "handler panicked")
		c.Abort()
	})
}
