package auth

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/vovakirdan/gifchat-server/internal/color"
	"github.com/vovakirdan/gifchat-server/internal/core"
)

// ErrInvalidSession is returned when a session token cannot be used.
var ErrInvalidSession = errors.New("invalid session")

// Service issues and resolves anonymous chat sessions.
type Service struct {
	jwtConfig *JWTConfig
}

// NewService creates a new session service.
func NewService(jwtConfig *JWTConfig) *Service {
	return &Service{jwtConfig: jwtConfig}
}

// NewSession creates a session with a fresh id and its color, and the token carrying both.
// The color is computed here once; later requests read it back from the token.
func (s *Service) NewSession() (core.Session, string, error) {
	id := uuid.NewString()
	session := core.Session{ID: id, Color: color.Derive(id)}

	token, err := GenerateToken(s.jwtConfig, session.ID, session.Color)
	if err != nil {
		return core.Session{}, "", fmt.Errorf("generate token: %w", err)
	}
	return session, token, nil
}

// Resolve returns the session stored in token.
func (s *Service) Resolve(token string) (core.Session, error) {
	if token == "" {
		return core.Session{}, ErrInvalidSession
	}
	claims, err := ValidateToken(s.jwtConfig, token)
	if err != nil {
		return core.Session{}, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	return core.Session{ID: claims.SessionID, Color: claims.Color}, nil
}

// FallbackSession is used for connections that arrive without a session;
// the identity is the connection id itself.
func FallbackSession(connID string) core.Session {
	return core.Session{ID: connID, Color: color.Derive(connID)}
}
