package core

import "errors"

// Error codes for domain errors.
const (
	ErrCodeBadRequest  = "bad_request"
	ErrCodeRateLimited = "rate_limited"
)

// Whisper validation messages, sent to the sender as whisper:error.
const (
	MsgWhisperMissing = "recipient or message missing"
	MsgWhisperNotHere = "recipient not in room"
	MsgWhisperSelf    = "cannot whisper yourself"
)

// ErrHubStopped is returned by hub calls made after Run has returned.
var ErrHubStopped = errors.New("hub stopped")

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}
