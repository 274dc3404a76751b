package model

import "errors"

// Domain errors
var (
	ErrSessionNotFound     = errors.New("session not found")
	ErrParticipantNotFound = errors.New("participant not found in session")
	ErrInvalidLanguage     = errors.New("invalid language")
)

// ErrorCode is the machine-readable code carried by HTTP and WebSocket errors
type ErrorCode string

const (
	ErrCodeSessionNotFound ErrorCode = "SESSION_NOT_FOUND"
	ErrCodeNotInSession    ErrorCode = "NOT_IN_SESSION"
	ErrCodeInvalidLanguage ErrorCode = "INVALID_LANGUAGE"
	ErrCodeInvalidPayload  ErrorCode = "INVALID_PAYLOAD"
	ErrCodeInvalidRequest  ErrorCode = "INVALID_REQUEST"
	ErrCodeRateLimited     ErrorCode = "RATE_LIMITED"
	ErrCodeNotFound        ErrorCode = "NOT_FOUND"
)
