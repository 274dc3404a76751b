package model

import "time"

// Default values applied when a session is created without them
const (
	DefaultSessionTitle = "Interview Session"
	DefaultCreatedBy    = "Anonymous"
)

// Session is the read-only projection of an interview room.
// The participant roster is never part of it; only its size is.
type Session struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Language         Language  `json:"language"`
	Code             string    `json:"code"`
	CreatedBy        string    `json:"createdBy"`
	CreatedAt        time.Time `json:"createdAt"`
	Link             string    `json:"link"`
	ParticipantCount int       `json:"participantCount"`
}

// CreateSessionRequest holds the optional fields accepted on creation
type CreateSessionRequest struct {
	Title     string   `json:"title"`
	Language  Language `json:"language"`
	CreatedBy string   `json:"createdBy"`
}

// SessionCode is the code snapshot served to late readers
type SessionCode struct {
	Code     string   `json:"code"`
	Language Language `json:"language"`
}
