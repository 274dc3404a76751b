package model

import (
	"encoding/json"
	"time"
)

// Participant is one connection's presence record within a session
type Participant struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	JoinedAt       time.Time       `json:"joinedAt"`
	IsActive       bool            `json:"isActive"`
	CursorPosition json.RawMessage `json:"cursorPosition"`
}

// Clone returns a copy that shares nothing with the receiver.
func (p *Participant) Clone() *Participant {
	c := *p
	if p.CursorPosition != nil {
		c.CursorPosition = append(json.RawMessage(nil), p.CursorPosition...)
	}
	return &c
}
