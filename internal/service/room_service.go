package service

import (
	"context"
	"encoding/json"
	"sync"

	"codeinterview/internal/model"
	"codeinterview/internal/repository"
)

// RoomService tracks which room each connection occupies and fronts the
// participant operations of the session store.
type RoomService struct {
	sessions repository.SessionRepo

	mu      sync.RWMutex
	rooms   map[string]string   // connection id -> session id
	members map[string][]string // session id -> connection ids in attach order
}

// NewRoomService creates a new room registry
func NewRoomService(sessions repository.SessionRepo) *RoomService {
	return &RoomService{
		sessions: sessions,
		rooms:    make(map[string]string),
		members:  make(map[string][]string),
	}
}

// AddParticipant inserts a participant into the session roster. It does not
// touch the connection's room membership.
func (s *RoomService) AddParticipant(ctx context.Context, sessionID, connID, name string) (*model.Participant, error) {
	return s.sessions.AddParticipant(ctx, sessionID, connID, name)
}

// RemoveParticipant is idempotent; it reports false when nothing was removed.
func (s *RoomService) RemoveParticipant(ctx context.Context, sessionID, connID string) bool {
	return s.sessions.RemoveParticipant(ctx, sessionID, connID)
}

func (s *RoomService) ListParticipants(ctx context.Context, sessionID string) []*model.Participant {
	return s.sessions.Participants(ctx, sessionID)
}

func (s *RoomService) UpdateCursor(ctx context.Context, sessionID, connID string, position json.RawMessage) {
	s.sessions.UpdateCursor(ctx, sessionID, connID, position)
}

// CurrentRoomOf returns the session the connection is attached to
func (s *RoomService) CurrentRoomOf(connID string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessionID, ok := s.rooms[connID]
	return sessionID, ok
}

// Attach records connID as a member of sessionID. A connection belongs to
// at most one room, so any previous membership is dropped.
func (s *RoomService) Attach(connID, sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.rooms[connID]; ok {
		if prev == sessionID {
			return
		}
		s.detachLocked(connID, prev)
	}
	s.rooms[connID] = sessionID
	s.members[sessionID] = append(s.members[sessionID], connID)
}

// Detach removes the connection from its room and returns that room
func (s *RoomService) Detach(connID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessionID, ok := s.rooms[connID]
	if !ok {
		return "", false
	}
	s.detachLocked(connID, sessionID)
	return sessionID, true
}

func (s *RoomService) detachLocked(connID, sessionID string) {
	delete(s.rooms, connID)
	rest := removeMember(s.members[sessionID], connID)
	if len(rest) == 0 {
		delete(s.members, sessionID)
		return
	}
	s.members[sessionID] = rest
}

// Members returns the connections attached to the session
func (s *RoomService) Members(sessionID string) []string {
	return s.MembersExcept(sessionID, "")
}

// MembersExcept returns the connections attached to the session minus connID
func (s *RoomService) MembersExcept(sessionID, connID string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.members[sessionID]
	out := make([]string, 0, len(list))
	for _, id := range list {
		if id != connID {
			out = append(out, id)
		}
	}
	return out
}

func removeMember(list []string, connID string) []string {
	out := list[:0:0]
	for _, id := range list {
		if id != connID {
			out = append(out, id)
		}
	}
	return out
}
