package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"codeinterview/internal/clock"
	"codeinterview/internal/model"
	"codeinterview/internal/repository"

	"github.com/uber-go/tally/v4"
	"go.uber.org/zap"
)

const (
	anonymousSender = "Anonymous"
	chatTimeFormat  = "2006-01-02T15:04:05.000Z"
)

var errEmptyPayload = errors.New("empty payload")

// Relay is the real-time front of the interview rooms. It validates that an
// inbound event comes from a member of the room it names, applies it to the
// session store and emits the result to the right audience.
//
// Every event touching a room runs under that room's lock, so peers observe
// emits in the same order the store applied them.
type Relay struct {
	sessions repository.SessionRepo
	rooms    *RoomService
	out      Broadcaster
	clock    clock.Clock
	locks    *roomLocks
	logger   *zap.SugaredLogger
	stats    tally.Scope
}

// NewRelay creates a new event relay
func NewRelay(
	sessions repository.SessionRepo,
	rooms *RoomService,
	out Broadcaster,
	clk clock.Clock,
	logger *zap.SugaredLogger,
	stats tally.Scope,
) *Relay {
	return &Relay{
		sessions: sessions,
		rooms:    rooms,
		out:      out,
		clock:    clk,
		locks:    newRoomLocks(),
		logger:   logger,
		stats:    stats,
	}
}

// Handle decodes an inbound envelope and dispatches it. Malformed frames are
// answered with INVALID_PAYLOAD; nothing here closes the connection.
func (r *Relay) Handle(ctx context.Context, connID string, msg *model.Message) {
	r.stats.Tagged(map[string]string{"event": string(msg.Type)}).Counter("relay.events").Inc(1)

	var err error
	switch msg.Type {
	case model.EventJoinRoom:
		var req model.JoinRoomRequest
		if err = decode(msg, &req); err == nil {
			r.Join(ctx, connID, req)
		}
	case model.EventLeaveRoom:
		var req model.LeaveRoomRequest
		if err = decode(msg, &req); err == nil {
			r.Leave(ctx, connID, req)
		}
	case model.EventCodeChange:
		var req model.CodeChangeRequest
		if err = decode(msg, &req); err == nil {
			r.CodeChange(ctx, connID, req)
		}
	case model.EventLanguageChange:
		var req model.LanguageChangeRequest
		if err = decode(msg, &req); err == nil {
			r.LanguageChange(ctx, connID, req)
		}
	case model.EventCursorChange:
		var req model.CursorChangeRequest
		if err = decode(msg, &req); err == nil {
			r.CursorChange(ctx, connID, req)
		}
	case model.EventSelectionChange:
		var req model.SelectionChangeRequest
		if err = decode(msg, &req); err == nil {
			r.SelectionChange(ctx, connID, req)
		}
	case model.EventTypingStart, model.EventTypingStop:
		var req model.TypingRequest
		if err = decode(msg, &req); err == nil {
			r.Typing(ctx, connID, req, msg.Type == model.EventTypingStart)
		}
	case model.EventChatMessage:
		var req model.ChatMessageRequest
		if err = decode(msg, &req); err == nil {
			r.ChatMessage(ctx, connID, req)
		}
	default:
		err = fmt.Errorf("unknown event type %q", msg.Type)
	}

	if err != nil {
		r.logger.Debugw("rejecting malformed event", "conn", connID, "type", msg.Type, "error", err)
		r.reject(connID, model.ErrCodeInvalidPayload, "Invalid event payload")
	}
}

func decode(msg *model.Message, v interface{}) error {
	if len(msg.Payload) == 0 {
		return errEmptyPayload
	}
	return json.Unmarshal(msg.Payload, v)
}

// Join moves the connection into req.SessionID. The caller is added to the
// target roster before its current room is touched, so a join that fails
// for any reason leaves the connection where it was. Joining the room it
// already occupies refreshes its roster entry in place.
func (r *Relay) Join(ctx context.Context, connID string, req model.JoinRoomRequest) {
	if !r.sessions.Exists(ctx, req.SessionID) {
		r.reject(connID, model.ErrCodeSessionNotFound, "Session not found")
		return
	}

	prev, joined := r.rooms.CurrentRoomOf(connID)
	moving := joined && prev != req.SessionID

	var unlock func()
	if moving {
		unlock = r.locks.LockPair(prev, req.SessionID)
	} else {
		unlock = r.locks.Lock(req.SessionID)
	}
	defer unlock()

	participant, err := r.rooms.AddParticipant(ctx, req.SessionID, connID, req.UserName)
	if err != nil {
		r.reject(connID, model.ErrCodeSessionNotFound, "Session not found")
		return
	}
	session, err := r.sessions.Get(ctx, req.SessionID)
	if err != nil {
		r.rooms.RemoveParticipant(ctx, req.SessionID, connID)
		r.reject(connID, model.ErrCodeSessionNotFound, "Session not found")
		return
	}

	if moving {
		r.leaveLocked(ctx, connID, prev, false)
	}
	r.rooms.Attach(connID, req.SessionID)
	participants := r.rooms.ListParticipants(ctx, req.SessionID)

	r.logger.Infow("participant joined", "session", req.SessionID, "conn", connID, "name", participant.Name)

	r.emit([]string{connID}, model.EventRoomJoined, model.RoomJoinedEvent{
		SessionID:    req.SessionID,
		Participant:  participant,
		Session:      session,
		Participants: participants,
	})
	r.emit(r.rooms.MembersExcept(req.SessionID, connID), model.EventParticipantJoined, model.ParticipantJoinedEvent{
		Participant:  participant,
		Participants: participants,
	})
}

// Leave is honored only when the connection is in exactly req.SessionID.
func (r *Relay) Leave(ctx context.Context, connID string, req model.LeaveRoomRequest) {
	current, ok := r.rooms.CurrentRoomOf(connID)
	if !ok || current != req.SessionID {
		r.logger.Debugw("ignoring leave for foreign room", "conn", connID, "session", req.SessionID)
		return
	}
	r.leaveRoom(ctx, connID, current, true)
}

// Disconnect runs the leave sequence without acknowledging the connection.
func (r *Relay) Disconnect(ctx context.Context, connID string) {
	if current, ok := r.rooms.CurrentRoomOf(connID); ok {
		r.leaveRoom(ctx, connID, current, false)
	}
}

func (r *Relay) leaveRoom(ctx context.Context, connID, sessionID string, ack bool) {
	unlock := r.locks.Lock(sessionID)
	defer unlock()

	r.leaveLocked(ctx, connID, sessionID, ack)
}

// leaveLocked must be called with the room lock of sessionID held
func (r *Relay) leaveLocked(ctx context.Context, connID, sessionID string, ack bool) {
	r.rooms.Detach(connID)
	r.rooms.RemoveParticipant(ctx, sessionID, connID)
	participants := r.rooms.ListParticipants(ctx, sessionID)

	r.logger.Infow("participant left", "session", sessionID, "conn", connID)

	r.emit(r.rooms.Members(sessionID), model.EventParticipantLeft, model.ParticipantLeftEvent{
		ParticipantID: connID,
		Participants:  participants,
	})
	if ack {
		r.emit([]string{connID}, model.EventRoomLeft, model.RoomLeftEvent{SessionID: sessionID})
	}
}

// CodeChange stores the new buffer and sends it to every other member.
func (r *Relay) CodeChange(ctx context.Context, connID string, req model.CodeChangeRequest) {
	unlock := r.locks.Lock(req.SessionID)
	defer unlock()

	if !r.isMember(connID, req.SessionID) {
		r.reject(connID, model.ErrCodeNotInSession, "Not in session")
		return
	}
	if err := r.sessions.SetCode(ctx, req.SessionID, req.Code); err != nil {
		r.reject(connID, model.ErrCodeSessionNotFound, "Session not found")
		return
	}

	r.emit(r.rooms.MembersExcept(req.SessionID, connID), model.EventCodeUpdate, model.CodeUpdateEvent{
		Code:           req.Code,
		SenderID:       connID,
		CursorPosition: req.CursorPosition,
	})
}

// LanguageChange switches the language, which resets the code to the
// language template, and sends both to the whole room including the sender.
func (r *Relay) LanguageChange(ctx context.Context, connID string, req model.LanguageChangeRequest) {
	unlock := r.locks.Lock(req.SessionID)
	defer unlock()

	if !r.isMember(connID, req.SessionID) {
		r.reject(connID, model.ErrCodeNotInSession, "Not in session")
		return
	}
	lang := model.Language(req.Language)
	if !lang.Valid() {
		r.reject(connID, model.ErrCodeInvalidLanguage, fmt.Sprintf("Unsupported language: %s", req.Language))
		return
	}
	session, err := r.sessions.SetLanguage(ctx, req.SessionID, lang)
	if err != nil {
		r.reject(connID, model.ErrCodeSessionNotFound, "Session not found")
		return
	}

	r.logger.Infow("language changed", "session", req.SessionID, "conn", connID, "language", lang)

	r.emit(r.rooms.Members(req.SessionID), model.EventLanguageUpdate, model.LanguageUpdateEvent{
		Language: session.Language,
		Code:     session.Code,
		SenderID: connID,
	})
}

// CursorChange is best-effort: non-members are dropped silently.
func (r *Relay) CursorChange(ctx context.Context, connID string, req model.CursorChangeRequest) {
	unlock := r.locks.Lock(req.SessionID)
	defer unlock()

	if !r.isMember(connID, req.SessionID) {
		r.drop(connID, model.EventCursorChange)
		return
	}
	r.rooms.UpdateCursor(ctx, req.SessionID, connID, req.Position)

	r.emit(r.rooms.MembersExcept(req.SessionID, connID), model.EventCursorUpdate, model.CursorUpdateEvent{
		ParticipantID: connID,
		Position:      req.Position,
	})
}

func (r *Relay) SelectionChange(_ context.Context, connID string, req model.SelectionChangeRequest) {
	unlock := r.locks.Lock(req.SessionID)
	defer unlock()

	if !r.isMember(connID, req.SessionID) {
		r.drop(connID, model.EventSelectionChange)
		return
	}
	r.emit(r.rooms.MembersExcept(req.SessionID, connID), model.EventSelectionUpdate, model.SelectionUpdateEvent{
		ParticipantID: connID,
		Selection:     req.Selection,
	})
}

// Typing relays typing-start (typing=true) and typing-stop.
func (r *Relay) Typing(_ context.Context, connID string, req model.TypingRequest, typing bool) {
	unlock := r.locks.Lock(req.SessionID)
	defer unlock()

	if !r.isMember(connID, req.SessionID) {
		event := model.EventTypingStop
		if typing {
			event = model.EventTypingStart
		}
		r.drop(connID, event)
		return
	}
	r.emit(r.rooms.MembersExcept(req.SessionID, connID), model.EventUserTyping, model.UserTypingEvent{
		ParticipantID: connID,
		IsTyping:      typing,
	})
}

// ChatMessage sends the message to the whole room with the sender's display
// name and a server timestamp.
func (r *Relay) ChatMessage(ctx context.Context, connID string, req model.ChatMessageRequest) {
	unlock := r.locks.Lock(req.SessionID)
	defer unlock()

	if !r.isMember(connID, req.SessionID) {
		r.reject(connID, model.ErrCodeNotInSession, "Not in session")
		return
	}

	name := anonymousSender
	if p, err := r.sessions.Participant(ctx, req.SessionID, connID); err == nil {
		name = p.Name
	}

	r.emit(r.rooms.Members(req.SessionID), model.EventChatMessage, model.ChatMessageEvent{
		SenderID:   connID,
		SenderName: name,
		Message:    req.Message,
		Timestamp:  r.clock.Now().UTC().Format(chatTimeFormat),
	})
}

func (r *Relay) isMember(connID, sessionID string) bool {
	current, ok := r.rooms.CurrentRoomOf(connID)
	return ok && current == sessionID
}

func (r *Relay) emit(connIDs []string, event model.EventType, payload interface{}) {
	if len(connIDs) == 0 {
		return
	}
	r.out.Emit(connIDs, event, payload)
}

// reject sends an error event to connID alone
func (r *Relay) reject(connID string, code model.ErrorCode, message string) {
	r.stats.Tagged(map[string]string{"code": string(code)}).Counter("relay.rejected").Inc(1)
	r.out.Emit([]string{connID}, model.EventError, model.ErrorEvent{Type: code, Message: message})
}

func (r *Relay) drop(connID string, event model.EventType) {
	r.logger.Debugw("dropping event from non-member", "conn", connID, "event", event)
}
