package model

import "encoding/json"

// EventType names a WebSocket event
type EventType string

// Inbound events sent by a connection
const (
	EventJoinRoom        EventType = "join-room"
	EventLeaveRoom       EventType = "leave-room"
	EventCodeChange      EventType = "code-change"
	EventLanguageChange  EventType = "language-change"
	EventCursorChange    EventType = "cursor-change"
	EventSelectionChange EventType = "selection-change"
	EventTypingStart     EventType = "typing-start"
	EventTypingStop      EventType = "typing-stop"
	EventChatMessage     EventType = "chat-message"
)

// Outbound events emitted by the relay
const (
	EventRoomJoined        EventType = "room-joined"
	EventParticipantJoined EventType = "participant-joined"
	EventParticipantLeft   EventType = "participant-left"
	EventCodeUpdate        EventType = "code-update"
	EventLanguageUpdate    EventType = "language-update"
	EventCursorUpdate      EventType = "cursor-update"
	EventSelectionUpdate   EventType = "selection-update"
	EventUserTyping        EventType = "user-typing"
	EventRoomLeft          EventType = "room-left"
	EventError             EventType = "error"
)

// Message is the WebSocket envelope format.
// chat-message travels in both directions under the same name.
type Message struct {
	Type    EventType       `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Inbound payloads

type JoinRoomRequest struct {
	SessionID string `json:"sessionId"`
	UserName  string `json:"userName"`
}

type LeaveRoomRequest struct {
	SessionID string `json:"sessionId"`
}

type CodeChangeRequest struct {
	SessionID      string          `json:"sessionId"`
	Code           string          `json:"code"`
	CursorPosition json.RawMessage `json:"cursorPosition,omitempty"`
}

type LanguageChangeRequest struct {
	SessionID string `json:"sessionId"`
	Language  string `json:"language"`
}

type CursorChangeRequest struct {
	SessionID string          `json:"sessionId"`
	Position  json.RawMessage `json:"position"`
}

type SelectionChangeRequest struct {
	SessionID string          `json:"sessionId"`
	Selection json.RawMessage `json:"selection"`
}

type TypingRequest struct {
	SessionID string `json:"sessionId"`
}

type ChatMessageRequest struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
}

// Outbound payloads

type RoomJoinedEvent struct {
	SessionID    string         `json:"sessionId"`
	Participant  *Participant   `json:"participant"`
	Session      *Session       `json:"session"`
	Participants []*Participant `json:"participants"`
}

type ParticipantJoinedEvent struct {
	Participant  *Participant   `json:"participant"`
	Participants []*Participant `json:"participants"`
}

type ParticipantLeftEvent struct {
	ParticipantID string         `json:"participantId"`
	Participants  []*Participant `json:"participants"`
}

type CodeUpdateEvent struct {
	Code           string          `json:"code"`
	SenderID       string          `json:"senderId"`
	CursorPosition json.RawMessage `json:"cursorPosition,omitempty"`
}

type LanguageUpdateEvent struct {
	Language Language `json:"language"`
	Code     string   `json:"code"`
	SenderID string   `json:"senderId"`
}

type CursorUpdateEvent struct {
	ParticipantID string          `json:"participantId"`
	Position      json.RawMessage `json:"position"`
}

type SelectionUpdateEvent struct {
	ParticipantID string          `json:"participantId"`
	Selection     json.RawMessage `json:"selection"`
}

type UserTypingEvent struct {
	ParticipantID string `json:"participantId"`
	IsTyping      bool   `json:"isTyping"`
}

type ChatMessageEvent struct {
	SenderID   string `json:"senderId"`
	SenderName string `json:"senderName"`
	Message    string `json:"message"`
	Timestamp  string `json:"timestamp"`
}

type RoomLeftEvent struct {
	SessionID string `json:"sessionId"`
}

type ErrorEvent struct {
	Type    ErrorCode `json:"type"`
	Message string    `json:"message"`
}
