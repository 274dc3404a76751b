package service

import "codeinterview/internal/model"

//go:generate mockgen -destination=servicemock/broadcaster_mock.go -package=servicemock codeinterview/internal/service Broadcaster

// Broadcaster delivers relay events to connections (avoids import cycle with ws).
// Delivery is fire-and-forget; the audience is fixed when Emit is called.
type Broadcaster interface {
	Emit(connIDs []string, event model.EventType, payload interface{})
}
