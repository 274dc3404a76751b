package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"codeinterview/internal/clock"
	"codeinterview/internal/model"

	"github.com/google/uuid"
	"github.com/uber-go/tally/v4"
)

// SessionRepo is the in-memory table of interview sessions and their rosters.
// Mutations of one session are serialized on that session's own lock, so
// sessions never block each other.
type SessionRepo interface {
	Create(ctx context.Context, req model.CreateSessionRequest) *model.Session
	Get(ctx context.Context, id string) (*model.Session, error)
	Exists(ctx context.Context, id string) bool
	SetCode(ctx context.Context, id, code string) error
	SetLanguage(ctx context.Context, id string, lang model.Language) (*model.Session, error)
	Delete(ctx context.Context, id string) error
	DeleteIfIdle(ctx context.Context, id string, createdBefore time.Time) bool
	List(ctx context.Context) []*model.Session

	AddParticipant(ctx context.Context, sessionID, connID, name string) (*model.Participant, error)
	RemoveParticipant(ctx context.Context, sessionID, connID string) bool
	Participants(ctx context.Context, sessionID string) []*model.Participant
	Participant(ctx context.Context, sessionID, connID string) (*model.Participant, error)
	UpdateCursor(ctx context.Context, sessionID, connID string, position json.RawMessage)
}

type sessionEntry struct {
	mu           sync.Mutex
	session      model.Session
	participants map[string]*model.Participant
	order        []string // connection ids in join order
	deleted      bool
}

// snapshot must be called with e.mu held
func (e *sessionEntry) snapshot() *model.Session {
	s := e.session
	s.ParticipantCount = len(e.order)
	return &s
}

type sessionRepo struct {
	mu       sync.RWMutex
	sessions map[string]*sessionEntry
	order    []string // session ids in creation order

	linkBase string
	clock    clock.Clock
	newID    func() string
	stats    tally.Scope
}

// Option configures a SessionRepo
type Option func(*sessionRepo)

// WithLinkBase sets the frontend URL used to build share links
func WithLinkBase(base string) Option {
	return func(r *sessionRepo) {
		r.linkBase = strings.TrimRight(base, "/")
	}
}

// WithClock sets the time source for createdAt and joinedAt
func WithClock(c clock.Clock) Option {
	return func(r *sessionRepo) {
		r.clock = c
	}
}

// WithIDGenerator replaces the uuid session id generator
func WithIDGenerator(fn func() string) Option {
	return func(r *sessionRepo) {
		r.newID = fn
	}
}

// WithScope sets the metrics scope
func WithScope(scope tally.Scope) Option {
	return func(r *sessionRepo) {
		r.stats = scope
	}
}

// NewSessionRepo creates an empty session table
func NewSessionRepo(opts ...Option) SessionRepo {
	r := &sessionRepo{
		sessions: make(map[string]*sessionEntry),
		linkBase: "http://localhost:5173",
		clock:    clock.New(),
		newID:    uuid.NewString,
		stats:    tally.NoopScope,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Create inserts a session seeded with the template of its language.
// The language is not validated here; callers check it first.
func (r *sessionRepo) Create(_ context.Context, req model.CreateSessionRequest) *model.Session {
	lang := req.Language
	if lang == "" {
		lang = model.DefaultLanguage
	}
	title := req.Title
	if title == "" {
		title = model.DefaultSessionTitle
	}
	createdBy := req.CreatedBy
	if createdBy == "" {
		createdBy = model.DefaultCreatedBy
	}

	id := r.newID()
	e := &sessionEntry{
		session: model.Session{
			ID:        id,
			Title:     title,
			Language:  lang,
			Code:      DefaultTemplate(lang),
			CreatedBy: createdBy,
			CreatedAt: r.clock.Now(),
			Link:      r.linkBase + "/interview/" + id,
		},
		participants: make(map[string]*model.Participant),
	}
	snap := e.snapshot()

	r.mu.Lock()
	r.sessions[id] = e
	r.order = append(r.order, id)
	count := len(r.sessions)
	r.mu.Unlock()

	r.stats.Gauge("sessions.active").Update(float64(count))
	return snap
}

func (r *sessionRepo) entry(id string) (*sessionEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", model.ErrSessionNotFound, id)
	}
	return e, nil
}

// lock returns the live entry for id with its lock held
func (r *sessionRepo) lock(id string) (*sessionEntry, error) {
	e, err := r.entry(id)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	if e.deleted {
		e.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", model.ErrSessionNotFound, id)
	}
	return e, nil
}

func (r *sessionRepo) Get(_ context.Context, id string) (*model.Session, error) {
	e, err := r.lock(id)
	if err != nil {
		return nil, err
	}
	defer e.mu.Unlock()
	return e.snapshot(), nil
}

func (r *sessionRepo) Exists(_ context.Context, id string) bool {
	_, err := r.entry(id)
	return err == nil
}

// SetCode replaces the buffer verbatim
func (r *sessionRepo) SetCode(_ context.Context, id, code string) error {
	e, err := r.lock(id)
	if err != nil {
		return err
	}
	defer e.mu.Unlock()

	e.session.Code = code
	return nil
}

// SetLanguage switches the language and resets the buffer to its template,
// discarding whatever code was there.
func (r *sessionRepo) SetLanguage(_ context.Context, id string, lang model.Language) (*model.Session, error) {
	e, err := r.lock(id)
	if err != nil {
		return nil, err
	}
	defer e.mu.Unlock()

	e.session.Language = lang
	e.session.Code = DefaultTemplate(lang)
	return e.snapshot(), nil
}

func (r *sessionRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	e, ok := r.sessions[id]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", model.ErrSessionNotFound, id)
	}
	r.removeLocked(id)
	r.mu.Unlock()

	e.mu.Lock()
	e.deleted = true
	e.mu.Unlock()
	return nil
}

// DeleteIfIdle deletes the session only if it has no participants and was
// created before the cutoff. The check and the delete are atomic with
// respect to joins.
func (r *sessionRepo) DeleteIfIdle(_ context.Context, id string, createdBefore time.Time) bool {
	e, err := r.lock(id)
	if err != nil {
		return false
	}
	defer e.mu.Unlock()

	if len(e.order) > 0 || !e.session.CreatedAt.Before(createdBefore) {
		return false
	}
	e.deleted = true

	r.mu.Lock()
	r.removeLocked(id)
	r.mu.Unlock()
	return true
}

// removeLocked must be called with r.mu held
func (r *sessionRepo) removeLocked(id string) {
	delete(r.sessions, id)
	r.order = removeString(r.order, id)
	r.stats.Gauge("sessions.active").Update(float64(len(r.sessions)))
}

// List returns every session in creation order
func (r *sessionRepo) List(_ context.Context) []*model.Session {
	r.mu.RLock()
	entries := make([]*sessionEntry, 0, len(r.order))
	for _, id := range r.order {
		entries = append(entries, r.sessions[id])
	}
	r.mu.RUnlock()

	sessions := make([]*model.Session, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		if !e.deleted {
			sessions = append(sessions, e.snapshot())
		}
		e.mu.Unlock()
	}
	return sessions
}

// AddParticipant inserts an active participant keyed by its connection id.
// A missing name becomes "User N" where N is the roster size after insertion;
// re-adding a connection already on the roster keeps its name and position.
func (r *sessionRepo) AddParticipant(_ context.Context, sessionID, connID, name string) (*model.Participant, error) {
	e, err := r.lock(sessionID)
	if err != nil {
		return nil, err
	}
	defer e.mu.Unlock()

	existing, rejoin := e.participants[connID]
	switch {
	case name != "":
	case rejoin:
		name = existing.Name
	default:
		name = fmt.Sprintf("User %d", len(e.order)+1)
	}
	p := &model.Participant{
		ID:       connID,
		Name:     name,
		JoinedAt: r.clock.Now(),
		IsActive: true,
	}
	if !rejoin {
		e.order = append(e.order, connID)
	}
	e.participants[connID] = p
	return p.Clone(), nil
}

// RemoveParticipant reports whether a participant was actually removed
func (r *sessionRepo) RemoveParticipant(_ context.Context, sessionID, connID string) bool {
	e, err := r.lock(sessionID)
	if err != nil {
		return false
	}
	defer e.mu.Unlock()

	if _, ok := e.participants[connID]; !ok {
		return false
	}
	delete(e.participants, connID)
	e.order = removeString(e.order, connID)
	return true
}

// Participants returns the roster in join order, empty for unknown sessions
func (r *sessionRepo) Participants(_ context.Context, sessionID string) []*model.Participant {
	e, err := r.lock(sessionID)
	if err != nil {
		return []*model.Participant{}
	}
	defer e.mu.Unlock()

	list := make([]*model.Participant, 0, len(e.order))
	for _, id := range e.order {
		list = append(list, e.participants[id].Clone())
	}
	return list
}

func (r *sessionRepo) Participant(_ context.Context, sessionID, connID string) (*model.Participant, error) {
	e, err := r.lock(sessionID)
	if err != nil {
		return nil, err
	}
	defer e.mu.Unlock()

	p, ok := e.participants[connID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", model.ErrParticipantNotFound, connID)
	}
	return p.Clone(), nil
}

// UpdateCursor overwrites the last known cursor; a no-op when either the
// session or the participant is missing.
func (r *sessionRepo) UpdateCursor(_ context.Context, sessionID, connID string, position json.RawMessage) {
	e, err := r.lock(sessionID)
	if err != nil {
		return
	}
	defer e.mu.Unlock()

	if p, ok := e.participants[connID]; ok {
		p.CursorPosition = append(json.RawMessage(nil), position...)
	}
}

func removeString(list []string, s string) []string {
	for i, v := range list {
		if v == s {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}
