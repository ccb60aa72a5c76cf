package app

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/HendryAvila/ikitsuke/internal/geo"
	"github.com/HendryAvila/ikitsuke/internal/notes"
	"github.com/HendryAvila/ikitsuke/internal/recommend"
)

// ErrUnknownSession is returned when a session id is not registered.
var ErrUnknownSession = fmt.Errorf("unknown session: %w", notes.ErrInvalidCredentials)

// newSessionID is a package-level var to allow test injection.
var newSessionID = uuid.NewString

// Session is the per-user interaction context. Handlers on the same
// session are serialized by mu.
type Session struct {
	ID string

	mu                sync.Mutex
	user              notes.User
	location          *geo.Point
	locationAt        time.Time
	selectedNoteID    string
	recommendedNoteID string
	recommendation    *recommend.Session
	searchResults     []notes.Note
	searchActive      bool
}

// View is a read-only snapshot of a session.
type View struct {
	ID                  string     `json:"session_id"`
	UserID              string     `json:"user_id"`
	UserName            string     `json:"user_name"`
	Location            *geo.Point `json:"location,omitempty"`
	LocationAt          *time.Time `json:"location_at,omitempty"`
	SelectedNoteID      string     `json:"selected_note_id,omitempty"`
	RecommendedNoteID   string     `json:"recommended_note_id,omitempty"`
	RecommendationState string     `json:"recommendation_state"`
	SearchActive        bool       `json:"search_active"`
	SearchResultCount   int        `json:"search_result_count"`
}

// View returns a snapshot of s.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

func (s *Session) viewLocked() View {
	v := View{
		ID:                  s.ID,
		UserID:              s.user.ID,
		UserName:            s.user.Name,
		SelectedNoteID:      s.selectedNoteID,
		RecommendedNoteID:   s.recommendedNoteID,
		RecommendationState: recommend.Idle.String(),
		SearchActive:        s.searchActive,
		SearchResultCount:   len(s.searchResults),
	}
	if s.location != nil {
		p := *s.location
		at := s.locationAt
		v.Location, v.LocationAt = &p, &at
	}
	if s.recommendation != nil {
		v.RecommendationState = s.recommendation.State().String()
	}
	return v
}

// UserID returns the id of the logged-in user.
func (s *Session) UserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user.ID
}

// ─── Registry ───────────────────────────────────────────────────────────────

// Sessions maps session ids to live sessions.
type Sessions struct {
	mu   sync.RWMutex
	byID map[string]*Session
}

func NewSessions() *Sessions {
	return &Sessions{byID: make(map[string]*Session)}
}

func (r *Sessions) create(u notes.User) *Session {
	u.PasswordHash = ""
	s := &Session{ID: newSessionID(), user: u}
	r.mu.Lock()
	r.byID[s.ID] = s
	r.mu.Unlock()
	return s
}

// Get returns the session with id, or ErrUnknownSession.
func (r *Sessions) Get(id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byID[id]
	if !ok {
		return nil, ErrUnknownSession
	}
	return s, nil
}

// Drop removes the session. It reports whether it existed.
func (r *Sessions) Drop(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.byID[id]
	delete(r.byID, id)
	return ok
}

// Len is the number of live sessions.
func (r *Sessions) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}
