// Package recommend runs the conversation in which a chat model picks one
// existing note for the user.
//
// A Session moves through these states:
//
//	Idle ──Start──▶ AwaitingUserUtterance ──Submit──▶ ProcessingModelReply
//	                      ▲                                  │
//	                      └──── no decision / model error ───┤
//	                                                         ▼
//	                          Failed ◀──Fail── Resolved ◀── decision
//
// Cancel returns any non-terminal session to Idle. Start is accepted from
// Idle or from a terminal state.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/HendryAvila/ikitsuke/internal/notes"
	"github.com/HendryAvila/ikitsuke/internal/providers"
)

// State of a Session.
type State int

const (
	Idle State = iota
	AwaitingUserUtterance
	ProcessingModelReply
	Resolved
	Failed
)

// String returns the wire name of the state.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingUserUtterance:
		return "awaiting_user_utterance"
	case ProcessingModelReply:
		return "processing_model_reply"
	case Resolved:
		return "resolved"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Terminal reports whether s is Resolved or Failed.
func (s State) Terminal() bool { return s == Resolved || s == Failed }

var (
	ErrNoNotesAvailable      = errors.New("no notes available to recommend")
	ErrInvalidRecommendation = errors.New("recommended note does not exist")
	ErrInvalidTransition     = errors.New("invalid recommendation session transition")
)

// Greeting opens every conversation.
const Greeting = "Hello! What kind of place would you like to revisit through its memories? " +
	"For example \"somewhere quiet\" or \"somewhere with good food\". Tell me your mood or interests."

// Model completes a transcript under a system prompt.
type Model interface {
	Complete(ctx context.Context, systemPrompt string, transcript []providers.Message) (string, error)
}

// Outcome is the result of one user turn.
type Outcome struct {
	Reply     string `json:"reply"`
	NoteID    string `json:"recommended_note_id,omitempty"`
	Remainder string `json:"remainder,omitempty"`
	Resolved  bool   `json:"resolved"`
}

// Session is one recommendation conversation. It is safe for concurrent
// use; the lock is not held while the model runs.
type Session struct {
	model Model

	mu            sync.Mutex
	state         State
	transcript    []providers.Message
	recommendedID string
	failure       error
	gen           int
}

// NewSession returns an Idle session backed by model.
func NewSession(model Model) *Session {
	return &Session{model: model}
}

// Start begins a new conversation with the greeting turn.
func (s *Session) Start(available []notes.Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Idle && !s.state.Terminal() {
		return fmt.Errorf("start from %s: %w", s.state, ErrInvalidTransition)
	}
	if len(available) == 0 {
		return ErrNoNotesAvailable
	}
	s.gen++
	s.state = AwaitingUserUtterance
	s.transcript = []providers.Message{{Role: providers.RoleAssistant, Content: Greeting}}
	s.recommendedID = ""
	s.failure = nil
	return nil
}

// Submit sends one user utterance to the model. A model failure is
// returned as *providers.Error; the utterance is dropped from the
// transcript and the session waits for the next one.
func (s *Session) Submit(ctx context.Context, available []notes.Note, text string) (Outcome, error) {
	text = strings.TrimSpace(text)

	s.mu.Lock()
	if s.state != AwaitingUserUtterance {
		st := s.state
		s.mu.Unlock()
		return Outcome{}, fmt.Errorf("submit in %s: %w", st, ErrInvalidTransition)
	}
	if text == "" {
		s.mu.Unlock()
		return Outcome{}, fmt.Errorf("empty utterance: %w", notes.ErrMalformedInput)
	}
	s.transcript = append(s.transcript, providers.Message{Role: providers.RoleUser, Content: text})
	s.state = ProcessingModelReply
	gen := s.gen
	transcript := append([]providers.Message(nil), s.transcript...)
	s.mu.Unlock()

	prompt, err := BuildSystemPrompt(available)
	var reply string
	if err == nil {
		reply, err = s.model.Complete(ctx, prompt, transcript)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Cancelled or restarted while the model was running.
	if s.gen != gen || s.state != ProcessingModelReply {
		return Outcome{}, fmt.Errorf("session changed while waiting for reply: %w", ErrInvalidTransition)
	}

	if err != nil {
		s.transcript = s.transcript[:len(s.transcript)-1]
		s.state = AwaitingUserUtterance
		var pe *providers.Error
		if !errors.As(err, &pe) {
			err = &providers.Error{Op: "model completion", Err: err}
		}
		return Outcome{}, err
	}

	d := ParseReply(reply)
	if !d.Found {
		s.transcript = append(s.transcript, providers.Message{Role: providers.RoleAssistant, Content: reply})
		s.state = AwaitingUserUtterance
		return Outcome{Reply: reply}, nil
	}

	if d.Remainder != "" {
		s.transcript = append(s.transcript, providers.Message{Role: providers.RoleAssistant, Content: d.Remainder})
	}
	s.recommendedID = d.NoteID
	s.state = Resolved
	return Outcome{Reply: reply, NoteID: d.NoteID, Remainder: d.Remainder, Resolved: true}, nil
}

// Fail marks a resolved session as failed, typically because the chosen
// note does not exist. The returned error wraps ErrInvalidRecommendation.
func (s *Session) Fail(reason error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Resolved {
		return fmt.Errorf("fail from %s: %w", s.state, ErrInvalidTransition)
	}
	if reason == nil {
		reason = ErrInvalidRecommendation
	}
	if !errors.Is(reason, ErrInvalidRecommendation) {
		reason = fmt.Errorf("%w: %v", ErrInvalidRecommendation, reason)
	}
	s.state = Failed
	s.failure = reason
	s.recommendedID = ""
	return reason
}

// Cancel abandons a running conversation and clears its transcript.
func (s *Session) Cancel() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Terminal() {
		return fmt.Errorf("cancel from %s: %w", s.state, ErrInvalidTransition)
	}
	s.gen++
	s.state = Idle
	s.transcript = nil
	return nil
}

// State returns the current state of the conversation.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Transcript returns a copy of the conversation so far.
func (s *Session) Transcript() []providers.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]providers.Message{}, s.transcript...)
}

// RecommendedID is the resolved note id, empty unless Resolved.
func (s *Session) RecommendedID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recommendedID
}

// Failure is the reason passed to Fail, nil otherwise.
func (s *Session) Failure() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failure
}

// Validate returns ErrInvalidRecommendation unless noteID names one of
// available.
func Validate(noteID string, available []notes.Note) error {
	for _, n := range available {
		if n.ID == noteID {
			return nil
		}
	}
	return fmt.Errorf("note %q: %w", noteID, ErrInvalidRecommendation)
}
