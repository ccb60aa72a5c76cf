package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/HendryAvila/ikitsuke/internal/notes"
	"github.com/HendryAvila/ikitsuke/internal/providers"
	"github.com/HendryAvila/ikitsuke/internal/recommend"
)

// SayResult is the outcome of one recommendation turn.
type SayResult struct {
	recommend.Outcome
	State string      `json:"state"`
	Note  *notes.Note `json:"note,omitempty"`
}

// StartRecommendation opens a recommendation conversation over every
// stored note and returns the opening transcript.
func (a *App) StartRecommendation(ctx context.Context, s *Session) ([]providers.Message, error) {
	if a.model == nil {
		return nil, &providers.Error{Op: "model completion", Err: providers.ErrNotConfigured}
	}
	all, err := a.notes.All(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.recommendation == nil {
		s.recommendation = recommend.NewSession(a.model)
	}
	if err := s.recommendation.Start(all); err != nil {
		return nil, err
	}
	s.recommendedNoteID = ""
	return s.recommendation.Transcript(), nil
}

// Say submits one user utterance. When the model settles on a note that
// exists, it becomes both the selected and the recommended note.
func (a *App) Say(ctx context.Context, s *Session, text string) (SayResult, error) {
	s.mu.Lock()
	rec := s.recommendation
	s.mu.Unlock()
	if rec == nil {
		return SayResult{}, fmt.Errorf("start a recommendation first: %w", recommend.ErrInvalidTransition)
	}

	all, err := a.notes.All(ctx)
	if err != nil {
		return SayResult{}, err
	}

	out, err := rec.Submit(ctx, all, text)
	if err != nil {
		var pe *providers.Error
		if errors.As(err, &pe) {
			a.logger.Warn("recommendation model failed", "session", s.ID, "error", err)
		}
		return SayResult{State: rec.State().String()}, err
	}
	res := SayResult{Outcome: out, State: rec.State().String()}
	if !out.Resolved {
		return res, nil
	}

	// The model may name a note that is gone or never existed.
	n, err := a.notes.Get(ctx, out.NoteID)
	if err != nil {
		if errors.Is(err, notes.ErrNotFound) {
			ferr := rec.Fail(err)
			res.State = rec.State().String()
			a.logger.Warn("model recommended unknown note", "note", out.NoteID)
			return res, ferr
		}
		return res, err
	}

	s.mu.Lock()
	s.recommendedNoteID = n.ID
	s.selectedNoteID = n.ID
	s.mu.Unlock()

	res.Note = &n
	a.logger.Info("note recommended", "note", n.ID, "session", s.ID)
	return res, nil
}

// CancelRecommendation abandons the running conversation.
func (a *App) CancelRecommendation(s *Session) error {
	s.mu.Lock()
	rec := s.recommendation
	s.mu.Unlock()
	if rec == nil {
		return nil
	}
	return rec.Cancel()
}

// Transcript returns the current recommendation conversation, if any.
func (a *App) Transcript(s *Session) []providers.Message {
	s.mu.Lock()
	rec := s.recommendation
	s.mu.Unlock()
	if rec == nil {
		return []providers.Message{}
	}
	return rec.Transcript()
}
