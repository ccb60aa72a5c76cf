package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/HendryAvila/ikitsuke/internal/gate"
	"github.com/HendryAvila/ikitsuke/internal/geo"
	"github.com/HendryAvila/ikitsuke/internal/hashtag"
	"github.com/HendryAvila/ikitsuke/internal/notes"
)

// NearbyNote is a note with its distance from the session's location.
type NearbyNote struct {
	notes.Note
	DistanceKm  float64 `json:"distance_km"`
	Recommended bool    `json:"recommended,omitempty"`
}

// NoteView is a note the session was allowed to open.
type NoteView struct {
	Note     notes.Note    `json:"note"`
	Decision gate.Decision `json:"access"`
}

// PostInput is the content of a new entry.
type PostInput struct {
	Text     string
	Image    string
	Drawing  bool
	Hashtags string
}

// Nearby lists the notes within the nearby radius of the session's
// location, in store order.
func (a *App) Nearby(ctx context.Context, s *Session) ([]NearbyNote, error) {
	s.mu.Lock()
	loc, recID := s.location, s.recommendedNoteID
	s.mu.Unlock()
	if loc == nil {
		return nil, gate.ErrLocationUnavailable
	}

	all, err := a.notes.All(ctx)
	if err != nil {
		return nil, err
	}
	near := geo.WithinRadius(*loc, a.opts.NearbyRadiusKm, all)
	out := make([]NearbyNote, 0, len(near))
	for _, n := range near {
		out = append(out, NearbyNote{
			Note:        n,
			DistanceKm:  geo.Distance(*loc, n.Coordinates()),
			Recommended: recID != "" && n.ID == recID,
		})
	}
	return out, nil
}

// Visible returns the notes a client should draw: the active search
// results, or every note when no search is active.
func (a *App) Visible(ctx context.Context, s *Session) ([]notes.Note, error) {
	s.mu.Lock()
	active, results := s.searchActive, append([]notes.Note(nil), s.searchResults...)
	s.mu.Unlock()
	if active {
		return results, nil
	}
	return a.notes.All(ctx)
}

// PlaceNote creates a note at the chosen coordinate. A nil point places it
// at the session's current location.
func (a *App) PlaceNote(ctx context.Context, s *Session, title, tags string, at *geo.Point) (notes.Note, error) {
	s.mu.Lock()
	user := s.user
	if at == nil {
		at = s.location
	}
	s.mu.Unlock()

	if at == nil {
		return notes.Note{}, gate.ErrLocationUnavailable
	}
	if !at.Valid() {
		return notes.Note{}, fmt.Errorf("%w: coordinate out of range", notes.ErrMalformedInput)
	}

	n, err := a.notes.Create(ctx, notes.NewNote{
		Title:       title,
		Hashtags:    hashtag.Parse(tags),
		Lat:         at.Lat,
		Lng:         at.Lng,
		CreatorID:   user.ID,
		CreatorName: user.Name,
	})
	if err != nil {
		return notes.Note{}, err
	}
	a.logger.Info("note placed", "note", n.ID, "user", user.ID)
	return n, nil
}

// SelectNote makes noteID the session's current note and returns it so the
// client can recenter. Choosing a note by hand drops any recommendation.
func (a *App) SelectNote(ctx context.Context, s *Session, noteID string) (notes.Note, error) {
	n, err := a.notes.Get(ctx, strings.TrimSpace(noteID))
	if err != nil {
		return notes.Note{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selectedNoteID != n.ID {
		s.selectedNoteID = n.ID
		s.recommendedNoteID = ""
	}
	return n, nil
}

// target resolves an explicit note id or falls back to the selection.
func (s *Session) target(noteID string) (string, error) {
	noteID = strings.TrimSpace(noteID)
	if noteID != "" {
		return noteID, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selectedNoteID == "" {
		return "", fmt.Errorf("%w: no note selected", notes.ErrMalformedInput)
	}
	return s.selectedNoteID, nil
}

func (s *Session) gateInputs() (*geo.Point, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.location == nil {
		return nil, s.recommendedNoteID
	}
	p := *s.location
	return &p, s.recommendedNoteID
}

// ViewNote opens a note's entries when the gate allows viewing.
func (a *App) ViewNote(ctx context.Context, s *Session, noteID string) (NoteView, error) {
	id, err := s.target(noteID)
	if err != nil {
		return NoteView{}, err
	}
	n, err := a.notes.Get(ctx, id)
	if err != nil {
		return NoteView{}, err
	}
	loc, recID := s.gateInputs()
	d, err := a.gate.CanView(loc, n, recID)
	if err != nil {
		return NoteView{Decision: d}, err
	}
	return NoteView{Note: n, Decision: d}, nil
}

// PostEntry appends an entry when the gate allows appending.
func (a *App) PostEntry(ctx context.Context, s *Session, noteID string, in PostInput) (notes.Note, error) {
	id, err := s.target(noteID)
	if err != nil {
		return notes.Note{}, err
	}
	n, err := a.notes.Get(ctx, id)
	if err != nil {
		return notes.Note{}, err
	}

	loc, recID := s.gateInputs()
	if _, err := a.gate.CanAppend(loc, n, recID); err != nil {
		return notes.Note{}, err
	}

	s.mu.Lock()
	author := s.user.Name
	s.mu.Unlock()

	e, err := notes.ComposeEntry(author, notes.Now(), in.Text, in.Image, in.Drawing, in.Hashtags)
	if err != nil {
		return notes.Note{}, err
	}
	updated, err := a.notes.Append(ctx, n.ID, e)
	if err != nil {
		return notes.Note{}, err
	}
	a.logger.Debug("entry posted", "note", n.ID, "kind", e.Kind)
	return updated, nil
}

// DeleteNote removes a note the session's user created.
func (a *App) DeleteNote(ctx context.Context, s *Session, noteID string) error {
	id, err := s.target(noteID)
	if err != nil {
		return err
	}
	if err := a.notes.Delete(ctx, id, s.UserID()); err != nil {
		return err
	}

	s.mu.Lock()
	if s.selectedNoteID == id {
		s.selectedNoteID = ""
	}
	s.recommendedNoteID = ""
	s.searchResults = removeNote(s.searchResults, id)
	s.mu.Unlock()

	a.logger.Info("note deleted", "note", id)
	return nil
}

func removeNote(list []notes.Note, id string) []notes.Note {
	out := list[:0:0]
	for _, n := range list {
		if n.ID != id {
			out = append(out, n)
		}
	}
	return out
}

// ─── Search ─────────────────────────────────────────────────────────────────

// SearchTags searches every note by hashtag and keeps the results on the
// session until ClearSearch.
func (a *App) SearchTags(ctx context.Context, s *Session, query, mode string) ([]notes.Note, error) {
	m, err := hashtag.ParseMode(mode)
	if err != nil {
		return nil, malformed(err)
	}
	q := hashtag.NewSet(strings.Fields(query)...)

	all, err := a.notes.All(ctx)
	if err != nil {
		return nil, err
	}
	found, err := hashtag.Search(all, q, m)
	if err != nil {
		return nil, malformed(err)
	}

	s.mu.Lock()
	s.searchResults = found
	s.searchActive = true
	s.mu.Unlock()
	return found, nil
}

// ClearSearch drops the active search results.
func (a *App) ClearSearch(s *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.searchResults = nil
	s.searchActive = false
}

// FindNotes fuzzy-matches note titles.
func (a *App) FindNotes(ctx context.Context, s *Session, query string, limit int) ([]notes.Note, error) {
	return a.notes.FindByTitle(ctx, query, limit)
}
