package notes

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sahilm/fuzzy"

	"github.com/HendryAvila/ikitsuke/internal/kv"
)

// newID is a package-level var to allow test injection. UUIDv7 ids are
// ordered by creation time.
var newID = func() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// timeNow is a package-level var to allow test injection.
var timeNow = time.Now

// Now returns the current time as Unix epoch seconds, the entry timestamp format.
func Now() float64 {
	t := timeNow()
	return float64(t.UnixNano()) / 1e9
}

// ─── Store ───────────────────────────────────────────────────────────────────

// Store is the single source of truth for notes. Each call loads the
// persisted collection, and each mutation writes the full collection back
// before returning.
//
// mu serializes mutations inside this process only. Writers in other
// processes are not coordinated: the later whole-collection write wins.
type Store struct {
	kv kv.Store
	mu sync.Mutex
}

// NewStore creates a note Store over the given transport.
func NewStore(s kv.Store) *Store {
	return &Store{kv: s}
}

func (s *Store) load(ctx context.Context) ([]Note, error) {
	var all []Note
	if err := kv.Load(ctx, s.kv, NotesCollection, &all); err != nil {
		return nil, err
	}
	return all, nil
}

func (s *Store) save(ctx context.Context, all []Note) error {
	if all == nil {
		all = []Note{}
	}
	return kv.Save(ctx, s.kv, NotesCollection, all)
}

func indexOf(all []Note, id string) int {
	for i := range all {
		if all[i].ID == id {
			return i
		}
	}
	return -1
}

// Create stores a new note. Seeded notes pass an external id; user-placed
// notes leave ID empty and get a generated one.
func (s *Store) Create(ctx context.Context, in NewNote) (Note, error) {
	created, err := s.CreateMany(ctx, []NewNote{in})
	if err != nil {
		return Note{}, err
	}
	return created[0], nil
}

// CreateMany stores a batch of notes in a single write. The batch is
// validated as a whole: any invalid note or duplicate id, against the store
// or within the batch, rejects every note and leaves the store unchanged.
func (s *Store) CreateMany(ctx context.Context, batch []NewNote) ([]Note, error) {
	if len(batch) == 0 {
		return []Note{}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	taken := make(map[string]bool, len(all)+len(batch))
	for _, n := range all {
		taken[n.ID] = true
	}
	built := make([]Note, 0, len(batch))
	for _, in := range batch {
		n, err := build(in)
		if err != nil {
			return nil, err
		}
		if taken[n.ID] {
			return nil, fmt.Errorf("note %q: %w", n.ID, ErrDuplicateID)
		}
		taken[n.ID] = true
		built = append(built, n)
	}

	if err := s.save(ctx, append(all, built...)); err != nil {
		return nil, err
	}
	out := make([]Note, len(built))
	for i, n := range built {
		out[i] = n.clone()
	}
	return out, nil
}

func build(in NewNote) (Note, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return Note{}, fmt.Errorf("%w: note title is required", ErrMalformedInput)
	}
	if strings.TrimSpace(in.CreatorID) == "" {
		return Note{}, fmt.Errorf("%w: note creator is required", ErrMalformedInput)
	}

	id := in.ID
	if id == "" {
		var err error
		if id, err = newID(); err != nil {
			return Note{}, fmt.Errorf("generating note id: %w", err)
		}
	}

	entries := make([]Entry, 0, len(in.Entries))
	for _, e := range in.Entries {
		if err := e.Validate(); err != nil {
			return Note{}, fmt.Errorf("note %q: %w", id, err)
		}
		e.Hashtags = append([]string{}, e.Hashtags...)
		entries = append(entries, e)
	}

	return Note{
		ID:          id,
		Title:       title,
		Hashtags:    append([]string{}, in.Hashtags...),
		Lat:         in.Lat,
		Lng:         in.Lng,
		CreatorID:   in.CreatorID,
		CreatorName: in.CreatorName,
		Entries:     entries,
	}, nil
}

// Append adds an entry to the end of a note's log.
func (s *Store) Append(ctx context.Context, noteID string, e Entry) (Note, error) {
	if err := e.Validate(); err != nil {
		return Note{}, err
	}
	if e.Hashtags == nil {
		e.Hashtags = []string{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load(ctx)
	if err != nil {
		return Note{}, err
	}
	i := indexOf(all, noteID)
	if i < 0 {
		return Note{}, fmt.Errorf("note %q: %w", noteID, ErrNotFound)
	}

	all[i].Entries = append(all[i].Entries, e)
	if err := s.save(ctx, all); err != nil {
		return Note{}, err
	}
	return all[i].clone(), nil
}

// Delete removes a note and all its entries. Only the creator may delete.
func (s *Store) Delete(ctx context.Context, noteID, requesterID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load(ctx)
	if err != nil {
		return err
	}
	i := indexOf(all, noteID)
	if i < 0 {
		return fmt.Errorf("note %q: %w", noteID, ErrNotFound)
	}
	if all[i].CreatorID != requesterID {
		return fmt.Errorf("note %q is owned by %q: %w", noteID, all[i].CreatorID, ErrPermission)
	}

	all = append(all[:i], all[i+1:]...)
	return s.save(ctx, all)
}

// Get returns one note by id.
func (s *Store) Get(ctx context.Context, noteID string) (Note, error) {
	all, err := s.load(ctx)
	if err != nil {
		return Note{}, err
	}
	i := indexOf(all, noteID)
	if i < 0 {
		return Note{}, fmt.Errorf("note %q: %w", noteID, ErrNotFound)
	}
	return all[i].clone(), nil
}

// All returns a snapshot of every note in insertion order.
func (s *Store) All(ctx context.Context) ([]Note, error) {
	all, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Note, len(all))
	for i, n := range all {
		out[i] = n.clone()
	}
	return out, nil
}

// Count returns the number of stored notes.
func (s *Store) Count(ctx context.Context) (int, error) {
	all, err := s.load(ctx)
	if err != nil {
		return 0, err
	}
	return len(all), nil
}

// titleSource adapts a note slice to fuzzy.Source.
type titleSource []Note

func (t titleSource) String(i int) string { return t[i].Title }
func (t titleSource) Len() int            { return len(t) }

// FindByTitle ranks notes by fuzzy title match, best first. limit <= 0
// returns every match.
func (s *Store) FindByTitle(ctx context.Context, query string, limit int) ([]Note, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: title query is required", ErrMalformedInput)
	}
	all, err := s.All(ctx)
	if err != nil {
		return nil, err
	}

	matches := fuzzy.FindFrom(query, titleSource(all))
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	out := make([]Note, 0, len(matches))
	for _, m := range matches {
		out = append(out, all[m.Index])
	}
	return out, nil
}
