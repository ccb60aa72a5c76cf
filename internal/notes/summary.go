package notes

import (
	"context"
	"fmt"

	"github.com/HendryAvila/ikitsuke/internal/kv"
)

// NoEntriesMarker stands in for the first entry of an empty note.
const NoEntriesMarker = "(no entries yet)"

// Summary is the compact view of a note handed to the recommendation model.
type Summary struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Hashtags   []string `json:"hashtags"`
	FirstEntry string   `json:"first_entry"`
}

// Summarize builds one Summary per note, in order.
func Summarize(all []Note) []Summary {
	out := make([]Summary, 0, len(all))
	for _, n := range all {
		first := NoEntriesMarker
		if len(n.Entries) > 0 {
			first = n.Entries[0].Summary()
		}
		tags := n.Hashtags
		if tags == nil {
			tags = []string{}
		}
		out = append(out, Summary{ID: n.ID, Title: n.Title, Hashtags: tags, FirstEntry: first})
	}
	return out
}

// ─── Export / Import ─────────────────────────────────────────────────────────

// ExportData is a full dump of both collections.
type ExportData struct {
	Version    string          `json:"version"`
	ExportedAt string          `json:"exported_at"`
	Users      map[string]User `json:"users"`
	Notes      []Note          `json:"notes"`
}

// ExportVersion is the dump format version.
const ExportVersion = "1"

// Export reads both collections.
func Export(ctx context.Context, s kv.Store) (*ExportData, error) {
	data := &ExportData{
		Version:    ExportVersion,
		ExportedAt: timeNow().UTC().Format("2006-01-02T15:04:05Z07:00"),
		Users:      map[string]User{},
		Notes:      []Note{},
	}
	if err := kv.Load(ctx, s, UsersCollection, &data.Users); err != nil {
		return nil, fmt.Errorf("export users: %w", err)
	}
	if err := kv.Load(ctx, s, NotesCollection, &data.Notes); err != nil {
		return nil, fmt.Errorf("export notes: %w", err)
	}
	return data, nil
}

// Import replaces both collections with the dump. Duplicate note ids in
// the dump are rejected before anything is written.
func Import(ctx context.Context, s kv.Store, data *ExportData) error {
	seen := make(map[string]bool, len(data.Notes))
	for _, n := range data.Notes {
		if seen[n.ID] {
			return fmt.Errorf("import: note %q: %w", n.ID, ErrDuplicateID)
		}
		seen[n.ID] = true
	}
	users := data.Users
	if users == nil {
		users = map[string]User{}
	}
	notes := data.Notes
	if notes == nil {
		notes = []Note{}
	}
	if err := kv.Save(ctx, s, UsersCollection, users); err != nil {
		return fmt.Errorf("import users: %w", err)
	}
	if err := kv.Save(ctx, s, NotesCollection, notes); err != nil {
		return fmt.Errorf("import notes: %w", err)
	}
	return nil
}
