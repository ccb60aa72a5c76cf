package notes_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/HendryAvila/ikitsuke/internal/kv"
	"github.com/HendryAvila/ikitsuke/internal/notes"
)

// newTestStore creates a Store backed by a SQLite database in a temp dir.
func newTestStore(t *testing.T) (*notes.Store, kv.Store) {
	t.Helper()
	backend, err := kv.NewSQLite(t.TempDir())
	if err != nil {
		t.Fatalf("failed to open kv: %v", err)
	}
	t.Cleanup(func() { backend.Close() })
	return notes.NewStore(backend), backend
}

// mustCreate creates a note or fails the test.
func mustCreate(t *testing.T, s *notes.Store, in notes.NewNote) notes.Note {
	t.Helper()
	n, err := s.Create(context.Background(), in)
	if err != nil {
		t.Fatalf("Create(%q) error: %v", in.Title, err)
	}
	return n
}

func textEntry(author, body string, tags ...string) notes.Entry {
	return notes.Entry{Kind: notes.KindText, AuthorName: author, Timestamp: 1700000000, Data: body, Hashtags: tags}
}

// ─── Create ─────────────────────────────────────────────────────────────────

func TestCreate_GeneratesID(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	n := mustCreate(t, s, notes.NewNote{Title: "Lunch spot", Lat: 35, Lng: 139, CreatorID: "u1", CreatorName: "Aki"})
	if n.ID == "" {
		t.Fatal("expected generated id")
	}
	if len(n.Entries) != 0 {
		t.Errorf("new note should have no entries, got %d", len(n.Entries))
	}

	got, err := s.Get(ctx, n.ID)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got.Title != "Lunch spot" || got.CreatorID != "u1" {
		t.Errorf("Get() = %+v", got)
	}
}

func TestCreate_GeneratedIDsAreUnique(t *testing.T) {
	s, _ := newTestStore(t)
	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		n := mustCreate(t, s, notes.NewNote{Title: fmt.Sprintf("n%d", i), CreatorID: "u1"})
		if seen[n.ID] {
			t.Fatalf("duplicate generated id %q", n.ID)
		}
		seen[n.ID] = true
	}
}

func TestCreate_DuplicateIDLeavesStoreUnchanged(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	mustCreate(t, s, notes.NewNote{ID: "n1", Title: "First", CreatorID: "system"})

	_, err := s.Create(ctx, notes.NewNote{ID: "n1", Title: "Second", CreatorID: "system"})
	if !errors.Is(err, notes.ErrDuplicateID) {
		t.Fatalf("second Create() error = %v, want ErrDuplicateID", err)
	}

	count, err := s.Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("store size = %d, want 1", count)
	}
	got, _ := s.Get(ctx, "n1")
	if got.Title != "First" {
		t.Errorf("original note was overwritten: %q", got.Title)
	}
}

func TestCreate_RequiresTitle(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.Create(context.Background(), notes.NewNote{Title: "   ", CreatorID: "u1"})
	if !errors.Is(err, notes.ErrMalformedInput) {
		t.Fatalf("error = %v, want ErrMalformedInput", err)
	}
}

// ─── CreateMany ─────────────────────────────────────────────────────────────

func TestCreateMany_WritesNotesWithEntries(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	got, err := s.CreateMany(ctx, []notes.NewNote{
		{ID: "a", Title: "Cafe", CreatorID: "system", Entries: []notes.Entry{textEntry("System", "hello", "#cafe")}},
		{ID: "b", Title: "Park", CreatorID: "system"},
	})
	if err != nil {
		t.Fatalf("CreateMany() error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("created %d notes, want 2", len(got))
	}

	a, err := s.Get(ctx, "a")
	if err != nil {
		t.Fatal(err)
	}
	if len(a.Entries) != 1 || a.Entries[0].Data != "hello" {
		t.Errorf("note a entries = %+v, want the opening entry", a.Entries)
	}
	b, _ := s.Get(ctx, "b")
	if b.Entries == nil || len(b.Entries) != 0 {
		t.Errorf("note b entries = %#v, want empty non-nil log", b.Entries)
	}
}

func TestCreateMany_RejectsWholeBatch(t *testing.T) {
	tests := []struct {
		name  string
		batch []notes.NewNote
		want  error
	}{
		{
			name: "duplicate of stored note",
			batch: []notes.NewNote{
				{ID: "fresh", Title: "Fresh", CreatorID: "system"},
				{ID: "existing", Title: "Again", CreatorID: "system"},
			},
			want: notes.ErrDuplicateID,
		},
		{
			name: "duplicate within batch",
			batch: []notes.NewNote{
				{ID: "x", Title: "One", CreatorID: "system"},
				{ID: "x", Title: "Two", CreatorID: "system"},
			},
			want: notes.ErrDuplicateID,
		},
		{
			name: "invalid entry",
			batch: []notes.NewNote{
				{ID: "fresh", Title: "Fresh", CreatorID: "system"},
				{ID: "bad", Title: "Bad", CreatorID: "system", Entries: []notes.Entry{textEntry("", "no author")}},
			},
			want: notes.ErrMalformedInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestStore(t)
			ctx := context.Background()
			mustCreate(t, s, notes.NewNote{ID: "existing", Title: "Existing", CreatorID: "system"})

			_, err := s.CreateMany(ctx, tt.batch)
			if !errors.Is(err, tt.want) {
				t.Fatalf("CreateMany() error = %v, want %v", err, tt.want)
			}
			count, _ := s.Count(ctx)
			if count != 1 {
				t.Errorf("store size = %d, want 1 (batch must not be partially written)", count)
			}
		})
	}
}

// ─── Append ─────────────────────────────────────────────────────────────────

func TestAppend_GrowsInOrder(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	n := mustCreate(t, s, notes.NewNote{Title: "Park", CreatorID: "u1"})

	for i, body := range []string{"one", "two", "three"} {
		got, err := s.Append(ctx, n.ID, textEntry("Aki", body))
		if err != nil {
			t.Fatalf("Append(%q) error: %v", body, err)
		}
		if len(got.Entries) != i+1 {
			t.Fatalf("after %d appends len = %d", i+1, len(got.Entries))
		}
	}

	got, _ := s.Get(ctx, n.ID)
	for i, want := range []string{"one", "two", "three"} {
		if got.Entries[i].Data != want {
			t.Errorf("entry %d = %q, want %q", i, got.Entries[i].Data, want)
		}
	}
}

func TestAppend_UnknownNote(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.Append(context.Background(), "ghost", textEntry("Aki", "hi"))
	if !errors.Is(err, notes.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}

func TestAppend_RejectsInvalidEntry(t *testing.T) {
	s, _ := newTestStore(t)
	n := mustCreate(t, s, notes.NewNote{Title: "Park", CreatorID: "u1"})

	bad := []notes.Entry{
		{Kind: notes.KindText, AuthorName: "Aki"},
		{Kind: notes.KindCombined, AuthorName: "Aki", Text: "only text"},
		{Kind: "video", AuthorName: "Aki", Data: "x"},
		{Kind: notes.KindText, Data: "no author"},
	}
	for _, e := range bad {
		if _, err := s.Append(context.Background(), n.ID, e); !errors.Is(err, notes.ErrMalformedInput) {
			t.Errorf("Append(%+v) error = %v, want ErrMalformedInput", e, err)
		}
	}
}

func TestAppend_CallerCannotMutateStoredEntries(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	n := mustCreate(t, s, notes.NewNote{Title: "Park", CreatorID: "u1"})

	got, _ := s.Append(ctx, n.ID, textEntry("Aki", "original", "#tag"))
	got.Entries[0].Data = "tampered"
	got.Entries[0].Hashtags[0] = "#evil"

	fresh, _ := s.Get(ctx, n.ID)
	if fresh.Entries[0].Data != "original" || fresh.Entries[0].Hashtags[0] != "#tag" {
		t.Errorf("stored entry changed through returned copy: %+v", fresh.Entries[0])
	}
}

func TestAppend_EntryCountNeverDecreases(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	a := mustCreate(t, s, notes.NewNote{Title: "A", CreatorID: "u1"})
	b := mustCreate(t, s, notes.NewNote{Title: "B", CreatorID: "u2"})

	last := 0
	ops := []func(){
		func() { s.Append(ctx, a.ID, textEntry("x", "1")) },
		func() { s.Append(ctx, b.ID, textEntry("x", "2")) },
		func() { s.Create(ctx, notes.NewNote{Title: "C", CreatorID: "u3"}) },
		func() { s.Delete(ctx, b.ID, "u2") },
		func() { s.Append(ctx, a.ID, textEntry("x", "3")) },
		func() { s.Delete(ctx, a.ID, "intruder") },
	}
	for i, op := range ops {
		op()
		got, err := s.Get(ctx, a.ID)
		if err != nil {
			t.Fatalf("op %d: note a vanished: %v", i, err)
		}
		if len(got.Entries) < last {
			t.Fatalf("op %d: entries shrank from %d to %d", i, last, len(got.Entries))
		}
		last = len(got.Entries)
	}
}

// ─── Delete ─────────────────────────────────────────────────────────────────

func TestDelete_CreatorOnly(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	n := mustCreate(t, s, notes.NewNote{Title: "Mine", CreatorID: "owner"})

	for _, requester := range []string{"other", "", "system", "OWNER"} {
		if err := s.Delete(ctx, n.ID, requester); !errors.Is(err, notes.ErrPermission) {
			t.Errorf("Delete by %q error = %v, want ErrPermission", requester, err)
		}
	}

	if err := s.Delete(ctx, n.ID, "owner"); err != nil {
		t.Fatalf("Delete by owner error: %v", err)
	}
	if _, err := s.Get(ctx, n.ID); !errors.Is(err, notes.ErrNotFound) {
		t.Errorf("Get after delete error = %v, want ErrNotFound", err)
	}
}

func TestDelete_Unknown(t *testing.T) {
	s, _ := newTestStore(t)
	if err := s.Delete(context.Background(), "ghost", "u1"); !errors.Is(err, notes.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}

// ─── All / persistence ──────────────────────────────────────────────────────

func TestAll_InsertionOrder(t *testing.T) {
	s, _ := newTestStore(t)
	for _, title := range []string{"c", "a", "b"} {
		mustCreate(t, s, notes.NewNote{Title: title, CreatorID: "u1"})
	}
	all, err := s.All(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 || all[0].Title != "c" || all[1].Title != "a" || all[2].Title != "b" {
		t.Errorf("All() order = %v", all)
	}
}

func TestStore_SharedTransportSeesWrites(t *testing.T) {
	s1, backend := newTestStore(t)
	s2 := notes.NewStore(backend)
	ctx := context.Background()

	n := mustCreate(t, s1, notes.NewNote{Title: "Shared", CreatorID: "u1"})
	if _, err := s2.Append(ctx, n.ID, textEntry("Bo", "hello")); err != nil {
		t.Fatalf("second store Append error: %v", err)
	}
	got, _ := s1.Get(ctx, n.ID)
	if len(got.Entries) != 1 {
		t.Errorf("first store should reload the full collection, entries = %d", len(got.Entries))
	}
}

// ─── FindByTitle ────────────────────────────────────────────────────────────

func TestFindByTitle(t *testing.T) {
	s, _ := newTestStore(t)
	for _, title := range []string{"Riverside Cafe", "Old Park", "Cat Cafe Neko"} {
		mustCreate(t, s, notes.NewNote{Title: title, CreatorID: "u1"})
	}

	got, err := s.FindByTitle(context.Background(), "cafe", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("FindByTitle(cafe) = %d notes, want 2", len(got))
	}

	got, _ = s.FindByTitle(context.Background(), "cafe", 1)
	if len(got) != 1 {
		t.Errorf("limit not applied: %d", len(got))
	}

	if _, err := s.FindByTitle(context.Background(), " ", 0); !errors.Is(err, notes.ErrMalformedInput) {
		t.Errorf("empty query error = %v", err)
	}
}
