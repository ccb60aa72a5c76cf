// Package notes owns the canonical note and user collections.
//
// A note is a geolocated, multi-author, append-only log of entries. The
// collections are persisted through kv.Store; every mutation rewrites the
// whole collection.
package notes

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/HendryAvila/ikitsuke/internal/geo"
	"github.com/HendryAvila/ikitsuke/internal/hashtag"
)

// Collection names inside the kv store.
const (
	NotesCollection = "notes"
	UsersCollection = "users"
)

// SystemCreatorID marks notes created by seeding rather than by a user.
const SystemCreatorID = "system"

// ─── Entries ─────────────────────────────────────────────────────────────────

// EntryKind tags the variant of an Entry.
type EntryKind string

const (
	KindText     EntryKind = "text"
	KindImage    EntryKind = "image"
	KindDrawing  EntryKind = "drawing"
	KindCombined EntryKind = "combined"
)

// Entry is one immutable page of a note. Text, image and drawing entries
// carry their payload in Data; combined entries use Text and Image.
type Entry struct {
	Kind       EntryKind `json:"type"`
	AuthorName string    `json:"author_name"`
	Timestamp  float64   `json:"timestamp"`
	Data       string    `json:"data,omitempty"`
	Text       string    `json:"text,omitempty"`
	Image      string    `json:"image,omitempty"`
	Hashtags   []string  `json:"hashtags"`
}

// Validate checks the fields required by the entry's kind.
func (e Entry) Validate() error {
	if strings.TrimSpace(e.AuthorName) == "" {
		return fmt.Errorf("%w: entry author is required", ErrMalformedInput)
	}
	switch e.Kind {
	case KindText, KindImage, KindDrawing:
		if strings.TrimSpace(e.Data) == "" {
			return fmt.Errorf("%w: %s entry needs data", ErrMalformedInput, e.Kind)
		}
	case KindCombined:
		if strings.TrimSpace(e.Text) == "" || strings.TrimSpace(e.Image) == "" {
			return fmt.Errorf("%w: combined entry needs text and image", ErrMalformedInput)
		}
	default:
		return fmt.Errorf("%w: unknown entry type %q", ErrMalformedInput, e.Kind)
	}
	return nil
}

// Summary returns the entry's text for previews: the body of text and
// combined entries, otherwise the kind label.
func (e Entry) Summary() string {
	switch e.Kind {
	case KindText:
		return e.Data
	case KindCombined:
		return e.Text
	default:
		return "[" + string(e.Kind) + "]"
	}
}

// ComposeEntry picks the entry kind the way the posting form does:
// text and image together make a combined entry, either alone makes a
// text or image entry, and drawing marks an image as a drawing.
func ComposeEntry(author string, ts float64, text, image string, drawing bool, tags string) (Entry, error) {
	text = strings.TrimSpace(text)
	image = strings.TrimSpace(image)
	e := Entry{AuthorName: author, Timestamp: ts, Hashtags: hashtag.Parse(tags)}

	switch {
	case text != "" && image != "":
		e.Kind, e.Text, e.Image = KindCombined, text, image
	case text != "":
		e.Kind, e.Data = KindText, text
	case image != "" && drawing:
		e.Kind, e.Data = KindDrawing, image
	case image != "":
		e.Kind, e.Data = KindImage, image
	default:
		return Entry{}, fmt.Errorf("%w: enter a message or attach an image", ErrMalformedInput)
	}
	return e, nil
}

// ImageDataURL encodes raw image bytes as a data URL image reference.
func ImageDataURL(contentType string, data []byte) string {
	if contentType == "" {
		contentType = "image/png"
	}
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// ─── Notes ───────────────────────────────────────────────────────────────────

// Note is a persistent, geolocated, append-only log of entries.
type Note struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Hashtags    []string `json:"hashtags"`
	Lat         float64  `json:"lat"`
	Lng         float64  `json:"lng"`
	CreatorID   string   `json:"creator_id"`
	CreatorName string   `json:"creator_name"`
	Entries     []Entry  `json:"entries"`
}

// Coordinates implements geo.Locatable.
func (n Note) Coordinates() geo.Point {
	return geo.Point{Lat: n.Lat, Lng: n.Lng}
}

// AllTags implements hashtag.Tagged: the note's own tags plus every tag
// of every entry.
func (n Note) AllTags() []string {
	out := append([]string{}, n.Hashtags...)
	for _, e := range n.Entries {
		out = append(out, e.Hashtags...)
	}
	return out
}

// IsSystem reports whether the note was created by seeding.
func (n Note) IsSystem() bool { return n.CreatorID == SystemCreatorID }

// clone returns a deep copy so callers cannot mutate stored entries.
func (n Note) clone() Note {
	c := n
	c.Hashtags = append([]string(nil), n.Hashtags...)
	c.Entries = make([]Entry, len(n.Entries))
	for i, e := range n.Entries {
		e.Hashtags = append([]string(nil), e.Hashtags...)
		c.Entries[i] = e
	}
	return c
}

// NewNote is the input to Store.Create and Store.CreateMany. An empty ID
// asks the store to generate one. Entries, if any, become the opening log.
type NewNote struct {
	ID          string
	Title       string
	Hashtags    []string
	Lat         float64
	Lng         float64
	CreatorID   string
	CreatorName string
	Entries     []Entry
}

// ─── Users ───────────────────────────────────────────────────────────────────

// User is a registered account.
type User struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	PasswordHash string `json:"password_hash"`
}
