// Package notetools provides the MCP tool handlers for the note service.
//
// Each tool follows the same pattern:
// - A struct holding the shared *Env, injected via constructor
// - Definition() returns the mcp.Tool schema
// - Handle() resolves the caller's session, runs one app command and
//   renders the result as text
//
// Failures are reported as tool errors, never as Go errors.
package notetools

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/ikitsuke/internal/app"
	"github.com/HendryAvila/ikitsuke/internal/gate"
	"github.com/HendryAvila/ikitsuke/internal/geo"
	"github.com/HendryAvila/ikitsuke/internal/notes"
	"github.com/HendryAvila/ikitsuke/internal/providers"
	"github.com/HendryAvila/ikitsuke/internal/recommend"
)

// Env is shared by every tool. Over stdio there is a single client, so
// the most recently opened session is used when a call omits session_id.
type Env struct {
	App *app.App

	mu      sync.Mutex
	current string
}

// NewEnv creates an Env over a.
func NewEnv(a *app.App) *Env {
	return &Env{App: a}
}

func (e *Env) remember(s *app.Session) {
	e.mu.Lock()
	e.current = s.ID
	e.mu.Unlock()
}

func (e *Env) forget(id string) {
	e.mu.Lock()
	if e.current == id {
		e.current = ""
	}
	e.mu.Unlock()
}

var errNotLoggedIn = errors.New("not logged in: call user_login or user_register first")

// session resolves the session named by the session_id argument, or the
// current one.
func (e *Env) session(req mcp.CallToolRequest) (*app.Session, error) {
	id := req.GetString("session_id", "")
	if id == "" {
		e.mu.Lock()
		id = e.current
		e.mu.Unlock()
	}
	if id == "" {
		return nil, errNotLoggedIn
	}
	s, err := e.App.Sessions.Get(id)
	if err != nil {
		return nil, errNotLoggedIn
	}
	return s, nil
}

// withSession adds the optional session_id parameter to a tool.
func withSession() mcp.ToolOption {
	return mcp.WithString("session_id",
		mcp.Description("Session returned by user_login (default: the most recent login)"),
	)
}

// toolError renders err as a tool error with a message the user can act on.
func toolError(err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(describe(err))
}

func describe(err error) string {
	var denied *gate.DeniedError
	switch {
	case errors.Is(err, gate.ErrLocationUnavailable):
		return "Location unavailable: call location_update with your current coordinates, then try again."
	case errors.As(err, &denied):
		return "Too far away: " + denied.Error()
	case errors.Is(err, providers.ErrTimeout):
		return "The external service timed out. Please try again."
	case errors.Is(err, providers.ErrNotConfigured):
		return fmt.Sprintf("Unavailable: %v (set the API key in the configuration)", err)
	case errors.Is(err, recommend.ErrInvalidRecommendation):
		return "The assistant recommended a note that does not exist. Start a new recommendation."
	case errors.Is(err, recommend.ErrNoNotesAvailable):
		return "There are no notes yet to recommend from."
	case errors.Is(err, notes.ErrPermission):
		return "Only the note's creator can delete it."
	case errors.Is(err, notes.ErrInvalidCredentials):
		return "Incorrect user id or password."
	}
	return err.Error()
}

// intArg extracts an integer argument from a tool request, returning
// defaultVal if the key is missing or not a number (JSON numbers are float64).
func intArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return int(v)
}

// boolArg extracts a boolean argument from a tool request.
func boolArg(req mcp.CallToolRequest, key string, defaultVal bool) bool {
	v, ok := req.GetArguments()[key].(bool)
	if !ok {
		return defaultVal
	}
	return v
}

// pointArg reads lat/lng. ok is false when either is missing.
func pointArg(req mcp.CallToolRequest) (p geo.Point, ok bool) {
	args := req.GetArguments()
	lat, okLat := args["lat"].(float64)
	lng, okLng := args["lng"].(float64)
	if !okLat || !okLng {
		return geo.Point{}, false
	}
	return geo.Point{Lat: lat, Lng: lng}, true
}

// ─── Rendering ───────────────────────────────────────────────────────────────

func writeNoteLine(b *strings.Builder, i int, n notes.Note, suffix string) {
	tags := ""
	if len(n.Hashtags) > 0 {
		tags = " " + strings.Join(n.Hashtags, " ")
	}
	fmt.Fprintf(b, "[%d] %s - %s (by %s, %d entries)%s%s\n    id: %s | at %.5f, %.5f\n",
		i+1, n.Title, noteKind(n), n.CreatorName, len(n.Entries), tags, suffix, n.ID, n.Lat, n.Lng)
}

func noteKind(n notes.Note) string {
	if n.IsSystem() {
		return "place note"
	}
	return "note"
}

func renderNotes(header string, list []notes.Note) string {
	if len(list) == 0 {
		return header + ": none."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d\n\n", header, len(list))
	for i, n := range list {
		writeNoteLine(&b, i, n, "")
	}
	return b.String()
}

func renderEntry(b *strings.Builder, i int, e notes.Entry) {
	fmt.Fprintf(b, "%d. [%s] %s", i+1, e.Kind, e.AuthorName)
	if len(e.Hashtags) > 0 {
		fmt.Fprintf(b, " %s", strings.Join(e.Hashtags, " "))
	}
	b.WriteString("\n   ")
	switch e.Kind {
	case notes.KindText:
		b.WriteString(e.Data)
	case notes.KindCombined:
		fmt.Fprintf(b, "%s [image, %d bytes]", e.Text, len(e.Image))
	default:
		fmt.Fprintf(b, "[%s, %d bytes]", e.Kind, len(e.Data))
	}
	b.WriteString("\n")
}
