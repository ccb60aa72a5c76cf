package notetools

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/ikitsuke/internal/app"
	"github.com/HendryAvila/ikitsuke/internal/kv"
	"github.com/HendryAvila/ikitsuke/internal/logging"
	"github.com/HendryAvila/ikitsuke/internal/notes"
	"github.com/HendryAvila/ikitsuke/internal/providers"
)

// ─── Test helpers ────────────────────────────────────────────────────────────

type replyModel struct{ reply string }

func (m *replyModel) Complete(context.Context, string, []providers.Message) (string, error) {
	return m.reply, nil
}

// newTestEnv creates an Env over an in-memory store.
func newTestEnv(t *testing.T) (*Env, *replyModel) {
	t.Helper()
	backend := kv.NewMemoryStore()
	model := &replyModel{reply: "What are you in the mood for?"}
	a := app.New(app.Deps{
		Notes:   notes.NewStore(backend),
		Users:   notes.NewUserStore(backend),
		Model:   model,
		Logger:  logging.Discard(),
		Options: app.DefaultOptions(),
	})
	return NewEnv(a), model
}

// makeReq builds a mcp.CallToolRequest with the given arguments.
func makeReq(args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

// resultText extracts the text content from a tool result.
func resultText(r *mcp.CallToolResult) string {
	if r == nil || len(r.Content) == 0 {
		return ""
	}
	for _, c := range r.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

type handler interface {
	Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)
}

// call runs a tool and fails on Go errors, which tools never return.
func call(t *testing.T, h handler, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	r, err := h.Handle(context.Background(), makeReq(args))
	if err != nil {
		t.Fatalf("Handle() returned Go error: %v", err)
	}
	return r
}

func mustOK(t *testing.T, h handler, args map[string]interface{}) string {
	t.Helper()
	r := call(t, h, args)
	if r.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(r))
	}
	return resultText(r)
}

func mustFail(t *testing.T, h handler, args map[string]interface{}, want string) {
	t.Helper()
	r := call(t, h, args)
	if !r.IsError {
		t.Fatalf("expected tool error, got: %s", resultText(r))
	}
	if !strings.Contains(resultText(r), want) {
		t.Errorf("error %q should contain %q", resultText(r), want)
	}
}

// sessionIDFrom pulls the session id out of a login response.
func sessionIDFrom(t *testing.T, text string) string {
	t.Helper()
	for _, line := range strings.Split(text, "\n") {
		if id, ok := strings.CutPrefix(line, "session_id: "); ok {
			return id
		}
	}
	t.Fatalf("no session_id in %q", text)
	return ""
}

// ─── Definitions ─────────────────────────────────────────────────────────────

func TestDefinitions_Names(t *testing.T) {
	env, _ := newTestEnv(t)
	want := map[string]mcp.Tool{
		"user_register":     NewRegisterTool(env).Definition(),
		"user_login":        NewLoginTool(env).Definition(),
		"user_logout":       NewLogoutTool(env).Definition(),
		"location_update":   NewLocationUpdateTool(env).Definition(),
		"notes_nearby":      NewNearbyTool(env).Definition(),
		"note_place":        NewPlaceTool(env).Definition(),
		"note_select":       NewSelectTool(env).Definition(),
		"note_view":         NewViewTool(env).Definition(),
		"note_post":         NewPostTool(env).Definition(),
		"note_delete":       NewDeleteTool(env).Definition(),
		"notes_search_tags": NewSearchTagsTool(env).Definition(),
		"notes_find":        NewFindTool(env).Definition(),
		"place_search":      NewPlaceSearchTool(env).Definition(),
		"recommend_start":   NewRecommendStartTool(env).Definition(),
		"recommend_say":     NewRecommendSayTool(env).Definition(),
		"recommend_cancel":  NewRecommendCancelTool(env).Definition(),
		"notes_seed":        NewSeedTool(env).Definition(),
	}
	for name, def := range want {
		if def.Name != name {
			t.Errorf("tool name = %q, want %q", def.Name, name)
		}
	}

	place := NewPlaceTool(env).Definition()
	if len(place.InputSchema.Required) != 1 || place.InputSchema.Required[0] != "title" {
		t.Errorf("note_place required = %v, want [title]", place.InputSchema.Required)
	}
	if _, ok := place.InputSchema.Properties["session_id"]; !ok {
		t.Error("note_place missing 'session_id' parameter")
	}
}

// ─── Flow ────────────────────────────────────────────────────────────────────

func TestTools_RequireLogin(t *testing.T) {
	env, _ := newTestEnv(t)
	mustFail(t, NewNearbyTool(env), nil, "not logged in")
	mustFail(t, NewNearbyTool(env), map[string]interface{}{"session_id": "bogus"}, "not logged in")
}

func TestTools_FullFlow(t *testing.T) {
	env, model := newTestEnv(t)

	owner := sessionIDFrom(t, mustOK(t, NewRegisterTool(env), map[string]interface{}{
		"user_id": "owner", "name": "Aki", "password": "pw1",
	}))
	text := mustOK(t, NewPlaceTool(env), map[string]interface{}{
		"session_id": owner, "title": "Quiet garden", "hashtags": "quiet green", "lat": 35.0, "lng": 139.0,
	})
	if !strings.Contains(text, "Quiet garden") {
		t.Errorf("place response = %q", text)
	}
	all, _ := env.App.Notes().All(context.Background())
	noteID := all[0].ID

	// Second user becomes the default session.
	mustOK(t, NewRegisterTool(env), map[string]interface{}{"user_id": "visitor", "name": "Bo", "password": "pw2"})

	mustFail(t, NewViewTool(env), map[string]interface{}{"note_id": noteID}, "Location unavailable")

	mustOK(t, NewLocationUpdateTool(env), map[string]interface{}{"lat": 36.0, "lng": 140.0})
	mustFail(t, NewViewTool(env), map[string]interface{}{"note_id": noteID}, "Too far away")
	mustFail(t, NewPostTool(env), map[string]interface{}{"note_id": noteID, "text": "hi"}, "within 10 km")

	text = mustOK(t, NewNearbyTool(env), nil)
	if !strings.Contains(text, "No notes within 10 km") {
		t.Errorf("nearby from far away = %q", text)
	}

	mustOK(t, NewLocationUpdateTool(env), map[string]interface{}{"lat": 35.001, "lng": 139.001})
	text = mustOK(t, NewNearbyTool(env), nil)
	if !strings.Contains(text, "Quiet garden") || !strings.Contains(text, "0.14 km") {
		t.Errorf("nearby = %q", text)
	}

	text = mustOK(t, NewPostTool(env), map[string]interface{}{"note_id": noteID, "text": "lovely", "hashtags": "spring"})
	if !strings.Contains(text, "text entry") {
		t.Errorf("post = %q", text)
	}
	text = mustOK(t, NewViewTool(env), map[string]interface{}{"note_id": noteID})
	if !strings.Contains(text, "lovely") || !strings.Contains(text, "#spring") {
		t.Errorf("view = %q", text)
	}

	text = mustOK(t, NewSearchTagsTool(env), map[string]interface{}{"tags": "quiet spring", "mode": "AND"})
	if !strings.Contains(text, "Quiet garden") {
		t.Errorf("search = %q", text)
	}
	mustOK(t, NewSearchTagsTool(env), map[string]interface{}{"clear": true})
	mustFail(t, NewSearchTagsTool(env), map[string]interface{}{}, "'tags' is required")

	mustFail(t, NewDeleteTool(env), map[string]interface{}{"note_id": noteID}, "Only the note's creator")

	// Recommendation from far away unlocks the note.
	mustOK(t, NewLocationUpdateTool(env), map[string]interface{}{"lat": 43.0, "lng": 141.3})
	greeting := mustOK(t, NewRecommendStartTool(env), nil)
	if !strings.Contains(greeting, "Hello!") {
		t.Errorf("greeting = %q", greeting)
	}
	if reply := mustOK(t, NewRecommendSayTool(env), map[string]interface{}{"text": "somewhere calm"}); reply != model.reply {
		t.Errorf("reply = %q", reply)
	}
	model.reply = `Try this one. {"recommended_note_id": "` + noteID + `"}`
	text = mustOK(t, NewRecommendSayTool(env), map[string]interface{}{"text": "a garden please"})
	if !strings.Contains(text, "Try this one.") || !strings.Contains(text, noteID) {
		t.Errorf("resolved reply = %q", text)
	}
	text = mustOK(t, NewViewTool(env), nil)
	if !strings.Contains(text, "Recommended by the assistant") {
		t.Errorf("view via recommendation = %q", text)
	}

	// Owner deletes; logout clears the default session.
	mustOK(t, NewDeleteTool(env), map[string]interface{}{"session_id": owner, "note_id": noteID})
	mustOK(t, NewLogoutTool(env), nil)
	mustFail(t, NewNearbyTool(env), nil, "not logged in")
}

func TestLoginTool(t *testing.T) {
	env, _ := newTestEnv(t)
	mustOK(t, NewRegisterTool(env), map[string]interface{}{"user_id": "aki", "name": "Aki", "password": "pw"})
	mustFail(t, NewLoginTool(env), map[string]interface{}{"user_id": "aki", "password": "nope"}, "Incorrect user id or password")
	text := mustOK(t, NewLoginTool(env), map[string]interface{}{"user_id": "aki", "password": "pw"})
	if !strings.Contains(text, "Welcome back, Aki") {
		t.Errorf("login = %q", text)
	}
}

func TestPostTool_ImagePath(t *testing.T) {
	env, _ := newTestEnv(t)
	mustOK(t, NewRegisterTool(env), map[string]interface{}{"user_id": "aki", "name": "Aki", "password": "pw"})
	mustOK(t, NewLocationUpdateTool(env), map[string]interface{}{"lat": 35.0, "lng": 139.0})
	mustOK(t, NewPlaceTool(env), map[string]interface{}{"title": "Here"})

	all, _ := env.App.Notes().All(context.Background())
	mustOK(t, NewSelectTool(env), map[string]interface{}{"note_id": all[0].ID})

	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	path := filepath.Join(t.TempDir(), "pic.png")
	if err := os.WriteFile(path, png, 0o644); err != nil {
		t.Fatal(err)
	}
	text := mustOK(t, NewPostTool(env), map[string]interface{}{"image_path": path, "drawing": true})
	if !strings.Contains(text, "drawing entry") {
		t.Errorf("post = %q", text)
	}

	txt := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(txt, []byte("just text"), 0o644); err != nil {
		t.Fatal(err)
	}
	mustFail(t, NewPostTool(env), map[string]interface{}{"image_path": txt}, "not an image")
	mustFail(t, NewPostTool(env), map[string]interface{}{}, "enter a message or attach an image")
}

func TestLocationUpdateTool_Validation(t *testing.T) {
	env, _ := newTestEnv(t)
	mustOK(t, NewRegisterTool(env), map[string]interface{}{"user_id": "aki", "name": "Aki", "password": "pw"})
	mustFail(t, NewLocationUpdateTool(env), map[string]interface{}{"lat": 35.0}, "'lat' and 'lng' are required")
	mustFail(t, NewLocationUpdateTool(env), map[string]interface{}{"lat": 135.0, "lng": 0.0}, "out of range")
	mustOK(t, NewLocationUpdateTool(env), map[string]interface{}{"clear": true})
}

func TestUnconfiguredProviders(t *testing.T) {
	env, _ := newTestEnv(t)
	mustOK(t, NewRegisterTool(env), map[string]interface{}{"user_id": "aki", "name": "Aki", "password": "pw"})
	mustFail(t, NewPlaceSearchTool(env), map[string]interface{}{"query": "Tokyo"}, "Unavailable")
	mustOK(t, NewLocationUpdateTool(env), map[string]interface{}{"lat": 35.0, "lng": 139.0})
	mustFail(t, NewSeedTool(env), nil, "Unavailable")
	mustFail(t, NewRecommendStartTool(env), nil, "no notes yet")
}
