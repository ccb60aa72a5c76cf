package notetools

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/ikitsuke/internal/app"
	"github.com/HendryAvila/ikitsuke/internal/geo"
	"github.com/HendryAvila/ikitsuke/internal/notes"
)

// maxImageBytes caps images read from image_path.
const maxImageBytes = 10 << 20

// PlaceTool handles the note_place MCP tool.
type PlaceTool struct {
	env *Env
}

// NewPlaceTool creates a PlaceTool.
func NewPlaceTool(env *Env) *PlaceTool {
	return &PlaceTool{env: env}
}

// Definition returns the MCP tool definition for note_place.
func (t *PlaceTool) Definition() mcp.Tool {
	return mcp.NewTool("note_place",
		mcp.WithDescription(
			"Place a new, empty memory note on the map. Without lat/lng the note is placed at the user's current location.",
		),
		mcp.WithString("title", mcp.Required(), mcp.Description("Note title")),
		mcp.WithString("hashtags", mcp.Description("Space-separated hashtags, with or without '#' (e.g. 'lunch view')")),
		mcp.WithNumber("lat", mcp.Description("Latitude of the chosen spot")),
		mcp.WithNumber("lng", mcp.Description("Longitude of the chosen spot")),
		withSession(),
	)
}

// Handle processes the note_place tool call.
func (t *PlaceTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title := req.GetString("title", "")
	if strings.TrimSpace(title) == "" {
		return mcp.NewToolResultError("'title' is required"), nil
	}
	s, err := t.env.session(req)
	if err != nil {
		return toolError(err), nil
	}

	var at *geo.Point
	if p, ok := pointArg(req); ok {
		at = &p
	}
	n, err := t.env.App.PlaceNote(ctx, s, title, req.GetString("hashtags", ""), at)
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Note %q placed at %.5f, %.5f.\nID: %s", n.Title, n.Lat, n.Lng, n.ID)), nil
}

// SelectTool handles the note_select MCP tool.
type SelectTool struct {
	env *Env
}

// NewSelectTool creates a SelectTool.
func NewSelectTool(env *Env) *SelectTool {
	return &SelectTool{env: env}
}

// Definition returns the MCP tool definition for note_select.
func (t *SelectTool) Definition() mcp.Tool {
	return mcp.NewTool("note_select",
		mcp.WithDescription("Select a note so note_view and note_post can omit note_id. Returns its coordinates for recentering the map."),
		mcp.WithString("note_id", mcp.Required(), mcp.Description("Note id")),
		withSession(),
	)
}

// Handle processes the note_select tool call.
func (t *SelectTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s, err := t.env.session(req)
	if err != nil {
		return toolError(err), nil
	}
	n, err := t.env.App.SelectNote(ctx, s, req.GetString("note_id", ""))
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Selected %q at %.5f, %.5f.", n.Title, n.Lat, n.Lng)), nil
}

// ViewTool handles the note_view MCP tool.
type ViewTool struct {
	env *Env
}

// NewViewTool creates a ViewTool.
func NewViewTool(env *Env) *ViewTool {
	return &ViewTool{env: env}
}

// Definition returns the MCP tool definition for note_view.
func (t *ViewTool) Definition() mcp.Tool {
	return mcp.NewTool("note_view",
		mcp.WithDescription(
			"Read a note's entries. Allowed only within range of the note, or when the note is the one the assistant recommended.",
		),
		mcp.WithString("note_id", mcp.Description("Note id (default: the selected note)")),
		withSession(),
	)
}

// Handle processes the note_view tool call.
func (t *ViewTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s, err := t.env.session(req)
	if err != nil {
		return toolError(err), nil
	}
	v, err := t.env.App.ViewNote(ctx, s, req.GetString("note_id", ""))
	if err != nil {
		return toolError(err), nil
	}

	n := v.Note
	var b strings.Builder
	if v.Decision.ViaRecommendation {
		b.WriteString("Recommended by the assistant\n")
	}
	fmt.Fprintf(&b, "%s (by %s)\n", n.Title, n.CreatorName)
	if len(n.Hashtags) > 0 {
		fmt.Fprintf(&b, "%s\n", strings.Join(n.Hashtags, " "))
	}
	if v.Decision.LocationKnown {
		fmt.Fprintf(&b, "Distance: %.2f km\n", v.Decision.DistanceKm)
	}
	b.WriteString("\n")
	if len(n.Entries) == 0 {
		b.WriteString("No entries yet. Be the first to write one with note_post.\n")
	}
	for i, e := range n.Entries {
		renderEntry(&b, i, e)
	}
	return mcp.NewToolResultText(b.String()), nil
}

// PostTool handles the note_post MCP tool.
type PostTool struct {
	env *Env
}

// NewPostTool creates a PostTool.
func NewPostTool(env *Env) *PostTool {
	return &PostTool{env: env}
}

// Definition returns the MCP tool definition for note_post.
func (t *PostTool) Definition() mcp.Tool {
	return mcp.NewTool("note_post",
		mcp.WithDescription(
			"Append an entry to a note: text, an image, a drawing, or text with an image. "+
				"Entries can never be edited or removed. Subject to the same proximity rule as note_view.",
		),
		mcp.WithString("note_id", mcp.Description("Note id (default: the selected note)")),
		mcp.WithString("text", mcp.Description("Message text")),
		mcp.WithString("image", mcp.Description("Image as a data URL (data:image/png;base64,...)")),
		mcp.WithString("image_path", mcp.Description("Local image file to attach instead of 'image'")),
		mcp.WithBoolean("drawing", mcp.Description("Mark an image-only entry as a drawing")),
		mcp.WithString("hashtags", mcp.Description("Space-separated hashtags for this entry")),
		withSession(),
	)
}

// Handle processes the note_post tool call.
func (t *PostTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s, err := t.env.session(req)
	if err != nil {
		return toolError(err), nil
	}

	image := req.GetString("image", "")
	if path := req.GetString("image_path", ""); path != "" && image == "" {
		image, err = readImage(path)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to read image: %v", err)), nil
		}
	}

	n, err := t.env.App.PostEntry(ctx, s, req.GetString("note_id", ""), app.PostInput{
		Text:     req.GetString("text", ""),
		Image:    image,
		Drawing:  boolArg(req, "drawing", false),
		Hashtags: req.GetString("hashtags", ""),
	})
	if err != nil {
		return toolError(err), nil
	}
	last := n.Entries[len(n.Entries)-1]
	return mcp.NewToolResultText(fmt.Sprintf("Posted a %s entry to %q (%d entries).", last.Kind, n.Title, len(n.Entries))), nil
}

func readImage(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if info.Size() > maxImageBytes {
		return "", fmt.Errorf("%s is larger than %d bytes", path, maxImageBytes)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	ct := http.DetectContentType(data)
	if !strings.HasPrefix(ct, "image/") {
		return "", fmt.Errorf("%s is not an image (%s)", path, ct)
	}
	return notes.ImageDataURL(ct, data), nil
}

// DeleteTool handles the note_delete MCP tool.
type DeleteTool struct {
	env *Env
}

// NewDeleteTool creates a DeleteTool.
func NewDeleteTool(env *Env) *DeleteTool {
	return &DeleteTool{env: env}
}

// Definition returns the MCP tool definition for note_delete.
func (t *DeleteTool) Definition() mcp.Tool {
	return mcp.NewTool("note_delete",
		mcp.WithDescription("Delete a note and all of its entries. Only the note's creator can do this."),
		mcp.WithString("note_id", mcp.Description("Note id (default: the selected note)")),
		withSession(),
	)
}

// Handle processes the note_delete tool call.
func (t *DeleteTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s, err := t.env.session(req)
	if err != nil {
		return toolError(err), nil
	}
	if err := t.env.App.DeleteNote(ctx, s, req.GetString("note_id", "")); err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText("Note deleted."), nil
}
