package notetools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// SearchTagsTool handles the notes_search_tags MCP tool.
type SearchTagsTool struct {
	env *Env
}

// NewSearchTagsTool creates a SearchTagsTool.
func NewSearchTagsTool(env *Env) *SearchTagsTool {
	return &SearchTagsTool{env: env}
}

// Definition returns the MCP tool definition for notes_search_tags.
func (t *SearchTagsTool) Definition() mcp.Tool {
	return mcp.NewTool("notes_search_tags",
		mcp.WithDescription(
			"Find notes by hashtag, counting both the note's tags and its entries' tags. "+
				"Results stay active until cleared with clear=true.",
		),
		mcp.WithString("tags", mcp.Description("Space-separated hashtags, with or without '#'")),
		mcp.WithString("mode", mcp.Description("AND (all tags, default) or OR (any tag)")),
		mcp.WithBoolean("clear", mcp.Description("Clear the active search results")),
		withSession(),
	)
}

// Handle processes the notes_search_tags tool call.
func (t *SearchTagsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s, err := t.env.session(req)
	if err != nil {
		return toolError(err), nil
	}
	if boolArg(req, "clear", false) {
		t.env.App.ClearSearch(s)
		return mcp.NewToolResultText("Search cleared."), nil
	}

	tags := req.GetString("tags", "")
	if strings.TrimSpace(tags) == "" {
		return mcp.NewToolResultError("'tags' is required"), nil
	}
	found, err := t.env.App.SearchTags(ctx, s, tags, req.GetString("mode", ""))
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(renderNotes(fmt.Sprintf("Notes tagged %q", tags), found)), nil
}

// FindTool handles the notes_find MCP tool.
type FindTool struct {
	env *Env
}

// NewFindTool creates a FindTool.
func NewFindTool(env *Env) *FindTool {
	return &FindTool{env: env}
}

// Definition returns the MCP tool definition for notes_find.
func (t *FindTool) Definition() mcp.Tool {
	return mcp.NewTool("notes_find",
		mcp.WithDescription("Fuzzy-find notes by title, best matches first."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Part of a title, abbreviations allowed")),
		mcp.WithNumber("limit", mcp.Description("Max results (default: 10)")),
		withSession(),
	)
}

// Handle processes the notes_find tool call.
func (t *FindTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := req.GetString("query", "")
	if query == "" {
		return mcp.NewToolResultError("'query' is required"), nil
	}
	s, err := t.env.session(req)
	if err != nil {
		return toolError(err), nil
	}
	found, err := t.env.App.FindNotes(ctx, s, query, intArg(req, "limit", 10))
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(renderNotes(fmt.Sprintf("Titles matching %q", query), found)), nil
}

// PlaceSearchTool handles the place_search MCP tool.
type PlaceSearchTool struct {
	env *Env
}

// NewPlaceSearchTool creates a PlaceSearchTool.
func NewPlaceSearchTool(env *Env) *PlaceSearchTool {
	return &PlaceSearchTool{env: env}
}

// Definition returns the MCP tool definition for place_search.
func (t *PlaceSearchTool) Definition() mcp.Tool {
	return mcp.NewTool("place_search",
		mcp.WithDescription("Look up a place name or address and return its coordinates for moving the map."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Place name or address")),
		withSession(),
	)
}

// Handle processes the place_search tool call.
func (t *PlaceSearchTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s, err := t.env.session(req)
	if err != nil {
		return toolError(err), nil
	}
	res, err := t.env.App.SearchPlace(ctx, s, req.GetString("query", ""))
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Moved to %q at %.5f, %.5f.",
		res.FormattedAddress, res.Location.Lat, res.Location.Lng)), nil
}
