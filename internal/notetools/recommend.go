package notetools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// RecommendStartTool handles the recommend_start MCP tool.
type RecommendStartTool struct {
	env *Env
}

// NewRecommendStartTool creates a RecommendStartTool.
func NewRecommendStartTool(env *Env) *RecommendStartTool {
	return &RecommendStartTool{env: env}
}

// Definition returns the MCP tool definition for recommend_start.
func (t *RecommendStartTool) Definition() mcp.Tool {
	return mcp.NewTool("recommend_start",
		mcp.WithDescription(
			"Start a conversation in which the assistant recommends one existing note. "+
				"Relay the greeting to the user, then pass each reply to recommend_say.",
		),
		withSession(),
	)
}

// Handle processes the recommend_start tool call.
func (t *RecommendStartTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s, err := t.env.session(req)
	if err != nil {
		return toolError(err), nil
	}
	transcript, err := t.env.App.StartRecommendation(ctx, s)
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(transcript[len(transcript)-1].Content), nil
}

// RecommendSayTool handles the recommend_say MCP tool.
type RecommendSayTool struct {
	env *Env
}

// NewRecommendSayTool creates a RecommendSayTool.
func NewRecommendSayTool(env *Env) *RecommendSayTool {
	return &RecommendSayTool{env: env}
}

// Definition returns the MCP tool definition for recommend_say.
func (t *RecommendSayTool) Definition() mcp.Tool {
	return mcp.NewTool("recommend_say",
		mcp.WithDescription(
			"Send the user's message to the recommendation assistant. When it settles on a note, "+
				"the note is selected and can be viewed and written to regardless of distance.",
		),
		mcp.WithString("text", mcp.Required(), mcp.Description("What the user said")),
		withSession(),
	)
}

// Handle processes the recommend_say tool call.
func (t *RecommendSayTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text := req.GetString("text", "")
	if strings.TrimSpace(text) == "" {
		return mcp.NewToolResultError("'text' is required"), nil
	}
	s, err := t.env.session(req)
	if err != nil {
		return toolError(err), nil
	}
	res, err := t.env.App.Say(ctx, s, text)
	if err != nil {
		return toolError(err), nil
	}
	if !res.Resolved {
		return mcp.NewToolResultText(res.Reply), nil
	}

	var b strings.Builder
	if res.Remainder != "" {
		b.WriteString(res.Remainder)
		b.WriteString("\n\n")
	}
	fmt.Fprintf(&b, "Recommended note: %q (id: %s) at %.5f, %.5f.\nIt is now selected; use note_view to read it.",
		res.Note.Title, res.Note.ID, res.Note.Lat, res.Note.Lng)
	return mcp.NewToolResultText(b.String()), nil
}

// RecommendCancelTool handles the recommend_cancel MCP tool.
type RecommendCancelTool struct {
	env *Env
}

// NewRecommendCancelTool creates a RecommendCancelTool.
func NewRecommendCancelTool(env *Env) *RecommendCancelTool {
	return &RecommendCancelTool{env: env}
}

// Definition returns the MCP tool definition for recommend_cancel.
func (t *RecommendCancelTool) Definition() mcp.Tool {
	return mcp.NewTool("recommend_cancel",
		mcp.WithDescription("Abandon the recommendation conversation in progress."),
		withSession(),
	)
}

// Handle processes the recommend_cancel tool call.
func (t *RecommendCancelTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s, err := t.env.session(req)
	if err != nil {
		return toolError(err), nil
	}
	if err := t.env.App.CancelRecommendation(s); err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText("Recommendation cancelled."), nil
}
