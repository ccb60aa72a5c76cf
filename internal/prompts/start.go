// Package prompts implements MCP prompt handlers for the note service.
//
// MCP prompts are user-triggered workflows (like slash commands) that
// instruct the AI to execute a specific sequence. Unlike tools (which
// the AI calls), prompts are initiated by the user.
package prompts

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// StartPrompt handles the ikitsuke-start MCP prompt.
// It guides the AI through logging in, sharing a location and exploring
// nearby notes.
type StartPrompt struct {
	gateRadiusKm float64
}

// NewStartPrompt creates a StartPrompt that quotes the given gate radius.
func NewStartPrompt(gateRadiusKm float64) *StartPrompt {
	return &StartPrompt{gateRadiusKm: gateRadiusKm}
}

// Definition returns the MCP prompt definition for registration.
func (p *StartPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("ikitsuke-start",
		mcp.WithPromptDescription(
			"Start exploring memory notes around you. "+
				"Logs you in, shares your location and lists the notes you can open.",
		),
		mcp.WithArgument("user_id",
			mcp.ArgumentDescription("Your login id"),
		),
		mcp.WithArgument("mode",
			mcp.ArgumentDescription(
				"'explore' (browse nearby notes) or 'recommend' (let the assistant pick one for you). Default: explore",
			),
		),
	)
}

// Handle processes the ikitsuke-start prompt request.
func (p *StartPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	userID := ""
	mode := "explore"
	if args := req.Params.Arguments; args != nil {
		if id, ok := args["user_id"]; ok && id != "" {
			userID = id
		}
		if m, ok := args["mode"]; ok && m != "" {
			mode = m
		}
	}

	login := "Ask me for my user id and password, then run `user_login` (or `user_register` if I am new)."
	if userID != "" {
		login = fmt.Sprintf("Ask me for the password of '%s', then run `user_login`.", userID)
	}

	var next string
	if mode == "recommend" {
		next = "3. Run `recommend_start`, show me the greeting, and relay each of my answers with `recommend_say` until a note is recommended\n" +
			"4. Open the recommended note with `note_view`; it is readable from anywhere"
	} else {
		next = "3. If `notes_nearby` finds nothing and the map is empty, run `notes_seed` to create place notes around me\n" +
			"4. Show me the nearby notes and open the one I pick with `note_view`"
	}

	return &mcp.GetPromptResult{
		Description: "Start exploring memory notes",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(fmt.Sprintf(
					"I want to explore the memory notes around me.\n\n"+
						"Please:\n"+
						"1. %s\n"+
						"2. Ask for my current coordinates and run `location_update`; repeat whenever I move\n"+
						"%s\n\n"+
						"Notes can only be read or written within %g km, unless the assistant recommended them. "+
						"Entries are permanent, so confirm with me before posting.",
					login, next, p.gateRadiusKm,
				)),
			},
		},
	}, nil
}
