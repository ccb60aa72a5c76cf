package prompts

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// NearbyPrompt handles the ikitsuke-nearby MCP prompt.
// It instructs the AI to refresh the location and summarize what is close.
type NearbyPrompt struct{}

// NewNearbyPrompt creates a NearbyPrompt.
func NewNearbyPrompt() *NearbyPrompt {
	return &NearbyPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *NearbyPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("ikitsuke-nearby",
		mcp.WithPromptDescription(
			"See what memory notes are around you right now, "+
				"with distances and the newest entries.",
		),
	)
}

// Handle processes the ikitsuke-nearby prompt request.
func (p *NearbyPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	return &mcp.GetPromptResult{
		Description: "Nearby memory notes",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(
					"Please refresh my location with `location_update` and run `notes_nearby`.\n\n" +
						"Then:\n" +
						"1. List the notes from closest to farthest\n" +
						"2. Point out any note the assistant recommended to me\n" +
						"3. Offer to open one with `note_view` or to place a new note here with `note_place`",
				),
			},
		},
	}, nil
}
