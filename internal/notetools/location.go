package notetools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// LocationUpdateTool handles the location_update MCP tool.
type LocationUpdateTool struct {
	env *Env
}

// NewLocationUpdateTool creates a LocationUpdateTool.
func NewLocationUpdateTool(env *Env) *LocationUpdateTool {
	return &LocationUpdateTool{env: env}
}

// Definition returns the MCP tool definition for location_update.
func (t *LocationUpdateTool) Definition() mcp.Tool {
	return mcp.NewTool("location_update",
		mcp.WithDescription(
			"Report the user's current coordinates. Clients should call this periodically "+
				"(every few seconds) so proximity checks use a fresh location. Pass clear=true when the location is lost.",
		),
		mcp.WithNumber("lat", mcp.Description("Latitude in degrees")),
		mcp.WithNumber("lng", mcp.Description("Longitude in degrees")),
		mcp.WithBoolean("clear", mcp.Description("Forget the current location instead of updating it")),
		withSession(),
	)
}

// Handle processes the location_update tool call.
func (t *LocationUpdateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s, err := t.env.session(req)
	if err != nil {
		return toolError(err), nil
	}

	if boolArg(req, "clear", false) {
		t.env.App.ClearLocation(s)
		return mcp.NewToolResultText("Location cleared."), nil
	}

	p, ok := pointArg(req)
	if !ok {
		return mcp.NewToolResultError("'lat' and 'lng' are required"), nil
	}
	if err := t.env.App.UpdateLocation(s, p); err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Location updated: %.5f, %.5f (refresh every %s)",
		p.Lat, p.Lng, t.env.App.Options().RefreshInterval)), nil
}

// NearbyTool handles the notes_nearby MCP tool.
type NearbyTool struct {
	env *Env
}

// NewNearbyTool creates a NearbyTool.
func NewNearbyTool(env *Env) *NearbyTool {
	return &NearbyTool{env: env}
}

// Definition returns the MCP tool definition for notes_nearby.
func (t *NearbyTool) Definition() mcp.Tool {
	return mcp.NewTool("notes_nearby",
		mcp.WithDescription("List the notes near the user's current location, with distances."),
		withSession(),
	)
}

// Handle processes the notes_nearby tool call.
func (t *NearbyTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s, err := t.env.session(req)
	if err != nil {
		return toolError(err), nil
	}
	near, err := t.env.App.Nearby(ctx, s)
	if err != nil {
		return toolError(err), nil
	}

	radius := t.env.App.Options().NearbyRadiusKm
	if len(near) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No notes within %.0f km.", radius)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d notes within %.0f km:\n\n", len(near), radius)
	for i, n := range near {
		suffix := fmt.Sprintf(" | %.2f km", n.DistanceKm)
		if n.Recommended {
			suffix += " | recommended"
		}
		writeNoteLine(&b, i, n.Note, suffix)
	}
	return mcp.NewToolResultText(b.String()), nil
}

// SeedTool handles the notes_seed MCP tool.
type SeedTool struct {
	env *Env
}

// NewSeedTool creates a SeedTool.
func NewSeedTool(env *Env) *SeedTool {
	return &SeedTool{env: env}
}

// Definition returns the MCP tool definition for notes_seed.
func (t *SeedTool) Definition() mcp.Tool {
	return mcp.NewTool("notes_seed",
		mcp.WithDescription(
			"Populate an empty map with place notes for nearby cafes, parks, sights, restaurants and galleries. "+
				"Does nothing when notes already exist.",
		),
		withSession(),
	)
}

// Handle processes the notes_seed tool call.
func (t *SeedTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s, err := t.env.session(req)
	if err != nil {
		return toolError(err), nil
	}
	res, err := t.env.App.EnsureSeeded(ctx, s)
	if err != nil {
		return toolError(err), nil
	}
	if res.Skipped {
		return mcp.NewToolResultText("Notes already exist; nothing to seed."), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Created %d place notes around your location.", res.Created)), nil
}
