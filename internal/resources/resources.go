// Package resources implements MCP resource handlers for the note service.
//
// Resources provide read-only data that the host can consume for context.
// They use URI-based addressing (ikitsuke://...) following MCP conventions.
package resources

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/ikitsuke/internal/notes"
)

const (
	SummaryURI  = "ikitsuke://notes/summary"
	SettingsURI = "ikitsuke://settings"
)

// Settings are the client-relevant options exposed as a resource.
type Settings struct {
	NearbyRadiusKm    float64 `json:"nearby_radius_km"`
	GateRadiusKm      float64 `json:"gate_radius_km"`
	RefreshIntervalMs int64   `json:"refresh_interval_ms"`
	Language          string  `json:"language"`
}

// Handler manages note resource endpoints.
type Handler struct {
	store    *notes.Store
	settings Settings
}

// NewHandler creates a resource Handler with its dependencies.
func NewHandler(store *notes.Store, settings Settings) *Handler {
	return &Handler{store: store, settings: settings}
}

// SummaryResource returns the MCP resource definition for the note summaries.
func (h *Handler) SummaryResource() mcp.Resource {
	return mcp.NewResource(
		SummaryURI,
		"Memory note summaries",
		mcp.WithResourceDescription("Id, title, hashtags and first entry of every note"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleSummary returns every note's summary as JSON.
func (h *Handler) HandleSummary(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	all, err := h.store.All(ctx)
	if err != nil {
		return errorResource(req.Params.URI, err.Error()), nil
	}
	return jsonResource(req.Params.URI, notes.Summarize(all))
}

// SettingsResource returns the MCP resource definition for client settings.
func (h *Handler) SettingsResource() mcp.Resource {
	return mcp.NewResource(
		SettingsURI,
		"Client settings",
		mcp.WithResourceDescription("Proximity radii, location refresh interval and place search language"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleSettings returns the client settings as JSON.
func (h *Handler) HandleSettings(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return jsonResource(req.Params.URI, h.settings)
}

func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling %s: %w", uri, err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// errorResource returns a resource with an error message.
func errorResource(uri, message string) []mcp.ResourceContents {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/plain",
			Text:     fmt.Sprintf("Error: %s", message),
		},
	}
}
