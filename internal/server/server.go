// Package server wires all components and creates the MCP server instance.
//
// This is the composition root: it opens storage, builds the optional
// providers and injects them into the app and into the tools, prompts
// and resources that front it. No business logic lives here.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/server"

	"github.com/HendryAvila/ikitsuke/internal/app"
	"github.com/HendryAvila/ikitsuke/internal/config"
	"github.com/HendryAvila/ikitsuke/internal/kv"
	"github.com/HendryAvila/ikitsuke/internal/notes"
	"github.com/HendryAvila/ikitsuke/internal/notetools"
	"github.com/HendryAvila/ikitsuke/internal/prompts"
	"github.com/HendryAvila/ikitsuke/internal/providers"
	"github.com/HendryAvila/ikitsuke/internal/resources"
	"github.com/HendryAvila/ikitsuke/internal/seed"
)

// Version is set at build time via ldflags.
var Version = "dev"

// NewApp opens the configured storage and builds the App with whichever
// providers have credentials. A provider without an API key is skipped
// with a warning; the features that need it report it as unavailable.
//
// The returned cleanup function closes the storage connection and must
// be called on shutdown. It is always non-nil.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app.App, func(), error) {
	if logger == nil {
		logger = slog.Default()
	}

	store, err := kv.Open(ctx, cfg.Storage)
	if err != nil {
		return nil, noop, fmt.Errorf("opening %s storage: %w", backendName(cfg.Storage.Backend), err)
	}
	cleanup := func() {
		if err := store.Close(); err != nil {
			logger.Warn("storage close", "err", err)
		}
	}
	logger.Debug("storage opened", "backend", backendName(cfg.Storage.Backend), "data_dir", cfg.Storage.DataDir)

	deps := app.Deps{
		Notes:  notes.NewStore(store),
		Users:  notes.NewUserStore(store),
		Logger: logger,
		Options: app.Options{
			NearbyRadiusKm:   cfg.NearbyRadiusKm,
			GateRadiusKm:     cfg.GateRadiusKm,
			AllowRecommended: cfg.AllowRecommended,
			Language:         cfg.Maps.Language,
			RefreshInterval:  cfg.RefreshInterval,
		},
	}

	// --- Model provider ---

	model, err := providers.NewOpenAIModel(providers.OpenAIConfig{
		APIKey:      cfg.OpenAI.APIKey,
		BaseURL:     cfg.OpenAI.BaseURL,
		Model:       cfg.OpenAI.Model,
		Temperature: cfg.OpenAI.Temperature,
		Timeout:     cfg.ProviderTimeout,
	})
	switch {
	case errors.Is(err, providers.ErrNotConfigured):
		logger.Warn("recommendations disabled: no OpenAI API key")
	case err != nil:
		cleanup()
		return nil, noop, fmt.Errorf("creating model provider: %w", err)
	default:
		deps.Model = model
	}

	// --- Maps provider ---

	mapsClient, err := providers.NewMapsClient(providers.MapsConfig{
		APIKey:  cfg.Maps.APIKey,
		BaseURL: cfg.Maps.BaseURL,
		Timeout: cfg.ProviderTimeout,
	})
	switch {
	case errors.Is(err, providers.ErrNotConfigured):
		logger.Warn("place search and seeding disabled: no Google Maps API key")
	case err != nil:
		cleanup()
		return nil, noop, fmt.Errorf("creating maps provider: %w", err)
	default:
		deps.Geocoder = mapsClient
		seeder := seed.New(mapsClient, deps.Notes, logger)
		if cfg.Maps.Language != "" {
			seeder.Language = cfg.Maps.Language
		}
		deps.Seeder = seeder
	}

	return app.New(deps), cleanup, nil
}

// New creates the MCP server over a with all tools, prompts and
// resources registered.
func New(a *app.App) *server.MCPServer {
	s := server.NewMCPServer(
		"ikitsuke",
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions(a.Options().GateRadiusKm)),
	)

	registerTools(s, notetools.NewEnv(a))

	// --- Register prompts ---

	startPrompt := prompts.NewStartPrompt(a.Options().GateRadiusKm)
	s.AddPrompt(startPrompt.Definition(), startPrompt.Handle)

	nearbyPrompt := prompts.NewNearbyPrompt()
	s.AddPrompt(nearbyPrompt.Definition(), nearbyPrompt.Handle)

	// --- Register resources ---

	opts := a.Options()
	resourceHandler := resources.NewHandler(a.Notes(), resources.Settings{
		NearbyRadiusKm:    opts.NearbyRadiusKm,
		GateRadiusKm:      opts.GateRadiusKm,
		RefreshIntervalMs: opts.RefreshInterval.Milliseconds(),
		Language:          opts.Language,
	})
	s.AddResource(resourceHandler.SummaryResource(), resourceHandler.HandleSummary)
	s.AddResource(resourceHandler.SettingsResource(), resourceHandler.HandleSettings)

	return s
}

// noop is the cleanup returned when nothing was opened.
func noop() {}

func backendName(b string) string {
	if b == "" {
		return kv.BackendSQLite
	}
	return b
}

// registerTools registers every note MCP tool with the server.
func registerTools(s *server.MCPServer, env *notetools.Env) {
	// --- Accounts ---
	register := notetools.NewRegisterTool(env)
	s.AddTool(register.Definition(), register.Handle)

	login := notetools.NewLoginTool(env)
	s.AddTool(login.Definition(), login.Handle)

	logout := notetools.NewLogoutTool(env)
	s.AddTool(logout.Definition(), logout.Handle)

	// --- Location ---
	location := notetools.NewLocationUpdateTool(env)
	s.AddTool(location.Definition(), location.Handle)

	nearby := notetools.NewNearbyTool(env)
	s.AddTool(nearby.Definition(), nearby.Handle)

	seedTool := notetools.NewSeedTool(env)
	s.AddTool(seedTool.Definition(), seedTool.Handle)

	// --- Notes ---
	place := notetools.NewPlaceTool(env)
	s.AddTool(place.Definition(), place.Handle)

	sel := notetools.NewSelectTool(env)
	s.AddTool(sel.Definition(), sel.Handle)

	view := notetools.NewViewTool(env)
	s.AddTool(view.Definition(), view.Handle)

	post := notetools.NewPostTool(env)
	s.AddTool(post.Definition(), post.Handle)

	del := notetools.NewDeleteTool(env)
	s.AddTool(del.Definition(), del.Handle)

	// --- Search ---
	tags := notetools.NewSearchTagsTool(env)
	s.AddTool(tags.Definition(), tags.Handle)

	find := notetools.NewFindTool(env)
	s.AddTool(find.Definition(), find.Handle)

	placeSearch := notetools.NewPlaceSearchTool(env)
	s.AddTool(placeSearch.Definition(), placeSearch.Handle)

	// --- Recommendation ---
	recStart := notetools.NewRecommendStartTool(env)
	s.AddTool(recStart.Definition(), recStart.Handle)

	recSay := notetools.NewRecommendSayTool(env)
	s.AddTool(recSay.Definition(), recSay.Handle)

	recCancel := notetools.NewRecommendCancelTool(env)
	s.AddTool(recCancel.Definition(), recCancel.Handle)
}

// serverInstructions returns the system instructions that tell the AI
// how to use the note tools.
func serverInstructions(gateKm float64) string {
	return fmt.Sprintf(instructions, gateKm)
}

const instructions = `You have access to ikitsuke, a map of shared memory notes anchored to real places.

## HOW IT WORKS

- A note is pinned to a coordinate and holds a permanent, append-only list of entries
  (text, images, drawings). Anyone can add entries; only the creator can delete a note.
- Notes can only be read or written by someone within %g km of them.
  The one exception is the note the recommendation assistant picked for the user,
  which is readable and writable from anywhere.

## SESSION

1. Call user_login (or user_register). Subsequent calls use that session by default.
2. Ask the user for their coordinates and call location_update. Call it again whenever
   they move; without a location, reading and writing notes fails.

## TOOLS

- notes_nearby: notes around the user, closest first.
- note_place / note_select / note_view / note_post / note_delete: work with one note.
- notes_search_tags: filter notes by #hashtags (mode "or" or "and"); notes_find: fuzzy title search.
- place_search: find a place by name to know where to look.
- notes_seed: on an empty map, create one note per nearby point of interest.
- recommend_start / recommend_say / recommend_cancel: a short conversation in which
  the assistant recommends one existing note.

## RULES

- Entries cannot be edited or removed. Confirm the text with the user before note_post.
- Never invent note ids; take them from tool results.
- When a tool says the location is unavailable, ask the user for their position first.`
