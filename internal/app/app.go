// Package app implements the user-facing commands of the note service.
// Every handler takes the caller's Session, so the surfaces (MCP tools,
// HTTP API, CLI) stay thin translators.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/HendryAvila/ikitsuke/internal/gate"
	"github.com/HendryAvila/ikitsuke/internal/geo"
	"github.com/HendryAvila/ikitsuke/internal/notes"
	"github.com/HendryAvila/ikitsuke/internal/providers"
	"github.com/HendryAvila/ikitsuke/internal/recommend"
	"github.com/HendryAvila/ikitsuke/internal/seed"
)

// Geocoder resolves free-text place queries.
type Geocoder interface {
	Geocode(ctx context.Context, query, language string) (*providers.GeocodeResult, error)
}

// Options tunes the handlers.
type Options struct {
	NearbyRadiusKm float64
	GateRadiusKm   float64
	// AllowRecommended lets the recommended note bypass the distance rule.
	AllowRecommended bool
	Language         string
	RefreshInterval  time.Duration
}

// DefaultOptions matches the service defaults.
func DefaultOptions() Options {
	return Options{
		NearbyRadiusKm:   geo.DefaultRadiusKm,
		GateRadiusKm:     geo.DefaultRadiusKm,
		AllowRecommended: true,
		Language:         seed.DefaultLanguage,
		RefreshInterval:  5 * time.Second,
	}
}

// Deps are the collaborators of App. Model, Geocoder and Seeder may be nil
// when their provider is not configured.
type Deps struct {
	Notes    *notes.Store
	Users    *notes.UserStore
	Model    recommend.Model
	Geocoder Geocoder
	Seeder   *seed.Seeder
	Logger   *slog.Logger
	Options  Options
}

// App holds the stores, providers and live sessions.
type App struct {
	notes    *notes.Store
	users    *notes.UserStore
	model    recommend.Model
	geocoder Geocoder
	seeder   *seed.Seeder
	gate     gate.Gate
	logger   *slog.Logger
	opts     Options

	Sessions *Sessions
}

// New wires an App.
func New(d Deps) *App {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	opts := d.Options
	if opts.NearbyRadiusKm <= 0 {
		opts.NearbyRadiusKm = geo.DefaultRadiusKm
	}
	if opts.GateRadiusKm <= 0 {
		opts.GateRadiusKm = geo.DefaultRadiusKm
	}
	if opts.Language == "" {
		opts.Language = seed.DefaultLanguage
	}
	return &App{
		notes:    d.Notes,
		users:    d.Users,
		model:    d.Model,
		geocoder: d.Geocoder,
		seeder:   d.Seeder,
		gate:     gate.Gate{RadiusKm: opts.GateRadiusKm, AllowRecommended: opts.AllowRecommended},
		logger:   logger,
		opts:     opts,
		Sessions: NewSessions(),
	}
}

// Options returns the effective options.
func (a *App) Options() Options { return a.opts }

// Notes exposes the note store to read-only surfaces.
func (a *App) Notes() *notes.Store { return a.notes }

// ─── Accounts ───────────────────────────────────────────────────────────────

// Register creates an account and logs it in.
func (a *App) Register(ctx context.Context, id, name, password string) (*Session, error) {
	u, err := a.users.Register(ctx, strings.TrimSpace(id), strings.TrimSpace(name), password)
	if err != nil {
		return nil, err
	}
	a.logger.Info("user registered", "user", u.ID)
	return a.Sessions.create(u), nil
}

// Login authenticates and opens a new session.
func (a *App) Login(ctx context.Context, id, password string) (*Session, error) {
	u, err := a.users.Authenticate(ctx, strings.TrimSpace(id), password)
	if err != nil {
		return nil, err
	}
	s := a.Sessions.create(u)
	a.logger.Debug("login", "user", u.ID, "session", s.ID)
	return s, nil
}

// Logout discards the session and all of its state.
func (a *App) Logout(s *Session) {
	s.mu.Lock()
	if s.recommendation != nil {
		_ = s.recommendation.Cancel()
	}
	s.mu.Unlock()
	a.Sessions.Drop(s.ID)
}

// ─── Location ───────────────────────────────────────────────────────────────

// UpdateLocation records the most recent location sample.
func (a *App) UpdateLocation(s *Session, p geo.Point) error {
	if !p.Valid() {
		return fmt.Errorf("%w: coordinate out of range (%v, %v)", notes.ErrMalformedInput, p.Lat, p.Lng)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.location = &p
	s.locationAt = time.Now()
	return nil
}

// ClearLocation forgets the location, as when the client loses its fix.
func (a *App) ClearLocation(s *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.location = nil
	s.locationAt = time.Time{}
}

// ─── Seeding ────────────────────────────────────────────────────────────────

// EnsureSeeded seeds the store around the session's location when it is
// still empty.
func (a *App) EnsureSeeded(ctx context.Context, s *Session) (seed.Result, error) {
	s.mu.Lock()
	loc := s.location
	s.mu.Unlock()
	if loc == nil {
		return seed.Result{}, gate.ErrLocationUnavailable
	}
	return a.SeedAt(ctx, *loc)
}

// SeedAt seeds the store around origin when it is still empty.
func (a *App) SeedAt(ctx context.Context, origin geo.Point) (seed.Result, error) {
	if !origin.Valid() {
		return seed.Result{}, fmt.Errorf("%w: coordinate out of range (%v, %v)", notes.ErrMalformedInput, origin.Lat, origin.Lng)
	}
	if a.seeder == nil {
		return seed.Result{}, &providers.Error{Op: "nearby places", Err: providers.ErrNotConfigured}
	}
	res, err := a.seeder.SeedIfEmpty(ctx, origin)
	if err != nil {
		return res, err
	}
	if !res.Skipped {
		a.logger.Info("store seeded", "created", res.Created, "lat", origin.Lat, "lng", origin.Lng)
	}
	return res, nil
}

// ─── Place search ───────────────────────────────────────────────────────────

// SearchPlace geocodes query and returns its first match.
func (a *App) SearchPlace(ctx context.Context, s *Session, query string) (*providers.GeocodeResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: enter a place name or address", notes.ErrMalformedInput)
	}
	if a.geocoder == nil {
		return nil, &providers.Error{Op: "geocode", Err: providers.ErrNotConfigured}
	}
	res, err := a.geocoder.Geocode(ctx, query, a.opts.Language)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, fmt.Errorf("place %q: %w", query, notes.ErrNotFound)
	}
	return res, nil
}

// malformed maps validation errors of lower packages onto ErrMalformedInput.
func malformed(err error) error {
	if err == nil || errors.Is(err, notes.ErrMalformedInput) {
		return err
	}
	return fmt.Errorf("%w: %v", notes.ErrMalformedInput, err)
}
