// Package seed populates an empty note store with system notes for the
// points of interest around a location.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/HendryAvila/ikitsuke/internal/geo"
	"github.com/HendryAvila/ikitsuke/internal/hashtag"
	"github.com/HendryAvila/ikitsuke/internal/notes"
	"github.com/HendryAvila/ikitsuke/internal/providers"
)

const (
	DefaultRadiusMeters = 1500
	DefaultLanguage     = "ja"

	creatorName  = "auto-generated"
	authorName   = "System"
	unnamedPlace = "Unnamed place"
)

// DefaultPlaceTypes are queried in this order.
var DefaultPlaceTypes = []string{"cafe", "park", "tourist_attraction", "restaurant", "art_gallery"}

// Places lists points of interest near a location.
type Places interface {
	NearbyPlaces(ctx context.Context, origin geo.Point, radiusMeters uint, language, placeType string) ([]providers.Place, error)
}

// Seeder creates one system note per distinct nearby place.
type Seeder struct {
	Places       Places
	Store        *notes.Store
	Logger       *slog.Logger
	RadiusMeters uint
	Language     string
	PlaceTypes   []string
}

// New returns a Seeder with the default radius, language and place types.
func New(places Places, store *notes.Store, logger *slog.Logger) *Seeder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Seeder{
		Places:       places,
		Store:        store,
		Logger:       logger,
		RadiusMeters: DefaultRadiusMeters,
		Language:     DefaultLanguage,
		PlaceTypes:   append([]string(nil), DefaultPlaceTypes...),
	}
}

// Result reports what a seeding run did.
type Result struct {
	Skipped bool `json:"skipped"`
	Created int  `json:"created"`
}

// SeedIfEmpty seeds around origin unless the store already holds notes.
// Every place type is queried before anything is written, so a provider
// failure leaves the store empty and a later call can retry.
func (s *Seeder) SeedIfEmpty(ctx context.Context, origin geo.Point) (Result, error) {
	count, err := s.Store.Count(ctx)
	if err != nil {
		return Result{}, err
	}
	if count > 0 {
		return Result{Skipped: true}, nil
	}
	if s.Places == nil {
		return Result{}, &providers.Error{Op: "nearby places", Err: providers.ErrNotConfigured}
	}

	s.Logger.Info("seeding notes", "lat", origin.Lat, "lng", origin.Lng, "radius_m", s.RadiusMeters)

	var batch []notes.NewNote
	seen := make(map[string]bool)
	for _, placeType := range s.PlaceTypes {
		places, err := s.Places.NearbyPlaces(ctx, origin, s.RadiusMeters, s.Language, placeType)
		if err != nil {
			s.Logger.Warn("nearby places failed", "type", placeType, "error", err)
			return Result{}, err
		}
		for _, p := range places {
			if p.PlaceID == "" || seen[p.PlaceID] {
				continue
			}
			seen[p.PlaceID] = true
			batch = append(batch, placeNote(p, placeType))
		}
	}

	created, err := s.Store.CreateMany(ctx, batch)
	if err != nil {
		return Result{}, fmt.Errorf("seeding %d notes: %w", len(batch), err)
	}

	s.Logger.Info("seeding finished", "created", len(created))
	return Result{Created: len(created)}, nil
}

// placeNote builds the system note for p, tagged with the query type that
// first returned it.
func placeNote(p providers.Place, placeType string) notes.NewNote {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		name = unnamedPlace
	}

	tags := make([]string, 0, len(p.Types))
	for _, t := range p.Types {
		tags = append(tags, hashtag.Normalize(t))
	}

	return notes.NewNote{
		ID:          p.PlaceID,
		Title:       name,
		Hashtags:    tags,
		Lat:         p.Location.Lat,
		Lng:         p.Location.Lng,
		CreatorID:   notes.SystemCreatorID,
		CreatorName: creatorName,
		Entries: []notes.Entry{{
			Kind:       notes.KindText,
			AuthorName: authorName,
			Timestamp:  notes.Now(),
			Data:       fmt.Sprintf("This is the memory note for %s.", name),
			Hashtags:   []string{hashtag.Normalize(placeType)},
		}},
	}
}
