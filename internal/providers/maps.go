package providers

import (
	"context"
	"errors"
	"strings"
	"time"

	"googlemaps.github.io/maps"

	"github.com/HendryAvila/ikitsuke/internal/geo"
)

// MapsConfig configures MapsClient.
type MapsConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// GeocodeResult is the first match of a free-text place search.
type GeocodeResult struct {
	Location         geo.Point `json:"location"`
	FormattedAddress string    `json:"formatted_address"`
	PlaceID          string    `json:"place_id"`
}

// Place is a point of interest returned by a nearby search.
type Place struct {
	PlaceID  string    `json:"place_id"`
	Name     string    `json:"name"`
	Location geo.Point `json:"location"`
	Types    []string  `json:"types"`
}

// MapsClient wraps the Google Maps geocoding and places APIs.
type MapsClient struct {
	client  *maps.Client
	timeout time.Duration
}

// NewMapsClient returns ErrNotConfigured when cfg has no API key.
func NewMapsClient(cfg MapsConfig) (*MapsClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, &Error{Op: "maps", Err: ErrNotConfigured}
	}
	opts := []maps.ClientOption{maps.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, maps.WithBaseURL(cfg.BaseURL))
	}
	c, err := maps.NewClient(opts...)
	if err != nil {
		return nil, &Error{Op: "maps", Err: err}
	}
	return &MapsClient{client: c, timeout: cfg.Timeout}, nil
}

// Geocode resolves query to its first result. It returns nil, nil when
// nothing matched.
func (m *MapsClient) Geocode(ctx context.Context, query, language string) (*GeocodeResult, error) {
	ctx, cancel := withTimeout(ctx, m.timeout)
	defer cancel()

	results, err := m.client.Geocode(ctx, &maps.GeocodingRequest{Address: query, Language: language})
	if err != nil {
		if isZeroResults(err) {
			return nil, nil
		}
		return nil, wrap("geocode", deadline(ctx, err))
	}
	if len(results) == 0 {
		return nil, nil
	}
	r := results[0]
	return &GeocodeResult{
		Location:         geo.Point{Lat: r.Geometry.Location.Lat, Lng: r.Geometry.Location.Lng},
		FormattedAddress: r.FormattedAddress,
		PlaceID:          r.PlaceID,
	}, nil
}

// NearbyPlaces lists places of placeType within radiusMeters of origin.
func (m *MapsClient) NearbyPlaces(ctx context.Context, origin geo.Point, radiusMeters uint, language, placeType string) ([]Place, error) {
	ctx, cancel := withTimeout(ctx, m.timeout)
	defer cancel()

	resp, err := m.client.NearbySearch(ctx, &maps.NearbySearchRequest{
		Location: &maps.LatLng{Lat: origin.Lat, Lng: origin.Lng},
		Radius:   radiusMeters,
		Language: language,
		Type:     maps.PlaceType(placeType),
	})
	if err != nil {
		if isZeroResults(err) {
			return []Place{}, nil
		}
		return nil, wrap("nearby places", deadline(ctx, err))
	}

	out := make([]Place, 0, len(resp.Results))
	for _, r := range resp.Results {
		out = append(out, Place{
			PlaceID:  r.PlaceID,
			Name:     r.Name,
			Location: geo.Point{Lat: r.Geometry.Location.Lat, Lng: r.Geometry.Location.Lng},
			Types:    r.Types,
		})
	}
	return out, nil
}

// deadline surfaces context expiry even when the HTTP layer reports it
// under a different error.
func deadline(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return context.DeadlineExceeded
	}
	return err
}

func isZeroResults(err error) bool {
	return strings.Contains(err.Error(), "ZERO_RESULTS")
}
