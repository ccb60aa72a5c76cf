package gate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HendryAvila/ikitsuke/internal/geo"
	"github.com/HendryAvila/ikitsuke/internal/notes"
)

var n1 = notes.Note{ID: "n1", Title: "Shrine", Lat: 35.0, Lng: 139.0, CreatorID: "u1"}

func TestCheck_NearbyPermits(t *testing.T) {
	g := New(10)
	d, err := g.CanView(&geo.Point{Lat: 35.001, Lng: 139.001}, n1, "")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.False(t, d.ViaRecommendation)
	assert.InDelta(t, 0.14, d.DistanceKm, 0.02)
}

func TestCheck_FarDeniesWithDistance(t *testing.T) {
	g := New(10)
	user := geo.Point{Lat: 36.0, Lng: 140.0}

	d, err := g.CanAppend(&user, n1, "")
	require.Error(t, err)
	assert.False(t, d.Allowed)
	assert.InDelta(t, geo.Distance(user, n1.Coordinates()), d.DistanceKm, 1e-9)

	var denied *DeniedError
	require.True(t, errors.As(err, &denied))
	assert.Equal(t, ActionAppend, denied.Action)
	assert.True(t, errors.Is(err, ErrTooFar))
	assert.Contains(t, err.Error(), "10 km")
	assert.ErrorIs(t, d.Err(), ErrTooFar)
}

func TestDecisionErr(t *testing.T) {
	assert.NoError(t, Decision{Allowed: true}.Err())
	assert.ErrorIs(t, Decision{}.Err(), ErrLocationUnavailable)
	assert.ErrorIs(t, Decision{LocationKnown: true, DistanceKm: 20, RadiusKm: 10}.Err(), ErrTooFar)
}

func TestCheck_UnknownLocationFailsClosed(t *testing.T) {
	g := New(10)
	for _, check := range []func(*geo.Point, notes.Note, string) (Decision, error){g.CanView, g.CanAppend} {
		d, err := check(nil, n1, "")
		assert.ErrorIs(t, err, ErrLocationUnavailable)
		assert.False(t, d.Allowed)
		assert.False(t, d.LocationKnown)
	}
}

func TestCheck_RecommendationOverride(t *testing.T) {
	g := New(10)
	far := geo.Point{Lat: 43.0, Lng: 141.3}

	d, err := g.CanView(&far, n1, "n1")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.True(t, d.ViaRecommendation)
	assert.Greater(t, d.DistanceKm, 10.0)

	// Also without any location sample.
	d, err = g.CanAppend(nil, n1, "n1")
	require.NoError(t, err)
	assert.True(t, d.ViaRecommendation)

	// A different recommended note grants nothing here.
	_, err = g.CanView(&far, n1, "n2")
	assert.ErrorIs(t, err, ErrTooFar)
}

func TestCheck_OverrideDisabled(t *testing.T) {
	g := Gate{RadiusKm: 10, AllowRecommended: false}
	_, err := g.CanView(nil, n1, "n1")
	assert.ErrorIs(t, err, ErrLocationUnavailable)
}

func TestCheck_ViewAndAppendAgree(t *testing.T) {
	g := New(10)
	points := []geo.Point{{Lat: 35, Lng: 139}, {Lat: 35.08, Lng: 139}, {Lat: 35.1, Lng: 139}, {Lat: 36, Lng: 140}}
	for _, p := range points {
		p := p
		v, verr := g.CanView(&p, n1, "")
		a, aerr := g.CanAppend(&p, n1, "")
		assert.Equal(t, v.Allowed, a.Allowed, "point %+v", p)
		assert.Equal(t, verr == nil, aerr == nil)
	}
}

func TestCheck_BoundaryInclusive(t *testing.T) {
	user := geo.Point{Lat: 35.05, Lng: 139.0}
	r := geo.Distance(user, n1.Coordinates())
	d, err := Gate{RadiusKm: r}.CanView(&user, n1, "")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}
