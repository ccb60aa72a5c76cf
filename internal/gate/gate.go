// Package gate enforces the proximity rule on viewing and appending to notes.
//
// A user may view or append to a note when their most recent location is
// within the radius of the note's coordinate, or when the note is the one
// the recommendation session selected for them.
package gate

import (
	"errors"
	"fmt"

	"github.com/HendryAvila/ikitsuke/internal/geo"
	"github.com/HendryAvila/ikitsuke/internal/notes"
)

// ErrLocationUnavailable means no location sample exists for the user. The
// caller should ask the user to share their location, not report a denial.
var ErrLocationUnavailable = errors.New("current location is unavailable; allow location access and try again")

// ErrTooFar is wrapped by DeniedError.
var ErrTooFar = errors.New("too far from note")

// Action is the operation being gated.
type Action string

const (
	ActionView   Action = "view"
	ActionAppend Action = "append"
)

// Gate holds the gating policy.
type Gate struct {
	RadiusKm float64
	// AllowRecommended grants access to the session's recommended note
	// regardless of distance.
	AllowRecommended bool
}

// New returns a Gate with the recommendation override enabled.
func New(radiusKm float64) Gate {
	return Gate{RadiusKm: radiusKm, AllowRecommended: true}
}

// Decision is the result of a gate check.
type Decision struct {
	Action            Action  `json:"action"`
	Allowed           bool    `json:"allowed"`
	DistanceKm        float64 `json:"distance_km"`
	RadiusKm          float64 `json:"radius_km"`
	ViaRecommendation bool    `json:"via_recommendation,omitempty"`
	LocationKnown     bool    `json:"location_known"`
}

// Err returns the denial error for d, or nil when d permits the action.
func (d Decision) Err() error {
	switch {
	case d.Allowed:
		return nil
	case !d.LocationKnown:
		return ErrLocationUnavailable
	}
	return &DeniedError{Action: d.Action, DistanceKm: d.DistanceKm, RadiusKm: d.RadiusKm}
}

// DeniedError reports a distance denial.
type DeniedError struct {
	Action     Action
	NoteID     string
	DistanceKm float64
	RadiusKm   float64
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("to %s this note you must be within %.0f km (currently about %.2f km away)",
		e.Action, e.RadiusKm, e.DistanceKm)
}

func (e *DeniedError) Unwrap() error { return ErrTooFar }

// Check evaluates the rule for one action. location is the caller's most
// recent sample, nil when none was ever taken. recommendedID is the
// session's current recommendation, empty when none.
//
// A nil error with Allowed false never happens: denials return a
// *DeniedError alongside the decision.
func (g Gate) Check(action Action, location *geo.Point, note notes.Note, recommendedID string) (Decision, error) {
	d := Decision{Action: action, RadiusKm: g.RadiusKm}

	if location != nil {
		d.LocationKnown = true
		d.DistanceKm = geo.Distance(*location, note.Coordinates())
	}

	if g.AllowRecommended && recommendedID != "" && recommendedID == note.ID {
		d.Allowed = true
		d.ViaRecommendation = true
		return d, nil
	}

	if location == nil {
		return d, ErrLocationUnavailable
	}

	if d.DistanceKm <= g.RadiusKm {
		d.Allowed = true
		return d, nil
	}
	return d, &DeniedError{Action: action, NoteID: note.ID, DistanceKm: d.DistanceKm, RadiusKm: g.RadiusKm}
}

// CanView checks ActionView.
func (g Gate) CanView(location *geo.Point, note notes.Note, recommendedID string) (Decision, error) {
	return g.Check(ActionView, location, note, recommendedID)
}

// CanAppend checks ActionAppend.
func (g Gate) CanAppend(location *geo.Point, note notes.Note, recommendedID string) (Decision, error) {
	return g.Check(ActionAppend, location, note, recommendedID)
}
