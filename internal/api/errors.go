package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/HendryAvila/ikitsuke/internal/gate"
	"github.com/HendryAvila/ikitsuke/internal/hashtag"
	"github.com/HendryAvila/ikitsuke/internal/notes"
	"github.com/HendryAvila/ikitsuke/internal/providers"
	"github.com/HendryAvila/ikitsuke/internal/recommend"
)

// errorBody is the JSON shape of every failed request.
type errorBody struct {
	Error      string  `json:"error"`
	DistanceKm float64 `json:"distance_km,omitempty"`
	RadiusKm   float64 `json:"radius_km,omitempty"`
}

// statusOf maps the error taxonomy onto HTTP status codes.
func statusOf(err error) int {
	var fe *fiber.Error
	var pe *providers.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, gate.ErrLocationUnavailable):
		return fiber.StatusPreconditionRequired
	case errors.Is(err, gate.ErrTooFar), errors.Is(err, notes.ErrPermission):
		return fiber.StatusForbidden
	case errors.Is(err, notes.ErrInvalidCredentials):
		return fiber.StatusUnauthorized
	case errors.Is(err, notes.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, notes.ErrDuplicateID),
		errors.Is(err, recommend.ErrInvalidTransition),
		errors.Is(err, recommend.ErrNoNotesAvailable):
		return fiber.StatusConflict
	case errors.Is(err, recommend.ErrInvalidRecommendation):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, providers.ErrTimeout):
		return fiber.StatusGatewayTimeout
	case errors.Is(err, providers.ErrNotConfigured):
		return fiber.StatusServiceUnavailable
	case errors.As(err, &pe):
		return fiber.StatusBadGateway
	case errors.Is(err, notes.ErrMalformedInput), errors.Is(err, hashtag.ErrEmptyQuery):
		return fiber.StatusBadRequest
	}
	return fiber.StatusInternalServerError
}

// handleError is the fiber error handler.
func (s *Server) handleError(c *fiber.Ctx, err error) error {
	code := statusOf(err)
	body := errorBody{Error: err.Error()}
	var denied *gate.DeniedError
	if errors.As(err, &denied) {
		body.DistanceKm, body.RadiusKm = denied.DistanceKm, denied.RadiusKm
	}
	if code >= fiber.StatusInternalServerError {
		s.logger.Error("http request failed", "method", c.Method(), "path", c.Path(), "status", code, "err", err)
	}
	return c.Status(code).JSON(body)
}
