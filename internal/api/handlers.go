package api

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/HendryAvila/ikitsuke/internal/app"
	"github.com/HendryAvila/ikitsuke/internal/geo"
	"github.com/HendryAvila/ikitsuke/internal/notes"
	"github.com/HendryAvila/ikitsuke/internal/providers"
)

// ─── Request and response bodies ────────────────────────────────────────────

type credentials struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Session   app.View  `json:"session"`
}

type placeRequest struct {
	Title    string   `json:"title"`
	Hashtags string   `json:"hashtags"`
	Lat      *float64 `json:"lat"`
	Lng      *float64 `json:"lng"`
}

type entryRequest struct {
	Text     string `json:"text"`
	Image    string `json:"image"`
	Drawing  bool   `json:"drawing"`
	Hashtags string `json:"hashtags"`
}

type sayRequest struct {
	Text string `json:"text"`
}

type transcriptResponse struct {
	State      string              `json:"state"`
	Transcript []providers.Message `json:"transcript"`
}

type settingsResponse struct {
	NearbyRadiusKm    float64 `json:"nearby_radius_km"`
	GateRadiusKm      float64 `json:"gate_radius_km"`
	AllowRecommended  bool    `json:"allow_recommended"`
	RefreshIntervalMs int64   `json:"refresh_interval_ms"`
	Language          string  `json:"language"`
}

func parseBody(c *fiber.Ctx, v any) error {
	if err := c.BodyParser(v); err != nil {
		return fmt.Errorf("%w: %v", notes.ErrMalformedInput, err)
	}
	return nil
}

// ─── Accounts ───────────────────────────────────────────────────────────────

func (s *Server) register(c *fiber.Ctx) error {
	var in credentials
	if err := parseBody(c, &in); err != nil {
		return err
	}
	sess, err := s.app.Register(c.UserContext(), in.ID, in.Name, in.Password)
	if err != nil {
		return err
	}
	return s.respondSession(c.Status(fiber.StatusCreated), sess)
}

func (s *Server) login(c *fiber.Ctx) error {
	var in credentials
	if err := parseBody(c, &in); err != nil {
		return err
	}
	sess, err := s.app.Login(c.UserContext(), in.ID, in.Password)
	if err != nil {
		return err
	}
	return s.respondSession(c, sess)
}

func (s *Server) respondSession(c *fiber.Ctx, sess *app.Session) error {
	token, exp, err := s.issueToken(sess)
	if err != nil {
		s.app.Logout(sess)
		return err
	}
	return c.JSON(sessionResponse{Token: token, ExpiresAt: exp, Session: sess.View()})
}

func (s *Server) session(c *fiber.Ctx) error {
	return c.JSON(sessionOf(c).View())
}

func (s *Server) logout(c *fiber.Ctx) error {
	s.app.Logout(sessionOf(c))
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) settings(c *fiber.Ctx) error {
	opts := s.app.Options()
	return c.JSON(settingsResponse{
		NearbyRadiusKm:    opts.NearbyRadiusKm,
		GateRadiusKm:      opts.GateRadiusKm,
		AllowRecommended:  opts.AllowRecommended,
		RefreshIntervalMs: opts.RefreshInterval.Milliseconds(),
		Language:          opts.Language,
	})
}

// ─── Location ───────────────────────────────────────────────────────────────

func (s *Server) updateLocation(c *fiber.Ctx) error {
	var p geo.Point
	if err := parseBody(c, &p); err != nil {
		return err
	}
	sess := sessionOf(c)
	if err := s.app.UpdateLocation(sess, p); err != nil {
		return err
	}
	return c.JSON(sess.View())
}

func (s *Server) clearLocation(c *fiber.Ctx) error {
	s.app.ClearLocation(sessionOf(c))
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) seed(c *fiber.Ctx) error {
	res, err := s.app.EnsureSeeded(c.UserContext(), sessionOf(c))
	if err != nil {
		return err
	}
	return c.JSON(res)
}

// ─── Notes ──────────────────────────────────────────────────────────────────

func (s *Server) nearby(c *fiber.Ctx) error {
	list, err := s.app.Nearby(c.UserContext(), sessionOf(c))
	if err != nil {
		return err
	}
	return c.JSON(list)
}

func (s *Server) summary(c *fiber.Ctx) error {
	all, err := s.app.Notes().All(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(notes.Summarize(all))
}

func (s *Server) placeNote(c *fiber.Ctx) error {
	var in placeRequest
	if err := parseBody(c, &in); err != nil {
		return err
	}
	var at *geo.Point
	switch {
	case in.Lat != nil && in.Lng != nil:
		at = &geo.Point{Lat: *in.Lat, Lng: *in.Lng}
	case in.Lat != nil || in.Lng != nil:
		return fmt.Errorf("%w: give both lat and lng, or neither", notes.ErrMalformedInput)
	}
	n, err := s.app.PlaceNote(c.UserContext(), sessionOf(c), in.Title, in.Hashtags, at)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(n)
}

func (s *Server) selectNote(c *fiber.Ctx) error {
	n, err := s.app.SelectNote(c.UserContext(), sessionOf(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(n)
}

func (s *Server) viewNote(c *fiber.Ctx) error {
	v, err := s.app.ViewNote(c.UserContext(), sessionOf(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(v)
}

func (s *Server) postEntry(c *fiber.Ctx) error {
	var in entryRequest
	if err := parseBody(c, &in); err != nil {
		return err
	}
	n, err := s.app.PostEntry(c.UserContext(), sessionOf(c), c.Params("id"), app.PostInput{
		Text:     in.Text,
		Image:    in.Image,
		Drawing:  in.Drawing,
		Hashtags: in.Hashtags,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(n)
}

func (s *Server) deleteNote(c *fiber.Ctx) error {
	if err := s.app.DeleteNote(c.UserContext(), sessionOf(c), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ─── Search ─────────────────────────────────────────────────────────────────

func (s *Server) searchTags(c *fiber.Ctx) error {
	list, err := s.app.SearchTags(c.UserContext(), sessionOf(c), c.Query("tags"), c.Query("mode", "or"))
	if err != nil {
		return err
	}
	return c.JSON(list)
}

func (s *Server) clearSearch(c *fiber.Ctx) error {
	s.app.ClearSearch(sessionOf(c))
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) findNotes(c *fiber.Ctx) error {
	limit := 10
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return fmt.Errorf("%w: limit must be a positive integer", notes.ErrMalformedInput)
		}
		limit = n
	}
	list, err := s.app.FindNotes(c.UserContext(), sessionOf(c), c.Query("q"), limit)
	if err != nil {
		return err
	}
	return c.JSON(list)
}

func (s *Server) searchPlace(c *fiber.Ctx) error {
	res, err := s.app.SearchPlace(c.UserContext(), sessionOf(c), c.Query("q"))
	if err != nil {
		return err
	}
	return c.JSON(res)
}

// ─── Recommendation ─────────────────────────────────────────────────────────

func (s *Server) transcript(c *fiber.Ctx) error {
	sess := sessionOf(c)
	return c.JSON(transcriptResponse{
		State:      sess.View().RecommendationState,
		Transcript: s.app.Transcript(sess),
	})
}

func (s *Server) startRecommendation(c *fiber.Ctx) error {
	sess := sessionOf(c)
	msgs, err := s.app.StartRecommendation(c.UserContext(), sess)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(transcriptResponse{
		State:      sess.View().RecommendationState,
		Transcript: msgs,
	})
}

func (s *Server) say(c *fiber.Ctx) error {
	var in sayRequest
	if err := parseBody(c, &in); err != nil {
		return err
	}
	res, err := s.app.Say(c.UserContext(), sessionOf(c), in.Text)
	if err != nil {
		return err
	}
	return c.JSON(res)
}

func (s *Server) cancelRecommendation(c *fiber.Ctx) error {
	if err := s.app.CancelRecommendation(sessionOf(c)); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
