// Package api serves the note service as a JSON HTTP API under /api.
//
// Login and registration issue an HS256 token whose subject is the
// session id; every other route requires it as a bearer token.
package api

import (
	"crypto/rand"
	"fmt"
	"log/slog"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/HendryAvila/ikitsuke/internal/app"
)

// DefaultTokenTTL is used when Config.TokenTTL is zero.
const DefaultTokenTTL = 24 * time.Hour

// bodyLimit covers an image entry as a data URL.
const bodyLimit = 16 * 1024 * 1024

// Config tunes the HTTP surface.
type Config struct {
	// JWTSecret signs session tokens. When empty a random secret is
	// generated, so tokens do not survive a restart (sessions don't either).
	JWTSecret string
	TokenTTL  time.Duration
}

// Server is the HTTP front of an App.
type Server struct {
	app    *app.App
	secret []byte
	ttl    time.Duration
	logger *slog.Logger
	fiber  *fiber.App
}

// New builds the HTTP server and registers its routes.
func New(a *app.App, cfg Config, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	secret := []byte(cfg.JWTSecret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("generating token secret: %w", err)
		}
		logger.Warn("http.jwt_secret not set; using a random secret for this process")
	}
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	s := &Server{app: a, secret: secret, ttl: ttl, logger: logger}
	s.fiber = fiber.New(fiber.Config{
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
		DisableStartupMessage: true,
		BodyLimit:             bodyLimit,
		ErrorHandler:          s.handleError,
	})
	s.fiber.Use(recover.New())
	s.fiber.Use(compress.New(compress.Config{Level: compress.LevelBestSpeed}))
	s.fiber.Use(s.logRequests)
	s.routes()
	return s, nil
}

// Handler exposes the underlying fiber app, e.g. for app.Test.
func (s *Server) Handler() *fiber.App { return s.fiber }

// Listen serves on addr until Shutdown is called.
func (s *Server) Listen(addr string) error {
	s.logger.Info("http listening", "addr", addr)
	return s.fiber.Listen(addr)
}

// Shutdown stops accepting connections and waits for active ones.
func (s *Server) Shutdown() error {
	return s.fiber.Shutdown()
}

func (s *Server) routes() {
	api := s.fiber.Group("/api")

	api.Post("/users", s.register)
	api.Post("/sessions", s.login)
	api.Get("/settings", s.settings)

	auth := api.Group("", s.authenticate)

	auth.Get("/session", s.session)
	auth.Delete("/session", s.logout)

	auth.Put("/location", s.updateLocation)
	auth.Delete("/location", s.clearLocation)

	// Fixed paths before /notes/:id.
	auth.Get("/notes/nearby", s.nearby)
	auth.Get("/notes/find", s.findNotes)
	auth.Get("/notes/summary", s.summary)
	auth.Get("/notes", s.searchTags)
	auth.Delete("/search", s.clearSearch)
	auth.Post("/notes", s.placeNote)
	auth.Get("/notes/:id", s.viewNote)
	auth.Post("/notes/:id/select", s.selectNote)
	auth.Post("/notes/:id/entries", s.postEntry)
	auth.Delete("/notes/:id", s.deleteNote)

	auth.Get("/places", s.searchPlace)
	auth.Post("/seed", s.seed)

	auth.Get("/recommendation", s.transcript)
	auth.Post("/recommendation", s.startRecommendation)
	auth.Post("/recommendation/messages", s.say)
	auth.Delete("/recommendation", s.cancelRecommendation)
}

func (s *Server) logRequests(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	s.logger.Debug("http request",
		"method", c.Method(),
		"path", c.Path(),
		"status", c.Response().StatusCode(),
		"duration", time.Since(start),
	)
	return err
}
