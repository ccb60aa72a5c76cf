package api

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt"

	"github.com/HendryAvila/ikitsuke/internal/app"
	"github.com/HendryAvila/ikitsuke/internal/notes"
)

const sessionKey = "session"

var errMissingToken = fmt.Errorf("missing bearer token: %w", notes.ErrInvalidCredentials)

// issueToken signs a token carrying the session id.
func (s *Server) issueToken(sess *app.Session) (string, time.Time, error) {
	exp := time.Now().Add(s.ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.StandardClaims{
		Subject:   sess.ID,
		IssuedAt:  time.Now().Unix(),
		ExpiresAt: exp.Unix(),
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing token: %w", err)
	}
	return signed, exp, nil
}

// authenticate resolves the bearer token to a live session.
func (s *Server) authenticate(c *fiber.Ctx) error {
	header := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(raw) == "" {
		return errMissingToken
	}

	claims := &jwt.StandardClaims{}
	token, err := jwt.ParseWithClaims(strings.TrimSpace(raw), claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return fmt.Errorf("invalid token: %w", notes.ErrInvalidCredentials)
	}

	sess, err := s.app.Sessions.Get(claims.Subject)
	if err != nil {
		return err
	}
	c.Locals(sessionKey, sess)
	return c.Next()
}

func sessionOf(c *fiber.Ctx) *app.Session {
	return c.Locals(sessionKey).(*app.Session)
}
