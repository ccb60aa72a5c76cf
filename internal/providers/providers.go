// Package providers adapts the external services: the chat model used for
// recommendations and the maps service used for geocoding and nearby
// place lookups.
package providers

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DefaultTimeout bounds a single provider call.
const DefaultTimeout = 30 * time.Second

var (
	// ErrTimeout is wrapped when a provider call exceeds its deadline.
	ErrTimeout = errors.New("provider timed out")
	// ErrNotConfigured means the provider has no API key.
	ErrNotConfigured = errors.New("provider not configured")
)

// Role of a transcript turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one transcript turn.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Error is returned for any failure of an external service.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// wrap converts err into *Error, mapping deadline expiry to ErrTimeout.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var pe *Error
	if errors.As(err, &pe) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		err = fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return &Error{Op: op, Err: err}
}

// withTimeout applies d when it is positive.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
