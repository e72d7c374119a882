// Package verification holds short-lived one-time codes used to confirm
// signups and password resets.
package verification

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"
)

// Purpose separates signup codes from reset codes for the same email.
type Purpose string

const (
	PurposeSignup Purpose = "signup"
	PurposeReset  Purpose = "reset"
)

// DefaultTTL is how long an issued code stays valid.
const DefaultTTL = 5 * time.Minute

// ErrInvalidOrExpiredCode is returned when no live code matches.
var ErrInvalidOrExpiredCode = errors.New("invalid or expired verification code")

// Store issues and consumes codes. Implementations must serialize
// operations on the same (purpose, email).
type Store interface {
	Issue(ctx context.Context, purpose Purpose, email string) (string, error)
	Verify(ctx context.Context, purpose Purpose, email, code string) error
	// Consume is Verify that also reports when the consumed code would
	// have expired.
	Consume(ctx context.Context, purpose Purpose, email, code string) (time.Time, error)
	// Restore puts a consumed code back until expiresAt. It never replaces
	// a live code issued in the meantime.
	Restore(ctx context.Context, purpose Purpose, email, code string, expiresAt time.Time) error
	Delete(ctx context.Context, purpose Purpose, email string) error
}

// GenerateCode returns a uniformly random 6-digit code, leading zeros kept.
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// FakeClock is deterministic and test-friendly.
type FakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{t: start}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}
