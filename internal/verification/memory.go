package verification

import (
	"context"
	"crypto/subtle"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/example/storefront/internal/logger"
)

type slot struct {
	purpose Purpose
	email   string
}

type entry struct {
	code      string
	issuedAt  time.Time
	expiresAt time.Time
}

// MemoryStore keeps codes in process memory. Expiry is checked on every
// lookup; Sweep only reclaims memory.
type MemoryStore struct {
	mu       sync.Mutex
	codes    map[slot]entry
	ttl      time.Duration
	clock    Clock
	generate func() (string, error)
}

type MemoryOption func(*MemoryStore)

// WithClock replaces the wall clock.
func WithClock(c Clock) MemoryOption {
	return func(s *MemoryStore) { s.clock = c }
}

// WithGenerator replaces the random code source.
func WithGenerator(fn func() (string, error)) MemoryOption {
	return func(s *MemoryStore) { s.generate = fn }
}

func NewMemoryStore(ttl time.Duration, opts ...MemoryOption) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s := &MemoryStore{
		codes:    make(map[slot]entry),
		ttl:      ttl,
		clock:    RealClock{},
		generate: GenerateCode,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Issue stores a fresh code, replacing any pending one for the same slot.
func (s *MemoryStore) Issue(_ context.Context, purpose Purpose, email string) (string, error) {
	code, err := s.generate()
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	s.codes[slot{purpose, email}] = entry{
		code:      code,
		issuedAt:  now,
		expiresAt: now.Add(s.ttl),
	}
	return code, nil
}

// Verify consumes the code on a match. A mismatch keeps the pending code.
func (s *MemoryStore) Verify(ctx context.Context, purpose Purpose, email, code string) error {
	_, err := s.Consume(ctx, purpose, email, code)
	return err
}

func (s *MemoryStore) Consume(_ context.Context, purpose Purpose, email, code string) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := slot{purpose, email}
	e, ok := s.codes[key]
	if !ok {
		return time.Time{}, ErrInvalidOrExpiredCode
	}
	if !s.clock.Now().Before(e.expiresAt) {
		delete(s.codes, key)
		return time.Time{}, ErrInvalidOrExpiredCode
	}
	if subtle.ConstantTimeCompare([]byte(e.code), []byte(code)) != 1 {
		return time.Time{}, ErrInvalidOrExpiredCode
	}

	delete(s.codes, key)
	return e.expiresAt, nil
}

func (s *MemoryStore) Restore(_ context.Context, purpose Purpose, email, code string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	if !now.Before(expiresAt) {
		return nil
	}
	key := slot{purpose, email}
	if e, ok := s.codes[key]; ok && now.Before(e.expiresAt) {
		return nil
	}
	s.codes[key] = entry{code: code, issuedAt: now, expiresAt: expiresAt}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, purpose Purpose, email string) error {
	s.mu.Lock()
	delete(s.codes, slot{purpose, email})
	s.mu.Unlock()
	return nil
}

// Sweep drops expired codes and returns how many were removed.
func (s *MemoryStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	removed := 0
	for key, e := range s.codes {
		if !now.Before(e.expiresAt) {
			delete(s.codes, key)
			removed++
		}
	}
	return removed
}

// Len reports the number of stored codes, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.codes)
}

// StartSweeper blocks, sweeping every interval until ctx is cancelled.
func (s *MemoryStore) StartSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info("Verification code sweeper started", zap.Duration("interval", interval))

	for {
		select {
		case <-ctx.Done():
			logger.Info("Verification code sweeper stopped")
			return
		case <-ticker.C:
			if removed := s.Sweep(); removed > 0 {
				logger.Debug("Expired verification codes removed", zap.Int("count", removed))
			}
		}
	}
}
