package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/example/storefront/internal/metrics"
	"github.com/example/storefront/internal/models"
	"github.com/example/storefront/internal/repository/memory"
	"github.com/example/storefront/internal/verification"
)

// recordingMailer keeps every message it is asked to send.
type recordingMailer struct {
	mu   sync.Mutex
	sent []Message
	fail map[string]error
}

func (m *recordingMailer) Send(_ context.Context, msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail[msg.To]; err != nil {
		return err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *recordingMailer) messages() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.sent...)
}

// lastCode extracts the trailing code from the most recent message to.
func (m *recordingMailer) lastCode(to string) string {
	msgs := m.messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].To == to {
			return msgs[i].Body[strings.LastIndex(msgs[i].Body, " ")+1:]
		}
	}
	return ""
}

type mockMailer struct {
	mock.Mock
}

func (m *mockMailer) Send(ctx context.Context, msg Message) error {
	return m.Called(ctx, msg).Error(0)
}

type mockAlerter struct {
	mock.Mock
}

func (m *mockAlerter) NotifyNewOrder(ctx context.Context, order *models.Order, buyerEmail string) error {
	return m.Called(ctx, order, buyerEmail).Error(0)
}

type fixture struct {
	store  *memory.Store
	codes  *verification.MemoryStore
	mailer *recordingMailer
	auth   *AuthService
}

func newFixture() *fixture {
	store := memory.NewStore()
	codes := verification.NewMemoryStore(verification.DefaultTTL)
	mailer := &recordingMailer{fail: map[string]error{}}
	auth := NewAuthService(store.Users(), codes, mailer, metrics.New(), AuthConfig{
		JWTSecret: "test-secret",
		TokenTTL:  time.Hour,
		ShopName:  "T-Shirt Ecommerce",
	})
	return &fixture{store: store, codes: codes, mailer: mailer, auth: auth}
}

func (f *fixture) register(email, password string) *Session {
	ctx := context.Background()
	if err := f.auth.Signup(ctx, email, password); err != nil {
		panic(err)
	}
	session, err := f.auth.VerifyCode(ctx, email, f.mailer.lastCode(NormalizeEmail(email)), password)
	if err != nil {
		panic(err)
	}
	return session
}
