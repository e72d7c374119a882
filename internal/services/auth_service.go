package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/storefront/internal/apperrors"
	"github.com/example/storefront/internal/logger"
	"github.com/example/storefront/internal/metrics"
	"github.com/example/storefront/internal/models"
	"github.com/example/storefront/internal/repository"
	"github.com/example/storefront/internal/utils"
	"github.com/example/storefront/internal/verification"
)

// Session is the result of a successful login or signup verification.
type Session struct {
	UserID    uuid.UUID
	Email     string
	Token     string
	ExpiresAt time.Time
}

type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
	ShopName  string
}

// AuthService runs signup, login and password flows.
type AuthService struct {
	users   repository.UserRepository
	codes   verification.Store
	mailer  Mailer
	metrics *metrics.Metrics
	cfg     AuthConfig
}

func NewAuthService(users repository.UserRepository, codes verification.Store, mailer Mailer, m *metrics.Metrics, cfg AuthConfig) *AuthService {
	return &AuthService{users: users, codes: codes, mailer: mailer, metrics: m, cfg: cfg}
}

// NormalizeEmail trims and lower-cases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Signup emails a verification code to an unregistered address.
func (s *AuthService) Signup(ctx context.Context, email, password string) error {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return apperrors.Validation("email and password are required")
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return apperrors.ErrEmailTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return apperrors.Internal(fmt.Errorf("lookup user: %w", err))
	}

	return s.sendCode(ctx, verification.PurposeSignup, email, Message{
		To:      email,
		Subject: fmt.Sprintf("Verification Code for %s Sign Up", s.cfg.ShopName),
		Body:    "Your verification code is: %s",
	})
}

// sendCode issues a code and mails it; msg.Body is a format string taking
// the code. A failed send invalidates the code.
func (s *AuthService) sendCode(ctx context.Context, purpose verification.Purpose, email string, msg Message) error {
	code, err := s.codes.Issue(ctx, purpose, email)
	if err != nil {
		return apperrors.Internal(fmt.Errorf("issue code: %w", err))
	}
	s.metrics.CodeIssued(string(purpose))

	msg.Body = fmt.Sprintf(msg.Body, code)
	if err := s.mailer.Send(ctx, msg); err != nil {
		if delErr := s.codes.Delete(ctx, purpose, email); delErr != nil {
			logger.Warn("Failed to invalidate unsent code", zap.String("event", "code_delete_failed"), zap.Error(delErr))
		}
		logger.Error("Failed to send verification email",
			zap.String("event", "code_mail_failed"),
			zap.String("purpose", string(purpose)),
			zap.Error(err),
		)
		return apperrors.Internal(fmt.Errorf("send code: %w", err))
	}

	logger.Info("Verification code sent",
		zap.String("event", "code_sent"),
		zap.String("purpose", string(purpose)),
		zap.String("email", email),
	)
	return nil
}

// redemption is a consumed code that can be handed back when the write
// it authorizes fails.
type redemption struct {
	s         *AuthService
	purpose   verification.Purpose
	email     string
	code      string
	expiresAt time.Time
}

func (r *redemption) restore(ctx context.Context) {
	err := r.s.codes.Restore(context.WithoutCancel(ctx), r.purpose, r.email, r.code, r.expiresAt)
	if err != nil {
		logger.Warn("Failed to restore verification code",
			zap.String("event", "code_restore_failed"),
			zap.String("purpose", string(r.purpose)),
			zap.Error(err),
		)
	}
}

func (s *AuthService) consumeCode(ctx context.Context, purpose verification.Purpose, email, code string) (*redemption, error) {
	expiresAt, err := s.codes.Consume(ctx, purpose, email, code)
	s.metrics.CodeAttempt(string(purpose), err)
	switch {
	case err == nil:
		return &redemption{s: s, purpose: purpose, email: email, code: code, expiresAt: expiresAt}, nil
	case errors.Is(err, verification.ErrInvalidOrExpiredCode):
		return nil, apperrors.ErrInvalidOrExpiredCode
	default:
		return nil, apperrors.Internal(err)
	}
}

// VerifyCode consumes a signup code, creates the user and logs them in.
// The code stays usable if the user could not be created.
func (s *AuthService) VerifyCode(ctx context.Context, email, code, password string) (*Session, error) {
	email = NormalizeEmail(email)
	redeemed, err := s.consumeCode(ctx, verification.PurposeSignup, email, code)
	if err != nil {
		return nil, err
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		redeemed.restore(ctx)
		if errors.Is(err, utils.ErrPasswordTooLong) {
			return nil, apperrors.Validation(err.Error())
		}
		return nil, apperrors.Internal(fmt.Errorf("hash password: %w", err))
	}

	user := &models.User{Email: email, PasswordHash: hash}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.ErrEmailTaken
		}
		redeemed.restore(ctx)
		return nil, apperrors.Internal(fmt.Errorf("create user: %w", err))
	}

	logger.Info("User registered", zap.String("event", "user_created"), zap.String("user_id", user.ID.String()))
	return s.issueSession(user)
}

// Login checks credentials. Unknown emails and wrong passwords fail alike.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, apperrors.Validation("email and password are required")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, apperrors.Internal(fmt.Errorf("lookup user: %w", err))
	}
	if !utils.CheckPassword(user.PasswordHash, password) {
		return nil, apperrors.ErrInvalidCredentials
	}

	return s.issueSession(user)
}

// ForgotPassword emails a reset code to a registered address.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	email = NormalizeEmail(email)
	if email == "" {
		return apperrors.Validation("email is required")
	}

	if _, err := s.users.GetByEmail(ctx, email); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.ErrEmailNotRegistered
		}
		return apperrors.Internal(fmt.Errorf("lookup user: %w", err))
	}

	return s.sendCode(ctx, verification.PurposeReset, email, Message{
		To:      email,
		Subject: fmt.Sprintf("Password Reset Code for %s", s.cfg.ShopName),
		Body:    "Your password reset code is: %s",
	})
}

// ResetPassword consumes a reset code and stores the new password. The
// code stays usable if the password could not be stored.
func (s *AuthService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	email = NormalizeEmail(email)
	redeemed, err := s.consumeCode(ctx, verification.PurposeReset, email, code)
	if err != nil {
		return err
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.ErrEmailNotRegistered
		}
		redeemed.restore(ctx)
		return apperrors.Internal(fmt.Errorf("lookup user: %w", err))
	}

	if err := s.setPassword(ctx, user.ID, newPassword); err != nil {
		redeemed.restore(ctx)
		return err
	}
	logger.Info("Password reset", zap.String("event", "password_reset"), zap.String("user_id", user.ID.String()))
	return nil
}

// UpdatePassword changes the password of an authenticated user.
func (s *AuthService) UpdatePassword(ctx context.Context, userID uuid.UUID, newPassword string) error {
	if newPassword == "" {
		return apperrors.Validation("new password is required")
	}
	if err := s.setPassword(ctx, userID, newPassword); err != nil {
		return err
	}
	logger.Info("Password updated", zap.String("event", "password_updated"), zap.String("user_id", userID.String()))
	return nil
}

func (s *AuthService) setPassword(ctx context.Context, userID uuid.UUID, password string) error {
	hash, err := utils.HashPassword(password)
	if err != nil {
		if errors.Is(err, utils.ErrPasswordTooLong) {
			return apperrors.Validation(err.Error())
		}
		return apperrors.Internal(fmt.Errorf("hash password: %w", err))
	}
	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.ErrUserNotFound
		}
		return apperrors.Internal(fmt.Errorf("update password: %w", err))
	}
	return nil
}

func (s *AuthService) issueSession(user *models.User) (*Session, error) {
	token, expiresAt, err := utils.GenerateToken(s.cfg.JWTSecret, user.ID, user.Email, s.cfg.TokenTTL)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("sign token: %w", err))
	}
	return &Session{UserID: user.ID, Email: user.Email, Token: token, ExpiresAt: expiresAt}, nil
}
