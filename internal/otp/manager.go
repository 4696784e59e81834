package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"gorm.io/gorm"

	"github.com/campuscore/campuscore/internal/mailer"
	"github.com/campuscore/campuscore/internal/ratelimit"
	"github.com/campuscore/campuscore/internal/repo"
	"github.com/campuscore/campuscore/pkg/hash"
	"github.com/campuscore/campuscore/pkg/logging"
)

var (
	ErrRateLimited = errors.New("too many passcode requests")
	ErrNotFound    = errors.New("no pending passcode")
	ErrExpired     = errors.New("passcode expired")
	ErrInvalid     = errors.New("passcode does not match")
	ErrDelivery    = errors.New("passcode delivery failed")
)

const codeDigits = 6

var codeSpace = big.NewInt(1_000_000)

// Manager owns the passcode lifecycle for an (email, userType) pair:
// issue replaces any pending code, verify consumes it exactly once, expiry
// is checked lazily at verify time.
type Manager struct {
	Repo    repo.GormRepo
	Limiter *ratelimit.Limiter
	Mail    mailer.Sender
	TTL     time.Duration

	// Now is the clock, overridable in tests.
	Now func() time.Time
}

func NewManager(r repo.GormRepo, limiter *ratelimit.Limiter, mail mailer.Sender, ttl time.Duration) *Manager {
	return &Manager{
		Repo:    r,
		Limiter: limiter,
		Mail:    mail,
		TTL:     ttl,
		Now:     time.Now,
	}
}

// Issue generates a fresh 6-digit code for the pair, replacing any unused
// one, and mails it. The plaintext code lives only in the outgoing mail;
// the store keeps a bcrypt hash. A delivery failure fails the whole call,
// though the persisted row stays behind so a resend can follow.
func (m *Manager) Issue(ctx context.Context, email, userType string) error {
	l := logging.FromContext(ctx).With("svc", "otp.issue", "user_type", userType)

	email = repo.NormalizeEmail(email)
	if !m.Limiter.Allow(email) {
		l.Warn("otp_rate_limited")
		return ErrRateLimited
	}

	code, err := GenerateCode()
	if err != nil {
		return fmt.Errorf("generate passcode: %w", err)
	}

	codeHash, err := hash.HashPassword(code)
	if err != nil {
		return fmt.Errorf("hash passcode: %w", err)
	}

	expiresAt := m.Now().Add(m.TTL)
	if _, err := m.Repo.ReplaceOTP(ctx, email, userType, codeHash, expiresAt); err != nil {
		return fmt.Errorf("persist passcode: %w", err)
	}

	subject, body := mailer.OTPMessage(code, m.TTL)
	if err := m.Mail.Send(email, subject, body); err != nil {
		l.Error("otp_delivery_failed", "error", err)
		return fmt.Errorf("%w: %v", ErrDelivery, err)
	}

	l.Info("otp_issued")
	return nil
}

// Verify checks code against the latest unused row for the pair and
// consumes it. A second Verify after success fails with ErrNotFound.
func (m *Manager) Verify(ctx context.Context, email, userType, code string) error {
	row, err := m.Repo.LatestUnusedOTP(ctx, email, userType)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("load passcode: %w", err)
	}

	if m.Now().After(row.ExpiresAt) {
		return ErrExpired
	}

	if !hash.CheckPassword(row.CodeHash, code) {
		return ErrInvalid
	}

	if err := m.Repo.MarkOTPUsed(ctx, row.ID); err != nil {
		return fmt.Errorf("consume passcode: %w", err)
	}
	return nil
}

// GenerateCode draws a uniformly random zero-padded 6-digit decimal code.
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, codeSpace)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", codeDigits, n), nil
}
