package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/campuscore/campuscore/internal/events"
	"github.com/campuscore/campuscore/internal/models"
	"github.com/campuscore/campuscore/internal/otp"
	"github.com/campuscore/campuscore/internal/repo"
	"github.com/campuscore/campuscore/internal/roles"
	"github.com/campuscore/campuscore/pkg/hash"
	"github.com/campuscore/campuscore/pkg/logging"
	"github.com/campuscore/campuscore/pkg/tokens"
)

var (
	ErrValidation = errors.New("invalid request")
	// ErrInvalidCredentials covers both unknown email and wrong password so
	// callers cannot probe which emails exist.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountNotFound    = errors.New("account not found")
)

// LoginService orchestrates credential verification, role resolution,
// passcode issuance and session minting.
type LoginService struct {
	Repo      repo.GormRepo
	OTP       *otp.Manager
	Events    *events.Producer
	JWTSecret []byte
	TokenTTL  time.Duration
}

// Session is a minted login: a signed token plus where the client should
// land next.
type Session struct {
	Token      string
	ExpiresAt  time.Time
	RedirectTo string
	Role       string
	Account    *models.Account
}

// Outcome of InitiateLogin: either a passcode was mailed, or a session was
// issued directly.
type Outcome struct {
	OTPSent bool
	Session *Session
}

// The email_verified flag and requested userType form a small state
// machine; the table below enumerates every branch. Admin logins always go
// through a passcode, student/teacher only until the first verification.
type loginState struct {
	UserType string
	Verified bool
}

type loginAction int

const (
	actionIssueOTP loginAction = iota
	actionDirectSession
)

var actionTable = map[loginState]loginAction{
	{roles.UserTypeAdmin, false}:   actionIssueOTP,
	{roles.UserTypeAdmin, true}:    actionIssueOTP,
	{roles.UserTypeStudent, false}: actionIssueOTP,
	{roles.UserTypeStudent, true}:  actionDirectSession,
	{roles.UserTypeTeacher, false}: actionIssueOTP,
	{roles.UserTypeTeacher, true}:  actionDirectSession,
}

// InitiateLogin verifies credentials and role membership, then either mails
// a passcode or issues a session straight away. Any failure short-circuits
// before a passcode is issued.
func (s *LoginService) InitiateLogin(ctx context.Context, email, password, userType string) (*Outcome, error) {
	l := logging.FromContext(ctx).With("svc", "login.initiate", "user_type", userType)

	if email == "" || password == "" || !roles.ValidUserType(userType) {
		return nil, ErrValidation
	}

	account, err := s.verifyCredentials(ctx, email, password)
	if err != nil {
		l.Warn("login_rejected", "reason", "credentials")
		return nil, err
	}

	if err := roles.Membership(userType, repo.RoleNames(account)); err != nil {
		l.Warn("login_rejected", "reason", "role")
		return nil, err
	}

	switch actionTable[loginState{userType, account.EmailVerified}] {
	case actionIssueOTP:
		if err := s.OTP.Issue(ctx, account.Email, userType); err != nil {
			return nil, err
		}
		s.Events.Publish(ctx, events.Event{Type: "otp_issued", Email: account.Email, UserType: userType})
		l.Info("otp_sent")
		return &Outcome{OTPSent: true}, nil

	default:
		effective, err := roles.Effective(userType, repo.RoleNames(account))
		if err != nil {
			return nil, err
		}
		session, err := s.issueSession(ctx, account, effective)
		if err != nil {
			return nil, err
		}
		s.Events.Publish(ctx, events.Event{Type: "login_succeeded", Email: account.Email, UserType: userType, Role: effective})
		l.Info("login_successful", "role", effective)
		return &Outcome{Session: session}, nil
	}
}

// CompleteLogin consumes a mailed passcode, flips email_verified on the
// first successful verification and issues the session.
func (s *LoginService) CompleteLogin(ctx context.Context, email, userType, code string) (*Session, error) {
	l := logging.FromContext(ctx).With("svc", "login.complete", "user_type", userType)

	if email == "" || !roles.ValidUserType(userType) || !validCodeShape(code) {
		return nil, ErrValidation
	}

	if err := s.OTP.Verify(ctx, email, userType, code); err != nil {
		l.Warn("otp_rejected")
		return nil, err
	}

	account, err := s.Repo.FindActiveByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("load account: %w", err)
	}

	effective, err := roles.Effective(userType, repo.RoleNames(account))
	if err != nil {
		return nil, err
	}

	if !account.EmailVerified {
		if err := s.Repo.MarkEmailVerified(ctx, account.ID); err != nil {
			return nil, fmt.Errorf("mark email verified: %w", err)
		}
		account.EmailVerified = true
	}

	session, err := s.issueSession(ctx, account, effective)
	if err != nil {
		return nil, err
	}

	s.Events.Publish(ctx, events.Event{Type: "login_succeeded", Email: account.Email, UserType: userType, Role: effective})
	l.Info("login_successful", "role", effective)
	return session, nil
}

func (s *LoginService) verifyCredentials(ctx context.Context, email, password string) (*models.Account, error) {
	account, err := s.Repo.FindActiveByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("load account: %w", err)
	}
	if !hash.CheckPassword(account.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return account, nil
}

// issueSession builds the role-scoped profile snapshot, signs the token and
// records last_login.
func (s *LoginService) issueSession(ctx context.Context, account *models.Account, role string) (*Session, error) {
	profile, err := s.profileFor(ctx, account, role)
	if err != nil {
		return nil, err
	}

	expiresAt := time.Now().Add(s.TokenTTL)
	token, err := tokens.NewSessionToken(s.JWTSecret, fmt.Sprint(account.ID), account.Email, role, profile, expiresAt)
	if err != nil {
		return nil, fmt.Errorf("sign session token: %w", err)
	}

	if err := s.Repo.SetLastLogin(ctx, account.ID, time.Now()); err != nil {
		return nil, fmt.Errorf("record last login: %w", err)
	}

	return &Session{
		Token:      token,
		ExpiresAt:  expiresAt,
		RedirectTo: roles.LandingPath(role),
		Role:       role,
		Account:    account,
	}, nil
}

func (s *LoginService) profileFor(ctx context.Context, account *models.Account, role string) (tokens.Profile, error) {
	switch role {
	case roles.Student:
		p, err := s.Repo.StudentProfile(ctx, account.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return tokens.Profile{}, nil
			}
			return tokens.Profile{}, fmt.Errorf("load student profile: %w", err)
		}
		return tokens.Profile{RollNumber: p.RollNumber, DepartmentID: p.DepartmentID, ProgramID: p.ProgramID}, nil

	case roles.Teacher:
		p, err := s.Repo.TeacherProfile(ctx, account.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return tokens.Profile{}, nil
			}
			return tokens.Profile{}, fmt.Errorf("load teacher profile: %w", err)
		}
		return tokens.Profile{DepartmentID: p.DepartmentID, Designation: p.Designation}, nil
	}

	// admin roles carry identity only
	return tokens.Profile{}, nil
}

func validCodeShape(code string) bool {
	if len(code) != 6 {
		return false
	}
	for _, c := range code {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
