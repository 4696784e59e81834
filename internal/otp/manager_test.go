package otp

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/campuscore/campuscore/internal/config"
	"github.com/campuscore/campuscore/internal/models"
	"github.com/campuscore/campuscore/internal/ratelimit"
	"github.com/campuscore/campuscore/internal/repo"
	"github.com/campuscore/campuscore/internal/roles"
)

var codeRe = regexp.MustCompile(`passcode is: (\d{6})`)

type captureMailer struct {
	to, subject, body string
	sent              int
	err               error
}

func (m *captureMailer) Send(to, subject, body string) error {
	if m.err != nil {
		return m.err
	}
	m.to, m.subject, m.body = to, subject, body
	m.sent++
	return nil
}

func (m *captureMailer) lastCode(t *testing.T) string {
	t.Helper()
	match := codeRe.FindStringSubmatch(m.body)
	require.Len(t, match, 2, "mail body should carry a 6-digit code")
	return match[1]
}

func newTestManager(t *testing.T) (*Manager, *captureMailer, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, config.Migrate(db))

	mail := &captureMailer{}
	m := NewManager(repo.GormRepo{DB: db}, ratelimit.New(10, 5*time.Minute), mail, 5*time.Minute)
	return m, mail, db
}

func TestManager_IssueThenVerify(t *testing.T) {
	t.Parallel()

	m, mail, _ := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, m.Issue(ctx, "a@x.com", roles.UserTypeStudent))
	require.Equal(t, "a@x.com", mail.to)

	code := mail.lastCode(t)
	require.NoError(t, m.Verify(ctx, "a@x.com", roles.UserTypeStudent, code))
}

func TestManager_CodeIsNeverPersistedInPlaintext(t *testing.T) {
	t.Parallel()

	m, mail, db := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, m.Issue(ctx, "a@x.com", roles.UserTypeStudent))
	code := mail.lastCode(t)

	var row models.OneTimePasscode
	require.NoError(t, db.First(&row).Error)
	assert.NotEqual(t, code, row.CodeHash)
	assert.NotContains(t, row.CodeHash, code)
}

func TestManager_ReissueInvalidatesPriorCode(t *testing.T) {
	t.Parallel()

	m, mail, db := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, m.Issue(ctx, "a@x.com", roles.UserTypeStudent))
	oldCode := mail.lastCode(t)

	require.NoError(t, m.Issue(ctx, "a@x.com", roles.UserTypeStudent))
	newCode := mail.lastCode(t)

	var count int64
	require.NoError(t, db.Model(&models.OneTimePasscode{}).
		Where("email = ? AND user_type = ? AND is_used = ?", "a@x.com", roles.UserTypeStudent, false).
		Count(&count).Error)
	assert.EqualValues(t, 1, count, "one unused row per (email, userType)")

	if oldCode != newCode {
		require.ErrorIs(t, m.Verify(ctx, "a@x.com", roles.UserTypeStudent, oldCode), ErrInvalid)
	}
	require.NoError(t, m.Verify(ctx, "a@x.com", roles.UserTypeStudent, newCode))
}

func TestManager_PairsAreIndependent(t *testing.T) {
	t.Parallel()

	m, mail, _ := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, m.Issue(ctx, "a@x.com", roles.UserTypeStudent))
	studentCode := mail.lastCode(t)

	// an admin issuance for the same email must not clobber the student code
	require.NoError(t, m.Issue(ctx, "a@x.com", roles.UserTypeAdmin))
	require.NoError(t, m.Verify(ctx, "a@x.com", roles.UserTypeStudent, studentCode))
}

func TestManager_VerifyWrongCode(t *testing.T) {
	t.Parallel()

	m, mail, _ := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, m.Issue(ctx, "a@x.com", roles.UserTypeStudent))
	code := mail.lastCode(t)

	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}
	require.ErrorIs(t, m.Verify(ctx, "a@x.com", roles.UserTypeStudent, wrong), ErrInvalid)

	// the pending code survives a wrong attempt
	require.NoError(t, m.Verify(ctx, "a@x.com", roles.UserTypeStudent, code))
}

func TestManager_VerifyWithoutIssue(t *testing.T) {
	t.Parallel()

	m, _, _ := newTestManager(t)
	require.ErrorIs(t, m.Verify(context.Background(), "a@x.com", roles.UserTypeStudent, "123456"), ErrNotFound)
}

func TestManager_NoReplayAfterConsume(t *testing.T) {
	t.Parallel()

	m, mail, _ := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, m.Issue(ctx, "a@x.com", roles.UserTypeStudent))
	code := mail.lastCode(t)

	require.NoError(t, m.Verify(ctx, "a@x.com", roles.UserTypeStudent, code))
	require.ErrorIs(t, m.Verify(ctx, "a@x.com", roles.UserTypeStudent, code), ErrNotFound)
}

func TestManager_ExpiryCheckedAtVerify(t *testing.T) {
	t.Parallel()

	m, mail, _ := newTestManager(t)
	ctx := context.Background()

	issued := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	m.Now = func() time.Time { return issued }

	require.NoError(t, m.Issue(ctx, "early@x.com", roles.UserTypeStudent))
	earlyCode := mail.lastCode(t)
	require.NoError(t, m.Issue(ctx, "late@x.com", roles.UserTypeStudent))
	lateCode := mail.lastCode(t)

	m.Now = func() time.Time { return issued.Add(5*time.Minute - time.Second) }
	require.NoError(t, m.Verify(ctx, "early@x.com", roles.UserTypeStudent, earlyCode), "valid strictly before expiry")

	m.Now = func() time.Time { return issued.Add(5*time.Minute + time.Second) }
	require.ErrorIs(t, m.Verify(ctx, "late@x.com", roles.UserTypeStudent, lateCode), ErrExpired)
}

func TestManager_RateLimited(t *testing.T) {
	t.Parallel()

	m, _, _ := newTestManager(t)
	m.Limiter = ratelimit.New(3, 5*time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, m.Issue(ctx, "a@x.com", roles.UserTypeStudent))
	}
	require.ErrorIs(t, m.Issue(ctx, "a@x.com", roles.UserTypeStudent), ErrRateLimited)

	// other emails keep working
	require.NoError(t, m.Issue(ctx, "b@x.com", roles.UserTypeStudent))
}

func TestManager_DeliveryFailureFailsIssue(t *testing.T) {
	t.Parallel()

	m, mail, db := newTestManager(t)
	mail.err = errors.New("smtp: connection refused")
	ctx := context.Background()

	err := m.Issue(ctx, "a@x.com", roles.UserTypeStudent)
	require.ErrorIs(t, err, ErrDelivery)

	// the undelivered row may remain for a resend, but never two live ones
	var count int64
	require.NoError(t, db.Model(&models.OneTimePasscode{}).
		Where("is_used = ?", false).Count(&count).Error)
	assert.LessOrEqual(t, count, int64(1))
}

func TestGenerateCode_SixDigits(t *testing.T) {
	t.Parallel()

	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		code, err := GenerateCode()
		require.NoError(t, err)
		require.Regexp(t, `^\d{6}$`, code)
		seen[code] = true
	}
	assert.Greater(t, len(seen), 150, "codes should not obviously repeat")
}
