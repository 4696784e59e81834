package repo

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/campuscore/campuscore/internal/models"
)

// GormRepo is the store behind the login subsystem: accounts with their
// role assignments, profile snapshots and one-time passcodes.
type GormRepo struct {
	DB *gorm.DB
}

// FindActiveByEmail looks up an active account by case-insensitive email,
// with its roles preloaded. Returns gorm.ErrRecordNotFound when absent.
func (r *GormRepo) FindActiveByEmail(ctx context.Context, email string) (*models.Account, error) {
	var account models.Account
	err := r.DB.WithContext(ctx).
		Preload("Roles").
		Where("email = ? AND status = ?", NormalizeEmail(email), models.StatusActive).
		First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *GormRepo) SetLastLogin(ctx context.Context, accountID uint, at time.Time) error {
	return r.DB.WithContext(ctx).
		Model(&models.Account{}).
		Where("id = ?", accountID).
		Update("last_login", at).Error
}

// MarkEmailVerified flips email_verified false -> true. The guard on the
// current value keeps the transition one-way and idempotent.
func (r *GormRepo) MarkEmailVerified(ctx context.Context, accountID uint) error {
	return r.DB.WithContext(ctx).
		Model(&models.Account{}).
		Where("id = ? AND email_verified = ?", accountID, false).
		Update("email_verified", true).Error
}

func (r *GormRepo) StudentProfile(ctx context.Context, accountID uint) (*models.StudentProfile, error) {
	var p models.StudentProfile
	if err := r.DB.WithContext(ctx).Where("account_id = ?", accountID).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *GormRepo) TeacherProfile(ctx context.Context, accountID uint) (*models.TeacherProfile, error) {
	var p models.TeacherProfile
	if err := r.DB.WithContext(ctx).Where("account_id = ?", accountID).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func RoleNames(account *models.Account) []string {
	names := make([]string, 0, len(account.Roles))
	for _, role := range account.Roles {
		names = append(names, role.Name)
	}
	return names
}
