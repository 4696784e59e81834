package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/campuscore/campuscore/internal/models"
)

// ReplaceOTP deletes any unused passcodes for (email, userType) and inserts
// the new one. Both steps run in one transaction so concurrent issuance for
// the same pair cannot leave two live rows.
func (r *GormRepo) ReplaceOTP(ctx context.Context, email, userType, codeHash string, expiresAt time.Time) (*models.OneTimePasscode, error) {
	row := models.OneTimePasscode{
		Email:     NormalizeEmail(email),
		UserType:  userType,
		CodeHash:  codeHash,
		ExpiresAt: expiresAt,
	}

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("email = ? AND user_type = ? AND is_used = ?", row.Email, userType, false).
			Delete(&models.OneTimePasscode{}).Error; err != nil {
			return err
		}
		return tx.Create(&row).Error
	})
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// LatestUnusedOTP returns the most recent unused passcode for the pair, or
// gorm.ErrRecordNotFound.
func (r *GormRepo) LatestUnusedOTP(ctx context.Context, email, userType string) (*models.OneTimePasscode, error) {
	var row models.OneTimePasscode
	err := r.DB.WithContext(ctx).
		Where("email = ? AND user_type = ? AND is_used = ?", NormalizeEmail(email), userType, false).
		Order("created_at DESC, id DESC").
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *GormRepo) MarkOTPUsed(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).
		Model(&models.OneTimePasscode{}).
		Where("id = ?", id).
		Update("is_used", true).Error
}
