package referrals

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rifazone/rifazone-backend/pkg/db/models"
)

// Repository manages persistence for referral clicks.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, click *models.ReferralClick) error
	FindLatestUnconverted(ctx context.Context, partnerID uuid.UUID, before time.Time) (*models.ReferralClick, error)
	MarkConverted(ctx context.Context, clickID, saleID uuid.UUID, before time.Time) (bool, error)
	CountByPartner(ctx context.Context, partnerID uuid.UUID) (total, converted int64, err error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a referral click repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, click *models.ReferralClick) error {
	return r.db.WithContext(ctx).Create(click).Error
}

// FindLatestUnconverted returns the newest unclaimed click recorded
// strictly before the sale it may back. Later clicks are not eligible.
func (r *repository) FindLatestUnconverted(ctx context.Context, partnerID uuid.UUID, before time.Time) (*models.ReferralClick, error) {
	var click models.ReferralClick
	err := r.db.WithContext(ctx).
		Where("partner_id = ? AND converted = ? AND created_at < ?", partnerID, false, before).
		Order("created_at DESC").
		First(&click).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &click, nil
}

// MarkConverted claims the click for a sale. The converted guard keeps a
// click from ever backing two sales, and the created_at guard keeps a
// click recorded after the sale from being claimed by it.
func (r *repository) MarkConverted(ctx context.Context, clickID, saleID uuid.UUID, before time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.ReferralClick{}).
		Where("id = ? AND converted = ? AND created_at < ?", clickID, false, before).
		Updates(map[string]any{
			"converted":    true,
			"converted_at": time.Now().UTC(),
			"sale_id":      saleID,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) CountByPartner(ctx context.Context, partnerID uuid.UUID) (int64, int64, error) {
	var total, converted int64
	if err := r.db.WithContext(ctx).
		Model(&models.ReferralClick{}).
		Where("partner_id = ?", partnerID).
		Count(&total).Error; err != nil {
		return 0, 0, err
	}
	if err := r.db.WithContext(ctx).
		Model(&models.ReferralClick{}).
		Where("partner_id = ? AND converted = ?", partnerID, true).
		Count(&converted).Error; err != nil {
		return 0, 0, err
	}
	return total, converted, nil
}
