package partners

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/rifazone/rifazone-backend/pkg/db/models"
	"github.com/rifazone/rifazone-backend/pkg/enums"
)

// Repository manages persistence for partners and their balance inputs.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, partner *models.Partner) error
	Update(ctx context.Context, partnerID uuid.UUID, updates map[string]any) error
	FindByID(ctx context.Context, partnerID uuid.UUID) (*models.Partner, error)
	FindBySlug(ctx context.Context, slug string) (*models.Partner, error)
	List(ctx context.Context, limit int) ([]models.Partner, error)
	SumCommission(ctx context.Context, partnerID uuid.UUID) (decimal.Decimal, error)
	SumWithdrawalHolds(ctx context.Context, partnerID uuid.UUID) (decimal.Decimal, error)
	Touch(ctx context.Context, partnerID uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a partner repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, partner *models.Partner) error {
	return r.db.WithContext(ctx).Create(partner).Error
}

func (r *repository) Update(ctx context.Context, partnerID uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Partner{}).
		Where("id = ?", partnerID).
		Updates(updates).Error
}

func (r *repository) FindByID(ctx context.Context, partnerID uuid.UUID) (*models.Partner, error) {
	var partner models.Partner
	err := r.db.WithContext(ctx).Where("id = ?", partnerID).First(&partner).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &partner, nil
}

func (r *repository) FindBySlug(ctx context.Context, slug string) (*models.Partner, error) {
	var partner models.Partner
	err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&partner).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &partner, nil
}

func (r *repository) List(ctx context.Context, limit int) ([]models.Partner, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []models.Partner
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// SumCommission totals the commission column over commission-bearing sales.
func (r *repository) SumCommission(ctx context.Context, partnerID uuid.UUID) (decimal.Decimal, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Sale{}).
		Select("COALESCE(SUM(commission), 0)").
		Where("partner_id = ? AND status IN ?", partnerID, enums.CommissionBearingSaleStatuses)
	return sumRow(query)
}

// SumWithdrawalHolds totals pending, approved, and processed withdrawals.
func (r *repository) SumWithdrawalHolds(ctx context.Context, partnerID uuid.UUID) (decimal.Decimal, error) {
	query := r.db.WithContext(ctx).
		Model(&models.WithdrawalRequest{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("partner_id = ? AND status IN ?", partnerID, enums.BalanceHoldingWithdrawalStatuses)
	return sumRow(query)
}

// Touch bumps updated_at on the partner row. Inside a transaction this
// takes the row lock that serializes concurrent balance checks.
func (r *repository) Touch(ctx context.Context, partnerID uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Model(&models.Partner{}).
		Where("id = ?", partnerID).
		Update("updated_at", time.Now().UTC())
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func sumRow(query *gorm.DB) (decimal.Decimal, error) {
	var raw string
	row := query.Row()
	if err := row.Scan(&raw); err != nil {
		return decimal.Zero, err
	}
	if raw == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(raw)
}
