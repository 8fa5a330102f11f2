package withdrawals

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rifazone/rifazone-backend/pkg/db/models"
	"github.com/rifazone/rifazone-backend/pkg/enums"
	"github.com/rifazone/rifazone-backend/pkg/pagination"
)

// Repository persists withdrawal requests.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, request *models.WithdrawalRequest) error
	FindByID(ctx context.Context, requestID uuid.UUID) (*models.WithdrawalRequest, error)
	ListByPartner(ctx context.Context, partnerID uuid.UUID, params pagination.Params) (*pagination.Page[models.WithdrawalRequest], error)
	ListByStatus(ctx context.Context, status enums.WithdrawalStatus, params pagination.Params) (*pagination.Page[models.WithdrawalRequest], error)
	TransitionStatus(ctx context.Context, requestID uuid.UUID, from, to enums.WithdrawalStatus, updates map[string]any) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds the gorm-backed withdrawal repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, request *models.WithdrawalRequest) error {
	return r.db.WithContext(ctx).Create(request).Error
}

func (r *repository) FindByID(ctx context.Context, requestID uuid.UUID) (*models.WithdrawalRequest, error) {
	var request models.WithdrawalRequest
	err := r.db.WithContext(ctx).First(&request, "id = ?", requestID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &request, nil
}

func (r *repository) ListByPartner(ctx context.Context, partnerID uuid.UUID, params pagination.Params) (*pagination.Page[models.WithdrawalRequest], error) {
	query := r.db.WithContext(ctx).Where("partner_id = ?", partnerID)
	return r.list(query, params)
}

func (r *repository) ListByStatus(ctx context.Context, status enums.WithdrawalStatus, params pagination.Params) (*pagination.Page[models.WithdrawalRequest], error) {
	query := r.db.WithContext(ctx).Where("status = ?", status)
	return r.list(query, params)
}

func (r *repository) list(query *gorm.DB, params pagination.Params) (*pagination.Page[models.WithdrawalRequest], error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	limit := pagination.NormalizeLimit(params.Limit)

	query = query.Order("created_at DESC, id DESC").Limit(pagination.LimitWithBuffer(params.Limit))
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var rows []models.WithdrawalRequest
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	page := &pagination.Page[models.WithdrawalRequest]{Items: rows}
	if len(rows) > limit {
		page.Items = rows[:limit]
		last := page.Items[limit-1]
		next := pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		page.NextCursor = &next
	}
	return page, nil
}

func (r *repository) TransitionStatus(ctx context.Context, requestID uuid.UUID, from, to enums.WithdrawalStatus, updates map[string]any) (bool, error) {
	values := map[string]any{"status": to}
	for column, value := range updates {
		values[column] = value
	}
	result := r.db.WithContext(ctx).
		Model(&models.WithdrawalRequest{}).
		Where("id = ? AND status = ?", requestID, from).
		Updates(values)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
