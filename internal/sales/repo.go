package sales

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rifazone/rifazone-backend/pkg/db/models"
	"github.com/rifazone/rifazone-backend/pkg/enums"
	"github.com/rifazone/rifazone-backend/pkg/pagination"
)

// Repository persists sales and their ticket rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, sale *models.Sale) error
	Update(ctx context.Context, saleID uuid.UUID, updates map[string]any) error
	FindByID(ctx context.Context, saleID uuid.UUID) (*models.Sale, error)
	FindByPaymentSessionID(ctx context.Context, sessionID string) (*models.Sale, error)
	ListByPartner(ctx context.Context, partnerID uuid.UUID, params pagination.Params) (*pagination.Page[models.Sale], error)
	TransitionStatus(ctx context.Context, saleID uuid.UUID, from, to enums.SaleStatus, updates map[string]any) (bool, error)
	InsertTicket(ctx context.Context, ticket *models.Ticket) error
	DeleteTickets(ctx context.Context, saleID uuid.UUID) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds the gorm-backed sales repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, sale *models.Sale) error {
	return r.db.WithContext(ctx).Create(sale).Error
}

func (r *repository) Update(ctx context.Context, saleID uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Sale{}).
		Where("id = ?", saleID).
		Updates(updates).Error
}

func (r *repository) FindByID(ctx context.Context, saleID uuid.UUID) (*models.Sale, error) {
	var sale models.Sale
	err := r.db.WithContext(ctx).
		Preload("Tickets").
		First(&sale, "id = ?", saleID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sale, nil
}

func (r *repository) FindByPaymentSessionID(ctx context.Context, sessionID string) (*models.Sale, error) {
	var sale models.Sale
	err := r.db.WithContext(ctx).
		Preload("Tickets").
		First(&sale, "payment_session_id = ?", sessionID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sale, nil
}

func (r *repository) ListByPartner(ctx context.Context, partnerID uuid.UUID, params pagination.Params) (*pagination.Page[models.Sale], error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	limit := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).
		Where("partner_id = ?", partnerID).
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit))
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var rows []models.Sale
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	page := &pagination.Page[models.Sale]{Items: rows}
	if len(rows) > limit {
		page.Items = rows[:limit]
		last := page.Items[limit-1]
		next := pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		page.NextCursor = &next
	}
	return page, nil
}

func (r *repository) TransitionStatus(ctx context.Context, saleID uuid.UUID, from, to enums.SaleStatus, updates map[string]any) (bool, error) {
	values := map[string]any{"status": to}
	for column, value := range updates {
		values[column] = value
	}
	result := r.db.WithContext(ctx).
		Model(&models.Sale{}).
		Where("id = ? AND status = ?", saleID, from).
		Updates(values)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// InsertTicket claims a number inside its own savepoint. Postgres aborts
// the enclosing transaction on a unique violation, so without the
// savepoint a collision could not be rolled back and redrawn.
func (r *repository) InsertTicket(ctx context.Context, ticket *models.Ticket) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(ticket).Error
	})
}

func (r *repository) DeleteTickets(ctx context.Context, saleID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("sale_id = ?", saleID).
		Delete(&models.Ticket{})
	return result.RowsAffected, result.Error
}
