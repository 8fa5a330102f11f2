package raffles

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rifazone/rifazone-backend/pkg/db/models"
	"github.com/rifazone/rifazone-backend/pkg/enums"
)

// Repository manages persistence for raffles.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, raffle *models.Raffle) error
	Update(ctx context.Context, raffleID uuid.UUID, updates map[string]any) error
	FindByID(ctx context.Context, raffleID uuid.UUID) (*models.Raffle, error)
	FindBySlug(ctx context.Context, slug string) (*models.Raffle, error)
	List(ctx context.Context, limit int) ([]models.Raffle, error)
	TransitionStatus(ctx context.Context, raffleID uuid.UUID, from, to enums.RaffleStatus, updates map[string]any) (bool, error)
	SoldTicketCount(ctx context.Context, raffleID uuid.UUID) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a raffle repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, raffle *models.Raffle) error {
	return r.db.WithContext(ctx).Create(raffle).Error
}

func (r *repository) Update(ctx context.Context, raffleID uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Raffle{}).
		Where("id = ?", raffleID).
		Updates(updates).Error
}

func (r *repository) FindByID(ctx context.Context, raffleID uuid.UUID) (*models.Raffle, error) {
	var raffle models.Raffle
	err := r.db.WithContext(ctx).Where("id = ?", raffleID).First(&raffle).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &raffle, nil
}

func (r *repository) FindBySlug(ctx context.Context, slug string) (*models.Raffle, error) {
	var raffle models.Raffle
	err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&raffle).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &raffle, nil
}

func (r *repository) List(ctx context.Context, limit int) ([]models.Raffle, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []models.Raffle
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// TransitionStatus flips the status only when the row is still in the
// expected state. The RowsAffected check is what makes concurrent
// transitions safe: one caller wins, the rest see false.
func (r *repository) TransitionStatus(ctx context.Context, raffleID uuid.UUID, from, to enums.RaffleStatus, updates map[string]any) (bool, error) {
	if updates == nil {
		updates = map[string]any{}
	}
	updates["status"] = to
	res := r.db.WithContext(ctx).
		Model(&models.Raffle{}).
		Where("id = ? AND status = ?", raffleID, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) SoldTicketCount(ctx context.Context, raffleID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Ticket{}).
		Where("raffle_id = ?", raffleID).
		Count(&count).Error
	return count, err
}
