package prizes

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rifazone/rifazone-backend/pkg/db/models"
	"github.com/rifazone/rifazone-backend/pkg/enums"
	"github.com/rifazone/rifazone-backend/pkg/types"
)

// Repository manages persistence for instant-prize numbers.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, prize *models.PrizeNumber) error
	Update(ctx context.Context, prizeID uuid.UUID, updates map[string]any) (bool, error)
	Delete(ctx context.Context, prizeID uuid.UUID) (bool, error)
	FindByID(ctx context.Context, prizeID uuid.UUID) (*models.PrizeNumber, error)
	FindByNumber(ctx context.Context, raffleID uuid.UUID, number string) (*models.PrizeNumber, error)
	ListByRaffle(ctx context.Context, raffleID uuid.UUID) ([]models.PrizeNumber, error)
	Award(ctx context.Context, raffleID uuid.UUID, number string, winner types.CustomerSnapshot, saleID uuid.UUID) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a prize number repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, prize *models.PrizeNumber) error {
	return r.db.WithContext(ctx).Create(prize).Error
}

// Update refuses to touch awarded rows; the winner audit trail is immutable.
func (r *repository) Update(ctx context.Context, prizeID uuid.UUID, updates map[string]any) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.PrizeNumber{}).
		Where("id = ? AND status <> ?", prizeID, enums.PrizeNumberStatusPremiado).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) Delete(ctx context.Context, prizeID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND status <> ?", prizeID, enums.PrizeNumberStatusPremiado).
		Delete(&models.PrizeNumber{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) FindByID(ctx context.Context, prizeID uuid.UUID) (*models.PrizeNumber, error) {
	var prize models.PrizeNumber
	err := r.db.WithContext(ctx).Where("id = ?", prizeID).First(&prize).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &prize, nil
}

func (r *repository) FindByNumber(ctx context.Context, raffleID uuid.UUID, number string) (*models.PrizeNumber, error) {
	var prize models.PrizeNumber
	err := r.db.WithContext(ctx).
		Where("raffle_id = ? AND number = ?", raffleID, number).
		First(&prize).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &prize, nil
}

func (r *repository) ListByRaffle(ctx context.Context, raffleID uuid.UUID) ([]models.PrizeNumber, error) {
	var rows []models.PrizeNumber
	err := r.db.WithContext(ctx).
		Where("raffle_id = ?", raffleID).
		Order("number ASC").
		Find(&rows).Error
	return rows, err
}

// Award flips the prize to premiado only while it is still disponivel.
// RowsAffected==1 is the only winner; every other caller sees false.
func (r *repository) Award(ctx context.Context, raffleID uuid.UUID, number string, winner types.CustomerSnapshot, saleID uuid.UUID) (bool, error) {
	winnerJSON, err := json.Marshal(winner)
	if err != nil {
		return false, err
	}
	res := r.db.WithContext(ctx).
		Model(&models.PrizeNumber{}).
		Where("raffle_id = ? AND number = ? AND status = ?", raffleID, number, enums.PrizeNumberStatusDisponivel).
		Updates(map[string]any{
			"status":          enums.PrizeNumberStatusPremiado,
			"winner":          string(winnerJSON),
			"awarded_sale_id": saleID,
			"awarded_at":      time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
