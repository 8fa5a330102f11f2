package prizes

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/rifazone/rifazone-backend/internal/raffles"
	"github.com/rifazone/rifazone-backend/pkg/db/models"
	"github.com/rifazone/rifazone-backend/pkg/enums"
	pkgerrors "github.com/rifazone/rifazone-backend/pkg/errors"
	"github.com/rifazone/rifazone-backend/pkg/outbox"
	"github.com/rifazone/rifazone-backend/pkg/types"
)

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service manages instant-prize numbers and their award at sale time.
type Service interface {
	Create(ctx context.Context, input CreatePrizeInput) (*models.PrizeNumber, error)
	Update(ctx context.Context, prizeID uuid.UUID, input UpdatePrizeInput) (*models.PrizeNumber, error)
	Delete(ctx context.Context, prizeID uuid.UUID) error
	Get(ctx context.Context, prizeID uuid.UUID) (*models.PrizeNumber, error)
	ListByRaffle(ctx context.Context, raffleID uuid.UUID) ([]models.PrizeNumber, error)
	// CheckAndAward runs inside the sale transaction and awards every
	// prize number matched by the sale's tickets.
	CheckAndAward(ctx context.Context, tx *gorm.DB, raffleID uuid.UUID, numbers []string, winner types.CustomerSnapshot, saleID uuid.UUID) ([]models.PrizeNumber, error)
}

type service struct {
	repo       Repository
	raffleRepo raffles.Repository
	outbox     outboxPublisher
}

// CreatePrizeInput captures a new instant-prize designation.
type CreatePrizeInput struct {
	RaffleID    uuid.UUID
	Number      string
	Description string
	Value       decimal.Decimal
}

// UpdatePrizeInput carries editable fields. Status may only move forward
// (disponivel -> reservado); awarded rows are immutable.
type UpdatePrizeInput struct {
	Description *string
	Value       *decimal.Decimal
	Status      *enums.PrizeNumberStatus
}

// PrizeAwardedEvent is emitted when a sold number carries a prize.
type PrizeAwardedEvent struct {
	PrizeID  uuid.UUID              `json:"prize_id"`
	RaffleID uuid.UUID              `json:"raffle_id"`
	SaleID   uuid.UUID              `json:"sale_id"`
	Number   string                 `json:"number"`
	Winner   types.CustomerSnapshot `json:"winner"`
}

// NewService wires the prize service with the required dependencies.
func NewService(repo Repository, raffleRepo raffles.Repository, outboxSvc outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("prize repository required")
	}
	if raffleRepo == nil {
		return nil, fmt.Errorf("raffle repository required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{repo: repo, raffleRepo: raffleRepo, outbox: outboxSvc}, nil
}

func (s *service) Create(ctx context.Context, input CreatePrizeInput) (*models.PrizeNumber, error) {
	if input.RaffleID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "raffle id is required")
	}
	description := strings.TrimSpace(input.Description)
	if description == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "description is required")
	}
	if input.Value.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "value must not be negative")
	}

	raffle, err := s.raffleRepo.FindByID(ctx, input.RaffleID)
	if err != nil {
		return nil, err
	}
	if raffle == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "raffle not found")
	}

	number, err := normalizeNumber(input.Number, raffle)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByNumber(ctx, input.RaffleID, number)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "number already carries a prize")
	}

	prize := &models.PrizeNumber{
		ID:          uuid.New(),
		RaffleID:    input.RaffleID,
		Number:      number,
		Description: description,
		Value:       input.Value,
		Status:      enums.PrizeNumberStatusDisponivel,
	}
	if err := s.repo.Create(ctx, prize); err != nil {
		if pkgerrors.IsUniqueViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "number already carries a prize")
		}
		return nil, err
	}
	return prize, nil
}

func (s *service) Update(ctx context.Context, prizeID uuid.UUID, input UpdatePrizeInput) (*models.PrizeNumber, error) {
	prize, err := s.mustFind(ctx, prizeID)
	if err != nil {
		return nil, err
	}
	if prize.Status == enums.PrizeNumberStatusPremiado {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "prize already awarded")
	}

	updates := map[string]any{}
	if input.Description != nil {
		description := strings.TrimSpace(*input.Description)
		if description == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "description must not be empty")
		}
		updates["description"] = description
	}
	if input.Value != nil {
		if input.Value.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "value must not be negative")
		}
		updates["value"] = *input.Value
	}
	if input.Status != nil {
		if !input.Status.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid prize status")
		}
		if !prize.Status.CanTransitionTo(*input.Status) {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("cannot move prize from %s to %s", prize.Status, *input.Status))
		}
		updates["status"] = *input.Status
	}
	if len(updates) == 0 {
		return prize, nil
	}

	ok, err := s.repo.Update(ctx, prizeID, updates)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "prize already awarded")
	}
	return s.repo.FindByID(ctx, prizeID)
}

func (s *service) Delete(ctx context.Context, prizeID uuid.UUID) error {
	prize, err := s.mustFind(ctx, prizeID)
	if err != nil {
		return err
	}
	if prize.Status == enums.PrizeNumberStatusPremiado {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "prize already awarded")
	}
	ok, err := s.repo.Delete(ctx, prizeID)
	if err != nil {
		return err
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "prize already awarded")
	}
	return nil
}

func (s *service) Get(ctx context.Context, prizeID uuid.UUID) (*models.PrizeNumber, error) {
	return s.mustFind(ctx, prizeID)
}

func (s *service) ListByRaffle(ctx context.Context, raffleID uuid.UUID) ([]models.PrizeNumber, error) {
	if raffleID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "raffle id is required")
	}
	return s.repo.ListByRaffle(ctx, raffleID)
}

func (s *service) CheckAndAward(ctx context.Context, tx *gorm.DB, raffleID uuid.UUID, numbers []string, winner types.CustomerSnapshot, saleID uuid.UUID) ([]models.PrizeNumber, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction required")
	}
	repo := s.repo.WithTx(tx)

	var awarded []models.PrizeNumber
	for _, number := range numbers {
		won, err := repo.Award(ctx, raffleID, number, winner, saleID)
		if err != nil {
			return nil, err
		}
		if !won {
			continue
		}
		prize, err := repo.FindByNumber(ctx, raffleID, number)
		if err != nil {
			return nil, err
		}
		if prize == nil {
			continue
		}
		awarded = append(awarded, *prize)
		err = s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPrizeAwarded,
			AggregateType: enums.AggregatePrize,
			AggregateID:   prize.ID,
			Data: PrizeAwardedEvent{
				PrizeID:  prize.ID,
				RaffleID: raffleID,
				SaleID:   saleID,
				Number:   number,
				Winner:   winner,
			},
		})
		if err != nil {
			return nil, err
		}
	}
	return awarded, nil
}

func (s *service) mustFind(ctx context.Context, prizeID uuid.UUID) (*models.PrizeNumber, error) {
	if prizeID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "prize id is required")
	}
	prize, err := s.repo.FindByID(ctx, prizeID)
	if err != nil {
		return nil, err
	}
	if prize == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "prize number not found")
	}
	return prize, nil
}

func normalizeNumber(raw string, raffle *models.Raffle) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "number is required")
	}
	value, err := strconv.Atoi(trimmed)
	if err != nil || value < 0 {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "number must be a non-negative integer")
	}
	if value > raffle.MaxNumber {
		return "", pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("number exceeds raffle maximum %d", raffle.MaxNumber))
	}
	return fmt.Sprintf("%0*d", raffle.NumberDigits, value), nil
}
