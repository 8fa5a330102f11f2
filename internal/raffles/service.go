package raffles

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rifazone/rifazone-backend/pkg/db/models"
	"github.com/rifazone/rifazone-backend/pkg/enums"
	pkgerrors "github.com/rifazone/rifazone-backend/pkg/errors"
)

// Service defines raffle management operations.
type Service interface {
	Create(ctx context.Context, input CreateRaffleInput) (*models.Raffle, error)
	Update(ctx context.Context, raffleID uuid.UUID, input UpdateRaffleInput) (*models.Raffle, error)
	Get(ctx context.Context, raffleID uuid.UUID) (*models.Raffle, error)
	GetBySlug(ctx context.Context, slug string) (*models.Raffle, error)
	List(ctx context.Context, limit int) ([]models.Raffle, error)
	Availability(ctx context.Context, raffleID uuid.UUID) (*Availability, error)
	Open(ctx context.Context, raffleID uuid.UUID) error
	Close(ctx context.Context, raffleID uuid.UUID) error
	MarkDrawn(ctx context.Context, raffleID uuid.UUID) error
}

type service struct {
	repo Repository
}

// CreateRaffleInput captures the configuration a new raffle requires.
type CreateRaffleInput struct {
	Title          string
	Slug           string
	UnitPrice      decimal.Decimal
	DiscountPrice  decimal.Decimal
	DiscountMinQty int
	NumberDigits   int
	MaxNumber      int
	MaxPerSale     int
}

// UpdateRaffleInput carries the editable fields. Nil pointers are left
// untouched.
type UpdateRaffleInput struct {
	Title          *string
	UnitPrice      *decimal.Decimal
	DiscountPrice  *decimal.Decimal
	DiscountMinQty *int
	MaxPerSale     *int
}

// Availability reports how much of the number pool remains.
type Availability struct {
	RaffleID  uuid.UUID `json:"raffle_id"`
	PoolSize  int       `json:"pool_size"`
	Sold      int       `json:"sold"`
	Remaining int       `json:"remaining"`
}

// NewService wires a raffle service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("raffle repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context, input CreateRaffleInput) (*models.Raffle, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}
	slug := strings.ToLower(strings.TrimSpace(input.Slug))
	if slug == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "slug is required")
	}
	if !input.UnitPrice.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit price must be positive")
	}
	if input.MaxNumber <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "max number must be positive")
	}
	if input.NumberDigits <= 0 {
		input.NumberDigits = len(fmt.Sprintf("%d", input.MaxNumber))
	}
	if len(fmt.Sprintf("%d", input.MaxNumber)) > input.NumberDigits {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "max number does not fit configured digits")
	}
	if input.MaxPerSale <= 0 {
		input.MaxPerSale = 100
	}

	existing, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "raffle slug already in use")
	}

	raffle := &models.Raffle{
		ID:             uuid.New(),
		Title:          title,
		Slug:           slug,
		UnitPrice:      input.UnitPrice,
		DiscountPrice:  input.DiscountPrice,
		DiscountMinQty: input.DiscountMinQty,
		NumberDigits:   input.NumberDigits,
		MaxNumber:      input.MaxNumber,
		MaxPerSale:     input.MaxPerSale,
		Status:         enums.RaffleStatusDraft,
	}
	if err := s.repo.Create(ctx, raffle); err != nil {
		return nil, err
	}
	return raffle, nil
}

func (s *service) Update(ctx context.Context, raffleID uuid.UUID, input UpdateRaffleInput) (*models.Raffle, error) {
	raffle, err := s.mustFind(ctx, raffleID)
	if err != nil {
		return nil, err
	}
	if raffle.Status == enums.RaffleStatusDrawn {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "drawn raffles are immutable")
	}

	updates := map[string]any{}
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "title must not be empty")
		}
		updates["title"] = title
	}
	if input.UnitPrice != nil {
		if !input.UnitPrice.IsPositive() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit price must be positive")
		}
		updates["unit_price"] = *input.UnitPrice
	}
	if input.DiscountPrice != nil {
		if input.DiscountPrice.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount price must not be negative")
		}
		updates["discount_price"] = *input.DiscountPrice
	}
	if input.DiscountMinQty != nil {
		if *input.DiscountMinQty < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount min qty must not be negative")
		}
		updates["discount_min_qty"] = *input.DiscountMinQty
	}
	if input.MaxPerSale != nil {
		if *input.MaxPerSale <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "max per sale must be positive")
		}
		updates["max_per_sale"] = *input.MaxPerSale
	}
	if len(updates) == 0 {
		return raffle, nil
	}

	if err := s.repo.Update(ctx, raffleID, updates); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, raffleID)
}

func (s *service) Get(ctx context.Context, raffleID uuid.UUID) (*models.Raffle, error) {
	return s.mustFind(ctx, raffleID)
}

func (s *service) GetBySlug(ctx context.Context, slug string) (*models.Raffle, error) {
	raffle, err := s.repo.FindBySlug(ctx, strings.ToLower(strings.TrimSpace(slug)))
	if err != nil {
		return nil, err
	}
	if raffle == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "raffle not found")
	}
	return raffle, nil
}

func (s *service) List(ctx context.Context, limit int) ([]models.Raffle, error) {
	return s.repo.List(ctx, limit)
}

func (s *service) Availability(ctx context.Context, raffleID uuid.UUID) (*Availability, error) {
	raffle, err := s.mustFind(ctx, raffleID)
	if err != nil {
		return nil, err
	}
	sold, err := s.repo.SoldTicketCount(ctx, raffleID)
	if err != nil {
		return nil, err
	}
	pool := raffle.PoolSize()
	return &Availability{
		RaffleID:  raffleID,
		PoolSize:  pool,
		Sold:      int(sold),
		Remaining: pool - int(sold),
	}, nil
}

func (s *service) Open(ctx context.Context, raffleID uuid.UUID) error {
	return s.transition(ctx, raffleID, enums.RaffleStatusDraft, enums.RaffleStatusOpen, nil)
}

func (s *service) Close(ctx context.Context, raffleID uuid.UUID) error {
	return s.transition(ctx, raffleID, enums.RaffleStatusOpen, enums.RaffleStatusClosed, nil)
}

func (s *service) MarkDrawn(ctx context.Context, raffleID uuid.UUID) error {
	now := time.Now().UTC()
	return s.transition(ctx, raffleID, enums.RaffleStatusClosed, enums.RaffleStatusDrawn, map[string]any{"drawn_at": now})
}

func (s *service) transition(ctx context.Context, raffleID uuid.UUID, from, to enums.RaffleStatus, updates map[string]any) error {
	if _, err := s.mustFind(ctx, raffleID); err != nil {
		return err
	}
	ok, err := s.repo.TransitionStatus(ctx, raffleID, from, to, updates)
	if err != nil {
		return err
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("raffle is not %s", from))
	}
	return nil
}

func (s *service) mustFind(ctx context.Context, raffleID uuid.UUID) (*models.Raffle, error) {
	if raffleID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "raffle id is required")
	}
	raffle, err := s.repo.FindByID(ctx, raffleID)
	if err != nil {
		return nil, err
	}
	if raffle == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "raffle not found")
	}
	return raffle, nil
}
