package partners

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/rifazone/rifazone-backend/pkg/db/models"
	"github.com/rifazone/rifazone-backend/pkg/enums"
	pkgerrors "github.com/rifazone/rifazone-backend/pkg/errors"
	"github.com/rifazone/rifazone-backend/pkg/outbox"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service defines partner management and balance operations.
type Service interface {
	Create(ctx context.Context, input CreatePartnerInput) (*models.Partner, error)
	Update(ctx context.Context, partnerID uuid.UUID, input UpdatePartnerInput) (*models.Partner, error)
	Get(ctx context.Context, partnerID uuid.UUID) (*models.Partner, error)
	GetBySlug(ctx context.Context, slug string) (*models.Partner, error)
	List(ctx context.Context, limit int) ([]models.Partner, error)
	SetActive(ctx context.Context, partnerID uuid.UUID, active bool) error
	Balance(ctx context.Context, partnerID uuid.UUID) (*BalanceStatement, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxPublisher
}

// CreatePartnerInput captures the fields a new partner requires.
type CreatePartnerInput struct {
	Name           string
	Slug           string
	Email          string
	Phone          string
	PixKey         string
	CommissionRate decimal.Decimal
}

// UpdatePartnerInput carries the editable fields. Nil pointers are left
// untouched.
type UpdatePartnerInput struct {
	Name           *string
	Email          *string
	Phone          *string
	PixKey         *string
	CommissionRate *decimal.Decimal
}

// BalanceStatement is the derived balance for a partner. Nothing here is
// stored; it is recomputed from sales and withdrawals on every read.
type BalanceStatement struct {
	PartnerID       uuid.UUID       `json:"partner_id"`
	CommissionTotal decimal.Decimal `json:"commission_total"`
	WithdrawalHolds decimal.Decimal `json:"withdrawal_holds"`
	Available       decimal.Decimal `json:"available"`
}

// PartnerActivationEvent is emitted when an admin toggles a partner.
type PartnerActivationEvent struct {
	PartnerID uuid.UUID `json:"partner_id"`
	IsActive  bool      `json:"is_active"`
}

// NewService wires a partner service with the required dependencies.
func NewService(repo Repository, tx txRunner, outboxSvc outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("partner repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{repo: repo, tx: tx, outbox: outboxSvc}, nil
}

func (s *service) Create(ctx context.Context, input CreatePartnerInput) (*models.Partner, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	slug := strings.ToLower(strings.TrimSpace(input.Slug))
	if slug == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "slug is required")
	}
	email := strings.TrimSpace(input.Email)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if err := validateRate(input.CommissionRate); err != nil {
		return nil, err
	}

	existing, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "partner slug already in use")
	}

	partner := &models.Partner{
		ID:             uuid.New(),
		Name:           name,
		Slug:           slug,
		Email:          email,
		Phone:          strings.TrimSpace(input.Phone),
		PixKey:         strings.TrimSpace(input.PixKey),
		CommissionRate: input.CommissionRate,
		IsActive:       true,
	}
	if err := s.repo.Create(ctx, partner); err != nil {
		return nil, err
	}
	return partner, nil
}

func (s *service) Update(ctx context.Context, partnerID uuid.UUID, input UpdatePartnerInput) (*models.Partner, error) {
	if _, err := s.mustFind(ctx, partnerID); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name must not be empty")
		}
		updates["name"] = name
	}
	if input.Email != nil {
		email := strings.TrimSpace(*input.Email)
		if email == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "email must not be empty")
		}
		updates["email"] = email
	}
	if input.Phone != nil {
		updates["phone"] = strings.TrimSpace(*input.Phone)
	}
	if input.PixKey != nil {
		updates["pix_key"] = strings.TrimSpace(*input.PixKey)
	}
	if input.CommissionRate != nil {
		if err := validateRate(*input.CommissionRate); err != nil {
			return nil, err
		}
		// Rate changes only affect future sales. Commission already written
		// on past sales is never recalculated.
		updates["commission_rate"] = *input.CommissionRate
	}
	if len(updates) == 0 {
		return s.repo.FindByID(ctx, partnerID)
	}

	if err := s.repo.Update(ctx, partnerID, updates); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, partnerID)
}

func (s *service) Get(ctx context.Context, partnerID uuid.UUID) (*models.Partner, error) {
	return s.mustFind(ctx, partnerID)
}

func (s *service) GetBySlug(ctx context.Context, slug string) (*models.Partner, error) {
	partner, err := s.repo.FindBySlug(ctx, strings.ToLower(strings.TrimSpace(slug)))
	if err != nil {
		return nil, err
	}
	if partner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "partner not found")
	}
	return partner, nil
}

func (s *service) List(ctx context.Context, limit int) ([]models.Partner, error) {
	return s.repo.List(ctx, limit)
}

func (s *service) SetActive(ctx context.Context, partnerID uuid.UUID, active bool) error {
	partner, err := s.mustFind(ctx, partnerID)
	if err != nil {
		return err
	}
	if partner.IsActive == active {
		return nil
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Update(ctx, partnerID, map[string]any{"is_active": active}); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPartnerActivationChanged,
			AggregateType: enums.AggregatePartner,
			AggregateID:   partnerID,
			Data:          PartnerActivationEvent{PartnerID: partnerID, IsActive: active},
		})
	})
}

func (s *service) Balance(ctx context.Context, partnerID uuid.UUID) (*BalanceStatement, error) {
	if _, err := s.mustFind(ctx, partnerID); err != nil {
		return nil, err
	}
	return ComputeBalance(ctx, s.repo, partnerID)
}

// ComputeBalance derives the statement from the repository. Callers inside
// a transaction pass a tx-bound repository to read a consistent snapshot.
func ComputeBalance(ctx context.Context, repo Repository, partnerID uuid.UUID) (*BalanceStatement, error) {
	commission, err := repo.SumCommission(ctx, partnerID)
	if err != nil {
		return nil, err
	}
	holds, err := repo.SumWithdrawalHolds(ctx, partnerID)
	if err != nil {
		return nil, err
	}
	return &BalanceStatement{
		PartnerID:       partnerID,
		CommissionTotal: commission.Round(2),
		WithdrawalHolds: holds.Round(2),
		Available:       commission.Sub(holds).Round(2),
	}, nil
}

func (s *service) mustFind(ctx context.Context, partnerID uuid.UUID) (*models.Partner, error) {
	if partnerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "partner id is required")
	}
	partner, err := s.repo.FindByID(ctx, partnerID)
	if err != nil {
		return nil, err
	}
	if partner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "partner not found")
	}
	return partner, nil
}

func validateRate(rate decimal.Decimal) error {
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(100)) {
		return pkgerrors.New(pkgerrors.CodeValidation, "commission rate must be between 0 and 100")
	}
	return nil
}
