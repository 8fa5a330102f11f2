package sales

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/rifazone/rifazone-backend/internal/commission"
	"github.com/rifazone/rifazone-backend/internal/partners"
	"github.com/rifazone/rifazone-backend/internal/raffles"
	"github.com/rifazone/rifazone-backend/pkg/db/models"
	"github.com/rifazone/rifazone-backend/pkg/enums"
	pkgerrors "github.com/rifazone/rifazone-backend/pkg/errors"
	"github.com/rifazone/rifazone-backend/pkg/metrics"
	"github.com/rifazone/rifazone-backend/pkg/outbox"
	"github.com/rifazone/rifazone-backend/pkg/pagination"
	"github.com/rifazone/rifazone-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type referralAttributor interface {
	AttributeConversion(ctx context.Context, tx *gorm.DB, partnerID, saleID uuid.UUID, saleCreatedAt time.Time) error
}

type prizeAwarder interface {
	CheckAndAward(ctx context.Context, tx *gorm.DB, raffleID uuid.UUID, numbers []string, winner types.CustomerSnapshot, saleID uuid.UUID) ([]models.PrizeNumber, error)
}

// Service is the sale registration core shared by the online checkout
// flow and the door-to-door flow.
type Service interface {
	CreatePendingOnlineSale(ctx context.Context, input OnlineSaleInput) (*models.Sale, error)
	CompleteOnlineSale(ctx context.Context, saleID uuid.UUID) (*models.Sale, error)
	CancelOnlineSale(ctx context.Context, saleID uuid.UUID, reason string) (*models.Sale, error)
	RegisterFieldSale(ctx context.Context, input FieldSaleInput, actor outbox.ActorRef) (*models.Sale, error)
	SettleFieldSale(ctx context.Context, saleID uuid.UUID, input SettleInput, actor outbox.ActorRef) (*models.Sale, error)
	CancelFieldSale(ctx context.Context, saleID uuid.UUID, reason string, actor outbox.ActorRef) (*models.Sale, error)
	Get(ctx context.Context, saleID uuid.UUID) (*models.Sale, error)
	GetByPaymentSession(ctx context.Context, sessionID string) (*models.Sale, error)
	ListByPartner(ctx context.Context, partnerID uuid.UUID, params pagination.Params) (*pagination.Page[models.Sale], error)
}

type service struct {
	repo        Repository
	raffleRepo  raffles.Repository
	partnerRepo partners.Repository
	referrals   referralAttributor
	prizes      prizeAwarder
	allocator   *Allocator
	tx          txRunner
	outbox      outboxPublisher
	metrics     *metrics.DomainMetrics
	maxTickets  int
}

// OnlineSaleInput is the checkout payload after server-side validation.
// The amount is always rederived from the raffle pricing, never taken
// from the client.
type OnlineSaleInput struct {
	RaffleID         uuid.UUID
	Quantity         int
	Customer         types.CustomerSnapshot
	PartnerSlug      string
	PaymentSessionID string
}

// FieldSaleInput registers a door-to-door sale for a partner's agent.
type FieldSaleInput struct {
	RaffleID  uuid.UUID
	PartnerID uuid.UUID
	Quantity  int
	Customer  types.CustomerSnapshot
	AgentName string
}

// SettleInput carries the cash actually collected at settlement.
type SettleInput struct {
	AmountPaid decimal.Decimal
	Notes      string
}

// SaleCompletedEvent is the outbox payload for a paid online sale.
type SaleCompletedEvent struct {
	SaleID     uuid.UUID       `json:"sale_id"`
	RaffleID   uuid.UUID       `json:"raffle_id"`
	PartnerID  *uuid.UUID      `json:"partner_id,omitempty"`
	Quantity   int             `json:"quantity"`
	Amount     decimal.Decimal `json:"amount"`
	Commission decimal.Decimal `json:"commission"`
	Numbers    []string        `json:"numbers"`
}

// SaleSettledEvent is the outbox payload for a settled field sale.
type SaleSettledEvent struct {
	SaleID         uuid.UUID       `json:"sale_id"`
	PartnerID      *uuid.UUID      `json:"partner_id,omitempty"`
	ExpectedAmount decimal.Decimal `json:"expected_amount"`
	AmountPaid     decimal.Decimal `json:"amount_paid"`
	Discrepancy    bool            `json:"discrepancy"`
}

// SaleCancelledEvent is the outbox payload for a cancelled field sale.
type SaleCancelledEvent struct {
	SaleID          uuid.UUID `json:"sale_id"`
	Reason          string    `json:"reason"`
	ReleasedTickets int64     `json:"released_tickets"`
}

// SettlementDiscrepancyEvent flags a cash shortfall or overage.
type SettlementDiscrepancyEvent struct {
	SaleID         uuid.UUID       `json:"sale_id"`
	ExpectedAmount decimal.Decimal `json:"expected_amount"`
	AmountPaid     decimal.Decimal `json:"amount_paid"`
}

// CommissionReviewEvent flags a sale whose commission needs manual review.
type CommissionReviewEvent struct {
	SaleID    uuid.UUID `json:"sale_id"`
	PartnerID uuid.UUID `json:"partner_id"`
	Reason    string    `json:"reason"`
}

// NewService wires the sales core with its collaborators.
func NewService(
	repo Repository,
	raffleRepo raffles.Repository,
	partnerRepo partners.Repository,
	referralSvc referralAttributor,
	prizeSvc prizeAwarder,
	allocator *Allocator,
	tx txRunner,
	outboxSvc outboxPublisher,
	domainMetrics *metrics.DomainMetrics,
	maxTickets int,
) (Service, error) {
	if repo == nil || raffleRepo == nil || partnerRepo == nil {
		return nil, fmt.Errorf("sales repositories required")
	}
	if referralSvc == nil || prizeSvc == nil || allocator == nil {
		return nil, fmt.Errorf("sales collaborators required")
	}
	if tx == nil || outboxSvc == nil {
		return nil, fmt.Errorf("transaction runner and outbox required")
	}
	if maxTickets <= 0 {
		maxTickets = 100
	}
	return &service{
		repo:        repo,
		raffleRepo:  raffleRepo,
		partnerRepo: partnerRepo,
		referrals:   referralSvc,
		prizes:      prizeSvc,
		allocator:   allocator,
		tx:          tx,
		outbox:      outboxSvc,
		metrics:     domainMetrics,
		maxTickets:  maxTickets,
	}, nil
}

func (s *service) CreatePendingOnlineSale(ctx context.Context, input OnlineSaleInput) (*models.Sale, error) {
	raffle, err := s.openRaffle(ctx, input.RaffleID)
	if err != nil {
		return nil, err
	}
	if err := s.validateQuantity(raffle, input.Quantity); err != nil {
		return nil, err
	}
	if !input.Customer.Validate() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer name and phone are required")
	}
	if strings.TrimSpace(input.PaymentSessionID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment session id is required")
	}

	var partnerID *uuid.UUID
	if slug := strings.TrimSpace(input.PartnerSlug); slug != "" {
		partner, err := s.partnerRepo.FindBySlug(ctx, strings.ToLower(slug))
		if err != nil {
			return nil, err
		}
		// Unknown slugs never block a checkout, the sale just carries
		// no partner.
		if partner != nil {
			partnerID = &partner.ID
		}
	}

	sessionID := input.PaymentSessionID
	sale := &models.Sale{
		ID:               uuid.New(),
		RaffleID:         raffle.ID,
		PartnerID:        partnerID,
		Channel:          enums.SaleChannelOnline,
		Customer:         input.Customer,
		Quantity:         input.Quantity,
		Amount:           raffle.TotalPriceFor(input.Quantity),
		Status:           enums.SaleStatusPending,
		PaymentSessionID: &sessionID,
	}
	if err := s.repo.Create(ctx, sale); err != nil {
		return nil, err
	}
	return sale, nil
}

func (s *service) CompleteOnlineSale(ctx context.Context, saleID uuid.UUID) (*models.Sale, error) {
	sale, err := s.mustFind(ctx, saleID)
	if err != nil {
		return nil, err
	}
	// Webhook retries land here. A sale that already completed is a
	// success, not a conflict.
	if sale.Status == enums.SaleStatusCompleted {
		return sale, nil
	}
	if sale.Status != enums.SaleStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("sale is %s, cannot complete", sale.Status))
	}

	raffle, err := s.raffleRepo.FindByID(ctx, sale.RaffleID)
	if err != nil {
		return nil, err
	}
	if raffle == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "raffle not found")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		txRaffles := s.raffleRepo.WithTx(tx)

		ok, err := txRepo.TransitionStatus(ctx, sale.ID, enums.SaleStatusPending, enums.SaleStatusCompleted, nil)
		if err != nil {
			return err
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "sale already transitioned")
		}

		tickets, err := s.allocator.Allocate(ctx, txRepo, txRaffles, raffle, sale.ID, sale.Quantity)
		if err != nil {
			return err
		}
		numbers := make([]string, 0, len(tickets))
		for _, ticket := range tickets {
			numbers = append(numbers, ticket.Number)
		}

		commissionValue := decimal.Zero
		if sale.PartnerID != nil {
			commissionValue, err = s.attachCommission(ctx, tx, sale, *sale.PartnerID, sale.Amount)
			if err != nil {
				return err
			}
			if err := s.referrals.AttributeConversion(ctx, tx, *sale.PartnerID, sale.ID, sale.CreatedAt); err != nil {
				return err
			}
		}

		if _, err := s.prizes.CheckAndAward(ctx, tx, raffle.ID, numbers, sale.Customer, sale.ID); err != nil {
			return err
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventSaleCompleted,
			AggregateType: enums.AggregateSale,
			AggregateID:   sale.ID,
			Data: SaleCompletedEvent{
				SaleID:     sale.ID,
				RaffleID:   sale.RaffleID,
				PartnerID:  sale.PartnerID,
				Quantity:   sale.Quantity,
				Amount:     sale.Amount,
				Commission: commissionValue,
				Numbers:    numbers,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncSaleRegistered(enums.SaleChannelOnline.String())
	return s.mustFind(ctx, sale.ID)
}

// CancelOnlineSale voids a pending online sale whose payment expired or
// was cancelled by the PSP. No tickets exist yet, so there is nothing to
// release.
func (s *service) CancelOnlineSale(ctx context.Context, saleID uuid.UUID, reason string) (*models.Sale, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "a cancellation reason is required")
	}

	sale, err := s.mustFind(ctx, saleID)
	if err != nil {
		return nil, err
	}
	if sale.Status == enums.SaleStatusCancelled {
		return sale, nil
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		ok, err := txRepo.TransitionStatus(ctx, sale.ID, enums.SaleStatusPending, enums.SaleStatusCancelled, map[string]any{
			"cancel_reason": reason,
			"cancelled_at":  time.Now().UTC(),
		})
		if err != nil {
			return err
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "sale is no longer pending")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventSaleCancelled,
			AggregateType: enums.AggregateSale,
			AggregateID:   sale.ID,
			Data: SaleCancelledEvent{
				SaleID: sale.ID,
				Reason: reason,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return s.mustFind(ctx, sale.ID)
}

func (s *service) RegisterFieldSale(ctx context.Context, input FieldSaleInput, actor outbox.ActorRef) (*models.Sale, error) {
	raffle, err := s.openRaffle(ctx, input.RaffleID)
	if err != nil {
		return nil, err
	}
	if err := s.validateQuantity(raffle, input.Quantity); err != nil {
		return nil, err
	}
	if !input.Customer.Validate() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer name and phone are required")
	}

	partner, err := s.partnerRepo.FindByID(ctx, input.PartnerID)
	if err != nil {
		return nil, err
	}
	if partner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "partner not found")
	}
	if !partner.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "partner is deactivated")
	}

	expected := raffle.TotalPriceFor(input.Quantity)
	sale := &models.Sale{
		ID:             uuid.New(),
		RaffleID:       raffle.ID,
		PartnerID:      &partner.ID,
		Channel:        enums.SaleChannelDoorToDoor,
		Customer:       input.Customer,
		Quantity:       input.Quantity,
		Amount:         expected,
		ExpectedAmount: expected,
		Status:         enums.SaleStatusPendingSettlement,
		AgentName:      strings.TrimSpace(input.AgentName),
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		txRaffles := s.raffleRepo.WithTx(tx)

		if err := txRepo.Create(ctx, sale); err != nil {
			return err
		}
		// Commission is not computed yet. It attaches when the sale
		// settles, against the rate in force at settlement time.
		_, err := s.allocator.Allocate(ctx, txRepo, txRaffles, raffle, sale.ID, sale.Quantity)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncSaleRegistered(enums.SaleChannelDoorToDoor.String())
	return s.mustFind(ctx, sale.ID)
}

func (s *service) SettleFieldSale(ctx context.Context, saleID uuid.UUID, input SettleInput, actor outbox.ActorRef) (*models.Sale, error) {
	sale, err := s.mustFind(ctx, saleID)
	if err != nil {
		return nil, err
	}
	if err := authorizeFieldSale(sale, actor); err != nil {
		return nil, err
	}
	if sale.Channel != enums.SaleChannelDoorToDoor {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "only door-to-door sales settle")
	}
	if input.AmountPaid.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount paid must not be negative")
	}

	discrepancy := !input.AmountPaid.Equal(sale.ExpectedAmount)
	notes := strings.TrimSpace(input.Notes)
	if discrepancy && notes == "" {
		notes = fmt.Sprintf("expected %s, received %s",
			sale.ExpectedAmount.StringFixed(2), input.AmountPaid.StringFixed(2))
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		now := time.Now().UTC()
		updates := map[string]any{
			"amount_paid": input.AmountPaid,
			"settled_at":  now,
		}
		if notes != "" {
			updates["settlement_notes"] = notes
		}
		ok, err := txRepo.TransitionStatus(ctx, sale.ID, enums.SaleStatusPendingSettlement, enums.SaleStatusSettled, updates)
		if err != nil {
			return err
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "sale is no longer pending settlement")
		}

		if sale.PartnerID != nil {
			// The commission credits the balance only now, against the
			// expected amount and the partner's current rate.
			if _, err := s.attachCommission(ctx, tx, sale, *sale.PartnerID, sale.ExpectedAmount); err != nil {
				return err
			}
		}

		if _, err := s.prizes.CheckAndAward(ctx, tx, sale.RaffleID, sale.TicketNumbers(), sale.Customer, sale.ID); err != nil {
			return err
		}

		if discrepancy {
			err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventSettlementDiscrepancy,
				AggregateType: enums.AggregateSale,
				AggregateID:   sale.ID,
				Actor:         &actor,
				Data: SettlementDiscrepancyEvent{
					SaleID:         sale.ID,
					ExpectedAmount: sale.ExpectedAmount,
					AmountPaid:     input.AmountPaid,
				},
			})
			if err != nil {
				return err
			}
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventSaleSettled,
			AggregateType: enums.AggregateSale,
			AggregateID:   sale.ID,
			Actor:         &actor,
			Data: SaleSettledEvent{
				SaleID:         sale.ID,
				PartnerID:      sale.PartnerID,
				ExpectedAmount: sale.ExpectedAmount,
				AmountPaid:     input.AmountPaid,
				Discrepancy:    discrepancy,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	if discrepancy {
		s.metrics.IncSettlement("discrepancy")
	} else {
		s.metrics.IncSettlement("settled")
	}
	return s.mustFind(ctx, sale.ID)
}

func (s *service) CancelFieldSale(ctx context.Context, saleID uuid.UUID, reason string, actor outbox.ActorRef) (*models.Sale, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "a cancellation reason is required")
	}

	sale, err := s.mustFind(ctx, saleID)
	if err != nil {
		return nil, err
	}
	if err := authorizeFieldSale(sale, actor); err != nil {
		return nil, err
	}
	if sale.Channel != enums.SaleChannelDoorToDoor {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "only door-to-door sales cancel this way")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		now := time.Now().UTC()
		ok, err := txRepo.TransitionStatus(ctx, sale.ID, enums.SaleStatusPendingSettlement, enums.SaleStatusCancelled, map[string]any{
			"cancel_reason": reason,
			"cancelled_at":  now,
		})
		if err != nil {
			return err
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "sale is no longer pending settlement")
		}

		released, err := txRepo.DeleteTickets(ctx, sale.ID)
		if err != nil {
			return err
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventSaleCancelled,
			AggregateType: enums.AggregateSale,
			AggregateID:   sale.ID,
			Actor:         &actor,
			Data: SaleCancelledEvent{
				SaleID:          sale.ID,
				Reason:          reason,
				ReleasedTickets: released,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncSettlement("cancelled")
	return s.mustFind(ctx, sale.ID)
}

func (s *service) Get(ctx context.Context, saleID uuid.UUID) (*models.Sale, error) {
	return s.mustFind(ctx, saleID)
}

func (s *service) GetByPaymentSession(ctx context.Context, sessionID string) (*models.Sale, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment session id is required")
	}
	return s.repo.FindByPaymentSessionID(ctx, sessionID)
}

func (s *service) ListByPartner(ctx context.Context, partnerID uuid.UUID, params pagination.Params) (*pagination.Page[models.Sale], error) {
	if partnerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "partner id is required")
	}
	return s.repo.ListByPartner(ctx, partnerID, params)
}

// attachCommission computes and stores the commission for the sale and
// flags it for review when the partner cannot earn one.
func (s *service) attachCommission(ctx context.Context, tx *gorm.DB, sale *models.Sale, partnerID uuid.UUID, base decimal.Decimal) (decimal.Decimal, error) {
	partner, err := s.partnerRepo.WithTx(tx).FindByID(ctx, partnerID)
	if err != nil {
		return decimal.Zero, err
	}

	reviewReason := ""
	switch {
	case partner == nil:
		reviewReason = "partner not found"
	case !partner.IsActive:
		reviewReason = "partner is deactivated"
	case partner.CommissionRate.IsZero():
		reviewReason = "commission rate not configured"
	}

	txRepo := s.repo.WithTx(tx)
	if reviewReason != "" {
		err := txRepo.Update(ctx, sale.ID, map[string]any{
			"commission":        decimal.Zero,
			"commission_review": true,
		})
		if err != nil {
			return decimal.Zero, err
		}
		err = s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventCommissionFlaggedForReview,
			AggregateType: enums.AggregateSale,
			AggregateID:   sale.ID,
			Data: CommissionReviewEvent{
				SaleID:    sale.ID,
				PartnerID: partnerID,
				Reason:    reviewReason,
			},
		})
		return decimal.Zero, err
	}

	value, err := commission.Compute(base, partner.CommissionRate)
	if err != nil {
		return decimal.Zero, err
	}
	err = txRepo.Update(ctx, sale.ID, map[string]any{"commission": value})
	return value, err
}

func (s *service) openRaffle(ctx context.Context, raffleID uuid.UUID) (*models.Raffle, error) {
	if raffleID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "raffle id is required")
	}
	raffle, err := s.raffleRepo.FindByID(ctx, raffleID)
	if err != nil {
		return nil, err
	}
	if raffle == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "raffle not found")
	}
	if raffle.Status != enums.RaffleStatusOpen {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "raffle is not open for sales")
	}
	return raffle, nil
}

func (s *service) validateQuantity(raffle *models.Raffle, quantity int) error {
	if quantity <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	limit := raffle.MaxPerSale
	if limit <= 0 || limit > s.maxTickets {
		limit = s.maxTickets
	}
	if quantity > limit {
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("quantity exceeds the limit of %d tickets per sale", limit))
	}
	return nil
}

func (s *service) mustFind(ctx context.Context, saleID uuid.UUID) (*models.Sale, error) {
	if saleID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sale id is required")
	}
	sale, err := s.repo.FindByID(ctx, saleID)
	if err != nil {
		return nil, err
	}
	if sale == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "sale not found")
	}
	return sale, nil
}

func authorizeFieldSale(sale *models.Sale, actor outbox.ActorRef) error {
	if actor.Role != enums.ActorRolePartner.String() {
		return nil
	}
	if actor.PartnerID == nil || sale.PartnerID == nil || *actor.PartnerID != *sale.PartnerID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "sale belongs to another partner")
	}
	return nil
}
