package withdrawals

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/rifazone/rifazone-backend/internal/partners"
	"github.com/rifazone/rifazone-backend/pkg/db/models"
	"github.com/rifazone/rifazone-backend/pkg/enums"
	pkgerrors "github.com/rifazone/rifazone-backend/pkg/errors"
	"github.com/rifazone/rifazone-backend/pkg/metrics"
	"github.com/rifazone/rifazone-backend/pkg/outbox"
	"github.com/rifazone/rifazone-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service handles the withdrawal request and decision workflow.
type Service interface {
	Request(ctx context.Context, input RequestInput, actor outbox.ActorRef) (*models.WithdrawalRequest, error)
	Approve(ctx context.Context, requestID uuid.UUID, actor outbox.ActorRef) (*models.WithdrawalRequest, error)
	Reject(ctx context.Context, requestID uuid.UUID, reason string, actor outbox.ActorRef) (*models.WithdrawalRequest, error)
	Process(ctx context.Context, requestID uuid.UUID, actor outbox.ActorRef) (*models.WithdrawalRequest, error)
	Get(ctx context.Context, requestID uuid.UUID) (*models.WithdrawalRequest, error)
	ListByPartner(ctx context.Context, partnerID uuid.UUID, params pagination.Params) (*pagination.Page[models.WithdrawalRequest], error)
	ListByStatus(ctx context.Context, status enums.WithdrawalStatus, params pagination.Params) (*pagination.Page[models.WithdrawalRequest], error)
}

type service struct {
	repo        Repository
	partnerRepo partners.Repository
	tx          txRunner
	outbox      outboxPublisher
	metrics     *metrics.DomainMetrics
}

// RequestInput is a partner's payout request.
type RequestInput struct {
	PartnerID      uuid.UUID
	Amount         decimal.Decimal
	Method         enums.WithdrawalMethod
	PaymentDetails json.RawMessage
}

// WithdrawalRequestedEvent is emitted when a hold is placed.
type WithdrawalRequestedEvent struct {
	RequestID uuid.UUID       `json:"request_id"`
	PartnerID uuid.UUID       `json:"partner_id"`
	Amount    decimal.Decimal `json:"amount"`
	Method    string          `json:"method"`
	Available decimal.Decimal `json:"available_after"`
}

// WithdrawalDecidedEvent is emitted on approve and reject.
type WithdrawalDecidedEvent struct {
	RequestID uuid.UUID `json:"request_id"`
	PartnerID uuid.UUID `json:"partner_id"`
	Decision  string    `json:"decision"`
	Reason    string    `json:"reason,omitempty"`
}

// WithdrawalProcessedEvent is emitted when the transfer is executed.
type WithdrawalProcessedEvent struct {
	RequestID uuid.UUID       `json:"request_id"`
	PartnerID uuid.UUID       `json:"partner_id"`
	Amount    decimal.Decimal `json:"amount"`
}

// NewService wires the withdrawal workflow.
func NewService(repo Repository, partnerRepo partners.Repository, tx txRunner, outboxSvc outboxPublisher, domainMetrics *metrics.DomainMetrics) (Service, error) {
	if repo == nil || partnerRepo == nil {
		return nil, fmt.Errorf("withdrawal repositories required")
	}
	if tx == nil || outboxSvc == nil {
		return nil, fmt.Errorf("transaction runner and outbox required")
	}
	return &service{
		repo:        repo,
		partnerRepo: partnerRepo,
		tx:          tx,
		outbox:      outboxSvc,
		metrics:     domainMetrics,
	}, nil
}

func (s *service) Request(ctx context.Context, input RequestInput, actor outbox.ActorRef) (*models.WithdrawalRequest, error) {
	if input.PartnerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "partner id is required")
	}
	if !input.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	if !input.Method.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid withdrawal method")
	}
	if len(input.PaymentDetails) == 0 || !json.Valid(input.PaymentDetails) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment details must be a json object")
	}

	amount := input.Amount.Round(2)
	request := &models.WithdrawalRequest{
		ID:             uuid.New(),
		PartnerID:      input.PartnerID,
		Amount:         amount,
		Method:         input.Method,
		PaymentDetails: input.PaymentDetails,
		Status:         enums.WithdrawalStatusPending,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txPartners := s.partnerRepo.WithTx(tx)

		// The touch update takes the partner row lock, so concurrent
		// requests for the same partner serialize here and cannot both
		// pass the balance check.
		if err := txPartners.Touch(ctx, input.PartnerID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "partner not found")
			}
			return err
		}

		statement, err := partners.ComputeBalance(ctx, txPartners, input.PartnerID)
		if err != nil {
			return err
		}
		if amount.GreaterThan(statement.Available) {
			return pkgerrors.New(pkgerrors.CodeInsufficientBalance,
				fmt.Sprintf("available balance is %s", statement.Available.StringFixed(2))).
				WithDetails(statement)
		}

		if err := s.repo.WithTx(tx).Create(ctx, request); err != nil {
			return err
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventWithdrawalRequested,
			AggregateType: enums.AggregateWithdrawal,
			AggregateID:   request.ID,
			Actor:         &actor,
			Data: WithdrawalRequestedEvent{
				RequestID: request.ID,
				PartnerID: input.PartnerID,
				Amount:    amount,
				Method:    input.Method.String(),
				Available: statement.Available.Sub(amount),
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return request, nil
}

func (s *service) Approve(ctx context.Context, requestID uuid.UUID, actor outbox.ActorRef) (*models.WithdrawalRequest, error) {
	request, err := s.mustFind(ctx, requestID)
	if err != nil {
		return nil, err
	}

	err = s.decide(ctx, request, enums.WithdrawalStatusPending, enums.WithdrawalStatusApproved, map[string]any{
		"decided_at": time.Now().UTC(),
	}, WithdrawalDecidedEvent{
		RequestID: request.ID,
		PartnerID: request.PartnerID,
		Decision:  "approved",
	}, actor)
	if err != nil {
		return nil, err
	}

	s.metrics.IncWithdrawalDecision("approved")
	return s.mustFind(ctx, requestID)
}

// Reject denies a pending request and releases its hold. The reason is
// optional and recorded when given.
func (s *service) Reject(ctx context.Context, requestID uuid.UUID, reason string, actor outbox.ActorRef) (*models.WithdrawalRequest, error) {
	reason = strings.TrimSpace(reason)

	request, err := s.mustFind(ctx, requestID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{"decided_at": time.Now().UTC()}
	if reason != "" {
		updates["reject_reason"] = reason
	}
	err = s.decide(ctx, request, enums.WithdrawalStatusPending, enums.WithdrawalStatusRejected, updates, WithdrawalDecidedEvent{
		RequestID: request.ID,
		PartnerID: request.PartnerID,
		Decision:  "rejected",
		Reason:    reason,
	}, actor)
	if err != nil {
		return nil, err
	}

	s.metrics.IncWithdrawalDecision("rejected")
	return s.mustFind(ctx, requestID)
}

func (s *service) Process(ctx context.Context, requestID uuid.UUID, actor outbox.ActorRef) (*models.WithdrawalRequest, error) {
	request, err := s.mustFind(ctx, requestID)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		ok, err := s.repo.WithTx(tx).TransitionStatus(ctx, request.ID, enums.WithdrawalStatusApproved, enums.WithdrawalStatusProcessed, map[string]any{
			"processed_at": time.Now().UTC(),
		})
		if err != nil {
			return err
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only approved requests can be processed")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventWithdrawalProcessed,
			AggregateType: enums.AggregateWithdrawal,
			AggregateID:   request.ID,
			Actor:         &actor,
			Data: WithdrawalProcessedEvent{
				RequestID: request.ID,
				PartnerID: request.PartnerID,
				Amount:    request.Amount,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncWithdrawalDecision("processed")
	return s.mustFind(ctx, requestID)
}

func (s *service) Get(ctx context.Context, requestID uuid.UUID) (*models.WithdrawalRequest, error) {
	return s.mustFind(ctx, requestID)
}

func (s *service) ListByPartner(ctx context.Context, partnerID uuid.UUID, params pagination.Params) (*pagination.Page[models.WithdrawalRequest], error) {
	if partnerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "partner id is required")
	}
	return s.repo.ListByPartner(ctx, partnerID, params)
}

func (s *service) ListByStatus(ctx context.Context, status enums.WithdrawalStatus, params pagination.Params) (*pagination.Page[models.WithdrawalRequest], error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid withdrawal status")
	}
	return s.repo.ListByStatus(ctx, status, params)
}

func (s *service) decide(ctx context.Context, request *models.WithdrawalRequest, from, to enums.WithdrawalStatus, updates map[string]any, event WithdrawalDecidedEvent, actor outbox.ActorRef) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		ok, err := s.repo.WithTx(tx).TransitionStatus(ctx, request.ID, from, to, updates)
		if err != nil {
			return err
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("request is not %s", from))
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventWithdrawalDecided,
			AggregateType: enums.AggregateWithdrawal,
			AggregateID:   request.ID,
			Actor:         &actor,
			Data:          event,
		})
	})
}

func (s *service) mustFind(ctx context.Context, requestID uuid.UUID) (*models.WithdrawalRequest, error) {
	if requestID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "request id is required")
	}
	request, err := s.repo.FindByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "withdrawal request not found")
	}
	return request, nil
}
