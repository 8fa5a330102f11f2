package checkout

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rifazone/rifazone-backend/internal/raffles"
	"github.com/rifazone/rifazone-backend/internal/sales"
	"github.com/rifazone/rifazone-backend/pkg/db/models"
	"github.com/rifazone/rifazone-backend/pkg/enums"
	pkgerrors "github.com/rifazone/rifazone-backend/pkg/errors"
	"github.com/rifazone/rifazone-backend/pkg/logger"
	"github.com/rifazone/rifazone-backend/pkg/pix"
	"github.com/rifazone/rifazone-backend/pkg/types"
)

type pspClient interface {
	CreateCharge(ctx context.Context, params pix.ChargeParams) (*pix.Charge, error)
	GetCharge(ctx context.Context, sessionID string) (*pix.Charge, error)
	NewIdempotencyKey(prefix string) string
}

type saleRegistrar interface {
	CreatePendingOnlineSale(ctx context.Context, input sales.OnlineSaleInput) (*models.Sale, error)
	CompleteOnlineSale(ctx context.Context, saleID uuid.UUID) (*models.Sale, error)
	CancelOnlineSale(ctx context.Context, saleID uuid.UUID, reason string) (*models.Sale, error)
	GetByPaymentSession(ctx context.Context, sessionID string) (*models.Sale, error)
}

// Service orchestrates the online checkout: price quoting, PIX charge
// creation and the payment webhook.
type Service interface {
	StartCheckout(ctx context.Context, input CheckoutInput) (*CheckoutResult, error)
	ConfirmPayment(ctx context.Context, notification PaymentNotification) (*models.Sale, error)
}

type service struct {
	raffleRepo raffles.Repository
	sales      saleRegistrar
	psp        pspClient
	logg       *logger.Logger
}

// CheckoutInput is the public checkout payload. The price is never taken
// from the client.
type CheckoutInput struct {
	RaffleSlug  string
	Quantity    int
	Customer    types.CustomerSnapshot
	PartnerSlug string
}

// CheckoutResult is returned to the buyer so they can pay.
type CheckoutResult struct {
	SaleID      uuid.UUID       `json:"sale_id"`
	SessionID   string          `json:"session_id"`
	Amount      decimal.Decimal `json:"amount"`
	PaymentLink string          `json:"payment_link"`
	QRCode      string          `json:"qr_code,omitempty"`
	ExpiresAt   *time.Time      `json:"expires_at,omitempty"`
}

// PaymentNotification is the already signature-verified webhook body.
type PaymentNotification struct {
	SessionID string
	Status    string
}

// NewService wires the checkout orchestrator.
func NewService(raffleRepo raffles.Repository, saleSvc saleRegistrar, psp pspClient, logg *logger.Logger) (Service, error) {
	if raffleRepo == nil || saleSvc == nil || psp == nil {
		return nil, fmt.Errorf("checkout dependencies required")
	}
	return &service{raffleRepo: raffleRepo, sales: saleSvc, psp: psp, logg: logg}, nil
}

func (s *service) StartCheckout(ctx context.Context, input CheckoutInput) (*CheckoutResult, error) {
	slug := strings.ToLower(strings.TrimSpace(input.RaffleSlug))
	if slug == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "raffle slug is required")
	}
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if !input.Customer.Validate() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer name and phone are required")
	}

	raffle, err := s.raffleRepo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if raffle == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "raffle not found")
	}
	if raffle.Status != enums.RaffleStatusOpen {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "raffle is not open for sales")
	}

	amount := raffle.TotalPriceFor(input.Quantity)
	charge, err := s.psp.CreateCharge(ctx, pix.ChargeParams{
		Amount:         amount,
		Description:    raffle.Title,
		ReferenceID:    fmt.Sprintf("raffle:%s", raffle.ID),
		CustomerName:   input.Customer.Name,
		IdempotencyKey: s.psp.NewIdempotencyKey("checkout"),
	})
	if err != nil {
		return nil, err
	}

	sale, err := s.sales.CreatePendingOnlineSale(ctx, sales.OnlineSaleInput{
		RaffleID:         raffle.ID,
		Quantity:         input.Quantity,
		Customer:         input.Customer,
		PartnerSlug:      input.PartnerSlug,
		PaymentSessionID: charge.SessionID,
	})
	if err != nil {
		return nil, err
	}

	return &CheckoutResult{
		SaleID:      sale.ID,
		SessionID:   charge.SessionID,
		Amount:      sale.Amount,
		PaymentLink: charge.PaymentLink,
		QRCode:      charge.QRCode,
		ExpiresAt:   charge.ExpiresAt,
	}, nil
}

func (s *service) ConfirmPayment(ctx context.Context, notification PaymentNotification) (*models.Sale, error) {
	sessionID := strings.TrimSpace(notification.SessionID)
	if sessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}

	sale, err := s.sales.GetByPaymentSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sale == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no sale for payment session")
	}

	// The webhook body is signed but the status is still confirmed
	// against the PSP before any ticket is handed out.
	charge, err := s.psp.GetCharge(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	switch charge.Status {
	case pix.ChargeStatusPaid:
		return s.sales.CompleteOnlineSale(ctx, sale.ID)
	case pix.ChargeStatusExpired, pix.ChargeStatusCancelled:
		return s.sales.CancelOnlineSale(ctx, sale.ID, fmt.Sprintf("payment %s", charge.Status))
	default:
		if s.logg != nil {
			ctx = s.logg.WithFields(ctx, map[string]any{
				"session_id": sessionID,
				"status":     charge.Status,
			})
			s.logg.Info(ctx, "payment notification ignored, charge not final")
		}
		return sale, nil
	}
}
