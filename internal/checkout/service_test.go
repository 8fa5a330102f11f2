package checkout

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/rifazone/rifazone-backend/internal/partners"
	"github.com/rifazone/rifazone-backend/internal/prizes"
	"github.com/rifazone/rifazone-backend/internal/raffles"
	"github.com/rifazone/rifazone-backend/internal/referrals"
	"github.com/rifazone/rifazone-backend/internal/sales"
	"github.com/rifazone/rifazone-backend/pkg/db/models"
	"github.com/rifazone/rifazone-backend/pkg/enums"
	pkgerrors "github.com/rifazone/rifazone-backend/pkg/errors"
	"github.com/rifazone/rifazone-backend/pkg/outbox"
	"github.com/rifazone/rifazone-backend/pkg/pix"
	"github.com/rifazone/rifazone-backend/pkg/types"
)

type txClient struct {
	db *gorm.DB
}

func (c *txClient) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return c.db.WithContext(ctx).Transaction(fn)
}

// fakePSP hands out sequential sessions and lets tests flip charge
// statuses to drive the webhook paths.
type fakePSP struct {
	charges map[string]*pix.Charge
	seq     int
}

func newFakePSP() *fakePSP {
	return &fakePSP{charges: map[string]*pix.Charge{}}
}

func (f *fakePSP) CreateCharge(ctx context.Context, params pix.ChargeParams) (*pix.Charge, error) {
	f.seq++
	charge := &pix.Charge{
		SessionID:   fmt.Sprintf("sess_%03d", f.seq),
		Status:      pix.ChargeStatusPending,
		PaymentLink: "https://psp.example.com/pay/" + fmt.Sprint(f.seq),
		QRCode:      "00020126pix",
		Amount:      params.Amount,
	}
	f.charges[charge.SessionID] = charge
	return charge, nil
}

func (f *fakePSP) GetCharge(ctx context.Context, sessionID string) (*pix.Charge, error) {
	charge, ok := f.charges[sessionID]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "charge not found")
	}
	return charge, nil
}

func (f *fakePSP) NewIdempotencyKey(prefix string) string {
	return prefix + "-" + uuid.NewString()
}

func (f *fakePSP) markPaid(sessionID string) {
	f.charges[sessionID].Status = pix.ChargeStatusPaid
}

func (f *fakePSP) markExpired(sessionID string) {
	f.charges[sessionID].Status = pix.ChargeStatusExpired
}

type fixture struct {
	svc  Service
	conn *gorm.DB
	psp  *fakePSP
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:checkout_test?mode=memory&cache=shared"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(
		&models.Partner{}, &models.Raffle{}, &models.ReferralClick{},
		&models.Sale{}, &models.Ticket{}, &models.PrizeNumber{}, &models.OutboxEvent{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	for _, model := range []any{
		&models.OutboxEvent{}, &models.PrizeNumber{}, &models.Ticket{},
		&models.Sale{}, &models.ReferralClick{}, &models.Raffle{}, &models.Partner{},
	} {
		if err := conn.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
			t.Fatalf("reset: %v", err)
		}
	}

	raffle := &models.Raffle{
		ID:           uuid.New(),
		Title:        "Notebook gamer",
		Slug:         "notebook-gamer",
		UnitPrice:    decimal.RequireFromString("2.50"),
		NumberDigits: 5,
		MaxNumber:    99999,
		MaxPerSale:   50,
		Status:       enums.RaffleStatusOpen,
	}
	if err := conn.Create(raffle).Error; err != nil {
		t.Fatalf("seed raffle: %v", err)
	}

	outboxSvc := outbox.NewService(outbox.NewRepository(conn), nil)
	partnerRepo := partners.NewRepository(conn)
	raffleRepo := raffles.NewRepository(conn)

	referralSvc, err := referrals.NewService(referrals.NewRepository(conn), partnerRepo, outboxSvc)
	if err != nil {
		t.Fatalf("referral service: %v", err)
	}
	prizeSvc, err := prizes.NewService(prizes.NewRepository(conn), raffleRepo, outboxSvc)
	if err != nil {
		t.Fatalf("prize service: %v", err)
	}
	saleSvc, err := sales.NewService(
		sales.NewRepository(conn), raffleRepo, partnerRepo,
		referralSvc, prizeSvc, sales.NewAllocator(25, nil),
		&txClient{db: conn}, outboxSvc, nil, 100,
	)
	if err != nil {
		t.Fatalf("sales service: %v", err)
	}

	psp := newFakePSP()
	svc, err := NewService(raffleRepo, saleSvc, psp, nil)
	if err != nil {
		t.Fatalf("checkout service: %v", err)
	}
	return &fixture{svc: svc, conn: conn, psp: psp}
}

func buyer() types.CustomerSnapshot {
	return types.CustomerSnapshot{Name: "Rafael Torres", Phone: "+5511912345678"}
}

func TestStartCheckout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	result, err := f.svc.StartCheckout(ctx, CheckoutInput{
		RaffleSlug: "Notebook-Gamer",
		Quantity:   4,
		Customer:   buyer(),
	})
	if err != nil {
		t.Fatalf("start checkout: %v", err)
	}
	if result.Amount.StringFixed(2) != "10.00" {
		t.Fatalf("expected server-derived amount 10.00, got %s", result.Amount.StringFixed(2))
	}
	if result.PaymentLink == "" || result.SessionID == "" {
		t.Fatal("expected payment link and session id")
	}

	var sale models.Sale
	if err := f.conn.First(&sale, "id = ?", result.SaleID).Error; err != nil {
		t.Fatalf("load sale: %v", err)
	}
	if sale.Status != enums.SaleStatusPending {
		t.Fatalf("expected pending sale, got %s", sale.Status)
	}
	if sale.PaymentSessionID == nil || *sale.PaymentSessionID != result.SessionID {
		t.Fatal("sale not linked to the payment session")
	}

	_, err = f.svc.StartCheckout(ctx, CheckoutInput{RaffleSlug: "nao-existe", Quantity: 1, Customer: buyer()})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestConfirmPaymentCompletesSale(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	result, err := f.svc.StartCheckout(ctx, CheckoutInput{
		RaffleSlug: "notebook-gamer",
		Quantity:   4,
		Customer:   buyer(),
	})
	if err != nil {
		t.Fatalf("start checkout: %v", err)
	}

	// A webhook for a still-pending charge does nothing.
	sale, err := f.svc.ConfirmPayment(ctx, PaymentNotification{SessionID: result.SessionID, Status: "paid"})
	if err != nil {
		t.Fatalf("confirm pending: %v", err)
	}
	if sale.Status != enums.SaleStatusPending {
		t.Fatalf("unpaid charge must not complete the sale, got %s", sale.Status)
	}

	f.psp.markPaid(result.SessionID)
	sale, err = f.svc.ConfirmPayment(ctx, PaymentNotification{SessionID: result.SessionID, Status: "paid"})
	if err != nil {
		t.Fatalf("confirm paid: %v", err)
	}
	if sale.Status != enums.SaleStatusCompleted {
		t.Fatalf("expected completed, got %s", sale.Status)
	}
	if len(sale.Tickets) != 4 {
		t.Fatalf("expected 4 tickets after confirmation, got %d", len(sale.Tickets))
	}

	// Retried webhook is an idempotent success.
	again, err := f.svc.ConfirmPayment(ctx, PaymentNotification{SessionID: result.SessionID, Status: "paid"})
	if err != nil {
		t.Fatalf("confirm retry: %v", err)
	}
	if again.Status != enums.SaleStatusCompleted {
		t.Fatalf("expected completed on retry, got %s", again.Status)
	}

	var tickets int64
	if err := f.conn.Model(&models.Ticket{}).Where("sale_id = ?", sale.ID).Count(&tickets).Error; err != nil {
		t.Fatalf("count tickets: %v", err)
	}
	if tickets != 4 {
		t.Fatalf("retry must not allocate again, got %d tickets", tickets)
	}
}

func TestConfirmPaymentExpiredCancelsSale(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	result, err := f.svc.StartCheckout(ctx, CheckoutInput{
		RaffleSlug: "notebook-gamer",
		Quantity:   2,
		Customer:   buyer(),
	})
	if err != nil {
		t.Fatalf("start checkout: %v", err)
	}

	f.psp.markExpired(result.SessionID)
	sale, err := f.svc.ConfirmPayment(ctx, PaymentNotification{SessionID: result.SessionID, Status: "expired"})
	if err != nil {
		t.Fatalf("confirm expired: %v", err)
	}
	if sale.Status != enums.SaleStatusCancelled {
		t.Fatalf("expected cancelled, got %s", sale.Status)
	}
	if sale.CancelReason == nil || *sale.CancelReason != "payment expired" {
		t.Fatalf("expected cancel reason, got %+v", sale.CancelReason)
	}

	_, err = f.svc.ConfirmPayment(ctx, PaymentNotification{SessionID: "sess_unknown", Status: "paid"})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for unknown session, got %v", err)
	}
}
