package partners

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/rifazone/rifazone-backend/pkg/db/models"
	"github.com/rifazone/rifazone-backend/pkg/enums"
	pkgerrors "github.com/rifazone/rifazone-backend/pkg/errors"
	"github.com/rifazone/rifazone-backend/pkg/outbox"
)

type txClient struct {
	db *gorm.DB
}

func (c *txClient) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return c.db.WithContext(ctx).Transaction(fn)
}

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:partners_test?mode=memory&cache=shared"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&models.Partner{}, &models.Sale{}, &models.WithdrawalRequest{}, &models.OutboxEvent{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	for _, model := range []any{&models.OutboxEvent{}, &models.WithdrawalRequest{}, &models.Sale{}, &models.Partner{}} {
		if err := conn.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
			t.Fatalf("reset: %v", err)
		}
	}

	outboxSvc := outbox.NewService(outbox.NewRepository(conn), nil)
	svc, err := NewService(NewRepository(conn), &txClient{db: conn}, outboxSvc)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, conn
}

func seedPartner(t *testing.T, svc Service, slug string) *models.Partner {
	t.Helper()
	partner, err := svc.Create(context.Background(), CreatePartnerInput{
		Name:           "Ana Souza",
		Slug:           slug,
		Email:          "ana@example.com",
		CommissionRate: decimal.RequireFromString("15"),
	})
	if err != nil {
		t.Fatalf("create partner: %v", err)
	}
	return partner
}

func TestCreatePartnerValidations(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	seedPartner(t, svc, "ana")

	_, err := svc.Create(ctx, CreatePartnerInput{
		Name:           "Other",
		Slug:           "ana",
		Email:          "x@example.com",
		CommissionRate: decimal.NewFromInt(10),
	})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected CONFLICT on duplicate slug, got %v", err)
	}

	_, err = svc.Create(ctx, CreatePartnerInput{
		Name:           "Bad Rate",
		Slug:           "bad-rate",
		Email:          "y@example.com",
		CommissionRate: decimal.NewFromInt(101),
	})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected VALIDATION_ERROR on rate, got %v", err)
	}
}

func TestSetActiveEmitsEventOnce(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	partner := seedPartner(t, svc, "toggles")

	if err := svc.SetActive(ctx, partner.ID, false); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	// Toggling to the current state is a no-op.
	if err := svc.SetActive(ctx, partner.ID, false); err != nil {
		t.Fatalf("repeat deactivate: %v", err)
	}

	fetched, err := svc.Get(ctx, partner.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if fetched.IsActive {
		t.Fatal("expected partner inactive")
	}

	var count int64
	if err := conn.Model(&models.OutboxEvent{}).
		Where("event_type = ?", enums.EventPartnerActivationChanged).
		Count(&count).Error; err != nil {
		t.Fatalf("count events: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 activation event, got %d", count)
	}
}

func TestBalanceDerivation(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	partner := seedPartner(t, svc, "balance")
	raffleID := uuid.New()

	sales := []models.Sale{
		{ID: uuid.New(), RaffleID: raffleID, PartnerID: &partner.ID, Quantity: 1,
			Amount: decimal.RequireFromString("19.90"), Commission: decimal.RequireFromString("2.99"),
			Status: enums.SaleStatusCompleted},
		{ID: uuid.New(), RaffleID: raffleID, PartnerID: &partner.ID, Quantity: 2,
			Amount: decimal.RequireFromString("39.80"), Commission: decimal.RequireFromString("5.97"),
			Status: enums.SaleStatusSettled},
		// Cancelled sales bear no commission.
		{ID: uuid.New(), RaffleID: raffleID, PartnerID: &partner.ID, Quantity: 1,
			Amount: decimal.RequireFromString("19.90"), Commission: decimal.RequireFromString("2.99"),
			Status: enums.SaleStatusCancelled},
	}
	for i := range sales {
		if err := conn.Create(&sales[i]).Error; err != nil {
			t.Fatalf("seed sale: %v", err)
		}
	}

	withdrawal := models.WithdrawalRequest{
		ID:        uuid.New(),
		PartnerID: partner.ID,
		Amount:    decimal.RequireFromString("3.00"),
		Method:    enums.WithdrawalMethodPix,
		Status:    enums.WithdrawalStatusPending,
	}
	if err := conn.Create(&withdrawal).Error; err != nil {
		t.Fatalf("seed withdrawal: %v", err)
	}
	rejected := models.WithdrawalRequest{
		ID:        uuid.New(),
		PartnerID: partner.ID,
		Amount:    decimal.RequireFromString("100.00"),
		Method:    enums.WithdrawalMethodPix,
		Status:    enums.WithdrawalStatusRejected,
	}
	if err := conn.Create(&rejected).Error; err != nil {
		t.Fatalf("seed rejected withdrawal: %v", err)
	}

	statement, err := svc.Balance(ctx, partner.ID)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}

	if want := decimal.RequireFromString("8.96"); !statement.CommissionTotal.Equal(want) {
		t.Fatalf("expected commission %s, got %s", want, statement.CommissionTotal)
	}
	if want := decimal.RequireFromString("3.00"); !statement.WithdrawalHolds.Equal(want) {
		t.Fatalf("expected holds %s, got %s", want, statement.WithdrawalHolds)
	}
	if want := decimal.RequireFromString("5.96"); !statement.Available.Equal(want) {
		t.Fatalf("expected available %s, got %s", want, statement.Available)
	}
}
