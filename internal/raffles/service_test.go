package raffles

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
)

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:raffles_test?mode=memory&cache=shared"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&models.Raffle{}, &models.Ticket{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	for _, model := range []any{&models.Ticket{}, &models.Raffle{}} {
		if err := conn.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
			t.Fatalf("reset: %v", err)
		}
	}
	svc, err := NewService(NewRepository(conn))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, conn
}

func validInput() CreateRaffleInput {
	return CreateRaffleInput{
		Title:          "iPhone 16",
		Slug:           "iphone-16",
		UnitPrice:      decimal.RequireFromString("19.90"),
		DiscountPrice:  decimal.RequireFromString("14.90"),
		DiscountMinQty: 5,
		NumberDigits:   4,
		MaxNumber:      9999,
		MaxPerSale:     50,
	}
}

func TestCreateAndFetchRaffle(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	raffle, err := svc.Create(ctx, validInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if raffle.Status != enums.RaffleStatusDraft {
		t.Fatalf("expected draft status, got %s", raffle.Status)
	}
	if raffle.PoolSize() != 10000 {
		t.Fatalf("expected pool 10000, got %d", raffle.PoolSize())
	}

	fetched, err := svc.GetBySlug(ctx, "IPHONE-16")
	if err != nil {
		t.Fatalf("get by slug: %v", err)
	}
	if fetched.ID != raffle.ID {
		t.Fatalf("slug lookup returned wrong raffle")
	}
}

func TestCreateRejectsDuplicateSlug(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, validInput()); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := svc.Create(ctx, validInput())
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected CONFLICT, got %v", err)
	}
}

func TestCreateRejectsOversizedMaxNumber(t *testing.T) {
	svc, _ := newTestService(t)
	input := validInput()
	input.Slug = "oversized"
	input.NumberDigits = 3
	input.MaxNumber = 5000

	_, err := svc.Create(context.Background(), input)
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
}

func TestStatusTransitions(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	raffle, err := svc.Create(ctx, validInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Draft raffles cannot be closed.
	err = svc.Close(ctx, raffle.ID)
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected STATE_CONFLICT closing draft, got %v", err)
	}

	if err := svc.Open(ctx, raffle.ID); err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := svc.Close(ctx, raffle.ID); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := svc.MarkDrawn(ctx, raffle.ID); err != nil {
		t.Fatalf("mark drawn: %v", err)
	}

	fetched, err := svc.Get(ctx, raffle.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if fetched.Status != enums.RaffleStatusDrawn {
		t.Fatalf("expected drawn, got %s", fetched.Status)
	}
	if fetched.DrawnAt == nil {
		t.Fatal("expected drawn_at to be set")
	}

	// Drawn raffles are immutable.
	title := "changed"
	_, err = svc.Update(ctx, raffle.ID, UpdateRaffleInput{Title: &title})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected STATE_CONFLICT updating drawn raffle, got %v", err)
	}
}

func TestAvailabilityCountsSoldTickets(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()

	raffle, err := svc.Create(ctx, validInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	saleID := uuid.New()
	for _, number := range []string{"0001", "0002", "0003"} {
		ticket := models.Ticket{ID: uuid.New(), RaffleID: raffle.ID, Number: number, SaleID: saleID}
		if err := conn.Create(&ticket).Error; err != nil {
			t.Fatalf("seed ticket: %v", err)
		}
	}

	avail, err := svc.Availability(ctx, raffle.ID)
	if err != nil {
		t.Fatalf("availability: %v", err)
	}
	if avail.Sold != 3 {
		t.Fatalf("expected 3 sold, got %d", avail.Sold)
	}
	if avail.Remaining != 9997 {
		t.Fatalf("expected 9997 remaining, got %d", avail.Remaining)
	}
}
