package prizes

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/rifazone/rifazone-backend/internal/raffles"
	"github.com/rifazone/rifazone-backend/pkg/db/models"
	"github.com/rifazone/rifazone-backend/pkg/enums"
	pkgerrors "github.com/rifazone/rifazone-backend/pkg/errors"
	"github.com/rifazone/rifazone-backend/pkg/outbox"
	"github.com/rifazone/rifazone-backend/pkg/types"
)

func newTestService(t *testing.T) (Service, *gorm.DB, *models.Raffle) {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:prizes_test?mode=memory&cache=shared"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&models.Raffle{}, &models.PrizeNumber{}, &models.OutboxEvent{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	for _, model := range []any{&models.OutboxEvent{}, &models.PrizeNumber{}, &models.Raffle{}} {
		if err := conn.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
			t.Fatalf("reset: %v", err)
		}
	}

	raffle := &models.Raffle{
		ID:           uuid.New(),
		Title:        "Moto 0km",
		Slug:         "moto-0km",
		UnitPrice:    decimal.RequireFromString("1.99"),
		NumberDigits: 4,
		MaxNumber:    9999,
		MaxPerSale:   100,
		Status:       enums.RaffleStatusOpen,
	}
	if err := conn.Create(raffle).Error; err != nil {
		t.Fatalf("seed raffle: %v", err)
	}

	outboxSvc := outbox.NewService(outbox.NewRepository(conn), nil)
	svc, err := NewService(NewRepository(conn), raffles.NewRepository(conn), outboxSvc)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, conn, raffle
}

func codeOf(t *testing.T, err error) pkgerrors.Code {
	t.Helper()
	appErr := pkgerrors.As(err)
	if appErr == nil {
		t.Fatalf("expected app error, got %v", err)
	}
	return appErr.Code()
}

func TestCreatePrizeNumber(t *testing.T) {
	svc, _, raffle := newTestService(t)
	ctx := context.Background()

	prize, err := svc.Create(ctx, CreatePrizeInput{
		RaffleID:    raffle.ID,
		Number:      "77",
		Description: "PIX de R$ 100",
		Value:       decimal.NewFromInt(100),
	})
	if err != nil {
		t.Fatalf("create prize: %v", err)
	}
	if prize.Number != "0077" {
		t.Fatalf("expected zero-padded number 0077, got %s", prize.Number)
	}
	if prize.Status != enums.PrizeNumberStatusDisponivel {
		t.Fatalf("expected disponivel, got %s", prize.Status)
	}

	_, err = svc.Create(ctx, CreatePrizeInput{
		RaffleID:    raffle.ID,
		Number:      "0077",
		Description: "duplicado",
		Value:       decimal.NewFromInt(50),
	})
	if codeOf(t, err) != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict for duplicate number, got %v", err)
	}

	_, err = svc.Create(ctx, CreatePrizeInput{
		RaffleID:    raffle.ID,
		Number:      "10000",
		Description: "fora do intervalo",
		Value:       decimal.NewFromInt(10),
	})
	if codeOf(t, err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for out-of-range number, got %v", err)
	}
}

func TestUpdatePrizeNumberGuards(t *testing.T) {
	svc, conn, raffle := newTestService(t)
	ctx := context.Background()

	prize, err := svc.Create(ctx, CreatePrizeInput{
		RaffleID:    raffle.ID,
		Number:      "1234",
		Description: "iPhone",
		Value:       decimal.NewFromInt(5000),
	})
	if err != nil {
		t.Fatalf("create prize: %v", err)
	}

	reserved := enums.PrizeNumberStatusReservado
	updated, err := svc.Update(ctx, prize.ID, UpdatePrizeInput{Status: &reserved})
	if err != nil {
		t.Fatalf("reserve prize: %v", err)
	}
	if updated.Status != enums.PrizeNumberStatusReservado {
		t.Fatalf("expected reservado, got %s", updated.Status)
	}

	// Reservado cannot go back to disponivel.
	available := enums.PrizeNumberStatusDisponivel
	_, err = svc.Update(ctx, prize.ID, UpdatePrizeInput{Status: &available})
	if codeOf(t, err) != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict on backward transition, got %v", err)
	}

	// Force the row to premiado and confirm edits and deletes are refused.
	err = conn.Model(&models.PrizeNumber{}).
		Where("id = ?", prize.ID).
		Update("status", enums.PrizeNumberStatusPremiado).Error
	if err != nil {
		t.Fatalf("force premiado: %v", err)
	}
	description := "corrigido"
	if _, err := svc.Update(ctx, prize.ID, UpdatePrizeInput{Description: &description}); codeOf(t, err) != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict updating awarded prize, got %v", err)
	}
	if err := svc.Delete(ctx, prize.ID); codeOf(t, err) != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict deleting awarded prize, got %v", err)
	}
}

func TestCheckAndAward(t *testing.T) {
	svc, conn, raffle := newTestService(t)
	ctx := context.Background()

	winnerPrize, err := svc.Create(ctx, CreatePrizeInput{
		RaffleID:    raffle.ID,
		Number:      "0042",
		Description: "PIX de R$ 500",
		Value:       decimal.NewFromInt(500),
	})
	if err != nil {
		t.Fatalf("create prize: %v", err)
	}
	reservedPrize, err := svc.Create(ctx, CreatePrizeInput{
		RaffleID:    raffle.ID,
		Number:      "0051",
		Description: "reservado pela banca",
		Value:       decimal.NewFromInt(200),
	})
	if err != nil {
		t.Fatalf("create reserved prize: %v", err)
	}
	reserved := enums.PrizeNumberStatusReservado
	if _, err := svc.Update(ctx, reservedPrize.ID, UpdatePrizeInput{Status: &reserved}); err != nil {
		t.Fatalf("reserve prize: %v", err)
	}

	winner := types.CustomerSnapshot{Name: "Joana Lima", Phone: "+5511999990000", City: "Recife"}
	saleID := uuid.New()

	var awarded []models.PrizeNumber
	err = conn.Transaction(func(tx *gorm.DB) error {
		var txErr error
		awarded, txErr = svc.CheckAndAward(ctx, tx, raffle.ID, []string{"0042", "0051", "0099"}, winner, saleID)
		return txErr
	})
	if err != nil {
		t.Fatalf("check and award: %v", err)
	}
	if len(awarded) != 1 {
		t.Fatalf("expected exactly one award, got %d", len(awarded))
	}
	if awarded[0].ID != winnerPrize.ID {
		t.Fatalf("awarded wrong prize")
	}

	var stored models.PrizeNumber
	if err := conn.First(&stored, "id = ?", winnerPrize.ID).Error; err != nil {
		t.Fatalf("load prize: %v", err)
	}
	if stored.Status != enums.PrizeNumberStatusPremiado {
		t.Fatalf("expected premiado, got %s", stored.Status)
	}
	if stored.Winner == nil || stored.Winner.Name != "Joana Lima" {
		t.Fatalf("winner snapshot not persisted: %+v", stored.Winner)
	}
	if stored.AwardedSaleID == nil || *stored.AwardedSaleID != saleID {
		t.Fatal("awarded sale id not persisted")
	}

	// Awarding again is a no-op for the same number.
	err = conn.Transaction(func(tx *gorm.DB) error {
		again, txErr := svc.CheckAndAward(ctx, tx, raffle.ID, []string{"0042"}, winner, uuid.New())
		if txErr != nil {
			return txErr
		}
		if len(again) != 0 {
			t.Fatalf("expected no second award, got %d", len(again))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("repeat award: %v", err)
	}

	var events []models.OutboxEvent
	if err := conn.Where("event_type = ?", enums.EventPrizeAwarded).Find(&events).Error; err != nil {
		t.Fatalf("load events: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected one prize_awarded event, got %d", len(events))
	}
}
