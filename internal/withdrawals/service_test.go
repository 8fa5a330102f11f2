package withdrawals

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/rifazone/rifazone-backend/pkg/db/models"
	"github.com/rifazone/rifazone-backend/pkg/enums"
	pkgerrors "github.com/rifazone/rifazone-backend/pkg/errors"
	"github.com/rifazone/rifazone-backend/pkg/outbox"
	"github.com/rifazone/rifazone-backend/pkg/pagination"

	"github.com/rifazone/rifazone-backend/internal/partners"
)

type txClient struct {
	db *gorm.DB
}

func (c *txClient) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return c.db.WithContext(ctx).Transaction(fn)
}

func newTestService(t *testing.T) (Service, *gorm.DB, *models.Partner) {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:withdrawals_test?mode=memory&cache=shared"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(
		&models.Partner{}, &models.Sale{}, &models.WithdrawalRequest{}, &models.OutboxEvent{},
	))
	for _, model := range []any{
		&models.OutboxEvent{}, &models.WithdrawalRequest{}, &models.Sale{}, &models.Partner{},
	} {
		require.NoError(t, conn.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error)
	}

	partner := &models.Partner{
		ID:             uuid.New(),
		Name:           "Bia Promotora",
		Slug:           "bia",
		Email:          "bia@example.com",
		CommissionRate: decimal.NewFromInt(15),
		IsActive:       true,
	}
	require.NoError(t, conn.Create(partner).Error)

	// Two settled sales give the partner 50.00 of commission.
	for range 2 {
		sale := &models.Sale{
			ID:         uuid.New(),
			RaffleID:   uuid.New(),
			PartnerID:  &partner.ID,
			Channel:    enums.SaleChannelDoorToDoor,
			Quantity:   10,
			Amount:     decimal.RequireFromString("166.67"),
			Commission: decimal.RequireFromString("25.00"),
			Status:     enums.SaleStatusSettled,
		}
		require.NoError(t, conn.Create(sale).Error)
	}

	outboxSvc := outbox.NewService(outbox.NewRepository(conn), nil)
	svc, err := NewService(
		NewRepository(conn), partners.NewRepository(conn),
		&txClient{db: conn}, outboxSvc, nil,
	)
	require.NoError(t, err)
	return svc, conn, partner
}

func adminActor() outbox.ActorRef {
	return outbox.ActorRef{SubjectID: uuid.New(), Role: enums.ActorRoleAdmin.String()}
}

func pixDetails() json.RawMessage {
	return json.RawMessage(`{"pix_key":"bia@example.com"}`)
}

func TestRequestHoldsBalance(t *testing.T) {
	svc, conn, partner := newTestService(t)
	ctx := context.Background()

	request, err := svc.Request(ctx, RequestInput{
		PartnerID:      partner.ID,
		Amount:         decimal.RequireFromString("30.00"),
		Method:         enums.WithdrawalMethodPix,
		PaymentDetails: pixDetails(),
	}, adminActor())
	require.NoError(t, err)
	assert.Equal(t, enums.WithdrawalStatusPending, request.Status)

	// 50.00 earned minus the 30.00 hold leaves 20.00; 25.00 must fail.
	_, err = svc.Request(ctx, RequestInput{
		PartnerID:      partner.ID,
		Amount:         decimal.RequireFromString("25.00"),
		Method:         enums.WithdrawalMethodPix,
		PaymentDetails: pixDetails(),
	}, adminActor())
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeInsufficientBalance, appErr.Code())

	var requests int64
	require.NoError(t, conn.Model(&models.WithdrawalRequest{}).Count(&requests).Error)
	assert.Equal(t, int64(1), requests, "rejected request must not persist")

	var events int64
	err = conn.Model(&models.OutboxEvent{}).
		Where("event_type = ?", enums.EventWithdrawalRequested).
		Count(&events).Error
	require.NoError(t, err)
	assert.Equal(t, int64(1), events)
}

func TestRejectReleasesHold(t *testing.T) {
	svc, _, partner := newTestService(t)
	ctx := context.Background()

	request, err := svc.Request(ctx, RequestInput{
		PartnerID:      partner.ID,
		Amount:         decimal.RequireFromString("40.00"),
		Method:         enums.WithdrawalMethodPix,
		PaymentDetails: pixDetails(),
	}, adminActor())
	require.NoError(t, err)

	rejected, err := svc.Reject(ctx, request.ID, "dados bancarios invalidos", adminActor())
	require.NoError(t, err)
	assert.Equal(t, enums.WithdrawalStatusRejected, rejected.Status)
	require.NotNil(t, rejected.RejectReason)
	assert.Equal(t, "dados bancarios invalidos", *rejected.RejectReason)

	// The hold is gone, so the full 50.00 is available again.
	again, err := svc.Request(ctx, RequestInput{
		PartnerID:      partner.ID,
		Amount:         decimal.RequireFromString("50.00"),
		Method:         enums.WithdrawalMethodBankTransfer,
		PaymentDetails: json.RawMessage(`{"bank":"001","agency":"1234","account":"56789-0"}`),
	}, adminActor())
	require.NoError(t, err)
	assert.Equal(t, enums.WithdrawalStatusPending, again.Status)

	// The reason is optional; a bare rejection still releases the hold.
	bare, err := svc.Reject(ctx, again.ID, "", adminActor())
	require.NoError(t, err)
	assert.Equal(t, enums.WithdrawalStatusRejected, bare.Status)
	assert.Nil(t, bare.RejectReason)
}

func TestApproveThenProcess(t *testing.T) {
	svc, conn, partner := newTestService(t)
	ctx := context.Background()

	request, err := svc.Request(ctx, RequestInput{
		PartnerID:      partner.ID,
		Amount:         decimal.RequireFromString("50.00"),
		Method:         enums.WithdrawalMethodPix,
		PaymentDetails: pixDetails(),
	}, adminActor())
	require.NoError(t, err)

	// Processing before approval is a state conflict.
	_, err = svc.Process(ctx, request.ID, adminActor())
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeStateConflict, appErr.Code())

	approved, err := svc.Approve(ctx, request.ID, adminActor())
	require.NoError(t, err)
	assert.Equal(t, enums.WithdrawalStatusApproved, approved.Status)
	assert.NotNil(t, approved.DecidedAt)

	// Approving twice is a state conflict.
	_, err = svc.Approve(ctx, request.ID, adminActor())
	appErr = pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeStateConflict, appErr.Code())

	processed, err := svc.Process(ctx, request.ID, adminActor())
	require.NoError(t, err)
	assert.Equal(t, enums.WithdrawalStatusProcessed, processed.Status)
	assert.NotNil(t, processed.ProcessedAt)

	var decided, done int64
	require.NoError(t, conn.Model(&models.OutboxEvent{}).Where("event_type = ?", enums.EventWithdrawalDecided).Count(&decided).Error)
	require.NoError(t, conn.Model(&models.OutboxEvent{}).Where("event_type = ?", enums.EventWithdrawalProcessed).Count(&done).Error)
	assert.Equal(t, int64(1), decided)
	assert.Equal(t, int64(1), done)
}

func TestListByPartnerPaginates(t *testing.T) {
	svc, conn, partner := newTestService(t)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	for i := range 3 {
		request := &models.WithdrawalRequest{
			ID:             uuid.New(),
			PartnerID:      partner.ID,
			Amount:         decimal.NewFromInt(int64(i + 1)),
			Method:         enums.WithdrawalMethodPix,
			PaymentDetails: pixDetails(),
			Status:         enums.WithdrawalStatusRejected,
			CreatedAt:      base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, conn.Create(request).Error)
	}

	first, err := svc.ListByPartner(ctx, partner.ID, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first.Items, 2)
	require.NotNil(t, first.NextCursor)

	second, err := svc.ListByPartner(ctx, partner.ID, pagination.Params{Limit: 2, Cursor: *first.NextCursor})
	require.NoError(t, err)
	assert.Len(t, second.Items, 1)
	assert.Nil(t, second.NextCursor)
}
