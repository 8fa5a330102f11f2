package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	checkoutsvc "github.com/rifazone/rifazone-backend/internal/checkout"
	"github.com/rifazone/rifazone-backend/pkg/db/models"
	pkgerrors "github.com/rifazone/rifazone-backend/pkg/errors"
	"github.com/rifazone/rifazone-backend/pkg/logger"
)

type stubCheckoutService struct {
	result    *checkoutsvc.CheckoutResult
	err       error
	lastInput checkoutsvc.CheckoutInput
}

func (s *stubCheckoutService) StartCheckout(ctx context.Context, input checkoutsvc.CheckoutInput) (*checkoutsvc.CheckoutResult, error) {
	s.lastInput = input
	return s.result, s.err
}

func (s *stubCheckoutService) ConfirmPayment(ctx context.Context, notification checkoutsvc.PaymentNotification) (*models.Sale, error) {
	return nil, pkgerrors.New(pkgerrors.CodeInternal, "not implemented")
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "controllers-test"})
}

func TestStartCheckoutSuccess(t *testing.T) {
	t.Parallel()

	svc := &stubCheckoutService{result: &checkoutsvc.CheckoutResult{
		SaleID:      uuid.New(),
		SessionID:   "sess_1",
		Amount:      decimal.RequireFromString("19.90"),
		PaymentLink: "https://psp.example/pay/sess_1",
	}}

	body := `{"raffle_slug":"moto-zero","quantity":10,"name":"  Ana  ","phone":"119999","partner_slug":"carlos"}`
	req := httptest.NewRequest(http.MethodPost, "/api/public/checkout", strings.NewReader(body))
	rec := httptest.NewRecorder()

	StartCheckout(svc, testLogger())(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d body %s", rec.Code, rec.Body.String())
	}
	var envelope struct {
		Data checkoutsvc.CheckoutResult `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.SessionID != "sess_1" {
		t.Fatalf("unexpected session id %q", envelope.Data.SessionID)
	}
	if svc.lastInput.Customer.Name != "Ana" {
		t.Fatalf("expected trimmed customer name, got %q", svc.lastInput.Customer.Name)
	}
	if svc.lastInput.PartnerSlug != "carlos" {
		t.Fatalf("partner slug not forwarded: %q", svc.lastInput.PartnerSlug)
	}
}

func TestStartCheckoutValidation(t *testing.T) {
	t.Parallel()

	svc := &stubCheckoutService{}
	body := `{"raffle_slug":"moto-zero","name":"Ana","phone":"119999"}`
	req := httptest.NewRequest(http.MethodPost, "/api/public/checkout", strings.NewReader(body))
	rec := httptest.NewRecorder()

	StartCheckout(svc, testLogger())(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
	var envelope struct {
		Error struct {
			Code    string            `json:"code"`
			Details map[string]string `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Error.Code != string(pkgerrors.CodeValidation) {
		t.Fatalf("unexpected code %q", envelope.Error.Code)
	}
	if _, ok := envelope.Error.Details["quantity"]; !ok {
		t.Fatalf("expected quantity in details, got %v", envelope.Error.Details)
	}
}

func TestStartCheckoutPoolExhausted(t *testing.T) {
	t.Parallel()

	svc := &stubCheckoutService{err: pkgerrors.New(pkgerrors.CodePoolExhausted, "raffle sold out")}
	body := `{"raffle_slug":"moto-zero","quantity":5,"name":"Ana","phone":"119999"}`
	req := httptest.NewRequest(http.MethodPost, "/api/public/checkout", strings.NewReader(body))
	rec := httptest.NewRecorder()

	StartCheckout(svc, testLogger())(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d body %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "raffle sold out") {
		t.Fatalf("pool exhaustion message should pass through: %s", rec.Body.String())
	}
}

func TestStartCheckoutRejectsUnknownFields(t *testing.T) {
	t.Parallel()

	svc := &stubCheckoutService{}
	body := `{"raffle_slug":"moto-zero","quantity":1,"name":"Ana","phone":"119999","amount":"0.01"}`
	req := httptest.NewRequest(http.MethodPost, "/api/public/checkout", strings.NewReader(body))
	rec := httptest.NewRecorder()

	StartCheckout(svc, testLogger())(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("client-supplied amount must be rejected, got %d", rec.Code)
	}
}
