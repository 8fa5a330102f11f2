package routes

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	pkgauth "github.com/rifazone/rifazone-backend/pkg/auth"
	"github.com/rifazone/rifazone-backend/pkg/config"
	"github.com/rifazone/rifazone-backend/pkg/enums"
	"github.com/rifazone/rifazone-backend/pkg/logger"
	"github.com/rifazone/rifazone-backend/pkg/redis"
)

func testRouter(t *testing.T) http.Handler {
	t.Helper()
	cfg := &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:            "router-test-secret",
			Issuer:            "rifazone-test",
			ExpirationMinutes: 15,
		},
		RateLimit: config.RateLimitConfig{PublicWindow: time.Minute, PublicLimit: 1000},
	}
	logg := logger.New(logger.Options{ServiceName: "routes-test"})

	// Services are nil here on purpose; these tests only exercise the
	// routing table and the auth gates in front of the handlers.
	return NewRouter(cfg, logg, nil, &redis.Client{}, nil, nil, nil, nil, nil, nil, nil, nil, nil)
}

func mintToken(t *testing.T, role enums.ActorRole) string {
	t.Helper()
	cfg := config.JWTConfig{Secret: "router-test-secret", Issuer: "rifazone-test", ExpirationMinutes: 15}
	partnerID := uuid.New()
	var partnerRef *uuid.UUID
	if role == enums.ActorRolePartner {
		partnerRef = &partnerID
	}
	token, err := pkgauth.MintAccessToken(cfg, time.Now(), pkgauth.AccessTokenPayload{
		SubjectID: uuid.New(),
		Role:      role,
		PartnerID: partnerRef,
		JTI:       uuid.NewString(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestHealthLive(t *testing.T) {
	t.Parallel()
	router := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if rec.Header().Get("X-Rifazone-Env") != "test" {
		t.Fatalf("expected env header, got %q", rec.Header().Get("X-Rifazone-Env"))
	}
}

func TestPartnerRoutesRequireAuth(t *testing.T) {
	t.Parallel()
	router := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/partner/sales", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
}

func TestAdminRoutesRejectPartnerRole(t *testing.T) {
	t.Parallel()
	router := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/raffles/", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, enums.ActorRolePartner))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", rec.Code)
	}
}

func TestCheckoutRequiresIdempotencyKey(t *testing.T) {
	t.Parallel()
	router := testRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/public/checkout", strings.NewReader(`{"raffle_slug":"x","quantity":1,"name":"a","phone":"1"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without Idempotency-Key, got %d body %s", rec.Code, rec.Body.String())
	}
}

func TestMetricsEndpointExposed(t *testing.T) {
	t.Parallel()
	router := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
}
