package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	pkgauth "github.com/rifazone/rifazone-backend/pkg/auth"
	"github.com/rifazone/rifazone-backend/pkg/config"
	"github.com/rifazone/rifazone-backend/pkg/enums"
	"github.com/rifazone/rifazone-backend/pkg/logger"
)

var testJWTConfig = config.JWTConfig{
	Secret:            "middleware-test-secret",
	Issuer:            "rifazone-test",
	ExpirationMinutes: 15,
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "middleware-test"})
}

func mintToken(t *testing.T, role enums.ActorRole, partnerID *uuid.UUID) string {
	t.Helper()
	token, err := pkgauth.MintAccessToken(testJWTConfig, time.Now(), pkgauth.AccessTokenPayload{
		SubjectID: uuid.New(),
		Role:      role,
		PartnerID: partnerID,
		JTI:       uuid.NewString(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func echoContext(t *testing.T) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]string{
			"subject_id": SubjectIDFromContext(r.Context()),
			"role":       RoleFromContext(r.Context()),
			"partner_id": PartnerIDFromContext(r.Context()),
		}
		json.NewEncoder(w).Encode(payload)
	}
}

func TestAuthSeedsContext(t *testing.T) {
	partnerID := uuid.New()
	handler := Auth(testJWTConfig, testLogger())(echoContext(t))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/partner/sales", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, enums.ActorRolePartner, &partnerID))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body %s", rec.Code, rec.Body.String())
	}
	var payload map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload["role"] != string(enums.ActorRolePartner) {
		t.Fatalf("unexpected role %q", payload["role"])
	}
	if payload["partner_id"] != partnerID.String() {
		t.Fatalf("unexpected partner id %q", payload["partner_id"])
	}
}

func TestAuthRejectsMissingAndGarbageTokens(t *testing.T) {
	handler := Auth(testJWTConfig, testLogger())(echoContext(t))

	for name, header := range map[string]string{
		"missing": "",
		"garbage": "Bearer not-a-jwt",
	} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401 got %d", name, rec.Code)
		}
	}
}

func TestRequireRole(t *testing.T) {
	chain := Auth(testJWTConfig, testLogger())(
		RequireRole(string(enums.ActorRoleAdmin), testLogger())(echoContext(t)),
	)

	partnerID := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, enums.ActorRolePartner, &partnerID))
	rec := httptest.NewRecorder()
	chain.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("partner must not pass an admin gate, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, enums.ActorRoleAdmin, nil))
	rec = httptest.NewRecorder()
	chain.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("admin should pass, got %d", rec.Code)
	}
}

type memoryStore struct {
	values map[string]string
}

func newMemoryStore() *memoryStore { return &memoryStore{values: map[string]string{}} }

func (m *memoryStore) Get(ctx context.Context, key string) (string, error) {
	value, ok := m.values[key]
	if !ok {
		return "", redis.Nil
	}
	return value, nil
}

func (m *memoryStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if _, ok := m.values[key]; ok {
		return false, nil
	}
	m.values[key] = value.(string)
	return true, nil
}

func (m *memoryStore) IdempotencyKey(scope, id string) string { return "idem:" + scope + ":" + id }

func (m *memoryStore) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.values, key)
	}
	return nil
}

func idempotentRouter(store *memoryStore, hits *int) http.Handler {
	r := chi.NewRouter()
	r.Use(Idempotency(store, testLogger()))
	r.Post("/api/public/checkout", func(w http.ResponseWriter, req *http.Request) {
		*hits++
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"data":{"sale_id":"abc"}}`))
	})
	return r
}

func TestIdempotencyReplaysStoredResponse(t *testing.T) {
	store := newMemoryStore()
	hits := 0
	router := idempotentRouter(store, &hits)

	send := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/public/checkout", strings.NewReader(body))
		req.Header.Set("Idempotency-Key", "key-1")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	first := send(`{"quantity":1}`)
	if first.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", first.Code)
	}
	second := send(`{"quantity":1}`)
	if second.Code != http.StatusCreated {
		t.Fatalf("replay should return the stored status, got %d", second.Code)
	}
	if hits != 1 {
		t.Fatalf("handler must run once, ran %d times", hits)
	}
	if first.Body.String() != second.Body.String() {
		t.Fatalf("replayed body differs: %q vs %q", first.Body.String(), second.Body.String())
	}
}

func TestIdempotencyRejectsKeyReuseWithDifferentBody(t *testing.T) {
	store := newMemoryStore()
	hits := 0
	router := idempotentRouter(store, &hits)

	req := httptest.NewRequest(http.MethodPost, "/api/public/checkout", strings.NewReader(`{"quantity":1}`))
	req.Header.Set("Idempotency-Key", "key-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	req = httptest.NewRequest(http.MethodPost, "/api/public/checkout", strings.NewReader(`{"quantity":2}`))
	req.Header.Set("Idempotency-Key", "key-1")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 on body mismatch, got %d", rec.Code)
	}
	if hits != 1 {
		t.Fatalf("second request must not reach the handler")
	}
}

func TestIdempotencyRequiresKeyOnGuardedRoutes(t *testing.T) {
	store := newMemoryStore()
	hits := 0
	router := idempotentRouter(store, &hits)

	req := httptest.NewRequest(http.MethodPost, "/api/public/checkout", strings.NewReader(`{"quantity":1}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without Idempotency-Key, got %d", rec.Code)
	}
	if hits != 0 {
		t.Fatalf("handler must not run")
	}
}

func TestIdempotencyIgnoresUnguardedRoutes(t *testing.T) {
	store := newMemoryStore()
	r := chi.NewRouter()
	r.Use(Idempotency(store, testLogger()))
	hits := 0
	r.Get("/api/public/raffles/{slug}", func(w http.ResponseWriter, req *http.Request) {
		hits++
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/public/raffles/moto", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK || hits != 1 {
		t.Fatalf("GET route should bypass idempotency, got %d hits %d", rec.Code, hits)
	}
	if len(store.values) != 0 {
		t.Fatalf("nothing should be stored for unguarded routes")
	}
}

type fakeLimiter struct {
	count int64
	limit int64
}

func (f *fakeLimiter) FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error) {
	f.count++
	f.limit = limit
	return f.count <= limit, f.count, nil
}

func TestRateLimitBlocksOverLimit(t *testing.T) {
	limiter := &fakeLimiter{}
	cfg := config.RateLimitConfig{PublicWindow: time.Minute, PublicLimit: 2}
	handler := RateLimit(limiter, cfg, testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/public/raffles/moto", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d should pass, got %d", i+1, rec.Code)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/public/raffles/moto", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 got %d", rec.Code)
	}
}
