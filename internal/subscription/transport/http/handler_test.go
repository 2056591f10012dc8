package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terang55/rainbow-rich-auth-server/internal/auth"
	"github.com/terang55/rainbow-rich-auth-server/internal/subscription"
	"github.com/terang55/rainbow-rich-auth-server/internal/subscription/repository"
	"github.com/terang55/rainbow-rich-auth-server/internal/subscription/service"
	"github.com/terang55/rainbow-rich-auth-server/pkg/hash"
	"github.com/terang55/rainbow-rich-auth-server/pkg/jwt"
)

const (
	signingSecret = "test-signing-secret"
	adminSecret   = "admin-pass"
	tokenSecret   = "license-secret"
)

type testEnv struct {
	router http.Handler
	signer *auth.Signer
	now    time.Time
}

type unavailableStore struct {
	*repository.MemoryStore
}

func (unavailableStore) Get(context.Context, string, string) (*subscription.Record, error) {
	return nil, fmt.Errorf("%w: get: connection reset", subscription.ErrStoreUnavailable)
}

func newTestEnv(t *testing.T, store service.SubscriptionStore) *testEnv {
	t.Helper()
	signer := auth.NewSigner(signingSecret)
	now := time.Now()
	svc := service.NewService(store, time.UTC).WithClock(func() time.Time { return now })
	h := NewSubscriptionHandler(Options{
		Service:            svc,
		Authenticator:      auth.NewAuthenticator(signer, auth.NewMemoryReplayGuard()),
		Localizer:          subscription.NewLocalizer("en"),
		Logger:             slog.New(slog.NewTextHandler(io.Discard, nil)),
		AdminSecretDigest:  hash.Digest(adminSecret),
		LicenseTokenSecret: tokenSecret,
		Products:           []string{"default", "rainbowg"},
	})

	r := chi.NewRouter()
	r.Route("/api/v1", h.Routes)
	return &testEnv{router: r, signer: signer, now: now}
}

type response struct {
	Code          int
	Success       bool                 `json:"success"`
	Status        subscription.Status  `json:"status"`
	Message       string               `json:"message"`
	Expires       string               `json:"expires"`
	LicenseToken  string               `json:"license_token"`
	Errors        []string             `json:"errors"`
	Subscriptions []subscription.Entry `json:"subscriptions"`
	Stats         subscription.Stats   `json:"stats"`
}

func (e *testEnv) post(t *testing.T, path string, body any, lang string) response {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	if lang != "" {
		req.Header.Set("Accept-Language", lang)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)

	var res response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res), rec.Body.String())
	res.Code = rec.Code
	return res
}

func (e *testEnv) signed(t *testing.T, subject string, ts time.Time) map[string]any {
	t.Helper()
	p := map[string]any{
		"subjectId": subject,
		"timestamp": ts.UnixMilli(),
	}
	sig, err := e.signer.Sign(p)
	require.NoError(t, err)
	p["signature"] = sig
	return p
}

func admin(fields map[string]any) map[string]any {
	fields["adminSecret"] = adminSecret
	return fields
}

// today is the service's calendar date plus days.
func (e *testEnv) today(t *testing.T, days int) string {
	t.Helper()
	d, err := subscription.AddDays(subscription.Today(e.now, time.UTC), days)
	require.NoError(t, err)
	return d
}

func TestEndToEnd_SubscribeVerifyCancel(t *testing.T) {
	env := newTestEnv(t, repository.NewMemoryStore())

	res := env.post(t, "/api/v1/default/subscribe", admin(map[string]any{"subjectId": "a@b.com", "durationDays": 30}), "")
	require.Equal(t, http.StatusOK, res.Code)
	assert.True(t, res.Success)
	assert.Equal(t, subscription.StatusCreated, res.Status)
	assert.Equal(t, env.today(t, 30), res.Expires)

	res = env.post(t, "/api/v1/default/verify", env.signed(t, "a@b.com", time.Now()), "")
	require.Equal(t, http.StatusOK, res.Code)
	assert.True(t, res.Success)
	assert.Equal(t, subscription.StatusActive, res.Status)
	assert.Equal(t, env.today(t, 30), res.Expires)
	require.NotEmpty(t, res.LicenseToken)

	claims, err := jwt.ParseLicenseToken(tokenSecret, res.LicenseToken)
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", claims.Subject)
	assert.Equal(t, "default", claims.Product)
	assert.Equal(t, env.today(t, 30), claims.ExpiresOn)

	res = env.post(t, "/api/v1/default/cancel", admin(map[string]any{"subjectId": "a@b.com"}), "")
	require.Equal(t, http.StatusOK, res.Code)
	assert.True(t, res.Success)
	assert.Equal(t, subscription.StatusCancelled, res.Status)

	res = env.post(t, "/api/v1/default/verify", env.signed(t, "a@b.com", time.Now()), "")
	require.Equal(t, http.StatusOK, res.Code)
	assert.False(t, res.Success)
	assert.Equal(t, subscription.StatusNoSubscription, res.Status)
	assert.Equal(t, "No subscription.", res.Message)
	assert.Empty(t, res.Expires)
	assert.Empty(t, res.LicenseToken)
}

func TestRenew_ExtendsAndReportsNotFound(t *testing.T) {
	env := newTestEnv(t, repository.NewMemoryStore())

	res := env.post(t, "/api/v1/rainbowg/renew", admin(map[string]any{"subjectId": "a@b.com", "durationDays": 30}), "")
	require.Equal(t, http.StatusOK, res.Code)
	assert.False(t, res.Success)
	assert.Equal(t, subscription.StatusNotFound, res.Status)

	env.post(t, "/api/v1/rainbowg/subscribe", admin(map[string]any{"subjectId": "a@b.com", "durationDays": 30}), "")
	res = env.post(t, "/api/v1/rainbowg/renew", admin(map[string]any{"subjectId": "a@b.com", "durationDays": 10}), "")
	require.Equal(t, http.StatusOK, res.Code)
	assert.True(t, res.Success)
	assert.Equal(t, subscription.StatusRenewed, res.Status)
	assert.Equal(t, env.today(t, 40), res.Expires)

	res = env.post(t, "/api/v1/default/cancel", admin(map[string]any{"subjectId": "a@b.com"}), "")
	assert.Equal(t, subscription.StatusNotFound, res.Status)
}

func TestVerify_RejectsTamperedSignature(t *testing.T) {
	env := newTestEnv(t, repository.NewMemoryStore())

	p := env.signed(t, "a@b.com", time.Now())
	p["subjectId"] = "evil@b.com"

	res := env.post(t, "/api/v1/default/verify", p, "")
	assert.Equal(t, http.StatusUnauthorized, res.Code)
	assert.Equal(t, subscription.StatusUnauthorized, res.Status)
	assert.False(t, res.Success)
	assert.Empty(t, res.Errors)
}

func TestVerify_RejectsReplay(t *testing.T) {
	env := newTestEnv(t, repository.NewMemoryStore())
	p := env.signed(t, "a@b.com", time.Now())

	res := env.post(t, "/api/v1/default/verify", p, "")
	assert.Equal(t, http.StatusOK, res.Code)

	res = env.post(t, "/api/v1/default/verify", p, "")
	assert.Equal(t, http.StatusUnauthorized, res.Code)
	assert.Equal(t, subscription.StatusUnauthorized, res.Status)
}

func TestVerify_RejectsStaleAndMalformed(t *testing.T) {
	env := newTestEnv(t, repository.NewMemoryStore())

	res := env.post(t, "/api/v1/default/verify", env.signed(t, "a@b.com", time.Now().Add(-10*time.Minute)), "")
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, subscription.StatusInvalid, res.Status)
	assert.Contains(t, res.Errors, "timestamp is outside the allowed window")

	res = env.post(t, "/api/v1/default/verify", map[string]any{"subjectId": "nope"}, "")
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Contains(t, res.Errors, "timestamp is required")
	assert.Contains(t, res.Errors, "signature is required")
	assert.Contains(t, res.Errors, "subjectId must be an email address")
}

func TestAdmin_RejectsBadSecret(t *testing.T) {
	env := newTestEnv(t, repository.NewMemoryStore())

	res := env.post(t, "/api/v1/default/subscribe", map[string]any{
		"subjectId": "a@b.com", "durationDays": 30, "adminSecret": "wrong",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, res.Code)
	assert.Equal(t, subscription.StatusUnauthorized, res.Status)

	res = env.post(t, "/api/v1/default/admin/stats", map[string]any{"adminSecret": "wrong"}, "")
	assert.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestAdmin_ValidationErrors(t *testing.T) {
	env := newTestEnv(t, repository.NewMemoryStore())

	res := env.post(t, "/api/v1/default/subscribe", admin(map[string]any{"subjectId": "a@b.com", "durationDays": 0}), "")
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, subscription.StatusInvalid, res.Status)
	assert.Equal(t, []string{"durationDays is required"}, res.Errors)

	res = env.post(t, "/api/v1/default/subscribe", admin(map[string]any{"subjectId": "a@b.com", "durationDays": 40000}), "")
	assert.Equal(t, http.StatusBadRequest, res.Code)
}

func TestUnknownProduct(t *testing.T) {
	env := newTestEnv(t, repository.NewMemoryStore())

	res := env.post(t, "/api/v1/other/subscribe", admin(map[string]any{"subjectId": "a@b.com", "durationDays": 30}), "")
	assert.Equal(t, http.StatusNotFound, res.Code)
	assert.Equal(t, subscription.StatusUnknownProduct, res.Status)
}

func TestLocalizedMessages(t *testing.T) {
	env := newTestEnv(t, repository.NewMemoryStore())

	res := env.post(t, "/api/v1/default/verify", env.signed(t, "a@b.com", time.Now()), "ko-KR,ko;q=0.9")
	assert.Equal(t, subscription.StatusNoSubscription, res.Status)
	assert.Equal(t, "구독 정보가 없습니다.", res.Message)

	env.post(t, "/api/v1/default/subscribe", admin(map[string]any{"subjectId": "a@b.com", "durationDays": 30}), "")
	res = env.post(t, "/api/v1/default/verify", env.signed(t, "a@b.com", time.Now()), "ko")
	assert.Equal(t, "구독이 유효합니다. 만료일: "+env.today(t, 30), res.Message)
}

func TestListAndStats(t *testing.T) {
	env := newTestEnv(t, repository.NewMemoryStore())

	env.post(t, "/api/v1/default/subscribe", admin(map[string]any{"subjectId": "b@b.com", "durationDays": 30}), "")
	env.post(t, "/api/v1/default/subscribe", admin(map[string]any{"subjectId": "a@b.com", "durationDays": 5}), "")

	res := env.post(t, "/api/v1/default/admin/subscriptions", admin(map[string]any{}), "")
	require.Equal(t, http.StatusOK, res.Code)
	require.Len(t, res.Subscriptions, 2)
	assert.Equal(t, "a@b.com", res.Subscriptions[0].SubjectID)
	assert.Equal(t, subscription.StatusActive, res.Subscriptions[0].Status)

	res = env.post(t, "/api/v1/default/admin/stats", admin(map[string]any{}), "")
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, subscription.Stats{Total: 2, Active: 2}, res.Stats)
}

func TestStoreUnavailable(t *testing.T) {
	env := newTestEnv(t, unavailableStore{repository.NewMemoryStore()})

	res := env.post(t, "/api/v1/default/verify", env.signed(t, "a@b.com", time.Now()), "")
	assert.Equal(t, http.StatusServiceUnavailable, res.Code)
	assert.Equal(t, subscription.StatusError, res.Status)
	assert.NotContains(t, res.Message, "connection reset")
}
