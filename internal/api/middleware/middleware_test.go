package middleware_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	mw "github.com/vlyzo/wardrobe-api/internal/api/middleware"
	"github.com/vlyzo/wardrobe-api/internal/identity"
)

// --- Mock Resolver ---

type mockResolver struct {
	userID uuid.UUID
	err    error
	tokens []string
}

func (m *mockResolver) Resolve(_ context.Context, token string) (uuid.UUID, error) {
	m.tokens = append(m.tokens, token)
	if m.err != nil {
		return uuid.Nil, m.err
	}
	return m.userID, nil
}

// --- Mock Cache ---

type mockCache struct {
	counter int64
	err     error
}

func (m *mockCache) Ping(_ context.Context) error { return nil }
func (m *mockCache) SetJobStatus(_ context.Context, _, _ uuid.UUID, _ string, _ time.Duration) error {
	return nil
}
func (m *mockCache) GetJobStatus(_ context.Context, _, _ uuid.UUID) (string, bool, error) {
	return "", false, nil
}
func (m *mockCache) IncrWithExpiry(_ context.Context, _ string, _ time.Duration) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	m.counter++
	return m.counter, nil
}

// --- helpers ---

func okHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}
}

func errBody(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	msg, _ := body["error"].(string)
	return msg
}

// ========================================
// Auth Middleware Tests
// ========================================

func TestAuth_MissingAuthHeader(t *testing.T) {
	resolver := &mockResolver{userID: uuid.New()}
	handler := mw.NewAuth(resolver).Authenticate(okHandler())

	req := httptest.NewRequest("POST", "/process-image", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Missing authorization header", errBody(t, w))
	assert.Empty(t, resolver.tokens, "resolver must not be called without a token")
}

func TestAuth_InvalidBearerFormat(t *testing.T) {
	handler := mw.NewAuth(&mockResolver{userID: uuid.New()}).Authenticate(okHandler())

	req := httptest.NewRequest("POST", "/process-image", nil)
	req.Header.Set("Authorization", "Basic abc123")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuth_InvalidToken(t *testing.T) {
	handler := mw.NewAuth(&mockResolver{err: identity.ErrInvalidToken}).Authenticate(okHandler())

	req := httptest.NewRequest("POST", "/process-image", nil)
	req.Header.Set("Authorization", "Bearer expired-token")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid or expired token", errBody(t, w))
}

func TestAuth_ResolverUnreachable(t *testing.T) {
	handler := mw.NewAuth(&mockResolver{err: identity.ErrAuthUnreachable}).Authenticate(okHandler())

	req := httptest.NewRequest("POST", "/process-image", nil)
	req.Header.Set("Authorization", "Bearer some-token")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestAuth_ValidToken(t *testing.T) {
	userID := uuid.New()
	resolver := &mockResolver{userID: userID}

	var gotUserID uuid.UUID
	var gotOK bool
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID, gotOK = mw.GetUserID(r)
		w.WriteHeader(http.StatusOK)
	})
	handler := mw.NewAuth(resolver).Authenticate(inner)

	req := httptest.NewRequest("POST", "/process-image", nil)
	req.Header.Set("Authorization", "Bearer user-jwt-token")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, gotOK)
	assert.Equal(t, userID, gotUserID)
	require.Len(t, resolver.tokens, 1)
	assert.Equal(t, "user-jwt-token", resolver.tokens[0])
}

// ========================================
// CORS Middleware Tests
// ========================================

func TestCORS_PreflightShortCircuits(t *testing.T) {
	var innerCalled bool
	inner := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		innerCalled = true
		w.WriteHeader(http.StatusOK)
	})
	handler := mw.CORS(inner)

	req := httptest.NewRequest(http.MethodOptions, "/process-image", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.False(t, innerCalled)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "authorization")
}

func TestCORS_PassesThroughOtherMethods(t *testing.T) {
	handler := mw.CORS(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/process-image", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

// ========================================
// Rate Limit Middleware Tests
// ========================================

func rateLimitedReq(userID uuid.UUID) *http.Request {
	req := httptest.NewRequest("POST", "/process-image", nil)
	return req.WithContext(mw.SetUserID(req.Context(), userID))
}

func TestRateLimit_AllowsUnderLimit(t *testing.T) {
	rl := mw.NewRateLimit(&mockCache{counter: 0}, 60)
	handler := rl.Limit(okHandler())

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, rateLimitedReq(uuid.New()))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "60", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "59", w.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("X-RateLimit-Reset"))
}

func TestRateLimit_RejectsOverLimit(t *testing.T) {
	rl := mw.NewRateLimit(&mockCache{counter: 60}, 60) // next incr returns 61
	handler := rl.Limit(okHandler())

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, rateLimitedReq(uuid.New()))

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
	assert.Equal(t, "Too many requests", errBody(t, w))
}

func TestRateLimit_RedisDown_FailsOpen(t *testing.T) {
	rl := mw.NewRateLimit(&mockCache{err: context.DeadlineExceeded}, 60)
	handler := rl.Limit(okHandler())

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, rateLimitedReq(uuid.New()))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimit_NoUserID_PassThrough(t *testing.T) {
	rl := mw.NewRateLimit(&mockCache{}, 60)
	handler := rl.Limit(okHandler())

	req := httptest.NewRequest("POST", "/process-image", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

// ========================================
// Recovery Middleware Tests
// ========================================

func TestRecovery_CatchesPanic(t *testing.T) {
	panicking := http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		panic("something went wrong")
	})
	handler := mw.Recovery(panicking)

	req := httptest.NewRequest("POST", "/process-image", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "An unexpected error occurred", errBody(t, w))
}

func TestRecovery_NoPanic(t *testing.T) {
	handler := mw.Recovery(okHandler())

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

// ========================================
// Logging Middleware Tests
// ========================================

func TestLogger_PreservesStatus(t *testing.T) {
	handler := mw.Logger(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusTeapot, w.Code)
}
