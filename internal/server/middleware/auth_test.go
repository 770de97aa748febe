package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testTokenValidator is a test implementation of TokenValidator for unit tests.
type testTokenValidator struct {
	validTokens map[string]uuid.UUID
}

func newTestTokenValidator() *testTokenValidator {
	return &testTokenValidator{
		validTokens: make(map[string]uuid.UUID),
	}
}

func (v *testTokenValidator) addValidToken(token string, clientID uuid.UUID) {
	v.validTokens[token] = clientID
}

func (v *testTokenValidator) ValidateToken(tokenString string) (ClientIDGetter, error) {
	if tokenString == "" {
		return nil, fmt.Errorf("token string is empty")
	}
	clientID, ok := v.validTokens[tokenString]
	if !ok {
		return nil, fmt.Errorf("invalid token")
	}
	return &testClaims{clientID: clientID}, nil
}

type testClaims struct {
	clientID uuid.UUID
}

func (c *testClaims) GetClientID() uuid.UUID {
	return c.clientID
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	validator := newTestTokenValidator()
	clientID := uuid.New()

	token := "valid-test-token-123"
	validator.addValidToken(token, clientID)

	// Create handler that checks context
	handlerCalled := false
	var contextClientID uuid.UUID
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
		extracted, err := GetClientID(r)
		require.NoError(t, err)
		contextClientID = extracted
		w.WriteHeader(http.StatusOK)
	})

	wrappedHandler := AuthMiddleware(validator)(handler)

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()

	wrappedHandler.ServeHTTP(w, req)

	assert.True(t, handlerCalled, "handler should be called")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, clientID, contextClientID)
}

func TestAuthMiddleware_CaseInsensitiveBearer(t *testing.T) {
	validator := newTestTokenValidator()
	clientID := uuid.New()
	validator.addValidToken("tok", clientID)

	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	wrappedHandler := AuthMiddleware(validator)(handler)

	for _, prefix := range []string{"Bearer", "bearer", "BeArEr"} {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("Authorization", prefix+" tok")
		w := httptest.NewRecorder()

		wrappedHandler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code, "prefix %q should be accepted", prefix)
	}
}

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	validator := newTestTokenValidator()

	handlerCalled := false
	handler := http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		handlerCalled = true
	})

	wrappedHandler := AuthMiddleware(validator)(handler)

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	// No Authorization header
	w := httptest.NewRecorder()

	wrappedHandler.ServeHTTP(w, req)

	assert.False(t, handlerCalled, "handler should not be called")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Unauthorized")
}

func TestAuthMiddleware_InvalidFormat(t *testing.T) {
	validator := newTestTokenValidator()

	tests := []struct {
		name       string
		authHeader string
	}{
		{"missing Bearer prefix", "token123"},
		{"empty token", "Bearer "},
		{"only Bearer", "Bearer"},
		{"wrong scheme", "Basic dXNlcjpwYXNz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handlerCalled := false
			handler := http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
				handlerCalled = true
			})

			wrappedHandler := AuthMiddleware(validator)(handler)

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			req.Header.Set("Authorization", tt.authHeader)
			w := httptest.NewRecorder()

			wrappedHandler.ServeHTTP(w, req)

			assert.False(t, handlerCalled, "handler should not be called")
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestAuthMiddleware_InvalidToken(t *testing.T) {
	validator := newTestTokenValidator()

	tests := []struct {
		name  string
		token string
	}{
		{"unknown token", "eyJhbGciOiJIUzI1NiJ9.unknown.sig"},
		{"malformed token", "not.a.valid.jwt.token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handlerCalled := false
			handler := http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
				handlerCalled = true
			})

			wrappedHandler := AuthMiddleware(validator)(handler)

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			req.Header.Set("Authorization", "Bearer "+tt.token)
			w := httptest.NewRecorder()

			wrappedHandler.ServeHTTP(w, req)

			assert.False(t, handlerCalled, "handler should not be called")
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), "Unauthorized")
		})
	}
}

func TestGetClientID_Success(t *testing.T) {
	clientID := uuid.New()

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req = req.WithContext(context.WithValue(req.Context(), clientIDKey, clientID))

	extracted, err := GetClientID(req)
	require.NoError(t, err)
	assert.Equal(t, clientID, extracted)
}

func TestGetClientID_Missing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	// No client ID in context

	clientID, err := GetClientID(req)
	assert.Error(t, err)
	assert.Equal(t, uuid.Nil, clientID)
	assert.Contains(t, err.Error(), "client ID not found")
}

func TestGetClientID_InvalidType(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	// Wrong type in context
	req = req.WithContext(context.WithValue(req.Context(), clientIDKey, "not-a-uuid"))

	clientID, err := GetClientID(req)
	assert.Error(t, err)
	assert.Equal(t, uuid.Nil, clientID)
}
