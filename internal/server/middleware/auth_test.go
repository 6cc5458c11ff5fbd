package middleware

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func newTestLogger() *slog.Logger {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError + 1})
	return slog.New(handler)
}

func signToken(t *testing.T, subject string, secret string) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

// runAuth sends a request through metadata + auth and reports whether the
// inner handler ran and what user id it saw.
func runAuth(t *testing.T, decorate func(*http.Request)) (*httptest.ResponseRecorder, bool, string) {
	t.Helper()

	var reached bool
	var userID string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		if meta, ok := ReqMetadataFrom(r.Context()); ok {
			userID = meta.UserID
		}
	})
	handler := Chain(inner, RequestMetadataMiddleware(), NewAuthMiddleware(newTestLogger(), testSecret))

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	decorate(req)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec, reached, userID
}

func TestAuthAcceptsCookieToken(t *testing.T) {
	rec, reached, userID := runAuth(t, func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: "session-token", Value: signToken(t, "user-42", testSecret)})
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, reached)
	assert.Equal(t, "user-42", userID)
}

func TestAuthAcceptsBearerToken(t *testing.T) {
	rec, reached, userID := runAuth(t, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+signToken(t, "user-7", testSecret))
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, reached)
	assert.Equal(t, "user-7", userID)
}

func TestAuthRejectsMissingToken(t *testing.T) {
	rec, reached, _ := runAuth(t, func(r *http.Request) {})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, reached)
}

func TestAuthRejectsWrongSecret(t *testing.T) {
	rec, reached, _ := runAuth(t, func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: "session-token", Value: signToken(t, "user-42", "other-secret")})
	})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, reached)
}

func TestAuthRejectsMissingSubject(t *testing.T) {
	rec, reached, _ := runAuth(t, func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: "session-token", Value: signToken(t, "", testSecret)})
	})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, reached)
}
