package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripplanner/config"
)

const testJWTSecret = "super-secret-jwt-token-with-at-least-32-characters"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return tok
}

func validClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"sub":   "user-123",
		"email": "traveler@example.com",
		"role":  "authenticated",
		"aud":   "authenticated",
		"exp":   time.Now().Add(time.Hour).Unix(),
	}
}

func TestVerifyToken_Local(t *testing.T) {
	auth := NewSupabaseAuth(config.SupabaseConfig{JWTSecret: testJWTSecret})

	user, err := auth.VerifyToken(context.Background(), signToken(t, testJWTSecret, validClaims()))
	require.NoError(t, err)
	assert.Equal(t, "user-123", user.ID)
	assert.Equal(t, "traveler@example.com", user.Email)
}

func TestVerifyToken_LocalRejects(t *testing.T) {
	auth := NewSupabaseAuth(config.SupabaseConfig{JWTSecret: testJWTSecret})

	expired := validClaims()
	expired["exp"] = time.Now().Add(-time.Minute).Unix()

	wrongAud := validClaims()
	wrongAud["aud"] = "anon"

	noExp := validClaims()
	delete(noExp, "exp")

	noSub := validClaims()
	delete(noSub, "sub")

	cases := map[string]string{
		"expired":      signToken(t, testJWTSecret, expired),
		"wrong secret": signToken(t, "another-secret-another-secret-another", validClaims()),
		"audience":     signToken(t, testJWTSecret, wrongAud),
		"no expiry":    signToken(t, testJWTSecret, noExp),
		"no subject":   signToken(t, testJWTSecret, noSub),
		"garbage":      "not-a-jwt",
		"empty":        "",
	}
	for name, tok := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := auth.VerifyToken(context.Background(), tok)
			assert.ErrorIs(t, err, ErrUnauthorized)
		})
	}
}

func TestVerifyToken_Remote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/user", r.URL.Path)
		assert.Equal(t, "anon-key", r.Header.Get("apikey"))
		if r.Header.Get("Authorization") != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"msg":"invalid JWT"}`))
			return
		}
		_, _ = w.Write([]byte(`{"id":"user-9","email":"r@example.com","role":"authenticated"}`))
	}))
	defer srv.Close()

	auth := NewSupabaseAuth(config.SupabaseConfig{URL: srv.URL + "/", AnonKey: "anon-key"})

	user, err := auth.VerifyToken(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, "user-9", user.ID)

	_, err = auth.VerifyToken(context.Background(), "bad")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestVerifyToken_NotConfigured(t *testing.T) {
	_, err := NewSupabaseAuth(config.SupabaseConfig{}).VerifyToken(context.Background(), "anything")
	assert.ErrorIs(t, err, ErrNotConfigured)
}
