package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"tripplanner/config"
)

// ErrUnauthorized is returned for any token that cannot be verified.
var ErrUnauthorized = errors.New("unauthorized")

// AuthUser is the caller identified by a Supabase session token.
type AuthUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type supabaseClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// SupabaseAuth verifies session tokens locally with the project's JWT secret,
// or remotely against GoTrue when no secret is configured.
type SupabaseAuth struct {
	url        string
	anonKey    string
	secret     []byte
	httpClient *http.Client
}

func NewSupabaseAuth(cfg config.SupabaseConfig) *SupabaseAuth {
	a := &SupabaseAuth{
		url:        strings.TrimRight(cfg.URL, "/"),
		anonKey:    cfg.AnonKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	if cfg.JWTSecret != "" {
		a.secret = []byte(cfg.JWTSecret)
	}
	return a
}

func (a *SupabaseAuth) VerifyToken(ctx context.Context, token string) (*AuthUser, error) {
	if token == "" {
		return nil, ErrUnauthorized
	}
	if a.secret != nil {
		return a.verifyLocal(token)
	}
	if a.url != "" {
		return a.verifyRemote(ctx, token)
	}
	return nil, ErrNotConfigured
}

func (a *SupabaseAuth) verifyLocal(token string) (*AuthUser, error) {
	claims := &supabaseClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience("authenticated"),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrUnauthorized)
	}
	return &AuthUser{ID: claims.Subject, Email: claims.Email, Role: claims.Role}, nil
}

func (a *SupabaseAuth) verifyRemote(ctx context.Context, token string) (*AuthUser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.url+"/auth/v1/user", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", a.anonKey)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("supabase auth: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, ErrUnauthorized
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("supabase auth: status %d", resp.StatusCode)
	}

	var user AuthUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("decode supabase user: %w", err)
	}
	if user.ID == "" {
		return nil, ErrUnauthorized
	}
	return &user, nil
}
