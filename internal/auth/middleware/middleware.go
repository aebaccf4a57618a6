package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/mind-engage/mindengage-exams/internal/metrics"
	"github.com/mind-engage/mindengage-exams/internal/rbac"
)

const (
	issuer       = "mindengage-exams"
	maxLoginBody = 4 << 10
)

var (
	ErrBadCredentials = errors.New("invalid credentials")
	ErrBadToken       = errors.New("invalid token")
)

type AuthService struct {
	hmac []byte
	ttl  time.Duration
	now  func() time.Time
}

func NewAuthService(secret string, ttl time.Duration) *AuthService {
	if ttl <= 0 {
		ttl = 8 * time.Hour
	}
	return &AuthService{hmac: []byte(secret), ttl: ttl, now: time.Now}
}

type Claims struct {
	Kind Kind   `json:"kind"`
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// IssueJWT signs an access token for id and returns it with its expiry.
func (a *AuthService) IssueJWT(id Identity) (string, time.Time, error) {
	now := a.now()
	exp := now.Add(a.ttl)
	claims := &Claims{
		Kind: id.Kind,
		Name: id.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   id.Subject(),
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(a.hmac)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Parse validates the token and returns the identity it carries.
func (a *AuthService) Parse(tokenStr string) (Identity, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return a.hmac, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil || !token.Valid {
		return Identity{}, fmt.Errorf("%w: %v", ErrBadToken, err)
	}
	c, _ := token.Claims.(*Claims)
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || !c.Kind.Valid() {
		return Identity{}, ErrBadToken
	}
	return Identity{Kind: c.Kind, ID: id, Name: c.Name}, nil
}

// Authenticator checks credentials against the account store.
type Authenticator interface {
	Authenticate(ctx context.Context, kind Kind, id int64, password string) (Identity, error)
}

// POST /auth/login  { "kind": "student|instructor", "id": 123, "password": "..." }
func LoginHandler(a *AuthService, authn Authenticator, log *slog.Logger) http.HandlerFunc {
	type out struct {
		AccessToken string    `json:"access_token"`
		ExpiresAt   time.Time `json:"expires_at"`
		Kind        Kind      `json:"kind"`
		ID          int64     `json:"id"`
		Name        string    `json:"name"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Kind     Kind   `json:"kind"`
			ID       int64  `json:"id"`
			Password string `json:"password"`
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxLoginBody)
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if !req.Kind.Valid() || req.ID <= 0 || req.Password == "" {
			http.Error(w, "kind, id and password are required", http.StatusBadRequest)
			return
		}
		id, err := authn.Authenticate(r.Context(), req.Kind, req.ID, req.Password)
		if err != nil {
			if errors.Is(err, ErrBadCredentials) {
				metrics.Logins.WithLabelValues(string(req.Kind), "rejected").Inc()
				http.Error(w, "invalid credentials", http.StatusUnauthorized)
				return
			}
			metrics.Logins.WithLabelValues(string(req.Kind), "error").Inc()
			log.Error("login failed", "kind", req.Kind, "id", req.ID, "err", err)
			http.Error(w, "login unavailable", http.StatusServiceUnavailable)
			return
		}
		tok, exp, err := a.IssueJWT(id)
		if err != nil {
			log.Error("issue token", "err", err)
			http.Error(w, "issue token", http.StatusInternalServerError)
			return
		}
		metrics.Logins.WithLabelValues(string(req.Kind), "ok").Inc()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(out{AccessToken: tok, ExpiresAt: exp, Kind: id.Kind, ID: id.ID, Name: id.Name})
	}
}

// JWTMiddleware puts the token's identity and role into the request context.
func JWTMiddleware(a *AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := r.Header.Get("Authorization")
			if !strings.HasPrefix(h, "Bearer ") {
				http.Error(w, "missing bearer", http.StatusUnauthorized)
				return
			}
			id, err := a.Parse(strings.TrimPrefix(h, "Bearer "))
			if err != nil {
				http.Error(w, "bad token", http.StatusUnauthorized)
				return
			}
			ctx := WithIdentity(r.Context(), id)
			ctx = rbac.WithRole(ctx, string(id.Kind))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
