package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/abdoelngaar-maker/housing-management/internal/domain"
	"github.com/abdoelngaar-maker/housing-management/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

type ctxKey int

const callerKey ctxKey = iota

// Claims is the bearer token payload. Subject is the user id.
type Claims struct {
	jwt.RegisteredClaims
}

// Authenticator resolves the request caller from an HS256 bearer token.
// Role and sector are read from the users table on every request so sector
// reassignment applies immediately.
type Authenticator struct {
	secret []byte
	store  repository.Store
	logger *zap.Logger
}

// NewAuthenticator builds the middleware. An empty secret runs in open dev mode where
// every request acts as a global admin.
func NewAuthenticator(secret string, store repository.Store, logger *zap.Logger) *Authenticator {
	return &Authenticator{secret: []byte(secret), store: store, logger: logger}
}

func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(a.secret) == 0 {
			next.ServeHTTP(w, r.WithContext(withCaller(r.Context(), domain.SystemCaller())))
			return
		}

		raw, ok := bearerToken(r)
		if !ok {
			a.reject(w, r, ResultError, msgUnauthorized)
			return
		}
		claims := &Claims{}
		_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
			return a.secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				a.reject(w, r, ResultTokenExpired, msgTokenExpired)
				return
			}
			a.logger.Debug("invalid bearer token", zap.Error(err))
			a.reject(w, r, ResultError, msgUnauthorized)
			return
		}

		user, err := a.store.Users().GetUser(r.Context(), claims.Subject)
		if err != nil {
			if !errors.Is(err, repository.ErrNotFound) {
				a.logger.Error("failed to load token user", zap.String("user_id", claims.Subject), zap.Error(err))
			}
			a.reject(w, r, ResultError, msgUnauthorized)
			return
		}
		caller := domain.Caller{UserID: user.ID, Role: user.Role, Scope: user.Scope}
		next.ServeHTTP(w, r.WithContext(withCaller(r.Context(), caller)))
	})
}

// IssueToken signs a token for userID valid for ttl.
func (a *Authenticator) IssueToken(userID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

func (a *Authenticator) reject(w http.ResponseWriter, r *http.Request, code int, key string) {
	res := Fail(localize(requestLanguage(r), key))
	res.Code = code
	writeJSON(w, http.StatusUnauthorized, res)
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") {
		return "", false
	}
	tok := strings.TrimSpace(h[7:])
	return tok, tok != ""
}

func withCaller(ctx context.Context, c domain.Caller) context.Context {
	return context.WithValue(ctx, callerKey, c)
}

// callerFrom returns the caller set by the authenticator, or an unprivileged one.
func callerFrom(r *http.Request) domain.Caller {
	if c, ok := r.Context().Value(callerKey).(domain.Caller); ok {
		return c
	}
	return domain.Caller{Role: domain.RoleUser, Scope: domain.SectorScope("none")}
}

// requireAdmin guards sector and user management.
func requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !callerFrom(r).IsAdmin() {
			writeJSON(w, http.StatusForbidden, Fail(localize(requestLanguage(r), msgForbidden)))
			return
		}
		next.ServeHTTP(w, r)
	})
}
