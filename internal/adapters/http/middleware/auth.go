package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	domainAccount "bulkmail/internal/domain/account"
)

// contextKey is an unexported type for context keys in this package.
type contextKey string

const sessionContextKey contextKey = "session"

// DefaultTokenExpiry is the lifetime of an issued bearer token.
const DefaultTokenExpiry = 7 * 24 * time.Hour

const tokenIssuer = "bulkmail"

// Token verification errors.
var (
	ErrNoToken      = errors.New("not authorized, no token")
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("invalid token")
	ErrNoSecret     = errors.New("jwt secret is required")
)

// Session is the identity carried by a verified bearer token.
type Session struct {
	AccountID string
	Email     string
	Role      string
	ExpiresAt time.Time
}

// Claims are the JWT claims issued at login. Subject holds the account id.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HS256 bearer tokens.
type TokenIssuer struct {
	key    []byte
	expiry time.Duration
	now    func() time.Time
}

// NewTokenIssuer creates an issuer for secret. A non-positive expiry selects DefaultTokenExpiry.
// PRE: secret is non-empty
// POST: Returns an issuer or ErrNoSecret
func NewTokenIssuer(secret string, expiry time.Duration) (*TokenIssuer, error) {
	if secret == "" {
		return nil, ErrNoSecret
	}
	if expiry <= 0 {
		expiry = DefaultTokenExpiry
	}
	return &TokenIssuer{key: []byte(secret), expiry: expiry, now: time.Now}, nil
}

// Issue signs a token for the given account.
// POST: Returns a compact JWS valid for the configured expiry
func (ti *TokenIssuer) Issue(accountID, email, role string) (string, error) {
	now := ti.now()
	claims := Claims{
		Email: email,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ti.expiry)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ti.key)
}

// Verify parses a token and returns its session.
// POST: Returns ErrTokenExpired or ErrTokenInvalid on failure
func (ti *TokenIssuer) Verify(token string) (Session, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ti.key, nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithTimeFunc(ti.now), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Session{}, ErrTokenExpired
		}
		return Session{}, ErrTokenInvalid
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return Session{}, ErrTokenInvalid
	}
	return Session{
		AccountID: claims.Subject,
		Email:     claims.Email,
		Role:      claims.Role,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// AccountLookup confirms a token's account still exists.
type AccountLookup interface {
	GetByID(ctx context.Context, id string) (domainAccount.Account, error)
}

// bearerToken extracts the token from an "Authorization: Bearer <token>" header.
func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// RequireAuth returns middleware that admits only requests carrying a valid bearer token.
// When accounts is non-nil the token's account must still exist, so recreating
// an account invalidates its outstanding tokens.
func RequireAuth(issuer *TokenIssuer, accounts AccountLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				writeAuthError(w, http.StatusUnauthorized, ErrNoToken.Error())
				return
			}
			session, err := issuer.Verify(token)
			if err != nil {
				slog.Info("auth_event", "event", "token_rejected", "reason", err.Error(), "path", r.URL.Path)
				writeAuthError(w, http.StatusUnauthorized, err.Error())
				return
			}
			if accounts != nil {
				acct, err := accounts.GetByID(r.Context(), session.AccountID)
				if err != nil {
					if !errors.Is(err, domainAccount.ErrNotFound) {
						slog.Error("auth_event", "event", "account_lookup_failed", "account_id", session.AccountID, "error", err)
					}
					writeAuthError(w, http.StatusUnauthorized, "user not found")
					return
				}
				session.Email = acct.Email
				session.Role = acct.Role
			}
			next.ServeHTTP(w, r.WithContext(ContextWithSession(r.Context(), session)))
		})
	}
}

// RequireRole returns middleware that blocks sessions without one of the specified roles.
// It must run inside RequireAuth.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	roleSet := make(map[string]bool, len(roles))
	for _, r := range roles {
		roleSet[r] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, ok := GetSessionFromContext(r.Context())
			if !ok {
				writeAuthError(w, http.StatusUnauthorized, ErrNoToken.Error())
				return
			}
			if !roleSet[session.Role] {
				writeAuthError(w, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetSessionFromContext extracts the session from the request context.
func GetSessionFromContext(ctx context.Context) (Session, bool) {
	session, ok := ctx.Value(sessionContextKey).(Session)
	return session, ok
}

// ContextWithSession returns a context with the given session set.
func ContextWithSession(ctx context.Context, sess Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, sess)
}

func writeAuthError(w http.ResponseWriter, status int, message string) {
	kind := "unauthorized"
	if status == http.StatusForbidden {
		kind = "forbidden"
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"message": message,
		"kind":    kind,
	})
}
