// Package auth resolves the optional caller identity from a bearer JWT.
// Token issuance belongs to the identity service; Issue exists for tooling
// and tests.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Shivanand-hulikatti/workspace-booking/internal/model"
	"github.com/golang-jwt/jwt/v4"
)

// RoleAdmin marks tokens allowed to act on other actors' reservations.
const RoleAdmin = "admin"

// Claims is the token payload.
type Claims struct {
	Role   string `json:"role,omitempty"`
	Active *bool  `json:"active,omitempty"`
	jwt.RegisteredClaims
}

// Authenticator verifies HS256 tokens.
type Authenticator struct {
	secret []byte
}

// New constructs an Authenticator for secret.
func New(secret string) *Authenticator {
	return &Authenticator{secret: []byte(secret)}
}

// Issue signs a token for actor valid for ttl.
func (a *Authenticator) Issue(actor model.Actor, ttl time.Duration) (string, error) {
	now := time.Now()
	role := "user"
	if actor.IsAdmin {
		role = RoleAdmin
	}
	active := actor.Active
	claims := Claims{
		Role:   role,
		Active: &active,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(actor.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// Parse validates token and returns the actor it names. Deactivated actors
// are rejected.
func (a *Authenticator) Parse(token string) (*model.Actor, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrUnauthenticated, err)
	}

	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 {
		return nil, fmt.Errorf("%w: token does not contain a valid 'sub' claim", model.ErrUnauthenticated)
	}
	if claims.Active != nil && !*claims.Active {
		return nil, fmt.Errorf("%w: inactive user", model.ErrUnauthenticated)
	}
	return &model.Actor{ID: id, IsAdmin: claims.Role == RoleAdmin, Active: true}, nil
}

type ctxKey int

const (
	actorKey ctxKey = iota
	tokenErrKey
)

// WithActor returns ctx carrying actor.
func WithActor(ctx context.Context, actor *model.Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// ActorFrom returns the request's actor, or nil for anonymous callers.
func ActorFrom(ctx context.Context) *model.Actor {
	actor, _ := ctx.Value(actorKey).(*model.Actor)
	return actor
}

// Middleware attaches the actor named by an optional bearer token. Requests
// without a token, or with a bad one, continue anonymously; RequireActor
// rejects them later where identity is mandatory.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			next.ServeHTTP(w, r)
			return
		}
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			token, ok = strings.CutPrefix(header, "bearer ")
		}
		var (
			actor *model.Actor
			err   error
		)
		if ok {
			actor, err = a.Parse(strings.TrimSpace(token))
		} else {
			err = fmt.Errorf("%w: malformed authorization header", model.ErrUnauthenticated)
		}

		ctx := r.Context()
		if err != nil {
			ctx = context.WithValue(ctx, tokenErrKey, err)
		} else {
			ctx = WithActor(ctx, actor)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireActor responds 401 unless the request carries a valid actor.
func RequireActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ActorFrom(r.Context()) == nil {
			unauthenticated(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin responds 401 without a valid actor and 403 unless the actor
// is an admin.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor := ActorFrom(r.Context())
		if actor == nil {
			unauthenticated(w, r)
			return
		}
		if !actor.IsAdmin {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			_ = json.NewEncoder(w).Encode(model.ErrorResponse{Error: "admin access required"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func unauthenticated(w http.ResponseWriter, r *http.Request) {
	msg := "not authenticated"
	if _, bad := r.Context().Value(tokenErrKey).(error); bad {
		msg = "could not validate credentials"
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(model.ErrorResponse{Error: msg})
}
