// Package identity resolves the calling member from a signed bearer token and
// answers role and permission questions about them.
package identity

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	PermApproveLoans      = "approve_loans"
	PermReviewLoans       = "review_loans"
	PermManageFeatures    = "manage_features"
	PermManageMembers     = "manage_members"
	PermSettleWithdrawals = "settle_withdrawals"
	PermPostContributions = "post_contributions"

	// RoleAdmin holds every permission.
	RoleAdmin = "admin"
)

var (
	ErrUnauthenticated = errors.New("identity: no authenticated user")
	ErrInvalidToken    = errors.New("identity: invalid token")
)

// Provider is what the rest of the service asks about the caller.
type Provider interface {
	CurrentUserID(ctx context.Context) (string, error)
	HasPermission(ctx context.Context, userID, perm string) bool
	HasRole(ctx context.Context, userID, role string) bool
}

type Principal struct {
	UserID      string
	Name        string
	Region      string
	Roles       []string
	Permissions []string
}

type ctxKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(ctxKey{}).(Principal)
	return p, ok && p.UserID != ""
}

type Claims struct {
	Name        string   `json:"name,omitempty"`
	Region      string   `json:"region,omitempty"`
	Roles       []string `json:"roles,omitempty"`
	Permissions []string `json:"perms,omitempty"`
	jwt.RegisteredClaims
}

// JWT verifies HS256 tokens minted by the identity service.
type JWT struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewJWT(secret, issuer string, ttl time.Duration) *JWT {
	return &JWT{secret: []byte(secret), issuer: issuer, ttl: ttl, now: time.Now}
}

// Issue mints a token for p. The service only verifies tokens in production;
// this exists for local tooling and tests.
func (j *JWT) Issue(p Principal) (string, error) {
	now := j.now()
	claims := &Claims{
		Name:        p.Name,
		Region:      p.Region,
		Roles:       p.Roles,
		Permissions: p.Permissions,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    j.issuer,
			Subject:   p.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
}

func (j *JWT) Parse(raw string) (Principal, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.now),
	}
	if j.issuer != "" {
		opts = append(opts, jwt.WithIssuer(j.issuer))
	}
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) { return j.secret, nil }, opts...)
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return Principal{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return Principal{
		UserID:      claims.Subject,
		Name:        claims.Name,
		Region:      claims.Region,
		Roles:       claims.Roles,
		Permissions: claims.Permissions,
	}, nil
}

func (j *JWT) CurrentUserID(ctx context.Context) (string, error) {
	p, ok := FromContext(ctx)
	if !ok {
		return "", ErrUnauthenticated
	}
	return p.UserID, nil
}

// Roles and permissions are only known for the caller; any other user id
// answers false.
func (j *JWT) HasPermission(ctx context.Context, userID, perm string) bool {
	p, ok := FromContext(ctx)
	if !ok || p.UserID != userID {
		return false
	}
	return slices.Contains(p.Roles, RoleAdmin) || slices.Contains(p.Permissions, perm)
}

func (j *JWT) HasRole(ctx context.Context, userID, role string) bool {
	p, ok := FromContext(ctx)
	if !ok || p.UserID != userID {
		return false
	}
	return slices.Contains(p.Roles, role)
}
