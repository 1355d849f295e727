// Package permission grants runtime permissions as signed HS256 tokens.
//
// A session asks for a set of permissions; the Issuer grants the subset its
// policy allows and returns a token listing them. Later requests present the
// token and Verify checks that it carries the permission they need.
package permission

import (
	"context"
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"

	"github.com/ECHOzdjd/iSpot/internal/domain"
)

// DefaultTTL is used when Issuer is built with a zero ttl.
const DefaultTTL = time.Hour

// Grant is the outcome of one permission request. Granted is true when at
// least one requested permission was allowed.
type Grant struct {
	Token       string              `json:"token,omitempty"`
	Granted     bool                `json:"granted"`
	Permissions []domain.Permission `json:"permissions"`
	ExpiresAt   time.Time           `json:"expires_at"`
}

// Has reports whether p is among the granted permissions.
func (g Grant) Has(p domain.Permission) bool {
	for _, have := range g.Permissions {
		if have == p {
			return true
		}
	}
	return false
}

type claims struct {
	Permissions []domain.Permission `json:"perms"`
	jwt.StandardClaims
}

// Issuer signs and checks permission tokens.
type Issuer struct {
	key       []byte
	ttl       time.Duration
	grantable map[domain.Permission]bool
	now       func() time.Time
}

// NewIssuer returns an Issuer that will grant only the permissions listed in
// grantable.
func NewIssuer(key []byte, ttl time.Duration, grantable []domain.Permission) *Issuer {
	if ttl == 0 {
		ttl = DefaultTTL
	}
	g := make(map[domain.Permission]bool, len(grantable))
	for _, p := range grantable {
		g[p] = true
	}
	return &Issuer{key: key, ttl: ttl, grantable: g, now: time.Now}
}

// Request grants the allowed subset of perms. Unknown permission names are a
// validation error; a request the policy refuses entirely is not an error and
// yields a Grant with Granted false.
func (i *Issuer) Request(_ context.Context, perms []domain.Permission) (Grant, error) {
	granted := make([]domain.Permission, 0, len(perms))
	seen := make(map[domain.Permission]bool, len(perms))
	for _, p := range perms {
		if !known(p) {
			return Grant{}, fmt.Errorf("permission.Issuer.Request: unknown permission %q: %w", p, domain.ErrValidation)
		}
		if i.grantable[p] && !seen[p] {
			granted = append(granted, p)
			seen[p] = true
		}
	}
	if len(granted) == 0 {
		return Grant{Permissions: granted}, nil
	}

	now := i.now()
	exp := now.Add(i.ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Permissions: granted,
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  now.Unix(),
			ExpiresAt: exp.Unix(),
		},
	})
	signed, err := token.SignedString(i.key)
	if err != nil {
		return Grant{}, fmt.Errorf("permission.Issuer.Request: %w", err)
	}
	return Grant{Token: signed, Granted: true, Permissions: granted, ExpiresAt: exp.UTC().Truncate(time.Second)}, nil
}

// Verify returns nil if token is valid and carries p. Any other outcome is
// reported as domain.ErrPermissionDenied.
func (i *Issuer) Verify(token string, p domain.Permission) error {
	var c claims
	parsed, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return i.key, nil
	})
	if err != nil || !parsed.Valid {
		return fmt.Errorf("permission.Issuer.Verify: %v: %w", err, domain.ErrPermissionDenied)
	}
	for _, have := range c.Permissions {
		if have == p {
			return nil
		}
	}
	return fmt.Errorf("permission.Issuer.Verify: %s not granted: %w", p, domain.ErrPermissionDenied)
}

func known(p domain.Permission) bool {
	for _, k := range domain.LocationPermissions {
		if k == p {
			return true
		}
	}
	return false
}
