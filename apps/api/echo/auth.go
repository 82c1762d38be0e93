package echoapi

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/njitshpe/shpe-app-sub007/core"
)

const (
	contextTokenKey = "userToken"

	RoleAuthenticated = "authenticated"
	RoleService       = "service_role"
	RoleOfficer       = "officer"
	RoleAdmin         = "admin"
)

func newJWTConfig(secret string) middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    []byte(secret),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    contextTokenKey,
		Claims:        new(Claims),
	}
}

type AppMetadata struct {
	Provider string   `json:"provider,omitempty"`
	Roles    []string `json:"roles,omitempty"`
}

// Claims represents the authorization claims of the access tokens issued by the auth backend.
type Claims struct {
	jwt.StandardClaims
	Email       string      `json:"email,omitempty"`
	Role        string      `json:"role,omitempty"`
	AppMetadata AppMetadata `json:"app_metadata"`
}

// IsOfficer reports whether the claims allow running officer-only operations.
func (c Claims) IsOfficer() bool {
	if c.Role == RoleService {
		return true
	}
	for _, r := range c.AppMetadata.Roles {
		if r == RoleOfficer || r == RoleAdmin {
			return true
		}
	}
	return false
}

func (c Claims) person() core.Person {
	return core.Person{ID: c.Subject, Email: c.Email}
}

// NewClaims returns the claims of an access token for the given member.
func NewClaims(memberID, email string, ttl time.Duration, roles ...string) *Claims {
	now := time.Now()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Subject:   memberID,
			Audience:  RoleAuthenticated,
			ExpiresAt: now.Add(ttl).Unix(),
			IssuedAt:  now.Unix(),
		},
		Email:       email,
		Role:        RoleAuthenticated,
		AppMetadata: AppMetadata{Provider: "email", Roles: roles},
	}
}

// GenerateToken generates a signed JWT token string representing the Claims.
func GenerateToken(claims *Claims, secret string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(contextTokenKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

// getContextMemberID returns the authenticated member. Service tokens do not name one.
func getContextMemberID(ctx echo.Context) (string, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", errUnauthorized
	}
	return claims.Subject, nil
}
