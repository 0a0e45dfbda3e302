package jwt

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/talent-backend-go/internal/domain/user"
	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

const (
	TokenTypeAccess     = "access"
	TokenTypeSSE        = "sse"
	TokenTypeOAuthState = "oauth_state"

	sseTokenTTL   = 5 * time.Minute
	oauthStateTTL = 10 * time.Minute
)

var ErrInvalidClaims = errors.New("invalid token claims")

// Claims is the identity carried by access and SSE tokens.
type Claims struct {
	UserID     string
	Email      string
	CompanyID  string
	EmployeeID *string
	Role       user.Role
}

func (c Claims) IsHR() bool {
	return c.Role == user.RoleHR
}

// IsEmployee reports whether the caller is the given employee.
func (c Claims) IsEmployee(employeeID string) bool {
	return c.EmployeeID != nil && *c.EmployeeID == employeeID
}

type Service interface {
	GenerateAccessToken(claims Claims) (token string, expiresAt int64, err error)
	GenerateSSEToken(claims Claims) (token string, expiresIn int, err error)
	ValidateSSEToken(tokenString string) (Claims, error)
	GenerateOAuthState(employeeID, provider string) (string, error)
	ValidateOAuthState(state, provider string) (employeeID string, err error)
	JWTAuth() *jwtauth.JWTAuth
}

type JWTService struct {
	accessTokenExpirationTime string
	tokenAuth                 *jwtauth.JWTAuth
}

func NewJWTService(secretKey string, accessTokenExpirationTime string) Service {
	return &JWTService{
		accessTokenExpirationTime: accessTokenExpirationTime,
		tokenAuth:                 jwtauth.New("HS256", []byte(secretKey), nil, jwt.WithAcceptableSkew(30*time.Second)),
	}
}

func (j *JWTService) JWTAuth() *jwtauth.JWTAuth {
	return j.tokenAuth
}

func (j *JWTService) GenerateAccessToken(claims Claims) (token string, expiresAt int64, err error) {
	expDuration, err := time.ParseDuration(j.accessTokenExpirationTime)
	if err != nil {
		return "", 0, err
	}
	expiresAt = time.Now().Add(expDuration).Unix()

	_, tokenString, err := j.tokenAuth.Encode(claimsMap(claims, TokenTypeAccess, expiresAt))
	return tokenString, expiresAt, err
}

// GenerateSSEToken issues a short-lived token for EventSource clients, which
// cannot send an Authorization header.
func (j *JWTService) GenerateSSEToken(claims Claims) (token string, expiresIn int, err error) {
	expiresAt := time.Now().Add(sseTokenTTL).Unix()
	_, tokenString, err := j.tokenAuth.Encode(claimsMap(claims, TokenTypeSSE, expiresAt))
	if err != nil {
		return "", 0, err
	}
	return tokenString, int(sseTokenTTL.Seconds()), nil
}

func (j *JWTService) ValidateSSEToken(tokenString string) (Claims, error) {
	token, err := jwtauth.VerifyToken(j.tokenAuth, tokenString)
	if err != nil {
		return Claims{}, err
	}
	claims, err := token.AsMap(context.Background())
	if err != nil {
		return Claims{}, err
	}
	if claims["type"] != TokenTypeSSE {
		return Claims{}, ErrInvalidClaims
	}
	return ParseClaims(claims)
}

// GenerateOAuthState signs the employee and provider into the OAuth state so
// the provider callback, which arrives without a bearer token, can be tied
// back to the employee that started the flow.
func (j *JWTService) GenerateOAuthState(employeeID, provider string) (string, error) {
	_, tokenString, err := j.tokenAuth.Encode(map[string]interface{}{
		"employee_id": employeeID,
		"provider":    provider,
		"type":        TokenTypeOAuthState,
		"exp":         time.Now().Add(oauthStateTTL).Unix(),
	})
	return tokenString, err
}

func (j *JWTService) ValidateOAuthState(state, provider string) (string, error) {
	token, err := jwtauth.VerifyToken(j.tokenAuth, state)
	if err != nil {
		return "", err
	}
	claims, err := token.AsMap(context.Background())
	if err != nil {
		return "", err
	}
	if claims["type"] != TokenTypeOAuthState || claims["provider"] != provider {
		return "", ErrInvalidClaims
	}
	employeeID, ok := claims["employee_id"].(string)
	if !ok || employeeID == "" {
		return "", ErrInvalidClaims
	}
	return employeeID, nil
}

func claimsMap(c Claims, tokenType string, expiresAt int64) map[string]interface{} {
	m := map[string]interface{}{
		"user_id":    c.UserID,
		"email":      c.Email,
		"company_id": c.CompanyID,
		"role":       string(c.Role),
		"type":       tokenType,
		"exp":        expiresAt,
	}
	if c.EmployeeID != nil {
		m["employee_id"] = *c.EmployeeID
	}
	return m
}

// ParseClaims reads the identity claims out of a decoded token map.
func ParseClaims(m map[string]interface{}) (Claims, error) {
	var c Claims
	var ok bool

	if c.UserID, ok = m["user_id"].(string); !ok || c.UserID == "" {
		return Claims{}, fmt.Errorf("%w: user_id", ErrInvalidClaims)
	}
	if c.CompanyID, ok = m["company_id"].(string); !ok || c.CompanyID == "" {
		return Claims{}, fmt.Errorf("%w: company_id", ErrInvalidClaims)
	}
	role, _ := m["role"].(string)
	c.Role = user.Role(role)
	if c.Role != user.RoleHR && c.Role != user.RoleEmployee {
		return Claims{}, fmt.Errorf("%w: role", ErrInvalidClaims)
	}
	c.Email, _ = m["email"].(string)
	if employeeID, ok := m["employee_id"].(string); ok && employeeID != "" {
		c.EmployeeID = &employeeID
	}
	return c, nil
}

// FromContext returns the claims verified by jwtauth for the request.
func FromContext(ctx context.Context) (Claims, error) {
	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return Claims{}, err
	}
	return ParseClaims(claims)
}
