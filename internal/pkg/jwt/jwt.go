package jwt

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// Role is the caller's permission level inside one company.
type Role string

const (
	RoleTechnician Role = "technician"
	RoleSupervisor Role = "supervisor"
	RoleAdmin      Role = "admin"
	RoleService    Role = "service"
)

// Claims is the tenant context carried by every authenticated request.
type Claims struct {
	UserID    string
	CompanyID string
	Role      Role
}

var (
	ErrMissingClaims  = errors.New("missing token claims")
	ErrMissingCompany = errors.New("company_id claim is missing or invalid")
)

type Service interface {
	GenerateAccessToken(claims Claims) (token string, expiresAt int64, err error)
	JWTAuth() *jwtauth.JWTAuth
}

type JWTService struct {
	accessTokenExpirationTime time.Duration
	tokenAuth                 *jwtauth.JWTAuth
}

func NewJWTService(secretKey string, accessTokenExpirationTime string) (Service, error) {
	exp, err := time.ParseDuration(accessTokenExpirationTime)
	if err != nil {
		return nil, fmt.Errorf("invalid access token expiration: %w", err)
	}
	return &JWTService{
		accessTokenExpirationTime: exp,
		tokenAuth:                 jwtauth.New("HS256", []byte(secretKey), nil, jwt.WithAcceptableSkew(30*time.Second)),
	}, nil
}

func (j *JWTService) JWTAuth() *jwtauth.JWTAuth {
	return j.tokenAuth
}

func (j *JWTService) GenerateAccessToken(claims Claims) (string, int64, error) {
	expiresAt := time.Now().Add(j.accessTokenExpirationTime).Unix()
	_, tokenString, err := j.tokenAuth.Encode(map[string]interface{}{
		"user_id":    claims.UserID,
		"company_id": claims.CompanyID,
		"role":       string(claims.Role),
		"type":       "access",
		"exp":        expiresAt,
	})
	return tokenString, expiresAt, err
}

// ClaimsFromContext extracts the tenant context placed by jwtauth.Verifier.
func ClaimsFromContext(ctx context.Context) (Claims, error) {
	token, raw, err := jwtauth.FromContext(ctx)
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrMissingClaims, err)
	}
	if token == nil {
		return Claims{}, ErrMissingClaims
	}

	companyID, ok := raw["company_id"].(string)
	if !ok || companyID == "" {
		return Claims{}, ErrMissingCompany
	}
	userID, _ := raw["user_id"].(string)
	role, _ := raw["role"].(string)

	return Claims{UserID: userID, CompanyID: companyID, Role: Role(role)}, nil
}

// HasRole reports whether role meets the minimum level.
func (c Claims) HasRole(min Role) bool {
	return roleRank[c.Role] >= roleRank[min]
}

var roleRank = map[Role]int{
	RoleTechnician: 1,
	RoleSupervisor: 2,
	RoleAdmin:      3,
	RoleService:    3,
}
