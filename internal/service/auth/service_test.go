package auth

import (
	"context"
	"testing"

	"github.com/cmlabs-hris/talent-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/talent-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/talent-backend-go/internal/fixtures/memtest"
	"github.com/cmlabs-hris/talent-backend-go/internal/pkg/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (auth.AuthService, jwt.Service) {
	t.Helper()
	hash, err := HashPassword("password123")
	require.NoError(t, err)

	employeeID := "emp-1"
	users := memtest.NewUserRepository(
		user.User{CompanyID: "company-1", Email: "hr@academy.test", PasswordHash: hash, Role: user.RoleHR},
		user.User{CompanyID: "company-1", EmployeeID: &employeeID, Email: "andi@academy.test", PasswordHash: hash, Role: user.RoleEmployee},
		user.User{CompanyID: "company-1", Email: "nopass@academy.test", Role: user.RoleEmployee},
	)
	jwtService := jwt.NewJWTService("test-secret", "1h")
	return NewAuthService(users, jwtService), jwtService
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("HR login", func(t *testing.T) {
		svc, jwtService := newTestService(t)

		resp, err := svc.Login(ctx, auth.LoginRequest{Email: "hr@academy.test", Password: "password123"})

		require.NoError(t, err)
		assert.Equal(t, "Bearer", resp.TokenType)
		assert.Equal(t, "hr", resp.Role)
		assert.Equal(t, "company-1", resp.CompanyID)
		assert.Nil(t, resp.EmployeeID)

		token, err := jwtService.JWTAuth().Decode(resp.AccessToken)
		require.NoError(t, err)
		claims, err := token.AsMap(ctx)
		require.NoError(t, err)
		parsed, err := jwt.ParseClaims(claims)
		require.NoError(t, err)
		assert.True(t, parsed.IsHR())
	})

	t.Run("employee login carries the employee id", func(t *testing.T) {
		svc, _ := newTestService(t)

		resp, err := svc.Login(ctx, auth.LoginRequest{Email: "andi@academy.test", Password: "password123"})

		require.NoError(t, err)
		require.NotNil(t, resp.EmployeeID)
		assert.Equal(t, "emp-1", *resp.EmployeeID)
	})

	t.Run("wrong password", func(t *testing.T) {
		svc, _ := newTestService(t)

		_, err := svc.Login(ctx, auth.LoginRequest{Email: "hr@academy.test", Password: "wrong-password"})

		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		svc, _ := newTestService(t)

		_, err := svc.Login(ctx, auth.LoginRequest{Email: "ghost@academy.test", Password: "password123"})

		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	})

	t.Run("account without password", func(t *testing.T) {
		svc, _ := newTestService(t)

		_, err := svc.Login(ctx, auth.LoginRequest{Email: "nopass@academy.test", Password: "password123"})

		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	})
}
