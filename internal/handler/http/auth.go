package http

import (
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/talent-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/talent-backend-go/internal/handler/http/response"
	"github.com/cmlabs-hris/talent-backend-go/internal/pkg/jwt"
)

type AuthHandler interface {
	Login(w http.ResponseWriter, r *http.Request)
	SSEToken(w http.ResponseWriter, r *http.Request)
}

type AuthHandlerImpl struct {
	jwtService  jwt.Service
	authService auth.AuthService
}

func NewAuthHandler(jwtService jwt.Service, authService auth.AuthService) AuthHandler {
	return &AuthHandlerImpl{
		jwtService:  jwtService,
		authService: authService,
	}
}

// Login implements AuthHandler.
func (a *AuthHandlerImpl) Login(w http.ResponseWriter, r *http.Request) {
	var loginReq auth.LoginRequest
	if !decodeJSON(w, r, "Login", &loginReq) {
		return
	}

	// Validate DTO
	if err := loginReq.Validate(); err != nil {
		slog.Error("Login validate error", "error", err)
		response.HandleError(w, err)
		return
	}

	tokenResponse, err := a.authService.Login(r.Context(), loginReq)
	if err != nil {
		slog.Error("Login service error", "error", err)
		response.HandleError(w, err)
		return
	}

	slog.Info("User logged in successfully")
	response.Created(w, "User logged in successfully", tokenResponse)
}

// SSEToken issues a short-lived token for the event stream, since
// EventSource cannot send an Authorization header.
func (a *AuthHandlerImpl) SSEToken(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(w, r)
	if !ok {
		return
	}

	token, expiresIn, err := a.jwtService.GenerateSSEToken(claims)
	if err != nil {
		slog.Error("SSEToken generate error", "error", err)
		response.InternalServerError(w, "Failed to generate SSE token")
		return
	}

	response.Success(w, auth.SSETokenResponse{
		Token:     token,
		ExpiresIn: expiresIn,
	})
}
