package auth

import (
	"strings"

	"github.com/cmlabs-hris/talent-backend-go/internal/pkg/validator"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *LoginRequest) Validate() error {
	var errs validator.ValidationErrors

	r.Email = strings.TrimSpace(strings.ToLower(r.Email))
	if !validator.IsValidEmail(r.Email) {
		errs = append(errs, validator.ValidationError{Field: "email", Message: "email must be a valid email address"})
	}
	errs.Required("password", r.Password)

	return errs.Err()
}

type TokenResponse struct {
	AccessToken string  `json:"access_token"`
	TokenType   string  `json:"token_type"`
	ExpiresAt   int64   `json:"expires_at"`
	UserID      string  `json:"user_id"`
	EmployeeID  *string `json:"employee_id,omitempty"`
	CompanyID   string  `json:"company_id"`
	Role        string  `json:"role"`
}

type SSETokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
}
