package middleware

import (
	"net/http"

	"github.com/cmlabs-hris/talent-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/talent-backend-go/internal/handler/http/response"
	"github.com/cmlabs-hris/talent-backend-go/internal/pkg/jwt"
)

// RequireHR requires hr role
func RequireHR(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := jwt.FromContext(r.Context())
		if err != nil || !claims.IsHR() {
			response.HandleError(w, user.ErrHRAccessRequired)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RequireEmployee requires a token bound to an employee record.
func RequireEmployee(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := jwt.FromContext(r.Context())
		if err != nil || claims.EmployeeID == nil {
			response.HandleError(w, user.ErrEmployeeAccessDenied)
			return
		}

		next.ServeHTTP(w, r)
	})
}
