package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/cmlabs-hris/talent-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/talent-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/talent-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/talent-backend-go/internal/handler/http/response"
	"github.com/cmlabs-hris/talent-backend-go/internal/pkg/jwt"
)

// claimsFrom writes a 401 and returns false when the request carries no
// usable identity.
func claimsFrom(w http.ResponseWriter, r *http.Request) (jwt.Claims, bool) {
	claims, err := jwt.FromContext(r.Context())
	if err != nil {
		response.HandleError(w, auth.ErrInvalidToken)
		return jwt.Claims{}, false
	}
	return claims, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, op string, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		slog.Error(op+" decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return false
	}
	return true
}

// authorizeEmployee lets the employee act on their own record and HR act on
// employees of their own company.
func authorizeEmployee(ctx context.Context, employees employee.EmployeeService, claims jwt.Claims, employeeID string) (employee.Employee, error) {
	e, err := employees.GetByID(ctx, employeeID)
	if err != nil {
		return employee.Employee{}, err
	}
	if claims.IsEmployee(employeeID) {
		return e, nil
	}
	if claims.IsHR() && claims.CompanyID == e.CompanyID {
		return e, nil
	}
	return employee.Employee{}, user.ErrEmployeeAccessDenied
}

// getIntQueryParam gets an int query parameter with a default value
func getIntQueryParam(r *http.Request, key string, defaultVal int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}
	intVal, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return intVal
}
