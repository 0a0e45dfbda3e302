package http

import (
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/talent-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/talent-backend-go/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type EmployeeHandler interface {
	Create(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	GetByID(w http.ResponseWriter, r *http.Request)
}

type employeeHandlerImpl struct {
	employeeService employee.EmployeeService
}

func NewEmployeeHandler(employeeService employee.EmployeeService) EmployeeHandler {
	return &employeeHandlerImpl{employeeService: employeeService}
}

// Create adds an employee to the HR caller's company.
func (h *employeeHandlerImpl) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(w, r)
	if !ok {
		return
	}
	var req employee.CreateEmployeeRequest
	if !decodeJSON(w, r, "CreateEmployee", &req) {
		return
	}
	req.CompanyID = claims.CompanyID

	resp, err := h.employeeService.Create(r.Context(), req)
	if err != nil {
		slog.Error("CreateEmployee service error", "error", err)
		response.HandleError(w, err)
		return
	}
	response.Created(w, "Employee created", resp)
}

func (h *employeeHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(w, r)
	if !ok {
		return
	}

	resp, err := h.employeeService.ListByCompany(r.Context(), claims.CompanyID)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMeta(w, resp, &response.Meta{TotalItems: int64(len(resp))})
}

func (h *employeeHandlerImpl) GetByID(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(w, r)
	if !ok {
		return
	}

	e, err := authorizeEmployee(r.Context(), h.employeeService, claims, chi.URLParam(r, "employeeId"))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, employee.ToResponse(e))
}
