package http

import (
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/talent-backend-go/internal/domain/company"
	"github.com/cmlabs-hris/talent-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/talent-backend-go/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type CompanyHandler interface {
	Register(w http.ResponseWriter, r *http.Request)
	GetByID(w http.ResponseWriter, r *http.Request)
	Activate(w http.ResponseWriter, r *http.Request)
	UpdatePolicy(w http.ResponseWriter, r *http.Request)
	AddDepartment(w http.ResponseWriter, r *http.Request)
	AddTeam(w http.ResponseWriter, r *http.Request)
}

type companyHandlerImpl struct {
	companyService company.CompanyService
}

func NewCompanyHandler(companyService company.CompanyService) CompanyHandler {
	return &companyHandlerImpl{companyService: companyService}
}

// ownCompany resolves {companyId} and checks the HR caller belongs to it.
func ownCompany(w http.ResponseWriter, r *http.Request) (string, bool) {
	claims, ok := claimsFrom(w, r)
	if !ok {
		return "", false
	}
	companyID := chi.URLParam(r, "companyId")
	if companyID != claims.CompanyID {
		response.HandleError(w, user.ErrHRAccessRequired)
		return "", false
	}
	return companyID, true
}

// Register is public: it creates the company together with its first HR
// account.
func (h *companyHandlerImpl) Register(w http.ResponseWriter, r *http.Request) {
	var req company.RegisterCompanyRequest
	if !decodeJSON(w, r, "RegisterCompany", &req) {
		return
	}

	resp, err := h.companyService.Register(r.Context(), req)
	if err != nil {
		slog.Error("RegisterCompany service error", "error", err)
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Company registered successfully", resp)
}

func (h *companyHandlerImpl) GetByID(w http.ResponseWriter, r *http.Request) {
	companyID, ok := ownCompany(w, r)
	if !ok {
		return
	}

	resp, err := h.companyService.GetByID(r.Context(), companyID)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, resp)
}

func (h *companyHandlerImpl) Activate(w http.ResponseWriter, r *http.Request) {
	companyID, ok := ownCompany(w, r)
	if !ok {
		return
	}

	resp, err := h.companyService.Activate(r.Context(), companyID)
	if err != nil {
		slog.Error("ActivateCompany service error", "company_id", companyID, "error", err)
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Company activated", resp)
}

func (h *companyHandlerImpl) UpdatePolicy(w http.ResponseWriter, r *http.Request) {
	companyID, ok := ownCompany(w, r)
	if !ok {
		return
	}
	var req company.UpdatePolicyRequest
	if !decodeJSON(w, r, "UpdatePolicy", &req) {
		return
	}

	resp, err := h.companyService.UpdatePolicy(r.Context(), companyID, req)
	if err != nil {
		slog.Error("UpdatePolicy service error", "company_id", companyID, "error", err)
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Approval policy updated", resp)
}

func (h *companyHandlerImpl) AddDepartment(w http.ResponseWriter, r *http.Request) {
	companyID, ok := ownCompany(w, r)
	if !ok {
		return
	}
	var req company.CreateDepartmentRequest
	if !decodeJSON(w, r, "AddDepartment", &req) {
		return
	}

	resp, err := h.companyService.AddDepartment(r.Context(), companyID, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Created(w, "Department created", resp)
}

func (h *companyHandlerImpl) AddTeam(w http.ResponseWriter, r *http.Request) {
	companyID, ok := ownCompany(w, r)
	if !ok {
		return
	}
	var req company.CreateTeamRequest
	if !decodeJSON(w, r, "AddTeam", &req) {
		return
	}

	resp, err := h.companyService.AddTeam(r.Context(), companyID, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Created(w, "Team created", resp)
}
