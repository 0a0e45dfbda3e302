package http

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/cmlabs-hris/talent-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/talent-backend-go/internal/domain/profile"
	"github.com/cmlabs-hris/talent-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/talent-backend-go/internal/handler/http/response"
	"github.com/cmlabs-hris/talent-backend-go/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
)

type ProfileApprovalHandler interface {
	Pending(w http.ResponseWriter, r *http.Request)
	Approve(w http.ResponseWriter, r *http.Request)
	Reject(w http.ResponseWriter, r *http.Request)
	Resubmit(w http.ResponseWriter, r *http.Request)
}

type profileApprovalHandlerImpl struct {
	profileService  profile.ProfileService
	employeeService employee.EmployeeService
}

func NewProfileApprovalHandler(profileService profile.ProfileService, employeeService employee.EmployeeService) ProfileApprovalHandler {
	return &profileApprovalHandlerImpl{
		profileService:  profileService,
		employeeService: employeeService,
	}
}

// hrEmailParam returns the ?hrEmail= value, defaulting to the caller. HR may
// only query as themselves.
func hrEmailParam(w http.ResponseWriter, r *http.Request, claims jwt.Claims) (string, bool) {
	hrEmail := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("hrEmail")))
	if hrEmail == "" {
		return claims.Email, true
	}
	if !strings.EqualFold(hrEmail, claims.Email) {
		response.HandleError(w, user.ErrHRAccessRequired)
		return "", false
	}
	return hrEmail, true
}

func reviewerFrom(claims jwt.Claims) profile.Reviewer {
	return profile.Reviewer{UserID: claims.UserID, CompanyID: claims.CompanyID, Email: claims.Email}
}

func (h *profileApprovalHandlerImpl) Pending(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(w, r)
	if !ok {
		return
	}
	hrEmail, ok := hrEmailParam(w, r, claims)
	if !ok {
		return
	}

	pending, err := h.profileService.ListPending(r.Context(), hrEmail)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, pending)
}

func (h *profileApprovalHandlerImpl) Approve(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(w, r)
	if !ok {
		return
	}
	var req profile.ApproveRequest
	if r.ContentLength > 0 && !decodeJSON(w, r, "ApproveProfile", &req) {
		return
	}
	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	employeeID := chi.URLParam(r, "employeeId")
	resp, err := h.profileService.Approve(r.Context(), employeeID, reviewerFrom(claims), req.Notes)
	if err != nil {
		slog.Error("ApproveProfile service error", "employee_id", employeeID, "error", err)
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Profile approved", resp)
}

func (h *profileApprovalHandlerImpl) Reject(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(w, r)
	if !ok {
		return
	}
	var req profile.RejectRequest
	if !decodeJSON(w, r, "RejectProfile", &req) {
		return
	}
	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	employeeID := chi.URLParam(r, "employeeId")
	resp, err := h.profileService.Reject(r.Context(), employeeID, reviewerFrom(claims), req.Reason)
	if err != nil {
		slog.Error("RejectProfile service error", "employee_id", employeeID, "error", err)
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Profile rejected", resp)
}

func (h *profileApprovalHandlerImpl) Resubmit(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(w, r)
	if !ok {
		return
	}
	e, err := authorizeEmployee(r.Context(), h.employeeService, claims, chi.URLParam(r, "employeeId"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	resp, err := h.profileService.Resubmit(r.Context(), e.ID)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Profile resubmitted", resp)
}
