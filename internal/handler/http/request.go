package http

import (
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/talent-backend-go/internal/domain/approval"
	"github.com/cmlabs-hris/talent-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/talent-backend-go/internal/handler/http/response"
	"github.com/cmlabs-hris/talent-backend-go/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
)

type RequestHandler interface {
	Create(w http.ResponseWriter, r *http.Request)
	PendingForHR(w http.ResponseWriter, r *http.Request)
	PendingForDecisionMaker(w http.ResponseWriter, r *http.Request)
	Resolve(w http.ResponseWriter, r *http.Request)
	My(w http.ResponseWriter, r *http.Request)
}

type requestHandlerImpl struct {
	routerService approval.RouterService
}

func NewRequestHandler(routerService approval.RouterService) RequestHandler {
	return &requestHandlerImpl{routerService: routerService}
}

func requestTypeParam(w http.ResponseWriter, r *http.Request) (approval.RequestType, bool) {
	t, err := approval.ParseRequestType(chi.URLParam(r, "type"))
	if err != nil {
		response.HandleError(w, err)
		return "", false
	}
	return t, true
}

// approverFrom maps the caller to the approver identity it resolves as: HR
// users act for their company, employees as the decision maker.
func approverFrom(claims jwt.Claims) approval.Approver {
	if claims.IsHR() {
		return approval.Approver{Role: approval.ApproverHR, CompanyID: claims.CompanyID, UserID: claims.UserID}
	}
	return approval.Approver{
		Role:       approval.ApproverDecisionMaker,
		CompanyID:  claims.CompanyID,
		EmployeeID: claims.EmployeeID,
		UserID:     claims.UserID,
	}
}

// Create files a request on behalf of the calling employee.
func (h *requestHandlerImpl) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(w, r)
	if !ok {
		return
	}
	requestType, ok := requestTypeParam(w, r)
	if !ok {
		return
	}
	// POST and PUT share the /requests/{type}/{id} pattern; on create the id
	// is the requesting employee.
	employeeID := chi.URLParam(r, "id")
	if !claims.IsEmployee(employeeID) {
		response.HandleError(w, user.ErrEmployeeAccessDenied)
		return
	}
	var req approval.CreateRequest
	if !decodeJSON(w, r, "CreateRequest", &req) {
		return
	}

	created, err := h.routerService.Create(r.Context(), employeeID, requestType, req.Payload)
	if err != nil {
		slog.Error("CreateRequest service error", "employee_id", employeeID, "type", requestType, "error", err)
		response.HandleError(w, err)
		return
	}
	response.Created(w, "Request submitted", created)
}

func (h *requestHandlerImpl) PendingForHR(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(w, r)
	if !ok {
		return
	}
	hrEmail, ok := hrEmailParam(w, r, claims)
	if !ok {
		return
	}

	pending, err := h.routerService.ListPendingForHR(r.Context(), hrEmail)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, pending)
}

func (h *requestHandlerImpl) PendingForDecisionMaker(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(w, r)
	if !ok {
		return
	}
	employeeID := chi.URLParam(r, "employeeId")
	if !claims.IsEmployee(employeeID) {
		response.HandleError(w, user.ErrEmployeeAccessDenied)
		return
	}

	pending, err := h.routerService.ListPendingForDecisionMaker(r.Context(), employeeID)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, pending)
}

func (h *requestHandlerImpl) Resolve(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(w, r)
	if !ok {
		return
	}
	requestType, ok := requestTypeParam(w, r)
	if !ok {
		return
	}
	var req approval.ResolveRequest
	if !decodeJSON(w, r, "ResolveRequest", &req) {
		return
	}
	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	requestID := chi.URLParam(r, "id")
	resolved, err := h.routerService.Resolve(r.Context(), requestType, requestID, approverFrom(claims), req)
	if err != nil {
		slog.Error("ResolveRequest service error", "request_id", requestID, "error", err)
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Request "+resolved.Status, resolved)
}

func (h *requestHandlerImpl) My(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(w, r)
	if !ok {
		return
	}
	if claims.EmployeeID == nil {
		response.HandleError(w, user.ErrEmployeeAccessDenied)
		return
	}

	requests, err := h.routerService.ListByEmployee(r.Context(), *claims.EmployeeID)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, requests)
}
