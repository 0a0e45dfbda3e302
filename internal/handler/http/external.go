package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/cmlabs-hris/talent-backend-go/internal/domain/connection"
	"github.com/cmlabs-hris/talent-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/talent-backend-go/internal/domain/enrichment"
	"github.com/cmlabs-hris/talent-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/talent-backend-go/internal/handler/http/response"
	"github.com/cmlabs-hris/talent-backend-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/talent-backend-go/internal/pkg/oauth"
	"github.com/go-chi/chi/v5"
)

type ExternalHandler interface {
	Status(w http.ResponseWriter, r *http.Request)
	Collect(w http.ResponseWriter, r *http.Request)
	Disconnect(w http.ResponseWriter, r *http.Request)
	Enrichment(w http.ResponseWriter, r *http.Request)
	Authorize(w http.ResponseWriter, r *http.Request)
	Callback(w http.ResponseWriter, r *http.Request)
}

type externalHandlerImpl struct {
	jwtService        jwt.Service
	employeeService   employee.EmployeeService
	connectionService connection.ConnectionService
	enrichmentService enrichment.EnrichmentService
	providers         map[connection.Provider]oauth.ProviderService
	frontendURL       string
}

func NewExternalHandler(
	jwtService jwt.Service,
	employeeService employee.EmployeeService,
	connectionService connection.ConnectionService,
	enrichmentService enrichment.EnrichmentService,
	providers []oauth.ProviderService,
	frontendURL string,
) ExternalHandler {
	h := &externalHandlerImpl{
		jwtService:        jwtService,
		employeeService:   employeeService,
		connectionService: connectionService,
		enrichmentService: enrichmentService,
		providers:         make(map[connection.Provider]oauth.ProviderService, len(providers)),
		frontendURL:       frontendURL,
	}
	for _, p := range providers {
		h.providers[p.Provider()] = p
	}
	return h
}

// employeeFromPath authorizes the caller against {employeeId}.
func (h *externalHandlerImpl) employeeFromPath(w http.ResponseWriter, r *http.Request) (employee.Employee, bool) {
	claims, ok := claimsFrom(w, r)
	if !ok {
		return employee.Employee{}, false
	}
	e, err := authorizeEmployee(r.Context(), h.employeeService, claims, chi.URLParam(r, "employeeId"))
	if err != nil {
		response.HandleError(w, err)
		return employee.Employee{}, false
	}
	return e, true
}

func (h *externalHandlerImpl) Status(w http.ResponseWriter, r *http.Request) {
	e, ok := h.employeeFromPath(w, r)
	if !ok {
		return
	}

	status, err := h.connectionService.GetStatus(r.Context(), e.ID)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, connection.StatusResponse{EmployeeID: e.ID, Status: status})
}

// Collect runs enrichment for the current connection snapshot, waiting at
// most the enrichment timeout. Failures of the external calls are reported
// in the body, not as an HTTP error.
func (h *externalHandlerImpl) Collect(w http.ResponseWriter, r *http.Request) {
	e, ok := h.employeeFromPath(w, r)
	if !ok {
		return
	}

	result, err := h.enrichmentService.TryTrigger(r.Context(), e.ID)
	if err != nil {
		slog.Error("Collect service error", "employee_id", e.ID, "error", err)
		response.HandleError(w, err)
		return
	}

	resp := enrichment.CollectResponse{Triggered: result.Triggered, Reason: string(result.Reason)}
	if result.Result != nil {
		status, err := h.connectionService.GetStatus(r.Context(), e.ID)
		if err != nil {
			response.HandleError(w, err)
			return
		}
		resp.ResultView = enrichment.NewResultView(*result.Result, status)
	} else {
		view, err := h.enrichmentService.GetLatest(r.Context(), e.ID)
		if err != nil && !errors.Is(err, enrichment.ErrResultNotFound) {
			response.HandleError(w, err)
			return
		}
		resp.ResultView = view
	}
	response.Success(w, resp)
}

func (h *externalHandlerImpl) Disconnect(w http.ResponseWriter, r *http.Request) {
	e, ok := h.employeeFromPath(w, r)
	if !ok {
		return
	}
	provider, err := connection.ParseProvider(chi.URLParam(r, "provider"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	if err := h.connectionService.SetDisconnected(r.Context(), e.ID, provider); err != nil {
		slog.Error("Disconnect service error", "employee_id", e.ID, "provider", provider, "error", err)
		response.HandleError(w, err)
		return
	}

	status, err := h.connectionService.GetStatus(r.Context(), e.ID)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Provider disconnected", connection.StatusResponse{EmployeeID: e.ID, Status: status})
}

func (h *externalHandlerImpl) Enrichment(w http.ResponseWriter, r *http.Request) {
	e, ok := h.employeeFromPath(w, r)
	if !ok {
		return
	}

	view, err := h.enrichmentService.GetLatest(r.Context(), e.ID)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, view)
}

func (h *externalHandlerImpl) provider(r *http.Request) (oauth.ProviderService, error) {
	p, err := connection.ParseProvider(chi.URLParam(r, "provider"))
	if err != nil {
		return nil, err
	}
	svc, ok := h.providers[p]
	if !ok {
		return nil, connection.ErrProviderDisabled
	}
	return svc, nil
}

// Authorize returns the provider consent URL for the calling employee.
func (h *externalHandlerImpl) Authorize(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(w, r)
	if !ok {
		return
	}
	if claims.EmployeeID == nil {
		response.HandleError(w, user.ErrEmployeeAccessDenied)
		return
	}
	svc, err := h.provider(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	state, err := h.jwtService.GenerateOAuthState(*claims.EmployeeID, string(svc.Provider()))
	if err != nil {
		slog.Error("Authorize state error", "error", err)
		response.InternalServerError(w, "Failed to start authorization")
		return
	}

	response.Success(w, connection.AuthorizeResponse{
		Provider: string(svc.Provider()),
		URL:      svc.RedirectURL(state),
	})
}

// Callback completes the OAuth flow and sends the browser back to the
// frontend. The employee is recovered from the signed state.
func (h *externalHandlerImpl) Callback(w http.ResponseWriter, r *http.Request) {
	providerName := chi.URLParam(r, "provider")
	redirect := func(query string) {
		http.Redirect(w, r, fmt.Sprintf("%s/profile/connections?provider=%s&%s", h.frontendURL, url.QueryEscape(providerName), query), http.StatusTemporaryRedirect)
	}
	redirectWithError := func(errorMsg string) {
		redirect("error=" + url.QueryEscape(errorMsg))
	}

	svc, err := h.provider(r)
	if err != nil {
		slog.Error("OAuth callback provider error", "provider", providerName, "error", err)
		redirectWithError("provider_unavailable")
		return
	}

	if errorValue := r.URL.Query().Get("error"); errorValue != "" {
		slog.Error("Error in OAuth callback", "provider", providerName, "error", errorValue)
		redirectWithError(errorValue)
		return
	}

	employeeID, err := h.jwtService.ValidateOAuthState(r.URL.Query().Get("state"), string(svc.Provider()))
	if err != nil {
		slog.Error("OAuth state invalid", "provider", providerName, "error", err)
		redirectWithError("state_invalid")
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		redirectWithError("code_empty")
		return
	}

	token, err := svc.Exchange(r.Context(), code)
	if err != nil {
		slog.Error("OAuth exchange failed", "provider", providerName, "employee_id", employeeID, "error", err)
		redirectWithError("token_exchange_failed")
		return
	}

	profile, err := svc.FetchProfile(r.Context(), token)
	if err != nil {
		slog.Error("OAuth profile fetch failed", "provider", providerName, "employee_id", employeeID, "error", err)
		redirectWithError("profile_fetch_failed")
		return
	}

	if err := h.connectionService.SetConnected(r.Context(), employeeID, svc.Provider(), connection.Grant{
		AccessToken: token.AccessToken,
		Profile:     profile,
	}); err != nil {
		slog.Error("SetConnected failed", "provider", providerName, "employee_id", employeeID, "error", err)
		redirectWithError("connect_failed")
		return
	}

	slog.Info("External account connected", "provider", providerName, "employee_id", employeeID)
	redirect("connected=true")
}
