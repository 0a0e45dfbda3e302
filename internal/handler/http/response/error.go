package response

import (
	"errors"
	"net/http"

	"github.com/cmlabs-hris/talent-backend-go/internal/domain/approval"
	"github.com/cmlabs-hris/talent-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/talent-backend-go/internal/domain/company"
	"github.com/cmlabs-hris/talent-backend-go/internal/domain/connection"
	"github.com/cmlabs-hris/talent-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/talent-backend-go/internal/domain/enrichment"
	"github.com/cmlabs-hris/talent-backend-go/internal/domain/policy"
	"github.com/cmlabs-hris/talent-backend-go/internal/domain/profile"
	"github.com/cmlabs-hris/talent-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/talent-backend-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	var violations policy.ViolationList
	if errors.As(err, &violations) {
		PolicyViolation(w, "Organization is incomplete", violations)
		return
	}

	switch {
	// Auth domain errors
	case errors.Is(err, auth.ErrInvalidCredentials):
		Unauthorized(w, err.Error())
	case errors.Is(err, auth.ErrTokenExpired):
		Unauthorized(w, "Token expired")
	case errors.Is(err, auth.ErrInvalidToken):
		Unauthorized(w, "Invalid token")

	// User domain errors
	case errors.Is(err, user.ErrUserNotFound):
		NotFound(w, "User not found")
	case errors.Is(err, user.ErrUserEmailExists):
		Conflict(w, "User email already exists")
	case errors.Is(err, user.ErrHRAccessRequired):
		Forbidden(w, "HR access required")
	case errors.Is(err, user.ErrEmployeeAccessDenied):
		Forbidden(w, "Access to another employee's data denied")

	// Company domain errors
	case errors.Is(err, company.ErrCompanyNotFound):
		NotFound(w, "Company not found")
	case errors.Is(err, company.ErrCompanyUsernameExists):
		Conflict(w, "Company username already exists")
	case errors.Is(err, company.ErrDepartmentNotFound):
		NotFound(w, "Department not found")
	case errors.Is(err, company.ErrTeamNotFound):
		NotFound(w, "Team not found")
	case errors.Is(err, company.ErrDuplicateUnitName):
		Conflict(w, err.Error())
	case errors.Is(err, company.ErrUnknownUnitReference):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, company.ErrCompanyAlreadyActive):
		Conflict(w, "Company is already active")

	// Employee domain errors
	case errors.Is(err, employee.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")
	case errors.Is(err, employee.ErrEmailExists):
		Conflict(w, "Email already registered in this company")
	case errors.Is(err, employee.ErrInvalidEmployeeType),
		errors.Is(err, employee.ErrInvalidManagerType):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, employee.ErrManagedUnitNotFound):
		NotFound(w, "Managed department or team not found")
	case errors.Is(err, employee.ErrEmployeeCompanyMismatch):
		Forbidden(w, "Employee does not belong to this company")
	case errors.Is(err, employee.ErrStatusTransitionFailed):
		Conflict(w, "Profile status changed concurrently")

	// Profile lifecycle errors
	case errors.Is(err, profile.ErrProfileNotPendingApproval):
		Conflict(w, "Profile already processed")
	case errors.Is(err, profile.ErrProfileNotRejected):
		Conflict(w, err.Error())
	case errors.Is(err, profile.ErrResubmitRequired):
		Conflict(w, err.Error())

	// External connections
	case errors.Is(err, connection.ErrInvalidProvider):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, connection.ErrProviderNotConnected):
		BadRequest(w, "GitHub must be connected before collecting", nil)
	case errors.Is(err, connection.ErrProviderDisabled):
		NotFound(w, err.Error())
	case errors.Is(err, connection.ErrInvalidOAuthState):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, connection.ErrConnectionFailed):
		BadGateway(w, err.Error())

	// Enrichment
	case errors.Is(err, enrichment.ErrResultNotFound):
		NotFound(w, "No enrichment result yet")
	case errors.Is(err, enrichment.ErrCollectFailed),
		errors.Is(err, enrichment.ErrEnrichmentFailed),
		errors.Is(err, enrichment.ErrEmptyEnrichment):
		BadGateway(w, err.Error())

	// Approval requests
	case errors.Is(err, approval.ErrRequestNotFound):
		NotFound(w, "Request not found")
	case errors.Is(err, approval.ErrRequestAlreadyProcessed):
		Conflict(w, "Request already processed")
	case errors.Is(err, approval.ErrInvalidRequestType),
		errors.Is(err, approval.ErrInvalidPayload),
		errors.Is(err, approval.ErrRequestTypeMismatch):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, approval.ErrNotRequestApprover),
		errors.Is(err, approval.ErrNotDecisionMaker):
		Forbidden(w, err.Error())

	// Default
	default:
		InternalServerError(w, "An unexpected error occurred")
	}
}
