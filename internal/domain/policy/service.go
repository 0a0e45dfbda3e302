package policy

import (
	"context"

	"github.com/cmlabs-hris/talent-backend-go/internal/domain/employee"
)

type PolicyEngine interface {
	DecisionMakerFor(ctx context.Context, companyID string) (*string, error)
	IsManualPolicy(ctx context.Context, companyID string) (bool, error)
	ValidateOrgCompleteness(ctx context.Context, companyID string) (ViolationList, error)

	// RequiresProfileReview reports whether a successful enrichment still
	// needs HR review before the profile is approved.
	RequiresProfileReview(e employee.Employee) bool

	// Invalidate drops cached policy for the company after it changes.
	Invalidate(companyID string)
}
