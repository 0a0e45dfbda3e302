package profile

import (
	"context"

	"github.com/cmlabs-hris/talent-backend-go/internal/domain/employee"
)

type ProfileService interface {
	StartEnrichment(ctx context.Context, employeeID string) (employee.Employee, error)
	AbortEnrichment(ctx context.Context, employeeID string) error
	CompleteEnrichment(ctx context.Context, employeeID string) (employee.Employee, error)

	Approve(ctx context.Context, employeeID string, reviewer Reviewer, notes *string) (employee.EmployeeResponse, error)
	Reject(ctx context.Context, employeeID string, reviewer Reviewer, reason string) (employee.EmployeeResponse, error)
	ListPending(ctx context.Context, hrEmail string) ([]employee.EmployeeResponse, error)
	Resubmit(ctx context.Context, employeeID string) (employee.EmployeeResponse, error)
}
