package approval

import (
	"context"
	"time"
)

type RequestRepository interface {
	Create(ctx context.Context, request Request) (Request, error)
	GetByID(ctx context.Context, id string) (Request, error)

	// Resolve updates a pending request in a single statement. It returns
	// ErrRequestAlreadyProcessed when the row is no longer pending.
	Resolve(ctx context.Context, id string, status Status, notes *string, resolvedBy string, resolvedAt time.Time) (Request, error)

	ListPendingForHR(ctx context.Context, companyID string) ([]Request, error)
	ListPendingForDecisionMaker(ctx context.Context, companyID, decisionMakerID string) ([]Request, error)
	ListByEmployeeID(ctx context.Context, employeeID string) ([]Request, error)
}
