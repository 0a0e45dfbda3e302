package approval

import (
	"context"
	"encoding/json"
)

type RouterService interface {
	Create(ctx context.Context, employeeID string, requestType RequestType, payload json.RawMessage) (RequestResponse, error)
	Resolve(ctx context.Context, requestType RequestType, requestID string, resolver Approver, req ResolveRequest) (RequestResponse, error)
	ListPending(ctx context.Context, approver Approver) (PendingRequests, error)
	ListPendingForHR(ctx context.Context, hrEmail string) (PendingRequests, error)
	ListPendingForDecisionMaker(ctx context.Context, employeeID string) (PendingRequests, error)
	ListByEmployee(ctx context.Context, employeeID string) ([]RequestResponse, error)
}
