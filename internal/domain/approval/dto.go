package approval

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/cmlabs-hris/talent-backend-go/internal/pkg/validator"
)

type CreateRequest struct {
	Payload json.RawMessage `json:"payload"`
}

type ResolveRequest struct {
	Status string  `json:"status"`
	Notes  *string `json:"notes,omitempty"`
}

func (r *ResolveRequest) Validate() error {
	var errs validator.ValidationErrors
	r.Status = strings.TrimSpace(r.Status)
	if r.Status != string(StatusApproved) && r.Status != string(StatusRejected) {
		errs = append(errs, validator.ValidationError{Field: "status", Message: "status must be approved or rejected"})
	}
	if r.Notes != nil {
		errs.MaxLength("notes", *r.Notes, 2000)
	}
	return errs.Err()
}

type RequestResponse struct {
	ID           string          `json:"id"`
	Type         string          `json:"type"`
	EmployeeID   string          `json:"employee_id"`
	Payload      json.RawMessage `json:"payload"`
	Status       string          `json:"status"`
	ApproverRole string          `json:"approver_role"`
	ApproverID   *string         `json:"approver_id,omitempty"`
	Notes        *string         `json:"notes,omitempty"`
	ResolvedBy   *string         `json:"resolved_by,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	ResolvedAt   *time.Time      `json:"resolved_at,omitempty"`
}

func ToResponse(r Request) RequestResponse {
	return RequestResponse{
		ID:           r.ID,
		Type:         string(r.Type),
		EmployeeID:   r.EmployeeID,
		Payload:      r.Payload,
		Status:       string(r.Status),
		ApproverRole: string(r.ApproverRole),
		ApproverID:   r.ApproverID,
		Notes:        r.Notes,
		ResolvedBy:   r.ResolvedBy,
		CreatedAt:    r.CreatedAt,
		ResolvedAt:   r.ResolvedAt,
	}
}

// PendingRequests partitions pending work by request type. Every type key is
// present, possibly with an empty list.
type PendingRequests map[RequestType][]RequestResponse

func NewPendingRequests(requests []Request) PendingRequests {
	pending := make(PendingRequests, len(AllTypes))
	for _, t := range AllTypes {
		pending[t] = []RequestResponse{}
	}
	for _, r := range requests {
		pending[r.Type] = append(pending[r.Type], ToResponse(r))
	}
	return pending
}
