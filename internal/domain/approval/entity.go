package approval

import (
	"encoding/json"
	"time"
)

type RequestType string

const (
	TypeTraining          RequestType = "training"
	TypeSkillVerification RequestType = "skill_verification"
	TypeSelfLearning      RequestType = "self_learning"
	TypeExtraAttempt      RequestType = "extra_attempt"
)

// AllTypes is the fixed partition order of pending listings.
var AllTypes = []RequestType{TypeTraining, TypeSkillVerification, TypeSelfLearning, TypeExtraAttempt}

func ParseRequestType(s string) (RequestType, error) {
	for _, t := range AllTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", ErrInvalidRequestType
}

// IsLearningPathGoverned reports whether the company approval policy applies.
// Extra attempts always go to HR.
func (t RequestType) IsLearningPathGoverned() bool {
	switch t {
	case TypeTraining, TypeSkillVerification, TypeSelfLearning:
		return true
	}
	return false
}

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

type ApproverRole string

const (
	ApproverHR            ApproverRole = "hr"
	ApproverDecisionMaker ApproverRole = "decision_maker"
)

type Request struct {
	ID           string
	Type         RequestType
	EmployeeID   string
	CompanyID    string
	Payload      json.RawMessage
	Status       Status
	ApproverRole ApproverRole
	ApproverID   *string
	Notes        *string
	ResolvedBy   *string
	CreatedAt    time.Time
	ResolvedAt   *time.Time
}

// Approver identifies who is asking to list or resolve requests. HR approvers
// act for the whole company; a decision maker only for requests addressed to
// their employee id.
type Approver struct {
	Role       ApproverRole
	CompanyID  string
	EmployeeID *string
	UserID     string
}

// CanResolve reports whether a is the addressee of r.
func (a Approver) CanResolve(r Request) bool {
	if a.CompanyID != r.CompanyID || a.Role != r.ApproverRole {
		return false
	}
	if a.Role == ApproverDecisionMaker {
		return a.EmployeeID != nil && r.ApproverID != nil && *a.EmployeeID == *r.ApproverID
	}
	return true
}

// ResolvedByID is the identity recorded on a resolved request.
func (a Approver) ResolvedByID() string {
	if a.EmployeeID != nil {
		return *a.EmployeeID
	}
	return a.UserID
}
