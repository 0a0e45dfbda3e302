package company

import "time"

type Company struct {
	ID                         string
	Name                       string
	Username                   string
	Status                     Status
	LearningPathApprovalPolicy ApprovalPolicy
	DecisionMakerID            *string
	Departments                []Department
	Teams                      []Team
	CreatedAt                  time.Time
	UpdatedAt                  time.Time
}

type Status string

const (
	StatusPending Status = "pending"
	StatusActive  Status = "active"
)

// ApprovalPolicy decides who approves learning-path-governed requests.
type ApprovalPolicy string

const (
	ApprovalPolicyAuto   ApprovalPolicy = "auto"
	ApprovalPolicyManual ApprovalPolicy = "manual"
)

// EventPolicyUpdated is published after a company's approval policy changes.
const EventPolicyUpdated = "company.policy_updated"

func (p ApprovalPolicy) IsValid() bool {
	return p == ApprovalPolicyAuto || p == ApprovalPolicyManual
}

type Department struct {
	ID        string
	CompanyID string
	Name      string
	CreatedAt time.Time
}

type Team struct {
	ID           string
	CompanyID    string
	DepartmentID *string
	Name         string
	CreatedAt    time.Time
}
