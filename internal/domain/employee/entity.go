package employee

import "time"

type Employee struct {
	ID                     string
	CompanyID              string
	FullName               string
	Email                  string
	EmployeeType           EmployeeType
	DepartmentID           *string
	TeamID                 *string
	IsManager              bool
	ManagerType            *ManagerType
	ManagerOfID            *string
	ProfileStatus          ProfileStatus
	EnrichmentEpoch        int
	ProfileStatusChangedAt time.Time
	ReviewNotes            *string
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// ProfileStatus is the lifecycle state of an employee's enriched profile.
type ProfileStatus string

const (
	ProfileStatusUnenriched      ProfileStatus = "unenriched"
	ProfileStatusEnriching       ProfileStatus = "enriching"
	ProfileStatusEnriched        ProfileStatus = "enriched"
	ProfileStatusPendingApproval ProfileStatus = "pending_approval"
	ProfileStatusApproved        ProfileStatus = "approved"
	ProfileStatusRejected        ProfileStatus = "rejected"
)

type EmployeeType string

const (
	EmployeeTypeRegular            EmployeeType = "regular"
	EmployeeTypeInternalInstructor EmployeeType = "internal_instructor"
	EmployeeTypeExternalInstructor EmployeeType = "external_instructor"
)

func (t EmployeeType) IsValid() bool {
	switch t {
	case EmployeeTypeRegular, EmployeeTypeInternalInstructor, EmployeeTypeExternalInstructor:
		return true
	}
	return false
}

type ManagerType string

const (
	ManagerTypeDepartment ManagerType = "department"
	ManagerTypeTeam       ManagerType = "team"
)

// Manages reports whether e is the assigned manager of the given unit.
func (e Employee) Manages(managerType ManagerType, unitID string) bool {
	return e.IsManager &&
		e.ManagerType != nil && *e.ManagerType == managerType &&
		e.ManagerOfID != nil && *e.ManagerOfID == unitID
}
