package policy

import (
	"fmt"

	"github.com/cmlabs-hris/talent-backend-go/internal/domain/company"
	"github.com/cmlabs-hris/talent-backend-go/internal/domain/employee"
)

// Organization is the company together with the employees that may fill its
// manager and decision-maker slots.
type Organization struct {
	Company company.Company
	Members []employee.Employee
}

// ValidateOrgCompleteness checks that every department and team has exactly
// one manager and that a manual policy names an existing decision maker.
func ValidateOrgCompleteness(org Organization) ViolationList {
	var violations ViolationList

	c := org.Company
	if c.LearningPathApprovalPolicy == company.ApprovalPolicyManual {
		switch {
		case c.DecisionMakerID == nil || *c.DecisionMakerID == "":
			violations = append(violations, Violation{
				Code:    CodeDecisionMakerRequired,
				Message: "a decision maker is required when the learning path approval policy is manual",
			})
		case !hasMember(org.Members, *c.DecisionMakerID):
			violations = append(violations, Violation{
				Code:    CodeDecisionMakerNotFound,
				Subject: *c.DecisionMakerID,
				Message: fmt.Sprintf("decision maker %s is not an employee of the company", *c.DecisionMakerID),
			})
		}
	}

	for _, d := range c.Departments {
		switch n := countManagers(org.Members, employee.ManagerTypeDepartment, d.ID); {
		case n == 0:
			violations = append(violations, Violation{
				Code:    CodeDepartmentManagerMissing,
				Subject: d.Name,
				Message: fmt.Sprintf("department %q has no manager", d.Name),
			})
		case n > 1:
			violations = append(violations, Violation{
				Code:    CodeDepartmentManagerConflict,
				Subject: d.Name,
				Message: fmt.Sprintf("department %q has %d managers", d.Name, n),
			})
		}
	}

	for _, t := range c.Teams {
		switch n := countManagers(org.Members, employee.ManagerTypeTeam, t.ID); {
		case n == 0:
			violations = append(violations, Violation{
				Code:    CodeTeamManagerMissing,
				Subject: t.Name,
				Message: fmt.Sprintf("team %q has no manager", t.Name),
			})
		case n > 1:
			violations = append(violations, Violation{
				Code:    CodeTeamManagerConflict,
				Subject: t.Name,
				Message: fmt.Sprintf("team %q has %d managers", t.Name, n),
			})
		}
	}

	return violations
}

func hasMember(members []employee.Employee, id string) bool {
	for _, m := range members {
		if m.ID == id {
			return true
		}
	}
	return false
}

func countManagers(members []employee.Employee, managerType employee.ManagerType, unitID string) int {
	n := 0
	for _, m := range members {
		if m.Manages(managerType, unitID) {
			n++
		}
	}
	return n
}
