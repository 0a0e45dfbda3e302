package policy

import (
	"testing"

	"github.com/cmlabs-hris/talent-backend-go/internal/domain/company"
	"github.com/cmlabs-hris/talent-backend-go/internal/domain/employee"
	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func manager(id string, mt employee.ManagerType, unitID string) employee.Employee {
	return employee.Employee{ID: id, IsManager: true, ManagerType: &mt, ManagerOfID: strPtr(unitID)}
}

func TestValidateOrgCompleteness(t *testing.T) {
	engineering := company.Department{ID: "dep-eng", Name: "Engineering"}
	sales := company.Department{ID: "dep-sales", Name: "Sales"}
	platform := company.Team{ID: "team-platform", Name: "Platform"}

	tests := []struct {
		name  string
		org   Organization
		codes []ViolationCode
	}{
		{
			name: "complete auto policy organization",
			org: Organization{
				Company: company.Company{
					LearningPathApprovalPolicy: company.ApprovalPolicyAuto,
					Departments:                []company.Department{engineering},
					Teams:                      []company.Team{platform},
				},
				Members: []employee.Employee{
					manager("m1", employee.ManagerTypeDepartment, "dep-eng"),
					manager("m2", employee.ManagerTypeTeam, "team-platform"),
				},
			},
		},
		{
			name: "manual policy without decision maker",
			org: Organization{
				Company: company.Company{LearningPathApprovalPolicy: company.ApprovalPolicyManual},
			},
			codes: []ViolationCode{CodeDecisionMakerRequired},
		},
		{
			name: "decision maker outside the company",
			org: Organization{
				Company: company.Company{
					LearningPathApprovalPolicy: company.ApprovalPolicyManual,
					DecisionMakerID:            strPtr("ghost"),
				},
				Members: []employee.Employee{{ID: "e1"}},
			},
			codes: []ViolationCode{CodeDecisionMakerNotFound},
		},
		{
			name: "every violation is reported",
			org: Organization{
				Company: company.Company{
					LearningPathApprovalPolicy: company.ApprovalPolicyManual,
					Departments:                []company.Department{engineering, sales},
					Teams:                      []company.Team{platform},
				},
				Members: []employee.Employee{
					manager("m1", employee.ManagerTypeDepartment, "dep-eng"),
					manager("m2", employee.ManagerTypeDepartment, "dep-eng"),
				},
			},
			codes: []ViolationCode{
				CodeDecisionMakerRequired,
				CodeDepartmentManagerConflict,
				CodeDepartmentManagerMissing,
				CodeTeamManagerMissing,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidateOrgCompleteness(tt.org)

			var codes []ViolationCode
			for _, v := range got {
				codes = append(codes, v.Code)
			}
			assert.Equal(t, tt.codes, codes)
			if len(tt.codes) == 0 {
				assert.NoError(t, got.Err())
			} else {
				assert.Error(t, got.Err())
			}
		})
	}
}

func TestValidateOrgCompleteness_NamesTheUnit(t *testing.T) {
	got := ValidateOrgCompleteness(Organization{
		Company: company.Company{
			LearningPathApprovalPolicy: company.ApprovalPolicyAuto,
			Departments:                []company.Department{{ID: "dep-sales", Name: "Sales"}},
		},
	})

	assert.True(t, got.Has(CodeDepartmentManagerMissing))
	assert.Equal(t, "Sales", got[0].Subject)
	assert.Contains(t, got.Error(), `department "Sales" has no manager`)
}
