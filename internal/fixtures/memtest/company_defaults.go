package memtest

import (
	"context"

	"github.com/cmlabs-hris/talent-backend-go/internal/domain/company"
	"github.com/cmlabs-hris/talent-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/talent-backend-go/internal/domain/user"
	"github.com/google/uuid"
)

// ==========================================
// HELPER FUNCTIONS
// ==========================================

func StrPtr(s string) *string { return &s }

func managerTypePtr(t employee.ManagerType) *employee.ManagerType { return &t }

// ==========================================
// REGISTRATION PAYLOAD
// ==========================================

// DefaultRegistration is a complete organization: one department and one
// team, each with a manager, and an HR account.
func DefaultRegistration(username string, policy company.ApprovalPolicy) company.RegisterCompanyRequest {
	req := company.RegisterCompanyRequest{
		Name:                       "CMLABS Academy",
		Username:                   username,
		LearningPathApprovalPolicy: string(policy),
		Departments:                []company.RegisterDepartment{{Name: "Engineering"}},
		Teams:                      []company.RegisterTeam{{Name: "Platform", Department: StrPtr("Engineering")}},
		Managers: []company.RegisterManager{
			{
				RegisterPerson: company.RegisterPerson{FullName: "Rina Wijaya", Email: "rina@" + username + ".test"},
				ManagerType:    string(employee.ManagerTypeDepartment),
				ManagerOf:      "Engineering",
			},
			{
				RegisterPerson: company.RegisterPerson{FullName: "Bagus Pratama", Email: "bagus@" + username + ".test"},
				ManagerType:    string(employee.ManagerTypeTeam),
				ManagerOf:      "Platform",
			},
		},
		HR: company.RegisterHRAccount{
			FullName: "Sari Hidayat",
			Email:    "hr@" + username + ".test",
			Password: "password123",
		},
	}
	if policy == company.ApprovalPolicyManual {
		req.DecisionMaker = &company.RegisterPerson{FullName: "Dewi Lestari", Email: "dewi@" + username + ".test"}
	}
	return req
}

// ==========================================
// SEEDED ORGANIZATION
// ==========================================

// Org holds the ids of a seeded organization.
type Org struct {
	CompanyID           string
	DecisionMakerID     string
	RegularID           string
	ExternalID          string
	HRUserID            string
	HREmail             string
	DepartmentID        string
	TeamID              string
	DepartmentManager   string
	TeamManager         string
	OtherCompanyHREmail string
}

// SeedOrganization stores an active, complete company with the given policy in
// the repositories, plus a second company with its own HR account.
func SeedOrganization(companies *CompanyRepository, employees *EmployeeRepository, users *UserRepository, policy company.ApprovalPolicy) Org {
	org := Org{
		CompanyID:           uuid.New().String(),
		DepartmentID:        uuid.New().String(),
		TeamID:              uuid.New().String(),
		HREmail:             "hr@academy.test",
		OtherCompanyHREmail: "hr@other.test",
	}

	deptManager := employees.Put(employee.Employee{
		CompanyID: org.CompanyID, FullName: "Rina Wijaya", Email: "rina@academy.test",
		EmployeeType: employee.EmployeeTypeRegular, IsManager: true,
		ManagerType: managerTypePtr(employee.ManagerTypeDepartment), ManagerOfID: StrPtr(org.DepartmentID),
	})
	teamManager := employees.Put(employee.Employee{
		CompanyID: org.CompanyID, FullName: "Bagus Pratama", Email: "bagus@academy.test",
		EmployeeType: employee.EmployeeTypeRegular, IsManager: true,
		ManagerType: managerTypePtr(employee.ManagerTypeTeam), ManagerOfID: StrPtr(org.TeamID),
	})
	dm := employees.Put(employee.Employee{
		CompanyID: org.CompanyID, FullName: "Dewi Lestari", Email: "dewi@academy.test",
		EmployeeType: employee.EmployeeTypeInternalInstructor,
	})
	regular := employees.Put(employee.Employee{
		CompanyID: org.CompanyID, FullName: "Andi Saputra", Email: "andi@academy.test",
		EmployeeType: employee.EmployeeTypeRegular, DepartmentID: StrPtr(org.DepartmentID), TeamID: StrPtr(org.TeamID),
	})
	external := employees.Put(employee.Employee{
		CompanyID: org.CompanyID, FullName: "Maya Kusuma", Email: "maya@academy.test",
		EmployeeType: employee.EmployeeTypeExternalInstructor,
	})

	org.DepartmentManager = deptManager.ID
	org.TeamManager = teamManager.ID
	org.DecisionMakerID = dm.ID
	org.RegularID = regular.ID
	org.ExternalID = external.ID

	c := company.Company{
		ID:                         org.CompanyID,
		Name:                       "CMLABS Academy",
		Username:                   "academy",
		Status:                     company.StatusActive,
		LearningPathApprovalPolicy: policy,
		Departments:                []company.Department{{ID: org.DepartmentID, CompanyID: org.CompanyID, Name: "Engineering"}},
		Teams:                      []company.Team{{ID: org.TeamID, CompanyID: org.CompanyID, DepartmentID: StrPtr(org.DepartmentID), Name: "Platform"}},
	}
	if policy == company.ApprovalPolicyManual {
		c.DecisionMakerID = StrPtr(dm.ID)
	}
	companies.Put(c)

	hr, _ := users.Create(context.Background(), user.User{CompanyID: org.CompanyID, Email: org.HREmail, Role: user.RoleHR})
	org.HRUserID = hr.ID

	other := companies.Put(company.Company{Name: "Other Co", Username: "other", Status: company.StatusActive, LearningPathApprovalPolicy: company.ApprovalPolicyAuto})
	_, _ = users.Create(context.Background(), user.User{CompanyID: other.ID, Email: org.OtherCompanyHREmail, Role: user.RoleHR})

	return org
}
