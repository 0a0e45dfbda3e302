package company

import "context"

type CompanyService interface {
	Register(ctx context.Context, req RegisterCompanyRequest) (RegisterCompanyResponse, error)
	GetByID(ctx context.Context, id string) (CompanyResponse, error)
	Activate(ctx context.Context, id string) (CompanyResponse, error)
	UpdatePolicy(ctx context.Context, id string, req UpdatePolicyRequest) (CompanyResponse, error)
	AddDepartment(ctx context.Context, companyID string, req CreateDepartmentRequest) (DepartmentResponse, error)
	AddTeam(ctx context.Context, companyID string, req CreateTeamRequest) (TeamResponse, error)
}
