package company

import "context"

type CompanyRepository interface {
	Create(ctx context.Context, company Company) (Company, error)
	GetByID(ctx context.Context, id string) (Company, error)

	// GetWithUnits loads the company together with its departments and teams.
	GetWithUnits(ctx context.Context, id string) (Company, error)
	UpdateStatus(ctx context.Context, id string, status Status) error
	UpdatePolicy(ctx context.Context, id string, policy ApprovalPolicy, decisionMakerID *string) error

	CreateDepartment(ctx context.Context, department Department) (Department, error)
	CreateTeam(ctx context.Context, team Team) (Team, error)
}
