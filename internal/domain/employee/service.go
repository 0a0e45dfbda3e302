package employee

import "context"

type EmployeeService interface {
	Create(ctx context.Context, req CreateEmployeeRequest) (EmployeeResponse, error)
	GetByID(ctx context.Context, id string) (Employee, error)
	ListByCompany(ctx context.Context, companyID string) ([]EmployeeResponse, error)
}
