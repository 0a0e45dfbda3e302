package employee

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cmlabs-hris/talent-backend-go/internal/domain/company"
	"github.com/cmlabs-hris/talent-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/talent-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/talent-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/talent-backend-go/internal/pkg/events"
	authservice "github.com/cmlabs-hris/talent-backend-go/internal/service/auth"
	"github.com/jackc/pgx/v5"
)

type EmployeeServiceImpl struct {
	tx database.Transactor
	employee.EmployeeRepository
	company.CompanyRepository
	user.UserRepository
	publisher events.Publisher
}

func NewEmployeeService(
	tx database.Transactor,
	employeeRepo employee.EmployeeRepository,
	companyRepo company.CompanyRepository,
	userRepo user.UserRepository,
	publisher events.Publisher,
) employee.EmployeeService {
	return &EmployeeServiceImpl{
		tx:                 tx,
		EmployeeRepository: employeeRepo,
		CompanyRepository:  companyRepo,
		UserRepository:     userRepo,
		publisher:          publisher,
	}
}

// Create implements employee.EmployeeService. When a password is given a
// login account is created in the same transaction.
func (s *EmployeeServiceImpl) Create(ctx context.Context, req employee.CreateEmployeeRequest) (employee.EmployeeResponse, error) {
	if err := req.Validate(); err != nil {
		return employee.EmployeeResponse{}, err
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	c, err := s.CompanyRepository.GetWithUnits(ctx, req.CompanyID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employee.EmployeeResponse{}, company.ErrCompanyNotFound
		}
		return employee.EmployeeResponse{}, fmt.Errorf("failed to get company: %w", err)
	}
	if req.DepartmentID != nil && !hasDepartment(c, *req.DepartmentID) {
		return employee.EmployeeResponse{}, company.ErrDepartmentNotFound
	}
	if req.TeamID != nil && !hasTeam(c, *req.TeamID) {
		return employee.EmployeeResponse{}, company.ErrTeamNotFound
	}

	newEmployee := employee.Employee{
		CompanyID:     c.ID,
		FullName:      strings.TrimSpace(req.FullName),
		Email:         req.Email,
		EmployeeType:  employee.EmployeeType(req.EmployeeType),
		DepartmentID:  req.DepartmentID,
		TeamID:        req.TeamID,
		ProfileStatus: employee.ProfileStatusUnenriched,
	}
	if req.ManagerType != nil {
		mt := employee.ManagerType(*req.ManagerType)
		switch {
		case mt == employee.ManagerTypeDepartment && !hasDepartment(c, *req.ManagerOfID),
			mt == employee.ManagerTypeTeam && !hasTeam(c, *req.ManagerOfID):
			return employee.EmployeeResponse{}, employee.ErrManagedUnitNotFound
		}
		newEmployee.IsManager = true
		newEmployee.ManagerType = &mt
		newEmployee.ManagerOfID = req.ManagerOfID
	}

	var created employee.Employee
	err = s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		created, err = s.EmployeeRepository.Create(txCtx, newEmployee)
		if err != nil {
			if errors.Is(err, employee.ErrEmailExists) || errors.Is(err, employee.ErrManagedUnitNotFound) {
				return err
			}
			return fmt.Errorf("failed to create employee: %w", err)
		}

		if req.Password == nil {
			return nil
		}
		hash, err := authservice.HashPassword(*req.Password)
		if err != nil {
			return err
		}
		if _, err := s.UserRepository.Create(txCtx, user.User{
			CompanyID:    c.ID,
			EmployeeID:   &created.ID,
			Email:        created.Email,
			PasswordHash: hash,
			Role:         user.RoleEmployee,
		}); err != nil {
			if errors.Is(err, user.ErrUserEmailExists) {
				return err
			}
			return fmt.Errorf("failed to create user: %w", err)
		}
		return nil
	})
	if err != nil {
		return employee.EmployeeResponse{}, err
	}

	slog.Info("Employee created", "employee_id", created.ID, "company_id", created.CompanyID, "type", created.EmployeeType)

	resp := employee.ToResponse(created)
	if evt, err := events.NewEvent("employee.created", "employee", created.ID, created.CompanyID, resp); err == nil {
		if err := s.publisher.Publish(context.WithoutCancel(ctx), evt); err != nil {
			slog.Error("Failed to publish event", "type", evt.Type, "error", err)
		}
	}

	return resp, nil
}

// GetByID implements employee.EmployeeService.
func (s *EmployeeServiceImpl) GetByID(ctx context.Context, id string) (employee.Employee, error) {
	e, err := s.EmployeeRepository.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employee.Employee{}, employee.ErrEmployeeNotFound
		}
		return employee.Employee{}, fmt.Errorf("failed to get employee: %w", err)
	}
	return e, nil
}

// ListByCompany implements employee.EmployeeService.
func (s *EmployeeServiceImpl) ListByCompany(ctx context.Context, companyID string) ([]employee.EmployeeResponse, error) {
	employees, err := s.EmployeeRepository.ListByCompanyID(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	responses := make([]employee.EmployeeResponse, len(employees))
	for i, e := range employees {
		responses[i] = employee.ToResponse(e)
	}
	return responses, nil
}

func hasDepartment(c company.Company, id string) bool {
	for _, d := range c.Departments {
		if d.ID == id {
			return true
		}
	}
	return false
}

func hasTeam(c company.Company, id string) bool {
	for _, t := range c.Teams {
		if t.ID == id {
			return true
		}
	}
	return false
}
