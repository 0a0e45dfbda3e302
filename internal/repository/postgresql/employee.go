package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/talent-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/talent-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

const employeeColumns = `id, company_id, full_name, email, employee_type, department_id, team_id,
	is_manager, manager_type, manager_of_id, profile_status, enrichment_epoch,
	profile_status_changed_at, review_notes, created_at, updated_at`

type employeeRepositoryImpl struct {
	db *database.DB
}

func NewEmployeeRepository(db *database.DB) employee.EmployeeRepository {
	return &employeeRepositoryImpl{db: db}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEmployee(row rowScanner) (employee.Employee, error) {
	var (
		e                                 employee.Employee
		employeeType, profileStatus       string
		departmentID, teamID, managerOfID sql.NullString
		managerType, reviewNotes          sql.NullString
	)
	err := row.Scan(
		&e.ID,
		&e.CompanyID,
		&e.FullName,
		&e.Email,
		&employeeType,
		&departmentID,
		&teamID,
		&e.IsManager,
		&managerType,
		&managerOfID,
		&profileStatus,
		&e.EnrichmentEpoch,
		&e.ProfileStatusChangedAt,
		&reviewNotes,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		return employee.Employee{}, err
	}

	e.EmployeeType = employee.EmployeeType(employeeType)
	e.ProfileStatus = employee.ProfileStatus(profileStatus)
	e.DepartmentID = nullStringPtr(departmentID)
	e.TeamID = nullStringPtr(teamID)
	e.ManagerOfID = nullStringPtr(managerOfID)
	e.ReviewNotes = nullStringPtr(reviewNotes)
	if managerType.Valid {
		mt := employee.ManagerType(managerType.String)
		e.ManagerType = &mt
	}
	return e, nil
}

func collectEmployees(rows pgx.Rows) ([]employee.Employee, error) {
	defer rows.Close()

	employees := []employee.Employee{}
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, e)
	}
	return employees, rows.Err()
}

func (r *employeeRepositoryImpl) Create(ctx context.Context, newEmployee employee.Employee) (employee.Employee, error) {
	q := GetQuerier(ctx, r.db)

	var managerType *string
	if newEmployee.ManagerType != nil {
		mt := string(*newEmployee.ManagerType)
		managerType = &mt
	}
	profileStatus := newEmployee.ProfileStatus
	if profileStatus == "" {
		profileStatus = employee.ProfileStatusUnenriched
	}

	query := `
		INSERT INTO employees (
			company_id, full_name, email, employee_type, department_id, team_id,
			is_manager, manager_type, manager_of_id, profile_status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + employeeColumns

	created, err := scanEmployee(q.QueryRow(ctx, query,
		newEmployee.CompanyID,
		newEmployee.FullName,
		newEmployee.Email,
		string(newEmployee.EmployeeType),
		newEmployee.DepartmentID,
		newEmployee.TeamID,
		newEmployee.IsManager,
		managerType,
		newEmployee.ManagerOfID,
		string(profileStatus),
	))
	if err != nil {
		switch {
		case database.IsUniqueViolation(err):
			return employee.Employee{}, employee.ErrEmailExists
		case database.IsForeignKeyViolation(err):
			return employee.Employee{}, employee.ErrManagedUnitNotFound
		}
		return employee.Employee{}, fmt.Errorf("failed to create employee: %w", err)
	}
	return created, nil
}

func (r *employeeRepositoryImpl) GetByID(ctx context.Context, id string) (employee.Employee, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + employeeColumns + ` FROM employees WHERE id = $1`

	e, err := scanEmployee(q.QueryRow(ctx, query, id))
	if err != nil {
		return employee.Employee{}, err
	}
	return e, nil
}

func (r *employeeRepositoryImpl) ListByCompanyID(ctx context.Context, companyID string) ([]employee.Employee, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + employeeColumns + ` FROM employees WHERE company_id = $1 ORDER BY full_name`

	rows, err := q.Query(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	return collectEmployees(rows)
}

func (r *employeeRepositoryImpl) ListByProfileStatus(ctx context.Context, companyID string, status employee.ProfileStatus) ([]employee.Employee, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + employeeColumns + `
		FROM employees
		WHERE company_id = $1 AND profile_status = $2
		ORDER BY profile_status_changed_at`

	rows, err := q.Query(ctx, query, companyID, string(status))
	if err != nil {
		return nil, fmt.Errorf("failed to list employees by profile status: %w", err)
	}
	return collectEmployees(rows)
}

// TransitionProfileStatus implements employee.EmployeeRepository.
func (r *employeeRepositoryImpl) TransitionProfileStatus(ctx context.Context, id string, from []employee.ProfileStatus, to employee.ProfileStatus, notes *string) (employee.Employee, error) {
	q := GetQuerier(ctx, r.db)

	fromStatuses := make([]string, 0, len(from))
	for _, s := range from {
		fromStatuses = append(fromStatuses, string(s))
	}

	query := `
		UPDATE employees
		SET profile_status = $3,
			review_notes = COALESCE($4, review_notes),
			profile_status_changed_at = NOW(),
			updated_at = NOW()
		WHERE id = $1 AND profile_status = ANY($2)
		RETURNING ` + employeeColumns

	e, err := scanEmployee(q.QueryRow(ctx, query, id, fromStatuses, string(to), notes))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employee.Employee{}, employee.ErrStatusTransitionFailed
		}
		return employee.Employee{}, fmt.Errorf("failed to transition profile status: %w", err)
	}
	return e, nil
}

// Resubmit implements employee.EmployeeRepository.
func (r *employeeRepositoryImpl) Resubmit(ctx context.Context, id string) (employee.Employee, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE employees
		SET profile_status = 'unenriched',
			enrichment_epoch = enrichment_epoch + 1,
			review_notes = NULL,
			profile_status_changed_at = NOW(),
			updated_at = NOW()
		WHERE id = $1 AND profile_status = 'rejected'
		RETURNING ` + employeeColumns

	e, err := scanEmployee(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employee.Employee{}, employee.ErrStatusTransitionFailed
		}
		return employee.Employee{}, fmt.Errorf("failed to resubmit profile: %w", err)
	}
	return e, nil
}

// ResetStaleEnriching implements employee.EmployeeRepository.
func (r *employeeRepositoryImpl) ResetStaleEnriching(ctx context.Context, before time.Time) (int64, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE employees
		SET profile_status = 'unenriched', profile_status_changed_at = NOW(), updated_at = NOW()
		WHERE profile_status = 'enriching' AND profile_status_changed_at < $1`

	tag, err := q.Exec(ctx, query, before)
	if err != nil {
		return 0, fmt.Errorf("failed to reset stale enriching profiles: %w", err)
	}
	return tag.RowsAffected(), nil
}
