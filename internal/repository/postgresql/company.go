package postgresql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/cmlabs-hris/talent-backend-go/internal/domain/company"
	"github.com/cmlabs-hris/talent-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type companyRepositoryImpl struct {
	db *database.DB
}

func NewCompanyRepository(db *database.DB) company.CompanyRepository {
	return &companyRepositoryImpl{db: db}
}

func scanCompany(row rowScanner) (company.Company, error) {
	var (
		c               company.Company
		status, policy  string
		decisionMakerID sql.NullString
	)
	err := row.Scan(&c.ID, &c.Name, &c.Username, &status, &policy, &decisionMakerID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return company.Company{}, err
	}
	c.Status = company.Status(status)
	c.LearningPathApprovalPolicy = company.ApprovalPolicy(policy)
	c.DecisionMakerID = nullStringPtr(decisionMakerID)
	return c, nil
}

func (r *companyRepositoryImpl) Create(ctx context.Context, newCompany company.Company) (company.Company, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO companies (name, username, status, learning_path_approval_policy, decision_maker_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, name, username, status, learning_path_approval_policy, decision_maker_id, created_at, updated_at
	`

	created, err := scanCompany(q.QueryRow(ctx, query,
		newCompany.Name,
		newCompany.Username,
		string(newCompany.Status),
		string(newCompany.LearningPathApprovalPolicy),
		newCompany.DecisionMakerID,
	))
	if err != nil {
		if database.IsUniqueViolation(err) {
			return company.Company{}, company.ErrCompanyUsernameExists
		}
		return company.Company{}, fmt.Errorf("failed to create company: %w", err)
	}
	return created, nil
}

func (r *companyRepositoryImpl) GetByID(ctx context.Context, id string) (company.Company, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, name, username, status, learning_path_approval_policy, decision_maker_id, created_at, updated_at
		FROM companies
		WHERE id = $1
	`

	return scanCompany(q.QueryRow(ctx, query, id))
}

// GetWithUnits implements company.CompanyRepository.
func (r *companyRepositoryImpl) GetWithUnits(ctx context.Context, id string) (company.Company, error) {
	c, err := r.GetByID(ctx, id)
	if err != nil {
		return company.Company{}, err
	}

	q := GetQuerier(ctx, r.db)

	deptRows, err := q.Query(ctx, `SELECT id, company_id, name, created_at FROM departments WHERE company_id = $1 ORDER BY name`, id)
	if err != nil {
		return company.Company{}, fmt.Errorf("failed to list departments: %w", err)
	}
	defer deptRows.Close()

	c.Departments = []company.Department{}
	for deptRows.Next() {
		var d company.Department
		if err := deptRows.Scan(&d.ID, &d.CompanyID, &d.Name, &d.CreatedAt); err != nil {
			return company.Company{}, err
		}
		c.Departments = append(c.Departments, d)
	}
	if err := deptRows.Err(); err != nil {
		return company.Company{}, err
	}

	teamRows, err := q.Query(ctx, `SELECT id, company_id, department_id, name, created_at FROM teams WHERE company_id = $1 ORDER BY name`, id)
	if err != nil {
		return company.Company{}, fmt.Errorf("failed to list teams: %w", err)
	}
	defer teamRows.Close()

	c.Teams = []company.Team{}
	for teamRows.Next() {
		var (
			t            company.Team
			departmentID sql.NullString
		)
		if err := teamRows.Scan(&t.ID, &t.CompanyID, &departmentID, &t.Name, &t.CreatedAt); err != nil {
			return company.Company{}, err
		}
		t.DepartmentID = nullStringPtr(departmentID)
		c.Teams = append(c.Teams, t)
	}
	return c, teamRows.Err()
}

func (r *companyRepositoryImpl) UpdateStatus(ctx context.Context, id string, status company.Status) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `UPDATE companies SET status = $2, updated_at = NOW() WHERE id = $1`, id, string(status))
	if err != nil {
		return fmt.Errorf("failed to update company status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *companyRepositoryImpl) UpdatePolicy(ctx context.Context, id string, policy company.ApprovalPolicy, decisionMakerID *string) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE companies
		SET learning_path_approval_policy = $2, decision_maker_id = $3, updated_at = NOW()
		WHERE id = $1
	`
	tag, err := q.Exec(ctx, query, id, string(policy), decisionMakerID)
	if err != nil {
		return fmt.Errorf("failed to update company policy: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *companyRepositoryImpl) CreateDepartment(ctx context.Context, department company.Department) (company.Department, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO departments (company_id, name)
		VALUES ($1, $2)
		RETURNING id, created_at
	`
	err := q.QueryRow(ctx, query, department.CompanyID, department.Name).Scan(&department.ID, &department.CreatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return company.Department{}, company.ErrDuplicateUnitName
		}
		return company.Department{}, fmt.Errorf("failed to create department: %w", err)
	}
	return department, nil
}

func (r *companyRepositoryImpl) CreateTeam(ctx context.Context, team company.Team) (company.Team, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO teams (company_id, department_id, name)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	err := q.QueryRow(ctx, query, team.CompanyID, team.DepartmentID, team.Name).Scan(&team.ID, &team.CreatedAt)
	if err != nil {
		switch {
		case database.IsUniqueViolation(err):
			return company.Team{}, company.ErrDuplicateUnitName
		case database.IsForeignKeyViolation(err):
			return company.Team{}, company.ErrDepartmentNotFound
		}
		return company.Team{}, fmt.Errorf("failed to create team: %w", err)
	}
	return team, nil
}
