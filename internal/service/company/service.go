package company

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cmlabs-hris/talent-backend-go/internal/domain/company"
	"github.com/cmlabs-hris/talent-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/talent-backend-go/internal/domain/policy"
	"github.com/cmlabs-hris/talent-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/talent-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/talent-backend-go/internal/pkg/events"
	authservice "github.com/cmlabs-hris/talent-backend-go/internal/service/auth"
	"github.com/jackc/pgx/v5"
)

const draftDecisionMakerID = "draft:decision-maker"

type CompanyServiceImpl struct {
	tx database.Transactor
	company.CompanyRepository
	employee.EmployeeRepository
	user.UserRepository
	policy    policy.PolicyEngine
	publisher events.Publisher
}

func NewCompanyService(
	tx database.Transactor,
	companyRepo company.CompanyRepository,
	employeeRepo employee.EmployeeRepository,
	userRepo user.UserRepository,
	policyEngine policy.PolicyEngine,
	publisher events.Publisher,
) company.CompanyService {
	return &CompanyServiceImpl{
		tx:                 tx,
		CompanyRepository:  companyRepo,
		EmployeeRepository: employeeRepo,
		UserRepository:     userRepo,
		policy:             policyEngine,
		publisher:          publisher,
	}
}

// draft is a registration resolved into units and members with placeholder
// ids, so completeness can be checked before anything is written.
type draft struct {
	company         company.Company
	members         []employee.Employee
	teamDepartments map[string]string
}

func unitKey(kind, name string) string {
	return "draft:" + kind + ":" + strings.ToLower(strings.TrimSpace(name))
}

func buildDraft(req company.RegisterCompanyRequest) (draft, error) {
	d := draft{
		company: company.Company{
			Name:                       req.Name,
			Username:                   req.Username,
			LearningPathApprovalPolicy: company.ApprovalPolicy(req.LearningPathApprovalPolicy),
		},
		teamDepartments: make(map[string]string),
	}

	seen := make(map[string]bool)
	for _, dep := range req.Departments {
		id := unitKey("department", dep.Name)
		if seen[id] {
			return draft{}, company.ErrDuplicateUnitName
		}
		seen[id] = true
		d.company.Departments = append(d.company.Departments, company.Department{ID: id, Name: strings.TrimSpace(dep.Name)})
	}
	for _, t := range req.Teams {
		id := unitKey("team", t.Name)
		if seen[id] {
			return draft{}, company.ErrDuplicateUnitName
		}
		seen[id] = true
		team := company.Team{ID: id, Name: strings.TrimSpace(t.Name)}
		if t.Department != nil {
			depID := unitKey("department", *t.Department)
			if !seen[depID] {
				return draft{}, company.ErrUnknownUnitReference
			}
			team.DepartmentID = &depID
			d.teamDepartments[id] = depID
		}
		d.company.Teams = append(d.company.Teams, team)
	}

	for i, m := range req.Managers {
		mt := employee.ManagerType(m.ManagerType)
		unitID := unitKey(m.ManagerType, m.ManagerOf)
		if !seen[unitID] {
			return draft{}, company.ErrUnknownUnitReference
		}
		d.members = append(d.members, employee.Employee{
			ID:           fmt.Sprintf("draft:manager:%d", i),
			FullName:     m.FullName,
			Email:        strings.ToLower(m.Email),
			EmployeeType: employee.EmployeeTypeRegular,
			IsManager:    true,
			ManagerType:  &mt,
			ManagerOfID:  &unitID,
		})
	}

	if req.DecisionMaker != nil && d.company.LearningPathApprovalPolicy == company.ApprovalPolicyManual {
		dmID := draftDecisionMakerID
		d.company.DecisionMakerID = &dmID
		d.members = append(d.members, employee.Employee{
			ID:           dmID,
			FullName:     req.DecisionMaker.FullName,
			Email:        strings.ToLower(req.DecisionMaker.Email),
			EmployeeType: employee.EmployeeTypeInternalInstructor,
		})
	}
	return d, nil
}

// Register implements company.CompanyService. The organization is validated
// as a whole and written in one transaction; an incomplete organization is
// reported as a policy.ViolationList and nothing is stored.
func (s *CompanyServiceImpl) Register(ctx context.Context, req company.RegisterCompanyRequest) (company.RegisterCompanyResponse, error) {
	if err := req.Validate(); err != nil {
		return company.RegisterCompanyResponse{}, err
	}
	d, err := buildDraft(req)
	if err != nil {
		return company.RegisterCompanyResponse{}, err
	}
	if violations := policy.ValidateOrgCompleteness(policy.Organization{Company: d.company, Members: d.members}); len(violations) > 0 {
		return company.RegisterCompanyResponse{}, violations
	}

	var (
		created company.Company
		hrUser  user.User
	)
	err = s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		created, err = s.CompanyRepository.Create(txCtx, company.Company{
			Name:                       d.company.Name,
			Username:                   d.company.Username,
			Status:                     company.StatusActive,
			LearningPathApprovalPolicy: company.ApprovalPolicyAuto,
		})
		if err != nil {
			if errors.Is(err, company.ErrCompanyUsernameExists) {
				return err
			}
			return fmt.Errorf("failed to create company: %w", err)
		}

		ids := make(map[string]string)
		for _, dep := range d.company.Departments {
			stored, err := s.CompanyRepository.CreateDepartment(txCtx, company.Department{CompanyID: created.ID, Name: dep.Name})
			if err != nil {
				return fmt.Errorf("failed to create department %q: %w", dep.Name, err)
			}
			ids[dep.ID] = stored.ID
			created.Departments = append(created.Departments, stored)
		}
		for _, t := range d.company.Teams {
			team := company.Team{CompanyID: created.ID, Name: t.Name}
			if t.DepartmentID != nil {
				depID := ids[*t.DepartmentID]
				team.DepartmentID = &depID
			}
			stored, err := s.CompanyRepository.CreateTeam(txCtx, team)
			if err != nil {
				return fmt.Errorf("failed to create team %q: %w", t.Name, err)
			}
			ids[t.ID] = stored.ID
			created.Teams = append(created.Teams, stored)
		}

		for _, m := range d.members {
			e := employee.Employee{
				CompanyID:     created.ID,
				FullName:      m.FullName,
				Email:         m.Email,
				EmployeeType:  m.EmployeeType,
				ProfileStatus: employee.ProfileStatusUnenriched,
			}
			if m.IsManager {
				unitID := ids[*m.ManagerOfID]
				e.IsManager, e.ManagerType, e.ManagerOfID = true, m.ManagerType, &unitID
				if *m.ManagerType == employee.ManagerTypeDepartment {
					e.DepartmentID = &unitID
				} else {
					e.TeamID = &unitID
					if depID, ok := d.teamDepartments[*m.ManagerOfID]; ok {
						realDep := ids[depID]
						e.DepartmentID = &realDep
					}
				}
			}
			stored, err := s.EmployeeRepository.Create(txCtx, e)
			if err != nil {
				if errors.Is(err, employee.ErrEmailExists) {
					return err
				}
				return fmt.Errorf("failed to create employee %s: %w", m.Email, err)
			}
			if m.ID == draftDecisionMakerID {
				created.DecisionMakerID = &stored.ID
			}
		}

		created.LearningPathApprovalPolicy = d.company.LearningPathApprovalPolicy
		if err := s.CompanyRepository.UpdatePolicy(txCtx, created.ID, created.LearningPathApprovalPolicy, created.DecisionMakerID); err != nil {
			return fmt.Errorf("failed to set approval policy: %w", err)
		}

		hash, err := authservice.HashPassword(req.HR.Password)
		if err != nil {
			return err
		}
		hrUser, err = s.UserRepository.Create(txCtx, user.User{
			CompanyID:    created.ID,
			Email:        strings.ToLower(req.HR.Email),
			PasswordHash: hash,
			Role:         user.RoleHR,
		})
		if err != nil {
			if errors.Is(err, user.ErrUserEmailExists) {
				return err
			}
			return fmt.Errorf("failed to create HR user: %w", err)
		}
		return nil
	})
	if err != nil {
		return company.RegisterCompanyResponse{}, err
	}

	slog.Info("Company registered", "company_id", created.ID, "username", created.Username, "policy", created.LearningPathApprovalPolicy)
	resp := company.ToResponse(created)
	s.publish(ctx, "company.registered", created.ID, resp)

	return company.RegisterCompanyResponse{Company: resp, HRUserID: hrUser.ID}, nil
}

func (s *CompanyServiceImpl) getWithUnits(ctx context.Context, id string) (company.Company, error) {
	c, err := s.CompanyRepository.GetWithUnits(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return company.Company{}, company.ErrCompanyNotFound
		}
		return company.Company{}, fmt.Errorf("failed to get company: %w", err)
	}
	return c, nil
}

// GetByID implements company.CompanyService.
func (s *CompanyServiceImpl) GetByID(ctx context.Context, id string) (company.CompanyResponse, error) {
	c, err := s.getWithUnits(ctx, id)
	if err != nil {
		return company.CompanyResponse{}, err
	}
	return company.ToResponse(c), nil
}

// Activate implements company.CompanyService.
func (s *CompanyServiceImpl) Activate(ctx context.Context, id string) (company.CompanyResponse, error) {
	c, err := s.getWithUnits(ctx, id)
	if err != nil {
		return company.CompanyResponse{}, err
	}
	if c.Status == company.StatusActive {
		return company.CompanyResponse{}, company.ErrCompanyAlreadyActive
	}

	violations, err := s.policy.ValidateOrgCompleteness(ctx, id)
	if err != nil {
		return company.CompanyResponse{}, err
	}
	if len(violations) > 0 {
		return company.CompanyResponse{}, violations
	}

	if err := s.CompanyRepository.UpdateStatus(ctx, id, company.StatusActive); err != nil {
		return company.CompanyResponse{}, fmt.Errorf("failed to activate company: %w", err)
	}
	s.policy.Invalidate(id)
	c.Status = company.StatusActive

	resp := company.ToResponse(c)
	s.publish(ctx, "company.activated", id, resp)
	return resp, nil
}

// UpdatePolicy implements company.CompanyService. Switching to auto clears the
// decision maker.
func (s *CompanyServiceImpl) UpdatePolicy(ctx context.Context, id string, req company.UpdatePolicyRequest) (company.CompanyResponse, error) {
	if err := req.Validate(); err != nil {
		return company.CompanyResponse{}, err
	}
	c, err := s.getWithUnits(ctx, id)
	if err != nil {
		return company.CompanyResponse{}, err
	}

	newPolicy := company.ApprovalPolicy(req.LearningPathApprovalPolicy)
	var dm *string
	if newPolicy == company.ApprovalPolicyManual {
		if req.DecisionMakerID == nil {
			return company.CompanyResponse{}, policy.ViolationList{{
				Code:    policy.CodeDecisionMakerRequired,
				Message: "a decision maker is required when the learning path approval policy is manual",
			}}
		}
		e, err := s.EmployeeRepository.GetByID(ctx, *req.DecisionMakerID)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return company.CompanyResponse{}, fmt.Errorf("failed to get employee: %w", err)
		}
		if err != nil || e.CompanyID != id {
			return company.CompanyResponse{}, policy.ViolationList{{
				Code:    policy.CodeDecisionMakerNotFound,
				Subject: *req.DecisionMakerID,
				Message: fmt.Sprintf("decision maker %s is not an employee of the company", *req.DecisionMakerID),
			}}
		}
		dm = &e.ID
	}

	if err := s.CompanyRepository.UpdatePolicy(ctx, id, newPolicy, dm); err != nil {
		return company.CompanyResponse{}, fmt.Errorf("failed to update approval policy: %w", err)
	}
	s.policy.Invalidate(id)

	c.LearningPathApprovalPolicy = newPolicy
	c.DecisionMakerID = dm
	slog.Info("Approval policy updated", "company_id", id, "policy", newPolicy)

	resp := company.ToResponse(c)
	s.publish(ctx, company.EventPolicyUpdated, id, resp)
	return resp, nil
}

// AddDepartment implements company.CompanyService. A new unit has no manager
// yet, so the company drops back to pending until it is reactivated.
func (s *CompanyServiceImpl) AddDepartment(ctx context.Context, companyID string, req company.CreateDepartmentRequest) (company.DepartmentResponse, error) {
	if err := req.Validate(); err != nil {
		return company.DepartmentResponse{}, err
	}
	if _, err := s.getWithUnits(ctx, companyID); err != nil {
		return company.DepartmentResponse{}, err
	}

	var created company.Department
	err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		var err error
		created, err = s.CompanyRepository.CreateDepartment(txCtx, company.Department{CompanyID: companyID, Name: req.Name})
		if err != nil {
			if errors.Is(err, company.ErrDuplicateUnitName) {
				return err
			}
			return fmt.Errorf("failed to create department: %w", err)
		}
		return s.markPending(txCtx, companyID)
	})
	if err != nil {
		return company.DepartmentResponse{}, err
	}
	s.policy.Invalidate(companyID)

	return company.DepartmentResponse{ID: created.ID, Name: created.Name}, nil
}

// AddTeam implements company.CompanyService.
func (s *CompanyServiceImpl) AddTeam(ctx context.Context, companyID string, req company.CreateTeamRequest) (company.TeamResponse, error) {
	if err := req.Validate(); err != nil {
		return company.TeamResponse{}, err
	}
	c, err := s.getWithUnits(ctx, companyID)
	if err != nil {
		return company.TeamResponse{}, err
	}
	if req.DepartmentID != nil {
		found := false
		for _, d := range c.Departments {
			if d.ID == *req.DepartmentID {
				found = true
				break
			}
		}
		if !found {
			return company.TeamResponse{}, company.ErrDepartmentNotFound
		}
	}

	var created company.Team
	err = s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		var err error
		created, err = s.CompanyRepository.CreateTeam(txCtx, company.Team{CompanyID: companyID, DepartmentID: req.DepartmentID, Name: req.Name})
		if err != nil {
			if errors.Is(err, company.ErrDuplicateUnitName) || errors.Is(err, company.ErrDepartmentNotFound) {
				return err
			}
			return fmt.Errorf("failed to create team: %w", err)
		}
		return s.markPending(txCtx, companyID)
	})
	if err != nil {
		return company.TeamResponse{}, err
	}
	s.policy.Invalidate(companyID)

	return company.TeamResponse{ID: created.ID, DepartmentID: created.DepartmentID, Name: created.Name}, nil
}

func (s *CompanyServiceImpl) markPending(ctx context.Context, companyID string) error {
	if err := s.CompanyRepository.UpdateStatus(ctx, companyID, company.StatusPending); err != nil {
		return fmt.Errorf("failed to update company status: %w", err)
	}
	return nil
}

func (s *CompanyServiceImpl) publish(ctx context.Context, eventType, companyID string, payload interface{}) {
	evt, err := events.NewEvent(eventType, "company", companyID, companyID, payload)
	if err != nil {
		slog.Error("Failed to build event", "type", eventType, "error", err)
		return
	}
	if err := s.publisher.Publish(context.WithoutCancel(ctx), evt); err != nil {
		slog.Error("Failed to publish event", "type", eventType, "company_id", companyID, "error", err)
	}
}
