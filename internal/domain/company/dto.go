package company

import (
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/talent-backend-go/internal/pkg/validator"
)

type RegisterCompanyRequest struct {
	Name                       string               `json:"name"`
	Username                   string               `json:"username"`
	LearningPathApprovalPolicy string               `json:"learning_path_approval_policy"`
	Departments                []RegisterDepartment `json:"departments"`
	Teams                      []RegisterTeam       `json:"teams"`
	Managers                   []RegisterManager    `json:"managers"`
	DecisionMaker              *RegisterPerson      `json:"decision_maker,omitempty"`
	HR                         RegisterHRAccount    `json:"hr"`
}

type RegisterDepartment struct {
	Name string `json:"name"`
}

type RegisterTeam struct {
	Name       string  `json:"name"`
	Department *string `json:"department,omitempty"`
}

type RegisterPerson struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

// RegisterManager names the unit it manages by its declared name.
type RegisterManager struct {
	RegisterPerson
	ManagerType string `json:"manager_type"`
	ManagerOf   string `json:"manager_of"`
}

type RegisterHRAccount struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks request shape only. Organizational completeness is the
// policy engine's job and is reported separately.
func (r *RegisterCompanyRequest) Validate() error {
	var errs validator.ValidationErrors

	r.Name = strings.TrimSpace(r.Name)
	r.Username = strings.TrimSpace(r.Username)

	errs.Required("name", r.Name)
	errs.MaxLength("name", r.Name, 255)
	if !validator.IsValidCompanyUsername(r.Username) {
		errs = append(errs, validator.ValidationError{Field: "username", Message: "username must be 3-50 characters of letters, digits, dot, underscore or dash"})
	}
	if r.LearningPathApprovalPolicy == "" {
		r.LearningPathApprovalPolicy = string(ApprovalPolicyAuto)
	}
	if !ApprovalPolicy(r.LearningPathApprovalPolicy).IsValid() {
		errs = append(errs, validator.ValidationError{Field: "learning_path_approval_policy", Message: "learning_path_approval_policy must be auto or manual"})
	}

	for i, d := range r.Departments {
		errs.Required(fmt.Sprintf("departments[%d].name", i), d.Name)
	}
	for i, t := range r.Teams {
		errs.Required(fmt.Sprintf("teams[%d].name", i), t.Name)
	}
	for i, m := range r.Managers {
		field := fmt.Sprintf("managers[%d]", i)
		errs.Required(field+".full_name", m.FullName)
		if !validator.IsValidEmail(m.Email) {
			errs = append(errs, validator.ValidationError{Field: field + ".email", Message: "email must be a valid email address"})
		}
		if m.ManagerType != "department" && m.ManagerType != "team" {
			errs = append(errs, validator.ValidationError{Field: field + ".manager_type", Message: "manager_type must be department or team"})
		}
		errs.Required(field+".manager_of", m.ManagerOf)
	}
	if r.DecisionMaker != nil {
		errs.Required("decision_maker.full_name", r.DecisionMaker.FullName)
		if !validator.IsValidEmail(r.DecisionMaker.Email) {
			errs = append(errs, validator.ValidationError{Field: "decision_maker.email", Message: "email must be a valid email address"})
		}
	}

	errs.Required("hr.full_name", r.HR.FullName)
	if !validator.IsValidEmail(r.HR.Email) {
		errs = append(errs, validator.ValidationError{Field: "hr.email", Message: "email must be a valid email address"})
	}
	if len(r.HR.Password) < 8 {
		errs = append(errs, validator.ValidationError{Field: "hr.password", Message: "password must be at least 8 characters"})
	}

	return errs.Err()
}

type UpdatePolicyRequest struct {
	LearningPathApprovalPolicy string  `json:"learning_path_approval_policy"`
	DecisionMakerID            *string `json:"decision_maker_id,omitempty"`
}

func (r *UpdatePolicyRequest) Validate() error {
	var errs validator.ValidationErrors
	if !ApprovalPolicy(r.LearningPathApprovalPolicy).IsValid() {
		errs = append(errs, validator.ValidationError{Field: "learning_path_approval_policy", Message: "learning_path_approval_policy must be auto or manual"})
	}
	if r.DecisionMakerID != nil && !validator.IsValidUUID(*r.DecisionMakerID) {
		errs = append(errs, validator.ValidationError{Field: "decision_maker_id", Message: "decision_maker_id must be a valid UUID"})
	}
	return errs.Err()
}

type CreateDepartmentRequest struct {
	Name string `json:"name"`
}

func (r *CreateDepartmentRequest) Validate() error {
	var errs validator.ValidationErrors
	r.Name = strings.TrimSpace(r.Name)
	errs.Required("name", r.Name)
	errs.MaxLength("name", r.Name, 255)
	return errs.Err()
}

type CreateTeamRequest struct {
	Name         string  `json:"name"`
	DepartmentID *string `json:"department_id,omitempty"`
}

func (r *CreateTeamRequest) Validate() error {
	var errs validator.ValidationErrors
	r.Name = strings.TrimSpace(r.Name)
	errs.Required("name", r.Name)
	errs.MaxLength("name", r.Name, 255)
	if r.DepartmentID != nil && !validator.IsValidUUID(*r.DepartmentID) {
		errs = append(errs, validator.ValidationError{Field: "department_id", Message: "department_id must be a valid UUID"})
	}
	return errs.Err()
}

type DepartmentResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type TeamResponse struct {
	ID           string  `json:"id"`
	DepartmentID *string `json:"department_id,omitempty"`
	Name         string  `json:"name"`
}

type CompanyResponse struct {
	ID                         string               `json:"id"`
	Name                       string               `json:"name"`
	Username                   string               `json:"username"`
	Status                     string               `json:"status"`
	LearningPathApprovalPolicy string               `json:"learning_path_approval_policy"`
	DecisionMakerID            *string              `json:"decision_maker_id,omitempty"`
	Departments                []DepartmentResponse `json:"departments"`
	Teams                      []TeamResponse       `json:"teams"`
	CreatedAt                  time.Time            `json:"created_at"`
}

func ToResponse(c Company) CompanyResponse {
	resp := CompanyResponse{
		ID:                         c.ID,
		Name:                       c.Name,
		Username:                   c.Username,
		Status:                     string(c.Status),
		LearningPathApprovalPolicy: string(c.LearningPathApprovalPolicy),
		DecisionMakerID:            c.DecisionMakerID,
		Departments:                make([]DepartmentResponse, 0, len(c.Departments)),
		Teams:                      make([]TeamResponse, 0, len(c.Teams)),
		CreatedAt:                  c.CreatedAt,
	}
	for _, d := range c.Departments {
		resp.Departments = append(resp.Departments, DepartmentResponse{ID: d.ID, Name: d.Name})
	}
	for _, t := range c.Teams {
		resp.Teams = append(resp.Teams, TeamResponse{ID: t.ID, DepartmentID: t.DepartmentID, Name: t.Name})
	}
	return resp
}

// RegisterCompanyResponse is returned once the organization is persisted.
type RegisterCompanyResponse struct {
	Company  CompanyResponse `json:"company"`
	HRUserID string          `json:"hr_user_id"`
}
