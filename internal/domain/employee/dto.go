package employee

import (
	"time"

	"github.com/cmlabs-hris/talent-backend-go/internal/pkg/validator"
)

type CreateEmployeeRequest struct {
	CompanyID    string  `json:"-"`
	FullName     string  `json:"full_name"`
	Email        string  `json:"email"`
	Password     *string `json:"password,omitempty"`
	EmployeeType string  `json:"employee_type"`
	DepartmentID *string `json:"department_id,omitempty"`
	TeamID       *string `json:"team_id,omitempty"`
	ManagerType  *string `json:"manager_type,omitempty"`
	ManagerOfID  *string `json:"manager_of_id,omitempty"`
}

func (r *CreateEmployeeRequest) Validate() error {
	var errs validator.ValidationErrors

	errs.Required("full_name", r.FullName)
	errs.MaxLength("full_name", r.FullName, 255)
	if !validator.IsValidEmail(r.Email) {
		errs = append(errs, validator.ValidationError{Field: "email", Message: "email must be a valid email address"})
	}
	if r.EmployeeType == "" {
		r.EmployeeType = string(EmployeeTypeRegular)
	}
	if !EmployeeType(r.EmployeeType).IsValid() {
		errs = append(errs, validator.ValidationError{Field: "employee_type", Message: "employee_type must be regular, internal_instructor or external_instructor"})
	}
	if r.Password != nil && len(*r.Password) < 8 {
		errs = append(errs, validator.ValidationError{Field: "password", Message: "password must be at least 8 characters"})
	}
	if (r.ManagerType == nil) != (r.ManagerOfID == nil) {
		errs = append(errs, validator.ValidationError{Field: "manager_of_id", Message: "manager_type and manager_of_id must be provided together"})
	}
	if r.ManagerType != nil && *r.ManagerType != string(ManagerTypeDepartment) && *r.ManagerType != string(ManagerTypeTeam) {
		errs = append(errs, validator.ValidationError{Field: "manager_type", Message: "manager_type must be department or team"})
	}

	return errs.Err()
}

type EmployeeResponse struct {
	ID              string    `json:"id"`
	CompanyID       string    `json:"company_id"`
	FullName        string    `json:"full_name"`
	Email           string    `json:"email"`
	EmployeeType    string    `json:"employee_type"`
	DepartmentID    *string   `json:"department_id,omitempty"`
	TeamID          *string   `json:"team_id,omitempty"`
	IsManager       bool      `json:"is_manager"`
	ManagerType     *string   `json:"manager_type,omitempty"`
	ManagerOfID     *string   `json:"manager_of_id,omitempty"`
	ProfileStatus   string    `json:"profile_status"`
	StatusChangedAt time.Time `json:"profile_status_changed_at"`
	ReviewNotes     *string   `json:"review_notes,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

func ToResponse(e Employee) EmployeeResponse {
	resp := EmployeeResponse{
		ID:              e.ID,
		CompanyID:       e.CompanyID,
		FullName:        e.FullName,
		Email:           e.Email,
		EmployeeType:    string(e.EmployeeType),
		DepartmentID:    e.DepartmentID,
		TeamID:          e.TeamID,
		IsManager:       e.IsManager,
		ManagerOfID:     e.ManagerOfID,
		ProfileStatus:   string(e.ProfileStatus),
		StatusChangedAt: e.ProfileStatusChangedAt,
		ReviewNotes:     e.ReviewNotes,
		CreatedAt:       e.CreatedAt,
	}
	if e.ManagerType != nil {
		mt := string(*e.ManagerType)
		resp.ManagerType = &mt
	}
	return resp
}
