package profile

import "github.com/cmlabs-hris/talent-backend-go/internal/pkg/validator"

// Reviewer is the HR user acting on a profile.
type Reviewer struct {
	UserID    string
	CompanyID string
	Email     string
}

type ApproveRequest struct {
	Notes *string `json:"notes,omitempty"`
}

func (r *ApproveRequest) Validate() error {
	var errs validator.ValidationErrors
	if r.Notes != nil {
		errs.MaxLength("notes", *r.Notes, 2000)
	}
	return errs.Err()
}

type RejectRequest struct {
	Reason string `json:"reason"`
}

func (r *RejectRequest) Validate() error {
	var errs validator.ValidationErrors
	errs.Required("reason", r.Reason)
	errs.MaxLength("reason", r.Reason, 2000)
	return errs.Err()
}
