package employee

import "errors"

var (
	ErrEmployeeNotFound        = errors.New("employee not found")
	ErrEmailExists             = errors.New("email already registered in this company")
	ErrInvalidEmployeeType     = errors.New("invalid employee type")
	ErrInvalidManagerType      = errors.New("manager type must be department or team")
	ErrManagedUnitNotFound     = errors.New("managed department or team not found in company")
	ErrStatusTransitionFailed  = errors.New("profile status transition rejected by current state")
	ErrEmployeeCompanyMismatch = errors.New("employee does not belong to this company")
)
