package company

import "errors"

var (
	ErrCompanyNotFound       = errors.New("company not found")
	ErrCompanyUsernameExists = errors.New("company username already exists")
	ErrDepartmentNotFound    = errors.New("department not found")
	ErrTeamNotFound          = errors.New("team not found")
	ErrDuplicateUnitName     = errors.New("department or team name already exists in company")
	ErrUnknownUnitReference  = errors.New("manager references an undeclared department or team")
	ErrCompanyAlreadyActive  = errors.New("company is already active")
)
