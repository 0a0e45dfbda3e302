package user

import "errors"

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrUserEmailExists      = errors.New("user email already exists")
	ErrHRAccessRequired     = errors.New("HR access required")
	ErrEmployeeAccessDenied = errors.New("access to another employee's data denied")
)
