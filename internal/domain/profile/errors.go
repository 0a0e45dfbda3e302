package profile

import "errors"

var (
	ErrProfileNotPendingApproval = errors.New("profile is not pending approval")
	ErrProfileNotRejected        = errors.New("only rejected profiles can be resubmitted")
	ErrResubmitRequired          = errors.New("profile was rejected and must be resubmitted first")
)
