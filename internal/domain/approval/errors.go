package approval

import "errors"

var (
	ErrRequestNotFound         = errors.New("approval request not found")
	ErrRequestAlreadyProcessed = errors.New("approval request already processed")
	ErrInvalidRequestType      = errors.New("request type must be training, skill_verification, self_learning or extra_attempt")
	ErrInvalidPayload          = errors.New("invalid request payload")
	ErrRequestTypeMismatch     = errors.New("request type does not match the request")
	ErrNotRequestApprover      = errors.New("caller is not the approver of this request")
	ErrNotDecisionMaker        = errors.New("employee is not the company decision maker")
)
