package policy

import (
	"fmt"
	"strings"
)

type ViolationCode string

const (
	CodeDecisionMakerRequired     ViolationCode = "decision_maker_required"
	CodeDecisionMakerNotFound     ViolationCode = "decision_maker_not_found"
	CodeDepartmentManagerMissing  ViolationCode = "department_manager_missing"
	CodeDepartmentManagerConflict ViolationCode = "department_manager_duplicate"
	CodeTeamManagerMissing        ViolationCode = "team_manager_missing"
	CodeTeamManagerConflict       ViolationCode = "team_manager_duplicate"
)

type Violation struct {
	Code    ViolationCode `json:"code"`
	Subject string        `json:"subject,omitempty"`
	Message string        `json:"message"`
}

// ViolationList is returned whole so callers can report every problem at once.
type ViolationList []Violation

func (v ViolationList) Error() string {
	msgs := make([]string, 0, len(v))
	for _, violation := range v {
		msgs = append(msgs, violation.Message)
	}
	return fmt.Sprintf("organization incomplete: %s", strings.Join(msgs, "; "))
}

func (v ViolationList) Err() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

func (v ViolationList) Has(code ViolationCode) bool {
	for _, violation := range v {
		if violation.Code == code {
			return true
		}
	}
	return false
}
