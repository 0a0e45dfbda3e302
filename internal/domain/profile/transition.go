package profile

import (
	"slices"

	"github.com/cmlabs-hris/talent-backend-go/internal/domain/employee"
)

// Transition is one edge of the profile lifecycle. Repositories apply it as a
// conditional update guarded by From.
type Transition struct {
	Name string
	From []employee.ProfileStatus
	To   employee.ProfileStatus
}

func (t Transition) Allows(status employee.ProfileStatus) bool {
	return slices.Contains(t.From, status)
}

var (
	// StartEnrichment also matches enriching so a profile left there by a
	// crashed run can be picked up again once its lock has expired.
	StartEnrichment = Transition{
		Name: "start_enrichment",
		From: []employee.ProfileStatus{employee.ProfileStatusUnenriched, employee.ProfileStatusEnriching},
		To:   employee.ProfileStatusEnriching,
	}
	AbortEnrichment = Transition{
		Name: "abort_enrichment",
		From: []employee.ProfileStatus{employee.ProfileStatusEnriching},
		To:   employee.ProfileStatusUnenriched,
	}
	MarkEnriched = Transition{
		Name: "mark_enriched",
		From: []employee.ProfileStatus{employee.ProfileStatusEnriching},
		To:   employee.ProfileStatusEnriched,
	}
	AutoApprove = Transition{
		Name: "auto_approve",
		From: []employee.ProfileStatus{employee.ProfileStatusEnriched},
		To:   employee.ProfileStatusApproved,
	}
	RequestReview = Transition{
		Name: "request_review",
		From: []employee.ProfileStatus{employee.ProfileStatusEnriched},
		To:   employee.ProfileStatusPendingApproval,
	}
	Approve = Transition{
		Name: "approve",
		From: []employee.ProfileStatus{employee.ProfileStatusPendingApproval},
		To:   employee.ProfileStatusApproved,
	}
	Reject = Transition{
		Name: "reject",
		From: []employee.ProfileStatus{employee.ProfileStatusPendingApproval},
		To:   employee.ProfileStatusRejected,
	}
	Resubmit = Transition{
		Name: "resubmit",
		From: []employee.ProfileStatus{employee.ProfileStatusRejected},
		To:   employee.ProfileStatusUnenriched,
	}
)
