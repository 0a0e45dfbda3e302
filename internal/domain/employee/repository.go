package employee

import (
	"context"
	"time"
)

type EmployeeRepository interface {
	Create(ctx context.Context, employee Employee) (Employee, error)
	GetByID(ctx context.Context, id string) (Employee, error)
	ListByCompanyID(ctx context.Context, companyID string) ([]Employee, error)
	ListByProfileStatus(ctx context.Context, companyID string, status ProfileStatus) ([]Employee, error)

	// TransitionProfileStatus moves the profile to `to` only if its current
	// status is one of `from`. ErrStatusTransitionFailed is returned otherwise.
	TransitionProfileStatus(ctx context.Context, id string, from []ProfileStatus, to ProfileStatus, notes *string) (Employee, error)

	// Resubmit moves a rejected profile back to unenriched and bumps its
	// enrichment epoch so the next enrichment runs on a fresh snapshot.
	Resubmit(ctx context.Context, id string) (Employee, error)

	// ResetStaleEnriching returns profiles stuck in enriching since before
	// `before` to unenriched and reports how many were reset.
	ResetStaleEnriching(ctx context.Context, before time.Time) (int64, error)
}
