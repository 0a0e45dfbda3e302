package profile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cmlabs-hris/talent-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/talent-backend-go/internal/domain/notification"
	"github.com/cmlabs-hris/talent-backend-go/internal/domain/policy"
	"github.com/cmlabs-hris/talent-backend-go/internal/domain/profile"
	"github.com/cmlabs-hris/talent-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/talent-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/talent-backend-go/internal/pkg/events"
	"github.com/cmlabs-hris/talent-backend-go/internal/pkg/metrics"
	"github.com/jackc/pgx/v5"
)

type ProfileServiceImpl struct {
	tx database.Transactor
	employee.EmployeeRepository
	user.UserRepository
	policy        policy.PolicyEngine
	notifications notification.Service
	publisher     events.Publisher
}

func NewProfileService(
	tx database.Transactor,
	employeeRepo employee.EmployeeRepository,
	userRepo user.UserRepository,
	policyEngine policy.PolicyEngine,
	notifications notification.Service,
	publisher events.Publisher,
) profile.ProfileService {
	return &ProfileServiceImpl{
		tx:                 tx,
		EmployeeRepository: employeeRepo,
		UserRepository:     userRepo,
		policy:             policyEngine,
		notifications:      notifications,
		publisher:          publisher,
	}
}

// apply runs one transition as a conditional update and records the outcome.
func (s *ProfileServiceImpl) apply(ctx context.Context, employeeID string, t profile.Transition, notes *string) (employee.Employee, error) {
	e, err := s.EmployeeRepository.TransitionProfileStatus(ctx, employeeID, t.From, t.To, notes)
	if err != nil {
		if errors.Is(err, employee.ErrStatusTransitionFailed) {
			metrics.ProfileTransitions.WithLabelValues(t.Name, "conflict").Inc()
			return employee.Employee{}, err
		}
		return employee.Employee{}, fmt.Errorf("failed to apply %s: %w", t.Name, err)
	}
	metrics.ProfileTransitions.WithLabelValues(t.Name, "applied").Inc()
	return e, nil
}

// StartEnrichment implements profile.ProfileService.
func (s *ProfileServiceImpl) StartEnrichment(ctx context.Context, employeeID string) (employee.Employee, error) {
	return s.apply(ctx, employeeID, profile.StartEnrichment, nil)
}

// AbortEnrichment implements profile.ProfileService.
func (s *ProfileServiceImpl) AbortEnrichment(ctx context.Context, employeeID string) error {
	_, err := s.apply(ctx, employeeID, profile.AbortEnrichment, nil)
	return err
}

// CompleteEnrichment moves an enriching profile to enriched and then straight
// on to approved or pending_approval, in one transaction.
func (s *ProfileServiceImpl) CompleteEnrichment(ctx context.Context, employeeID string) (employee.Employee, error) {
	var final employee.Employee
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		enriched, err := s.apply(ctx, employeeID, profile.MarkEnriched, nil)
		if err != nil {
			return err
		}

		next := profile.AutoApprove
		if s.policy.RequiresProfileReview(enriched) {
			next = profile.RequestReview
		}
		final, err = s.apply(ctx, employeeID, next, nil)
		return err
	})
	if err != nil {
		return employee.Employee{}, err
	}

	slog.Info("Enrichment completed", "employee_id", employeeID, "profile_status", final.ProfileStatus)
	s.publish(ctx, "profile."+string(final.ProfileStatus), final)

	if final.ProfileStatus == employee.ProfileStatusPendingApproval {
		s.notifications.Queue(ctx, notification.CreateNotificationRequest{
			CompanyID: final.CompanyID,
			Recipient: notification.HRRecipient(final.CompanyID),
			Type:      notification.TypeProfilePendingReview,
			Title:     "Profile awaiting review",
			Message:   fmt.Sprintf("%s's enriched profile is waiting for your review.", final.FullName),
			Data:      map[string]interface{}{"employee_id": final.ID},
		})
	} else {
		s.notifyEmployee(ctx, final, notification.TypeProfileApproved, "Profile approved",
			"Your enriched profile has been approved.")
	}
	return final, nil
}

// reviewTarget loads the employee and checks it belongs to the reviewer's company.
func (s *ProfileServiceImpl) reviewTarget(ctx context.Context, employeeID string, reviewer profile.Reviewer) (employee.Employee, error) {
	e, err := s.EmployeeRepository.GetByID(ctx, employeeID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employee.Employee{}, employee.ErrEmployeeNotFound
		}
		return employee.Employee{}, fmt.Errorf("failed to get employee: %w", err)
	}
	if e.CompanyID != reviewer.CompanyID {
		return employee.Employee{}, employee.ErrEmployeeCompanyMismatch
	}
	return e, nil
}

// Approve implements profile.ProfileService.
func (s *ProfileServiceImpl) Approve(ctx context.Context, employeeID string, reviewer profile.Reviewer, notes *string) (employee.EmployeeResponse, error) {
	if _, err := s.reviewTarget(ctx, employeeID, reviewer); err != nil {
		return employee.EmployeeResponse{}, err
	}

	approved, err := s.apply(ctx, employeeID, profile.Approve, notes)
	if err != nil {
		if errors.Is(err, employee.ErrStatusTransitionFailed) {
			return employee.EmployeeResponse{}, profile.ErrProfileNotPendingApproval
		}
		return employee.EmployeeResponse{}, err
	}

	slog.Info("Profile approved", "employee_id", employeeID, "reviewer", reviewer.UserID)
	s.publish(ctx, "profile.approved", approved)
	s.notifyEmployee(ctx, approved, notification.TypeProfileApproved, "Profile approved",
		"Your enriched profile has been approved by HR.")

	return employee.ToResponse(approved), nil
}

// Reject implements profile.ProfileService.
func (s *ProfileServiceImpl) Reject(ctx context.Context, employeeID string, reviewer profile.Reviewer, reason string) (employee.EmployeeResponse, error) {
	if _, err := s.reviewTarget(ctx, employeeID, reviewer); err != nil {
		return employee.EmployeeResponse{}, err
	}

	rejected, err := s.apply(ctx, employeeID, profile.Reject, &reason)
	if err != nil {
		if errors.Is(err, employee.ErrStatusTransitionFailed) {
			return employee.EmployeeResponse{}, profile.ErrProfileNotPendingApproval
		}
		return employee.EmployeeResponse{}, err
	}

	slog.Info("Profile rejected", "employee_id", employeeID, "reviewer", reviewer.UserID)
	s.publish(ctx, "profile.rejected", rejected)
	s.notifyEmployee(ctx, rejected, notification.TypeProfileRejected, "Profile rejected",
		fmt.Sprintf("Your enriched profile was rejected: %s", reason))

	return employee.ToResponse(rejected), nil
}

// ListPending implements profile.ProfileService.
func (s *ProfileServiceImpl) ListPending(ctx context.Context, hrEmail string) ([]employee.EmployeeResponse, error) {
	hr, err := s.UserRepository.GetByEmail(ctx, hrEmail)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, user.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if hr.Role != user.RoleHR {
		return nil, user.ErrHRAccessRequired
	}

	pending, err := s.EmployeeRepository.ListByProfileStatus(ctx, hr.CompanyID, employee.ProfileStatusPendingApproval)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending profiles: %w", err)
	}

	responses := make([]employee.EmployeeResponse, len(pending))
	for i, e := range pending {
		responses[i] = employee.ToResponse(e)
	}
	return responses, nil
}

// Resubmit implements profile.ProfileService.
func (s *ProfileServiceImpl) Resubmit(ctx context.Context, employeeID string) (employee.EmployeeResponse, error) {
	e, err := s.EmployeeRepository.Resubmit(ctx, employeeID)
	if err != nil {
		if errors.Is(err, employee.ErrStatusTransitionFailed) {
			metrics.ProfileTransitions.WithLabelValues(profile.Resubmit.Name, "conflict").Inc()
			return employee.EmployeeResponse{}, profile.ErrProfileNotRejected
		}
		return employee.EmployeeResponse{}, fmt.Errorf("failed to resubmit profile: %w", err)
	}
	metrics.ProfileTransitions.WithLabelValues(profile.Resubmit.Name, "applied").Inc()

	slog.Info("Profile resubmitted", "employee_id", employeeID, "epoch", e.EnrichmentEpoch)
	s.publish(ctx, "profile.resubmitted", e)
	return employee.ToResponse(e), nil
}

func (s *ProfileServiceImpl) notifyEmployee(ctx context.Context, e employee.Employee, t notification.Type, title, message string) {
	email := e.Email
	s.notifications.Queue(ctx, notification.CreateNotificationRequest{
		CompanyID:      e.CompanyID,
		Recipient:      notification.EmployeeRecipient(e.ID),
		RecipientEmail: &email,
		Type:           t,
		Title:          title,
		Message:        message,
		Data:           map[string]interface{}{"employee_id": e.ID, "profile_status": e.ProfileStatus},
	})
}

func (s *ProfileServiceImpl) publish(ctx context.Context, eventType string, e employee.Employee) {
	evt, err := events.NewEvent(eventType, "employee", e.ID, e.CompanyID, employee.ToResponse(e))
	if err != nil {
		slog.Error("Failed to build event", "type", eventType, "error", err)
		return
	}
	if err := s.publisher.Publish(context.WithoutCancel(ctx), evt); err != nil {
		slog.Error("Failed to publish event", "type", eventType, "employee_id", e.ID, "error", err)
	}
}
