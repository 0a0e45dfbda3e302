package approval

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/talent-backend-go/internal/domain/approval"
	"github.com/cmlabs-hris/talent-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/talent-backend-go/internal/domain/notification"
	"github.com/cmlabs-hris/talent-backend-go/internal/domain/policy"
	"github.com/cmlabs-hris/talent-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/talent-backend-go/internal/pkg/events"
	"github.com/cmlabs-hris/talent-backend-go/internal/pkg/metrics"
	"github.com/jackc/pgx/v5"
)

type RouterServiceImpl struct {
	approval.RequestRepository
	employee.EmployeeRepository
	user.UserRepository
	policy        policy.PolicyEngine
	notifications notification.Service
	publisher     events.Publisher
	now           func() time.Time
}

func NewRouterService(
	requestRepo approval.RequestRepository,
	employeeRepo employee.EmployeeRepository,
	userRepo user.UserRepository,
	policyEngine policy.PolicyEngine,
	notifications notification.Service,
	publisher events.Publisher,
) approval.RouterService {
	return &RouterServiceImpl{
		RequestRepository:  requestRepo,
		EmployeeRepository: employeeRepo,
		UserRepository:     userRepo,
		policy:             policyEngine,
		notifications:      notifications,
		publisher:          publisher,
		now:                time.Now,
	}
}

func (s *RouterServiceImpl) getEmployee(ctx context.Context, employeeID string) (employee.Employee, error) {
	e, err := s.EmployeeRepository.GetByID(ctx, employeeID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employee.Employee{}, employee.ErrEmployeeNotFound
		}
		return employee.Employee{}, fmt.Errorf("failed to get employee: %w", err)
	}
	return e, nil
}

// route picks the approver of a new request: the decision maker for learning
// path requests under a manual policy, HR otherwise.
func (s *RouterServiceImpl) route(ctx context.Context, requester employee.Employee, t approval.RequestType) (approval.ApproverRole, *string, error) {
	if !t.IsLearningPathGoverned() {
		return approval.ApproverHR, nil, nil
	}

	dm, err := s.policy.DecisionMakerFor(ctx, requester.CompanyID)
	if err != nil {
		return "", nil, err
	}
	switch {
	case dm == nil:
		manual, err := s.policy.IsManualPolicy(ctx, requester.CompanyID)
		if err != nil {
			return "", nil, err
		}
		if manual {
			slog.Warn("Manual policy without decision maker, routing to HR", "company_id", requester.CompanyID)
		}
		return approval.ApproverHR, nil, nil
	case *dm == requester.ID:
		// the decision maker never approves their own request
		return approval.ApproverHR, nil, nil
	}
	return approval.ApproverDecisionMaker, dm, nil
}

// Create implements approval.RouterService.
func (s *RouterServiceImpl) Create(ctx context.Context, employeeID string, requestType approval.RequestType, payload json.RawMessage) (approval.RequestResponse, error) {
	decoded, err := approval.DecodePayload(requestType, payload)
	if err != nil {
		return approval.RequestResponse{}, err
	}
	canonical, err := json.Marshal(decoded)
	if err != nil {
		return approval.RequestResponse{}, fmt.Errorf("failed to encode payload: %w", err)
	}

	requester, err := s.getEmployee(ctx, employeeID)
	if err != nil {
		return approval.RequestResponse{}, err
	}

	role, approverID, err := s.route(ctx, requester, requestType)
	if err != nil {
		return approval.RequestResponse{}, err
	}

	created, err := s.RequestRepository.Create(ctx, approval.Request{
		Type:         requestType,
		EmployeeID:   requester.ID,
		CompanyID:    requester.CompanyID,
		Payload:      canonical,
		Status:       approval.StatusPending,
		ApproverRole: role,
		ApproverID:   approverID,
	})
	if err != nil {
		return approval.RequestResponse{}, fmt.Errorf("failed to create request: %w", err)
	}

	slog.Info("Approval request created", "request_id", created.ID, "type", requestType, "employee_id", requester.ID, "approver_role", role)
	s.publish(ctx, "request.created", created)
	s.notifyApprover(ctx, requester, created)

	return approval.ToResponse(created), nil
}

func (s *RouterServiceImpl) notifyApprover(ctx context.Context, requester employee.Employee, r approval.Request) {
	req := notification.CreateNotificationRequest{
		CompanyID: r.CompanyID,
		Recipient: notification.HRRecipient(r.CompanyID),
		Type:      notification.TypeRequestCreated,
		Title:     "New " + humanType(r.Type) + " request",
		Message:   fmt.Sprintf("%s submitted a %s request.", requester.FullName, humanType(r.Type)),
		Data:      map[string]interface{}{"request_id": r.ID, "type": r.Type, "employee_id": r.EmployeeID},
	}
	if r.ApproverRole == approval.ApproverDecisionMaker && r.ApproverID != nil {
		req.Recipient = notification.EmployeeRecipient(*r.ApproverID)
		if dm, err := s.getEmployee(ctx, *r.ApproverID); err == nil {
			req.RecipientEmail = &dm.Email
		}
	}
	s.notifications.Queue(ctx, req)
}

// Resolve implements approval.RouterService. The pending check and the update
// are one conditional statement, so exactly one concurrent caller wins.
func (s *RouterServiceImpl) Resolve(ctx context.Context, requestType approval.RequestType, requestID string, resolver approval.Approver, req approval.ResolveRequest) (approval.RequestResponse, error) {
	r, err := s.RequestRepository.GetByID(ctx, requestID)
	if err != nil {
		return approval.RequestResponse{}, err
	}
	if r.Type != requestType {
		return approval.RequestResponse{}, approval.ErrRequestTypeMismatch
	}
	if !resolver.CanResolve(r) {
		return approval.RequestResponse{}, approval.ErrNotRequestApprover
	}

	status := approval.Status(req.Status)
	resolved, err := s.RequestRepository.Resolve(ctx, requestID, status, req.Notes, resolver.ResolvedByID(), s.now().UTC())
	if err != nil {
		if errors.Is(err, approval.ErrRequestAlreadyProcessed) {
			metrics.ApprovalResolutions.WithLabelValues(string(requestType), "conflict").Inc()
			return approval.RequestResponse{}, err
		}
		return approval.RequestResponse{}, fmt.Errorf("failed to resolve request: %w", err)
	}
	metrics.ApprovalResolutions.WithLabelValues(string(requestType), string(status)).Inc()

	slog.Info("Approval request resolved", "request_id", requestID, "status", status, "resolved_by", resolver.ResolvedByID())
	s.publish(ctx, "request."+string(status), resolved)

	n := notification.CreateNotificationRequest{
		CompanyID: resolved.CompanyID,
		Recipient: notification.EmployeeRecipient(resolved.EmployeeID),
		Type:      notification.TypeRequestResolved,
		Title:     "Your " + humanType(resolved.Type) + " request was " + string(status),
		Message:   fmt.Sprintf("Your %s request was %s.", humanType(resolved.Type), status),
		Data:      map[string]interface{}{"request_id": resolved.ID, "type": resolved.Type, "status": status},
	}
	if e, err := s.getEmployee(ctx, resolved.EmployeeID); err == nil {
		n.RecipientEmail = &e.Email
	}
	s.notifications.Queue(ctx, n)

	return approval.ToResponse(resolved), nil
}

// ListPending implements approval.RouterService.
func (s *RouterServiceImpl) ListPending(ctx context.Context, approver approval.Approver) (approval.PendingRequests, error) {
	var (
		requests []approval.Request
		err      error
	)
	switch approver.Role {
	case approval.ApproverHR:
		requests, err = s.RequestRepository.ListPendingForHR(ctx, approver.CompanyID)
	case approval.ApproverDecisionMaker:
		if approver.EmployeeID == nil {
			return nil, approval.ErrNotDecisionMaker
		}
		requests, err = s.RequestRepository.ListPendingForDecisionMaker(ctx, approver.CompanyID, *approver.EmployeeID)
	default:
		return nil, approval.ErrNotRequestApprover
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list pending requests: %w", err)
	}
	return approval.NewPendingRequests(requests), nil
}

// ListPendingForHR implements approval.RouterService.
func (s *RouterServiceImpl) ListPendingForHR(ctx context.Context, hrEmail string) (approval.PendingRequests, error) {
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
	return s.ListPending(ctx, approval.Approver{Role: approval.ApproverHR, CompanyID: hr.CompanyID, UserID: hr.ID})
}

// ListPendingForDecisionMaker implements approval.RouterService.
func (s *RouterServiceImpl) ListPendingForDecisionMaker(ctx context.Context, employeeID string) (approval.PendingRequests, error) {
	e, err := s.getEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	dm, err := s.policy.DecisionMakerFor(ctx, e.CompanyID)
	if err != nil {
		return nil, err
	}
	if dm == nil || *dm != e.ID {
		return nil, approval.ErrNotDecisionMaker
	}
	return s.ListPending(ctx, approval.Approver{Role: approval.ApproverDecisionMaker, CompanyID: e.CompanyID, EmployeeID: &e.ID})
}

// ListByEmployee implements approval.RouterService.
func (s *RouterServiceImpl) ListByEmployee(ctx context.Context, employeeID string) ([]approval.RequestResponse, error) {
	if _, err := s.getEmployee(ctx, employeeID); err != nil {
		return nil, err
	}
	requests, err := s.RequestRepository.ListByEmployeeID(ctx, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	responses := make([]approval.RequestResponse, len(requests))
	for i, r := range requests {
		responses[i] = approval.ToResponse(r)
	}
	return responses, nil
}

func (s *RouterServiceImpl) publish(ctx context.Context, eventType string, r approval.Request) {
	evt, err := events.NewEvent(eventType, "approval_request", r.EmployeeID, r.CompanyID, approval.ToResponse(r))
	if err != nil {
		slog.Error("Failed to build event", "type", eventType, "error", err)
		return
	}
	if err := s.publisher.Publish(context.WithoutCancel(ctx), evt); err != nil {
		slog.Error("Failed to publish event", "type", eventType, "request_id", r.ID, "error", err)
	}
}

func humanType(t approval.RequestType) string {
	switch t {
	case approval.TypeSkillVerification:
		return "skill verification"
	case approval.TypeSelfLearning:
		return "self learning"
	case approval.TypeExtraAttempt:
		return "extra attempt"
	}
	return string(t)
}
