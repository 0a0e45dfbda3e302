package approval

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/talent-backend-go/internal/domain/approval"
	"github.com/cmlabs-hris/talent-backend-go/internal/domain/company"
	"github.com/cmlabs-hris/talent-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/talent-backend-go/internal/domain/notification"
	"github.com/cmlabs-hris/talent-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/talent-backend-go/internal/fixtures/memtest"
	"github.com/cmlabs-hris/talent-backend-go/internal/pkg/validator"
	policyservice "github.com/cmlabs-hris/talent-backend-go/internal/service/policy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	trainingPayload     = json.RawMessage(`{"course_id":"go-101","course_name":"Go Fundamentals","reason":"platform migration"}`)
	extraAttemptPayload = json.RawMessage(`{"course_id":"go-101","course_name":"Go Fundamentals","current_attempts":2,"reason":"failed twice"}`)
)

type testEnv struct {
	svc       approval.RouterService
	requests  *memtest.RequestRepository
	notifier  *memtest.Notifier
	publisher *memtest.Publisher
	org       memtest.Org
}

func newTestEnv(t *testing.T, policy company.ApprovalPolicy) testEnv {
	t.Helper()
	clock := memtest.NewClock()
	companies := memtest.NewCompanyRepository(clock)
	employees := memtest.NewEmployeeRepository(clock)
	users := memtest.NewUserRepository()
	org := memtest.SeedOrganization(companies, employees, users, policy)

	env := testEnv{
		requests:  memtest.NewRequestRepository(clock),
		notifier:  &memtest.Notifier{},
		publisher: &memtest.Publisher{},
		org:       org,
	}
	engine := policyservice.NewPolicyEngine(companies, employees, 16, time.Minute)
	env.svc = NewRouterService(env.requests, employees, users, engine, env.notifier, env.publisher)
	return env
}

func (env testEnv) hr() approval.Approver {
	return approval.Approver{Role: approval.ApproverHR, CompanyID: env.org.CompanyID, UserID: env.org.HRUserID}
}

func (env testEnv) decisionMaker() approval.Approver {
	id := env.org.DecisionMakerID
	return approval.Approver{Role: approval.ApproverDecisionMaker, CompanyID: env.org.CompanyID, EmployeeID: &id}
}

func approve() approval.ResolveRequest {
	return approval.ResolveRequest{Status: string(approval.StatusApproved)}
}

func TestRouterService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("manual policy routes training to the decision maker", func(t *testing.T) {
		env := newTestEnv(t, company.ApprovalPolicyManual)

		created, err := env.svc.Create(ctx, env.org.RegularID, approval.TypeTraining, trainingPayload)

		require.NoError(t, err)
		assert.Equal(t, string(approval.ApproverDecisionMaker), created.ApproverRole)
		require.NotNil(t, created.ApproverID)
		assert.Equal(t, env.org.DecisionMakerID, *created.ApproverID)

		dmPending, err := env.svc.ListPendingForDecisionMaker(ctx, env.org.DecisionMakerID)
		require.NoError(t, err)
		assert.Len(t, dmPending[approval.TypeTraining], 1)

		hrPending, err := env.svc.ListPendingForHR(ctx, env.org.HREmail)
		require.NoError(t, err)
		assert.Empty(t, hrPending[approval.TypeTraining])

		sent := env.notifier.To(notification.EmployeeRecipient(env.org.DecisionMakerID))
		require.Len(t, sent, 1)
		assert.Equal(t, notification.TypeRequestCreated, sent[0].Type)
		require.NotNil(t, sent[0].RecipientEmail)
		assert.Equal(t, "dewi@academy.test", *sent[0].RecipientEmail)
		assert.Contains(t, env.publisher.Types(), "request.created")
	})

	t.Run("auto policy routes training to HR", func(t *testing.T) {
		env := newTestEnv(t, company.ApprovalPolicyAuto)

		created, err := env.svc.Create(ctx, env.org.RegularID, approval.TypeTraining, trainingPayload)

		require.NoError(t, err)
		assert.Equal(t, string(approval.ApproverHR), created.ApproverRole)
		assert.Nil(t, created.ApproverID)
		assert.Len(t, env.notifier.To(notification.HRRecipient(env.org.CompanyID)), 1)
	})

	t.Run("extra attempts always go to HR", func(t *testing.T) {
		env := newTestEnv(t, company.ApprovalPolicyManual)

		created, err := env.svc.Create(ctx, env.org.RegularID, approval.TypeExtraAttempt, extraAttemptPayload)

		require.NoError(t, err)
		assert.Equal(t, string(approval.ApproverHR), created.ApproverRole)

		hrPending, err := env.svc.ListPendingForHR(ctx, env.org.HREmail)
		require.NoError(t, err)
		assert.Len(t, hrPending[approval.TypeExtraAttempt], 1)
		assert.Len(t, hrPending, len(approval.AllTypes))
	})

	t.Run("decision maker's own request goes to HR", func(t *testing.T) {
		env := newTestEnv(t, company.ApprovalPolicyManual)

		created, err := env.svc.Create(ctx, env.org.DecisionMakerID, approval.TypeTraining, trainingPayload)

		require.NoError(t, err)
		assert.Equal(t, string(approval.ApproverHR), created.ApproverRole)
	})

	t.Run("invalid payload", func(t *testing.T) {
		env := newTestEnv(t, company.ApprovalPolicyAuto)

		_, err := env.svc.Create(ctx, env.org.RegularID, approval.TypeTraining, json.RawMessage(`{"course_id":"go-101"}`))

		var verrs validator.ValidationErrors
		require.ErrorAs(t, err, &verrs)
		assert.Contains(t, verrs.ToMap(), "reason")
	})

	t.Run("unknown employee", func(t *testing.T) {
		env := newTestEnv(t, company.ApprovalPolicyAuto)

		_, err := env.svc.Create(ctx, "missing", approval.TypeTraining, trainingPayload)

		assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)
	})
}

func TestRouterService_Resolve(t *testing.T) {
	ctx := context.Background()

	t.Run("decision maker approves and the employee is notified", func(t *testing.T) {
		env := newTestEnv(t, company.ApprovalPolicyManual)
		created, err := env.svc.Create(ctx, env.org.RegularID, approval.TypeTraining, trainingPayload)
		require.NoError(t, err)

		resolved, err := env.svc.Resolve(ctx, approval.TypeTraining, created.ID, env.decisionMaker(), approve())

		require.NoError(t, err)
		assert.Equal(t, string(approval.StatusApproved), resolved.Status)
		require.NotNil(t, resolved.ResolvedBy)
		assert.Equal(t, env.org.DecisionMakerID, *resolved.ResolvedBy)
		assert.NotNil(t, resolved.ResolvedAt)

		sent := env.notifier.To(notification.EmployeeRecipient(env.org.RegularID))
		require.Len(t, sent, 1)
		assert.Equal(t, notification.TypeRequestResolved, sent[0].Type)
		assert.Contains(t, env.publisher.Types(), "request.approved")
	})

	t.Run("HR cannot resolve a decision maker request", func(t *testing.T) {
		env := newTestEnv(t, company.ApprovalPolicyManual)
		created, err := env.svc.Create(ctx, env.org.RegularID, approval.TypeTraining, trainingPayload)
		require.NoError(t, err)

		_, err = env.svc.Resolve(ctx, approval.TypeTraining, created.ID, env.hr(), approve())

		assert.ErrorIs(t, err, approval.ErrNotRequestApprover)
	})

	t.Run("type in the path must match", func(t *testing.T) {
		env := newTestEnv(t, company.ApprovalPolicyAuto)
		created, err := env.svc.Create(ctx, env.org.RegularID, approval.TypeTraining, trainingPayload)
		require.NoError(t, err)

		_, err = env.svc.Resolve(ctx, approval.TypeSelfLearning, created.ID, env.hr(), approve())

		assert.ErrorIs(t, err, approval.ErrRequestTypeMismatch)
	})

	t.Run("second resolution is rejected and keeps the first", func(t *testing.T) {
		env := newTestEnv(t, company.ApprovalPolicyAuto)
		created, err := env.svc.Create(ctx, env.org.RegularID, approval.TypeExtraAttempt, extraAttemptPayload)
		require.NoError(t, err)
		first, err := env.svc.Resolve(ctx, approval.TypeExtraAttempt, created.ID, env.hr(), approve())
		require.NoError(t, err)

		_, err = env.svc.Resolve(ctx, approval.TypeExtraAttempt, created.ID, env.hr(), approval.ResolveRequest{Status: string(approval.StatusRejected)})

		assert.ErrorIs(t, err, approval.ErrRequestAlreadyProcessed)
		stored, err := env.requests.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, approval.StatusApproved, stored.Status)
		assert.Equal(t, *first.ResolvedAt, *stored.ResolvedAt)
	})

	t.Run("concurrent resolutions have a single winner", func(t *testing.T) {
		env := newTestEnv(t, company.ApprovalPolicyAuto)
		created, err := env.svc.Create(ctx, env.org.RegularID, approval.TypeExtraAttempt, extraAttemptPayload)
		require.NoError(t, err)

		const callers = 8
		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			succeeded int
			conflicts int
		)
		for i := 0; i < callers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := env.svc.Resolve(ctx, approval.TypeExtraAttempt, created.ID, env.hr(), approve())
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					succeeded++
				case errors.Is(err, approval.ErrRequestAlreadyProcessed):
					conflicts++
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, succeeded)
		assert.Equal(t, callers-1, conflicts)
		assert.Len(t, env.notifier.To(notification.EmployeeRecipient(env.org.RegularID)), 1)
	})

	t.Run("unknown request", func(t *testing.T) {
		env := newTestEnv(t, company.ApprovalPolicyAuto)

		_, err := env.svc.Resolve(ctx, approval.TypeTraining, "missing", env.hr(), approve())

		assert.ErrorIs(t, err, approval.ErrRequestNotFound)
	})
}

func TestRouterService_Listings(t *testing.T) {
	ctx := context.Background()

	t.Run("non decision maker cannot list", func(t *testing.T) {
		env := newTestEnv(t, company.ApprovalPolicyManual)

		_, err := env.svc.ListPendingForDecisionMaker(ctx, env.org.RegularID)

		assert.ErrorIs(t, err, approval.ErrNotDecisionMaker)
	})

	t.Run("no decision maker under auto policy", func(t *testing.T) {
		env := newTestEnv(t, company.ApprovalPolicyAuto)

		_, err := env.svc.ListPendingForDecisionMaker(ctx, env.org.DecisionMakerID)

		assert.ErrorIs(t, err, approval.ErrNotDecisionMaker)
	})

	t.Run("HR listing is scoped to the HR company", func(t *testing.T) {
		env := newTestEnv(t, company.ApprovalPolicyAuto)
		_, err := env.svc.Create(ctx, env.org.RegularID, approval.TypeExtraAttempt, extraAttemptPayload)
		require.NoError(t, err)

		pending, err := env.svc.ListPendingForHR(ctx, env.org.OtherCompanyHREmail)

		require.NoError(t, err)
		assert.Empty(t, pending[approval.TypeExtraAttempt])
	})

	t.Run("unknown HR email", func(t *testing.T) {
		env := newTestEnv(t, company.ApprovalPolicyAuto)

		_, err := env.svc.ListPendingForHR(ctx, "nobody@academy.test")

		assert.ErrorIs(t, err, user.ErrUserNotFound)
	})

	t.Run("employee sees own requests", func(t *testing.T) {
		env := newTestEnv(t, company.ApprovalPolicyAuto)
		_, err := env.svc.Create(ctx, env.org.RegularID, approval.TypeTraining, trainingPayload)
		require.NoError(t, err)
		_, err = env.svc.Create(ctx, env.org.ExternalID, approval.TypeTraining, trainingPayload)
		require.NoError(t, err)

		mine, err := env.svc.ListByEmployee(ctx, env.org.RegularID)

		require.NoError(t, err)
		require.Len(t, mine, 1)
		assert.Equal(t, env.org.RegularID, mine[0].EmployeeID)
	})
}
