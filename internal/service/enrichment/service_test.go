package enrichment

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cmlabs-hris/talent-backend-go/internal/domain/company"
	"github.com/cmlabs-hris/talent-backend-go/internal/domain/connection"
	"github.com/cmlabs-hris/talent-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/talent-backend-go/internal/domain/enrichment"
	"github.com/cmlabs-hris/talent-backend-go/internal/domain/notification"
	"github.com/cmlabs-hris/talent-backend-go/internal/domain/profile"
	"github.com/cmlabs-hris/talent-backend-go/internal/fixtures/memtest"
	"github.com/cmlabs-hris/talent-backend-go/internal/pkg/lock"
	connectionservice "github.com/cmlabs-hris/talent-backend-go/internal/service/connection"
	policyservice "github.com/cmlabs-hris/talent-backend-go/internal/service/policy"
	profileservice "github.com/cmlabs-hris/talent-backend-go/internal/service/profile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubCollector echoes the stored payloads. When gate is set, Collect signals
// entered and blocks until gate is closed.
type stubCollector struct {
	calls   atomic.Int32
	entered chan struct{}
	gate    chan struct{}
	err     error
}

func (c *stubCollector) Collect(ctx context.Context, snapshot connection.Snapshot) (enrichment.ProviderData, error) {
	c.calls.Add(1)
	if c.gate != nil {
		c.entered <- struct{}{}
		<-c.gate
	}
	if c.err != nil {
		return enrichment.ProviderData{}, c.err
	}
	var data enrichment.ProviderData
	if snapshot.GitHub != nil {
		data.GitHub = snapshot.GitHub.ProfilePayload
	}
	if snapshot.LinkedIn != nil {
		data.LinkedIn = snapshot.LinkedIn.ProfilePayload
	}
	return data, nil
}

type stubEnricher struct {
	mu     sync.Mutex
	result enrichment.Enrichment
	err    error
	seen   []enrichment.ProviderData
}

func (e *stubEnricher) Enrich(_ context.Context, data enrichment.ProviderData) (enrichment.Enrichment, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.seen = append(e.seen, data)
	return e.result, e.err
}

type testEnv struct {
	svc         enrichment.EnrichmentService
	profiles    profile.ProfileService
	connections connection.ConnectionService
	employees   *memtest.EmployeeRepository
	results     *memtest.ResultRepository
	notifier    *memtest.Notifier
	collector   *stubCollector
	enricher    *stubEnricher
	org         memtest.Org
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	clock := memtest.NewClock()
	companies := memtest.NewCompanyRepository(clock)
	employees := memtest.NewEmployeeRepository(clock)
	users := memtest.NewUserRepository()
	org := memtest.SeedOrganization(companies, employees, users, company.ApprovalPolicyAuto)

	env := &testEnv{
		employees: employees,
		results:   memtest.NewResultRepository(clock),
		notifier:  &memtest.Notifier{},
		collector: &stubCollector{},
		enricher: &stubEnricher{result: enrichment.Enrichment{
			Bio:      "Backend engineer focused on Go services.",
			Projects: []enrichment.Project{{Name: "talent-api"}},
			Skills:   []string{"go", "postgresql"},
		}},
		org: org,
	}
	pub := &memtest.Publisher{}
	engine := policyservice.NewPolicyEngine(companies, employees, 16, time.Minute)
	env.profiles = profileservice.NewProfileService(&memtest.Transactor{}, employees, users, engine, env.notifier, pub)
	env.connections = connectionservice.NewConnectionService(memtest.NewConnectionRepository(clock), employees, pub)
	env.svc = NewEnrichmentService(employees, env.results, env.connections, env.profiles,
		env.collector, env.enricher, lock.NewMemoryLocker(), env.notifier, pub,
		Config{Timeout: 5 * time.Second, LockTTL: 10 * time.Second})
	return env
}

func (env *testEnv) connect(t *testing.T, employeeID string, provider connection.Provider, payload string) {
	t.Helper()
	err := env.connections.SetConnected(context.Background(), employeeID, provider, connection.Grant{
		AccessToken: "token-" + string(provider),
		Profile:     json.RawMessage(payload),
	})
	require.NoError(t, err)
}

func (env *testEnv) status(id string) employee.ProfileStatus {
	return env.employees.Get(id).ProfileStatus
}

func TestTryTrigger_GitHubOnlyThenLinkedIn(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	id := env.org.RegularID
	env.connect(t, id, connection.ProviderGitHub, `{"user":{"login":"andi"}}`)

	got, err := env.svc.TryTrigger(ctx, id)

	require.NoError(t, err)
	assert.True(t, got.Triggered)
	assert.Equal(t, enrichment.ReasonExecuted, got.Reason)
	require.NotNil(t, got.Result)
	assert.True(t, got.Result.Succeeded())
	assert.Equal(t, "Backend engineer focused on Go services.", got.Result.Bio)
	assert.Empty(t, got.Result.LinkedInData)
	assert.Equal(t, employee.ProfileStatusApproved, env.status(id))

	again, err := env.svc.TryTrigger(ctx, id)
	require.NoError(t, err)
	assert.False(t, again.Triggered)
	assert.Equal(t, enrichment.ReasonAlreadyEnriched, again.Reason)
	assert.Equal(t, int32(1), env.collector.calls.Load())

	env.connect(t, id, connection.ProviderLinkedIn, `{"name":"Andi Saputra"}`)
	merged, err := env.svc.TryTrigger(ctx, id)

	require.NoError(t, err)
	assert.True(t, merged.Triggered)
	assert.JSONEq(t, `{"name":"Andi Saputra"}`, string(merged.Result.LinkedInData))
	assert.NotEqual(t, got.Result.SnapshotKey, merged.Result.SnapshotKey)
	assert.Equal(t, int32(2), env.collector.calls.Load())
	assert.Equal(t, employee.ProfileStatusApproved, env.status(id))
	assert.Len(t, env.results.All(id), 2)
}

func TestTryTrigger_ConcurrentCallsRunOnce(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	id := env.org.RegularID
	env.connect(t, id, connection.ProviderGitHub, `{"user":{}}`)
	env.collector.entered = make(chan struct{}, 1)
	env.collector.gate = make(chan struct{})

	first := make(chan enrichment.TriggerResult, 1)
	go func() {
		res, err := env.svc.TryTrigger(ctx, id)
		assert.NoError(t, err)
		first <- res
	}()
	<-env.collector.entered

	for i := 0; i < 5; i++ {
		res, err := env.svc.TryTrigger(ctx, id)
		require.NoError(t, err)
		assert.False(t, res.Triggered)
		assert.Equal(t, enrichment.ReasonInFlight, res.Reason)
	}
	assert.Equal(t, employee.ProfileStatusEnriching, env.status(id))

	close(env.collector.gate)
	res := <-first

	assert.True(t, res.Triggered)
	assert.Equal(t, int32(1), env.collector.calls.Load())
	assert.Len(t, env.results.All(id), 1)
	assert.Equal(t, employee.ProfileStatusApproved, env.status(id))
}

func TestTryTrigger_FailureRecordsErrorAndRestoresStatus(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	id := env.org.RegularID
	env.connect(t, id, connection.ProviderGitHub, `{"user":{}}`)
	env.enricher.err = errors.New("model unavailable")

	got, err := env.svc.TryTrigger(ctx, id)

	require.NoError(t, err)
	assert.True(t, got.Triggered)
	require.NotNil(t, got.Result.Error)
	assert.Contains(t, *got.Result.Error, "model unavailable")
	assert.Empty(t, got.Result.Bio)
	assert.Equal(t, employee.ProfileStatusUnenriched, env.status(id))

	sent := env.notifier.To(notification.EmployeeRecipient(id))
	require.Len(t, sent, 1)
	assert.Equal(t, notification.TypeEnrichmentFailed, sent[0].Type)

}

func TestTryTrigger_FailedSnapshotWaitsForReconnect(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	id := env.org.RegularID
	env.connect(t, id, connection.ProviderGitHub, `{"user":{}}`)
	env.enricher.err = errors.New("model unavailable")

	first, err := env.svc.TryTrigger(ctx, id)
	require.NoError(t, err)
	assert.True(t, first.Triggered)

	env.enricher.err = nil
	for i := 0; i < 2; i++ {
		again, err := env.svc.TryTrigger(ctx, id)
		require.NoError(t, err)
		assert.False(t, again.Triggered)
		assert.Equal(t, enrichment.ReasonAlreadyFailed, again.Reason)
		require.NotNil(t, again.Result)
		assert.Equal(t, first.Result.ID, again.Result.ID)
	}
	assert.Equal(t, int32(1), env.collector.calls.Load())
	assert.Len(t, env.results.All(id), 1)
	assert.Equal(t, employee.ProfileStatusUnenriched, env.status(id))

	env.connect(t, id, connection.ProviderGitHub, `{"user":{}}`)
	retry, err := env.svc.TryTrigger(ctx, id)
	require.NoError(t, err)
	assert.True(t, retry.Triggered)
	assert.True(t, retry.Result.Succeeded())
	assert.NotEqual(t, first.Result.SnapshotKey, retry.Result.SnapshotKey)
	assert.Equal(t, int32(2), env.collector.calls.Load())
	assert.Equal(t, employee.ProfileStatusApproved, env.status(id))
}

func TestTryTrigger_CollectFailure(t *testing.T) {
	env := newTestEnv(t)
	id := env.org.RegularID
	env.connect(t, id, connection.ProviderGitHub, `{"user":{}}`)
	env.collector.err = errors.New("github 502")

	got, err := env.svc.TryTrigger(context.Background(), id)

	require.NoError(t, err)
	require.NotNil(t, got.Result.Error)
	assert.Equal(t, employee.ProfileStatusUnenriched, env.status(id))
	assert.Empty(t, env.enricher.seen)
}

func TestTryTrigger_EmptyBio(t *testing.T) {
	env := newTestEnv(t)
	id := env.org.RegularID
	env.connect(t, id, connection.ProviderGitHub, `{"user":{}}`)
	env.enricher.result = enrichment.Enrichment{Bio: "   "}

	got, err := env.svc.TryTrigger(context.Background(), id)

	require.NoError(t, err)
	require.NotNil(t, got.Result.Error)
	assert.Equal(t, enrichment.ErrEmptyEnrichment.Error(), *got.Result.Error)
	assert.Equal(t, employee.ProfileStatusUnenriched, env.status(id))
}

func TestTryTrigger_RequiresGitHub(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	id := env.org.RegularID

	_, err := env.svc.TryTrigger(ctx, id)
	assert.ErrorIs(t, err, connection.ErrProviderNotConnected)

	env.connect(t, id, connection.ProviderLinkedIn, `{"name":"Andi"}`)
	_, err = env.svc.TryTrigger(ctx, id)
	assert.ErrorIs(t, err, connection.ErrProviderNotConnected)

	assert.Equal(t, int32(0), env.collector.calls.Load())
	assert.Equal(t, employee.ProfileStatusUnenriched, env.status(id))
}

func TestTryTrigger_ExternalInstructorNeedsReview(t *testing.T) {
	env := newTestEnv(t)
	id := env.org.ExternalID
	env.connect(t, id, connection.ProviderGitHub, `{"user":{}}`)

	_, err := env.svc.TryTrigger(context.Background(), id)

	require.NoError(t, err)
	assert.Equal(t, employee.ProfileStatusPendingApproval, env.status(id))
}

func TestTryTrigger_RejectedThenResubmitted(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	id := env.org.ExternalID
	env.connect(t, id, connection.ProviderGitHub, `{"user":{}}`)
	_, err := env.svc.TryTrigger(ctx, id)
	require.NoError(t, err)
	_, err = env.profiles.Reject(ctx, id, profile.Reviewer{CompanyID: env.org.CompanyID}, "missing projects")
	require.NoError(t, err)

	_, err = env.svc.TryTrigger(ctx, id)
	assert.ErrorIs(t, err, profile.ErrResubmitRequired)

	_, err = env.profiles.Resubmit(ctx, id)
	require.NoError(t, err)

	got, err := env.svc.TryTrigger(ctx, id)
	require.NoError(t, err)
	assert.True(t, got.Triggered)
	assert.Equal(t, employee.ProfileStatusPendingApproval, env.status(id))
	assert.Equal(t, int32(2), env.collector.calls.Load())
}

func TestTryTrigger_UnknownEmployee(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.TryTrigger(context.Background(), "missing")

	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)
}

func TestGetLatest_DisconnectMarksProviderStale(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	id := env.org.RegularID

	_, err := env.svc.GetLatest(ctx, id)
	assert.ErrorIs(t, err, enrichment.ErrResultNotFound)

	env.connect(t, id, connection.ProviderGitHub, `{"user":{}}`)
	env.connect(t, id, connection.ProviderLinkedIn, `{"name":"Andi"}`)
	_, err = env.svc.TryTrigger(ctx, id)
	require.NoError(t, err)

	require.NoError(t, env.connections.SetDisconnected(ctx, id, connection.ProviderLinkedIn))
	view, err := env.svc.GetLatest(ctx, id)

	require.NoError(t, err)
	assert.Equal(t, []string{"linkedin"}, view.StaleProviders)
	assert.Empty(t, view.Data.LinkedIn)
	assert.NotEmpty(t, view.Data.GitHub)
	assert.Equal(t, "Backend engineer focused on Go services.", view.Enrichment.Bio)
	assert.Equal(t, employee.ProfileStatusApproved, env.status(id))
	assert.Len(t, env.results.All(id), 1)
}
