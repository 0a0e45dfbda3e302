package company

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/talent-backend-go/internal/domain/company"
	"github.com/cmlabs-hris/talent-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/talent-backend-go/internal/domain/policy"
	"github.com/cmlabs-hris/talent-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/talent-backend-go/internal/fixtures/memtest"
	policyservice "github.com/cmlabs-hris/talent-backend-go/internal/service/policy"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type testEnv struct {
	svc       company.CompanyService
	companies *memtest.CompanyRepository
	employees *memtest.EmployeeRepository
	users     *memtest.UserRepository
	engine    policy.PolicyEngine
	publisher *memtest.Publisher
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	clock := memtest.NewClock()
	env := testEnv{
		companies: memtest.NewCompanyRepository(clock),
		employees: memtest.NewEmployeeRepository(clock),
		users:     memtest.NewUserRepository(),
		publisher: &memtest.Publisher{},
	}
	env.engine = policyservice.NewPolicyEngine(env.companies, env.employees, 16, time.Minute)
	env.svc = NewCompanyService(&memtest.Transactor{}, env.companies, env.employees, env.users, env.engine, env.publisher)
	return env
}

func TestCompanyService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("complete manual organization", func(t *testing.T) {
		env := newTestEnv(t)

		resp, err := env.svc.Register(ctx, memtest.DefaultRegistration("academy", company.ApprovalPolicyManual))

		require.NoError(t, err)
		assert.Equal(t, string(company.StatusActive), resp.Company.Status)
		assert.Equal(t, string(company.ApprovalPolicyManual), resp.Company.LearningPathApprovalPolicy)
		require.Len(t, resp.Company.Departments, 1)
		require.Len(t, resp.Company.Teams, 1)
		assert.Equal(t, resp.Company.Departments[0].ID, *resp.Company.Teams[0].DepartmentID)

		require.NotNil(t, resp.Company.DecisionMakerID)
		dm, err := env.employees.GetByID(ctx, *resp.Company.DecisionMakerID)
		require.NoError(t, err)
		assert.Equal(t, "dewi@academy.test", dm.Email)

		members, err := env.employees.ListByCompanyID(ctx, resp.Company.ID)
		require.NoError(t, err)
		assert.Len(t, members, 3)

		violations, err := env.engine.ValidateOrgCompleteness(ctx, resp.Company.ID)
		require.NoError(t, err)
		assert.Empty(t, violations)

		hr, err := env.users.GetByEmail(ctx, "hr@academy.test")
		require.NoError(t, err)
		assert.Equal(t, resp.HRUserID, hr.ID)
		assert.Equal(t, user.RoleHR, hr.Role)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hr.PasswordHash), []byte("password123")))
		assert.Contains(t, env.publisher.Types(), "company.registered")
	})

	t.Run("team manager joins the team's department", func(t *testing.T) {
		env := newTestEnv(t)

		resp, err := env.svc.Register(ctx, memtest.DefaultRegistration("academy", company.ApprovalPolicyAuto))
		require.NoError(t, err)

		members, err := env.employees.ListByCompanyID(ctx, resp.Company.ID)
		require.NoError(t, err)
		for _, m := range members {
			if m.ManagerType != nil && *m.ManagerType == employee.ManagerTypeTeam {
				require.NotNil(t, m.DepartmentID)
				assert.Equal(t, resp.Company.Departments[0].ID, *m.DepartmentID)
			}
		}
	})

	t.Run("incomplete organization reports every violation", func(t *testing.T) {
		env := newTestEnv(t)
		req := memtest.DefaultRegistration("academy", company.ApprovalPolicyManual)
		req.DecisionMaker = nil
		req.Departments = append(req.Departments, company.RegisterDepartment{Name: "Sales"})

		_, err := env.svc.Register(ctx, req)

		var violations policy.ViolationList
		require.ErrorAs(t, err, &violations)
		assert.True(t, violations.Has(policy.CodeDecisionMakerRequired))
		assert.True(t, violations.Has(policy.CodeDepartmentManagerMissing))
		_, err = env.users.GetByEmail(ctx, "hr@academy.test")
		assert.Error(t, err)
	})

	t.Run("manager of an undeclared unit", func(t *testing.T) {
		env := newTestEnv(t)
		req := memtest.DefaultRegistration("academy", company.ApprovalPolicyAuto)
		req.Managers[1].ManagerOf = "Infra"

		_, err := env.svc.Register(ctx, req)

		assert.ErrorIs(t, err, company.ErrUnknownUnitReference)
	})

	t.Run("duplicate unit names", func(t *testing.T) {
		env := newTestEnv(t)
		req := memtest.DefaultRegistration("academy", company.ApprovalPolicyAuto)
		req.Departments = append(req.Departments, company.RegisterDepartment{Name: "engineering"})

		_, err := env.svc.Register(ctx, req)

		assert.ErrorIs(t, err, company.ErrDuplicateUnitName)
	})

	t.Run("username taken", func(t *testing.T) {
		env := newTestEnv(t)
		_, err := env.svc.Register(ctx, memtest.DefaultRegistration("academy", company.ApprovalPolicyAuto))
		require.NoError(t, err)

		_, err = env.svc.Register(ctx, memtest.DefaultRegistration("academy", company.ApprovalPolicyAuto))

		assert.ErrorIs(t, err, company.ErrCompanyUsernameExists)
	})
}

func TestCompanyService_UnitsAndActivation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	registered, err := env.svc.Register(ctx, memtest.DefaultRegistration("academy", company.ApprovalPolicyAuto))
	require.NoError(t, err)
	companyID := registered.Company.ID

	dep, err := env.svc.AddDepartment(ctx, companyID, company.CreateDepartmentRequest{Name: "Sales"})
	require.NoError(t, err)

	got, err := env.svc.GetByID(ctx, companyID)
	require.NoError(t, err)
	assert.Equal(t, string(company.StatusPending), got.Status)
	assert.Len(t, got.Departments, 2)

	_, err = env.svc.Activate(ctx, companyID)
	var violations policy.ViolationList
	require.ErrorAs(t, err, &violations)
	assert.True(t, violations.Has(policy.CodeDepartmentManagerMissing))

	managerType := employee.ManagerTypeDepartment
	_, err = env.employees.Create(ctx, employee.Employee{
		CompanyID: companyID, FullName: "Eko Prasetyo", Email: "eko@academy.test",
		EmployeeType: employee.EmployeeTypeRegular, IsManager: true,
		ManagerType: &managerType, ManagerOfID: &dep.ID,
	})
	require.NoError(t, err)

	activated, err := env.svc.Activate(ctx, companyID)
	require.NoError(t, err)
	assert.Equal(t, string(company.StatusActive), activated.Status)

	_, err = env.svc.Activate(ctx, companyID)
	assert.ErrorIs(t, err, company.ErrCompanyAlreadyActive)

	_, err = env.svc.AddTeam(ctx, companyID, company.CreateTeamRequest{Name: "Growth", DepartmentID: memtest.StrPtr("00000000-0000-0000-0000-000000000000")})
	assert.ErrorIs(t, err, company.ErrDepartmentNotFound)

	_, err = env.svc.AddDepartment(ctx, companyID, company.CreateDepartmentRequest{Name: "Sales"})
	assert.ErrorIs(t, err, company.ErrDuplicateUnitName)
}

func TestCompanyService_UpdatePolicy(t *testing.T) {
	ctx := context.Background()

	t.Run("manual requires a decision maker", func(t *testing.T) {
		env := newTestEnv(t)
		registered, err := env.svc.Register(ctx, memtest.DefaultRegistration("academy", company.ApprovalPolicyAuto))
		require.NoError(t, err)

		_, err = env.svc.UpdatePolicy(ctx, registered.Company.ID, company.UpdatePolicyRequest{LearningPathApprovalPolicy: "manual"})

		var violations policy.ViolationList
		require.ErrorAs(t, err, &violations)
		assert.True(t, violations.Has(policy.CodeDecisionMakerRequired))
	})

	t.Run("switching to manual is visible to the policy engine", func(t *testing.T) {
		env := newTestEnv(t)
		registered, err := env.svc.Register(ctx, memtest.DefaultRegistration("academy", company.ApprovalPolicyAuto))
		require.NoError(t, err)
		companyID := registered.Company.ID

		// warm the cache with the auto policy
		dm, err := env.engine.DecisionMakerFor(ctx, companyID)
		require.NoError(t, err)
		require.Nil(t, dm)

		members, err := env.employees.ListByCompanyID(ctx, companyID)
		require.NoError(t, err)
		target := members[0].ID

		resp, err := env.svc.UpdatePolicy(ctx, companyID, company.UpdatePolicyRequest{LearningPathApprovalPolicy: "manual", DecisionMakerID: &target})
		require.NoError(t, err)
		assert.Equal(t, target, *resp.DecisionMakerID)

		dm, err = env.engine.DecisionMakerFor(ctx, companyID)
		require.NoError(t, err)
		require.NotNil(t, dm)
		assert.Equal(t, target, *dm)

		resp, err = env.svc.UpdatePolicy(ctx, companyID, company.UpdatePolicyRequest{LearningPathApprovalPolicy: "auto", DecisionMakerID: &target})
		require.NoError(t, err)
		assert.Nil(t, resp.DecisionMakerID)
	})

	t.Run("decision maker from another company", func(t *testing.T) {
		env := newTestEnv(t)
		first, err := env.svc.Register(ctx, memtest.DefaultRegistration("academy", company.ApprovalPolicyAuto))
		require.NoError(t, err)
		second, err := env.svc.Register(ctx, memtest.DefaultRegistration("other", company.ApprovalPolicyAuto))
		require.NoError(t, err)
		outsiders, err := env.employees.ListByCompanyID(ctx, second.Company.ID)
		require.NoError(t, err)

		_, err = env.svc.UpdatePolicy(ctx, first.Company.ID, company.UpdatePolicyRequest{LearningPathApprovalPolicy: "manual", DecisionMakerID: &outsiders[0].ID})

		var violations policy.ViolationList
		require.ErrorAs(t, err, &violations)
		require.Len(t, violations, 1)
		assert.Equal(t, policy.CodeDecisionMakerNotFound, violations[0].Code)
		assert.Equal(t, outsiders[0].ID, violations[0].Subject)
	})

	t.Run("unknown decision maker", func(t *testing.T) {
		env := newTestEnv(t)
		registered, err := env.svc.Register(ctx, memtest.DefaultRegistration("academy", company.ApprovalPolicyAuto))
		require.NoError(t, err)
		missing := uuid.NewString()

		_, err = env.svc.UpdatePolicy(ctx, registered.Company.ID, company.UpdatePolicyRequest{LearningPathApprovalPolicy: "manual", DecisionMakerID: &missing})

		var violations policy.ViolationList
		require.ErrorAs(t, err, &violations)
		require.Len(t, violations, 1)
		assert.Equal(t, policy.CodeDecisionMakerNotFound, violations[0].Code)

		c, err := env.svc.GetByID(ctx, registered.Company.ID)
		require.NoError(t, err)
		assert.Equal(t, "auto", string(c.LearningPathApprovalPolicy))
	})
}
