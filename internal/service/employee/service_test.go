package employee

import (
	"context"
	"testing"

	"github.com/cmlabs-hris/talent-backend-go/internal/domain/company"
	"github.com/cmlabs-hris/talent-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/talent-backend-go/internal/fixtures/memtest"
	"github.com/cmlabs-hris/talent-backend-go/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type testEnv struct {
	svc       employee.EmployeeService
	users     *memtest.UserRepository
	publisher *memtest.Publisher
	org       memtest.Org
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	clock := memtest.NewClock()
	companies := memtest.NewCompanyRepository(clock)
	employees := memtest.NewEmployeeRepository(clock)
	users := memtest.NewUserRepository()
	org := memtest.SeedOrganization(companies, employees, users, company.ApprovalPolicyAuto)

	env := testEnv{users: users, publisher: &memtest.Publisher{}, org: org}
	env.svc = NewEmployeeService(&memtest.Transactor{}, employees, companies, users, env.publisher)
	return env
}

func TestEmployeeService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("with login account", func(t *testing.T) {
		env := newTestEnv(t)

		resp, err := env.svc.Create(ctx, employee.CreateEmployeeRequest{
			CompanyID:    env.org.CompanyID,
			FullName:     "Tono Hartono",
			Email:        "Tono@Academy.test",
			Password:     memtest.StrPtr("password123"),
			EmployeeType: string(employee.EmployeeTypeInternalInstructor),
			DepartmentID: memtest.StrPtr(env.org.DepartmentID),
		})

		require.NoError(t, err)
		assert.Equal(t, "tono@academy.test", resp.Email)
		assert.Equal(t, string(employee.ProfileStatusUnenriched), resp.ProfileStatus)

		u, err := env.users.GetByEmail(ctx, "tono@academy.test")
		require.NoError(t, err)
		require.NotNil(t, u.EmployeeID)
		assert.Equal(t, resp.ID, *u.EmployeeID)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("password123")))
		assert.Contains(t, env.publisher.Types(), "employee.created")
	})

	t.Run("defaults to regular without account", func(t *testing.T) {
		env := newTestEnv(t)

		resp, err := env.svc.Create(ctx, employee.CreateEmployeeRequest{
			CompanyID: env.org.CompanyID,
			FullName:  "Lina Marlina",
			Email:     "lina@academy.test",
		})

		require.NoError(t, err)
		assert.Equal(t, string(employee.EmployeeTypeRegular), resp.EmployeeType)
		_, err = env.users.GetByEmail(ctx, "lina@academy.test")
		assert.Error(t, err)
	})

	t.Run("manager of an unknown unit", func(t *testing.T) {
		env := newTestEnv(t)

		_, err := env.svc.Create(ctx, employee.CreateEmployeeRequest{
			CompanyID:   env.org.CompanyID,
			FullName:    "Joko Susilo",
			Email:       "joko@academy.test",
			ManagerType: memtest.StrPtr(string(employee.ManagerTypeTeam)),
			ManagerOfID: memtest.StrPtr(env.org.DepartmentID),
		})

		assert.ErrorIs(t, err, employee.ErrManagedUnitNotFound)
	})

	t.Run("duplicate email in company", func(t *testing.T) {
		env := newTestEnv(t)

		_, err := env.svc.Create(ctx, employee.CreateEmployeeRequest{
			CompanyID: env.org.CompanyID,
			FullName:  "Andi Again",
			Email:     "andi@academy.test",
		})

		assert.ErrorIs(t, err, employee.ErrEmailExists)
	})

	t.Run("unknown company", func(t *testing.T) {
		env := newTestEnv(t)

		_, err := env.svc.Create(ctx, employee.CreateEmployeeRequest{
			CompanyID: "missing",
			FullName:  "Nobody",
			Email:     "nobody@academy.test",
		})

		assert.ErrorIs(t, err, company.ErrCompanyNotFound)
	})

	t.Run("invalid request", func(t *testing.T) {
		env := newTestEnv(t)

		_, err := env.svc.Create(ctx, employee.CreateEmployeeRequest{
			CompanyID:    env.org.CompanyID,
			Email:        "not-an-email",
			EmployeeType: "contractor",
		})

		var verrs validator.ValidationErrors
		require.ErrorAs(t, err, &verrs)
		fields := verrs.ToMap()
		assert.Contains(t, fields, "full_name")
		assert.Contains(t, fields, "email")
		assert.Contains(t, fields, "employee_type")
	})
}

func TestEmployeeService_GetAndList(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	e, err := env.svc.GetByID(ctx, env.org.RegularID)
	require.NoError(t, err)
	assert.Equal(t, "Andi Saputra", e.FullName)

	_, err = env.svc.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)

	list, err := env.svc.ListByCompany(ctx, env.org.CompanyID)
	require.NoError(t, err)
	assert.Len(t, list, 5)
}
