package policy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/talent-backend-go/internal/domain/company"
	"github.com/cmlabs-hris/talent-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/talent-backend-go/internal/domain/policy"
	"github.com/cmlabs-hris/talent-backend-go/internal/pkg/events"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/jackc/pgx/v5"
)

type PolicyEngineImpl struct {
	company.CompanyRepository
	employee.EmployeeRepository
	cache *expirable.LRU[string, company.Company]
}

// NewPolicyEngine caches company policy settings for ttl. Invalidate must be
// called whenever a company's policy changes; other instances learn of the
// change through InvalidateOnPolicyUpdate.
func NewPolicyEngine(companyRepo company.CompanyRepository, employeeRepo employee.EmployeeRepository, size int, ttl time.Duration) policy.PolicyEngine {
	if size <= 0 {
		size = 1024
	}
	return &PolicyEngineImpl{
		CompanyRepository:  companyRepo,
		EmployeeRepository: employeeRepo,
		cache:              expirable.NewLRU[string, company.Company](size, nil, ttl),
	}
}

func (p *PolicyEngineImpl) company(ctx context.Context, companyID string) (company.Company, error) {
	if c, ok := p.cache.Get(companyID); ok {
		return c, nil
	}

	c, err := p.CompanyRepository.GetByID(ctx, companyID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return company.Company{}, company.ErrCompanyNotFound
		}
		return company.Company{}, fmt.Errorf("failed to get company: %w", err)
	}

	p.cache.Add(companyID, c)
	return c, nil
}

// DecisionMakerFor returns the configured decision maker, which is nil under
// the auto policy.
func (p *PolicyEngineImpl) DecisionMakerFor(ctx context.Context, companyID string) (*string, error) {
	c, err := p.company(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if c.LearningPathApprovalPolicy != company.ApprovalPolicyManual {
		return nil, nil
	}
	return c.DecisionMakerID, nil
}

func (p *PolicyEngineImpl) IsManualPolicy(ctx context.Context, companyID string) (bool, error) {
	c, err := p.company(ctx, companyID)
	if err != nil {
		return false, err
	}
	return c.LearningPathApprovalPolicy == company.ApprovalPolicyManual, nil
}

// ValidateOrgCompleteness always reads the organization fresh.
func (p *PolicyEngineImpl) ValidateOrgCompleteness(ctx context.Context, companyID string) (policy.ViolationList, error) {
	c, err := p.CompanyRepository.GetWithUnits(ctx, companyID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, company.ErrCompanyNotFound
		}
		return nil, fmt.Errorf("failed to get company units: %w", err)
	}

	members, err := p.EmployeeRepository.ListByCompanyID(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}

	return policy.ValidateOrgCompleteness(policy.Organization{Company: c, Members: members}), nil
}

func (p *PolicyEngineImpl) RequiresProfileReview(e employee.Employee) bool {
	return e.EmployeeType == employee.EmployeeTypeExternalInstructor
}

func (p *PolicyEngineImpl) Invalidate(companyID string) {
	p.cache.Remove(companyID)
}

// InvalidateOnPolicyUpdate returns an event handler that drops the cached
// policy of a company when any instance reports a policy change.
func InvalidateOnPolicyUpdate(engine policy.PolicyEngine) events.Handler {
	return func(_ context.Context, e events.Event) {
		if e.Type != company.EventPolicyUpdated {
			return
		}
		engine.Invalidate(e.CompanyID)
		slog.Debug("Policy cache invalidated", "company_id", e.CompanyID, "event_id", e.ID)
	}
}
