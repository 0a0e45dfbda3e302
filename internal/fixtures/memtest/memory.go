// Package memtest holds in-memory repositories and a seeded organization for
// service and handler tests.
package memtest

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/cmlabs-hris/talent-backend-go/internal/domain/approval"
	"github.com/cmlabs-hris/talent-backend-go/internal/domain/company"
	"github.com/cmlabs-hris/talent-backend-go/internal/domain/connection"
	"github.com/cmlabs-hris/talent-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/talent-backend-go/internal/domain/enrichment"
	"github.com/cmlabs-hris/talent-backend-go/internal/domain/notification"
	"github.com/cmlabs-hris/talent-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/talent-backend-go/internal/pkg/events"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Clock hands out strictly increasing timestamps so connected_at and
// processed_at values never collide in tests.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock() *Clock {
	return &Clock{now: time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Millisecond)
	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// ==========================================
// EMPLOYEES
// ==========================================

// EmployeeRepository applies transitions under one mutex, which gives the same
// single-winner behavior as the conditional UPDATE.
type EmployeeRepository struct {
	mu        sync.Mutex
	clock     *Clock
	employees map[string]employee.Employee
	order     []string
}

func NewEmployeeRepository(clock *Clock, seed ...employee.Employee) *EmployeeRepository {
	r := &EmployeeRepository{clock: clock, employees: make(map[string]employee.Employee)}
	for _, e := range seed {
		r.Put(e)
	}
	return r
}

// Put stores e as is, filling id, status and timestamps when blank.
func (r *EmployeeRepository) Put(e employee.Employee) employee.Employee {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.put(e)
}

func (r *EmployeeRepository) put(e employee.Employee) employee.Employee {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.ProfileStatus == "" {
		e.ProfileStatus = employee.ProfileStatusUnenriched
	}
	if e.CreatedAt.IsZero() {
		now := r.clock.Now()
		e.CreatedAt, e.UpdatedAt, e.ProfileStatusChangedAt = now, now, now
	}
	if _, ok := r.employees[e.ID]; !ok {
		r.order = append(r.order, e.ID)
	}
	r.employees[e.ID] = e
	return e
}

// Get returns the stored employee for assertions.
func (r *EmployeeRepository) Get(id string) employee.Employee {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.employees[id]
}

func (r *EmployeeRepository) Create(_ context.Context, e employee.Employee) (employee.Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.employees {
		if existing.CompanyID == e.CompanyID && existing.Email == e.Email {
			return employee.Employee{}, employee.ErrEmailExists
		}
	}
	e.ID = ""
	return r.put(e), nil
}

func (r *EmployeeRepository) GetByID(_ context.Context, id string) (employee.Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.employees[id]
	if !ok {
		return employee.Employee{}, pgx.ErrNoRows
	}
	return e, nil
}

func (r *EmployeeRepository) ListByCompanyID(_ context.Context, companyID string) ([]employee.Employee, error) {
	return r.filter(func(e employee.Employee) bool { return e.CompanyID == companyID }), nil
}

func (r *EmployeeRepository) ListByProfileStatus(_ context.Context, companyID string, status employee.ProfileStatus) ([]employee.Employee, error) {
	return r.filter(func(e employee.Employee) bool {
		return e.CompanyID == companyID && e.ProfileStatus == status
	}), nil
}

func (r *EmployeeRepository) filter(keep func(employee.Employee) bool) []employee.Employee {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []employee.Employee{}
	for _, id := range r.order {
		if e := r.employees[id]; keep(e) {
			out = append(out, e)
		}
	}
	return out
}

func (r *EmployeeRepository) TransitionProfileStatus(_ context.Context, id string, from []employee.ProfileStatus, to employee.ProfileStatus, notes *string) (employee.Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.employees[id]
	if !ok || !slices.Contains(from, e.ProfileStatus) {
		return employee.Employee{}, employee.ErrStatusTransitionFailed
	}
	e.ProfileStatus = to
	if notes != nil {
		e.ReviewNotes = notes
	}
	now := r.clock.Now()
	e.ProfileStatusChangedAt, e.UpdatedAt = now, now
	r.employees[id] = e
	return e, nil
}

func (r *EmployeeRepository) Resubmit(_ context.Context, id string) (employee.Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.employees[id]
	if !ok || e.ProfileStatus != employee.ProfileStatusRejected {
		return employee.Employee{}, employee.ErrStatusTransitionFailed
	}
	e.ProfileStatus = employee.ProfileStatusUnenriched
	e.EnrichmentEpoch++
	e.ReviewNotes = nil
	now := r.clock.Now()
	e.ProfileStatusChangedAt, e.UpdatedAt = now, now
	r.employees[id] = e
	return e, nil
}

func (r *EmployeeRepository) ResetStaleEnriching(_ context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, e := range r.employees {
		if e.ProfileStatus == employee.ProfileStatusEnriching && e.ProfileStatusChangedAt.Before(before) {
			e.ProfileStatus = employee.ProfileStatusUnenriched
			e.ProfileStatusChangedAt = r.clock.Now()
			r.employees[id] = e
			n++
		}
	}
	return n, nil
}

// ==========================================
// COMPANIES
// ==========================================

type CompanyRepository struct {
	mu          sync.Mutex
	clock       *Clock
	companies   map[string]company.Company
	departments []company.Department
	teams       []company.Team

	// GetByIDCalls counts reads that reached the repository.
	GetByIDCalls int
}

func NewCompanyRepository(clock *Clock, seed ...company.Company) *CompanyRepository {
	r := &CompanyRepository{clock: clock, companies: make(map[string]company.Company)}
	for _, c := range seed {
		r.Put(c)
	}
	return r
}

// Put stores c and its embedded departments and teams.
func (r *CompanyRepository) Put(c company.Company) company.Company {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	r.departments = append(r.departments, c.Departments...)
	r.teams = append(r.teams, c.Teams...)
	c.Departments, c.Teams = nil, nil
	r.companies[c.ID] = c
	return c
}

func (r *CompanyRepository) Create(_ context.Context, c company.Company) (company.Company, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.companies {
		if existing.Username == c.Username {
			return company.Company{}, company.ErrCompanyUsernameExists
		}
	}
	c.ID = uuid.New().String()
	now := r.clock.Now()
	c.CreatedAt, c.UpdatedAt = now, now
	r.companies[c.ID] = c
	return c, nil
}

func (r *CompanyRepository) GetByID(_ context.Context, id string) (company.Company, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.GetByIDCalls++
	c, ok := r.companies[id]
	if !ok {
		return company.Company{}, pgx.ErrNoRows
	}
	return c, nil
}

func (r *CompanyRepository) GetWithUnits(_ context.Context, id string) (company.Company, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.companies[id]
	if !ok {
		return company.Company{}, pgx.ErrNoRows
	}
	c.Departments = []company.Department{}
	for _, d := range r.departments {
		if d.CompanyID == id {
			c.Departments = append(c.Departments, d)
		}
	}
	c.Teams = []company.Team{}
	for _, t := range r.teams {
		if t.CompanyID == id {
			c.Teams = append(c.Teams, t)
		}
	}
	return c, nil
}

func (r *CompanyRepository) UpdateStatus(_ context.Context, id string, status company.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.companies[id]
	if !ok {
		return pgx.ErrNoRows
	}
	c.Status = status
	r.companies[id] = c
	return nil
}

func (r *CompanyRepository) UpdatePolicy(_ context.Context, id string, policy company.ApprovalPolicy, decisionMakerID *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.companies[id]
	if !ok {
		return pgx.ErrNoRows
	}
	c.LearningPathApprovalPolicy = policy
	c.DecisionMakerID = decisionMakerID
	r.companies[id] = c
	return nil
}

func (r *CompanyRepository) CreateDepartment(_ context.Context, d company.Department) (company.Department, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.departments {
		if existing.CompanyID == d.CompanyID && existing.Name == d.Name {
			return company.Department{}, company.ErrDuplicateUnitName
		}
	}
	d.ID = uuid.New().String()
	d.CreatedAt = r.clock.Now()
	r.departments = append(r.departments, d)
	return d, nil
}

func (r *CompanyRepository) CreateTeam(_ context.Context, t company.Team) (company.Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.teams {
		if existing.CompanyID == t.CompanyID && existing.Name == t.Name {
			return company.Team{}, company.ErrDuplicateUnitName
		}
	}
	if t.DepartmentID != nil {
		found := false
		for _, d := range r.departments {
			if d.ID == *t.DepartmentID {
				found = true
				break
			}
		}
		if !found {
			return company.Team{}, company.ErrDepartmentNotFound
		}
	}
	t.ID = uuid.New().String()
	t.CreatedAt = r.clock.Now()
	r.teams = append(r.teams, t)
	return t, nil
}

// ==========================================
// USERS
// ==========================================

type UserRepository struct {
	mu    sync.Mutex
	users map[string]user.User
}

func NewUserRepository(seed ...user.User) *UserRepository {
	r := &UserRepository{users: make(map[string]user.User)}
	for _, u := range seed {
		if u.ID == "" {
			u.ID = uuid.New().String()
		}
		r.users[u.ID] = u
	}
	return r
}

func (r *UserRepository) Create(_ context.Context, u user.User) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return user.User{}, user.ErrUserEmailExists
		}
	}
	u.ID = uuid.New().String()
	r.users[u.ID] = u
	return u, nil
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return user.User{}, pgx.ErrNoRows
}

func (r *UserRepository) GetByID(_ context.Context, id string) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return user.User{}, pgx.ErrNoRows
	}
	return u, nil
}

// ==========================================
// EXTERNAL CONNECTIONS
// ==========================================

type ConnectionRepository struct {
	mu    sync.Mutex
	clock *Clock
	conns map[string]connection.Connection
}

func NewConnectionRepository(clock *Clock) *ConnectionRepository {
	return &ConnectionRepository{clock: clock, conns: make(map[string]connection.Connection)}
}

func connectionKey(employeeID string, provider connection.Provider) string {
	return employeeID + "/" + string(provider)
}

func (r *ConnectionRepository) Upsert(_ context.Context, employeeID string, provider connection.Provider, grant connection.Grant) (connection.Connection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := connectionKey(employeeID, provider)
	c := r.conns[key]
	now := r.clock.Now()
	c.EmployeeID, c.Provider, c.Connected = employeeID, provider, true
	c.ConnectedAt, c.DisconnectedAt, c.UpdatedAt = &now, nil, now
	if grant.AccessToken != "" {
		token := grant.AccessToken
		c.AccessToken = &token
	}
	if len(grant.Profile) > 0 {
		c.ProfilePayload = grant.Profile
	}
	r.conns[key] = c
	return c, nil
}

func (r *ConnectionRepository) MarkDisconnected(_ context.Context, employeeID string, provider connection.Provider) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := connectionKey(employeeID, provider)
	c, ok := r.conns[key]
	if !ok || !c.Connected {
		return connection.ErrProviderNotConnected
	}
	now := r.clock.Now()
	c.Connected, c.DisconnectedAt, c.UpdatedAt = false, &now, now
	r.conns[key] = c
	return nil
}

func (r *ConnectionRepository) ListByEmployeeID(_ context.Context, employeeID string) ([]connection.Connection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []connection.Connection{}
	for _, c := range r.conns {
		if c.EmployeeID == employeeID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Provider < out[j].Provider })
	return out, nil
}

// ==========================================
// ENRICHMENT RESULTS
// ==========================================

type ResultRepository struct {
	mu      sync.Mutex
	clock   *Clock
	results []enrichment.Result
}

func NewResultRepository(clock *Clock) *ResultRepository {
	return &ResultRepository{clock: clock}
}

func (r *ResultRepository) Insert(_ context.Context, result enrichment.Result) (enrichment.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result.ID = uuid.New().String()
	result.ProcessedAt = r.clock.Now()
	r.results = append(r.results, result)
	return result, nil
}

func (r *ResultRepository) GetLatest(_ context.Context, employeeID string) (enrichment.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.results) - 1; i >= 0; i-- {
		if r.results[i].EmployeeID == employeeID {
			return r.results[i], nil
		}
	}
	return enrichment.Result{}, enrichment.ErrResultNotFound
}

// All returns the result history of the employee, oldest first.
func (r *ResultRepository) All(employeeID string) []enrichment.Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []enrichment.Result
	for _, res := range r.results {
		if res.EmployeeID == employeeID {
			out = append(out, res)
		}
	}
	return out
}

// ==========================================
// APPROVAL REQUESTS
// ==========================================

type RequestRepository struct {
	mu       sync.Mutex
	clock    *Clock
	requests map[string]approval.Request
	order    []string
}

func NewRequestRepository(clock *Clock) *RequestRepository {
	return &RequestRepository{clock: clock, requests: make(map[string]approval.Request)}
}

func (r *RequestRepository) Create(_ context.Context, req approval.Request) (approval.Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req.ID = uuid.New().String()
	req.Status = approval.StatusPending
	req.CreatedAt = r.clock.Now()
	r.requests[req.ID] = req
	r.order = append(r.order, req.ID)
	return req, nil
}

func (r *RequestRepository) GetByID(_ context.Context, id string) (approval.Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok {
		return approval.Request{}, approval.ErrRequestNotFound
	}
	return req, nil
}

func (r *RequestRepository) Resolve(_ context.Context, id string, status approval.Status, notes *string, resolvedBy string, resolvedAt time.Time) (approval.Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok || req.Status != approval.StatusPending {
		return approval.Request{}, approval.ErrRequestAlreadyProcessed
	}
	req.Status = status
	req.Notes = notes
	req.ResolvedBy = &resolvedBy
	req.ResolvedAt = &resolvedAt
	r.requests[id] = req
	return req, nil
}

func (r *RequestRepository) ListPendingForHR(_ context.Context, companyID string) ([]approval.Request, error) {
	return r.filter(func(req approval.Request) bool {
		return req.CompanyID == companyID && req.Status == approval.StatusPending && req.ApproverRole == approval.ApproverHR
	}), nil
}

func (r *RequestRepository) ListPendingForDecisionMaker(_ context.Context, companyID, decisionMakerID string) ([]approval.Request, error) {
	return r.filter(func(req approval.Request) bool {
		return req.CompanyID == companyID && req.Status == approval.StatusPending &&
			req.ApproverRole == approval.ApproverDecisionMaker &&
			req.ApproverID != nil && *req.ApproverID == decisionMakerID
	}), nil
}

func (r *RequestRepository) ListByEmployeeID(_ context.Context, employeeID string) ([]approval.Request, error) {
	return r.filter(func(req approval.Request) bool { return req.EmployeeID == employeeID }), nil
}

func (r *RequestRepository) filter(keep func(approval.Request) bool) []approval.Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []approval.Request{}
	for _, id := range r.order {
		if req := r.requests[id]; keep(req) {
			out = append(out, req)
		}
	}
	return out
}

// ==========================================
// NOTIFICATIONS, EVENTS, TRANSACTIONS
// ==========================================

// Notifier records queued notifications synchronously.
type Notifier struct {
	mu     sync.Mutex
	queued []notification.CreateNotificationRequest
}

func (n *Notifier) Queue(_ context.Context, req notification.CreateNotificationRequest) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.queued = append(n.queued, req)
}

func (n *Notifier) ListForRecipients(_ context.Context, recipients []string, limit int) ([]notification.NotificationResponse, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := []notification.NotificationResponse{}
	for _, req := range n.queued {
		if slices.Contains(recipients, req.Recipient) && len(out) < limit {
			out = append(out, notification.NotificationResponse{Type: req.Type, Title: req.Title, Message: req.Message, Data: req.Data})
		}
	}
	return out, nil
}

func (n *Notifier) Shutdown() {}

func (n *Notifier) Queued() []notification.CreateNotificationRequest {
	n.mu.Lock()
	defer n.mu.Unlock()
	return slices.Clone(n.queued)
}

// To returns what was queued for recipient.
func (n *Notifier) To(recipient string) []notification.CreateNotificationRequest {
	var out []notification.CreateNotificationRequest
	for _, req := range n.Queued() {
		if req.Recipient == recipient {
			out = append(out, req)
		}
	}
	return out
}

type Publisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *Publisher) Publish(_ context.Context, evts ...events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evts...)
	return nil
}

func (p *Publisher) Close() error { return nil }

func (p *Publisher) Types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

// Transactor runs fn directly; the in-memory repositories are not rolled back.
type Transactor struct {
	mu    sync.Mutex
	Calls int
}

func (t *Transactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	t.mu.Lock()
	t.Calls++
	t.mu.Unlock()
	return fn(ctx)
}
