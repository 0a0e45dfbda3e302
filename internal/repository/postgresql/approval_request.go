package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/talent-backend-go/internal/domain/approval"
	"github.com/cmlabs-hris/talent-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

const approvalRequestColumns = `id, type, employee_id, company_id, payload, status, approver_role,
	approver_id, notes, resolved_by, created_at, resolved_at`

type approvalRequestRepositoryImpl struct {
	db *database.DB
}

func NewApprovalRequestRepository(db *database.DB) approval.RequestRepository {
	return &approvalRequestRepositoryImpl{db: db}
}

func scanApprovalRequest(row rowScanner) (approval.Request, error) {
	var (
		req                           approval.Request
		requestType, status, role     string
		payload                       []byte
		approverID, notes, resolvedBy sql.NullString
		resolvedAt                    sql.NullTime
	)
	err := row.Scan(
		&req.ID,
		&requestType,
		&req.EmployeeID,
		&req.CompanyID,
		&payload,
		&status,
		&role,
		&approverID,
		&notes,
		&resolvedBy,
		&req.CreatedAt,
		&resolvedAt,
	)
	if err != nil {
		return approval.Request{}, err
	}
	req.Type = approval.RequestType(requestType)
	req.Status = approval.Status(status)
	req.ApproverRole = approval.ApproverRole(role)
	req.Payload = payload
	req.ApproverID = nullStringPtr(approverID)
	req.Notes = nullStringPtr(notes)
	req.ResolvedBy = nullStringPtr(resolvedBy)
	req.ResolvedAt = nullTimePtr(resolvedAt)
	return req, nil
}

func collectApprovalRequests(rows pgx.Rows) ([]approval.Request, error) {
	defer rows.Close()

	requests := []approval.Request{}
	for rows.Next() {
		req, err := scanApprovalRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

func (r *approvalRequestRepositoryImpl) Create(ctx context.Context, request approval.Request) (approval.Request, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO approval_requests (type, employee_id, company_id, payload, status, approver_role, approver_id)
		VALUES ($1, $2, $3, $4, 'pending', $5, $6)
		RETURNING ` + approvalRequestColumns

	created, err := scanApprovalRequest(q.QueryRow(ctx, query,
		string(request.Type),
		request.EmployeeID,
		request.CompanyID,
		[]byte(request.Payload),
		string(request.ApproverRole),
		request.ApproverID,
	))
	if err != nil {
		return approval.Request{}, fmt.Errorf("failed to create approval request: %w", err)
	}
	return created, nil
}

func (r *approvalRequestRepositoryImpl) GetByID(ctx context.Context, id string) (approval.Request, error) {
	q := GetQuerier(ctx, r.db)

	req, err := scanApprovalRequest(q.QueryRow(ctx, `SELECT `+approvalRequestColumns+` FROM approval_requests WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return approval.Request{}, approval.ErrRequestNotFound
		}
		return approval.Request{}, fmt.Errorf("failed to get approval request: %w", err)
	}
	return req, nil
}

// Resolve implements approval.RequestRepository. The status guard in the
// WHERE clause makes concurrent resolutions race on the row lock; the loser
// matches no row.
func (r *approvalRequestRepositoryImpl) Resolve(ctx context.Context, id string, status approval.Status, notes *string, resolvedBy string, resolvedAt time.Time) (approval.Request, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE approval_requests
		SET status = $2, notes = $3, resolved_by = $4, resolved_at = $5
		WHERE id = $1 AND status = 'pending'
		RETURNING ` + approvalRequestColumns

	req, err := scanApprovalRequest(q.QueryRow(ctx, query, id, string(status), notes, resolvedBy, resolvedAt))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return approval.Request{}, approval.ErrRequestAlreadyProcessed
		}
		return approval.Request{}, fmt.Errorf("failed to resolve approval request: %w", err)
	}
	return req, nil
}

func (r *approvalRequestRepositoryImpl) ListPendingForHR(ctx context.Context, companyID string) ([]approval.Request, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + approvalRequestColumns + `
		FROM approval_requests
		WHERE company_id = $1 AND approver_role = 'hr' AND status = 'pending'
		ORDER BY created_at`

	rows, err := q.Query(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending hr requests: %w", err)
	}
	return collectApprovalRequests(rows)
}

func (r *approvalRequestRepositoryImpl) ListPendingForDecisionMaker(ctx context.Context, companyID, decisionMakerID string) ([]approval.Request, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + approvalRequestColumns + `
		FROM approval_requests
		WHERE company_id = $1 AND approver_role = 'decision_maker' AND approver_id = $2 AND status = 'pending'
		ORDER BY created_at`

	rows, err := q.Query(ctx, query, companyID, decisionMakerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending decision maker requests: %w", err)
	}
	return collectApprovalRequests(rows)
}

func (r *approvalRequestRepositoryImpl) ListByEmployeeID(ctx context.Context, employeeID string) ([]approval.Request, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + approvalRequestColumns + `
		FROM approval_requests
		WHERE employee_id = $1
		ORDER BY created_at DESC`

	rows, err := q.Query(ctx, query, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list employee requests: %w", err)
	}
	return collectApprovalRequests(rows)
}
