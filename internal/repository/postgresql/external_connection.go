package postgresql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/cmlabs-hris/talent-backend-go/internal/domain/connection"
	"github.com/cmlabs-hris/talent-backend-go/internal/pkg/database"
)

type connectionRepositoryImpl struct {
	db *database.DB
}

func NewConnectionRepository(db *database.DB) connection.ConnectionRepository {
	return &connectionRepositoryImpl{db: db}
}

const connectionColumns = `employee_id, provider, connected, connected_at, disconnected_at, access_token, profile_payload, updated_at`

func scanConnection(row rowScanner) (connection.Connection, error) {
	var (
		c                           connection.Connection
		provider                    string
		connectedAt, disconnectedAt sql.NullTime
		accessToken                 sql.NullString
		payload                     []byte
	)
	err := row.Scan(&c.EmployeeID, &provider, &c.Connected, &connectedAt, &disconnectedAt, &accessToken, &payload, &c.UpdatedAt)
	if err != nil {
		return connection.Connection{}, err
	}
	c.Provider = connection.Provider(provider)
	c.ConnectedAt = nullTimePtr(connectedAt)
	c.DisconnectedAt = nullTimePtr(disconnectedAt)
	c.AccessToken = nullStringPtr(accessToken)
	c.ProfilePayload = payload
	return c, nil
}

// Upsert implements connection.ConnectionRepository.
func (r *connectionRepositoryImpl) Upsert(ctx context.Context, employeeID string, provider connection.Provider, grant connection.Grant) (connection.Connection, error) {
	q := GetQuerier(ctx, r.db)

	var accessToken *string
	if grant.AccessToken != "" {
		accessToken = &grant.AccessToken
	}
	var payload []byte
	if len(grant.Profile) > 0 {
		payload = grant.Profile
	}

	query := `
		INSERT INTO external_connections (employee_id, provider, connected, connected_at, access_token, profile_payload, updated_at)
		VALUES ($1, $2, TRUE, clock_timestamp(), $3, $4, NOW())
		ON CONFLICT (employee_id, provider) DO UPDATE
		SET connected = TRUE,
			connected_at = clock_timestamp(),
			disconnected_at = NULL,
			access_token = COALESCE(EXCLUDED.access_token, external_connections.access_token),
			profile_payload = COALESCE(EXCLUDED.profile_payload, external_connections.profile_payload),
			updated_at = NOW()
		RETURNING ` + connectionColumns

	c, err := scanConnection(q.QueryRow(ctx, query, employeeID, string(provider), accessToken, payload))
	if err != nil {
		return connection.Connection{}, fmt.Errorf("failed to upsert %s connection: %w", provider, err)
	}
	return c, nil
}

// MarkDisconnected implements connection.ConnectionRepository.
func (r *connectionRepositoryImpl) MarkDisconnected(ctx context.Context, employeeID string, provider connection.Provider) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE external_connections
		SET connected = FALSE, disconnected_at = NOW(), access_token = NULL, updated_at = NOW()
		WHERE employee_id = $1 AND provider = $2 AND connected
	`
	tag, err := q.Exec(ctx, query, employeeID, string(provider))
	if err != nil {
		return fmt.Errorf("failed to disconnect %s: %w", provider, err)
	}
	if tag.RowsAffected() == 0 {
		return connection.ErrProviderNotConnected
	}
	return nil
}

func (r *connectionRepositoryImpl) ListByEmployeeID(ctx context.Context, employeeID string) ([]connection.Connection, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `SELECT `+connectionColumns+` FROM external_connections WHERE employee_id = $1 ORDER BY provider`, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list connections: %w", err)
	}
	defer rows.Close()

	connections := []connection.Connection{}
	for rows.Next() {
		c, err := scanConnection(rows)
		if err != nil {
			return nil, err
		}
		connections = append(connections, c)
	}
	return connections, rows.Err()
}
