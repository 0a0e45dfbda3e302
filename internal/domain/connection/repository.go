package connection

import "context"

type ConnectionRepository interface {
	// Upsert marks the provider connected and stamps a fresh connected_at.
	// Token and payload are kept from the previous row when grant leaves them empty.
	Upsert(ctx context.Context, employeeID string, provider Provider, grant Grant) (Connection, error)

	// MarkDisconnected returns ErrProviderNotConnected when there was nothing to clear.
	MarkDisconnected(ctx context.Context, employeeID string, provider Provider) error
	ListByEmployeeID(ctx context.Context, employeeID string) ([]Connection, error)
}
