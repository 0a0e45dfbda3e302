package connection

import "context"

type ConnectionService interface {
	SetConnected(ctx context.Context, employeeID string, provider Provider, grant Grant) error
	SetDisconnected(ctx context.Context, employeeID string, provider Provider) error
	GetStatus(ctx context.Context, employeeID string) (Status, error)
	Snapshot(ctx context.Context, employeeID string) (Snapshot, error)
}
