package connection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cmlabs-hris/talent-backend-go/internal/domain/connection"
	"github.com/cmlabs-hris/talent-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/talent-backend-go/internal/pkg/events"
	"github.com/jackc/pgx/v5"
)

type ConnectionServiceImpl struct {
	connection.ConnectionRepository
	employee.EmployeeRepository
	publisher events.Publisher
}

func NewConnectionService(connectionRepo connection.ConnectionRepository, employeeRepo employee.EmployeeRepository, publisher events.Publisher) connection.ConnectionService {
	return &ConnectionServiceImpl{
		ConnectionRepository: connectionRepo,
		EmployeeRepository:   employeeRepo,
		publisher:            publisher,
	}
}

func (s *ConnectionServiceImpl) ensureEmployee(ctx context.Context, employeeID string) (employee.Employee, error) {
	e, err := s.EmployeeRepository.GetByID(ctx, employeeID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employee.Employee{}, employee.ErrEmployeeNotFound
		}
		return employee.Employee{}, fmt.Errorf("failed to get employee: %w", err)
	}
	return e, nil
}

// SetConnected implements connection.ConnectionService.
func (s *ConnectionServiceImpl) SetConnected(ctx context.Context, employeeID string, provider connection.Provider, grant connection.Grant) error {
	e, err := s.ensureEmployee(ctx, employeeID)
	if err != nil {
		return err
	}

	conn, err := s.ConnectionRepository.Upsert(ctx, employeeID, provider, grant)
	if err != nil {
		return fmt.Errorf("%w: %v", connection.ErrConnectionFailed, err)
	}

	slog.Info("Provider connected", "employee_id", employeeID, "provider", provider, "connected_at", conn.ConnectedAt)
	s.publish(ctx, "connection.connected", e, provider)
	return nil
}

// SetDisconnected implements connection.ConnectionService. Stored enrichment
// results are left untouched.
func (s *ConnectionServiceImpl) SetDisconnected(ctx context.Context, employeeID string, provider connection.Provider) error {
	e, err := s.ensureEmployee(ctx, employeeID)
	if err != nil {
		return err
	}

	if err := s.ConnectionRepository.MarkDisconnected(ctx, employeeID, provider); err != nil {
		if errors.Is(err, connection.ErrProviderNotConnected) {
			return err
		}
		return fmt.Errorf("failed to disconnect provider: %w", err)
	}

	slog.Info("Provider disconnected", "employee_id", employeeID, "provider", provider)
	s.publish(ctx, "connection.disconnected", e, provider)
	return nil
}

// GetStatus implements connection.ConnectionService.
func (s *ConnectionServiceImpl) GetStatus(ctx context.Context, employeeID string) (connection.Status, error) {
	snapshot, err := s.Snapshot(ctx, employeeID)
	if err != nil {
		return connection.Status{}, err
	}
	return snapshot.Status(), nil
}

// Snapshot implements connection.ConnectionService.
func (s *ConnectionServiceImpl) Snapshot(ctx context.Context, employeeID string) (connection.Snapshot, error) {
	if _, err := s.ensureEmployee(ctx, employeeID); err != nil {
		return connection.Snapshot{}, err
	}

	conns, err := s.ConnectionRepository.ListByEmployeeID(ctx, employeeID)
	if err != nil {
		return connection.Snapshot{}, fmt.Errorf("failed to list connections: %w", err)
	}
	return connection.NewSnapshot(conns), nil
}

func (s *ConnectionServiceImpl) publish(ctx context.Context, eventType string, e employee.Employee, provider connection.Provider) {
	evt, err := events.NewEvent(eventType, "employee", e.ID, e.CompanyID, map[string]string{"provider": string(provider)})
	if err != nil {
		slog.Error("Failed to build event", "type", eventType, "error", err)
		return
	}
	if err := s.publisher.Publish(context.WithoutCancel(ctx), evt); err != nil {
		slog.Error("Failed to publish event", "type", eventType, "employee_id", e.ID, "error", err)
	}
}
