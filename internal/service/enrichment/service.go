package enrichment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cmlabs-hris/talent-backend-go/internal/domain/connection"
	"github.com/cmlabs-hris/talent-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/talent-backend-go/internal/domain/enrichment"
	"github.com/cmlabs-hris/talent-backend-go/internal/domain/notification"
	"github.com/cmlabs-hris/talent-backend-go/internal/domain/profile"
	"github.com/cmlabs-hris/talent-backend-go/internal/pkg/events"
	"github.com/cmlabs-hris/talent-backend-go/internal/pkg/lock"
	"github.com/cmlabs-hris/talent-backend-go/internal/pkg/metrics"
	"github.com/jackc/pgx/v5"
)

// errDuplicateTrigger means another execution holds the employee's lock. It is
// reported to callers as a no-op, never as an error.
var errDuplicateTrigger = errors.New("enrichment already in flight")

type Config struct {
	// Timeout bounds collection plus AI enrichment.
	Timeout time.Duration
	// LockTTL must exceed Timeout so a live run never loses its lock.
	LockTTL time.Duration
}

type EnrichmentServiceImpl struct {
	employee.EmployeeRepository
	enrichment.ResultRepository
	connections   connection.ConnectionService
	profiles      profile.ProfileService
	collector     enrichment.Collector
	enricher      enrichment.Enricher
	locker        lock.Locker
	notifications notification.Service
	publisher     events.Publisher
	cfg           Config
}

func NewEnrichmentService(
	employeeRepo employee.EmployeeRepository,
	resultRepo enrichment.ResultRepository,
	connections connection.ConnectionService,
	profiles profile.ProfileService,
	collector enrichment.Collector,
	enricher enrichment.Enricher,
	locker lock.Locker,
	notifications notification.Service,
	publisher events.Publisher,
	cfg Config,
) enrichment.EnrichmentService {
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.LockTTL <= cfg.Timeout {
		cfg.LockTTL = 2 * cfg.Timeout
	}
	return &EnrichmentServiceImpl{
		EmployeeRepository: employeeRepo,
		ResultRepository:   resultRepo,
		connections:        connections,
		profiles:           profiles,
		collector:          collector,
		enricher:           enricher,
		locker:             locker,
		notifications:      notifications,
		publisher:          publisher,
		cfg:                cfg,
	}
}

// TryTrigger implements enrichment.EnrichmentService.
func (s *EnrichmentServiceImpl) TryTrigger(ctx context.Context, employeeID string) (enrichment.TriggerResult, error) {
	release, err := s.acquire(ctx, employeeID)
	if err != nil {
		if errors.Is(err, errDuplicateTrigger) {
			metrics.EnrichmentTriggers.WithLabelValues(string(enrichment.ReasonInFlight)).Inc()
			slog.Info("Enrichment already in flight", "employee_id", employeeID)
			return enrichment.TriggerResult{Triggered: false, Reason: enrichment.ReasonInFlight}, nil
		}
		return enrichment.TriggerResult{}, err
	}
	defer release()

	e, err := s.EmployeeRepository.GetByID(ctx, employeeID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return enrichment.TriggerResult{}, employee.ErrEmployeeNotFound
		}
		return enrichment.TriggerResult{}, fmt.Errorf("failed to get employee: %w", err)
	}
	if e.ProfileStatus == employee.ProfileStatusRejected {
		return enrichment.TriggerResult{}, profile.ErrResubmitRequired
	}

	snapshot, err := s.connections.Snapshot(ctx, employeeID)
	if err != nil {
		return enrichment.TriggerResult{}, err
	}
	if snapshot.GitHub == nil {
		return enrichment.TriggerResult{}, connection.ErrProviderNotConnected
	}

	key := enrichment.SnapshotKey(e.EnrichmentEpoch, snapshot)
	latest, err := s.ResultRepository.GetLatest(ctx, employeeID)
	switch {
	case err == nil && latest.SnapshotKey == key && latest.Succeeded():
		if profile.StartEnrichment.Allows(e.ProfileStatus) {
			// A previous run stored its result but never finished the transition.
			if err := s.finish(ctx, e); err != nil {
				return enrichment.TriggerResult{}, err
			}
		}
		metrics.EnrichmentTriggers.WithLabelValues(string(enrichment.ReasonAlreadyEnriched)).Inc()
		return enrichment.TriggerResult{Triggered: false, Reason: enrichment.ReasonAlreadyEnriched, Result: &latest}, nil
	case err == nil && latest.SnapshotKey == key:
		metrics.EnrichmentTriggers.WithLabelValues(string(enrichment.ReasonAlreadyFailed)).Inc()
		slog.Info("Enrichment already failed for snapshot", "employee_id", employeeID, "snapshot", key)
		return enrichment.TriggerResult{Triggered: false, Reason: enrichment.ReasonAlreadyFailed, Result: &latest}, nil
	case err != nil && !errors.Is(err, enrichment.ErrResultNotFound):
		return enrichment.TriggerResult{}, fmt.Errorf("failed to get latest result: %w", err)
	}

	metrics.EnrichmentTriggers.WithLabelValues(string(enrichment.ReasonExecuted)).Inc()
	result, err := s.execute(ctx, e, snapshot, key)
	if err != nil {
		return enrichment.TriggerResult{}, err
	}
	return enrichment.TriggerResult{Triggered: true, Reason: enrichment.ReasonExecuted, Result: &result}, nil
}

// acquire takes the per-employee lock and returns its release function.
func (s *EnrichmentServiceImpl) acquire(ctx context.Context, employeeID string) (func(), error) {
	key := lock.EnrichmentKey(employeeID)
	token, ok, err := s.locker.Acquire(ctx, key, s.cfg.LockTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire enrichment lock: %w", err)
	}
	if !ok {
		return nil, errDuplicateTrigger
	}
	return func() {
		if err := s.locker.Release(context.WithoutCancel(ctx), key, token); err != nil {
			slog.Error("Failed to release enrichment lock", "employee_id", employeeID, "error", err)
		}
	}, nil
}

// execute runs collection and AI enrichment and stores the outcome. Pipeline
// failures are recorded on the result, not returned.
func (s *EnrichmentServiceImpl) execute(ctx context.Context, e employee.Employee, snapshot connection.Snapshot, key string) (enrichment.Result, error) {
	started := profile.StartEnrichment.Allows(e.ProfileStatus)
	if started {
		if _, err := s.profiles.StartEnrichment(ctx, e.ID); err != nil {
			return enrichment.Result{}, fmt.Errorf("failed to mark profile enriching: %w", err)
		}
	}

	begin := time.Now()
	data, enriched, runErr := s.run(ctx, snapshot)
	metrics.EnrichmentDuration.Observe(time.Since(begin).Seconds())

	result := enrichment.Result{
		EmployeeID:   e.ID,
		SnapshotKey:  key,
		LinkedInData: data.LinkedIn,
		GitHubData:   data.GitHub,
	}
	if runErr != nil {
		msg := runErr.Error()
		result.Error = &msg
	} else {
		result.Bio, result.Projects, result.Skills = enriched.Bio, enriched.Projects, enriched.Skills
	}

	// The run's outcome is kept even if the caller went away meanwhile.
	storeCtx := context.WithoutCancel(ctx)
	stored, err := s.ResultRepository.Insert(storeCtx, result)
	if err != nil {
		if started {
			s.abort(storeCtx, e.ID)
		}
		return enrichment.Result{}, fmt.Errorf("failed to store enrichment result: %w", err)
	}

	if runErr != nil {
		metrics.EnrichmentRuns.WithLabelValues("failure").Inc()
		slog.Warn("Enrichment failed", "employee_id", e.ID, "snapshot", key, "error", runErr)
		if started {
			s.abort(storeCtx, e.ID)
		}
		s.publish(storeCtx, "enrichment.failed", e, stored)
		email := e.Email
		s.notifications.Queue(storeCtx, notification.CreateNotificationRequest{
			CompanyID:      e.CompanyID,
			Recipient:      notification.EmployeeRecipient(e.ID),
			RecipientEmail: &email,
			Type:           notification.TypeEnrichmentFailed,
			Title:          "Profile enrichment failed",
			Message:        "We could not enrich your profile from your connected accounts. Please try again later.",
			Data:           map[string]interface{}{"employee_id": e.ID, "result_id": stored.ID},
		})
		return stored, nil
	}

	metrics.EnrichmentRuns.WithLabelValues("success").Inc()
	slog.Info("Enrichment succeeded", "employee_id", e.ID, "snapshot", key, "skills", len(stored.Skills))
	s.publish(storeCtx, "enrichment.succeeded", e, stored)

	if started {
		if _, err := s.profiles.CompleteEnrichment(storeCtx, e.ID); err != nil {
			return enrichment.Result{}, fmt.Errorf("failed to complete enrichment: %w", err)
		}
	}
	return stored, nil
}

func (s *EnrichmentServiceImpl) run(ctx context.Context, snapshot connection.Snapshot) (enrichment.ProviderData, enrichment.Enrichment, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	data, err := s.collector.Collect(ctx, snapshot)
	if err != nil {
		return enrichment.ProviderData{}, enrichment.Enrichment{}, err
	}

	enriched, err := s.enricher.Enrich(ctx, data)
	if err != nil {
		return data, enrichment.Enrichment{}, err
	}
	if strings.TrimSpace(enriched.Bio) == "" {
		return data, enrichment.Enrichment{}, enrichment.ErrEmptyEnrichment
	}
	return data, enriched, nil
}

// finish completes the transition for a profile whose result is already stored.
func (s *EnrichmentServiceImpl) finish(ctx context.Context, e employee.Employee) error {
	if e.ProfileStatus == employee.ProfileStatusUnenriched {
		if _, err := s.profiles.StartEnrichment(ctx, e.ID); err != nil {
			return fmt.Errorf("failed to mark profile enriching: %w", err)
		}
	}
	if _, err := s.profiles.CompleteEnrichment(ctx, e.ID); err != nil {
		return fmt.Errorf("failed to complete enrichment: %w", err)
	}
	return nil
}

func (s *EnrichmentServiceImpl) abort(ctx context.Context, employeeID string) {
	if err := s.profiles.AbortEnrichment(ctx, employeeID); err != nil {
		slog.Error("Failed to restore profile status", "employee_id", employeeID, "error", err)
	}
}

func (s *EnrichmentServiceImpl) publish(ctx context.Context, eventType string, e employee.Employee, r enrichment.Result) {
	evt, err := events.NewEvent(eventType, "employee", e.ID, e.CompanyID, map[string]interface{}{
		"result_id":    r.ID,
		"snapshot_key": r.SnapshotKey,
		"error":        r.Error,
	})
	if err != nil {
		slog.Error("Failed to build event", "type", eventType, "error", err)
		return
	}
	if err := s.publisher.Publish(ctx, evt); err != nil {
		slog.Error("Failed to publish event", "type", eventType, "employee_id", e.ID, "error", err)
	}
}

// GetLatest implements enrichment.EnrichmentService.
func (s *EnrichmentServiceImpl) GetLatest(ctx context.Context, employeeID string) (enrichment.ResultView, error) {
	status, err := s.connections.GetStatus(ctx, employeeID)
	if err != nil {
		return enrichment.ResultView{}, err
	}

	latest, err := s.ResultRepository.GetLatest(ctx, employeeID)
	if err != nil {
		if errors.Is(err, enrichment.ErrResultNotFound) {
			return enrichment.ResultView{}, err
		}
		return enrichment.ResultView{}, fmt.Errorf("failed to get latest result: %w", err)
	}
	return enrichment.NewResultView(latest, status), nil
}
