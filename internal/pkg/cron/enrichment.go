package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/talent-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/talent-backend-go/internal/pkg/metrics"
)

// EnrichmentJobs recovers profiles left in enriching by a crashed or killed
// run. The lock TTL bounds how long a live run can hold the status, so
// anything older is abandoned.
type EnrichmentJobs struct {
	employeeRepo employee.EmployeeRepository
	lockTTL      time.Duration
	interval     time.Duration
	now          func() time.Time
}

func NewEnrichmentJobs(employeeRepo employee.EmployeeRepository, lockTTL, interval time.Duration) *EnrichmentJobs {
	return &EnrichmentJobs{
		employeeRepo: employeeRepo,
		lockTTL:      lockTTL,
		interval:     interval,
		now:          time.Now,
	}
}

func (j *EnrichmentJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob("reset_stale_enrichments", j.interval, j.ResetStaleEnrichments)
}

func (j *EnrichmentJobs) ResetStaleEnrichments(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.lockTTL)
	n, err := j.employeeRepo.ResetStaleEnriching(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to reset stale enrichments: %w", err)
	}
	if n > 0 {
		metrics.StaleEnrichmentsReset.Add(float64(n))
		slog.Warn("Cron: reset stale enrichments", "count", n, "cutoff", cutoff)
	}
	return nil
}
