package enrichment

import (
	"context"

	"github.com/cmlabs-hris/talent-backend-go/internal/domain/connection"
)

// Collector fetches the provider payloads for the connected accounts.
type Collector interface {
	Collect(ctx context.Context, snapshot connection.Snapshot) (ProviderData, error)
}

// Enricher turns collected provider data into a bio/projects/skills summary.
type Enricher interface {
	Enrich(ctx context.Context, data ProviderData) (Enrichment, error)
}

type EnrichmentService interface {
	TryTrigger(ctx context.Context, employeeID string) (TriggerResult, error)
	GetLatest(ctx context.Context, employeeID string) (ResultView, error)
}
