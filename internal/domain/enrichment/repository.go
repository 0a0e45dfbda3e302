package enrichment

import "context"

type ResultRepository interface {
	Insert(ctx context.Context, result Result) (Result, error)
	GetLatest(ctx context.Context, employeeID string) (Result, error)
}
