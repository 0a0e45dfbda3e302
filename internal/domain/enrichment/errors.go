package enrichment

import "errors"

var (
	ErrEnrichmentFailed = errors.New("enrichment failed")
	ErrEmptyEnrichment  = errors.New("enrichment returned an empty bio")
	ErrCollectFailed    = errors.New("failed to collect provider data")
	ErrResultNotFound   = errors.New("enrichment result not found")
)
