package enrichment

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/cmlabs-hris/talent-backend-go/internal/domain/connection"
)

// ProviderData is the raw profile payload fetched per connected provider.
type ProviderData struct {
	LinkedIn json.RawMessage `json:"linkedin,omitempty"`
	GitHub   json.RawMessage `json:"github,omitempty"`
}

// Enrichment is the AI summary of the collected provider data.
type Enrichment struct {
	Bio      string    `json:"bio"`
	Projects []Project `json:"projects"`
	Skills   []string  `json:"skills"`
}

type Project struct {
	Name         string   `json:"name"`
	Description  string   `json:"description,omitempty"`
	URL          string   `json:"url,omitempty"`
	Technologies []string `json:"technologies,omitempty"`
}

// Result is one insert-only row of enrichment history. The latest row per
// employee is the displayed one.
type Result struct {
	ID           string
	EmployeeID   string
	SnapshotKey  string
	LinkedInData json.RawMessage
	GitHubData   json.RawMessage
	Bio          string
	Projects     []Project
	Skills       []string
	Error        *string
	ProcessedAt  time.Time
}

func (r Result) Succeeded() bool {
	return r.Error == nil
}

// SnapshotKey identifies the connection state an enrichment ran against.
// Reconnecting a provider, connecting LinkedIn later or resubmitting after a
// rejection all yield a new key.
func SnapshotKey(epoch int, s connection.Snapshot) string {
	parts := []string{strconv.Itoa(epoch), connectedAtKey(s.GitHub), connectedAtKey(s.LinkedIn)}
	return strings.Join(parts, "|")
}

func connectedAtKey(c *connection.Connection) string {
	if c == nil || c.ConnectedAt == nil {
		return "-"
	}
	return c.ConnectedAt.UTC().Format(time.RFC3339Nano)
}

// TriggerReason explains why TryTrigger did or did not run the pipeline.
type TriggerReason string

const (
	ReasonExecuted        TriggerReason = "executed"
	ReasonInFlight        TriggerReason = "in_flight"
	ReasonAlreadyEnriched TriggerReason = "already_enriched"
	// ReasonAlreadyFailed means the run for this snapshot failed. Only a new
	// snapshot (reconnect) attempts again.
	ReasonAlreadyFailed TriggerReason = "already_failed"
)

type TriggerResult struct {
	Triggered bool
	Reason    TriggerReason
	Result    *Result
}
