package enrichment

import (
	"time"

	"github.com/cmlabs-hris/talent-backend-go/internal/domain/connection"
)

type EnrichmentView struct {
	Bio      string    `json:"bio,omitempty"`
	Projects []Project `json:"projects,omitempty"`
	Skills   []string  `json:"skills,omitempty"`
	Error    *string   `json:"error,omitempty"`
}

// ResultView is what clients see for the latest result. Data of providers
// disconnected since the run is withheld and listed in StaleProviders.
type ResultView struct {
	Data           ProviderData   `json:"data"`
	Enrichment     EnrichmentView `json:"enrichment"`
	StaleProviders []string       `json:"stale_providers,omitempty"`
	ProcessedAt    *time.Time     `json:"processed_at,omitempty"`
}

func NewResultView(r Result, status connection.Status) ResultView {
	view := ResultView{
		Enrichment: EnrichmentView{
			Bio:      r.Bio,
			Projects: r.Projects,
			Skills:   r.Skills,
			Error:    r.Error,
		},
		ProcessedAt: &r.ProcessedAt,
	}
	if len(r.GitHubData) > 0 {
		if status.GitHub {
			view.Data.GitHub = r.GitHubData
		} else {
			view.StaleProviders = append(view.StaleProviders, string(connection.ProviderGitHub))
		}
	}
	if len(r.LinkedInData) > 0 {
		if status.LinkedIn {
			view.Data.LinkedIn = r.LinkedInData
		} else {
			view.StaleProviders = append(view.StaleProviders, string(connection.ProviderLinkedIn))
		}
	}
	return view
}

type CollectResponse struct {
	Triggered bool   `json:"triggered"`
	Reason    string `json:"reason"`
	ResultView
}
