package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/cmlabs-hris/talent-backend-go/internal/domain/enrichment"
)

const maxResponseBodyLen = 1 << 20

// Client calls the text-generation service that summarizes provider data
// into a bio, projects and skills.
type Client struct {
	endpoint   string
	apiKey     string
	model      string
	httpClient *http.Client
}

func NewClient(endpoint, apiKey, model string) *Client {
	return &Client{
		endpoint:   endpoint,
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{},
	}
}

type enrichRequest struct {
	Model string                  `json:"model"`
	Input enrichment.ProviderData `json:"input"`
}

type enrichResponse struct {
	enrichment.Enrichment
	Error string `json:"error,omitempty"`
}

// Enrich implements enrichment.Enricher. The deadline comes from ctx.
func (c *Client) Enrich(ctx context.Context, data enrichment.ProviderData) (enrichment.Enrichment, error) {
	body, err := json.Marshal(enrichRequest{Model: c.model, Input: data})
	if err != nil {
		return enrichment.Enrichment{}, fmt.Errorf("marshal ai request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return enrichment.Enrichment{}, fmt.Errorf("build ai request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return enrichment.Enrichment{}, fmt.Errorf("%w: %v", enrichment.ErrEnrichmentFailed, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodyLen))
	if err != nil {
		return enrichment.Enrichment{}, fmt.Errorf("%w: read response: %v", enrichment.ErrEnrichmentFailed, err)
	}

	var out enrichResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return enrichment.Enrichment{}, fmt.Errorf("%w: status %d: invalid response body", enrichment.ErrEnrichmentFailed, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK || out.Error != "" {
		msg := out.Error
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return enrichment.Enrichment{}, fmt.Errorf("%w: %s", enrichment.ErrEnrichmentFailed, msg)
	}

	out.Bio = strings.TrimSpace(out.Bio)
	if out.Projects == nil {
		out.Projects = []enrichment.Project{}
	}
	if out.Skills == nil {
		out.Skills = []string{}
	}
	return out.Enrichment, nil
}
