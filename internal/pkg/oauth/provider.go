package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/cmlabs-hris/talent-backend-go/internal/domain/connection"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/linkedin"
)

const (
	githubUserURL     = "https://api.github.com/user"
	githubReposURL    = "https://api.github.com/user/repos?sort=updated&per_page=30"
	linkedinUserURL   = "https://api.linkedin.com/v2/userinfo"
	maxProfileBodyLen = 2 << 20
)

type ProviderService interface {
	Provider() connection.Provider
	// RedirectURL generates the authorization URL carrying state.
	RedirectURL(state string) string
	// Exchange trades the authorization code for a token.
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	// FetchProfile fetches the provider's profile payload for the token.
	FetchProfile(ctx context.Context, token *oauth2.Token) (json.RawMessage, error)
}

type providerServiceImpl struct {
	provider connection.Provider
	config   *oauth2.Config
	// resources are fetched and merged into one JSON object under their keys.
	resources map[string]string
}

func NewGitHubService(clientID, clientSecret, redirectURL string, scopes []string) ProviderService {
	return &providerServiceImpl{
		provider: connection.ProviderGitHub,
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       scopes,
			Endpoint:     github.Endpoint,
		},
		resources: map[string]string{
			"user":  githubUserURL,
			"repos": githubReposURL,
		},
	}
}

func NewLinkedInService(clientID, clientSecret, redirectURL string, scopes []string) ProviderService {
	return &providerServiceImpl{
		provider: connection.ProviderLinkedIn,
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       scopes,
			Endpoint:     linkedin.Endpoint,
		},
		resources: map[string]string{
			"profile": linkedinUserURL,
		},
	}
}

func (p *providerServiceImpl) Provider() connection.Provider {
	return p.provider
}

func (p *providerServiceImpl) RedirectURL(state string) string {
	return p.config.AuthCodeURL(state)
}

func (p *providerServiceImpl) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%s code exchange: %w", p.provider, err)
	}
	return token, nil
}

func (p *providerServiceImpl) FetchProfile(ctx context.Context, token *oauth2.Token) (json.RawMessage, error) {
	client := p.config.Client(ctx, token)

	merged := make(map[string]json.RawMessage, len(p.resources))
	for key, url := range p.resources {
		body, err := getJSON(ctx, client, url)
		if err != nil {
			return nil, fmt.Errorf("%s fetch %s: %w", p.provider, key, err)
		}
		merged[key] = body
	}

	return json.Marshal(merged)
}

func getJSON(ctx context.Context, client *http.Client, url string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxProfileBodyLen))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("response is not valid JSON")
	}
	return body, nil
}
