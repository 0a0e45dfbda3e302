package enrichment

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/cmlabs-hris/talent-backend-go/internal/domain/connection"
	"github.com/cmlabs-hris/talent-backend-go/internal/domain/enrichment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

type stubProvider struct {
	provider connection.Provider
	payload  json.RawMessage
	err      error
	tokens   []string
}

func (p *stubProvider) Provider() connection.Provider { return p.provider }
func (p *stubProvider) RedirectURL(state string) string {
	return "https://example.test/authorize?state=" + state
}
func (p *stubProvider) Exchange(context.Context, string) (*oauth2.Token, error) {
	return &oauth2.Token{AccessToken: "exchanged"}, nil
}
func (p *stubProvider) FetchProfile(_ context.Context, token *oauth2.Token) (json.RawMessage, error) {
	p.tokens = append(p.tokens, token.AccessToken)
	return p.payload, p.err
}

func conn(provider connection.Provider, token, stored string) *connection.Connection {
	c := &connection.Connection{EmployeeID: "emp-1", Provider: provider, Connected: true}
	if token != "" {
		c.AccessToken = &token
	}
	if stored != "" {
		c.ProfilePayload = json.RawMessage(stored)
	}
	return c
}

func TestCollector_FetchesFreshProfiles(t *testing.T) {
	github := &stubProvider{provider: connection.ProviderGitHub, payload: json.RawMessage(`{"fresh":"github"}`)}
	linkedin := &stubProvider{provider: connection.ProviderLinkedIn, payload: json.RawMessage(`{"fresh":"linkedin"}`)}
	c := NewCollector(github, linkedin)

	data, err := c.Collect(context.Background(), connection.Snapshot{
		GitHub:   conn(connection.ProviderGitHub, "gh-token", `{"stored":true}`),
		LinkedIn: conn(connection.ProviderLinkedIn, "li-token", ""),
	})

	require.NoError(t, err)
	assert.JSONEq(t, `{"fresh":"github"}`, string(data.GitHub))
	assert.JSONEq(t, `{"fresh":"linkedin"}`, string(data.LinkedIn))
	assert.Equal(t, []string{"gh-token"}, github.tokens)
}

func TestCollector_FallsBackToStoredPayload(t *testing.T) {
	github := &stubProvider{provider: connection.ProviderGitHub, err: errors.New("rate limited")}
	c := NewCollector(github)

	data, err := c.Collect(context.Background(), connection.Snapshot{
		GitHub: conn(connection.ProviderGitHub, "gh-token", `{"stored":true}`),
	})

	require.NoError(t, err)
	assert.JSONEq(t, `{"stored":true}`, string(data.GitHub))
	assert.Empty(t, data.LinkedIn)
}

func TestCollector_Failures(t *testing.T) {
	t.Run("fetch fails without stored payload", func(t *testing.T) {
		c := NewCollector(&stubProvider{provider: connection.ProviderGitHub, err: errors.New("401")})

		_, err := c.Collect(context.Background(), connection.Snapshot{GitHub: conn(connection.ProviderGitHub, "gh-token", "")})

		assert.ErrorIs(t, err, enrichment.ErrCollectFailed)
	})

	t.Run("github not connected", func(t *testing.T) {
		c := NewCollector()

		_, err := c.Collect(context.Background(), connection.Snapshot{LinkedIn: conn(connection.ProviderLinkedIn, "", `{}`)})

		assert.ErrorIs(t, err, connection.ErrProviderNotConnected)
	})

	t.Run("no provider service uses stored payload", func(t *testing.T) {
		c := NewCollector()

		data, err := c.Collect(context.Background(), connection.Snapshot{GitHub: conn(connection.ProviderGitHub, "gh-token", `{"stored":1}`)})

		require.NoError(t, err)
		assert.JSONEq(t, `{"stored":1}`, string(data.GitHub))
	})
}
