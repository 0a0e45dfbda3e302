package oauth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cmlabs-hris/talent-backend-go/internal/domain/connection"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestProviderService_RedirectURL(t *testing.T) {
	svc := NewGitHubService("client-id", "secret", "http://localhost/callback", []string{"read:user"})

	url := svc.RedirectURL("signed-state")

	assert.Equal(t, connection.ProviderGitHub, svc.Provider())
	assert.True(t, strings.HasPrefix(url, "https://github.com/login/oauth/authorize"))
	assert.Contains(t, url, "state=signed-state")
	assert.Contains(t, url, "client_id=client-id")
}

func TestProviderService_FetchProfile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer access-1", r.Header.Get("Authorization"))
		switch r.URL.Path {
		case "/user":
			_, _ = w.Write([]byte(`{"login":"octo","name":"Octo Cat"}`))
		case "/repos":
			_, _ = w.Write([]byte(`[{"name":"hello-world"}]`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	svc := NewGitHubService("id", "secret", "http://localhost/callback", nil).(*providerServiceImpl)
	svc.resources = map[string]string{"user": server.URL + "/user", "repos": server.URL + "/repos"}

	payload, err := svc.FetchProfile(context.Background(), &oauth2.Token{AccessToken: "access-1", TokenType: "Bearer"})
	require.NoError(t, err)

	var decoded map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(payload, &decoded))
	assert.JSONEq(t, `{"login":"octo","name":"Octo Cat"}`, string(decoded["user"]))
	assert.JSONEq(t, `[{"name":"hello-world"}]`, string(decoded["repos"]))
}

func TestProviderService_FetchProfileError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	svc := NewLinkedInService("id", "secret", "http://localhost/callback", nil).(*providerServiceImpl)
	svc.resources = map[string]string{"profile": server.URL}

	_, err := svc.FetchProfile(context.Background(), &oauth2.Token{AccessToken: "expired"})

	assert.ErrorContains(t, err, "unexpected status 401")
}
