package enrichment

import (
	"testing"
	"time"

	"github.com/cmlabs-hris/talent-backend-go/internal/domain/connection"
	"github.com/stretchr/testify/assert"
)

func TestSnapshotKey(t *testing.T) {
	githubAt := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	linkedinAt := githubAt.Add(time.Hour)

	githubOnly := connection.Snapshot{GitHub: &connection.Connection{ConnectedAt: &githubAt}}
	both := connection.Snapshot{
		GitHub:   &connection.Connection{ConnectedAt: &githubAt},
		LinkedIn: &connection.Connection{ConnectedAt: &linkedinAt},
	}

	assert.Equal(t, "0|2025-05-01T09:00:00Z|-", SnapshotKey(0, githubOnly))
	assert.NotEqual(t, SnapshotKey(0, githubOnly), SnapshotKey(0, both))
	assert.NotEqual(t, SnapshotKey(0, githubOnly), SnapshotKey(1, githubOnly))

	reconnectedAt := githubAt.Add(2 * time.Hour)
	reconnected := connection.Snapshot{GitHub: &connection.Connection{ConnectedAt: &reconnectedAt}}
	assert.NotEqual(t, SnapshotKey(0, githubOnly), SnapshotKey(0, reconnected))
}

func TestNewResultView_HidesDisconnectedProviders(t *testing.T) {
	r := Result{
		GitHubData:   []byte(`{"user":{}}`),
		LinkedInData: []byte(`{"name":"Dina"}`),
		Bio:          "Engineer.",
		ProcessedAt:  time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC),
	}

	view := NewResultView(r, connection.Status{GitHub: true, LinkedIn: false})

	assert.JSONEq(t, `{"user":{}}`, string(view.Data.GitHub))
	assert.Empty(t, view.Data.LinkedIn)
	assert.Equal(t, []string{"linkedin"}, view.StaleProviders)
	assert.Equal(t, "Engineer.", view.Enrichment.Bio)
}
