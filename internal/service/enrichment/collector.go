package enrichment

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/cmlabs-hris/talent-backend-go/internal/domain/connection"
	"github.com/cmlabs-hris/talent-backend-go/internal/domain/enrichment"
	"github.com/cmlabs-hris/talent-backend-go/internal/pkg/oauth"
	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"
)

type collector struct {
	providers map[connection.Provider]oauth.ProviderService
}

// NewCollector fetches fresh profiles through the given provider services.
// Providers without a service, or whose fetch fails, fall back to the payload
// stored at connect time.
func NewCollector(providers ...oauth.ProviderService) enrichment.Collector {
	c := &collector{providers: make(map[connection.Provider]oauth.ProviderService, len(providers))}
	for _, p := range providers {
		c.providers[p.Provider()] = p
	}
	return c
}

func (c *collector) Collect(ctx context.Context, snapshot connection.Snapshot) (enrichment.ProviderData, error) {
	if snapshot.GitHub == nil {
		return enrichment.ProviderData{}, connection.ErrProviderNotConnected
	}

	var data enrichment.ProviderData
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		payload, err := c.fetch(ctx, snapshot.GitHub)
		if err != nil {
			return err
		}
		data.GitHub = payload
		return nil
	})

	if snapshot.LinkedIn != nil {
		g.Go(func() error {
			payload, err := c.fetch(ctx, snapshot.LinkedIn)
			if err != nil {
				return err
			}
			data.LinkedIn = payload
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return enrichment.ProviderData{}, fmt.Errorf("%w: %v", enrichment.ErrCollectFailed, err)
	}
	return data, nil
}

func (c *collector) fetch(ctx context.Context, conn *connection.Connection) (json.RawMessage, error) {
	svc, ok := c.providers[conn.Provider]
	if ok && conn.AccessToken != nil && *conn.AccessToken != "" {
		payload, err := svc.FetchProfile(ctx, &oauth2.Token{AccessToken: *conn.AccessToken})
		if err == nil {
			return payload, nil
		}
		if len(conn.ProfilePayload) == 0 {
			return nil, err
		}
		slog.Warn("Profile fetch failed, using stored payload",
			"employee_id", conn.EmployeeID, "provider", conn.Provider, "error", err)
	}

	if len(conn.ProfilePayload) == 0 {
		return nil, fmt.Errorf("no %s profile data available", conn.Provider)
	}
	return conn.ProfilePayload, nil
}
