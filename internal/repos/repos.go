package repos

import (
	"context"
	"fmt"
	"net/http"

	"github.com/repomind/repomind/internal/apierr"
	"github.com/repomind/repomind/internal/gateway"
	"github.com/repomind/repomind/pkg/models"
)

// Client fetches the read-only repository and pull-request projections
type Client struct {
	gw *gateway.Client
}

// NewClient creates a repository projection client
func NewClient(gw *gateway.Client) *Client {
	return &Client{gw: gw}
}

// ListRepositories returns the repositories the user can select
func (c *Client) ListRepositories(ctx context.Context) ([]models.Repository, error) {
	var out []models.Repository
	if err := c.gw.Do(ctx, http.MethodGet, "/api/repos", nil, &out); err != nil {
		return nil, apierr.Classify(err)
	}
	return out, nil
}

// ListPullRequests returns the open pull requests for a repository
func (c *Client) ListPullRequests(ctx context.Context, repoID int64) ([]models.PullRequestSummary, error) {
	var out []models.PullRequestSummary
	path := fmt.Sprintf("/api/repos/%d/pull-requests", repoID)
	if err := c.gw.Do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, apierr.Classify(err)
	}
	return out, nil
}
