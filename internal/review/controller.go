package review

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/repomind/repomind/internal/apierr"
	"github.com/repomind/repomind/internal/gateway"
	"github.com/repomind/repomind/pkg/models"
)

// Status is the lifecycle of one review job as seen from this client
type Status int

const (
	StatusIdle Status = iota
	StatusRunning
	StatusSucceeded
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusRunning:
		return "running"
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	default:
		return "idle"
	}
}

// JobState is the transient per-pull-request job state. Reason is only
// set for StatusFailed.
type JobState struct {
	Status Status
	Reason string
}

// Controller triggers AI reviews and fetches their results. Job state
// is transient and keyed by pull-request id; it is never persisted.
// Different pull requests may run concurrently, but at most one
// trigger per pull request is in flight from this client.
type Controller struct {
	gw *gateway.Client

	mu   sync.Mutex
	jobs map[int64]JobState
}

// NewController creates a controller routing through the given gateway
func NewController(gw *gateway.Client) *Controller {
	return &Controller{
		gw:   gw,
		jobs: make(map[int64]JobState),
	}
}

// State returns the transient job state for a pull request; Idle when
// nothing has been triggered.
func (c *Controller) State(prID int64) JobState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.jobs[prID]
}

// ResetState forgets the job state for a pull request. This is the
// leave-and-re-enter-the-view transition; the state machine goes back
// to Idle.
func (c *Controller) ResetState(prID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.jobs, prID)
}

// TriggerReview asks the backend to run an AI review for the pull
// request and waits for the acknowledgment. The state moves
// Idle -> Running -> Succeeded or Failed(reason). Triggering again
// while Running is rejected without issuing a second request.
func (c *Controller) TriggerReview(ctx context.Context, prID int64) error {
	c.mu.Lock()
	if c.jobs[prID].Status == StatusRunning {
		c.mu.Unlock()
		return apierr.ErrConcurrentOperation
	}
	c.jobs[prID] = JobState{Status: StatusRunning}
	c.mu.Unlock()

	log.Debug().Int64("pr_id", prID).Msg("triggering review")

	// The backend reviews asynchronously but acknowledges in a single
	// round-trip once the run has finished; no polling here.
	var ack json.RawMessage
	err := c.gw.Do(ctx, http.MethodPost, fmt.Sprintf("/api/reviews/run/%d", prID), nil, &ack)

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		classified := apierr.Classify(err)
		c.jobs[prID] = JobState{Status: StatusFailed, Reason: classified.Message}
		return classified
	}

	c.jobs[prID] = JobState{Status: StatusSucceeded}
	return nil
}

// FetchLatestResult returns the most recent completed review for a
// pull request. The newest run is chosen by createdAt; among runs with
// equal or missing timestamps the later array position wins. An empty
// result set is NotFound, distinct from any transport failure.
func (c *Controller) FetchLatestResult(ctx context.Context, prID int64) (*models.ReviewResult, error) {
	var results []models.ReviewResult
	err := c.gw.Do(ctx, http.MethodGet, fmt.Sprintf("/api/reviews/pr/%d", prID), nil, &results)
	if err != nil {
		return nil, apierr.Classify(err)
	}

	if len(results) == 0 {
		return nil, apierr.NotFoundError("No review found for this pull request.")
	}

	latest := 0
	for i := 1; i < len(results); i++ {
		if !results[i].CreatedAt.Before(results[latest].CreatedAt) {
			latest = i
		}
	}

	return &results[latest], nil
}
