package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/repomind/repomind/internal/apierr"
	"github.com/repomind/repomind/internal/config"
	"github.com/repomind/repomind/internal/gateway"
	"github.com/repomind/repomind/internal/logging"
	"github.com/repomind/repomind/internal/state"
	"github.com/repomind/repomind/pkg/models"
)

// loadApp resolves configuration and builds the shared collaborators
// every command needs: the identity store and the request gateway.
func loadApp(c *cli.Context) (*config.Config, *state.Store, *gateway.Client, error) {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	logging.Setup(cfg.Log.Level)

	if err := config.Validate(cfg); err != nil {
		return nil, nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	store, err := state.NewStore(cfg.State.Dir, cfg.State.SessionDir)
	if err != nil {
		return nil, nil, nil, err
	}

	return cfg, store, gateway.NewClient(cfg), nil
}

// requireRepositoryContext enforces the redirect-to-selection rule:
// commands that need a repository fail before issuing any request when
// none is selected.
func requireRepositoryContext(store *state.Store) (*models.RepositoryContext, error) {
	ctx, err := store.GetRepositoryContext()
	if err != nil {
		return nil, err
	}
	if ctx == nil {
		return nil, apierr.ErrMissingContext
	}
	return ctx, nil
}
