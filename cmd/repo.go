package cmd

import (
	"fmt"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/repomind/repomind/internal/repos"
	"github.com/repomind/repomind/pkg/models"
)

// RepoCommand returns the repo command
func RepoCommand() *cli.Command {
	return &cli.Command{
		Name:  "repo",
		Usage: "Select and inspect the working repository",
		Subcommands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List repositories available to you",
				Action: runRepoList,
			},
			{
				Name:      "select",
				Usage:     "Select the repository all other commands work against",
				ArgsUsage: "REPO_ID [NAME]",
				Action:    runRepoSelect,
			},
			{
				Name:   "show",
				Usage:  "Show the currently selected repository",
				Action: runRepoShow,
			},
		},
	}
}

func runRepoList(c *cli.Context) error {
	_, _, gw, err := loadApp(c)
	if err != nil {
		return err
	}

	list, err := repos.NewClient(gw).ListRepositories(c.Context)
	if err != nil {
		return err
	}

	if len(list) == 0 {
		fmt.Println("No repositories found.")
		return nil
	}

	for _, r := range list {
		visibility := "public"
		if r.Private {
			visibility = "private"
		}
		fmt.Printf("%6d  %-40s %s\n", r.ID, r.FullName, visibility)
	}
	return nil
}

func runRepoSelect(c *cli.Context) error {
	if c.NArg() < 1 {
		return fmt.Errorf("missing required argument: REPO_ID")
	}

	repoID, err := strconv.ParseInt(c.Args().Get(0), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid repository id %q", c.Args().Get(0))
	}

	_, store, gw, err := loadApp(c)
	if err != nil {
		return err
	}

	name := c.Args().Get(1)
	if name == "" {
		// Resolve the display name from the repository listing
		list, err := repos.NewClient(gw).ListRepositories(c.Context)
		if err != nil {
			return err
		}
		for _, r := range list {
			if r.ID == repoID {
				name = r.FullName
				break
			}
		}
		if name == "" {
			return fmt.Errorf("repository %d not found; pass a name explicitly", repoID)
		}
	}

	ctx := models.RepositoryContext{RepositoryID: repoID, RepositoryName: name}
	if err := store.SetRepositoryContext(ctx); err != nil {
		return err
	}

	fmt.Printf("Selected repository %s (id %d)\n", name, repoID)
	return nil
}

func runRepoShow(c *cli.Context) error {
	_, store, _, err := loadApp(c)
	if err != nil {
		return err
	}

	ctx, err := store.GetRepositoryContext()
	if err != nil {
		return err
	}
	if ctx == nil {
		fmt.Println("No repository selected. Run 'repomind repo select' first.")
		return nil
	}

	fmt.Printf("Repository: %s (id %d)\n", ctx.RepositoryName, ctx.RepositoryID)
	return nil
}
