package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/repomind/repomind/internal/repos"
)

// PRCommand returns the pr command
func PRCommand() *cli.Command {
	return &cli.Command{
		Name:  "pr",
		Usage: "Inspect pull requests of the selected repository",
		Subcommands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List pull requests",
				Action: runPRList,
			},
		},
	}
}

func runPRList(c *cli.Context) error {
	_, store, gw, err := loadApp(c)
	if err != nil {
		return err
	}

	repoCtx, err := requireRepositoryContext(store)
	if err != nil {
		return err
	}

	prs, err := repos.NewClient(gw).ListPullRequests(c.Context, repoCtx.RepositoryID)
	if err != nil {
		return err
	}

	if len(prs) == 0 {
		fmt.Printf("No pull requests found for %s.\n", repoCtx.RepositoryName)
		return nil
	}

	fmt.Printf("Pull requests for %s:\n\n", repoCtx.RepositoryName)
	for _, pr := range prs {
		fmt.Printf("#%-5d %s\n", pr.Number, pr.Title)
		fmt.Printf("       by %s, %s <- %s  (id %d)\n", pr.Author, pr.BaseBranch, pr.HeadBranch, pr.ID)
		if pr.HTMLURL != "" {
			fmt.Printf("       %s\n", pr.HTMLURL)
		}
	}
	return nil
}
