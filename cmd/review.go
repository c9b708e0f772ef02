package cmd

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/repomind/repomind/internal/review"
	"github.com/repomind/repomind/pkg/models"
)

// ReviewCommand returns the review command
func ReviewCommand() *cli.Command {
	return &cli.Command{
		Name:  "review",
		Usage: "Run and inspect AI reviews for pull requests",
		Subcommands: []*cli.Command{
			{
				Name:      "run",
				Usage:     "Trigger an AI review for a pull request",
				ArgsUsage: "PR_ID",
				Action:    runReviewRun,
			},
			{
				Name:      "show",
				Usage:     "Show the latest AI review for a pull request",
				ArgsUsage: "PR_ID",
				Action:    runReviewShow,
			},
		},
	}
}

func parsePRID(c *cli.Context) (int64, error) {
	if c.NArg() < 1 {
		return 0, fmt.Errorf("missing required argument: PR_ID")
	}
	prID, err := strconv.ParseInt(c.Args().Get(0), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid pull request id %q", c.Args().Get(0))
	}
	return prID, nil
}

func runReviewRun(c *cli.Context) error {
	prID, err := parsePRID(c)
	if err != nil {
		return err
	}

	_, store, gw, err := loadApp(c)
	if err != nil {
		return err
	}

	if _, err := requireRepositoryContext(store); err != nil {
		return err
	}

	fmt.Printf("Running AI review for pull request %d...\n", prID)

	ctrl := review.NewController(gw)
	if err := ctrl.TriggerReview(c.Context, prID); err != nil {
		return err
	}

	fmt.Printf("AI review completed. Run 'repomind review show %d' to see the results.\n", prID)
	return nil
}

func runReviewShow(c *cli.Context) error {
	prID, err := parsePRID(c)
	if err != nil {
		return err
	}

	_, store, gw, err := loadApp(c)
	if err != nil {
		return err
	}

	if _, err := requireRepositoryContext(store); err != nil {
		return err
	}

	result, err := review.NewController(gw).FetchLatestResult(c.Context, prID)
	if err != nil {
		return err
	}

	fmt.Printf("AI review for pull request %d\n", prID)
	if !result.CreatedAt.IsZero() {
		fmt.Printf("Created: %s\n", result.CreatedAt.Format("2006-01-02 15:04"))
	}
	fmt.Printf("\nSummary:\n%s\n", result.Summary)

	if len(result.Comments) == 0 {
		fmt.Println("\nAll clear! No issues found in this pull request.")
		return nil
	}

	// Display tiering: most severe first, stable within a tier
	comments := append([]models.ReviewComment(nil), result.Comments...)
	sort.SliceStable(comments, func(i, j int) bool {
		return comments[i].Severity.Rank() < comments[j].Severity.Rank()
	})

	fmt.Printf("\nComments (%d):\n", len(comments))
	for _, cm := range comments {
		fmt.Printf("\n[%s] %s:%d (%s)\n", cm.Severity, cm.FilePath, cm.LineNumber, cm.Category)
		fmt.Printf("  %s\n", cm.Body)
		if cm.Rationale != "" {
			fmt.Printf("  Why: %s\n", cm.Rationale)
		}
		if cm.Suggestion != "" {
			fmt.Printf("  Suggestion: %s\n", cm.Suggestion)
		}
	}
	return nil
}
