package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/repomind/repomind/cmd"
)

const (
	version = "0.1.0"
)

func main() {
	app := &cli.App{
		Name:    "repomind",
		Usage:   "AI-assisted code review and codebase chat client",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Load configuration from `FILE`",
			},
		},
		Commands: []*cli.Command{
			cmd.RepoCommand(),
			cmd.PRCommand(),
			cmd.ReviewCommand(),
			cmd.ChatCommand(),
			cmd.ConfigCommand(),
			cmd.EnvCommand(),
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
