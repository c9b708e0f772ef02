package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

// EnvCommand returns the env command, which prints the resolved
// configuration for troubleshooting.
func EnvCommand() *cli.Command {
	return &cli.Command{
		Name:   "env",
		Usage:  "Show the resolved configuration",
		Action: runEnv,
	}
}

func runEnv(c *cli.Context) error {
	cfg, _, _, err := loadApp(c)
	if err != nil {
		return err
	}

	fmt.Println("=== RepoMind Configuration ===")
	fmt.Printf("server.base_url        = %s\n", cfg.Server.BaseURL)
	fmt.Printf("server.timeout_seconds = %d\n", cfg.Server.TimeoutSeconds)
	fmt.Printf("auth.cookie_name       = %s\n", cfg.Auth.CookieName)
	if cfg.Auth.SessionToken == "" {
		fmt.Println("auth.session_token     = (not set)")
	} else {
		fmt.Printf("auth.session_token     = %s\n", maskSecret(cfg.Auth.SessionToken))
	}
	fmt.Printf("state.dir              = %s\n", cfg.State.Dir)
	fmt.Printf("state.session_dir      = %s\n", cfg.State.SessionDir)
	fmt.Printf("log.level              = %s\n", cfg.Log.Level)
	fmt.Println("==============================")
	return nil
}

// maskSecret masks a secret value for display, showing only first and last 2 chars
func maskSecret(value string) string {
	if len(value) <= 8 {
		return "****"
	}
	return value[:2] + "****" + value[len(value)-2:]
}
