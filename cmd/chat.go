package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/repomind/repomind/internal/chat"
)

// ChatCommand returns the chat command
func ChatCommand() *cli.Command {
	return &cli.Command{
		Name:  "chat",
		Usage: "Chat with the AI assistant about the selected repository",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "new",
				Aliases: []string{"n"},
				Usage:   "Start a fresh conversation before sending anything",
			},
		},
		ArgsUsage: "[MESSAGE]",
		Action:    runChat,
	}
}

func runChat(c *cli.Context) error {
	_, store, gw, err := loadApp(c)
	if err != nil {
		return err
	}

	if _, err := requireRepositoryContext(store); err != nil {
		return err
	}

	if c.Bool("new") {
		if err := store.ResetConversation(); err != nil {
			return err
		}
		fmt.Println("Started a new conversation.")
	}

	session := chat.NewSession(store, gw)

	// One-shot mode: send the argument and print the answer
	if c.NArg() > 0 {
		answer, err := session.SendTurn(c.Context, strings.Join(c.Args().Slice(), " "))
		if err != nil {
			return err
		}
		fmt.Println(answer)
		return nil
	}

	// Interactive mode
	fmt.Println(chat.Greeting)
	fmt.Println("Type your question, or an empty line to quit.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("\nyou> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			break
		}

		answer, err := session.SendTurn(c.Context, line)
		if err != nil {
			if errors.Is(err, chat.ErrEmptyMessage) {
				continue
			}
			// Failed turns are part of the transcript; show the notice
			// and keep the conversation going.
			fmt.Printf("\nrepomind> Error: %s\n", err)
			continue
		}
		fmt.Printf("\nrepomind> %s\n", answer)
	}

	return scanner.Err()
}
