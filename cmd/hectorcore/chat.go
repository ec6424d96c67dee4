package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newChatCmd() *cobra.Command {
	var sessionID string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive REPL session against the Supervisor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildAppFromRootFlags(cmd)
			if err != nil {
				return err
			}
			if sessionID == "" {
				sessionID = uuid.NewString()
			}
			return runChatLoop(cmd, a, sessionID)
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "session ID to resume (default: a fresh one per call)")
	return cmd
}

// runChatLoop reads lines from stdin until /quit, /exit, or EOF,
// routing each non-empty, non-command line through runTurn. /steer
// forwards an out-of-band message through Supervisor.Steer, which
// reaches only a reasoning loop parked on a pending approval — not
// reachable from this single-threaded REPL, but kept as a documented
// command for parity with spec §4.5's steering queue.
func runChatLoop(cmd *cobra.Command, a *app, sessionID string) error {
	fmt.Printf("hectorcore chat — session %s\n", sessionID)
	fmt.Println("Commands: /quit, /exit, /steer <message>")

	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print("\nyou> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			fmt.Println()
			return nil // EOF ends the session cleanly
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		switch {
		case line == "/quit" || line == "/exit":
			return nil
		case strings.HasPrefix(line, "/steer "):
			msg := strings.TrimPrefix(line, "/steer ")
			if a.supervisor.Steer(sessionID, msg) {
				fmt.Println("steered")
			} else {
				fmt.Println("no in-flight turn to steer")
			}
			continue
		}

		if err := runTurn(cmd.Context(), a, sessionID, line); err != nil {
			fmt.Printf("error: %v\n", err)
		}
	}
}
