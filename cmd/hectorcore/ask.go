package main

import (
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newAskCmd() *cobra.Command {
	var sessionID string

	cmd := &cobra.Command{
		Use:   "ask [message...]",
		Short: "Run one turn through the Supervisor and print the result",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildAppFromRootFlags(cmd)
			if err != nil {
				return err
			}
			if sessionID == "" {
				sessionID = uuid.NewString()
			}
			return runTurn(cmd.Context(), a, sessionID, strings.Join(args, " "))
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "session ID to append this turn to (default: a fresh one per call)")
	return cmd
}
