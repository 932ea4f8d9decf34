package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
)

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop a detached recording session",
	Long: `Send the stop-then-quit sequence to the recorder instance behind a
session's control pipe. Safe to run when nothing is recording; the
"no running instance" condition is not an error.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		session, _ := cmd.Flags().GetString("session")

		rec := newRecorder()
		if _, err := rec.Stop(session); err != nil {
			return fmt.Errorf("failed to stop recording: %w", err)
		}

		slog.Info("Session stopped", "session", session)
		return nil
	},
}

func init() {
	stopCmd.Flags().String("session", "default", "session id for the control pipe")
}
