package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kiwis08/record/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP control server",
	Long: `Run a long-lived control server that owns recorder sessions and
exposes them over HTTP: status, start/stop/pause/resume/cancel, device
enumeration, the recordings directory, and a state-change event stream.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if port, _ := cmd.Flags().GetString("port"); port != "" {
			cfg.Server.Port = port
		}

		srv := server.New(newRecorder(), cfg)
		if err := srv.Start(); err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().String("port", "", "port for the control server (overrides config)")
}
