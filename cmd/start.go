package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kiwis08/record/internal/recorder"
)

var startCmd = &cobra.Command{
	Use:   "start [name]",
	Short: "Record until interrupted",
	Long: `Start a recording with the configured audio settings and stop it on
Ctrl+C, printing the finished file path. The recorder process itself runs
detached; 'record stop' from another shell works on the same session.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		session, _ := cmd.Flags().GetString("session")
		device, _ := cmd.Flags().GetString("device")
		encoder, _ := cmd.Flags().GetString("encoder")
		output, _ := cmd.Flags().GetString("output")

		startCfg := cfg.StartConfig()
		if device != "" {
			startCfg.Device = device
		}
		if encoder != "" {
			startCfg.Encoder = recorder.Encoder(encoder)
		}

		name := "recording-" + time.Now().Format("20060102-150405")
		if len(args) == 1 {
			name = args[0]
		}

		path := output
		if path == "" {
			if err := os.MkdirAll(cfg.Output.Directory, 0755); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
			path = filepath.Join(cfg.Output.Directory, recorder.CleanFileName(name)+"."+startCfg.Encoder.FileExtension())
		}

		rec := newRecorder()

		// Log transitions while this command is attached to the session.
		sub := rec.Subscribe(session)
		defer sub.Close()
		go func() {
			for state := range sub.C {
				slog.Debug("Session state changed", "session", session, "state", state)
			}
		}()

		if err := rec.Start(session, startCfg, path); err != nil {
			return fmt.Errorf("failed to start recording: %w", err)
		}

		slog.Info("Recording... Press Ctrl+C to stop", "output", path)

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		finished, err := rec.Stop(session)
		if err != nil {
			return fmt.Errorf("failed to stop recording: %w", err)
		}

		if finished != "" {
			fmt.Println(finished)
		}
		return nil
	},
}

func init() {
	startCmd.Flags().String("session", "default", "session id for the control pipe")
	startCmd.Flags().StringP("device", "d", "", "capture device id (see 'record devices')")
	startCmd.Flags().StringP("encoder", "e", "", "encoder: aac-lc, aac-he, flac, opus, wav (overrides config)")
	startCmd.Flags().StringP("output", "o", "", "output file path (overrides the output directory)")
}
