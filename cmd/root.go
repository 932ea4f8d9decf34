package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/kiwis08/record/internal/config"
	"github.com/kiwis08/record/internal/fmedia"
	"github.com/kiwis08/record/internal/recorder"
)

var (
	cfg          *config.Config
	cfgFile      string
	verboseLevel int
)

var rootCmd = &cobra.Command{
	Use:   "record",
	Short: "Control audio recording through the fmedia binary",
	Long: `record manages background audio-recording sessions by driving the
fmedia command-line recorder: starting and stopping recordings, addressing a
running instance through its control pipe, and enumerating capture devices.

Recording itself happens in a detached fmedia process, so a session survives
the command that started it and can be stopped from another shell or through
the control server.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogging(verboseLevel)

		if cfgFile == "" {
			cfgFile = config.DefaultPath()
		}

		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/record.yaml)")
	rootCmd.PersistentFlags().IntVarP(&verboseLevel, "verbose", "v", 0, "verbose level: 0=info, 1=debug")

	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(devicesCmd)
	rootCmd.AddCommand(serveCmd)
}

// newRecorder builds the session controller from the loaded configuration.
func newRecorder() *recorder.Recorder {
	inv := fmedia.NewInvoker(cfg.Recorder.Binary, cfg.Recorder.NotFoundPatterns)
	return recorder.New(inv, cfg.Recorder.PipePrefix)
}

// setupLogging configures slog based on the verbose level.
func setupLogging(level int) {
	slogLevel := slog.LevelInfo
	if level >= 1 {
		slogLevel = slog.LevelDebug
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slogLevel,
	})
	slog.SetDefault(slog.New(handler))
}
