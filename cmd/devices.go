package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List capture devices",
	Long: `Enumerate the audio capture devices the recorder binary can see.
The listing is rebuilt on every call; nothing is cached.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rec := newRecorder()

		devices, err := rec.ListDevices()
		if err != nil {
			return fmt.Errorf("failed to list devices: %w", err)
		}

		if len(devices) == 0 {
			fmt.Println("No capture devices found")
			return nil
		}

		fmt.Println("Capture devices:")
		for _, dev := range devices {
			fmt.Printf("  #%s  %s\n", dev.ID, dev.Label)
		}
		return nil
	},
}
