package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/voxlive/voxlive/pkg/audio/portaudio"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List audio devices",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := portaudio.Initialize(); err != nil {
			return fmt.Errorf("audio init: %w", err)
		}
		defer portaudio.Terminate()

		devices, err := portaudio.Devices()
		if err != nil {
			return err
		}
		if len(devices) == 0 {
			fmt.Println("No audio devices found.")
			return nil
		}

		for _, d := range devices {
			mark := " "
			if d.IsDefaultInput || d.IsDefaultOutput {
				mark = "*"
			}
			fmt.Printf("%s %2d  %-40s in:%d out:%d @ %.0f Hz\n",
				mark, d.Index, d.Name,
				d.MaxInputChannels, d.MaxOutputChannels, d.DefaultSampleRate)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(devicesCmd)
}
