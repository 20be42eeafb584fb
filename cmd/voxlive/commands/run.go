package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/voxlive/voxlive/pkg/audio/portaudio"
	"github.com/voxlive/voxlive/pkg/live"
	"github.com/voxlive/voxlive/pkg/voice"
)

var (
	runVoice  string
	runModel  string
	runPrompt string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start a live voice conversation",
	Long: `Start a full-duplex voice conversation using the default
microphone and speakers. Press Ctrl-C to hang up.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		apiKey, err := requireAPIKey()
		if err != nil {
			return err
		}
		cfg, _ := GetConfig()

		if err := portaudio.Initialize(); err != nil {
			return fmt.Errorf("audio init: %w", err)
		}
		defer portaudio.Terminate()

		connect := &live.ConnectConfig{
			Model:             cfg.Model,
			Voice:             cfg.Voice,
			SystemInstruction: cfg.SystemPrompt,
		}
		if runModel != "" {
			connect.Model = runModel
		}
		if runVoice != "" {
			connect.Voice = runVoice
		}
		if runPrompt != "" {
			connect.SystemInstruction = runPrompt
		}

		vcfg := voice.DefaultConfig(live.NewClient(apiKey), connect)
		vcfg.OnEvent = printTranscripts
		session := voice.New(vcfg)

		if err := session.Start(cmd.Context()); err != nil {
			return err
		}
		fmt.Println("Connected. Talk, or press Ctrl-C to hang up.")

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(sig)

		ticker := time.NewTicker(200 * time.Millisecond)
		defer ticker.Stop()
	wait:
		for {
			select {
			case <-sig:
				break wait
			case <-ticker.C:
				switch session.State() {
				case voice.StateError:
					session.Stop()
					return fmt.Errorf("session failed; rerun with --verbose for details")
				case voice.StateDisconnected:
					fmt.Println("Server closed the session.")
					break wait
				}
			}
		}

		session.Stop()
		fmt.Println("Bye.")
		return nil
	},
}

// printTranscripts echoes text the server sends alongside audio.
func printTranscripts(event *live.ServerEvent) {
	switch {
	case event.Text != "":
		fmt.Print(event.Text)
	case event.OutputTranscript != "":
		fmt.Print(event.OutputTranscript)
	case event.TurnComplete:
		fmt.Println()
	case event.GoAway:
		fmt.Fprintln(os.Stderr, "(server is about to close the session)")
	}
}

func init() {
	runCmd.Flags().StringVar(&runVoice, "voice", "", "voice name (e.g. Puck, Kore)")
	runCmd.Flags().StringVar(&runModel, "model", "", "live model override")
	runCmd.Flags().StringVar(&runPrompt, "prompt", "", "system prompt override")
	rootCmd.AddCommand(runCmd)
}
