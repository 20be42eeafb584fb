package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/voxlive/voxlive/cmd/voxlive/internal/config"
)

var (
	// Global flags
	verbose bool

	// Global configuration (loaded at init time)
	globalConfig *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "voxlive",
	Short: "Live voice conversations with Gemini from the terminal",
	Long: `voxlive - talk to Gemini through your microphone and speakers.

The run command opens a full-duplex session: your voice streams up,
synthesized speech streams back and starts playing immediately.
Interrupting the model mid-sentence cuts its playback off, like a
real conversation.

Configuration is stored in the OS config directory:
  macOS:   ~/Library/Application Support/voxlive/config.yaml
  Linux:   ~/.config/voxlive/config.yaml
  Windows: %AppData%/voxlive/config.yaml

The GEMINI_API_KEY environment variable overrides the configured key.

Examples:
  # Talk
  GEMINI_API_KEY=... voxlive run

  # Pick a voice for this session
  voxlive run --voice Kore

  # One-shot helpers
  voxlive ask "what is the capital of france"
  voxlive ask --image photo.jpg "what is in this picture"
  voxlive imagine -o cat.png "a cat in a spacesuit"`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig, initLogging)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// configLoadErr stores the error from config.Load() for deferred
// reporting, so commands that need no config (like version) still run.
var configLoadErr error

func initConfig() {
	cfg, err := config.Load()
	if err != nil {
		configLoadErr = err
		return
	}
	globalConfig = cfg
}

func initLogging() {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))
}

// GetConfig returns the global configuration.
func GetConfig() (*config.Config, error) {
	if globalConfig == nil {
		if configLoadErr != nil {
			return nil, fmt.Errorf("config not available: %w", configLoadErr)
		}
		cfg, err := config.Load()
		if err != nil {
			return nil, fmt.Errorf("config not available: %w", err)
		}
		globalConfig = cfg
	}
	return globalConfig, nil
}

// requireAPIKey returns the configured API key or a setup hint.
func requireAPIKey() (string, error) {
	cfg, err := GetConfig()
	if err != nil {
		return "", err
	}
	if cfg.APIKey == "" {
		return "", fmt.Errorf("no API key configured; set GEMINI_API_KEY or api_key in %s", cfg.Path)
	}
	return cfg.APIKey, nil
}

// IsVerbose returns whether verbose mode is enabled.
func IsVerbose() bool {
	return verbose
}
