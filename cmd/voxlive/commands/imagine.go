package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"google.golang.org/genai"

	"github.com/voxlive/voxlive/pkg/gen"
)

var imagineOut string

var imagineCmd = &cobra.Command{
	Use:   "imagine <prompt>",
	Short: "Generate an image from a prompt",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		apiKey, err := requireAPIKey()
		if err != nil {
			return err
		}

		client, err := genai.NewClient(cmd.Context(), &genai.ClientConfig{
			APIKey:  apiKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return err
		}

		data, err := gen.New(client).GenerateImage(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		if err := os.WriteFile(imagineOut, data, 0644); err != nil {
			return fmt.Errorf("write %s: %w", imagineOut, err)
		}
		fmt.Printf("Wrote %s (%d bytes)\n", imagineOut, len(data))
		return nil
	},
}

func init() {
	imagineCmd.Flags().StringVarP(&imagineOut, "output", "o", "out.png", "output file")
	rootCmd.AddCommand(imagineCmd)
}
