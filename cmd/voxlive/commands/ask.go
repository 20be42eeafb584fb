package commands

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"google.golang.org/genai"

	"github.com/voxlive/voxlive/pkg/gen"
)

var askImage string

var askCmd = &cobra.Command{
	Use:   "ask <prompt>",
	Short: "One-shot text generation, optionally about an image",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		apiKey, err := requireAPIKey()
		if err != nil {
			return err
		}

		var (
			image     []byte
			imageMIME string
		)
		if askImage != "" {
			image, err = os.ReadFile(askImage)
			if err != nil {
				return fmt.Errorf("read image: %w", err)
			}
			imageMIME = mime.TypeByExtension(filepath.Ext(askImage))
			if imageMIME == "" {
				imageMIME = "image/jpeg"
			}
		}

		client, err := genai.NewClient(cmd.Context(), &genai.ClientConfig{
			APIKey:  apiKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return err
		}

		text, err := gen.New(client).GenerateText(cmd.Context(), strings.Join(args, " "), image, imageMIME)
		if err != nil {
			return err
		}
		fmt.Println(text)
		return nil
	},
}

func init() {
	askCmd.Flags().StringVar(&askImage, "image", "", "image file to ask about")
	rootCmd.AddCommand(askCmd)
}
