package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

func newInvertCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "invert <image>",
		Short: "Invert an image's colors via the backend",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Session.Hydrate(cmd.Context()); err != nil {
				return fmt.Errorf("restore session: %w", err)
			}
			app.Session.WaitProfile()

			input := args[0]
			f, err := os.Open(input)
			if err != nil {
				return fmt.Errorf("open image: %w", err)
			}
			defer f.Close()

			data, err := app.Client.InvertImage(cmd.Context(), f, filepath.Base(input))
			if err != nil {
				return fmt.Errorf("invert image: %w", err)
			}

			if output == "" {
				ext := filepath.Ext(input)
				output = strings.TrimSuffix(input, ext) + "-inverted.png"
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("write result: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Saved inverted image to %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default <input>-inverted.png)")
	return cmd
}
